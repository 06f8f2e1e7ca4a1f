// symbols/symbol_table.go - Main symbol table entry point
//
// The symbol table is split into focused modules:
// - symbol_table_core.go: Implementation, Slot, TypeDef and TypeDescriptor
// - symbol_table_advanced.go: SymbolTable struct definition and constructor
// - symbol_table_types.go: Type arena, DefineType and virtual resolution
// - symbol_table_traits.go: Capability registry
// - symbol_table_implementations.go: Conformance edges and capability tables

package symbols
