package symbols

import (
	"github.com/funvibe/dispatchlab/internal/typesystem"
)

// TypeID is the stable arena index of a TypeDescriptor.
type TypeID int

// Implementation is anything a slot or capability table can point at.
type Implementation interface {
	// Identity names the implementation, e.g. "PoodleDog.makeSound".
	Identity() string
	Signature() typesystem.TFunc
}

// Slot is a named position in a type's virtual method table.
type Slot struct {
	Name string
	Impl Implementation
}

// MethodDef pairs a method name with its implementation in a TypeDef.
type MethodDef struct {
	Name string
	Impl Implementation
}

// FieldDef declares a piece of per-instance state.
type FieldDef struct {
	Name    string
	Type    typesystem.Type
	Default interface{}
}

// TypeDef is the input to DefineType.
type TypeDef struct {
	Name string
	// Base names the parent type; empty for a root type.
	Base string
	// Overrides replace base slots in place. Without a base they become
	// the first slots, in order.
	Overrides []MethodDef
	// Virtual methods are appended to the slot list.
	Virtual []MethodDef
	// Own methods are non-virtual and never enter the slot list.
	Own    []MethodDef
	Fields []FieldDef
}

// TypeDescriptor is the immutable, shared description of a concrete type.
type TypeDescriptor struct {
	ID   TypeID
	Name string
	Base *TypeDescriptor

	slots     []Slot
	slotIndex map[string]int
	own       map[string]Implementation
	fields    []FieldDef
}

// Slots returns a copy of the virtual slot list in slot order.
func (d *TypeDescriptor) Slots() []Slot {
	out := make([]Slot, len(d.slots))
	copy(out, d.slots)
	return out
}

// SlotIndex returns the position of a slot.
func (d *TypeDescriptor) SlotIndex(name string) (int, bool) {
	i, ok := d.slotIndex[name]
	return i, ok
}

// Slot returns the implementation bound at a slot.
func (d *TypeDescriptor) Slot(name string) (Implementation, bool) {
	i, ok := d.slotIndex[name]
	if !ok {
		return nil, false
	}
	return d.slots[i].Impl, true
}

// Own returns a non-virtual method declared on this exact type.
func (d *TypeDescriptor) Own(name string) (Implementation, bool) {
	impl, ok := d.own[name]
	return impl, ok
}

// LookupStatic resolves a non-virtual method by static type: this type
// first, then its bases. Virtual slots are never returned.
func (d *TypeDescriptor) LookupStatic(name string) (Implementation, bool) {
	for t := d; t != nil; t = t.Base {
		if impl, ok := t.own[name]; ok {
			return impl, true
		}
	}
	return nil, false
}

// Fields lists instance state, base fields first.
func (d *TypeDescriptor) Fields() []FieldDef {
	out := make([]FieldDef, len(d.fields))
	copy(out, d.fields)
	return out
}

// IsSubtypeOf reports whether d is other or derives from it.
func (d *TypeDescriptor) IsSubtypeOf(other *TypeDescriptor) bool {
	for t := d; t != nil; t = t.Base {
		if t == other {
			return true
		}
	}
	return false
}

// MethodSet resolves every method reachable from this type.
// Slots hold the most-derived override already; own methods resolve to
// the nearest declaration on the chain.
func (d *TypeDescriptor) MethodSet() map[string]Implementation {
	set := make(map[string]Implementation, len(d.slots))
	for t := d; t != nil; t = t.Base {
		for name, impl := range t.own {
			if _, ok := set[name]; !ok {
				set[name] = impl
			}
		}
	}
	for _, s := range d.slots {
		set[s.Name] = s.Impl
	}
	return set
}

// VTableSymbol names the type's method table in traces.
func (d *TypeDescriptor) VTableSymbol() string {
	return d.Name + " vtable"
}

func (d *TypeDescriptor) String() string {
	return d.Name
}
