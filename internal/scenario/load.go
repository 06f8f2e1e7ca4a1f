package scenario

import (
	"fmt"
	"strconv"

	"github.com/funvibe/dispatchlab/internal/evaluator"
	"github.com/funvibe/dispatchlab/internal/symbols"
	"github.com/funvibe/dispatchlab/internal/typesystem"
)

// Load builds the program's universe: capabilities, type descriptors and
// declared conformances. Declared conformances are verified against each
// type's resolved method set before any step runs.
func Load(p *Program) (*symbols.SymbolTable, error) {
	st := symbols.NewSymbolTable()

	for _, cs := range p.Capabilities {
		sigs := make([]typesystem.MethodSig, 0, len(cs.Methods))
		for _, m := range cs.Methods {
			sigs = append(sigs, typesystem.MethodSig{Name: m.Name, Type: signature(m.Params, m.Returns)})
		}
		c, err := typesystem.NewCapability(cs.Name, sigs...)
		if err != nil {
			return nil, err
		}
		if err := st.RegisterCapability(c); err != nil {
			return nil, err
		}
	}

	for _, ts := range p.Types {
		def, err := typeDef(st, ts)
		if err != nil {
			return nil, err
		}
		d, err := st.DefineType(def)
		if err != nil {
			return nil, err
		}
		if err := checkTemplates(d, ts); err != nil {
			return nil, err
		}
	}

	for _, c := range p.Conformances {
		if err := st.RegisterImplementation(c.Capability, c.Type); err != nil {
			return nil, err
		}
	}
	if err := st.CheckImplementations(); err != nil {
		return nil, err
	}
	return st, nil
}

func signature(params []string, returns string) typesystem.TFunc {
	ps := make([]typesystem.Type, 0, len(params))
	for _, name := range params {
		ps = append(ps, typesystem.ParseName(name))
	}
	return typesystem.Func(typesystem.ParseName(returns), ps...)
}

func typeDef(st *symbols.SymbolTable, ts TypeSpec) (symbols.TypeDef, error) {
	def := symbols.TypeDef{Name: ts.Name, Base: ts.Base}

	var base *symbols.TypeDescriptor
	if ts.Base != "" {
		d, ok := st.GetType(ts.Base)
		if !ok {
			return def, typesystem.NewSymbolNotFoundError(ts.Base)
		}
		base = d
	}

	for _, f := range ts.Fields {
		def.Fields = append(def.Fields, symbols.FieldDef{
			Name:    f.Name,
			Type:    typesystem.ParseName(f.Type),
			Default: f.Default,
		})
	}

	for _, m := range ts.Methods {
		md := symbols.MethodDef{
			Name: m.Name,
			Impl: evaluator.NewTemplateBuiltin(
				evaluator.QualifiedName(ts.Name, m.Name),
				signature(m.Params, m.Returns),
				m.Print, m.Result),
		}
		switch methodKind(base, m) {
		case KindOwn:
			def.Own = append(def.Own, md)
		case KindOverride:
			def.Overrides = append(def.Overrides, md)
		default:
			def.Virtual = append(def.Virtual, md)
		}
	}
	return def, nil
}

func methodKind(base *symbols.TypeDescriptor, m MethodSpec) string {
	if m.Kind != "" {
		return m.Kind
	}
	if base != nil {
		if _, ok := base.SlotIndex(m.Name); ok {
			return KindOverride
		}
	}
	return KindVirtual
}

// checkTemplates rejects placeholders that can never expand for the type.
func checkTemplates(d *symbols.TypeDescriptor, ts TypeSpec) error {
	fields := make(map[string]bool)
	for _, f := range d.Fields() {
		fields[f.Name] = true
	}
	for _, m := range ts.Methods {
		for _, tmpl := range []string{m.Print, m.Result} {
			for _, name := range evaluator.Placeholders(tmpl) {
				if n, err := strconv.Atoi(name); err == nil {
					if n >= len(m.Params) {
						return fmt.Errorf("%s.%s: placeholder {%s} exceeds %d parameters", ts.Name, m.Name, name, len(m.Params))
					}
					continue
				}
				if name != "type" && !fields[name] {
					return fmt.Errorf("%s.%s: placeholder {%s} names no field", ts.Name, m.Name, name)
				}
			}
		}
	}
	return nil
}
