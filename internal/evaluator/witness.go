package evaluator

import (
	"github.com/funvibe/dispatchlab/internal/typesystem"
)

// BindCapability converts v to a capability view. The table comes from the
// process-wide cache and is built for v's concrete type on first use.
func (e *Evaluator) BindCapability(v *Instance, capabilityName string) (*Existential, error) {
	c, ok := e.Symbols.GetCapability(capabilityName)
	if !ok {
		return nil, typesystem.NewSymbolNotFoundError(capabilityName)
	}
	table, err := e.Symbols.Bind(v.desc, c)
	if err != nil {
		return nil, err
	}
	return &Existential{Value: v, Table: table}, nil
}

// Invoke calls a capability method strictly through the view's bound table.
// Nothing about the call site's declared type is consulted.
func (e *Evaluator) Invoke(site string, x *Existential, method string, args ...Object) (Object, error) {
	impl, ok := x.Table.Lookup(method)
	if !ok {
		return nil, &typesystem.UnknownMethodError{Type: x.Table.Capability.Name, Method: method}
	}
	return e.apply(callSite{
		site:     site,
		kind:     typesystem.DispatchCapability,
		declared: x.Table.Capability.Name,
		method:   method,
		table:    x.Table.Symbol(),
	}, impl, x.Value, args)
}
