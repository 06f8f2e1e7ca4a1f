package evaluator

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/funvibe/dispatchlab/internal/symbols"
	"github.com/funvibe/dispatchlab/internal/typesystem"
)

// EventHandler is notified after every completed call.
type EventHandler func(ev CallEvent)

type Evaluator struct {
	// Out receives every printed line as it is produced (optional).
	Out io.Writer
	// Symbols holds type descriptors, capabilities and capability tables.
	Symbols *symbols.SymbolTable
	// OnEvent is called after each dispatched call returns.
	OnEvent EventHandler

	// Transcript of printed lines, in order
	transcript []string
	// Recorded calls, in call order
	events []CallEvent
	// Indices into events for calls currently executing
	callStack []int
}

func New(table *symbols.SymbolTable) *Evaluator {
	if table == nil {
		table = symbols.NewSymbolTable()
	}
	return &Evaluator{
		Out:     io.Discard,
		Symbols: table,
	}
}

// Print emits one output line. Inside a call the line is also attributed
// to that call's event.
func (e *Evaluator) Print(format string, a ...interface{}) {
	line := fmt.Sprintf(format, a...)
	e.transcript = append(e.transcript, line)
	if n := len(e.callStack); n > 0 {
		ev := &e.events[e.callStack[n-1]]
		ev.Output = append(ev.Output, line)
	}
	if e.Out != nil {
		_, _ = fmt.Fprintln(e.Out, line)
	}
}

// Transcript returns a copy of all printed lines.
func (e *Evaluator) Transcript() []string {
	out := make([]string, len(e.transcript))
	copy(out, e.transcript)
	return out
}

// Events returns a copy of all recorded calls.
func (e *Evaluator) Events() []CallEvent {
	out := make([]CallEvent, len(e.events))
	for i, ev := range e.events {
		out[i] = ev.clone()
	}
	return out
}

// NewInstance creates a value of a concrete type. Fields not given take the
// type's declared default, or the zero value of the field type without one.
func (e *Evaluator) NewInstance(typeName string, fields map[string]Object) (*Instance, error) {
	d, ok := e.Symbols.GetType(typeName)
	if !ok {
		return nil, typesystem.NewSymbolNotFoundError(typeName)
	}

	declared := d.Fields()
	known := make(map[string]bool, len(declared))
	inst := &Instance{
		ID:     uuid.New(),
		TypeID: d.ID,
		desc:   d,
		fields: make(map[string]Object, len(declared)),
	}
	for _, f := range declared {
		known[f.Name] = true
		val, given := fields[f.Name]
		if !given {
			def, err := ToObject(f.Default)
			if f.Default == nil {
				def, err = Zero(f.Type)
			}
			if err != nil {
				return nil, fmt.Errorf("%s.%s default: %w", typeName, f.Name, err)
			}
			val = def
		}
		if f.Type != nil && !typesystem.Equal(val.RuntimeType(), f.Type) {
			return nil, &typesystem.TypeMismatchError{
				Have: val.RuntimeType().String(),
				Want: fmt.Sprintf("%s (field %s.%s)", f.Type, typeName, f.Name),
			}
		}
		inst.fields[f.Name] = val
	}
	for name := range fields {
		if !known[name] {
			return nil, fmt.Errorf("%s has no field %q", typeName, name)
		}
	}
	return inst, nil
}

// View returns a reference declared as the value's own concrete type.
func (e *Evaluator) View(v *Instance) *BaseRef {
	return &BaseRef{Value: v, Declared: v.desc}
}

// Upcast returns a reference declared as typeName, which must be the
// value's concrete type or one of its bases.
func (e *Evaluator) Upcast(v *Instance, typeName string) (*BaseRef, error) {
	d, ok := e.Symbols.GetType(typeName)
	if !ok {
		return nil, typesystem.NewSymbolNotFoundError(typeName)
	}
	if !v.desc.IsSubtypeOf(d) {
		return nil, &typesystem.TypeMismatchError{Have: v.desc.Name, Want: d.Name}
	}
	return &BaseRef{Value: v, Declared: d}, nil
}

// ResolveVirtual returns the implementation a virtual call on v would run.
func (e *Evaluator) ResolveVirtual(v *Instance, slot string) (symbols.Implementation, error) {
	return e.Symbols.ResolveVirtual(v.TypeID, slot)
}

// CallVirtual calls slot through a base-type reference. The slot must be
// declared on the reference's declared type; the implementation is always
// the concrete type's.
func (e *Evaluator) CallVirtual(site string, ref *BaseRef, slot string, args ...Object) (Object, error) {
	if _, ok := ref.Declared.SlotIndex(slot); !ok {
		return nil, typesystem.NewUnknownSlotError(ref.Declared.Name, slot)
	}
	impl, err := e.ResolveVirtual(ref.Value, slot)
	if err != nil {
		return nil, err
	}
	return e.apply(callSite{
		site:     site,
		kind:     typesystem.DispatchVirtual,
		declared: ref.Declared.Name,
		method:   slot,
		table:    ref.Value.desc.VTableSymbol(),
	}, impl, ref.Value, args)
}

// CallDirect calls a non-virtual own method chosen by the reference's
// declared type.
func (e *Evaluator) CallDirect(site string, ref *BaseRef, method string, args ...Object) (Object, error) {
	impl, ok := ref.Declared.LookupStatic(method)
	if !ok {
		return nil, &typesystem.UnknownMethodError{Type: ref.Declared.Name, Method: method}
	}
	return e.apply(callSite{
		site:     site,
		kind:     typesystem.DispatchDirect,
		declared: ref.Declared.Name,
		method:   method,
	}, impl, ref.Value, args)
}

type callSite struct {
	site     string
	kind     typesystem.DispatchKind
	declared string
	method   string
	table    string
}

func (e *Evaluator) apply(cs callSite, impl symbols.Implementation, self *Instance, args []Object) (Object, error) {
	fn, ok := impl.(Callable)
	if !ok {
		return nil, fmt.Errorf("%s is not callable", impl.Identity())
	}
	if err := checkArgs(impl, args); err != nil {
		return nil, err
	}

	ev := CallEvent{
		Seq:        len(e.events) + 1,
		Site:       cs.site,
		Kind:       cs.kind,
		Declared:   cs.declared,
		Receiver:   self.desc.Name,
		InstanceID: self.ID,
		Method:     cs.method,
		Impl:       impl.Identity(),
		Table:      cs.table,
	}
	for _, a := range args {
		ev.Args = append(ev.Args, a.Inspect())
	}
	idx := len(e.events)
	e.events = append(e.events, ev)
	e.callStack = append(e.callStack, idx)

	result, err := fn.Call(e, self, args)
	e.callStack = e.callStack[:len(e.callStack)-1]
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &Nil{}
	}
	if result.Type() != NIL_OBJ {
		e.events[idx].Result = result.Inspect()
	}
	if e.OnEvent != nil {
		e.OnEvent(e.events[idx].clone())
	}
	return result, nil
}

func checkArgs(impl symbols.Implementation, args []Object) error {
	params := impl.Signature().Params
	if len(args) != len(params) {
		return fmt.Errorf("%s expects %d arguments, got %d", impl.Identity(), len(params), len(args))
	}
	for i, p := range params {
		if !typesystem.Equal(args[i].RuntimeType(), p) {
			return &typesystem.TypeMismatchError{
				Have: args[i].RuntimeType().String(),
				Want: fmt.Sprintf("%s (argument %d of %s)", p, i, impl.Identity()),
			}
		}
	}
	return nil
}
