package evaluator

import (
	"fmt"

	"github.com/funvibe/dispatchlab/internal/symbols"
	"github.com/funvibe/dispatchlab/internal/typesystem"
)

// BaseRef is a value accessed through a declared class type. Virtual calls
// use the concrete descriptor; direct calls use Declared.
type BaseRef struct {
	Value    *Instance
	Declared *symbols.TypeDescriptor
}

func (r *BaseRef) Type() ObjectType { return BASE_REF_OBJ }
func (r *BaseRef) Inspect() string {
	return fmt.Sprintf("<%s as %s>", r.Value.Inspect(), r.Declared.Name)
}
func (r *BaseRef) RuntimeType() typesystem.Type { return typesystem.TCon{Name: r.Declared.Name} }

// Existential pairs a value with the capability table captured when it was
// converted to the capability. The table is fixed for the view's lifetime.
type Existential struct {
	Value *Instance
	Table *symbols.CapabilityTable
}

func (x *Existential) Type() ObjectType { return EXISTENTIAL_OBJ }
func (x *Existential) Inspect() string {
	return fmt.Sprintf("<%s as %s>", x.Value.Inspect(), x.Table.Capability.Name)
}
func (x *Existential) RuntimeType() typesystem.Type {
	return typesystem.TCon{Name: x.Table.Capability.Name}
}
