package evaluator

import (
	"strings"

	"github.com/google/uuid"

	"github.com/funvibe/dispatchlab/internal/symbols"
	"github.com/funvibe/dispatchlab/internal/typesystem"
)

// Instance is a value of a concrete type. It owns its field state and
// refers to its shared descriptor by type identity.
type Instance struct {
	ID     uuid.UUID
	TypeID symbols.TypeID
	desc   *symbols.TypeDescriptor
	fields map[string]Object
}

// TypeName returns the concrete type's name.
func (i *Instance) TypeName() string { return i.desc.Name }

// Field returns a piece of instance state.
func (i *Instance) Field(name string) (Object, bool) {
	v, ok := i.fields[name]
	return v, ok
}

func (i *Instance) Type() ObjectType { return INSTANCE_OBJ }
func (i *Instance) Inspect() string {
	fields := i.desc.Fields()
	if len(fields) == 0 {
		return i.desc.Name + "()"
	}
	parts := make([]string, len(fields))
	for j, f := range fields {
		parts[j] = f.Name + ": " + i.fields[f.Name].Inspect()
	}
	return i.desc.Name + "(" + strings.Join(parts, ", ") + ")"
}
func (i *Instance) RuntimeType() typesystem.Type { return typesystem.TCon{Name: i.desc.Name} }
