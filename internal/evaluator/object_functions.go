package evaluator

import (
	"github.com/funvibe/dispatchlab/internal/symbols"
	"github.com/funvibe/dispatchlab/internal/typesystem"
)

// BuiltinFunction is the body of an implementation. self is the receiver.
type BuiltinFunction func(e *Evaluator, self *Instance, args ...Object) (Object, error)

// Callable is an implementation the evaluator can execute.
type Callable interface {
	symbols.Implementation
	Call(e *Evaluator, self *Instance, args []Object) (Object, error)
}

// Builtin is a Go-backed method implementation.
type Builtin struct {
	Fn   BuiltinFunction
	Name string           // Qualified name, e.g. "Dog.makeSound"
	Sig  typesystem.TFunc // Shape checked against slots and capabilities
}

var _ Callable = (*Builtin)(nil)

func (b *Builtin) Type() ObjectType             { return BUILTIN_OBJ }
func (b *Builtin) Inspect() string              { return "builtin " + b.Name }
func (b *Builtin) RuntimeType() typesystem.Type { return b.Sig }

func (b *Builtin) Identity() string            { return b.Name }
func (b *Builtin) Signature() typesystem.TFunc { return b.Sig }

func (b *Builtin) Call(e *Evaluator, self *Instance, args []Object) (Object, error) {
	return b.Fn(e, self, args...)
}
