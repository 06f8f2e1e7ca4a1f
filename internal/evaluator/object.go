package evaluator

import (
	"github.com/funvibe/dispatchlab/internal/typesystem"
)

type ObjectType string

const (
	INTEGER_OBJ     = "INTEGER"
	STRING_OBJ      = "STRING"
	NIL_OBJ         = "NIL"
	BUILTIN_OBJ     = "BUILTIN"
	INSTANCE_OBJ    = "INSTANCE"
	LIST_OBJ        = "LIST"
	BASE_REF_OBJ    = "BASE_REF"    // Value viewed through a base type
	EXISTENTIAL_OBJ = "EXISTENTIAL" // Value paired with a capability table
)

type Object interface {
	Type() ObjectType
	Inspect() string
	RuntimeType() typesystem.Type // Returns the type system representation
}
