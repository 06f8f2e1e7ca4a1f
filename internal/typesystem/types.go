package typesystem

import (
	"strings"

	"github.com/funvibe/dispatchlab/internal/config"
)

// Type is the interface for all types in our system.
type Type interface {
	String() string
}

// TCon represents a named type (e.g. Int, String, Dog).
type TCon struct {
	Name string
}

func (t TCon) String() string {
	return t.Name
}

// TFunc represents a method shape: parameter types and a return type.
// The receiver is implicit and never part of Params.
type TFunc struct {
	Params     []Type
	ReturnType Type
}

func (t TFunc) String() string {
	var params []string
	for _, p := range t.Params {
		params = append(params, typeString(p))
	}
	return "(" + strings.Join(params, ", ") + ") -> " + typeString(t.ReturnType)
}

func typeString(t Type) string {
	if t == nil {
		return config.UnitTypeName
	}
	return t.String()
}

// Common named types.
var (
	Unit   = TCon{Name: config.UnitTypeName}
	Int    = TCon{Name: config.IntTypeName}
	String = TCon{Name: config.StringTypeName}
)

// Func builds a TFunc from a return type and parameter types.
func Func(ret Type, params ...Type) TFunc {
	return TFunc{Params: params, ReturnType: ret}
}

// Equal reports whether two types are structurally identical.
// A nil type is treated as Unit.
func Equal(a, b Type) bool {
	if a == nil {
		a = Unit
	}
	if b == nil {
		b = Unit
	}
	switch at := a.(type) {
	case TCon:
		bt, ok := b.(TCon)
		return ok && at.Name == bt.Name
	case TFunc:
		bt, ok := b.(TFunc)
		if !ok || len(at.Params) != len(bt.Params) {
			return false
		}
		for i := range at.Params {
			if !Equal(at.Params[i], bt.Params[i]) {
				return false
			}
		}
		return Equal(at.ReturnType, bt.ReturnType)
	}
	return false
}

// ParseName maps a type name to its TCon. An empty name is Unit.
func ParseName(name string) Type {
	name = strings.TrimSpace(name)
	if name == "" {
		return Unit
	}
	return TCon{Name: name}
}
