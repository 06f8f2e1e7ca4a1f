package typesystem

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is checks on the dispatch error taxonomy.
var (
	ErrUnknownSlot       = errors.New("unknown slot")
	ErrNonConformingType = errors.New("non-conforming type")
)

// UnknownSlotError indicates a virtual call or override named a slot
// that is not declared anywhere on the type's base chain.
type UnknownSlotError struct {
	Type string
	Slot string
}

func (e *UnknownSlotError) Error() string {
	return fmt.Sprintf("unknown slot: %s has no virtual slot %q", e.Type, e.Slot)
}

func (e *UnknownSlotError) Is(target error) bool {
	return target == ErrUnknownSlot
}

func NewUnknownSlotError(typeName, slot string) *UnknownSlotError {
	return &UnknownSlotError{Type: typeName, Slot: slot}
}

// NonConformingTypeError indicates a capability binding for a type
// that lacks one or more required methods.
type NonConformingTypeError struct {
	Type       string
	Capability string
	Missing    []string
}

func (e *NonConformingTypeError) Error() string {
	return fmt.Sprintf("non-conforming type: %s does not satisfy %s (missing %s)",
		e.Type, e.Capability, strings.Join(e.Missing, ", "))
}

func (e *NonConformingTypeError) Is(target error) bool {
	return target == ErrNonConformingType
}

func NewNonConformingTypeError(typeName, capability string, missing []string) *NonConformingTypeError {
	return &NonConformingTypeError{Type: typeName, Capability: capability, Missing: missing}
}

// UnknownMethodError indicates a direct call named a method the declared
// type does not statically provide.
type UnknownMethodError struct {
	Type   string
	Method string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("unknown method: %s has no method %q", e.Type, e.Method)
}

// TypeMismatchError indicates a value cannot be viewed as the wanted type.
type TypeMismatchError struct {
	Have string
	Want string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: %s is not a %s", e.Have, e.Want)
}

// SymbolNotFoundError indicates a type or capability name was not found
type SymbolNotFoundError struct {
	Name string
}

func (e *SymbolNotFoundError) Error() string {
	return fmt.Sprintf("symbol not found: %s", e.Name)
}

func NewSymbolNotFoundError(name string) *SymbolNotFoundError {
	return &SymbolNotFoundError{Name: name}
}

// DuplicateTypeError indicates a type or capability name was defined twice.
type DuplicateTypeError struct {
	Name string
}

func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("duplicate definition: %s", e.Name)
}

// DuplicateMethodError indicates a method name declared twice on one owner.
type DuplicateMethodError struct {
	Owner  string
	Method string
}

func (e *DuplicateMethodError) Error() string {
	return fmt.Sprintf("duplicate method: %s.%s", e.Owner, e.Method)
}

// SignatureMismatchError indicates an override whose shape differs from the slot it replaces.
type SignatureMismatchError struct {
	Owner string
	Slot  string
	Have  TFunc
	Want  TFunc
}

func (e *SignatureMismatchError) Error() string {
	return fmt.Sprintf("signature mismatch: %s.%s is %s, slot requires %s", e.Owner, e.Slot, e.Have, e.Want)
}

// UnknownDispatchKindError indicates an unrecognized dispatch kind name.
type UnknownDispatchKindError struct {
	Name string
}

func (e *UnknownDispatchKindError) Error() string {
	return fmt.Sprintf("unknown dispatch kind: %q", e.Name)
}
