package typesystem

import (
	"sort"
	"strings"
)

// MethodSig is a method name together with its shape.
type MethodSig struct {
	Name string
	Type TFunc
}

func (m MethodSig) String() string {
	return m.Name + ": " + m.Type.String()
}

// Capability is a named, ordered set of method signatures.
// Its table layout follows declaration order; its identity is Key().
type Capability struct {
	Name    string
	Methods []MethodSig
}

// NewCapability validates and builds a capability.
func NewCapability(name string, methods ...MethodSig) (*Capability, error) {
	seen := make(map[string]bool, len(methods))
	for _, m := range methods {
		if seen[m.Name] {
			return nil, &DuplicateMethodError{Owner: name, Method: m.Name}
		}
		seen[m.Name] = true
	}
	sigs := make([]MethodSig, len(methods))
	copy(sigs, methods)
	return &Capability{Name: name, Methods: sigs}, nil
}

// Index returns the table position of a method.
func (c *Capability) Index(method string) (int, bool) {
	for i, m := range c.Methods {
		if m.Name == method {
			return i, true
		}
	}
	return -1, false
}

// Key identifies a capability by its declared signature set.
// Two capabilities with the same name but different signatures are distinct.
func (c *Capability) Key() string {
	sigs := make([]string, len(c.Methods))
	for i, m := range c.Methods {
		sigs[i] = m.String()
	}
	sort.Strings(sigs)
	return c.Name + "{" + strings.Join(sigs, "; ") + "}"
}

func (c *Capability) String() string {
	return c.Name
}
