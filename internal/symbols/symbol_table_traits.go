package symbols

import (
	"github.com/funvibe/dispatchlab/internal/typesystem"
)

// RegisterCapability adds a capability to the registry.
func (s *SymbolTable) RegisterCapability(c *typesystem.Capability) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.capabilities[c.Name]; exists {
		return &typesystem.DuplicateTypeError{Name: c.Name}
	}
	s.capabilities[c.Name] = c
	return nil
}

// GetCapability looks a capability up by name.
func (s *SymbolTable) GetCapability(name string) (*typesystem.Capability, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.capabilities[name]
	return c, ok
}

// CapabilityExists checks if a capability is registered
func (s *SymbolTable) CapabilityExists(name string) bool {
	_, ok := s.GetCapability(name)
	return ok
}
