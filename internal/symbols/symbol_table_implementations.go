package symbols

import (
	"fmt"

	"github.com/funvibe/dispatchlab/internal/typesystem"
)

// CapabilityTable is the witness of one concrete type for one capability:
// one implementation per capability method, in capability order.
// It is immutable once built and shared by every value of the type.
type CapabilityTable struct {
	Capability *typesystem.Capability
	Type       *TypeDescriptor
	Methods    []Implementation
}

// Lookup returns the implementation bound for a capability method.
func (t *CapabilityTable) Lookup(method string) (Implementation, bool) {
	i, ok := t.Capability.Index(method)
	if !ok {
		return nil, false
	}
	return t.Methods[i], true
}

// Symbol names the table in traces.
func (t *CapabilityTable) Symbol() string {
	return fmt.Sprintf("%s: %s witness", t.Type.Name, t.Capability.Name)
}

// RegisterImplementation records that typeName conforms to capabilityName.
// The edge may be added at any time after both exist; it is checked
// on first use, not here.
func (s *SymbolTable) RegisterImplementation(capabilityName, typeName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.capabilities[capabilityName]; !ok {
		return typesystem.NewSymbolNotFoundError(capabilityName)
	}
	if _, ok := s.typeIDs[typeName]; !ok {
		return typesystem.NewSymbolNotFoundError(typeName)
	}
	if s.implementations[capabilityName] == nil {
		s.implementations[capabilityName] = make(map[string]bool)
	}
	if s.implementations[capabilityName][typeName] {
		return fmt.Errorf("duplicate conformance: %s already declared for %s", capabilityName, typeName)
	}
	s.implementations[capabilityName][typeName] = true
	s.implementationOrder = append(s.implementationOrder, implKey{capability: capabilityName, typeName: typeName})
	return nil
}

// IsImplementationExists reports whether a conformance edge was declared for
// the type or any of its bases.
func (s *SymbolTable) IsImplementationExists(capabilityName, typeName string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.typeIDs[typeName]
	if !ok {
		return false
	}
	for t := s.types[id]; t != nil; t = t.Base {
		if s.implementations[capabilityName][t.Name] {
			return true
		}
	}
	return false
}

// CheckImplementations resolves every declared edge, in declaration order,
// and returns the first failure.
func (s *SymbolTable) CheckImplementations() error {
	s.mu.RLock()
	edges := make([]implKey, len(s.implementationOrder))
	copy(edges, s.implementationOrder)
	s.mu.RUnlock()

	for _, edge := range edges {
		c, _ := s.GetCapability(edge.capability)
		d, _ := s.GetType(edge.typeName)
		if _, err := s.Bind(d, c); err != nil {
			return err
		}
	}
	return nil
}

// ConformsTo reports whether every capability method has a reachable
// implementation with a matching signature on d. The answer comes from the
// same cached entry Bind uses.
func (s *SymbolTable) ConformsTo(d *TypeDescriptor, c *typesystem.Capability) bool {
	_, err := s.Bind(d, c)
	return err == nil
}

// Bind returns the capability table for (c, d), building it on first request.
// Concurrent callers for the same pair share one build and one table.
func (s *SymbolTable) Bind(d *TypeDescriptor, c *typesystem.Capability) (*CapabilityTable, error) {
	key := tableKey{capability: c.Key(), typeID: d.ID}

	s.mu.Lock()
	entry, ok := s.tables[key]
	if !ok {
		entry = &tableEntry{}
		s.tables[key] = entry
	}
	s.mu.Unlock()

	entry.once.Do(func() {
		entry.table, entry.err = buildCapabilityTable(d, c)
	})
	return entry.table, entry.err
}

// CachedTables reports how many (capability, type) pairs have been resolved.
func (s *SymbolTable) CachedTables() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables)
}

func buildCapabilityTable(d *TypeDescriptor, c *typesystem.Capability) (*CapabilityTable, error) {
	methods := d.MethodSet()
	table := &CapabilityTable{
		Capability: c,
		Type:       d,
		Methods:    make([]Implementation, len(c.Methods)),
	}
	var missing []string
	for i, sig := range c.Methods {
		impl, ok := methods[sig.Name]
		if !ok || !typesystem.Equal(impl.Signature(), sig.Type) {
			missing = append(missing, sig.Name)
			continue
		}
		table.Methods[i] = impl
	}
	if len(missing) > 0 {
		return nil, typesystem.NewNonConformingTypeError(d.Name, c.Name, missing)
	}
	return table, nil
}
