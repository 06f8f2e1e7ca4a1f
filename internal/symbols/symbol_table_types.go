package symbols

import (
	"fmt"

	"github.com/funvibe/dispatchlab/internal/typesystem"
)

// DefineType builds and registers a descriptor.
//
// With a base, the slot list starts as a copy of the base's list and each
// override replaces its slot in place; untouched slots keep the base's
// implementation. Virtual methods are appended after that. Own methods
// are kept aside and never become slots.
func (s *SymbolTable) DefineType(def TypeDef) (*TypeDescriptor, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("define type: name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.typeIDs[def.Name]; exists {
		return nil, &typesystem.DuplicateTypeError{Name: def.Name}
	}

	d := &TypeDescriptor{
		ID:        TypeID(len(s.types)),
		Name:      def.Name,
		slotIndex: make(map[string]int),
		own:       make(map[string]Implementation),
	}

	if def.Base != "" {
		id, ok := s.typeIDs[def.Base]
		if !ok {
			return nil, typesystem.NewSymbolNotFoundError(def.Base)
		}
		base := s.types[id]
		d.Base = base
		d.slots = make([]Slot, len(base.slots))
		copy(d.slots, base.slots)
		for name, i := range base.slotIndex {
			d.slotIndex[name] = i
		}
		d.fields = append(d.fields, base.fields...)

		overridden := make(map[string]bool, len(def.Overrides))
		for _, m := range def.Overrides {
			if err := checkImpl(def.Name, m); err != nil {
				return nil, err
			}
			i, ok := d.slotIndex[m.Name]
			if !ok {
				return nil, typesystem.NewUnknownSlotError(def.Name, m.Name)
			}
			if overridden[m.Name] {
				return nil, &typesystem.DuplicateMethodError{Owner: def.Name, Method: m.Name}
			}
			want := d.slots[i].Impl.Signature()
			if have := m.Impl.Signature(); !typesystem.Equal(have, want) {
				return nil, &typesystem.SignatureMismatchError{Owner: def.Name, Slot: m.Name, Have: have, Want: want}
			}
			overridden[m.Name] = true
			d.slots[i] = Slot{Name: m.Name, Impl: m.Impl}
		}
	} else {
		for _, m := range def.Overrides {
			if err := d.appendSlot(m); err != nil {
				return nil, err
			}
		}
	}

	for _, m := range def.Virtual {
		if err := d.appendSlot(m); err != nil {
			return nil, err
		}
	}

	for _, m := range def.Own {
		if err := checkImpl(def.Name, m); err != nil {
			return nil, err
		}
		if _, isSlot := d.slotIndex[m.Name]; isSlot {
			return nil, &typesystem.DuplicateMethodError{Owner: def.Name, Method: m.Name}
		}
		if _, dup := d.own[m.Name]; dup {
			return nil, &typesystem.DuplicateMethodError{Owner: def.Name, Method: m.Name}
		}
		d.own[m.Name] = m.Impl
	}

	for _, f := range def.Fields {
		for _, existing := range d.fields {
			if existing.Name == f.Name {
				return nil, fmt.Errorf("define type %s: field %q already declared", def.Name, f.Name)
			}
		}
		d.fields = append(d.fields, f)
	}

	s.types = append(s.types, d)
	s.typeIDs[d.Name] = d.ID
	return d, nil
}

func (d *TypeDescriptor) appendSlot(m MethodDef) error {
	if err := checkImpl(d.Name, m); err != nil {
		return err
	}
	if _, dup := d.slotIndex[m.Name]; dup {
		return &typesystem.DuplicateMethodError{Owner: d.Name, Method: m.Name}
	}
	d.slotIndex[m.Name] = len(d.slots)
	d.slots = append(d.slots, Slot{Name: m.Name, Impl: m.Impl})
	return nil
}

func checkImpl(owner string, m MethodDef) error {
	if m.Name == "" {
		return fmt.Errorf("define type %s: method name is required", owner)
	}
	if m.Impl == nil {
		return fmt.Errorf("define type %s: method %q has no implementation", owner, m.Name)
	}
	return nil
}

// GetType looks a descriptor up by name.
func (s *SymbolTable) GetType(name string) (*TypeDescriptor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.typeIDs[name]
	if !ok {
		return nil, false
	}
	return s.types[id], true
}

// GetTypeByID looks a descriptor up by arena index.
func (s *SymbolTable) GetTypeByID(id TypeID) (*TypeDescriptor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id < 0 || int(id) >= len(s.types) {
		return nil, false
	}
	return s.types[id], true
}

// Types returns all descriptors in definition order.
func (s *SymbolTable) Types() []*TypeDescriptor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*TypeDescriptor, len(s.types))
	copy(out, s.types)
	return out
}

// ResolveVirtual returns the implementation bound at slot for the concrete
// type id. The declared type of the reference plays no part: the concrete
// descriptor already holds the most-derived override in every slot.
func (s *SymbolTable) ResolveVirtual(id TypeID, slot string) (Implementation, error) {
	d, ok := s.GetTypeByID(id)
	if !ok {
		return nil, typesystem.NewSymbolNotFoundError(fmt.Sprintf("type #%d", id))
	}
	impl, ok := d.Slot(slot)
	if !ok {
		return nil, typesystem.NewUnknownSlotError(d.Name, slot)
	}
	return impl, nil
}
