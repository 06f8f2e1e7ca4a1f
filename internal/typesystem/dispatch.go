package typesystem

// DispatchKind identifies the call idiom used to reach an implementation.
type DispatchKind int

const (
	DispatchVirtual    DispatchKind = 0 // Base-type view, resolved through the vtable slot chain
	DispatchCapability DispatchKind = 1 // Capability view, resolved through the bound table
	DispatchDirect     DispatchKind = 2 // Non-virtual own method, resolved by declared type
)

func (k DispatchKind) String() string {
	switch k {
	case DispatchVirtual:
		return "virtual"
	case DispatchCapability:
		return "capability"
	case DispatchDirect:
		return "direct"
	default:
		return "unknown"
	}
}

// ParseDispatchKind maps the textual form back to a DispatchKind.
func ParseDispatchKind(s string) (DispatchKind, bool) {
	switch s {
	case "virtual":
		return DispatchVirtual, true
	case "capability":
		return DispatchCapability, true
	case "direct":
		return DispatchDirect, true
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler so event logs carry readable kinds.
func (k DispatchKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *DispatchKind) UnmarshalText(text []byte) error {
	parsed, ok := ParseDispatchKind(string(text))
	if !ok {
		return &UnknownDispatchKindError{Name: string(text)}
	}
	*k = parsed
	return nil
}
