package symbols

import (
	"sync"

	"github.com/funvibe/dispatchlab/internal/typesystem"
)

// SymbolTable owns the type arena, the capability registry and the
// process-wide capability table cache.
//
// Descriptors and tables are immutable once published and may be read
// concurrently; the mutex only guards the registries themselves.
type SymbolTable struct {
	mu sync.RWMutex

	// Type arena indexed by TypeID
	types []*TypeDescriptor
	// Type name -> TypeID
	typeIDs map[string]TypeID

	// Capability name -> Capability
	capabilities map[string]*typesystem.Capability

	// Declared conformance edges: CapabilityName -> TypeName -> declared
	// Edges may be added after the type is defined (retroactive).
	implementations map[string]map[string]bool
	// Declaration order of edges, for deterministic checking
	implementationOrder []implKey

	// Capability tables: (capability key, TypeID) -> entry, built lazily
	tables map[tableKey]*tableEntry
}

type implKey struct {
	capability string
	typeName   string
}

type tableKey struct {
	capability string
	typeID     TypeID
}

// tableEntry is computed at most once; table and err are immutable after once fires.
type tableEntry struct {
	once  sync.Once
	table *CapabilityTable
	err   error
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		typeIDs:         make(map[string]TypeID),
		capabilities:    make(map[string]*typesystem.Capability),
		implementations: make(map[string]map[string]bool),
		tables:          make(map[tableKey]*tableEntry),
	}
}
