package propagate

import "sync"

// MemoryStore is the in-memory Store used for a single run.
// It is scoped to a graph via the upstream map supplied at construction.
type MemoryStore struct {
	mu       sync.RWMutex
	upstream map[string][]string // blockID -> upstream block ids
	entries  map[string]Entry
}

// NewMemoryStore creates a store scoped by the given upstream relation
// (blockID -> ids of all blocks upstream of it).
func NewMemoryStore(upstream map[string][]string) *MemoryStore {
	return &MemoryStore{
		upstream: upstream,
		entries:  make(map[string]Entry),
	}
}

// Compile-time interface check.
var _ Store = (*MemoryStore)(nil)

// Propagate implements Store.
func (s *MemoryStore) Propagate(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.BlockID] = entry
	return nil
}

// Upstream implements Store. Only upstream blocks that have actually
// published appear in the result; a failed block never leaks an output to
// its successors.
func (s *MemoryStore) Upstream(blockID string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids, ok := s.upstream[blockID]
	if !ok {
		return nil, ErrUnknownBlock
	}

	vars := make(map[string]string, len(ids))
	for _, id := range ids {
		if entry, published := s.entries[id]; published {
			vars[entry.Number] = entry.Output
		}
	}
	return vars, nil
}

// Get implements Store.
func (s *MemoryStore) Get(blockID string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[blockID]
	return entry, ok
}
