package history

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory history store.
// Useful for testing and short-lived processes; records are lost when the
// process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	closed  bool
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
	}
}

// Save stores a record, overwriting any record with the same execution id.
func (s *MemoryStore) Save(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	s.records[rec.ExecutionID] = rec
	return nil
}

// Load retrieves the record for an execution id.
func (s *MemoryStore) Load(executionID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Record{}, ErrStoreClosed
	}
	rec, ok := s.records[executionID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// List returns records ordered newest first by start time.
func (s *MemoryStore) List(limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete removes the record for an execution id.
func (s *MemoryStore) Delete(executionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	delete(s.records, executionID)
	return nil
}

// Close marks the store closed. Subsequent operations fail with
// ErrStoreClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
