package records

import (
	"context"
	"sort"
	"sync"

	"facegate/internal/identity"
)

// MemoryStore is an in-memory Store used by tests and the demo mode.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]identity.Record

	// Error injection for tests.
	GetError  error
	ListError error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]identity.Record)}
}

// Add puts a record into the store, replacing any existing one.
func (m *MemoryStore) Add(rec identity.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.Identifier] = rec
}

// Get returns the record for an identifier or ErrNotFound.
func (m *MemoryStore) Get(ctx context.Context, identifier string) (*identity.Record, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[identifier]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

// ListIdentifiers returns all identifiers in sorted order so matching
// iteration order is deterministic.
func (m *MemoryStore) ListIdentifiers(ctx context.Context) ([]string, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// All returns every record, sorted by identifier.
func (m *MemoryStore) All(ctx context.Context) ([]identity.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	recs := make([]identity.Record, 0, len(m.records))
	for _, rec := range m.records {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Identifier < recs[j].Identifier })
	return recs, nil
}
