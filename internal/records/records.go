// Package records provides read access to enrolled identity records. The
// verification core never writes records; enrollment belongs to the
// external registration workflow.
package records

import (
	"context"
	"errors"
	"sync/atomic"

	"facegate/internal/identity"
)

// ErrNotFound is returned when no record exists for an identifier.
var ErrNotFound = errors.New("record not found")

// Store is the read-only record lookup the verification core consumes.
type Store interface {
	// Get returns the enrolled record for a canonical identifier, or
	// ErrNotFound.
	Get(ctx context.Context, identifier string) (*identity.Record, error)
	// ListIdentifiers returns all known canonical identifiers.
	ListIdentifiers(ctx context.Context) ([]string, error)
}

// Snapshot is an atomically swappable view of the known identifier set.
// The text matcher reads it on every tick; an external synchronization step
// refreshes it. Readers may observe a slightly stale list between
// refreshes, never a partially written one.
type Snapshot struct {
	ids atomic.Pointer[[]string]
}

// NewSnapshot creates a snapshot holding the given identifiers.
func NewSnapshot(identifiers []string) *Snapshot {
	s := &Snapshot{}
	s.Swap(identifiers)
	return s
}

// Identifiers returns the current identifier list. Callers must not mutate it.
func (s *Snapshot) Identifiers() []string {
	if p := s.ids.Load(); p != nil {
		return *p
	}
	return nil
}

// Swap replaces the identifier list.
func (s *Snapshot) Swap(identifiers []string) {
	s.ids.Store(&identifiers)
}

// Refresh reloads the identifier list from the store.
func (s *Snapshot) Refresh(ctx context.Context, store Store) error {
	ids, err := store.ListIdentifiers(ctx)
	if err != nil {
		return err
	}
	s.Swap(ids)
	return nil
}
