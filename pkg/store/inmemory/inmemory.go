// Package inmemory provides a map-backed embedding store.
package inmemory

import (
	"context"
	"slices"
	"sync"

	"github.com/papercomputeco/driftlens/pkg/store"
	"github.com/papercomputeco/driftlens/pkg/vector"
)

// Store implements store.Store using an in-memory map.
type Store struct {
	// mu guards records
	mu sync.RWMutex

	// records is keyed by record ID
	records map[string]vector.Record
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		records: make(map[string]vector.Record),
	}
}

// Upsert stores a copy of rec, replacing any record with the same ID.
func (s *Store) Upsert(_ context.Context, rec vector.Record) error {
	if err := store.Validate(rec); err != nil {
		return err
	}

	rec.Vector = slices.Clone(rec.Vector)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[rec.ID] = rec
	return nil
}

// ReadAll returns copies of every stored record.
func (s *Store) ReadAll(ctx context.Context) ([]vector.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]vector.Record, 0, len(s.records))
	for _, rec := range s.records {
		rec.Vector = slices.Clone(rec.Vector)
		out = append(out, rec)
	}
	return out, nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

var _ store.Store = (*Store)(nil)
