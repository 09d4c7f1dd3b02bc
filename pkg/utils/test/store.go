package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/driftlens/pkg/store"
	"github.com/papercomputeco/driftlens/pkg/vector"
)

// ErrMockStore is returned by MockStore for injected failures.
var ErrMockStore = errors.New("mock store failure")

// MockStore is an in-memory store with injectable failures.
type MockStore struct {
	mu      sync.Mutex
	records map[string]vector.Record

	// FailUpsertOn makes Upsert fail for records with this label.
	FailUpsertOn string

	// FailReadAll makes ReadAll fail.
	FailReadAll bool

	// Upserts counts Upsert calls, including failed ones.
	Upserts int
}

func NewMockStore() *MockStore {
	return &MockStore{records: make(map[string]vector.Record)}
}

func (m *MockStore) Upsert(_ context.Context, rec vector.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Upserts++
	if m.FailUpsertOn != "" && rec.Label == m.FailUpsertOn {
		return ErrMockStore
	}
	if err := store.Validate(rec); err != nil {
		return err
	}
	m.records[rec.ID] = rec
	return nil
}

func (m *MockStore) ReadAll(_ context.Context) ([]vector.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailReadAll {
		return nil, ErrMockStore
	}
	out := make([]vector.Record, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	return out, nil
}

// Get returns the record with id, if stored.
func (m *MockStore) Get(id string) (vector.Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	return rec, ok
}

// Len returns the number of stored records.
func (m *MockStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *MockStore) Close() error {
	return nil
}
