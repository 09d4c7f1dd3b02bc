// Package store persists embedding records and reads them back for
// similarity search.
package store

import (
	"context"

	"github.com/papercomputeco/driftlens/pkg/vector"
)

// Store is a keyed embedding store.
type Store interface {
	// Upsert writes rec, replacing any existing record with the same ID.
	// Writing the same record twice leaves one record.
	Upsert(ctx context.Context, rec vector.Record) error

	// ReadAll returns every stored record in unspecified order. A failure
	// anywhere fails the whole read; partial results are never returned.
	ReadAll(ctx context.Context) ([]vector.Record, error)

	// Close releases any resources held by the store.
	Close() error
}

// Document is the persisted shape of a record.
type Document struct {
	ID        string    `json:"id"`
	Embedding []float64 `json:"embedding"`
	Text      string    `json:"text"`
	Filename  string    `json:"filename"`
}

// DocumentFromRecord maps a record to its persisted shape.
func DocumentFromRecord(rec vector.Record) Document {
	return Document{
		ID:        rec.ID,
		Embedding: rec.Vector,
		Text:      rec.Label,
		Filename:  rec.Source,
	}
}

// Record maps a persisted document back to a record.
func (d Document) Record() vector.Record {
	return vector.Record{
		ID:     d.ID,
		Vector: d.Embedding,
		Label:  d.Text,
		Source: d.Filename,
	}
}
