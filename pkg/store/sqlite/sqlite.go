// Package sqlite provides a SQLite-backed embedding store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/papercomputeco/driftlens/pkg/store"
	"github.com/papercomputeco/driftlens/pkg/vector"
)

const schema = `CREATE TABLE IF NOT EXISTS embeddings (
	id TEXT PRIMARY KEY,
	embedding BLOB NOT NULL,
	text TEXT NOT NULL DEFAULT '',
	filename TEXT NOT NULL DEFAULT ''
)`

// Store implements store.Store on a SQLite table.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStore opens or creates the database at dbPath and ensures the table
// exists. dbPath can be a file path or ":memory:".
func NewStore(dbPath string, logger *zap.Logger) (*Store, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Debug("opened sqlite store", zap.String("path", dbPath))

	return &Store{db: db, logger: logger}, nil
}

// Upsert writes rec, replacing the row with the same ID.
func (s *Store) Upsert(ctx context.Context, rec vector.Record) error {
	if err := store.Validate(rec); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO embeddings (id, embedding, text, filename) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			embedding = excluded.embedding,
			text = excluded.text,
			filename = excluded.filename`,
		rec.ID, encode(rec.Vector), rec.Label, rec.Source,
	)
	if err != nil {
		return fmt.Errorf("upserting record %s: %w", rec.ID, err)
	}
	return nil
}

// ReadAll returns every row.
func (s *Store) ReadAll(ctx context.Context) ([]vector.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, embedding, text, filename FROM embeddings`)
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}
	defer rows.Close()

	var out []vector.Record
	for rows.Next() {
		var (
			rec  vector.Record
			blob []byte
		)
		if err := rows.Scan(&rec.ID, &blob, &rec.Label, &rec.Source); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}

		rec.Vector, err = decode(blob)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}

	return out, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// encode serializes v as little-endian float64s.
func encode(v vector.Vector) []byte {
	buf := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decode(buf []byte) (vector.Vector, error) {
	if len(buf) == 0 || len(buf)%8 != 0 {
		return nil, fmt.Errorf("%w: embedding blob of %d bytes", vector.ErrMalformedVector, len(buf))
	}
	v := make(vector.Vector, len(buf)/8)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return v, nil
}

var _ store.Store = (*Store)(nil)
