// Package redis provides a Redis-backed embedding store. Records live in a
// single hash keyed by record ID, with the persisted document as JSON.
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/papercomputeco/driftlens/pkg/store"
	"github.com/papercomputeco/driftlens/pkg/vector"
)

// DefaultPrefix is used when no key prefix is configured.
const DefaultPrefix = "driftlens"

// Config holds configuration for the Redis store.
type Config struct {
	Addr     string
	Password string
	DB       int

	// Prefix namespaces the hash key as "<prefix>:records".
	Prefix string
}

// Store implements store.Store on a Redis hash.
type Store struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// NewStore connects to Redis and verifies the connection.
func NewStore(ctx context.Context, c Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	prefix := c.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("connected to redis store", zap.String("addr", c.Addr), zap.String("prefix", prefix))

	return &Store{
		client: client,
		key:    prefix + ":records",
		logger: logger,
	}, nil
}

// Upsert sets the record's field in the hash.
func (s *Store) Upsert(ctx context.Context, rec vector.Record) error {
	if err := store.Validate(rec); err != nil {
		return err
	}

	b, err := json.Marshal(store.DocumentFromRecord(rec))
	if err != nil {
		return fmt.Errorf("encoding record %s: %w", rec.ID, err)
	}

	if err := s.client.HSet(ctx, s.key, rec.ID, b).Err(); err != nil {
		return fmt.Errorf("upserting record %s: %w", rec.ID, err)
	}
	return nil
}

// ReadAll returns every record in the hash.
func (s *Store) ReadAll(ctx context.Context) ([]vector.Record, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}

	out := make([]vector.Record, 0, len(fields))
	for id, raw := range fields {
		var doc store.Document
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("decoding record %s: %w", id, err)
		}
		out = append(out, doc.Record())
	}
	return out, nil
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

var _ store.Store = (*Store)(nil)
