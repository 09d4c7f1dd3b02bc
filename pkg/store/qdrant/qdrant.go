// Package qdrant provides a Qdrant-backed embedding store.
package qdrant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/papercomputeco/driftlens/pkg/store"
	"github.com/papercomputeco/driftlens/pkg/vector"
)

const (
	// DefaultCollection is used when no collection name is configured.
	DefaultCollection = "driftlens"

	// DefaultPort is Qdrant's gRPC port.
	DefaultPort = 6334

	scrollPageSize = 256
)

// Config holds configuration for the Qdrant store.
type Config struct {
	Host   string
	Port   int
	APIKey string
	UseTLS bool

	// Collection defaults to DefaultCollection if empty.
	Collection string

	// Dimensions is required to create the collection when it does not exist.
	Dimensions uint
}

// Store implements store.Store on a Qdrant collection. Qdrant stores single
// precision vectors, so components are narrowed to float32 on write and
// values read back are widened from float32. Vectors whose components are
// exactly representable in float32 read back unchanged.
type Store struct {
	client     *qdrant.Client
	collection string
	logger     *zap.Logger
}

// NewStore connects to Qdrant and creates the collection if it is missing.
func NewStore(ctx context.Context, c Config, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if c.Host == "" {
		return nil, fmt.Errorf("qdrant host is required")
	}

	port := c.Port
	if port == 0 {
		port = DefaultPort
	}

	collection := c.Collection
	if collection == "" {
		collection = DefaultCollection
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   c.Host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: c.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}

	s := &Store{client: client, collection: collection, logger: logger}
	if err := s.ensureCollection(ctx, c.Dimensions); err != nil {
		client.Close()
		return nil, err
	}

	logger.Info("connected to Qdrant",
		zap.String("host", c.Host),
		zap.Int("port", port),
		zap.String("collection", collection),
	)

	return s, nil
}

// vectorParams uses dot distance. Qdrant normalizes vectors stored in cosine
// collections, which would change records on read back. Ranking happens in
// search.TopK, not on the server.
func vectorParams(dimensions uint) *qdrant.VectorParams {
	return &qdrant.VectorParams{
		Size:     uint64(dimensions),
		Distance: qdrant.Distance_Dot,
	}
}

func (s *Store) ensureCollection(ctx context.Context, dimensions uint) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("checking collection %q: %w", s.collection, err)
	}
	if exists {
		return nil
	}
	if dimensions == 0 {
		return fmt.Errorf("collection %q does not exist and store dimensions are not configured", s.collection)
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig:  qdrant.NewVectorsConfig(vectorParams(dimensions)),
	})
	if err != nil {
		return fmt.Errorf("creating collection %q: %w", s.collection, err)
	}

	s.logger.Info("created Qdrant collection",
		zap.String("collection", s.collection),
		zap.Uint("dimensions", dimensions),
	)
	return nil
}

// Upsert writes rec as a point keyed by its UUID and waits for the write to
// be applied.
func (s *Store) Upsert(ctx context.Context, rec vector.Record) error {
	if err := store.Validate(rec); err != nil {
		return err
	}
	if _, err := uuid.Parse(rec.ID); err != nil {
		return fmt.Errorf("%w: qdrant point ids must be UUIDs, got %q", store.ErrInvalidRecord, rec.ID)
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDUUID(rec.ID),
				Vectors: qdrant.NewVectors(rec.Vector.Float32()...),
				Payload: qdrant.NewValueMap(map[string]any{
					"text":     rec.Label,
					"filename": rec.Source,
				}),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("upserting record %s: %w", rec.ID, err)
	}
	return nil
}

// ReadAll scrolls through the whole collection.
func (s *Store) ReadAll(ctx context.Context) ([]vector.Record, error) {
	var (
		out    []vector.Record
		offset *qdrant.PointId
	)

	for {
		// One extra point is requested so its id can seed the next page; the
		// scroll offset is inclusive.
		points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: s.collection,
			Offset:         offset,
			Limit:          qdrant.PtrOf(uint32(scrollPageSize + 1)),
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(true),
		})
		if err != nil {
			return nil, fmt.Errorf("reading records: %w", err)
		}

		page := points
		if len(points) > scrollPageSize {
			page = points[:scrollPageSize]
		}

		for _, p := range page {
			rec, err := pointToRecord(p)
			if err != nil {
				return nil, err
			}
			out = append(out, rec)
		}

		if len(points) <= scrollPageSize {
			return out, nil
		}
		offset = points[scrollPageSize].GetId()
	}
}

// Close closes the client connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func pointToRecord(p *qdrant.RetrievedPoint) (vector.Record, error) {
	id := p.GetId().GetUuid()
	data := p.GetVectors().GetVector().GetData()
	if len(data) == 0 {
		return vector.Record{}, fmt.Errorf("%w: point %s has no vector", vector.ErrMalformedVector, id)
	}

	payload := p.GetPayload()
	return vector.Record{
		ID:     id,
		Vector: vector.FromFloat32(data),
		Label:  getStringValue(payload, "text"),
		Source: getStringValue(payload, "filename"),
	}, nil
}

func getStringValue(payload map[string]*qdrant.Value, key string) string {
	if val, ok := payload[key]; ok {
		return val.GetStringValue()
	}
	return ""
}

var _ store.Store = (*Store)(nil)
