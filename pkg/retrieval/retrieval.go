// Package retrieval answers text queries against the embedding store with an
// exact top-K cosine search.
package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/driftlens/pkg/embeddings"
	"github.com/papercomputeco/driftlens/pkg/search"
	"github.com/papercomputeco/driftlens/pkg/store"
	"github.com/papercomputeco/driftlens/pkg/vector"
)

// DefaultTopK is the number of results returned when none is requested.
const DefaultTopK = 4

// Retriever embeds queries and ranks stored records against them.
type Retriever struct {
	Client *embeddings.Client
	Store  store.Store
	Logger *zap.Logger

	// SkipZeroNorm skips zero-norm stored vectors with a warning instead of
	// failing the query.
	SkipZeroNorm bool
}

// Query embeds text and returns the k most similar stored records.
func (r *Retriever) Query(ctx context.Context, text string, k int) ([]search.Result, error) {
	if text == "" {
		return nil, fmt.Errorf("query text is empty")
	}

	v, err := r.Client.Embed(ctx, embeddings.Item{Text: text})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	return r.QueryVector(ctx, v, k)
}

// QueryVector returns the k stored records most similar to v.
func (r *Retriever) QueryVector(ctx context.Context, v vector.Vector, k int) ([]search.Result, error) {
	logger := r.logger()

	records, err := r.Store.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading records: %w", err)
	}

	logger.Debug("ranking stored records",
		zap.Int("candidates", len(records)),
		zap.Int("k", k),
	)

	var opts []search.Option
	if r.SkipZeroNorm {
		opts = append(opts, search.WithSkipZeroNorm(logger))
	}

	return search.TopK(v, records, k, opts...)
}

func (r *Retriever) logger() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
