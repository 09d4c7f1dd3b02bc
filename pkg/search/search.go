// Package search implements exact top-K cosine similarity search over a set
// of stored embedding records.
package search

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/papercomputeco/driftlens/pkg/vector"
)

// ErrInvalidK is returned when the requested result count is not positive.
var ErrInvalidK = errors.New("k must be positive")

// Result is a single ranked match. It carries the full record so callers can
// report id, label and source without a second lookup.
type Result struct {
	Record vector.Record
	Score  float64
}

type options struct {
	skipZeroNorm bool
	logger       *zap.Logger
}

// Option configures TopK.
type Option func(*options)

// WithSkipZeroNorm makes TopK skip zero-norm candidates with a warning
// instead of failing the whole search.
func WithSkipZeroNorm(logger *zap.Logger) Option {
	return func(o *options) {
		o.skipZeroNorm = true
		if logger != nil {
			o.logger = logger
		}
	}
}

// TopK ranks candidates by cosine similarity to query and returns at most k
// results, highest score first. Equal scores keep candidate order, so the
// result is deterministic for a given input.
func TopK(query vector.Vector, candidates []vector.Record, k int, opts ...Option) ([]Result, error) {
	o := &options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	if len(query) == 0 {
		return nil, fmt.Errorf("query: %w", vector.ErrEmptyVector)
	}
	n := vector.Norm(query)
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, fmt.Errorf("query: %w: non-finite norm", vector.ErrMalformedVector)
	}
	if n == 0 {
		return nil, fmt.Errorf("query: %w", vector.ErrZeroNorm)
	}

	results := make([]Result, 0, len(candidates))
	for i, c := range candidates {
		if len(c.Vector) != len(query) {
			return nil, fmt.Errorf("%w: candidate %d (%s) has dimension %d, query has %d",
				vector.ErrDimensionMismatch, i, c.ID, len(c.Vector), len(query))
		}

		score, err := vector.Cosine(query, c.Vector)
		if errors.Is(err, vector.ErrZeroNorm) && o.skipZeroNorm {
			o.logger.Warn("skipping zero-norm candidate",
				zap.String("id", c.ID),
				zap.Int("position", i),
			)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("candidate %d (%s): %w", i, c.ID, err)
		}

		results = append(results, Result{Record: c, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k < len(results) {
		results = results[:k]
	}

	return results, nil
}
