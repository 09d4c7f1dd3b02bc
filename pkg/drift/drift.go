// Package drift compares two sets of inputs by embedding both and estimating
// the divergence between the resulting distributions.
package drift

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/papercomputeco/driftlens/pkg/divergence"
	"github.com/papercomputeco/driftlens/pkg/embeddings"
)

// ErrMissingEmbeddings is matched by MissingError.
var ErrMissingEmbeddings = errors.New("missing embeddings")

// MissingError reports the items that produced no embedding under
// AbortOnMissing.
type MissingError struct {
	MissingA []int
	MissingB []int
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s: set A positions %v, set B positions %v", ErrMissingEmbeddings, e.MissingA, e.MissingB)
}

func (e *MissingError) Is(target error) bool {
	return target == ErrMissingEmbeddings
}

// Report is the outcome of a comparison.
type Report struct {
	Policy     MissingPolicy
	Divergence float64

	SizeA int
	SizeB int
	UsedA int
	UsedB int

	// MissingA and MissingB are the input positions excluded from each set.
	MissingA []int
	MissingB []int
}

// Comparer embeds two sets and compares them.
type Comparer struct {
	Client *embeddings.Client
	Logger *zap.Logger
}

// Compare embeds a and b and returns the MMD between them. Missing items are
// handled by policy: AbortOnMissing returns a *MissingError and no report,
// DropMissing excludes them and lists them in the report.
func (c *Comparer) Compare(ctx context.Context, a, b []embeddings.Item, policy MissingPolicy) (*Report, error) {
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Info("embedding set A", zap.Int("items", len(a)))
	outA := c.Client.EmbedAll(ctx, a)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Info("embedding set B", zap.Int("items", len(b)))
	outB := c.Client.EmbedAll(ctx, b)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vecsA, missingA := embeddings.Vectors(outA)
	vecsB, missingB := embeddings.Vectors(outB)

	if len(missingA)+len(missingB) > 0 {
		logger.Warn("some items produced no embedding",
			zap.Ints("missing_a", missingA),
			zap.Ints("missing_b", missingB),
			zap.Stringer("policy", policy),
		)
		if policy != DropMissing {
			return nil, &MissingError{MissingA: missingA, MissingB: missingB}
		}
	}

	d, err := divergence.MMD(vecsA, vecsB)
	if err != nil {
		return nil, fmt.Errorf("computing divergence: %w", err)
	}

	logger.Info("divergence computed", zap.Float64("mmd", d))

	return &Report{
		Policy:     policy,
		Divergence: d,
		SizeA:      len(a),
		SizeB:      len(b),
		UsedA:      len(vecsA),
		UsedB:      len(vecsB),
		MissingA:   missingA,
		MissingB:   missingB,
	}, nil
}
