// Package vector defines embedding vectors, embedding records, and the input
// contract checks shared by divergence estimation and similarity search.
package vector

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
)

// Vector is a dense embedding. All vectors compared or stored together must
// share the same dimensionality.
type Vector []float64

// Record is a persisted embedding together with the label used to produce it
// and a reference to the originating input.
type Record struct {
	// ID is an opaque unique identifier, generated at ingestion time.
	ID string

	// Vector is the embedding.
	Vector Vector

	// Label is the semantic category or text used to produce the embedding.
	Label string

	// Source references the originating input, e.g. a file path.
	Source string
}

// NewRecord creates a record with a fresh random ID. The ID is independent of
// label and source, so ingesting the same source twice yields two records.
func NewRecord(v Vector, label, source string) Record {
	return Record{
		ID:     uuid.NewString(),
		Vector: v,
		Label:  label,
		Source: source,
	}
}

// Dimension returns the common dimensionality of vs.
func Dimension(vs []Vector) (int, error) {
	if len(vs) == 0 {
		return 0, ErrEmptySet
	}

	d := len(vs[0])
	if d == 0 {
		return 0, fmt.Errorf("%w: vector 0 is empty", ErrEmptyVector)
	}

	for i, v := range vs[1:] {
		if len(v) != d {
			return 0, fmt.Errorf("%w: vector %d has dimension %d, expected %d", ErrDimensionMismatch, i+1, len(v), d)
		}
	}

	return d, nil
}

// Norm returns the Euclidean norm of v.
func Norm(v Vector) float64 {
	return floats.Norm(v, 2)
}

// Cosine returns the cosine similarity of a and b. Mismatched dimensions,
// zero-norm inputs and non-finite components are errors rather than NaN.
func Cosine(a, b Vector) (float64, error) {
	if len(a) == 0 || len(b) == 0 {
		return 0, ErrEmptyVector
	}
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	na := Norm(a)
	nb := Norm(b)
	if !finite(na) || !finite(nb) {
		return 0, fmt.Errorf("%w: non-finite norm", ErrMalformedVector)
	}
	if na == 0 || nb == 0 {
		return 0, ErrZeroNorm
	}

	s := floats.Dot(a, b) / (na * nb)
	if !finite(s) {
		return 0, fmt.Errorf("%w: non-finite similarity", ErrMalformedVector)
	}
	return s, nil
}

// Float32 converts v for backends that store single precision.
func (v Vector) Float32() []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}

// FromFloat32 widens a single precision slice.
func FromFloat32(f []float32) Vector {
	out := make(Vector, len(f))
	for i, x := range f {
		out[i] = float64(x)
	}
	return out
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
