// Package divergence estimates the distance between two embedding
// distributions with a kernel two-sample statistic.
package divergence

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/papercomputeco/driftlens/pkg/vector"
)

// MMD returns the biased maximum mean discrepancy between x and y under a
// Gaussian kernel with unit bandwidth, k(a, b) = exp(-0.5 * ||a - b||^2).
//
// Self-similarity terms on the diagonal are included in each mean, so the
// estimate can be slightly negative for tiny samples and callers must not
// assume it is strictly non-negative.
func MMD(x, y []vector.Vector) (float64, error) {
	dx, err := vector.Dimension(x)
	if err != nil {
		return 0, fmt.Errorf("first set: %w", err)
	}
	dy, err := vector.Dimension(y)
	if err != nil {
		return 0, fmt.Errorf("second set: %w", err)
	}
	if dx != dy {
		return 0, fmt.Errorf("%w: first set has dimension %d, second set has %d", vector.ErrDimensionMismatch, dx, dy)
	}
	if err := checkFinite(x); err != nil {
		return 0, fmt.Errorf("first set: %w", err)
	}
	if err := checkFinite(y); err != nil {
		return 0, fmt.Errorf("second set: %w", err)
	}

	xm := toDense(x, dx)
	ym := toDense(y, dy)

	var kxx, kyy, kxy mat.Dense
	kxx.Mul(xm, xm.T())
	kyy.Mul(ym, ym.T())
	kxy.Mul(xm, ym.T())

	rx := diag(&kxx)
	ry := diag(&kyy)

	k := kernelMean(&kxx, rx, rx)
	l := kernelMean(&kyy, ry, ry)
	m := kernelMean(&kxy, rx, ry)

	d := k + l - 2*m
	if !math.IsNaN(d) && !math.IsInf(d, 0) {
		return d, nil
	}

	// The Gram identity overflows for very large magnitudes. The pairwise
	// form only ever squares differences, so it stays finite.
	d = pairwiseMean(x, x) + pairwiseMean(y, y) - 2*pairwiseMean(x, y)
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, fmt.Errorf("%w: divergence is not finite", vector.ErrMalformedVector)
	}
	return d, nil
}

func pairwiseMean(a, b []vector.Vector) float64 {
	var sum float64
	for _, u := range a {
		for _, v := range b {
			sum += RBF(u, v)
		}
	}
	return sum / float64(len(a)*len(b))
}

func checkFinite(vs []vector.Vector) error {
	for i, v := range vs {
		for j, f := range v {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return fmt.Errorf("%w: vector %d component %d is %v", vector.ErrMalformedVector, i, j, f)
			}
		}
	}
	return nil
}

// RBF evaluates the unit-bandwidth Gaussian kernel directly.
func RBF(a, b vector.Vector) float64 {
	var sq float64
	for i := range a {
		d := a[i] - b[i]
		sq += d * d
	}
	return math.Exp(-0.5 * sq)
}

// kernelMean returns mean_ij exp(-0.5 * (r[i] + c[j] - 2*g[i,j])), which is
// the mean kernel value given the Gram matrix g and squared row norms.
func kernelMean(g *mat.Dense, r, c []float64) float64 {
	rows, cols := g.Dims()

	var sum float64
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			sum += math.Exp(-0.5 * (r[i] + c[j] - 2*g.At(i, j)))
		}
	}

	return sum / float64(rows*cols)
}

func diag(g *mat.Dense) []float64 {
	n, _ := g.Dims()
	out := make([]float64, n)
	for i := range out {
		out[i] = g.At(i, i)
	}
	return out
}

func toDense(vs []vector.Vector, d int) *mat.Dense {
	data := make([]float64, 0, len(vs)*d)
	for _, v := range vs {
		data = append(data, v...)
	}
	return mat.NewDense(len(vs), d, data)
}
