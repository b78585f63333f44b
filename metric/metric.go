// Package metric provides similarity metrics for the HNSW index.
//
// A metric scores a pair of vectors; a greater score means the vectors are
// more similar. Distance functions are therefore exposed negated so that the
// nearest vector always carries the highest score.
package metric

import (
	"cmp"
	"math"

	"github.com/viterin/vek/vek32"
	"gonum.org/v1/gonum/floats"
)

// Metric computes the similarity between two vectors.
//
// Implementations should be stable (small changes to a vector produce small
// changes in score) and monotonic (the score decreases as vectors drift apart).
// Neither property is enforced.
type Metric[V any, S cmp.Ordered] interface {
	Similarity(a, b V) S
}

// Func adapts a plain function to the Metric interface.
type Func[V any, S cmp.Ordered] func(a, b V) S

// Similarity calls f(a, b).
func (f Func[V, S]) Similarity(a, b V) S { return f(a, b) }

// Compile time checks.
var (
	_ Metric[[]float32, float32] = NegativeSquaredL2
	_ Metric[[]float64, float64] = NegativeL2Float64
)

// NegativeSquaredL2 scores float32 vectors by their negated squared euclidean distance.
var NegativeSquaredL2 = Func[[]float32, float32](func(a, b []float32) float32 {
	d := vek32.Distance(a, b)
	return -(d * d)
})

// NegativeL2 scores float32 vectors by their negated euclidean distance.
var NegativeL2 = Func[[]float32, float32](func(a, b []float32) float32 {
	return -vek32.Distance(a, b)
})

// Cosine scores float32 vectors by cosine similarity.
// Zero vectors score 0 against everything.
var Cosine = Func[[]float32, float32](func(a, b []float32) float32 {
	na := vek32.Dot(a, a)
	nb := vek32.Dot(b, b)
	if na == 0 || nb == 0 {
		return 0
	}
	return vek32.Dot(a, b) / float32(math.Sqrt(float64(na)*float64(nb)))
})

// Dot scores float32 vectors by inner product. Only meaningful for normalized
// vectors or maximum inner product workloads.
var Dot = Func[[]float32, float32](func(a, b []float32) float32 {
	return vek32.Dot(a, b)
})

// NegativeL2Float64 scores float64 vectors by their negated euclidean distance.
var NegativeL2Float64 = Func[[]float64, float64](func(a, b []float64) float64 {
	return -floats.Distance(a, b, 2)
})

// CosineFloat64 scores float64 vectors by cosine similarity.
var CosineFloat64 = Func[[]float64, float64](func(a, b []float64) float64 {
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
})

// DotFloat64 scores float64 vectors by inner product.
var DotFloat64 = Func[[]float64, float64](func(a, b []float64) float64 {
	return floats.Dot(a, b)
})

// Magnitude returns the euclidean length of v.
func Magnitude(v []float32) float32 {
	return float32(math.Sqrt(float64(vek32.Dot(v, v))))
}
