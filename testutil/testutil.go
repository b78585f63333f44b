package testutil

import (
	"cmp"
	"math"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/viterin/vek/vek32"

	"github.com/hupe1980/vecgraph/metric"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed uint64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed uint64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewPCG(seed, seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand = rand.New(rand.NewPCG(r.seed, r.seed))
}

// Seed returns the initial seed.
func (r *RNG) Seed() uint64 {
	return r.seed
}

// IntN returns a non-negative pseudo-random number in [0,n).
func (r *RNG) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.IntN(n)
}

// Float64 returns a pseudo-random number in [0,1).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// UniformVectors generates random vectors with values in range [0, 1).
// Uses a single backing array for efficiency.
func (r *RNG) UniformVectors(num int, dimensions int) [][]float32 {
	return r.vectors(num, dimensions, func() float32 { return r.rand.Float32() })
}

// UniformRangeVectors generates random vectors with values in range [-1, 1).
func (r *RNG) UniformRangeVectors(num int, dimensions int) [][]float32 {
	return r.vectors(num, dimensions, func() float32 { return r.rand.Float32()*2 - 1 })
}

// UnitVectors generates L2-normalized random vectors (on the hypersphere).
// Uses Gaussian distribution for uniform distribution on the sphere.
func (r *RNG) UnitVectors(num int, dimensions int) [][]float32 {
	vectors := r.vectors(num, dimensions, func() float32 { return float32(r.rand.NormFloat64()) })
	for _, vec := range vectors {
		norm := metric.Magnitude(vec)
		if norm == 0 {
			norm = 1
		}
		vek32.MulNumber_Inplace(vec, 1/norm)
	}
	return vectors
}

func (r *RNG) vectors(num, dimensions int, next func() float32) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dimensions)
	vectors := make([][]float32, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = next()
		}
		vectors[i] = vec
	}

	return vectors
}

// SearchResult is a single exact search hit. ID is the position of the
// vector in the searched slice.
type SearchResult[S cmp.Ordered] struct {
	ID    int
	Score S
}

// ExactSearch scores every vector against query and returns the k best,
// best first. Ties keep the order of vectors.
func ExactSearch[V any, S cmp.Ordered](query V, vectors []V, k int, m metric.Metric[V, S]) []SearchResult[S] {
	results := make([]SearchResult[S], len(vectors))
	for i, v := range vectors {
		results[i] = SearchResult[S]{ID: i, Score: m.Similarity(query, v)}
	}

	slices.SortStableFunc(results, func(a, b SearchResult[S]) int {
		return cmp.Compare(b.Score, a.Score)
	})

	return results[:min(k, len(results))]
}

// RecallAtK returns the fraction of the first len(approximate) ground truth
// IDs that appear in approximate.
func RecallAtK[S cmp.Ordered](groundTruth []SearchResult[S], approximate []int) float64 {
	if len(groundTruth) == 0 || len(approximate) == 0 {
		if len(groundTruth) == 0 && len(approximate) == 0 {
			return 1.0
		}
		return 0.0
	}

	k := min(len(approximate), len(groundTruth))

	truthSet := make(map[int]struct{}, k)
	for i := range k {
		truthSet[groundTruth[i].ID] = struct{}{}
	}

	hits := 0
	for _, id := range approximate {
		if _, ok := truthSet[id]; ok {
			hits++
		}
	}

	return float64(hits) / float64(k)
}

// Euclidean2D scores two dimensional points by their negated euclidean distance.
var Euclidean2D = metric.Func[[2]float64, float64](func(a, b [2]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return -math.Sqrt(dx*dx + dy*dy)
})
