package hnsw

import (
	"cmp"

	"github.com/hupe1980/vecgraph/searcher"
)

// Compile time check.
var _ searcher.Candidate[uint32, float32] = NearbyVector[uint32, []float32, float32]{}

// NearbyVector is a vertex scored against a reference vector.
// Candidates are ordered by Priority alone; ID identifies the vertex.
type NearbyVector[K comparable, V any, S cmp.Ordered] struct {
	ID       K
	Vector   V
	Priority S
}

// Key implements searcher.Candidate.
func (n NearbyVector[K, V, S]) Key() K { return n.ID }

// Score implements searcher.Candidate.
func (n NearbyVector[K, V, S]) Score() S { return n.Priority }
