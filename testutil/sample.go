package testutil

import (
	"github.com/hupe1980/vecgraph/graph"
	"github.com/hupe1980/vecgraph/hnsw"
	"github.com/hupe1980/vecgraph/registry"
)

// Point is a vector of the sample index.
type Point = [2]float64

// Neighbor is a result of the sample index.
type Neighbor = hnsw.NearbyVector[uint32, Point, float64]

// SampleIndex is a deterministic in-memory index of two dimensional points.
// Points and insertion levels come from two separately seeded generators, so
// the same call sequence always yields the same graph.
type SampleIndex struct {
	graph     *graph.Memory[uint32, uint8]
	registry  *registry.Memory[uint32, int, Point]
	manager   *hnsw.Manager[uint32, uint8, Point, float64]
	vectorRNG *RNG
	graphRNG  *RNG
}

// NewSampleIndex returns an empty sample index configured by
// hnsw.DefaultConfig(typicalNeighborhoodSize).
func NewSampleIndex(typicalNeighborhoodSize int) (*SampleIndex, error) {
	s := &SampleIndex{
		graph:     graph.NewMemory[uint32, uint8](),
		registry:  registry.NewMemory[uint32, int, Point](),
		vectorRNG: NewRNG(0),
		graphRNG:  NewRNG(1),
	}

	m, err := hnsw.New[uint32, uint8, Point, float64](s.graph, Euclidean2D, s.registry.Vector, hnsw.DefaultConfig(typicalNeighborhoodSize))
	if err != nil {
		return nil, err
	}
	s.manager = m

	return s, nil
}

// GenerateRandom draws a point with both coordinates in [lo, hi).
func (s *SampleIndex) GenerateRandom(lo, hi float64) Point {
	return Point{
		lo + s.vectorRNG.Float64()*(hi-lo),
		lo + s.vectorRNG.Float64()*(hi-lo),
	}
}

// Insert adds p and returns its key.
func (s *SampleIndex) Insert(p Point) (uint32, error) {
	key, err := s.registry.Register(p, s.registry.Len())
	if err != nil {
		return 0, err
	}
	return key, s.manager.Insert(p, key, s.graphRNG)
}

// InsertRandom adds a point drawn by GenerateRandom.
func (s *SampleIndex) InsertRandom(lo, hi float64) (uint32, error) {
	return s.Insert(s.GenerateRandom(lo, hi))
}

// Find searches the graph, or scans every point when exact is set.
func (s *SampleIndex) Find(query Point, limit int, exact bool) ([]Neighbor, error) {
	if !exact {
		return s.manager.Find(query, limit)
	}

	points := s.Points()
	results := ExactSearch[Point, float64](query, points, limit, Euclidean2D)
	out := make([]Neighbor, len(results))
	for i, r := range results {
		out[i] = Neighbor{ID: uint32(r.ID), Vector: points[r.ID], Priority: r.Score}
	}
	return out, nil
}

// Points returns every inserted point in key order.
func (s *SampleIndex) Points() []Point {
	points := make([]Point, s.registry.Len())
	for i := range points {
		points[i], _ = s.registry.Vector(uint32(i))
	}
	return points
}

// Graph exposes the underlying graph.
func (s *SampleIndex) Graph() *graph.Memory[uint32, uint8] { return s.graph }

// Manager exposes the underlying index manager.
func (s *SampleIndex) Manager() *hnsw.Manager[uint32, uint8, Point, float64] { return s.manager }
