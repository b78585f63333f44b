// Package hnsw implements a Hierarchical Navigable Small World index over an
// abstract graph and vector lookup.
//
// The Manager owns no storage. Edges and the entry point live in a
// graph.Graph, vectors are resolved through a caller supplied function, and
// randomness comes from a caller supplied RandomSource. The same Manager
// therefore drives an in-memory graph or a transactional one.
package hnsw

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/hupe1980/vecgraph/graph"
	"github.com/hupe1980/vecgraph/metric"
	"github.com/hupe1980/vecgraph/searcher"
)

// RandomSource yields uniformly distributed values in [0, 1).
// *rand.Rand from math/rand/v2 satisfies it.
type RandomSource interface {
	Float64() float64
}

// Option configures a Manager.
type Option[K comparable, L graph.Level] func(*managerOptions[K, L])

type managerOptions[K comparable, L graph.Level] struct {
	trace func(level L, from, to K)
}

// WithTrace receives every edge traversed while Insert searches for
// neighbors. It is never called by Find.
func WithTrace[K comparable, L graph.Level](fn func(level L, from, to K)) Option[K, L] {
	return func(o *managerOptions[K, L]) {
		o.trace = fn
	}
}

// Manager runs HNSW search and construction against a graph.
//
// Manager is NOT thread-safe. Concurrent Find calls are safe only when the
// underlying graph and vector function are.
type Manager[K comparable, L graph.Level, V any, S cmp.Ordered] struct {
	graph  graph.Graph[K, L]
	metric metric.Metric[V, S]
	vector func(K) (V, error)
	cfg    Config
	opts   managerOptions[K, L]
}

// New returns a Manager. vector must resolve every key stored in g.
func New[K comparable, L graph.Level, V any, S cmp.Ordered](
	g graph.Graph[K, L],
	m metric.Metric[V, S],
	vector func(K) (V, error),
	cfg Config,
	optFns ...Option[K, L],
) (*Manager[K, L, V, S], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	mgr := &Manager[K, L, V, S]{
		graph:  g,
		metric: m,
		vector: vector,
		cfg:    cfg,
	}
	for _, fn := range optFns {
		fn(&mgr.opts)
	}
	return mgr, nil
}

// Config returns the manager's configuration.
func (m *Manager[K, L, V, S]) Config() Config { return m.cfg }

// Find returns up to limit vertices most similar to query, best first.
//
// Levels above 0 are crossed with a beam of one; level 0 is searched with a
// beam of limit. An empty graph yields an empty result.
func (m *Manager[K, L, V, S]) Find(query V, limit int) ([]NearbyVector[K, V, S], error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	entry, ok, err := m.graph.Entry()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	s, err := m.searcher(query, entry)
	if err != nil {
		return nil, err
	}

	for level := range graph.Levels(entry.Level) {
		capacity := limit
		if level > 0 {
			capacity = 1
		}
		if err := s.Refine(capacity, m.neighborhood(level)); err != nil {
			return nil, err
		}
	}

	return s.Optimal(), nil
}

// Insert adds key to the graph. The vector function must already resolve
// key to vector.
func (m *Manager[K, L, V, S]) Insert(vector V, key K, rng RandomSource) error {
	insertionLevel := m.randomLevel(rng)

	entry, ok, err := m.graph.Entry()
	if err != nil {
		return err
	}
	if !ok {
		return m.graph.SetEntry(graph.Entry[K, L]{Level: insertionLevel, Key: key})
	}

	s, err := m.searcher(vector, entry)
	if err != nil {
		return err
	}

	for level := range graph.Levels(entry.Level) {
		var refineOpts []searcher.RefineOption[K]
		if m.opts.trace != nil {
			refineOpts = append(refineOpts, searcher.WithRecorder(func(from, to K) {
				m.opts.trace(level, from, to)
			}))
		}

		if level > insertionLevel {
			if err := s.Refine(1, m.neighborhood(level), refineOpts...); err != nil {
				return err
			}
			continue
		}

		if err := s.Refine(m.cfg.ConstructionSearchWidth, m.neighborhood(level), refineOpts...); err != nil {
			return err
		}
		if err := m.link(level, key, s.Optimal()); err != nil {
			return err
		}
	}

	if insertionLevel > entry.Level {
		return m.graph.SetEntry(graph.Entry[K, L]{Level: insertionLevel, Key: key})
	}
	return nil
}

func (m *Manager[K, L, V, S]) searcher(reference V, entry graph.Entry[K, L]) (*searcher.Searcher[K, S, NearbyVector[K, V, S]], error) {
	return searcher.New[K, S, NearbyVector[K, V, S]]([]K{entry.Key}, m.prioritize(reference))
}

func (m *Manager[K, L, V, S]) prioritize(reference V) func(K) (NearbyVector[K, V, S], error) {
	return func(key K) (NearbyVector[K, V, S], error) {
		v, err := m.vector(key)
		if err != nil {
			return NearbyVector[K, V, S]{}, fmt.Errorf("%w %v: %w", ErrUnresolvedVector, key, err)
		}
		return NearbyVector[K, V, S]{ID: key, Vector: v, Priority: m.metric.Similarity(reference, v)}, nil
	}
}

func (m *Manager[K, L, V, S]) neighborhood(level L) func(K) ([]K, error) {
	return func(key K) ([]K, error) {
		return m.graph.Neighborhood(level, key)
	}
}

// randomLevel draws floor(-ln(U) * scale), clamped to the largest L.
func (m *Manager[K, L, V, S]) randomLevel(rng RandomSource) L {
	u := rng.Float64()
	if u <= 0 {
		u = math.SmallestNonzeroFloat64
	}

	f := math.Floor(-math.Log(u) * m.cfg.LevelGenerationScale)
	top := ^L(0)
	switch {
	case !(f > 0):
		return 0
	case f >= float64(top):
		return top
	default:
		return L(f)
	}
}

// link connects key to a diverse subset of candidates on level, then prunes
// every neighbor pushed over the level's degree cap.
func (m *Manager[K, L, V, S]) link(level L, key K, candidates []NearbyVector[K, V, S]) error {
	maxDegree := m.cfg.MaxDegree(uint64(level))

	neighbors := m.diverseNeighborhood(candidates, min(m.cfg.MaxDegreeCreate, maxDegree))
	for _, n := range neighbors {
		if err := m.graph.Connect(level, key, n.ID); err != nil {
			return err
		}
	}

	for _, n := range neighbors {
		if err := m.prune(level, n, maxDegree); err != nil {
			return err
		}
	}
	return nil
}

// prune reduces the neighborhood of v to a diverse subset of at most
// maxDegree vertices, scored against v itself.
func (m *Manager[K, L, V, S]) prune(level L, v NearbyVector[K, V, S], maxDegree int) error {
	current, err := m.graph.Neighborhood(level, v.ID)
	if err != nil {
		return err
	}
	if len(current) <= maxDegree {
		return nil
	}

	prioritize := m.prioritize(v.Vector)
	scored := make([]NearbyVector[K, V, S], 0, len(current))
	for _, k := range current {
		c, err := prioritize(k)
		if err != nil {
			return err
		}
		scored = append(scored, c)
	}
	slices.SortStableFunc(scored, func(a, b NearbyVector[K, V, S]) int {
		return cmp.Compare(b.Priority, a.Priority)
	})

	keep := make(map[K]struct{}, maxDegree)
	for _, c := range m.diverseNeighborhood(scored, maxDegree) {
		keep[c.ID] = struct{}{}
	}

	for _, k := range current {
		if _, ok := keep[k]; ok {
			continue
		}
		if err := m.graph.Disconnect(level, v.ID, k); err != nil {
			return err
		}
	}
	return nil
}

// diverseNeighborhood selects at most limit candidates from a best first
// list, skipping candidates that sit closer to an already chosen one than to
// the reference.
//
// Chosen candidates are "bridging". Skipped ones are "crowding" and are kept
// aside only while the two buckets together have room; a later bridging
// candidate displaces the newest crowding one.
func (m *Manager[K, L, V, S]) diverseNeighborhood(candidates []NearbyVector[K, V, S], limit int) []NearbyVector[K, V, S] {
	bridging := make([]NearbyVector[K, V, S], 0, limit)
	var crowding []NearbyVector[K, V, S]

	for _, c := range candidates {
		if m.crowds(bridging, c) {
			if len(bridging)+len(crowding) >= limit {
				continue
			}
			crowding = append(crowding, c)
			continue
		}

		if len(bridging)+len(crowding) >= limit {
			if len(crowding) == 0 {
				break
			}
			crowding = crowding[:len(crowding)-1]
		}
		bridging = append(bridging, c)
	}

	if m.cfg.NeighborhoodPreference == PreferEfficiency {
		return bridging
	}
	return append(bridging, crowding...)
}

func (m *Manager[K, L, V, S]) crowds(bridging []NearbyVector[K, V, S], c NearbyVector[K, V, S]) bool {
	for _, b := range bridging {
		if m.metric.Similarity(b.Vector, c.Vector) > c.Priority {
			return true
		}
	}
	return false
}
