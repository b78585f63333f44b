package vecgraph

import (
	"cmp"
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/hupe1980/vecgraph/graph"
	"github.com/hupe1980/vecgraph/hnsw"
	"github.com/hupe1980/vecgraph/metric"
	"github.com/hupe1980/vecgraph/registry"
)

// Result is one neighbor returned by a find.
type Result[F any, S cmp.Ordered] struct {
	// Key is the internal vertex key.
	Key uint32
	// ForeignKey is the key the vector was inserted under.
	ForeignKey F
	Score      S
}

// Index is an in-memory HNSW index over vectors of type V, keyed by foreign
// keys of type F and scored with S.
//
// Index is safe for concurrent use. Inserts are serialized; finds run in
// parallel with each other.
type Index[F comparable, V any, S cmp.Ordered] struct {
	mu       sync.RWMutex
	graph    *graph.Memory[uint32, uint8]
	registry *registry.Memory[uint32, F, V]
	manager  *hnsw.Manager[uint32, uint8, V, S]
	rng      *rand.Rand
	opts     options
}

// New returns an empty in-memory index.
func New[F comparable, V any, S cmp.Ordered](m metric.Metric[V, S], cfg hnsw.Config, optFns ...Option) (*Index[F, V, S], error) {
	opts := applyOptions(optFns)

	g := graph.NewMemory[uint32, uint8]()
	reg := registry.NewMemory[uint32, F, V]()

	mgr, err := hnsw.New[uint32, uint8, V, S](g, m, reg.Vector, cfg)
	if err != nil {
		return nil, err
	}

	return &Index[F, V, S]{
		graph:    g,
		registry: reg,
		manager:  mgr,
		rng:      opts.rng(),
		opts:     opts,
	}, nil
}

// Insert adds vector under foreign and returns its internal key. A nil rng
// uses the index's own source.
func (idx *Index[F, V, S]) Insert(ctx context.Context, foreign F, vector V, rng hnsw.RandomSource) (key uint32, err error) {
	start := time.Now()
	defer func() {
		idx.opts.metricsCollector.RecordInsert(time.Since(start), err)
		idx.opts.logger.LogInsert(ctx, foreign, key, err)
	}()

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := checkDimension(idx.opts.dimension, lenOf(vector)); err != nil {
		return 0, err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if rng == nil {
		rng = idx.rng
	}

	key, err = idx.registry.Register(vector, foreign)
	if err != nil {
		return 0, translateError(err)
	}
	if err := idx.manager.Insert(vector, key, rng); err != nil {
		// Leave no trace of key so the next registration can reuse it.
		idx.graph.Remove(key)
		if uerr := idx.registry.Unregister(key); uerr != nil {
			return 0, errors.Join(translateError(err), uerr)
		}
		return 0, translateError(err)
	}
	return key, nil
}

// Find returns up to limit vectors most similar to query, best first.
func (idx *Index[F, V, S]) Find(ctx context.Context, query V, limit int) (results []Result[F, S], err error) {
	start := time.Now()
	defer func() {
		idx.opts.metricsCollector.RecordFind(limit, time.Since(start), err)
		idx.opts.logger.LogFind(ctx, limit, len(results), err)
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkDimension(idx.opts.dimension, lenOf(query)); err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	found, err := idx.manager.Find(query, limit)
	if err != nil {
		return nil, translateError(err)
	}

	results = make([]Result[F, S], len(found))
	for i, n := range found {
		fk, err := idx.registry.ForeignKey(n.ID)
		if err != nil {
			return nil, translateError(err)
		}
		results[i] = Result[F, S]{Key: n.ID, ForeignKey: fk, Score: n.Priority}
	}
	return results, nil
}

// Lookup returns the internal key of foreign.
func (idx *Index[F, V, S]) Lookup(foreign F) (uint32, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	key, ok, _ := idx.registry.Key(foreign)
	return key, ok
}

// Vector returns the vector inserted under foreign.
func (idx *Index[F, V, S]) Vector(foreign F) (V, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	key, ok, _ := idx.registry.Key(foreign)
	if !ok {
		var zero V
		return zero, ErrNotFound
	}
	v, err := idx.registry.Vector(key)
	return v, translateError(err)
}

// Len returns the number of vectors in the index.
func (idx *Index[F, V, S]) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.registry.Len()
}

// Stats describes the shape of the graph.
func (idx *Index[F, V, S]) Stats() (hnsw.Stats, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.manager.Stats(idx.graph)
}

// lenOf returns the length of slice vectors and -1 for anything else.
func lenOf(v any) int {
	switch v := v.(type) {
	case []float32:
		return len(v)
	case []float64:
		return len(v)
	case []uint16:
		return len(v)
	case []int8:
		return len(v)
	case []byte:
		return len(v)
	default:
		return -1
	}
}
