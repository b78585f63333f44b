package vecgraph

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/vecgraph/blobstore"
	"github.com/hupe1980/vecgraph/durable"
	"github.com/hupe1980/vecgraph/hnsw"
	"github.com/hupe1980/vecgraph/internal/resource"
	"github.com/hupe1980/vecgraph/kv"
	"github.com/hupe1980/vecgraph/metric"
	"github.com/hupe1980/vecgraph/snapshot"
)

// Durable is an HNSW index of float32 vectors keyed by strings, persisted in
// a kv.Store.
//
// Inserts are serialized and each runs in its own write transaction. Finds
// run in read-only transactions and never block on inserts. Restore waits
// for in-flight reads and holds new ones back until it is done.
type Durable struct {
	store  kv.Store
	metric metric.Metric[[]float32, float32]
	cfg    hnsw.Config
	opts   options
	logger *Logger
	cache  *durable.VectorCache
	ctrl   *resource.Controller

	writeMu sync.Mutex // guards rng and serializes writers
	rng     *rand.Rand
	closed  atomic.Bool

	// readMu is held shared by every read transaction and exclusively by
	// Restore, so no reader can cache a vector from before a restore.
	readMu sync.RWMutex
}

// Open returns a durable index over store. The index takes ownership of
// store and closes it on Close.
func Open(store kv.Store, m metric.Metric[[]float32, float32], cfg hnsw.Config, optFns ...Option) (*Durable, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := applyOptions(optFns)
	if err := durable.ValidateNamespace(opts.namespace); err != nil {
		return nil, err
	}

	d := &Durable{
		store:  store,
		metric: m,
		cfg:    cfg,
		opts:   opts,
		logger: opts.logger.WithNamespace(opts.namespace),
		rng:    opts.rng(),
		ctrl: resource.NewController(resource.Config{
			MaxConcurrentQueries: opts.maxConcurrentQueries,
			IOLimitBytesPerSec:   opts.ioLimitBytesPerSec,
		}),
	}

	if opts.vectorCacheSize > 0 {
		cache, err := durable.NewVectorCache(opts.vectorCacheSize)
		if err != nil {
			return nil, err
		}
		d.cache = cache
	}

	return d, nil
}

// Config returns the HNSW parameters of the index.
func (d *Durable) Config() hnsw.Config { return d.cfg }

// Namespace returns the key prefix of the index.
func (d *Durable) Namespace() string { return d.opts.namespace }

func (d *Durable) registry(txn kv.Txn, populate bool) *durable.Registry {
	return durable.NewRegistry(txn, d.opts.namespace,
		durable.WithHalfPrecision(d.opts.halfPrecision),
		durable.WithVectorCache(d.cache, populate),
	)
}

func (d *Durable) manager(txn kv.Txn, reg *durable.Registry) (*hnsw.Manager[uint32, uint8, []float32, float32], *durable.Graph, error) {
	g := durable.NewGraph(txn, d.opts.namespace)
	m, err := hnsw.New[uint32, uint8, []float32, float32](g, d.metric, reg.Vector, d.cfg)
	return m, g, err
}

func (d *Durable) view(ctx context.Context, fn func(txn kv.Txn) error) error {
	if d.closed.Load() {
		return ErrClosed
	}

	d.readMu.RLock()
	defer d.readMu.RUnlock()

	return translateError(d.store.View(ctx, fn))
}

// Insert adds vector under foreign and returns its internal key. An empty
// foreign key is replaced by a random UUID.
func (d *Durable) Insert(ctx context.Context, foreign string, vector []float32) (key uint32, err error) {
	start := time.Now()
	defer func() {
		d.opts.metricsCollector.RecordInsert(time.Since(start), err)
		d.logger.LogInsert(ctx, foreign, key, err)
	}()

	if d.closed.Load() {
		return 0, ErrClosed
	}
	if err := checkDimension(d.opts.dimension, len(vector)); err != nil {
		return 0, err
	}
	if foreign == "" {
		foreign = uuid.NewString()
	}

	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	err = d.store.Update(ctx, func(txn kv.Txn) error {
		reg := d.registry(txn, false)
		m, _, err := d.manager(txn, reg)
		if err != nil {
			return err
		}

		key, err = reg.Register(vector, foreign)
		if err != nil {
			return err
		}
		return m.Insert(vector, key, d.rng)
	})
	if err != nil {
		return 0, translateError(err)
	}
	return key, nil
}

// Find returns up to limit vectors most similar to query, best first.
func (d *Durable) Find(ctx context.Context, query []float32, limit int) (results []Result[string, float32], err error) {
	start := time.Now()
	defer func() {
		d.opts.metricsCollector.RecordFind(limit, time.Since(start), err)
		d.logger.LogFind(ctx, limit, len(results), err)
	}()

	return d.find(ctx, query, limit)
}

func (d *Durable) find(ctx context.Context, query []float32, limit int) ([]Result[string, float32], error) {
	if err := checkDimension(d.opts.dimension, len(query)); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	if err := d.ctrl.AcquireQuery(ctx); err != nil {
		return nil, err
	}
	defer d.ctrl.ReleaseQuery()

	var results []Result[string, float32]
	err := d.view(ctx, func(txn kv.Txn) error {
		reg := d.registry(txn, true)
		m, _, err := d.manager(txn, reg)
		if err != nil {
			return err
		}

		found, err := m.Find(query, limit)
		if err != nil {
			return err
		}

		results = make([]Result[string, float32], len(found))
		for i, n := range found {
			fk, err := reg.ForeignKey(n.ID)
			if err != nil {
				return err
			}
			results[i] = Result[string, float32]{Key: n.ID, ForeignKey: fk, Score: n.Priority}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// FindBatch runs one find per query in parallel. results[i] answers
// queries[i]. The first failing query cancels the rest.
func (d *Durable) FindBatch(ctx context.Context, queries [][]float32, limit int) (results [][]Result[string, float32], err error) {
	start := time.Now()
	defer func() {
		d.opts.metricsCollector.RecordBatchFind(len(queries), time.Since(start), err)
		d.logger.LogBatchFind(ctx, len(queries), limit, err)
	}()

	results = make([][]Result[string, float32], len(queries))

	g, gctx := errgroup.WithContext(ctx)
	if d.opts.maxConcurrentQueries <= 0 {
		g.SetLimit(16)
	}

	for i, q := range queries {
		g.Go(func() error {
			r, err := d.find(gctx, q, limit)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Lookup returns the internal key of foreign.
func (d *Durable) Lookup(ctx context.Context, foreign string) (key uint32, ok bool, err error) {
	err = d.view(ctx, func(txn kv.Txn) error {
		key, ok, err = d.registry(txn, true).Key(foreign)
		return err
	})
	return key, ok, err
}

// ForeignKey returns the foreign key stored under key, such as the UUID an
// empty foreign key was replaced with.
func (d *Durable) ForeignKey(ctx context.Context, key uint32) (string, error) {
	var fk string
	err := d.view(ctx, func(txn kv.Txn) (err error) {
		fk, err = d.registry(txn, false).ForeignKey(key)
		return err
	})
	return fk, err
}

// Vector returns the vector inserted under foreign.
func (d *Durable) Vector(ctx context.Context, foreign string) ([]float32, error) {
	var v []float32
	err := d.view(ctx, func(txn kv.Txn) error {
		reg := d.registry(txn, true)
		key, ok, err := reg.Key(foreign)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		v, err = reg.Vector(key)
		return err
	})
	return v, err
}

// Len returns the number of vectors in the index.
func (d *Durable) Len(ctx context.Context) (int, error) {
	var n int
	err := d.view(ctx, func(txn kv.Txn) (err error) {
		n, err = d.registry(txn, false).Len()
		return err
	})
	return n, err
}

// Stats describes the shape of the graph.
func (d *Durable) Stats(ctx context.Context) (hnsw.Stats, error) {
	var stats hnsw.Stats
	err := d.view(ctx, func(txn kv.Txn) error {
		reg := d.registry(txn, true)
		m, g, err := d.manager(txn, reg)
		if err != nil {
			return err
		}
		stats, err = m.Stats(g)
		return err
	})
	return stats, err
}

// Snapshot writes a consistent copy of the whole store to the blob name of
// dst. Snapshots are throttled by WithIOLimit.
func (d *Durable) Snapshot(ctx context.Context, dst blobstore.Store, name string, optFns ...snapshot.Option) (info snapshot.Info, err error) {
	defer func() { d.logger.LogSnapshot(ctx, name, info, err) }()

	if d.closed.Load() {
		return snapshot.Info{}, ErrClosed
	}

	opts := append([]snapshot.Option{snapshot.WithController(d.ctrl)}, optFns...)
	return snapshot.Save(ctx, d.store, dst, name, opts...)
}

// Restore replaces the contents of the store with the snapshot name from
// src. The snapshot is verified before anything is replaced.
func (d *Durable) Restore(ctx context.Context, src blobstore.Store, name string, optFns ...snapshot.Option) (info snapshot.Info, err error) {
	defer func() { d.logger.LogRestore(ctx, name, info, err) }()

	if d.closed.Load() {
		return snapshot.Info{}, ErrClosed
	}

	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	d.readMu.Lock()
	defer d.readMu.Unlock()

	opts := append([]snapshot.Option{snapshot.WithController(d.ctrl)}, optFns...)
	info, err = snapshot.Load(ctx, d.store, src, name, opts...)
	d.cache.Purge()
	return info, err
}

// Close closes the underlying store. Further calls return ErrClosed.
func (d *Durable) Close() error {
	if d.closed.Swap(true) {
		return ErrClosed
	}
	err := d.store.Close()
	if errors.Is(err, kv.ErrClosed) {
		return nil
	}
	return err
}
