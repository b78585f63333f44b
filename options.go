package vecgraph

import (
	"log/slog"
	"math/rand/v2"
)

type options struct {
	metricsCollector     MetricsCollector
	logger               *Logger
	dimension            int
	namespace            string
	vectorCacheSize      int
	halfPrecision        bool
	maxConcurrentQueries int64
	ioLimitBytesPerSec   int64
	seed                 uint64
	seeded               bool
}

// DefaultNamespace is the key namespace of a durable index unless
// WithNamespace says otherwise.
const DefaultNamespace = "default"

// Option configures New and Open.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &vecgraph.BasicMetricsCollector{}
//	db, _ := vecgraph.Open(store, metric.Cosine, cfg, vecgraph.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
//	fmt.Printf("Finds: %d, Avg latency: %dns\n", stats.FindCount, stats.FindAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := vecgraph.NewJSONLogger(slog.LevelInfo)
//	db, _ := vecgraph.Open(store, metric.Cosine, cfg, vecgraph.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithDimension rejects vectors and queries of any other length.
// Only slice vector types are checked. Zero disables the check.
func WithDimension(dim int) Option {
	return func(o *options) {
		o.dimension = dim
	}
}

// WithNamespace selects the key prefix a durable index stores its data
// under, so several indexes can share one store.
func WithNamespace(ns string) Option {
	return func(o *options) {
		o.namespace = ns
	}
}

// WithVectorCache keeps up to size decoded vectors of a durable index in
// memory. Zero disables the cache.
func WithVectorCache(size int) Option {
	return func(o *options) {
		o.vectorCacheSize = size
	}
}

// WithHalfPrecision stores vectors of a durable index as 16-bit floats.
// Vectors written before the option was enabled remain readable.
func WithHalfPrecision(enabled bool) Option {
	return func(o *options) {
		o.halfPrecision = enabled
	}
}

// WithMaxConcurrentQueries bounds the finds running at once. Callers beyond
// the bound wait for a slot. Zero means unlimited.
func WithMaxConcurrentQueries(n int64) Option {
	return func(o *options) {
		o.maxConcurrentQueries = n
	}
}

// WithIOLimit throttles snapshot and restore streams to bytesPerSec.
// Zero means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimitBytesPerSec = bytesPerSec
	}
}

// WithSeed makes level generation reproducible when no random source is
// passed to Insert.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		namespace:        DefaultNamespace,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if !o.seeded {
		o.seed = rand.Uint64()
	}
	return o
}

func (o options) rng() *rand.Rand {
	return rand.New(rand.NewPCG(o.seed, o.seed^0x9e3779b97f4a7c15))
}
