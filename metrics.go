package vecgraph

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems, or use
// PrometheusCollector.
type MetricsCollector interface {
	// RecordInsert is called after each insert operation.
	// duration is the total time taken, err is nil if successful.
	RecordInsert(duration time.Duration, err error)

	// RecordFind is called after each find operation.
	// limit is the number of neighbors requested.
	RecordFind(limit int, duration time.Duration, err error)

	// RecordBatchFind is called after each batch of finds with the number of
	// queries in the batch.
	RecordBatchFind(queries int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(time.Duration, error)         {}
func (NoopMetricsCollector) RecordFind(int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordBatchFind(int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InsertCount      atomic.Int64
	InsertErrors     atomic.Int64
	InsertTotalNanos atomic.Int64
	FindCount        atomic.Int64
	FindErrors       atomic.Int64
	FindTotalNanos   atomic.Int64
	BatchFindCount   atomic.Int64
	BatchFindQueries atomic.Int64
	BatchFindErrors  atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(duration time.Duration, err error) {
	b.InsertCount.Add(1)
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordFind implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFind(_ int, duration time.Duration, err error) {
	b.FindCount.Add(1)
	b.FindTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.FindErrors.Add(1)
	}
}

// RecordBatchFind implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatchFind(queries int, _ time.Duration, err error) {
	b.BatchFindCount.Add(1)
	b.BatchFindQueries.Add(int64(queries))
	if err != nil {
		b.BatchFindErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InsertCount:      b.InsertCount.Load(),
		InsertErrors:     b.InsertErrors.Load(),
		InsertAvgNanos:   average(b.InsertTotalNanos.Load(), b.InsertCount.Load()),
		FindCount:        b.FindCount.Load(),
		FindErrors:       b.FindErrors.Load(),
		FindAvgNanos:     average(b.FindTotalNanos.Load(), b.FindCount.Load()),
		BatchFindCount:   b.BatchFindCount.Load(),
		BatchFindQueries: b.BatchFindQueries.Load(),
		BatchFindErrors:  b.BatchFindErrors.Load(),
	}
}

func average(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	InsertCount      int64
	InsertErrors     int64
	InsertAvgNanos   int64
	FindCount        int64
	FindErrors       int64
	FindAvgNanos     int64
	BatchFindCount   int64
	BatchFindQueries int64
	BatchFindErrors  int64
}

// PrometheusCollector exports operation counts and latencies to Prometheus.
type PrometheusCollector struct {
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	findLimit  prometheus.Histogram
	batchSize  prometheus.Histogram
}

// NewPrometheusCollector registers its metrics on reg. A nil reg uses
// prometheus.DefaultRegisterer.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusCollector{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vecgraph_operations_total",
			Help: "Total index operations by type and status",
		}, []string{"op", "status"}),
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vecgraph_operation_duration_seconds",
			Help:    "Latency of index operations",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"op"}),
		findLimit: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vecgraph_find_limit",
			Help:    "Number of neighbors requested per find",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		batchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vecgraph_batch_find_queries",
			Help:    "Number of queries per batch find",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (p *PrometheusCollector) record(op string, duration time.Duration, err error) {
	p.operations.WithLabelValues(op, status(err)).Inc()
	p.latency.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordInsert implements MetricsCollector.
func (p *PrometheusCollector) RecordInsert(duration time.Duration, err error) {
	p.record("insert", duration, err)
}

// RecordFind implements MetricsCollector.
func (p *PrometheusCollector) RecordFind(limit int, duration time.Duration, err error) {
	p.record("find", duration, err)
	p.findLimit.Observe(float64(limit))
}

// RecordBatchFind implements MetricsCollector.
func (p *PrometheusCollector) RecordBatchFind(queries int, duration time.Duration, err error) {
	p.record("batch_find", duration, err)
	p.batchSize.Observe(float64(queries))
}
