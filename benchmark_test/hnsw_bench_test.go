package benchmark_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/hupe1980/vecgraph"
	"github.com/hupe1980/vecgraph/hnsw"
	"github.com/hupe1980/vecgraph/kv"
	"github.com/hupe1980/vecgraph/metric"
	"github.com/hupe1980/vecgraph/testutil"
)

func buildIndex(b *testing.B, vectors [][]float32, cfg hnsw.Config) *vecgraph.Index[int, []float32, float32] {
	b.Helper()

	idx, err := vecgraph.New[int, []float32, float32](metric.NegativeSquaredL2, cfg, vecgraph.WithSeed(42))
	if err != nil {
		b.Fatal(err)
	}

	ctx := context.Background()
	for i, v := range vectors {
		if _, err := idx.Insert(ctx, i, v, nil); err != nil {
			b.Fatal(err)
		}
	}
	return idx
}

// BenchmarkIndexInsert benchmarks single vector insertion into the in-memory index.
func BenchmarkIndexInsert(b *testing.B) {
	for _, dim := range []int{32, 128, 384} {
		b.Run(formatDim(dim), func(b *testing.B) {
			idx, err := vecgraph.New[int, []float32, float32](metric.NegativeSquaredL2, hnsw.DefaultConfig(16), vecgraph.WithSeed(42))
			if err != nil {
				b.Fatal(err)
			}

			rng := testutil.NewRNG(42)
			ctx := context.Background()

			for i := 0; b.Loop(); i++ {
				v := rng.UniformVectors(1, dim)[0]
				if _, err := idx.Insert(ctx, i, v, nil); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkIndexFind measures find latency and reports recall@10.
func BenchmarkIndexFind(b *testing.B) {
	const dim = 64

	for _, n := range []int{1_000, 10_000} {
		b.Run(formatCount(n), func(b *testing.B) {
			rng := testutil.NewRNG(7)
			vectors := rng.UniformVectors(n, dim)
			queries := rng.UniformVectors(100, dim)

			idx := buildIndex(b, vectors, hnsw.DefaultConfig(16))
			ctx := context.Background()

			var recall float64
			for _, q := range queries {
				results, err := idx.Find(ctx, q, 10)
				if err != nil {
					b.Fatal(err)
				}
				recall += recallAtK(results, q, vectors, 10) / float64(len(queries))
			}

			b.ResetTimer()
			for i := 0; b.Loop(); i++ {
				if _, err := idx.Find(ctx, queries[i%len(queries)], 10); err != nil {
					b.Fatal(err)
				}
			}
			b.ReportMetric(recall, "recall@10")
		})
	}
}

// BenchmarkNeighborhoodPreference compares graph shapes built with each
// preference.
func BenchmarkNeighborhoodPreference(b *testing.B) {
	const (
		dim = 32
		n   = 2_000
	)

	rng := testutil.NewRNG(9)
	vectors := rng.UniformVectors(n, dim)
	queries := rng.UniformVectors(50, dim)

	for _, pref := range []hnsw.NeighborhoodPreference{hnsw.PreferDensity, hnsw.PreferEfficiency} {
		b.Run(pref.String(), func(b *testing.B) {
			cfg := hnsw.DefaultConfig(16)
			cfg.NeighborhoodPreference = pref

			idx := buildIndex(b, vectors, cfg)
			ctx := context.Background()

			stats, err := idx.Stats()
			if err != nil {
				b.Fatal(err)
			}

			b.ResetTimer()
			for i := 0; b.Loop(); i++ {
				if _, err := idx.Find(ctx, queries[i%len(queries)], 10); err != nil {
					b.Fatal(err)
				}
			}
			b.ReportMetric(stats.Levels[len(stats.Levels)-1].AverageDegree, "degree/l0")
		})
	}
}

// BenchmarkDurable benchmarks inserts and finds through a badger store.
func BenchmarkDurable(b *testing.B) {
	const dim = 64

	for _, cache := range []int{0, 4096} {
		b.Run(fmt.Sprintf("cache=%d", cache), func(b *testing.B) {
			store, err := kv.NewBadger(kv.BadgerOptions{Dir: b.TempDir(), Logger: vecgraph.NoopLogger().Logger})
			if err != nil {
				b.Fatal(err)
			}

			d, err := vecgraph.Open(store, metric.NegativeSquaredL2, hnsw.DefaultConfig(16),
				vecgraph.WithSeed(42),
				vecgraph.WithVectorCache(cache),
			)
			if err != nil {
				b.Fatal(err)
			}
			defer d.Close()

			rng := testutil.NewRNG(3)
			ctx := context.Background()
			for i, v := range rng.UniformVectors(1_000, dim) {
				if _, err := d.Insert(ctx, fmt.Sprint(i), v); err != nil {
					b.Fatal(err)
				}
			}
			queries := rng.UniformVectors(100, dim)

			b.Run("insert", func(b *testing.B) {
				for i := 0; b.Loop(); i++ {
					if _, err := d.Insert(ctx, "", rng.UniformVectors(1, dim)[0]); err != nil {
						b.Fatal(err)
					}
				}
			})

			b.Run("find", func(b *testing.B) {
				for i := 0; b.Loop(); i++ {
					if _, err := d.Find(ctx, queries[i%len(queries)], 10); err != nil {
						b.Fatal(err)
					}
				}
			})
		})
	}
}
