package vecgraph

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecgraph/graph"
	"github.com/hupe1980/vecgraph/hnsw"
	"github.com/hupe1980/vecgraph/metric"
)

func newTestIndex(t *testing.T, opts ...Option) *Index[string, []float32, float32] {
	t.Helper()

	idx, err := New[string, []float32, float32](metric.NegativeSquaredL2, hnsw.DefaultConfig(8), append([]Option{WithSeed(7)}, opts...)...)
	require.NoError(t, err)
	return idx
}

func TestIndex_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	vectors := hnsw.GenerateRandomVectors(200, 4, 11)
	for i, v := range vectors {
		key, err := idx.Insert(ctx, fmt.Sprintf("doc-%d", i), v, nil)
		require.NoError(t, err)
		assert.Equal(t, uint32(i), key)
	}
	assert.Equal(t, 200, idx.Len())

	hits := 0
	for i, v := range vectors {
		results, err := idx.Find(ctx, v, 5)
		require.NoError(t, err)
		require.NotEmpty(t, results)
		assert.LessOrEqual(t, len(results), 5)

		for j := 1; j < len(results); j++ {
			assert.GreaterOrEqual(t, results[j-1].Score, results[j].Score)
		}
		if results[0].ForeignKey == fmt.Sprintf("doc-%d", i) {
			hits++
			assert.Equal(t, float32(0), results[0].Score)
		}
	}
	assert.GreaterOrEqual(t, hits, 190)
}

func TestIndex_FindEmpty(t *testing.T) {
	idx := newTestIndex(t)

	results, err := idx.Find(context.Background(), []float32{1, 2}, 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndex_InvalidLimit(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)
	_, err := idx.Insert(ctx, "a", []float32{1, 2}, nil)
	require.NoError(t, err)

	_, err = idx.Find(ctx, []float32{1, 2}, 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)
	assert.ErrorIs(t, err, hnsw.ErrInvalidLimit)
}

func TestIndex_DuplicateForeignKey(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	_, err := idx.Insert(ctx, "a", []float32{1, 2}, nil)
	require.NoError(t, err)

	_, err = idx.Insert(ctx, "a", []float32{3, 4}, nil)
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.Equal(t, 1, idx.Len())
}

func TestIndex_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t, WithDimension(3))

	_, err := idx.Insert(ctx, "a", []float32{1, 2}, nil)

	var dimErr *ErrDimensionMismatch
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 3, dimErr.Expected)
	assert.Equal(t, 2, dimErr.Actual)

	_, err = idx.Find(ctx, []float32{1, 2, 3, 4}, 1)
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 4, dimErr.Actual)
}

func TestIndex_LookupAndVector(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	key, err := idx.Insert(ctx, "a", []float32{1, 2}, nil)
	require.NoError(t, err)

	got, ok := idx.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, key, got)

	_, ok = idx.Lookup("missing")
	assert.False(t, ok)

	v, err := idx.Vector("a")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, v)

	_, err = idx.Vector("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIndex_CallerRandomSource(t *testing.T) {
	ctx := context.Background()
	vectors := hnsw.GenerateRandomVectors(50, 3, 5)

	build := func() hnsw.Stats {
		idx := newTestIndex(t)
		rng := rand.New(rand.NewPCG(1, 2))
		for i, v := range vectors {
			_, err := idx.Insert(ctx, fmt.Sprint(i), v, rng)
			require.NoError(t, err)
		}
		stats, err := idx.Stats()
		require.NoError(t, err)
		return stats
	}

	assert.Equal(t, build(), build())
}

func TestIndex_Stats(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	stats, err := idx.Stats()
	require.NoError(t, err)
	assert.True(t, stats.Empty)

	for i, v := range hnsw.GenerateRandomVectors(64, 3, 3) {
		_, err := idx.Insert(ctx, fmt.Sprint(i), v, nil)
		require.NoError(t, err)
	}

	stats, err = idx.Stats()
	require.NoError(t, err)
	require.False(t, stats.Empty)
	require.NotEmpty(t, stats.Levels)

	base := stats.Levels[len(stats.Levels)-1]
	assert.Equal(t, uint64(0), base.Level)
	assert.Equal(t, 64, base.Vertices)
	assert.Equal(t, stats.EntryLevel, stats.Levels[0].Level)
}

func TestIndex_CanceledContext(t *testing.T) {
	idx := newTestIndex(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idx.Insert(ctx, "a", []float32{1}, nil)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = idx.Find(ctx, []float32{1}, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, idx.Len())
}

func TestIndex_Metrics(t *testing.T) {
	ctx := context.Background()
	mc := &BasicMetricsCollector{}
	idx := newTestIndex(t, WithMetricsCollector(mc))

	_, err := idx.Insert(ctx, "a", []float32{1}, nil)
	require.NoError(t, err)
	_, err = idx.Insert(ctx, "a", []float32{1}, nil)
	require.Error(t, err)
	_, err = idx.Find(ctx, []float32{1}, 1)
	require.NoError(t, err)

	stats := mc.GetStats()
	assert.Equal(t, int64(2), stats.InsertCount)
	assert.Equal(t, int64(1), stats.InsertErrors)
	assert.Equal(t, int64(1), stats.FindCount)
	assert.Equal(t, int64(0), stats.FindErrors)
}

func TestIndex_FailedInsertLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	for i, v := range hnsw.GenerateRandomVectors(20, 2, 4) {
		_, err := idx.Insert(ctx, fmt.Sprintf("doc-%d", i), v, nil)
		require.NoError(t, err)
	}
	manager := idx.manager

	// Let the vector lookup succeed a growing number of times so the insert
	// fails at every stage of the search and of the linking.
	errLookup := errors.New("lookup failed")
	for allowed := 0; ; allowed++ {
		require.Less(t, allowed, 10_000)

		calls := 0
		failing, err := hnsw.New[uint32, uint8, []float32, float32](idx.graph, metric.NegativeSquaredL2, func(k uint32) ([]float32, error) {
			calls++
			if calls > allowed {
				return nil, errLookup
			}
			return idx.registry.Vector(k)
		}, hnsw.DefaultConfig(8))
		require.NoError(t, err)
		idx.manager = failing

		key, err := idx.Insert(ctx, "new", []float32{0.5, 0.5}, nil)
		if err == nil {
			assert.Equal(t, uint32(20), key)
			break
		}
		require.ErrorIs(t, err, errLookup)

		assert.Equal(t, 20, idx.Len())
		_, ok := idx.Lookup("new")
		assert.False(t, ok)

		top, _ := idx.graph.TopLevel()
		for level := range graph.Levels(top) {
			keys, err := idx.graph.Keys(level)
			require.NoError(t, err)
			assert.NotContains(t, keys, uint32(20))
			for _, k := range keys {
				assert.NotContains(t, idx.graph.Neighbors(level, k), uint32(20))
			}
		}
	}
	idx.manager = manager

	results, err := idx.Find(ctx, []float32{0.5, 0.5}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new", results[0].ForeignKey)
}

func TestIndex_DanglingEdgeIsCorruption(t *testing.T) {
	ctx := context.Background()
	idx := newTestIndex(t)

	_, err := idx.Insert(ctx, "a", []float32{1, 2}, nil)
	require.NoError(t, err)
	require.NoError(t, idx.graph.Connect(0, 0, 99))

	_, err = idx.Find(ctx, []float32{1, 2}, 2)
	assert.ErrorIs(t, err, ErrCorrupted)
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = idx.Vector("b")
	assert.ErrorIs(t, err, ErrNotFound)
}
