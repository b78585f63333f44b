package vecgraph

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecgraph/blobstore"
	"github.com/hupe1980/vecgraph/blobstore/minio"
	"github.com/hupe1980/vecgraph/hnsw"
	"github.com/hupe1980/vecgraph/snapshot"
)

func TestLoadConfig_Empty(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = LoadConfig(strings.NewReader("storage:\n  backend: badger\n"))
	assert.Error(t, err, "badger without a dir")
}

func TestLoadConfig(t *testing.T) {
	const doc = `
metric: cosine
dimension: 3
index:
  construction_search_width: 64
  max_degree_level0: 20
  neighborhood_preference: efficiency
storage:
  backend: badger
  in_memory: true
  namespace: products
  half_precision: true
log:
  level: debug
  format: json
cache:
  vectors: 1000
limits:
  max_concurrent_queries: 4
  io_bytes_per_sec: 1048576
snapshot:
  codec: lz4
`
	cfg, err := LoadConfig(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, "cosine", cfg.Metric)
	assert.Equal(t, 3, cfg.Dimension)
	assert.Equal(t, 64, cfg.Index.ConstructionSearchWidth)
	assert.Equal(t, 20, cfg.Index.MaxDegreeLevel0)
	assert.Equal(t, hnsw.DefaultConfig(hnsw.DefaultTypicalNeighborhoodSize).MaxDegreeUpperLevels, cfg.Index.MaxDegreeUpperLevels)
	assert.Equal(t, hnsw.PreferEfficiency, cfg.Index.NeighborhoodPreference)
	assert.True(t, cfg.Storage.InMemory)
	assert.Equal(t, "products", cfg.Storage.Namespace)
	assert.True(t, cfg.Storage.HalfPrecision)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 1000, cfg.Cache.Vectors)
	assert.Equal(t, int64(4), cfg.Limits.MaxConcurrentQueries)
	assert.Equal(t, int64(1<<20), cfg.Limits.IOBytesPerSec)
	assert.Equal(t, snapshot.CodecLZ4, cfg.Snapshot.Codec)

	opts, err := cfg.Options()
	require.NoError(t, err)
	o := applyOptions(opts)
	assert.Equal(t, 3, o.dimension)
	assert.Equal(t, "products", o.namespace)
	assert.Equal(t, 1000, o.vectorCacheSize)
	assert.True(t, o.halfPrecision)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown field":      "bogus: 1\n",
		"unknown metric":     "metric: hamming\nstorage: {backend: memory}\n",
		"unknown backend":    "storage: {backend: redis}\n",
		"bad preference":     "index: {neighborhood_preference: dense}\nstorage: {backend: memory}\n",
		"bad codec":          "snapshot: {codec: gzip}\nstorage: {backend: memory}\n",
		"bad log level":      "log: {level: loud}\nstorage: {backend: memory}\n",
		"bad log format":     "log: {format: xml}\nstorage: {backend: memory}\n",
		"bad namespace":      "storage: {backend: memory, namespace: \"a/b\"}\n",
		"negative dimension": "dimension: -1\nstorage: {backend: memory}\n",
		"bad index":          "index: {max_degree_create: 0}\nstorage: {backend: memory}\n",
		"unknown store":      "snapshot: {store: ftp}\n",
		"local without dir":  "snapshot: {store: local, dir: \"\"}\n",
		"s3 without bucket":  "snapshot: {store: s3}\n",
		"minio without host": "snapshot: {store: minio, bucket: b}\n",
		"negative cache":     "snapshot: {store: memory, cache_blocks: -1}\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vecgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("metric: dot\nstorage:\n  backend: memory\n"), 0o600))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "dot", cfg.Metric)

	_, err = LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseMetric(t *testing.T) {
	a, b := []float32{1, 0}, []float32{0, 2}

	for name, want := range map[string]float32{
		"squared_l2": -5,
		"L2SQ":       -5,
		"dot":        0,
		"cosine":     0,
	} {
		m, err := ParseMetric(name)
		require.NoError(t, err, name)
		assert.InDelta(t, want, m.Similarity(a, b), 1e-5, name)
	}

	m, err := ParseMetric("l2")
	require.NoError(t, err)
	assert.InDelta(t, -2.236068, m.Similarity(a, b), 1e-5)

	_, err = ParseMetric("manhattan")
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func TestConfig_OpenDurable(t *testing.T) {
	for _, doc := range []string{
		"dimension: 2\nstorage: {backend: memory}\nlog: {format: none}\n",
		"dimension: 2\nstorage: {backend: badger, in_memory: true}\nlog: {format: none}\n",
		"dimension: 2\nstorage: {backend: badger, dir: " + filepath.ToSlash(t.TempDir()) + "}\nlog: {format: none}\n",
	} {
		cfg, err := LoadConfig(strings.NewReader(doc))
		require.NoError(t, err)

		d, err := cfg.OpenDurable(WithSeed(1))
		require.NoError(t, err)

		ctx := context.Background()
		_, err = d.Insert(ctx, "a", []float32{1, 2})
		require.NoError(t, err)
		_, err = d.Insert(ctx, "b", []float32{1, 2, 3})
		assert.Error(t, err)

		results, err := d.Find(ctx, []float32{1, 2}, 1)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "a", results[0].ForeignKey)

		require.NoError(t, d.Close())
	}
}

func TestConfig_SnapshotOptions(t *testing.T) {
	cfg := DefaultConfig()
	assert.Len(t, cfg.SnapshotOptions(), 1)
}

func TestConfig_OpenSnapshotStore(t *testing.T) {
	ctx := context.Background()
	dir := filepath.ToSlash(t.TempDir())

	cfg, err := LoadConfig(strings.NewReader("dimension: 2\nlog: {format: none}\nsnapshot: {store: local, dir: " + dir + ", cache_blocks: 16, block_size: 1024}\n"))
	require.NoError(t, err)

	blobs, err := cfg.OpenSnapshotStore(ctx)
	require.NoError(t, err)
	require.IsType(t, &blobstore.CachingStore{}, blobs)

	d, err := cfg.OpenDurable(WithSeed(1))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	_, err = d.Insert(ctx, "a", []float32{1, 2})
	require.NoError(t, err)
	_, err = d.Snapshot(ctx, blobs, "index.snap", cfg.SnapshotOptions()...)
	require.NoError(t, err)

	names, err := blobstore.NewLocalStore(dir).List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"index.snap"}, names)

	_, err = d.Restore(ctx, blobs, "index.snap")
	require.NoError(t, err)
	n, err := d.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cfg.Snapshot = SnapshotConfig{Codec: snapshot.CodecZstd, Store: "minio", Endpoint: "localhost:9000", Bucket: "backups", AccessKey: "key", SecretKey: "secret"}
	require.NoError(t, cfg.Validate())
	blobs, err = cfg.OpenSnapshotStore(ctx)
	require.NoError(t, err)
	assert.IsType(t, &minio.Store{}, blobs)

	cfg.Snapshot = SnapshotConfig{Store: "memory"}
	blobs, err = cfg.OpenSnapshotStore(ctx)
	require.NoError(t, err)
	assert.IsType(t, &blobstore.MemoryStore{}, blobs)
}
