package vecgraph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/vecgraph/blobstore"
	"github.com/hupe1980/vecgraph/blobstore/minio"
	"github.com/hupe1980/vecgraph/blobstore/s3"
	"github.com/hupe1980/vecgraph/durable"
	"github.com/hupe1980/vecgraph/hnsw"
	"github.com/hupe1980/vecgraph/kv"
	"github.com/hupe1980/vecgraph/metric"
	"github.com/hupe1980/vecgraph/snapshot"
)

// Config is the file form of a durable index configuration.
//
//	metric: cosine
//	dimension: 384
//	index:
//	  construction_search_width: 200
//	  neighborhood_preference: efficiency
//	storage:
//	  backend: badger
//	  dir: ./data
//	  namespace: products
//	log:
//	  level: debug
//	  format: json
//	snapshot:
//	  codec: zstd
//	  store: minio
//	  endpoint: localhost:9000
//	  bucket: backups
//	  cache_blocks: 256
type Config struct {
	Metric    string         `yaml:"metric"`
	Dimension int            `yaml:"dimension"`
	Index     hnsw.Config    `yaml:"index"`
	Storage   StorageConfig  `yaml:"storage"`
	Log       LogConfig      `yaml:"log"`
	Cache     CacheConfig    `yaml:"cache"`
	Limits    LimitsConfig   `yaml:"limits"`
	Snapshot  SnapshotConfig `yaml:"snapshot"`
}

// StorageConfig selects and configures the kv.Store.
type StorageConfig struct {
	// Backend is "memory" (the default) or "badger".
	Backend       string `yaml:"backend"`
	Dir           string `yaml:"dir"`
	InMemory      bool   `yaml:"in_memory"`
	Namespace     string `yaml:"namespace"`
	HalfPrecision bool   `yaml:"half_precision"`
}

// LogConfig configures the Logger.
type LogConfig struct {
	Level string `yaml:"level"`
	// Format is "text", "json" or "none".
	Format string `yaml:"format"`
}

type CacheConfig struct {
	Vectors int `yaml:"vectors"`
}

type LimitsConfig struct {
	MaxConcurrentQueries int64 `yaml:"max_concurrent_queries"`
	IOBytesPerSec        int64 `yaml:"io_bytes_per_sec"`
}

// SnapshotConfig selects the codec and the blobstore.Store snapshots are
// written to.
type SnapshotConfig struct {
	Codec snapshot.Codec `yaml:"codec"`
	// Store is "local" (the default), "memory", "s3" or "minio".
	Store  string `yaml:"store"`
	Dir    string `yaml:"dir"`
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	Region string `yaml:"region"`
	// Endpoint, AccessKey, SecretKey and Secure configure minio. Empty keys
	// are read from MINIO_ROOT_USER and MINIO_ROOT_PASSWORD.
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Secure    bool   `yaml:"secure"`
	// CacheBlocks > 0 puts a block cache of that many blocks in front of
	// the store.
	CacheBlocks int   `yaml:"cache_blocks"`
	BlockSize   int64 `yaml:"block_size"`
}

// DefaultConfig returns the configuration LoadConfig starts from.
func DefaultConfig() Config {
	return Config{
		Metric: "squared_l2",
		Index:  hnsw.DefaultConfig(hnsw.DefaultTypicalNeighborhoodSize),
		Storage: StorageConfig{
			Backend:   "memory",
			Namespace: DefaultNamespace,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Snapshot: SnapshotConfig{
			Codec: snapshot.CodecZstd,
			Store: "local",
			Dir:   "snapshots",
		},
	}
}

// LoadConfig decodes YAML from r over DefaultConfig and validates it.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile reads the YAML file at path.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	return LoadConfig(f)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, err := ParseMetric(c.Metric); err != nil {
		return err
	}
	if c.Dimension < 0 {
		return fmt.Errorf("invalid dimension: %d", c.Dimension)
	}
	if err := c.Index.Validate(); err != nil {
		return err
	}
	if err := durable.ValidateNamespace(c.Storage.Namespace); err != nil {
		return err
	}
	switch c.Storage.Backend {
	case "memory":
	case "badger":
		if c.Storage.Dir == "" && !c.Storage.InMemory {
			return errors.New("storage: badger needs a dir or in_memory")
		}
	default:
		return fmt.Errorf("storage: unknown backend %q", c.Storage.Backend)
	}
	if _, err := c.logger(); err != nil {
		return err
	}
	return c.Snapshot.validate()
}

func (c SnapshotConfig) validate() error {
	switch c.Store {
	case "memory":
	case "local":
		if c.Dir == "" {
			return errors.New("snapshot: local store needs a dir")
		}
	case "s3":
		if c.Bucket == "" {
			return errors.New("snapshot: s3 store needs a bucket")
		}
	case "minio":
		if c.Endpoint == "" || c.Bucket == "" {
			return errors.New("snapshot: minio store needs an endpoint and a bucket")
		}
	default:
		return fmt.Errorf("snapshot: unknown store %q", c.Store)
	}
	if c.CacheBlocks < 0 {
		return fmt.Errorf("snapshot: invalid cache_blocks: %d", c.CacheBlocks)
	}
	return nil
}

func (c Config) logger() (*Logger, error) {
	level, err := ParseLogLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text":
		return NewTextLogger(level), nil
	case "json":
		return NewJSONLogger(level), nil
	case "none":
		return NoopLogger(), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", c.Log.Format)
	}
}

// Options converts the configuration into index options.
func (c Config) Options() ([]Option, error) {
	logger, err := c.logger()
	if err != nil {
		return nil, err
	}
	return []Option{
		WithLogger(logger),
		WithDimension(c.Dimension),
		WithNamespace(c.Storage.Namespace),
		WithVectorCache(c.Cache.Vectors),
		WithHalfPrecision(c.Storage.HalfPrecision),
		WithMaxConcurrentQueries(c.Limits.MaxConcurrentQueries),
		WithIOLimit(c.Limits.IOBytesPerSec),
	}, nil
}

// OpenStore opens the configured kv.Store.
func (c Config) OpenStore() (kv.Store, error) {
	switch c.Storage.Backend {
	case "memory":
		return kv.NewMemory(), nil
	case "badger":
		logger, err := c.logger()
		if err != nil {
			return nil, err
		}
		store, err := kv.NewBadger(kv.BadgerOptions{
			Dir:      c.Storage.Dir,
			InMemory: c.Storage.InMemory,
			Logger:   logger.Logger,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", c.Storage.Backend)
	}
}

// OpenDurable opens the store and the index on top of it.
func (c Config) OpenDurable(extra ...Option) (*Durable, error) {
	m, err := ParseMetric(c.Metric)
	if err != nil {
		return nil, err
	}
	opts, err := c.Options()
	if err != nil {
		return nil, err
	}

	store, err := c.OpenStore()
	if err != nil {
		return nil, err
	}

	d, err := Open(store, m, c.Index, append(opts, extra...)...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return d, nil
}

// ParseMetric resolves a metric name: "squared_l2", "l2", "cosine" or "dot".
func ParseMetric(name string) (metric.Metric[[]float32, float32], error) {
	switch strings.ToLower(name) {
	case "squared_l2", "l2sq":
		return metric.NegativeSquaredL2, nil
	case "l2", "euclidean":
		return metric.NegativeL2, nil
	case "cosine":
		return metric.Cosine, nil
	case "dot", "inner_product":
		return metric.Dot, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
}

// OpenSnapshotStore opens the configured snapshot store, wrapped in a
// blobstore.CachingStore when cache_blocks is set.
func (c Config) OpenSnapshotStore(ctx context.Context) (blobstore.Store, error) {
	store, err := c.Snapshot.open(ctx)
	if err != nil {
		return nil, err
	}
	if c.Snapshot.CacheBlocks <= 0 {
		return store, nil
	}
	cached, err := blobstore.NewCachingStore(store, c.Snapshot.CacheBlocks, c.Snapshot.BlockSize)
	if err != nil {
		return nil, err
	}
	return cached, nil
}

func (c SnapshotConfig) open(ctx context.Context) (blobstore.Store, error) {
	switch c.Store {
	case "memory":
		return blobstore.NewMemoryStore(), nil
	case "local":
		return blobstore.NewLocalStore(c.Dir), nil
	case "s3":
		store, err := s3.New(ctx, c.Bucket, s3.WithPrefix(c.Prefix), s3.WithRegion(c.Region))
		if err != nil {
			return nil, fmt.Errorf("snapshot: open s3 store: %w", err)
		}
		return store, nil
	case "minio":
		creds := credentials.NewEnvMinio()
		if c.AccessKey != "" {
			creds = credentials.NewStaticV4(c.AccessKey, c.SecretKey, "")
		}
		client, err := miniogo.New(c.Endpoint, &miniogo.Options{Creds: creds, Secure: c.Secure})
		if err != nil {
			return nil, fmt.Errorf("snapshot: open minio store: %w", err)
		}
		return minio.NewStore(client, c.Bucket, c.Prefix), nil
	default:
		return nil, fmt.Errorf("snapshot: unknown store %q", c.Store)
	}
}

// SnapshotOptions returns the options Durable.Snapshot should be called with.
func (c Config) SnapshotOptions() []snapshot.Option {
	return []snapshot.Option{snapshot.WithCodec(c.Snapshot.Codec)}
}
