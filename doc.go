// Package vecgraph provides an embeddable approximate nearest neighbor index
// for Go built on Hierarchical Navigable Small World graphs.
//
// # Quick Start
//
// In-memory index over any vector type:
//
//	idx, _ := vecgraph.New[string, []float32, float32](metric.NegativeSquaredL2, hnsw.DefaultConfig(16))
//	_, _ = idx.Insert(ctx, "doc-1", []float32{0.1, 0.2, 0.3}, nil)
//	results, _ := idx.Find(ctx, []float32{0.1, 0.2, 0.25}, 10)
//
// Durable index over a transactional key-value store:
//
//	store, _ := kv.NewBadger(kv.BadgerOptions{Dir: "./data"})
//	db, _ := vecgraph.Open(store, metric.Cosine, hnsw.DefaultConfig(48),
//	    vecgraph.WithDimension(384),
//	    vecgraph.WithVectorCache(100_000),
//	)
//	defer db.Close()
//
//	key, _ := db.Insert(ctx, "doc-1", embedding)
//	results, _ := db.Find(ctx, query, 10)
//
// Every Insert on a durable index runs in one write transaction: the vector
// is registered, linked into the graph, and the entry point updated, or none
// of it happens. Finds run in read-only transactions and may proceed in
// parallel with each other and with a writer.
//
// # Snapshots
//
// A durable index can be copied to and restored from any blobstore.Store:
//
//	s3Store, _ := s3.New(ctx, "my-bucket", s3.WithPrefix("snapshots/"))
//	info, _ := db.Snapshot(ctx, s3Store, "products.snap")
//	_, _ = db.Restore(ctx, s3Store, "products.snap")
//
// # Configuration
//
// Indexes can be configured with functional options or from a YAML file:
//
//	cfg, _ := vecgraph.LoadConfigFile("vecgraph.yaml")
//	db, _ := cfg.OpenDurable()
package vecgraph
