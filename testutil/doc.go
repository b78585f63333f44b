// Package testutil provides testing utilities for vecgraph.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random vectors, computing exact
// nearest neighbors, and verifying search recall.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vecs := rng.UniformVectors(1000, 128) // uniform [0, 1)
//	units := rng.UnitVectors(1000, 128)   // on the unit hypersphere
//
// An *RNG is also an hnsw.RandomSource, so it can drive level generation.
//
// # Exact Search (Ground Truth)
//
//	truth := testutil.ExactSearch(query, vectors, k, metric.NegativeSquaredL2)
//
// # Recall Verification
//
//	recall := testutil.RecallAtK(truth, approx)
//
// # Sample Index
//
// SampleIndex is a small, fully deterministic two dimensional index used by
// examples and tests.
package testutil
