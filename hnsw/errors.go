package hnsw

import "errors"

var (
	// ErrInvalidLimit is returned by Find for a non-positive limit.
	ErrInvalidLimit = errors.New("hnsw: limit must be positive")

	// ErrUnresolvedVector wraps every failure of the vector function for a
	// key reached through the graph.
	ErrUnresolvedVector = errors.New("hnsw: unresolved vector")

	// ErrInvalidConfig wraps every Config validation failure.
	ErrInvalidConfig = errors.New("hnsw: invalid config")
)
