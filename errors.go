package vecgraph

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vecgraph/hnsw"
	"github.com/hupe1980/vecgraph/kv"
	"github.com/hupe1980/vecgraph/registry"
)

var (
	// ErrInvalidLimit is returned when a find limit is not positive.
	ErrInvalidLimit = errors.New("limit must be positive")

	// ErrNotFound is returned when a key or vector does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a foreign key is inserted twice.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrClosed is returned by an index after Close.
	ErrClosed = errors.New("index is closed")

	// ErrCorrupted is returned when the graph references a vertex whose
	// vector is missing.
	ErrCorrupted = errors.New("index is corrupted")

	// ErrUnknownMetric is returned for metric names that are not recognized.
	ErrUnknownMetric = errors.New("unknown metric")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// checkDimension ignores a negative actual, which marks a vector type
// without a length.
func checkDimension(expected, actual int) error {
	if expected > 0 && actual >= 0 && expected != actual {
		return &ErrDimensionMismatch{Expected: expected, Actual: actual}
	}
	return nil
}

// translateError maps package errors to the sentinels of this package while
// keeping the underlying error matchable.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	missing := errors.Is(err, registry.ErrNotFound) || errors.Is(err, kv.ErrNotFound)

	switch {
	case missing && errors.Is(err, hnsw.ErrUnresolvedVector):
		return fmt.Errorf("%w: %w", ErrCorrupted, err)
	case missing:
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, registry.ErrDuplicateKey):
		return fmt.Errorf("%w: %w", ErrDuplicateKey, err)
	case errors.Is(err, hnsw.ErrInvalidLimit):
		return fmt.Errorf("%w: %w", ErrInvalidLimit, err)
	case errors.Is(err, kv.ErrClosed):
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}

	return err
}
