// Package kv provides the transactional key-value storage the durable index
// is built on.
//
// Keys and values are raw bytes. Iteration is in ascending byte order, so
// big-endian encoded integers iterate numerically. The package includes a
// BadgerDB-backed implementation for production use and an in-memory
// copy-on-write implementation for tests and ephemeral indexes.
package kv

import (
	"context"
	"errors"
	"io"
)

// Sentinel errors.
var (
	// ErrNotFound is returned when a key does not exist in the store.
	ErrNotFound = errors.New("kv: not found")

	// ErrReadOnly is returned when a read-only transaction is written to.
	ErrReadOnly = errors.New("kv: transaction is read-only")

	// ErrConflict is returned when a write transaction lost a race with a
	// concurrent one. The caller may retry.
	ErrConflict = errors.New("kv: transaction conflict")

	// ErrClosed is returned by a store after Close.
	ErrClosed = errors.New("kv: store is closed")
)

// Txn is a consistent view of the store. Writes made through a read-write Txn
// are visible to its own reads and iterations.
//
// A Txn must not be used after the function it was passed to returns.
type Txn interface {
	// Get returns a copy of the value stored under key, or ErrNotFound.
	Get(key []byte) ([]byte, error)

	// Set stores value under key, overwriting any existing value.
	Set(key, value []byte) error

	// Delete removes key. No error if the key does not exist.
	Delete(key []byte) error

	// Iterate calls fn for every entry whose key starts with prefix, in
	// ascending key order. key and value are only valid during the call.
	// Returning an error from fn stops the iteration and returns it.
	Iterate(prefix []byte, fn func(key, value []byte) error) error

	// IterateKeys is Iterate without reading values.
	IterateKeys(prefix []byte, fn func(key []byte) error) error
}

// Store runs transactions.
type Store interface {
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(Txn) error) error

	// Update runs fn in a read-write transaction and commits it if fn
	// returns nil. Nothing fn wrote is kept when it returns an error.
	Update(ctx context.Context, fn func(Txn) error) error

	// Backup writes the full contents of the store to w in a
	// backend-specific format.
	Backup(ctx context.Context, w io.Writer) error

	// Restore replaces the contents of the store with a stream produced by
	// Backup of the same backend.
	Restore(ctx context.Context, r io.Reader) error

	// Close releases any resources held by the store.
	Close() error
}
