// Package registry maps internal vertex keys to vectors and to the
// caller's foreign keys.
package registry

import "errors"

var (
	// ErrNotFound is returned when a key has no registered vector.
	ErrNotFound = errors.New("registry: key not found")

	// ErrDuplicateKey is returned when a foreign key is registered twice.
	ErrDuplicateKey = errors.New("registry: foreign key already registered")

	// ErrKeySpaceExhausted is returned once every value of the key type has
	// been assigned.
	ErrKeySpaceExhausted = errors.New("registry: key space exhausted")
)

// Key is the set of types usable as internal keys. Keys are assigned densely
// from zero.
type Key interface {
	~uint16 | ~uint32 | ~uint64 | ~uint
}

// Registry stores vectors under internal keys.
type Registry[K Key, F comparable, V any] interface {
	// Register stores vector under a fresh key, strictly greater than every
	// key assigned before it.
	Register(vector V, foreign F) (K, error)
	Vector(key K) (V, error)
	ForeignKey(key K) (F, error)
	// Key resolves a foreign key. ok is false when it was never registered.
	Key(foreign F) (key K, ok bool, err error)
}
