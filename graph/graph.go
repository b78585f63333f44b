// Package graph defines the adjacency contract of a multi-level proximity
// graph and provides an in-memory implementation.
package graph

import "iter"

// Level identifies a layer of the hierarchy. Level 0 holds every vertex.
type Level interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint
}

// Entry is the vertex every search starts from.
type Entry[K comparable, L Level] struct {
	Level L
	Key   K
}

// Graph stores bidirectional edges per level plus a single entry point.
//
// Connect and Disconnect must be visible in both directions as soon as they
// return. Neighborhood carries no order guarantee and is empty for unknown
// vertices.
type Graph[K comparable, L Level] interface {
	// Entry returns the entry point. ok is false for an empty graph.
	Entry() (entry Entry[K, L], ok bool, err error)
	SetEntry(entry Entry[K, L]) error
	Connect(level L, a, b K) error
	Disconnect(level L, a, b K) error
	Neighborhood(level L, key K) ([]K, error)
}

// KeyLister is implemented by graphs that can enumerate the vertices of a level.
type KeyLister[K comparable, L Level] interface {
	Keys(level L) ([]K, error)
}

// Descend returns the level below level. ok is false once level 0 is reached.
func Descend[L Level](level L) (next L, ok bool) {
	if level == 0 {
		return 0, false
	}
	return level - 1, true
}

// Levels yields top, top-1, ..., 0.
func Levels[L Level](top L) iter.Seq[L] {
	return func(yield func(L) bool) {
		for level, ok := top, true; ok; level, ok = Descend(level) {
			if !yield(level) {
				return
			}
		}
	}
}
