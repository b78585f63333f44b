// Package durable stores an HNSW graph and its vectors in a kv.Store.
//
// Graph and Registry are thin views over a single kv.Txn. Build them inside
// Store.View or Store.Update and drop them when the transaction ends; every
// insert then commits atomically with its vector.
package durable

import (
	"errors"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/vecgraph/graph"
	"github.com/hupe1980/vecgraph/kv"
)

// Compile time checks.
var (
	_ graph.Graph[uint32, uint8]     = (*Graph)(nil)
	_ graph.KeyLister[uint32, uint8] = (*Graph)(nil)
)

// Graph is a graph.Graph persisted in a transaction. Neighborhoods
// enumerate in ascending key order.
type Graph struct {
	txn    kv.Txn
	layout layout
}

// NewGraph returns the graph of namespace ns as seen by txn.
func NewGraph(txn kv.Txn, ns string) *Graph {
	return &Graph{txn: txn, layout: newLayout(ns)}
}

// Entry implements graph.Graph.
func (g *Graph) Entry() (graph.Entry[uint32, uint8], bool, error) {
	b, err := g.txn.Get(g.layout.entry)
	if errors.Is(err, kv.ErrNotFound) {
		return graph.Entry[uint32, uint8]{}, false, nil
	}
	if err != nil {
		return graph.Entry[uint32, uint8]{}, false, err
	}

	level, key, err := decodeEntry(b)
	if err != nil {
		return graph.Entry[uint32, uint8]{}, false, err
	}
	return graph.Entry[uint32, uint8]{Level: level, Key: key}, true, nil
}

// SetEntry implements graph.Graph.
func (g *Graph) SetEntry(entry graph.Entry[uint32, uint8]) error {
	return g.txn.Set(g.layout.entry, encodeEntry(entry.Level, entry.Key))
}

// Connect implements graph.Graph. Connecting a key to itself is a no-op.
func (g *Graph) Connect(level uint8, a, b uint32) error {
	if a == b {
		return nil
	}
	if err := g.txn.Set(g.layout.edge(level, a, b), nil); err != nil {
		return err
	}
	return g.txn.Set(g.layout.edge(level, b, a), nil)
}

// Disconnect implements graph.Graph.
func (g *Graph) Disconnect(level uint8, a, b uint32) error {
	if err := g.txn.Delete(g.layout.edge(level, a, b)); err != nil {
		return err
	}
	return g.txn.Delete(g.layout.edge(level, b, a))
}

// Neighborhood implements graph.Graph.
func (g *Graph) Neighborhood(level uint8, key uint32) ([]uint32, error) {
	var neighbors []uint32
	err := g.txn.IterateKeys(g.layout.vertexPrefix(level, key), func(k []byte) error {
		_, n, err := g.layout.splitEdge(k)
		if err != nil {
			return err
		}
		neighbors = append(neighbors, n)
		return nil
	})
	return neighbors, err
}

// KeySet returns every vertex holding an edge on level, plus the entry
// vertex on each level it spans.
func (g *Graph) KeySet(level uint8) (*roaring.Bitmap, error) {
	set := roaring.New()

	err := g.txn.IterateKeys(g.layout.levelPrefix(level), func(k []byte) error {
		key, _, err := g.layout.splitEdge(k)
		if err != nil {
			return err
		}
		set.Add(key)
		return nil
	})
	if err != nil {
		return nil, err
	}

	entry, ok, err := g.Entry()
	if err != nil {
		return nil, err
	}
	if ok && level <= entry.Level {
		set.Add(entry.Key)
	}

	return set, nil
}

// Keys implements graph.KeyLister in ascending order.
func (g *Graph) Keys(level uint8) ([]uint32, error) {
	set, err := g.KeySet(level)
	if err != nil {
		return nil, err
	}
	return set.ToArray(), nil
}
