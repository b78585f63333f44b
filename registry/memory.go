package registry

import "fmt"

// Compile time check.
var _ Registry[uint32, string, []float32] = (*Memory[uint32, string, []float32])(nil)

type record[F comparable, V any] struct {
	vector  V
	foreign F
}

// Memory is an in-memory Registry. It is not safe for concurrent mutation.
type Memory[K Key, F comparable, V any] struct {
	records []record[F, V]
	keys    map[F]K
}

// NewMemory returns an empty registry.
func NewMemory[K Key, F comparable, V any]() *Memory[K, F, V] {
	return &Memory[K, F, V]{keys: make(map[F]K)}
}

// Register implements Registry.
func (m *Memory[K, F, V]) Register(vector V, foreign F) (K, error) {
	if _, ok := m.keys[foreign]; ok {
		return 0, fmt.Errorf("%w: %v", ErrDuplicateKey, foreign)
	}
	if uint64(len(m.records)) > uint64(^K(0)) {
		return 0, ErrKeySpaceExhausted
	}
	key := K(len(m.records))
	m.records = append(m.records, record[F, V]{vector: vector, foreign: foreign})
	m.keys[foreign] = key
	return key, nil
}

// Unregister removes key, which must be the most recently registered one.
// It undoes a Register whose insertion into the graph failed.
func (m *Memory[K, F, V]) Unregister(key K) error {
	if len(m.records) == 0 || uint64(key) != uint64(len(m.records)-1) {
		return fmt.Errorf("registry: unregister %d: not the last key", uint64(key))
	}
	delete(m.keys, m.records[key].foreign)
	m.records = m.records[:key]
	return nil
}

// Vector implements Registry.
func (m *Memory[K, F, V]) Vector(key K) (V, error) {
	r, err := m.record(key)
	return r.vector, err
}

// ForeignKey implements Registry.
func (m *Memory[K, F, V]) ForeignKey(key K) (F, error) {
	r, err := m.record(key)
	return r.foreign, err
}

// Key implements Registry.
func (m *Memory[K, F, V]) Key(foreign F) (K, bool, error) {
	k, ok := m.keys[foreign]
	return k, ok, nil
}

// Len returns the number of registered vectors.
func (m *Memory[K, F, V]) Len() int { return len(m.records) }

func (m *Memory[K, F, V]) record(key K) (record[F, V], error) {
	if uint64(key) >= uint64(len(m.records)) {
		return record[F, V]{}, fmt.Errorf("%w: %d", ErrNotFound, uint64(key))
	}
	return m.records[key], nil
}
