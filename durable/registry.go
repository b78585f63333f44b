package durable

import (
	"errors"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/x448/float16"

	"github.com/hupe1980/vecgraph/kv"
	"github.com/hupe1980/vecgraph/registry"
)

// Compile time check.
var _ registry.Registry[uint32, string, []float32] = (*Registry)(nil)

// ErrKeySpaceExhausted is returned once every uint32 key has been assigned.
var ErrKeySpaceExhausted = registry.ErrKeySpaceExhausted

// record is the stored form of a vector. Exactly one of F32 and F16 is set.
type record struct {
	F32     []float32 `msgpack:"f32,omitempty"`
	F16     []uint16  `msgpack:"f16,omitempty"`
	Foreign string    `msgpack:"fk"`
}

func (r record) vector() []float32 {
	if r.F16 == nil {
		return r.F32
	}
	v := make([]float32, len(r.F16))
	for i, bits := range r.F16 {
		v[i] = float16.Frombits(bits).Float32()
	}
	return v
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithHalfPrecision stores newly registered vectors as IEEE 754 half
// precision floats. Reads decode either form.
func WithHalfPrecision(enabled bool) RegistryOption {
	return func(r *Registry) {
		r.half = enabled
	}
}

// WithVectorCache serves vectors from c. Only registries over committed,
// read-only transactions should populate it; a write transaction may still
// roll back and hand its keys out again.
func WithVectorCache(c *VectorCache, populate bool) RegistryOption {
	return func(r *Registry) {
		r.cache = c
		r.populate = populate
	}
}

// Registry is a registry.Registry persisted in a transaction.
// Foreign keys are unique.
type Registry struct {
	txn      kv.Txn
	layout   layout
	half     bool
	cache    *VectorCache
	populate bool
}

// NewRegistry returns the registry of namespace ns as seen by txn.
func NewRegistry(txn kv.Txn, ns string, optFns ...RegistryOption) *Registry {
	r := &Registry{txn: txn, layout: newLayout(ns)}
	for _, fn := range optFns {
		fn(r)
	}
	return r
}

// Len returns the number of registered vectors.
func (r *Registry) Len() (int, error) {
	next, err := r.next()
	return int(next), err
}

func (r *Registry) next() (uint32, error) {
	b, err := r.txn.Get(r.layout.next)
	if errors.Is(err, kv.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return decodeKey(b)
}

// Register implements registry.Registry.
func (r *Registry) Register(vector []float32, foreign string) (uint32, error) {
	fk := r.layout.foreignKey(foreign)
	if _, err := r.txn.Get(fk); err == nil {
		return 0, fmt.Errorf("%w: %q", registry.ErrDuplicateKey, foreign)
	} else if !errors.Is(err, kv.ErrNotFound) {
		return 0, err
	}

	key, err := r.next()
	if err != nil {
		return 0, err
	}
	if key == math.MaxUint32 {
		return 0, ErrKeySpaceExhausted
	}

	rec := record{Foreign: foreign}
	if r.half {
		rec.F16 = make([]uint16, len(vector))
		for i, v := range vector {
			rec.F16[i] = float16.Fromfloat32(v).Bits()
		}
	} else {
		rec.F32 = vector
	}

	b, err := msgpack.Marshal(&rec)
	if err != nil {
		return 0, err
	}
	if err := r.txn.Set(r.layout.vector(key), b); err != nil {
		return 0, err
	}
	if err := r.txn.Set(fk, encodeKey(key)); err != nil {
		return 0, err
	}
	if err := r.txn.Set(r.layout.next, encodeKey(key+1)); err != nil {
		return 0, err
	}

	return key, nil
}

func (r *Registry) record(key uint32) (record, error) {
	b, err := r.txn.Get(r.layout.vector(key))
	if errors.Is(err, kv.ErrNotFound) {
		return record{}, fmt.Errorf("%w: %d", registry.ErrNotFound, key)
	}
	if err != nil {
		return record{}, err
	}

	var rec record
	if err := msgpack.Unmarshal(b, &rec); err != nil {
		return record{}, fmt.Errorf("durable: decode vector %d: %w", key, err)
	}
	return rec, nil
}

// Vector implements registry.Registry.
func (r *Registry) Vector(key uint32) ([]float32, error) {
	if v, ok := r.cache.Get(key); ok {
		return v, nil
	}

	rec, err := r.record(key)
	if err != nil {
		return nil, err
	}

	v := rec.vector()
	if r.populate {
		r.cache.Add(key, v)
	}
	return v, nil
}

// ForeignKey implements registry.Registry.
func (r *Registry) ForeignKey(key uint32) (string, error) {
	rec, err := r.record(key)
	if err != nil {
		return "", err
	}
	return rec.Foreign, nil
}

// Key implements registry.Registry.
func (r *Registry) Key(foreign string) (uint32, bool, error) {
	b, err := r.txn.Get(r.layout.foreignKey(foreign))
	if errors.Is(err, kv.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	key, err := decodeKey(b)
	if err != nil {
		return 0, false, err
	}
	return key, true, nil
}
