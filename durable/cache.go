package durable

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// VectorCache keeps recently decoded vectors in memory.
//
// Keys are never reused, so a cached vector stays valid until the store is
// restored from a backup. The caller must Purge then, with no reader in
// flight that could add a vector read before the restore.
type VectorCache struct {
	lru *lru.Cache[uint32, []float32]
}

// NewVectorCache returns a cache holding up to size vectors.
func NewVectorCache(size int) (*VectorCache, error) {
	c, err := lru.New[uint32, []float32](size)
	if err != nil {
		return nil, err
	}
	return &VectorCache{lru: c}, nil
}

// Get returns the cached vector for key.
func (c *VectorCache) Get(key uint32) ([]float32, bool) {
	if c == nil {
		return nil, false
	}
	return c.lru.Get(key)
}

// Add caches vector under key.
func (c *VectorCache) Add(key uint32, vector []float32) {
	if c == nil {
		return
	}
	c.lru.Add(key, vector)
}

// Len returns the number of cached vectors.
func (c *VectorCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

// Purge empties the cache.
func (c *VectorCache) Purge() {
	if c == nil {
		return
	}
	c.lru.Purge()
}
