package searcher

import (
	"cmp"
	"slices"
)

// Candidate is a key paired with the priority it was scored at.
type Candidate[K comparable, S cmp.Ordered] interface {
	Key() K
	Score() S
}

// PriorityQueue holds candidates ordered by score.
//
// Items are kept in an ascending slice, so both ends are available in O(1)
// and insertion is O(N). N is the search capacity, which is typically small.
// Candidates with equal scores keep their insertion order, which makes every
// traversal deterministic.
//
// The zero value is an empty queue ready to use.
type PriorityQueue[K comparable, S cmp.Ordered, C Candidate[K, S]] struct {
	items []C
}

// NewPriorityQueue returns a queue holding items.
func NewPriorityQueue[K comparable, S cmp.Ordered, C Candidate[K, S]](items ...C) *PriorityQueue[K, S, C] {
	pq := &PriorityQueue[K, S, C]{items: make([]C, 0, len(items))}
	for _, c := range items {
		pq.Push(c)
	}
	return pq
}

// Len returns the number of candidates in the queue.
func (pq *PriorityQueue[K, S, C]) Len() int {
	return len(pq.items)
}

// Push inserts c after every candidate whose score is not greater.
func (pq *PriorityQueue[K, S, C]) Push(c C) {
	score := c.Score()
	i, _ := slices.BinarySearchFunc(pq.items, score, func(item C, target S) int {
		if item.Score() > target {
			return 1
		}
		return -1
	})
	pq.items = slices.Insert(pq.items, i, c)
}

// Max returns the highest scored candidate.
func (pq *PriorityQueue[K, S, C]) Max() (C, bool) {
	if len(pq.items) == 0 {
		var zero C
		return zero, false
	}
	return pq.items[len(pq.items)-1], true
}

// Min returns the lowest scored candidate.
func (pq *PriorityQueue[K, S, C]) Min() (C, bool) {
	if len(pq.items) == 0 {
		var zero C
		return zero, false
	}
	return pq.items[0], true
}

// PopMax removes and returns the highest scored candidate.
func (pq *PriorityQueue[K, S, C]) PopMax() (C, bool) {
	c, ok := pq.Max()
	if ok {
		var zero C
		pq.items[len(pq.items)-1] = zero
		pq.items = pq.items[:len(pq.items)-1]
	}
	return c, ok
}

// PopMin removes and returns the lowest scored candidate.
func (pq *PriorityQueue[K, S, C]) PopMin() (C, bool) {
	c, ok := pq.Min()
	if ok {
		pq.items = slices.Delete(pq.items, 0, 1)
	}
	return c, ok
}

// Descending returns a copy of the candidates, best first.
func (pq *PriorityQueue[K, S, C]) Descending() []C {
	out := make([]C, len(pq.items))
	for i, c := range pq.items {
		out[len(out)-1-i] = c
	}
	return out
}

// Keys returns the candidate keys, best first.
func (pq *PriorityQueue[K, S, C]) Keys() []K {
	out := make([]K, len(pq.items))
	for i, c := range pq.items {
		out[len(out)-1-i] = c.Key()
	}
	return out
}

// Reset empties the queue, keeping its storage.
func (pq *PriorityQueue[K, S, C]) Reset() {
	clear(pq.items)
	pq.items = pq.items[:0]
}
