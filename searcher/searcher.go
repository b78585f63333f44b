// Package searcher implements bounded best-first search over an abstract
// adjacency.
//
// A Searcher never sees a graph. It is given a set of starting keys, a
// function that scores a key, and, on every refinement, a function that
// enumerates the neighbors of a key. This keeps the same search usable at
// every level of a hierarchical index, each level supplying its own
// neighborhood.
package searcher

import (
	"cmp"
	"fmt"
)

// Searcher keeps the best candidates found so far while expanding a frontier.
//
// A key is scored at most once per refinement. Searcher is NOT thread-safe.
type Searcher[K comparable, S cmp.Ordered, C Candidate[K, S]] struct {
	prioritize func(K) (C, error)
	considered map[K]struct{}
	optimal    *PriorityQueue[K, S, C]
}

// New scores initial and returns a Searcher whose optimal set holds them.
//
// K and S cannot be inferred from prioritize alone, so callers instantiate
// explicitly: searcher.New[K, S, C](keys, fn).
func New[K comparable, S cmp.Ordered, C Candidate[K, S]](initial []K, prioritize func(K) (C, error)) (*Searcher[K, S, C], error) {
	s := &Searcher[K, S, C]{
		prioritize: prioritize,
		considered: make(map[K]struct{}, len(initial)),
		optimal:    &PriorityQueue[K, S, C]{items: make([]C, 0, len(initial))},
	}
	for _, k := range initial {
		if _, seen := s.considered[k]; seen {
			continue
		}
		c, err := prioritize(k)
		if err != nil {
			return nil, err
		}
		s.considered[k] = struct{}{}
		s.optimal.Push(c)
	}
	return s, nil
}

// Len returns the size of the optimal set.
func (s *Searcher[K, S, C]) Len() int { return s.optimal.Len() }

// Optimal returns the optimal set, best first.
func (s *Searcher[K, S, C]) Optimal() []C { return s.optimal.Descending() }

// Keys returns the keys of the optimal set, best first.
func (s *Searcher[K, S, C]) Keys() []K { return s.optimal.Keys() }

// Considered reports whether k has been scored since the last refinement
// started.
func (s *Searcher[K, S, C]) Considered(k K) bool {
	_, ok := s.considered[k]
	return ok
}

// RefineOption configures a single call to Refine.
type RefineOption[K comparable] func(*refineOptions[K])

type refineOptions[K comparable] struct {
	record func(from, to K)
}

// WithRecorder reports every edge that admits a candidate into the frontier.
// It has no effect on the result.
func WithRecorder[K comparable](fn func(from, to K)) RefineOption[K] {
	return func(o *refineOptions[K]) {
		o.record = fn
	}
}

// Refine expands the optimal set through neighborhood until no unexplored
// candidate can improve it, holding at most capacity candidates.
//
// A neighbor is admitted while fewer than capacity candidates are held.
// Beyond that it must score strictly higher than the worst held candidate,
// which is then evicted. On equal minimums the optimal side loses.
//
// Each call starts over from the current optimal set: keys looked at and
// rejected by an earlier call may be admitted again.
//
// Refine panics if the optimal set already holds more than capacity
// candidates. If neighborhood or the prioritize function fails, the error is
// returned and the searcher must be discarded.
func (s *Searcher[K, S, C]) Refine(capacity int, neighborhood func(K) ([]K, error), opts ...RefineOption[K]) error {
	if s.optimal.Len() > capacity {
		panic(fmt.Sprintf("searcher: capacity %d is less than the %d optimal candidates", capacity, s.optimal.Len()))
	}

	var o refineOptions[K]
	for _, fn := range opts {
		fn(&o)
	}

	s.considered = make(map[K]struct{}, max(capacity, s.optimal.Len()))
	for _, k := range s.optimal.Keys() {
		s.considered[k] = struct{}{}
	}

	frontier := s.optimal
	optimal := &PriorityQueue[K, S, C]{items: make([]C, 0, max(capacity, 0))}
	s.optimal = optimal

	for {
		current, ok := frontier.PopMax()
		if !ok {
			break
		}
		optimal.Push(current)

		neighbors, err := neighborhood(current.Key())
		if err != nil {
			return err
		}

		for _, n := range neighbors {
			if _, seen := s.considered[n]; seen {
				continue
			}
			s.considered[n] = struct{}{}

			candidate, err := s.prioritize(n)
			if err != nil {
				return err
			}

			if optimal.Len()+frontier.Len() >= capacity {
				if !evictBelow(optimal, frontier, candidate.Score()) {
					continue
				}
			}

			frontier.Push(candidate)
			if o.record != nil {
				o.record(current.Key(), n)
			}
		}
	}

	return nil
}

// evictBelow removes the lowest scored candidate held by either queue if it
// scores strictly below score.
func evictBelow[K comparable, S cmp.Ordered, C Candidate[K, S]](optimal, frontier *PriorityQueue[K, S, C], score S) bool {
	worstOptimal, okOptimal := optimal.Min()
	worstFrontier, okFrontier := frontier.Min()

	switch {
	case okOptimal && (!okFrontier || worstOptimal.Score() <= worstFrontier.Score()):
		if score <= worstOptimal.Score() {
			return false
		}
		optimal.PopMin()
	case okFrontier:
		if score <= worstFrontier.Score() {
			return false
		}
		frontier.PopMin()
	default:
		return false
	}
	return true
}
