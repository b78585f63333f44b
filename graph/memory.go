package graph

// Compile time check.
var _ Graph[int, uint8] = (*Memory[int, uint8])(nil)

// Memory is an in-memory Graph.
//
// Neighbor sets enumerate in insertion order, with removal moving the last
// neighbor into the freed slot. Memory is not safe for concurrent mutation.
type Memory[K comparable, L Level] struct {
	entry  *Entry[K, L]
	layers map[L]*layer[K]
}

// NewMemory returns an empty graph.
func NewMemory[K comparable, L Level]() *Memory[K, L] {
	return &Memory[K, L]{layers: make(map[L]*layer[K])}
}

// Entry implements Graph.
func (m *Memory[K, L]) Entry() (Entry[K, L], bool, error) {
	if m.entry == nil {
		return Entry[K, L]{}, false, nil
	}
	return *m.entry, true, nil
}

// SetEntry implements Graph.
func (m *Memory[K, L]) SetEntry(entry Entry[K, L]) error {
	m.entry = &entry
	return nil
}

// Connect implements Graph. Connecting a key to itself is a no-op.
func (m *Memory[K, L]) Connect(level L, a, b K) error {
	if a == b {
		return nil
	}
	l := m.layer(level)
	l.neighbors(a).add(b)
	l.neighbors(b).add(a)
	return nil
}

// Disconnect implements Graph.
func (m *Memory[K, L]) Disconnect(level L, a, b K) error {
	l, ok := m.layers[level]
	if !ok {
		return nil
	}
	if s, ok := l.lookup(a); ok {
		s.remove(b)
	}
	if s, ok := l.lookup(b); ok {
		s.remove(a)
	}
	return nil
}

// Remove drops key and every edge touching it on all levels. The entry is
// cleared when it is key.
func (m *Memory[K, L]) Remove(key K) {
	if m.entry != nil && m.entry.Key == key {
		m.entry = nil
	}
	for _, l := range m.layers {
		s, ok := l.lookup(key)
		if !ok {
			continue
		}
		for _, n := range s.items {
			if ns, ok := l.lookup(n); ok {
				ns.remove(key)
			}
		}
		l.remove(key)
	}
}

// Neighborhood implements Graph. The returned slice is a copy.
func (m *Memory[K, L]) Neighborhood(level L, key K) ([]K, error) {
	return m.Neighbors(level, key), nil
}

// Neighbors is Neighborhood without the error.
func (m *Memory[K, L]) Neighbors(level L, key K) []K {
	l, ok := m.layers[level]
	if !ok {
		return nil
	}
	s, ok := l.lookup(key)
	if !ok {
		return nil
	}
	return append([]K(nil), s.items...)
}

// Keys implements KeyLister. Every vertex that ever held an edge on level is
// listed, plus the entry vertex on each level it spans.
func (m *Memory[K, L]) Keys(level L) ([]K, error) {
	var keys []K
	if l, ok := m.layers[level]; ok {
		keys = append(keys, l.keys...)
	}
	if m.entry != nil && level <= m.entry.Level {
		if l, ok := m.layers[level]; !ok || !l.has(m.entry.Key) {
			keys = append(keys, m.entry.Key)
		}
	}
	return keys, nil
}

// TopLevel returns the entry level. ok is false for an empty graph.
func (m *Memory[K, L]) TopLevel() (L, bool) {
	if m.entry == nil {
		return 0, false
	}
	return m.entry.Level, true
}

func (m *Memory[K, L]) layer(level L) *layer[K] {
	l, ok := m.layers[level]
	if !ok {
		l = &layer[K]{index: make(map[K]int)}
		m.layers[level] = l
	}
	return l
}

// layer holds the adjacency of one level in vertex arrival order.
type layer[K comparable] struct {
	index map[K]int
	keys  []K
	sets  []*orderedSet[K]
}

func (l *layer[K]) has(k K) bool {
	_, ok := l.index[k]
	return ok
}

func (l *layer[K]) lookup(k K) (*orderedSet[K], bool) {
	i, ok := l.index[k]
	if !ok {
		return nil, false
	}
	return l.sets[i], true
}

func (l *layer[K]) remove(k K) {
	i, ok := l.index[k]
	if !ok {
		return
	}
	last := len(l.keys) - 1
	if i != last {
		l.keys[i], l.sets[i] = l.keys[last], l.sets[last]
		l.index[l.keys[i]] = i
	}
	l.keys, l.sets = l.keys[:last], l.sets[:last]
	delete(l.index, k)
}

func (l *layer[K]) neighbors(k K) *orderedSet[K] {
	if s, ok := l.lookup(k); ok {
		return s
	}
	s := &orderedSet[K]{index: make(map[K]int)}
	l.index[k] = len(l.keys)
	l.keys = append(l.keys, k)
	l.sets = append(l.sets, s)
	return s
}

type orderedSet[K comparable] struct {
	index map[K]int
	items []K
}

func (s *orderedSet[K]) add(k K) {
	if _, ok := s.index[k]; ok {
		return
	}
	s.index[k] = len(s.items)
	s.items = append(s.items, k)
}

func (s *orderedSet[K]) remove(k K) {
	i, ok := s.index[k]
	if !ok {
		return
	}
	last := len(s.items) - 1
	if i != last {
		moved := s.items[last]
		s.items[i] = moved
		s.index[moved] = i
	}
	s.items = s.items[:last]
	delete(s.index, k)
}
