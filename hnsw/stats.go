package hnsw

import (
	"fmt"
	"strings"

	"github.com/hupe1980/vecgraph/graph"
)

// LevelStats describes one level of the graph.
type LevelStats struct {
	Level         uint64
	Vertices      int
	Edges         int
	MaxDegree     int
	AverageDegree float64
}

// Stats describes the shape of the graph.
type Stats struct {
	Config     Config
	Empty      bool
	EntryLevel uint64
	Levels     []LevelStats // top level first
}

// String renders the statistics in a human readable form.
func (s Stats) String() string {
	var b strings.Builder

	fmt.Fprintln(&b, "Config:")
	fmt.Fprintf(&b, "\tLevelGenerationScale = %f\n", s.Config.LevelGenerationScale)
	fmt.Fprintf(&b, "\tConstructionSearchWidth = %d\n", s.Config.ConstructionSearchWidth)
	fmt.Fprintf(&b, "\tMaxDegreeCreate = %d\n", s.Config.MaxDegreeCreate)
	fmt.Fprintf(&b, "\tMaxDegreeUpperLevels = %d\n", s.Config.MaxDegreeUpperLevels)
	fmt.Fprintf(&b, "\tMaxDegreeLevel0 = %d\n", s.Config.MaxDegreeLevel0)
	fmt.Fprintf(&b, "\tNeighborhoodPreference = %s\n\n", s.Config.NeighborhoodPreference)

	if s.Empty {
		fmt.Fprintln(&b, "Graph is empty")
		return b.String()
	}

	fmt.Fprintf(&b, "Entry level = %d\n\n", s.EntryLevel)
	fmt.Fprintln(&b, "Levels:")
	for _, l := range s.Levels {
		fmt.Fprintf(&b, "\tLevel %d:\n", l.Level)
		fmt.Fprintf(&b, "\t\tNumber of vertices: %d\n", l.Vertices)
		fmt.Fprintf(&b, "\t\tNumber of edges: %d\n", l.Edges)
		fmt.Fprintf(&b, "\t\tMax degree: %d\n", l.MaxDegree)
		fmt.Fprintf(&b, "\t\tAverage degree: %.2f\n", l.AverageDegree)
	}

	return b.String()
}

// Stats walks every level of the graph through lister.
func (m *Manager[K, L, V, S]) Stats(lister graph.KeyLister[K, L]) (Stats, error) {
	stats := Stats{Config: m.cfg}

	entry, ok, err := m.graph.Entry()
	if err != nil {
		return Stats{}, err
	}
	if !ok {
		stats.Empty = true
		return stats, nil
	}
	stats.EntryLevel = uint64(entry.Level)

	for level := range graph.Levels(entry.Level) {
		keys, err := lister.Keys(level)
		if err != nil {
			return Stats{}, err
		}

		ls := LevelStats{Level: uint64(level), Vertices: len(keys)}
		degrees := 0
		for _, k := range keys {
			n, err := m.graph.Neighborhood(level, k)
			if err != nil {
				return Stats{}, err
			}
			degrees += len(n)
			ls.MaxDegree = max(ls.MaxDegree, len(n))
		}
		ls.Edges = degrees / 2
		if len(keys) > 0 {
			ls.AverageDegree = float64(degrees) / float64(len(keys))
		}
		stats.Levels = append(stats.Levels, ls)
	}

	return stats, nil
}
