package hnsw

import (
	"fmt"
	"math"
	"strings"
)

// NeighborhoodPreference selects which pruned candidates become edges.
type NeighborhoodPreference int

const (
	// PreferDensity keeps redundant candidates while space remains, favoring recall.
	PreferDensity NeighborhoodPreference = iota
	// PreferEfficiency keeps only candidates that open a new direction,
	// producing a sparser graph.
	PreferEfficiency
)

// String returns the textual form used in config files.
func (p NeighborhoodPreference) String() string {
	switch p {
	case PreferDensity:
		return "density"
	case PreferEfficiency:
		return "efficiency"
	default:
		return fmt.Sprintf("NeighborhoodPreference(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p NeighborhoodPreference) MarshalText() ([]byte, error) {
	switch p {
	case PreferDensity, PreferEfficiency:
		return []byte(p.String()), nil
	default:
		return nil, fmt.Errorf("%w: unknown neighborhood preference %d", ErrInvalidConfig, int(p))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *NeighborhoodPreference) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "density", "prefer_density", "":
		*p = PreferDensity
	case "efficiency", "prefer_efficiency":
		*p = PreferEfficiency
	default:
		return fmt.Errorf("%w: unknown neighborhood preference %q", ErrInvalidConfig, text)
	}
	return nil
}

// DefaultTypicalNeighborhoodSize is the neighborhood size DefaultConfig is
// usually called with.
const DefaultTypicalNeighborhoodSize = 48

// Config holds the tuning parameters of the index.
type Config struct {
	// LevelGenerationScale multiplies -ln(U) when drawing an insertion level.
	// 1/ln(M) is the customary choice.
	LevelGenerationScale float64 `yaml:"level_generation_scale"`

	// ConstructionSearchWidth is the beam used to gather candidates while
	// inserting. Wider beams build better graphs more slowly.
	ConstructionSearchWidth int `yaml:"construction_search_width"`

	// MaxDegreeCreate bounds the edges a new vertex receives on each level.
	MaxDegreeCreate int `yaml:"max_degree_create"`

	// MaxDegreeUpperLevels caps the degree of every vertex above level 0.
	MaxDegreeUpperLevels int `yaml:"max_degree_upper_levels"`

	// MaxDegreeLevel0 caps the degree of every vertex on level 0.
	MaxDegreeLevel0 int `yaml:"max_degree_level0"`

	// ConsiderExtendedNeighbors is accepted for compatibility and currently
	// has no effect.
	ConsiderExtendedNeighbors bool `yaml:"consider_extended_neighbors"`

	NeighborhoodPreference NeighborhoodPreference `yaml:"neighborhood_preference"`
}

// DefaultConfig derives a config from the expected neighborhood size n.
// Level 0 allows twice as many edges as the upper levels.
func DefaultConfig(n int) Config {
	if n < 2 {
		n = 2
	}
	return Config{
		LevelGenerationScale:    1 / math.Log(float64(n)),
		ConstructionSearchWidth: 100,
		MaxDegreeCreate:         n,
		MaxDegreeUpperLevels:    n,
		MaxDegreeLevel0:         2 * n,
		NeighborhoodPreference:  PreferDensity,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case !(c.LevelGenerationScale > 0) || math.IsInf(c.LevelGenerationScale, 0):
		return fmt.Errorf("%w: level generation scale must be positive and finite, got %v", ErrInvalidConfig, c.LevelGenerationScale)
	case c.ConstructionSearchWidth < 1:
		return fmt.Errorf("%w: construction search width must be positive, got %d", ErrInvalidConfig, c.ConstructionSearchWidth)
	case c.MaxDegreeCreate < 1:
		return fmt.Errorf("%w: max degree on create must be positive, got %d", ErrInvalidConfig, c.MaxDegreeCreate)
	case c.MaxDegreeUpperLevels < 1:
		return fmt.Errorf("%w: max degree for upper levels must be positive, got %d", ErrInvalidConfig, c.MaxDegreeUpperLevels)
	case c.MaxDegreeLevel0 < 1:
		return fmt.Errorf("%w: max degree for level 0 must be positive, got %d", ErrInvalidConfig, c.MaxDegreeLevel0)
	case c.NeighborhoodPreference != PreferDensity && c.NeighborhoodPreference != PreferEfficiency:
		return fmt.Errorf("%w: unknown neighborhood preference %d", ErrInvalidConfig, int(c.NeighborhoodPreference))
	}
	return nil
}

// MaxDegree returns the degree cap of a level.
func (c Config) MaxDegree(level uint64) int {
	if level == 0 {
		return c.MaxDegreeLevel0
	}
	return c.MaxDegreeUpperLevels
}
