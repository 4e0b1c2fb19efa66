// Package config handles wwtool configuration loading and management.
package config

import (
	"fmt"
	"maps"
	"slices"

	"go.uber.org/multierr"
)

// Config holds all tool settings.
type Config struct {
	Grid    GridConfig    `yaml:"grid" toml:"grid"`
	Tree    TreeConfig    `yaml:"tree" toml:"tree"`
	Strip   StripConfig   `yaml:"strip" toml:"strip"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// GridConfig holds uniform grid partitioning settings.
type GridConfig struct {
	MinCellSize          float32 `yaml:"min_cell_size" toml:"min_cell_size"`
	TerminationCellCount int     `yaml:"termination_cell_count" toml:"termination_cell_count"`
	MaxObjExtent         float32 `yaml:"max_obj_extent" toml:"max_obj_extent"` // 0 = derive from the scene
}

// TreeConfig holds AAB-tree partitioning settings.
type TreeConfig struct {
	LeafObjectCount int `yaml:"leaf_object_count" toml:"leaf_object_count"`
	MaxDepth        int `yaml:"max_depth" toml:"max_depth"`
	SplitCandidates int `yaml:"split_candidates" toml:"split_candidates"`
}

// StripConfig holds stripification settings.
type StripConfig struct {
	SwapPenalty   int  `yaml:"swap_penalty" toml:"swap_penalty"`
	Combine       bool `yaml:"combine" toml:"combine"`
	OptimizeOrder bool `yaml:"optimize_order" toml:"optimize_order"`
}

// LoggingConfig holds logging settings. Components overrides the level for
// single loggers such as "grid", "aabtree", "strip" or "watch".
type LoggingConfig struct {
	Level      string            `yaml:"level" toml:"level"`
	LogFile    string            `yaml:"log_file" toml:"log_file"`
	Components map[string]string `yaml:"components,omitempty" toml:"components,omitempty"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Grid: GridConfig{
			MinCellSize:          10,
			TerminationCellCount: 16384,
		},
		Tree: TreeConfig{
			LeafObjectCount: 4,
			MaxDepth:        24,
			SplitCandidates: 16,
		},
		Strip: StripConfig{
			SwapPenalty: 1,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports every setting that is out of range.
func (c *Config) Validate() error {
	var err error
	if c.Grid.MinCellSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("grid.min_cell_size must be positive, got %v", c.Grid.MinCellSize))
	}
	if c.Grid.TerminationCellCount < 1 {
		err = multierr.Append(err, fmt.Errorf("grid.termination_cell_count must be at least 1, got %d", c.Grid.TerminationCellCount))
	}
	if c.Grid.MaxObjExtent < 0 {
		err = multierr.Append(err, fmt.Errorf("grid.max_obj_extent must not be negative, got %v", c.Grid.MaxObjExtent))
	}
	if c.Tree.LeafObjectCount < 1 {
		err = multierr.Append(err, fmt.Errorf("tree.leaf_object_count must be at least 1, got %d", c.Tree.LeafObjectCount))
	}
	if c.Tree.MaxDepth < 1 {
		err = multierr.Append(err, fmt.Errorf("tree.max_depth must be at least 1, got %d", c.Tree.MaxDepth))
	}
	if c.Tree.SplitCandidates < 1 {
		err = multierr.Append(err, fmt.Errorf("tree.split_candidates must be at least 1, got %d", c.Tree.SplitCandidates))
	}
	if c.Strip.SwapPenalty < 0 {
		err = multierr.Append(err, fmt.Errorf("strip.swap_penalty must not be negative, got %d", c.Strip.SwapPenalty))
	}
	if !validLevel(c.Logging.Level) {
		err = multierr.Append(err, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	for _, name := range slices.Sorted(maps.Keys(c.Logging.Components)) {
		if level := c.Logging.Components[name]; !validLevel(level) {
			err = multierr.Append(err, fmt.Errorf("logging.components.%s %q is not one of debug, info, warn, error", name, level))
		}
	}
	return err
}

func validLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
