package colquery

import (
	"fmt"
	"io"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config is the engine's flat configuration surface (§6). It is
// ordinarily constructed with DefaultConfig and adjusted by the
// embedding application; LoadConfigYAML is provided for callers that
// prefer to keep it in a config file alongside the rest of their
// service configuration.
type Config struct {
	// StrictMode, when true (the default), makes the executor return
	// UnsupportedExpressionError for any plan the analyzer could not
	// fully optimize. When false, the executor runs such a plan with
	// only the predicates the analyzer resolved; it does not re-evaluate
	// the unresolved expression row by row.
	StrictMode bool `yaml:"strict_mode"`

	// Parallel groups the worker-pool knobs.
	Parallel ParallelConfig `yaml:"parallel"`

	// PlanCache groups the structural plan cache knobs.
	PlanCache PlanCacheConfig `yaml:"plan_cache"`
}

// ParallelConfig controls the range-partitioned worker scheduler.
type ParallelConfig struct {
	// ChunkSize is the row-range granularity workers are assigned.
	ChunkSize int `yaml:"chunk_size"`
	// MaxWorkers bounds the worker pool's goroutine count. 0 means use
	// runtime.NumCPU().
	MaxWorkers int `yaml:"max_workers"`
}

// PlanCacheConfig controls the structural QueryPlanCache.
type PlanCacheConfig struct {
	Enabled    bool `yaml:"enabled"`
	MaxEntries int  `yaml:"max_entries"`
}

// DefaultConfig returns the engine's documented defaults.
func DefaultConfig() Config {
	return Config{
		StrictMode: true,
		Parallel: ParallelConfig{
			ChunkSize:  16384,
			MaxWorkers: runtime.NumCPU(),
		},
		PlanCache: PlanCacheConfig{
			Enabled:    true,
			MaxEntries: 1000,
		},
	}
}

// LoadConfigYAML reads a Config from YAML, filling any field the
// document omits with DefaultConfig's value.
func LoadConfigYAML(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("colquery: reading config: %w", err)
	}
	if len(data) == 0 {
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("colquery: parsing config yaml: %w", err)
	}
	if cfg.Parallel.MaxWorkers <= 0 {
		cfg.Parallel.MaxWorkers = runtime.NumCPU()
	}
	if cfg.Parallel.ChunkSize <= 0 {
		cfg.Parallel.ChunkSize = 16384
	}
	if cfg.PlanCache.MaxEntries <= 0 {
		cfg.PlanCache.MaxEntries = 1000
	}
	return cfg, nil
}
