// Package config defines the Ensemble's recognized configuration
// options and an optional YAML/env loader for driver programs. The
// engine itself only ever consumes a Config value; file and
// environment loading are kept here as ambient scaffolding for a
// hypothetical CLI, never invoked by the engine core.
package config

import (
	"bytes"
	"fmt"

	"github.com/spf13/viper"

	"github.com/jjmmwon/FiReDR/pkg/errors"
	"github.com/jjmmwon/FiReDR/pkg/parallel"
	"github.com/jjmmwon/FiReDR/pkg/utils"
)

// Config holds the recognized options for an Ensemble.
type Config struct {
	// NTrees is the number of APTs in the forest. Default: 8.
	NTrees int `mapstructure:"n_trees"`

	// LeafMaxSize is the per-leaf split trigger. Default: 128.
	LeafMaxSize int `mapstructure:"leaf_max_size"`

	// Threshold is the minimum co-occurrence count for a micro-cluster
	// edge. Zero or negative means "unset"; ResolveThreshold fills in
	// n_trees/2 + 1 lazily, since the default genuinely depends on NTrees.
	Threshold int `mapstructure:"threshold"`

	// Seed is the base RNG seed; tree i is seeded with Seed + i. Default: 42.
	Seed int64 `mapstructure:"seed"`

	// BStrategy is a reserved normal-generation strategy tag, carried
	// but never consulted.
	BStrategy string `mapstructure:"b_strategy"`

	// Pool configures the forest's bounded worker pool (ambient addition).
	Pool parallel.PoolConfig `mapstructure:"-"`

	// Logger receives the engine's structured log lines (ambient
	// addition); nil disables logging.
	Logger utils.Logger `mapstructure:"-"`
}

// DefaultConfig returns the engine's documented defaults.
func DefaultConfig() Config {
	return Config{
		NTrees:      8,
		LeafMaxSize: 128,
		Threshold:   0,
		Seed:        42,
		BStrategy:   "default",
		Pool:        parallel.DefaultPoolConfig(),
		Logger:      utils.NopLogger{},
	}
}

// ResolveThreshold returns the effective threshold: the configured value
// if positive, otherwise n_trees/2 + 1.
func (c Config) ResolveThreshold() int {
	if c.Threshold > 0 {
		return c.Threshold
	}
	return c.NTrees/2 + 1
}

// Validate checks the struct-level invariants the engine relies on.
func (c Config) Validate() error {
	if c.NTrees <= 0 {
		return errors.Newf(errors.CodeInvalidInput, "n_trees must be positive, got %d", c.NTrees)
	}
	if c.LeafMaxSize <= 0 {
		return errors.Newf(errors.CodeInvalidInput, "leaf_max_size must be positive, got %d", c.LeafMaxSize)
	}
	if c.BStrategy == "" {
		return errors.New(errors.CodeInvalidInput, "b_strategy must not be empty")
	}
	return nil
}

// Load reads configuration from a YAML file, falling back to defaults
// for any option the file omits. Viper-based; not used by the engine
// itself.
func Load(configPath string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(errors.CodeConfigError, "failed to read config file", err)
	}
	v.AutomaticEnv()

	return unmarshal(v)
}

// LoadFromReader loads configuration from in-memory YAML content, useful
// for tests and embedding.
func LoadFromReader(content []byte) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return Config{}, errors.Wrap(errors.CodeConfigError, "failed to read config", err)
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(errors.CodeConfigError, "failed to unmarshal config", err)
	}
	if cfg.Pool.MaxWorkers <= 0 {
		cfg.Pool = parallel.DefaultPoolConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = utils.NopLogger{}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("n_trees", d.NTrees)
	v.SetDefault("leaf_max_size", d.LeafMaxSize)
	v.SetDefault("threshold", d.Threshold)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("b_strategy", d.BStrategy)
}
