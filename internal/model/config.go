package model

import (
	"fmt"
	"math"
	"time"
)

// Config is the complete runtime configuration
type Config struct {
	Propagation  PropagationConfig `yaml:"propagation" mapstructure:"propagation"`
	Scoring      ScoringConfig     `yaml:"scoring" mapstructure:"scoring"`
	Cache        CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitConfig   `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Logging      LoggingConfig     `yaml:"logging" mapstructure:"logging"`
	Output       OutputConfig      `yaml:"output" mapstructure:"output"`
}

// PropagationConfig bounds upward re-scoring
type PropagationConfig struct {
	Epsilon  float64 `yaml:"epsilon" mapstructure:"epsilon"`     // Minimum |delta| that keeps propagating
	MaxDepth int     `yaml:"max_depth" mapstructure:"max_depth"` // Hard recursion bound
}

// ScoringConfig holds the tunable scoring constants
type ScoringConfig struct {
	UnverifiedEvidenceScore float64 `yaml:"unverified_evidence_score" mapstructure:"unverified_evidence_score"`
	DebunkedThreshold       float64 `yaml:"debunked_threshold" mapstructure:"debunked_threshold"`
}

// CacheConfig configures the score breakdown cache
type CacheConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL             time.Duration `yaml:"ttl" mapstructure:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval"`
}

// ConcurrencyConfig configures batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"` // Graphs processed in parallel
}

// RateLimitConfig throttles mutations per topic
type RateLimitConfig struct {
	MutationsPerSecond float64 `yaml:"mutations_per_second" mapstructure:"mutations_per_second"` // 0 disables
	BurstSize          int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// LoggingConfig configures slog output
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text, json
}

// OutputConfig configures CLI rendering
type OutputConfig struct {
	Verbose      bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeTrace bool `yaml:"include_trace" mapstructure:"include_trace"`
}

// DefaultConfig returns conservative defaults: a small epsilon and a depth
// bound far above any realistic argument tree.
func DefaultConfig() *Config {
	return &Config{
		Propagation: PropagationConfig{
			Epsilon:  1e-6,
			MaxDepth: 64,
		},
		Scoring: ScoringConfig{
			UnverifiedEvidenceScore: DefaultUnverifiedScore,
			DebunkedThreshold:       0.05,
		},
		Cache: CacheConfig{
			Enabled:         true,
			TTL:             10 * time.Minute,
			CleanupInterval: 10 * time.Minute,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitConfig{
			MutationsPerSecond: 0,
			BurstSize:          50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Output: OutputConfig{
			IncludeTrace: true,
		},
	}
}

// Validate rejects settings that would break termination or scoring bounds
func (c *Config) Validate() error {
	if c.Propagation.Epsilon <= 0 || math.IsNaN(c.Propagation.Epsilon) {
		return fmt.Errorf("propagation.epsilon must be > 0, got %v", c.Propagation.Epsilon)
	}
	if c.Propagation.MaxDepth <= 0 {
		return fmt.Errorf("propagation.max_depth must be > 0, got %d", c.Propagation.MaxDepth)
	}
	if u := c.Scoring.UnverifiedEvidenceScore; u < 0 || u > 1 || math.IsNaN(u) {
		return fmt.Errorf("scoring.unverified_evidence_score must be in [0,1], got %v", u)
	}
	if d := c.Scoring.DebunkedThreshold; d < 0 || d > 1 || math.IsNaN(d) {
		return fmt.Errorf("scoring.debunked_threshold must be in [0,1], got %v", d)
	}
	if c.RateLimiting.MutationsPerSecond < 0 {
		return fmt.Errorf("rate_limiting.mutations_per_second must be >= 0, got %v", c.RateLimiting.MutationsPerSecond)
	}
	return nil
}
