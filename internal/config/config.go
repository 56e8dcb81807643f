// Package config provides configuration structures and loading for the
// crawl engine, following the teacher's layered-override pattern
// (defaults -> optional YAML file -> CLI flags).
package config

import "time"

// ThrottleConfig centralizes every tunable governing load placed on the
// remote service — spec.md §9 design note: "centralize in a single
// Throttle configuration record; every tunable is named."
type ThrottleConfig struct {
	PersonBatchSize                 int     `yaml:"person_batch_size" mapstructure:"person_batch_size"`
	MaxConcurrentPersonRequests     int     `yaml:"max_concurrent_person_requests" mapstructure:"max_concurrent_person_requests"`
	MaxConcurrentRelationshipReqs   int     `yaml:"max_concurrent_relationship_requests" mapstructure:"max_concurrent_relationship_requests"`
	DelayBetweenPersonBatches       float64 `yaml:"delay_between_person_batches" mapstructure:"delay_between_person_batches"`
	DelayBetweenRelationshipBatches float64 `yaml:"delay_between_relationship_batches" mapstructure:"delay_between_relationship_batches"`
	RequestsPerSecond               float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	MaxRetries                      int     `yaml:"max_retries" mapstructure:"max_retries"`
	BackoffBaseSeconds              float64 `yaml:"backoff_base_seconds" mapstructure:"backoff_base_seconds"`
	BackoffMultiplier               float64 `yaml:"backoff_multiplier" mapstructure:"backoff_multiplier"`
	BackoffMaxSeconds               float64 `yaml:"backoff_max_seconds" mapstructure:"backoff_max_seconds"`
}

// PartialWriteThreshold: if the number of completed rows since the last
// checkpoint exceeds this, the engine checkpoints instead of sleeping
// (spec.md §4.5 step 4).
const PartialWriteThreshold = 20

// DefaultThrottle mirrors original_source/controller/fsapi.py's
// ThrottleConfig defaults.
func DefaultThrottle() ThrottleConfig {
	return ThrottleConfig{
		PersonBatchSize:                 200,
		MaxConcurrentPersonRequests:     40,
		MaxConcurrentRelationshipReqs:   200,
		DelayBetweenPersonBatches:       2.0,
		DelayBetweenRelationshipBatches: 2.0,
		RequestsPerSecond:               6.0,
		MaxRetries:                      5,
		BackoffBaseSeconds:              1.0,
		BackoffMultiplier:               2.0,
		BackoffMaxSeconds:               60.0,
	}
}

// ResolutionConfig governs the resolution heuristic of spec.md §4.6.
type ResolutionConfig struct {
	// Strict widens resolution: a lone color group is still marked
	// Resolve (instead of AssumedBiological) whenever the child has any
	// other outbound edge, not just when total >= 3. Grounded on
	// original_source/crawler.py's -s/--strictresolve flag.
	Strict bool `yaml:"strict" mapstructure:"strict"`
}

// Config is the complete application configuration.
type Config struct {
	Throttle   ThrottleConfig   `yaml:"throttle" mapstructure:"throttle"`
	Resolution ResolutionConfig `yaml:"resolution" mapstructure:"resolution"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
	Timeout    time.Duration    `yaml:"-" mapstructure:"-"`
	HopCount   int              `yaml:"-" mapstructure:"-"`
	OutDir     string           `yaml:"-" mapstructure:"-"`
	Basename   string           `yaml:"-" mapstructure:"-"`
	PauseFile  string           `yaml:"-" mapstructure:"-"`
	GenSQL     bool             `yaml:"-" mapstructure:"-"`
}

// LoggingConfig mirrors the teacher's logging config (level/format/output).
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	Output string `yaml:"output" mapstructure:"output"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Throttle:   DefaultThrottle(),
		Resolution: ResolutionConfig{},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Timeout:  60 * time.Second,
		HopCount: 4,
	}
}

// Overrides holds CLI flag values that override config-file/default
// settings. Only non-zero values are applied, matching
// Config.ApplyOverrides in the teacher.
type Overrides struct {
	RequestsPerSecond               float64
	PersonBatchSize                  int
	MaxConcurrentPersonRequests      int
	MaxConcurrentRelationshipReqs    int
	DelayBetweenPersonBatches        float64
	DelayBetweenRelationshipBatches  float64
	MaxRetries                       int
	BackoffBaseSeconds               float64
	BackoffMultiplier                float64
	BackoffMaxSeconds                float64
	LogLevel                         string
	LogFormat                        string
}

// ApplyOverrides applies CLI flag overrides on top of the loaded
// configuration. Only non-zero/non-empty values are applied.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.RequestsPerSecond > 0 {
		c.Throttle.RequestsPerSecond = o.RequestsPerSecond
	}
	if o.PersonBatchSize > 0 {
		c.Throttle.PersonBatchSize = o.PersonBatchSize
	}
	if o.MaxConcurrentPersonRequests > 0 {
		c.Throttle.MaxConcurrentPersonRequests = o.MaxConcurrentPersonRequests
	}
	if o.MaxConcurrentRelationshipReqs > 0 {
		c.Throttle.MaxConcurrentRelationshipReqs = o.MaxConcurrentRelationshipReqs
	}
	if o.DelayBetweenPersonBatches > 0 {
		c.Throttle.DelayBetweenPersonBatches = o.DelayBetweenPersonBatches
	}
	if o.DelayBetweenRelationshipBatches > 0 {
		c.Throttle.DelayBetweenRelationshipBatches = o.DelayBetweenRelationshipBatches
	}
	if o.MaxRetries > 0 {
		c.Throttle.MaxRetries = o.MaxRetries
	}
	if o.BackoffBaseSeconds > 0 {
		c.Throttle.BackoffBaseSeconds = o.BackoffBaseSeconds
	}
	if o.BackoffMultiplier > 0 {
		c.Throttle.BackoffMultiplier = o.BackoffMultiplier
	}
	if o.BackoffMaxSeconds > 0 {
		c.Throttle.BackoffMaxSeconds = o.BackoffMaxSeconds
	}
	if o.LogLevel != "" {
		c.Logging.Level = o.LogLevel
	}
	if o.LogFormat != "" {
		c.Logging.Format = o.LogFormat
	}
}
