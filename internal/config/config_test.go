package config

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Throttle.PersonBatchSize != 200 {
		t.Errorf("expected person_batch_size 200, got %d", cfg.Throttle.PersonBatchSize)
	}
	if cfg.Throttle.MaxConcurrentPersonRequests != 40 {
		t.Errorf("expected max_concurrent_person_requests 40, got %d", cfg.Throttle.MaxConcurrentPersonRequests)
	}
	if cfg.Throttle.MaxConcurrentRelationshipReqs != 200 {
		t.Errorf("expected max_concurrent_relationship_requests 200, got %d", cfg.Throttle.MaxConcurrentRelationshipReqs)
	}
	if cfg.Throttle.RequestsPerSecond != 6.0 {
		t.Errorf("expected requests_per_second 6.0, got %v", cfg.Throttle.RequestsPerSecond)
	}
	if cfg.Throttle.MaxRetries != 5 {
		t.Errorf("expected max_retries 5, got %d", cfg.Throttle.MaxRetries)
	}
	if cfg.Throttle.BackoffMaxSeconds != 60.0 {
		t.Errorf("expected backoff_max_seconds 60.0, got %v", cfg.Throttle.BackoffMaxSeconds)
	}
	if cfg.Resolution.Strict {
		t.Error("expected strict resolution disabled by default")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected logging level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("expected logging format 'text', got %s", cfg.Logging.Format)
	}
	if cfg.HopCount != 4 {
		t.Errorf("expected hop_count 4, got %d", cfg.HopCount)
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyOverrides(Overrides{
		RequestsPerSecond: 10,
		PersonBatchSize:   50,
		LogLevel:          "debug",
	})

	if cfg.Throttle.RequestsPerSecond != 10 {
		t.Errorf("expected requests_per_second override to apply, got %v", cfg.Throttle.RequestsPerSecond)
	}
	if cfg.Throttle.PersonBatchSize != 50 {
		t.Errorf("expected person_batch_size override to apply, got %d", cfg.Throttle.PersonBatchSize)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level override to apply, got %s", cfg.Logging.Level)
	}
	// Untouched fields keep their defaults.
	if cfg.Throttle.MaxRetries != 5 {
		t.Errorf("expected max_retries to remain at default 5, got %d", cfg.Throttle.MaxRetries)
	}
}

func TestApplyOverridesZeroValuesIgnored(t *testing.T) {
	cfg := DefaultConfig()
	original := cfg.Throttle.PersonBatchSize
	cfg.ApplyOverrides(Overrides{})

	if cfg.Throttle.PersonBatchSize != original {
		t.Errorf("expected zero-valued override to be ignored, got %d", cfg.Throttle.PersonBatchSize)
	}
}
