package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateThrottle()...)
	errors = append(errors, c.validateLogging()...)

	if c.HopCount < 0 {
		errors = append(errors, ValidationError{
			Field:   "hop_count",
			Message: "hop_count cannot be negative",
		})
	}
	if c.Timeout <= 0 {
		errors = append(errors, ValidationError{
			Field:   "timeout",
			Message: "timeout must be positive",
		})
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateThrottle() ValidationErrors {
	var errors ValidationErrors
	t := &c.Throttle

	if t.PersonBatchSize <= 0 {
		errors = append(errors, ValidationError{
			Field:   "throttle.person_batch_size",
			Message: "person_batch_size must be positive",
		})
	}
	if t.MaxConcurrentPersonRequests <= 0 {
		errors = append(errors, ValidationError{
			Field:   "throttle.max_concurrent_person_requests",
			Message: "max_concurrent_person_requests must be positive",
		})
	}
	if t.MaxConcurrentRelationshipReqs <= 0 {
		errors = append(errors, ValidationError{
			Field:   "throttle.max_concurrent_relationship_requests",
			Message: "max_concurrent_relationship_requests must be positive",
		})
	}
	if t.DelayBetweenPersonBatches < 0 {
		errors = append(errors, ValidationError{
			Field:   "throttle.delay_between_person_batches",
			Message: "delay_between_person_batches cannot be negative",
		})
	}
	if t.DelayBetweenRelationshipBatches < 0 {
		errors = append(errors, ValidationError{
			Field:   "throttle.delay_between_relationship_batches",
			Message: "delay_between_relationship_batches cannot be negative",
		})
	}
	if t.RequestsPerSecond < 0 {
		errors = append(errors, ValidationError{
			Field:   "throttle.requests_per_second",
			Message: "requests_per_second cannot be negative",
		})
	}
	if t.MaxRetries < 0 {
		errors = append(errors, ValidationError{
			Field:   "throttle.max_retries",
			Message: "max_retries cannot be negative",
		})
	}
	if t.BackoffBaseSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "throttle.backoff_base_seconds",
			Message: "backoff_base_seconds must be positive",
		})
	}
	if t.BackoffMultiplier <= 1 {
		errors = append(errors, ValidationError{
			Field:   "throttle.backoff_multiplier",
			Message: "backoff_multiplier must be greater than 1",
		})
	}
	if t.BackoffMaxSeconds < t.BackoffBaseSeconds {
		errors = append(errors, ValidationError{
			Field:   "throttle.backoff_max_seconds",
			Message: "backoff_max_seconds cannot be less than backoff_base_seconds",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
