package config

import (
	"errors"
	"fmt"
	"time"
)

// Validation range constants.
const (
	minMaxAttempts    = 1
	maxMaxAttempts    = 10
	minConnectTimeout = 1 * time.Second
	minDataTimeout    = 5 * time.Second
	minBaseBackoff    = 100 * time.Millisecond
	maxBaseBackoff    = 30 * time.Second
)

// validLogLevels are the accepted log_level values.
var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// validLogFormats are the accepted log_format values. "auto" picks text
// on a terminal and JSON otherwise.
var validLogFormats = map[string]bool{
	"auto": true, "text": true, "json": true,
}

// Validate checks all configuration values and returns all errors found.
// It accumulates every error rather than stopping at the first, so users
// see a complete report and can fix all issues in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateNetwork(&cfg.Network)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)

	return errors.Join(errs...)
}

func validateNetwork(n *NetworkConfig) []error {
	var errs []error

	if n.MaxAttempts < minMaxAttempts || n.MaxAttempts > maxMaxAttempts {
		errs = append(errs, fmt.Errorf("max_attempts: must be between %d and %d, got %d",
			minMaxAttempts, maxMaxAttempts, n.MaxAttempts))
	}

	if err := validateDuration("connect_timeout", n.ConnectTimeout, minConnectTimeout, 0); err != nil {
		errs = append(errs, err)
	}

	if err := validateDuration("data_timeout", n.DataTimeout, minDataTimeout, 0); err != nil {
		errs = append(errs, err)
	}

	if err := validateDuration("base_backoff", n.BaseBackoff, minBaseBackoff, maxBaseBackoff); err != nil {
		errs = append(errs, err)
	}

	return errs
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	if !validLogLevels[l.LogLevel] {
		errs = append(errs, fmt.Errorf("log_level: must be one of debug, info, warn, error; got %q", l.LogLevel))
	}

	if !validLogFormats[l.LogFormat] {
		errs = append(errs, fmt.Errorf("log_format: must be one of auto, text, json; got %q", l.LogFormat))
	}

	return errs
}

// validateDuration parses a duration string and checks it against the
// given bounds. A zero max means unbounded.
func validateDuration(name, value string, minimum, maximum time.Duration) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q", name, value)
	}

	if d < minimum {
		return fmt.Errorf("%s: must be at least %s, got %s", name, minimum, d)
	}

	if maximum > 0 && d > maximum {
		return fmt.Errorf("%s: must be at most %s, got %s", name, maximum, d)
	}

	return nil
}
