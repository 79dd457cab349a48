package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateOllama(); err != nil {
		return err
	}
	if err := c.validateSorting(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateOllama() error {
	if c.Ollama.TimeoutSeconds < 1 {
		return errors.New("ollama.timeout_seconds must be at least 1")
	}
	if c.Ollama.TaxonomyTimeoutSeconds < 1 {
		return errors.New("ollama.taxonomy_timeout_seconds must be at least 1")
	}
	return nil
}

func (c *Config) validateSorting() error {
	switch c.Sorting.DedupeMode {
	case "none", "exact", "name-size":
	default:
		return fmt.Errorf("sorting.dedupe_mode must be one of none, exact, name-size (got %q)", c.Sorting.DedupeMode)
	}
	if c.Sorting.MaxDepth < 1 {
		return errors.New("sorting.max_depth must be at least 1")
	}
	if c.Sorting.Workers < 0 {
		return errors.New("sorting.workers must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
	return nil
}
