package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateProviders(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSearch() error {
	if c.Search.PerFileTimeout > c.Search.BatchTimeout {
		return fmt.Errorf("search.per_file_timeout_seconds (%d) must not exceed search.batch_timeout_seconds (%d)",
			c.Search.PerFileTimeout, c.Search.BatchTimeout)
	}
	if c.Search.WorkerCount < 0 {
		return errors.New("search.worker_count must be zero (auto) or positive")
	}
	if len(c.Search.Languages) == 0 {
		return errors.New("search.languages must contain at least one recognized language code")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateProviders() error {
	for name, settings := range c.Providers {
		if settings.DelayMS < 0 {
			return fmt.Errorf("providers.%s.delay_ms must not be negative", name)
		}
	}
	return nil
}
