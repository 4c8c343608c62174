package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateIndexers(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateIndexers() error {
	if c.Indexers.MinimumAge < 0 {
		return errors.New("indexers.minimum_age must be >= 0 (minutes)")
	}
	interval := c.Indexers.RSSSyncInterval
	if interval == 0 {
		return nil
	}
	if interval < minRSSSyncInterval || interval > maxRSSSyncInterval {
		return fmt.Errorf("indexers.rss_sync_interval must be 0 (disabled) or between %d and %d minutes", minRSSSyncInterval, maxRSSSyncInterval)
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
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}
