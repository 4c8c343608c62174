package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeIndexers(); err != nil {
		return err
	}
	c.normalizeFormats()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		if value, ok := os.LookupEnv("CRATE_DATA_DIR"); ok && strings.TrimSpace(value) != "" {
			c.Paths.DataDir = value
		} else {
			c.Paths.DataDir = defaultDataDir
		}
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	var err error
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeIndexers() error {
	if value, ok := os.LookupEnv("CRATE_MINIMUM_AGE"); ok && strings.TrimSpace(value) != "" {
		minutes, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("CRATE_MINIMUM_AGE: %w", err)
		}
		c.Indexers.MinimumAge = minutes
	}
	return nil
}

func (c *Config) normalizeFormats() {
	if len(c.Formats.PreferredTerms) == 0 {
		c.Formats.PreferredTerms = map[string]int{}
		return
	}
	terms := make(map[string]int, len(c.Formats.PreferredTerms))
	for term, score := range c.Formats.PreferredTerms {
		trimmed := strings.TrimSpace(term)
		if trimmed == "" {
			continue
		}
		terms[trimmed] = score
	}
	c.Formats.PreferredTerms = terms
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("CRATE_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
