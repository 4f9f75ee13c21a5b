package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateMusicBrainz(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	if c.Tagging.MaxCoverArtBytes <= 0 {
		return errors.New("tagging.max_cover_art_bytes must be positive")
	}
	return c.validateLogging()
}

func (c *Config) validateMusicBrainz() error {
	if err := validateHTTPURL("musicbrainz.base_url", c.MusicBrainz.BaseURL); err != nil {
		return err
	}
	if err := validateHTTPURL("musicbrainz.cover_art_url", c.MusicBrainz.CoverArtURL); err != nil {
		return err
	}
	if c.MusicBrainz.TimeoutSeconds < 0 {
		return errors.New("musicbrainz.timeout_seconds must not be negative")
	}
	if c.MusicBrainz.RequestIntervalMS < 0 {
		return errors.New("musicbrainz.request_interval_ms must not be negative")
	}
	return nil
}

func validateHTTPURL(field, value string) error {
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http or https URL, got %q", field, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s is missing a host", field)
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.TTLHours < 0 {
		return errors.New("cache.ttl_hours must not be negative")
	}
	return nil
}

func (c *Config) validateMatching() error {
	if err := c.MatchingPolicy().Validate(); err != nil {
		return fmt.Errorf("matching: %w", err)
	}
	if c.Matching.MaxExactSize <= 0 {
		return errors.New("matching.max_exact_size must be positive")
	}
	return nil
}

func (c *Config) validateScan() error {
	if c.Scan.MaxDepth < 1 {
		return errors.New("scan.max_depth must be at least 1")
	}
	if c.Scan.ManualMaxDepth < 1 {
		return errors.New("scan.manual_max_depth must be at least 1")
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
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	if c.Logging.MaxSizeMB < 0 || c.Logging.MaxBackups < 0 || c.Logging.MaxAgeDays < 0 {
		return errors.New("logging rotation limits must not be negative")
	}
	return nil
}
