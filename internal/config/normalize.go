package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMusicBrainz()
	if err := c.normalizeCache(); err != nil {
		return err
	}
	c.normalizeMatching()
	c.normalizeScan()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv(envCacheDir); ok && strings.TrimSpace(value) != "" {
		c.Paths.CacheDir = value
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir()
	}
	var err error
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeMusicBrainz() {
	if value, ok := os.LookupEnv(envContact); ok && strings.TrimSpace(value) != "" {
		c.MusicBrainz.Contact = value
	}
	if value, ok := os.LookupEnv(envMusicBrainzBaseURL); ok && strings.TrimSpace(value) != "" {
		c.MusicBrainz.BaseURL = value
	}
	c.MusicBrainz.BaseURL = strings.TrimRight(strings.TrimSpace(c.MusicBrainz.BaseURL), "/")
	if c.MusicBrainz.BaseURL == "" {
		c.MusicBrainz.BaseURL = defaultMusicBrainzBaseURL
	}
	c.MusicBrainz.CoverArtURL = strings.TrimRight(strings.TrimSpace(c.MusicBrainz.CoverArtURL), "/")
	if c.MusicBrainz.CoverArtURL == "" {
		c.MusicBrainz.CoverArtURL = defaultCoverArtURL
	}
	c.MusicBrainz.UserAgent = strings.TrimSpace(c.MusicBrainz.UserAgent)
	if c.MusicBrainz.UserAgent == "" {
		c.MusicBrainz.UserAgent = defaultUserAgent
	}
	c.MusicBrainz.Contact = strings.TrimSpace(c.MusicBrainz.Contact)
	if c.MusicBrainz.TimeoutSeconds == 0 {
		c.MusicBrainz.TimeoutSeconds = defaultMusicBrainzTimeout
	}
}

func (c *Config) normalizeCache() error {
	if strings.TrimSpace(c.Cache.Path) == "" {
		c.Cache.Path = filepath.Join(c.Paths.CacheDir, cacheFileName)
	}
	var err error
	if c.Cache.Path, err = expandPath(c.Cache.Path); err != nil {
		return fmt.Errorf("cache.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeMatching() {
	c.Matching.Solver = strings.ToLower(strings.TrimSpace(c.Matching.Solver))
	if c.Matching.Solver == "" {
		c.Matching.Solver = "auto"
	}
	if c.Matching.Workers <= 0 {
		c.Matching.Workers = runtime.GOMAXPROCS(0)
	}
}

func (c *Config) normalizeScan() {
	if c.Scan.MaxDepth == 0 {
		c.Scan.MaxDepth = defaultScanMaxDepth
	}
	if c.Scan.ManualMaxDepth == 0 {
		c.Scan.ManualMaxDepth = defaultScanManualMaxDepth
	}
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv(envLogLevel); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
