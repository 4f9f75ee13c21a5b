package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"mbtagger/internal/reconcile"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	CacheDir string `toml:"cache_dir"`
	LogDir   string `toml:"log_dir"`
	EnvFile  string `toml:"env_file"`
}

// MusicBrainz contains configuration for the MusicBrainz web service and the
// Cover Art Archive.
type MusicBrainz struct {
	BaseURL           string `toml:"base_url"`
	CoverArtURL       string `toml:"cover_art_url"`
	UserAgent         string `toml:"user_agent"`
	Contact           string `toml:"contact"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	RequestIntervalMS int    `toml:"request_interval_ms"`
}

// Cache contains configuration for the release lookup cache.
type Cache struct {
	Enabled  bool   `toml:"enabled"`
	Path     string `toml:"path"`
	TTLHours int    `toml:"ttl_hours"`
}

// Matching contains the scoring constants handed to the reconciler.
type Matching struct {
	TitleWeight              float64 `toml:"title_weight"`
	TrackNumberWeight        float64 `toml:"track_number_weight"`
	DurationWeight           float64 `toml:"duration_weight"`
	MinAcceptScore           float64 `toml:"min_accept_score"`
	DurationToleranceSeconds float64 `toml:"duration_tolerance_seconds"`
	DurationCutoffSeconds    float64 `toml:"duration_cutoff_seconds"`
	QualifierMismatchFactor  float64 `toml:"qualifier_mismatch_factor"`
	QualifierConflictFactor  float64 `toml:"qualifier_conflict_factor"`
	Solver                   string  `toml:"solver"`
	MaxExactSize             int     `toml:"max_exact_size"`
	Workers                  int     `toml:"workers"`
}

// Scan contains directory scanning limits.
type Scan struct {
	MaxDepth       int `toml:"max_depth"`
	ManualMaxDepth int `toml:"manual_max_depth"`
}

// Tagging contains tag writer settings.
type Tagging struct {
	CoverArt         bool `toml:"cover_art"`
	MusicBrainzIDs   bool `toml:"musicbrainz_ids"`
	MaxCoverArtBytes int  `toml:"max_cover_art_bytes"`
}

// Gate contains confirmation behaviour.
type Gate struct {
	// RequireResolution makes --yes abort instead of skipping unresolved files.
	RequireResolution bool `toml:"require_resolution"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	File       bool   `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// Config encapsulates all configuration values for mbtagger.
//
// Configuration sections by subsystem:
//   - Paths: cache, log, and env file locations
//   - MusicBrainz: catalog and cover art endpoints plus request pacing
//   - Cache: release lookup cache
//   - Matching: reconciler weights and thresholds
//   - Scan: album directory traversal depth
//   - Tagging: frames written to each file
//   - Gate: confirmation policy
//   - Logging: log format, level, and rotation
type Config struct {
	Paths       Paths       `toml:"paths"`
	MusicBrainz MusicBrainz `toml:"musicbrainz"`
	Cache       Cache       `toml:"cache"`
	Matching    Matching    `toml:"matching"`
	Scan        Scan        `toml:"scan"`
	Tagging     Tagging     `toml:"tagging"`
	Gate        Gate        `toml:"gate"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.loadEnvFile(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadEnvFile reads KEY=VALUE pairs into the process environment. Variables
// that are already set win over the file.
func (c *Config) loadEnvFile() error {
	path, err := expandPath(strings.TrimSpace(c.Paths.EnvFile))
	if err != nil {
		return fmt.Errorf("paths.env_file: %w", err)
	}
	c.Paths.EnvFile = path
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mbtagger.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the cache and log directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.CacheDir}
	if c.Logging.File {
		dirs = append(dirs, c.Paths.LogDir)
	}
	if c.Cache.Enabled {
		dirs = append(dirs, filepath.Dir(c.Cache.Path))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LogFilePath returns the rotated log file location, or "" when file logging is off.
func (c *Config) LogFilePath() string {
	if !c.Logging.File || strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "mbtagger.log")
}

// UserAgent returns the User-Agent header value MusicBrainz asks clients to
// send: application/version followed by a contact address.
func (c *Config) UserAgent() string {
	ua := strings.TrimSpace(c.MusicBrainz.UserAgent)
	if contact := strings.TrimSpace(c.MusicBrainz.Contact); contact != "" {
		ua += " ( " + contact + " )"
	}
	return ua
}

// MatchingPolicy converts the matching section into the reconciler's
// immutable policy value.
func (c *Config) MatchingPolicy() reconcile.Policy {
	m := c.Matching
	return reconcile.Policy{
		TitleWeight:             m.TitleWeight,
		TrackNumberWeight:       m.TrackNumberWeight,
		DurationWeight:          m.DurationWeight,
		MinAcceptScore:          m.MinAcceptScore,
		DurationTolerance:       m.DurationToleranceSeconds,
		DurationCutoff:          m.DurationCutoffSeconds,
		QualifierMismatchFactor: m.QualifierMismatchFactor,
		QualifierConflictFactor: m.QualifierConflictFactor,
		Solver:                  reconcile.Solver(m.Solver),
		MaxExactSize:            m.MaxExactSize,
		Workers:                 m.Workers,
	}
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "mbtagger")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/mbtagger"
	}
	return filepath.Join(home, ".cache", "mbtagger")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
