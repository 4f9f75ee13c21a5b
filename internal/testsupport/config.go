package testsupport

import (
	"path/filepath"
	"testing"

	"mbtagger/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Cache.Path = filepath.Join(base, "cache", "releases.db")
	cfgVal.MusicBrainz.Contact = "tests@example.com"
	cfgVal.MusicBrainz.RequestIntervalMS = 0
	cfgVal.Logging.File = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithMusicBrainzURL points the catalog and cover art endpoints at a test server.
func WithMusicBrainzURL(serverURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.MusicBrainz.BaseURL = serverURL + "/ws/2"
		b.cfg.MusicBrainz.CoverArtURL = serverURL + "/caa"
	}
}

// WithCacheDisabled turns the release cache off.
func WithCacheDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Cache.Enabled = false
	}
}

// WithStrictGate makes --yes abort on unresolved files.
func WithStrictGate() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Gate.RequireResolution = true
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.CacheDir)
}
