package config

import (
	"runtime"

	"mbtagger/internal/reconcile"
)

const (
	defaultConfigPath         = "~/.config/mbtagger/config.toml"
	defaultEnvFile            = "~/.config/mbtagger/mbtagger.env"
	defaultLogDir             = "~/.local/share/mbtagger/logs"
	defaultMusicBrainzBaseURL = "https://musicbrainz.org/ws/2"
	defaultCoverArtURL        = "https://coverartarchive.org"
	defaultUserAgent          = "mbtagger/0.3"
	defaultMusicBrainzTimeout = 30
	defaultRequestIntervalMS  = 1000
	defaultCacheTTLHours      = 24 * 7
	defaultScanMaxDepth       = 3
	defaultScanManualMaxDepth = 1
	defaultMaxCoverArtBytes   = 10 << 20
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogMaxSizeMB       = 10
	defaultLogMaxBackups      = 5
	defaultLogMaxAgeDays      = 30
	cacheFileName             = "releases.db"
)

// Environment overrides applied after the config file and env file load.
const (
	envContact            = "MBTAGGER_CONTACT"
	envLogLevel           = "MBTAGGER_LOG_LEVEL"
	envCacheDir           = "MBTAGGER_CACHE_DIR"
	envMusicBrainzBaseURL = "MBTAGGER_MUSICBRAINZ_URL"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	policy := reconcile.DefaultPolicy()
	return Config{
		Paths: Paths{
			CacheDir: defaultCacheDir(),
			LogDir:   defaultLogDir,
			EnvFile:  defaultEnvFile,
		},
		MusicBrainz: MusicBrainz{
			BaseURL:           defaultMusicBrainzBaseURL,
			CoverArtURL:       defaultCoverArtURL,
			UserAgent:         defaultUserAgent,
			TimeoutSeconds:    defaultMusicBrainzTimeout,
			RequestIntervalMS: defaultRequestIntervalMS,
		},
		Cache: Cache{
			Enabled:  true,
			TTLHours: defaultCacheTTLHours,
		},
		Matching: Matching{
			TitleWeight:              policy.TitleWeight,
			TrackNumberWeight:        policy.TrackNumberWeight,
			DurationWeight:           policy.DurationWeight,
			MinAcceptScore:           policy.MinAcceptScore,
			DurationToleranceSeconds: policy.DurationTolerance,
			DurationCutoffSeconds:    policy.DurationCutoff,
			QualifierMismatchFactor:  policy.QualifierMismatchFactor,
			QualifierConflictFactor:  policy.QualifierConflictFactor,
			Solver:                   string(reconcile.SolverAuto),
			MaxExactSize:             policy.MaxExactSize,
			Workers:                  runtime.GOMAXPROCS(0),
		},
		Scan: Scan{
			MaxDepth:       defaultScanMaxDepth,
			ManualMaxDepth: defaultScanManualMaxDepth,
		},
		Tagging: Tagging{
			CoverArt:         true,
			MusicBrainzIDs:   true,
			MaxCoverArtBytes: defaultMaxCoverArtBytes,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			File:       true,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
			MaxAgeDays: defaultLogMaxAgeDays,
		},
	}
}
