package main

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"mbtagger/internal/config"
	"mbtagger/internal/logging"
	"mbtagger/internal/musicbrainz"
	"mbtagger/internal/releasecache"
	"mbtagger/internal/services"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "", "load config", "", err)
			return
		}
		if c.logLevelFlag != nil {
			if level := strings.TrimSpace(*c.logLevelFlag); level != "" {
				cfg.Logging.Level = level
			}
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "", "ensure directories", "", err)
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.loggerErr = services.Wrap(services.ErrConfiguration, "", "create logger", "", err)
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// catalog returns the MusicBrainz client, fronted by the release cache when
// it is enabled. The returned closer is always safe to call.
func (c *commandContext) catalog(cfg *config.Config, logger *slog.Logger, useCache bool) (musicbrainz.Fetcher, func(), error) {
	client, err := musicbrainz.New(cfg.MusicBrainz.BaseURL, cfg.MusicBrainz.CoverArtURL, cfg.UserAgent(),
		musicbrainz.WithRequestInterval(time.Duration(cfg.MusicBrainz.RequestIntervalMS)*time.Millisecond),
		musicbrainz.WithTimeout(time.Duration(cfg.MusicBrainz.TimeoutSeconds)*time.Second),
		musicbrainz.WithMaxImageBytes(int64(cfg.Tagging.MaxCoverArtBytes)),
	)
	if err != nil {
		return nil, func() {}, services.Wrap(services.ErrConfiguration, "", "musicbrainz client", "", err)
	}
	if !useCache || !cfg.Cache.Enabled {
		return client, func() {}, nil
	}
	store, err := releasecache.Open(cfg)
	if err != nil {
		logging.WarnWithContext(logger, "release cache unavailable", "cache_open_failed",
			logging.Error(err),
			logging.Path(cfg.Cache.Path),
			logging.String(logging.FieldErrorHint, "run mbtagger cache clear or delete the cache file"),
			logging.String(logging.FieldImpact, "every lookup goes to MusicBrainz"))
		return client, func() {}, nil
	}
	return releasecache.NewSource(client, store, logger), func() { _ = store.Close() }, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
