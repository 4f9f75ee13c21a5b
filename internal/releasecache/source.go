package releasecache

import (
	"context"
	"log/slog"

	"mbtagger/internal/logging"
	"mbtagger/internal/musicbrainz"
)

// Source answers release lookups from the cache when it can and from the
// fetcher otherwise. A nil store disables caching.
type Source struct {
	fetcher musicbrainz.Fetcher
	store   *Store
	logger  *slog.Logger
}

var _ musicbrainz.Fetcher = (*Source)(nil)

// NewSource wraps fetcher with store.
func NewSource(fetcher musicbrainz.Fetcher, store *Store, logger *slog.Logger) *Source {
	return &Source{
		fetcher: fetcher,
		store:   store,
		logger:  logging.NewComponentLogger(logger, "releasecache"),
	}
}

// Release returns the cached release or fetches and caches it.
func (s *Source) Release(ctx context.Context, mbid string) (*musicbrainz.Release, error) {
	id, err := musicbrainz.ValidateID(mbid)
	if err != nil {
		return nil, err
	}
	logger := logging.WithContext(ctx, s.logger)
	if s.store != nil {
		release, ok, err := s.store.Lookup(ctx, id)
		switch {
		case err != nil:
			logger.Warn("release cache lookup failed",
				logging.String(logging.FieldEventType, "release_cache_lookup_failed"),
				logging.String("release_id", id),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run 'mbtagger cache clear' if this persists"),
				logging.String(logging.FieldImpact, "release is fetched from MusicBrainz instead"))
		case ok:
			logger.Debug("release cache hit", logging.String("release_id", id))
			return release, nil
		}
	}

	release, err := s.fetcher.Release(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.store != nil {
		if err := s.store.Store(ctx, release); err != nil {
			logger.Warn("release cache store failed",
				logging.String(logging.FieldEventType, "release_cache_store_failed"),
				logging.String("release_id", id),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check cache.path permissions"),
				logging.String(logging.FieldImpact, "next run fetches the release again"))
		}
	}
	return release, nil
}

// CoverArt is never cached.
func (s *Source) CoverArt(ctx context.Context, mbid string) (*musicbrainz.Image, error) {
	return s.fetcher.CoverArt(ctx, mbid)
}
