package releasecache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mbtagger/internal/config"
	"mbtagger/internal/musicbrainz"
)

// Entry summarizes one cached release.
type Entry struct {
	ReleaseID  string
	Title      string
	Artist     string
	TrackCount int
	FetchedAt  time.Time
}

// Expired reports whether the entry is older than ttl. A zero ttl never expires.
func (e Entry) Expired(ttl time.Duration, now time.Time) bool {
	return ttl > 0 && now.Sub(e.FetchedAt) > ttl
}

// Store persists releases in SQLite.
type Store struct {
	db   *sql.DB
	path string
	ttl  time.Duration
	now  func() time.Time
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	// Fixed width so fetched_at sorts lexically.
	fetchedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Open connects to the cache database named by the configuration.
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	return OpenPath(cfg.Cache.Path, time.Duration(cfg.Cache.TTLHours)*time.Hour)
}

// OpenPath opens or creates a cache database at path.
func OpenPath(path string, ttl time.Duration) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("cache path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, ttl: ttl, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Lookup returns a cached, unexpired release.
func (s *Store) Lookup(ctx context.Context, mbid string) (*musicbrainz.Release, bool, error) {
	var (
		payload   string
		fetchedAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT payload, fetched_at FROM releases WHERE release_id = ?",
		strings.ToLower(strings.TrimSpace(mbid)),
	).Scan(&payload, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query release: %w", err)
	}
	fetched, err := time.Parse(fetchedAtLayout, fetchedAt)
	if err != nil {
		return nil, false, fmt.Errorf("parse fetched_at: %w", err)
	}
	if (Entry{FetchedAt: fetched}).Expired(s.ttl, s.now()) {
		return nil, false, nil
	}
	var release musicbrainz.Release
	if err := json.Unmarshal([]byte(payload), &release); err != nil {
		return nil, false, fmt.Errorf("decode cached release: %w", err)
	}
	return &release, true, nil
}

// Store inserts or replaces a release.
func (s *Store) Store(ctx context.Context, release *musicbrainz.Release) error {
	if release == nil || strings.TrimSpace(release.ID) == "" {
		return errors.New("release id cannot be empty")
	}
	payload, err := json.Marshal(release)
	if err != nil {
		return fmt.Errorf("encode release: %w", err)
	}
	return s.execWithoutResultRetry(ctx,
		`INSERT INTO releases (release_id, title, artist, track_count, payload, fetched_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(release_id) DO UPDATE SET
            title = excluded.title,
            artist = excluded.artist,
            track_count = excluded.track_count,
            payload = excluded.payload,
            fetched_at = excluded.fetched_at`,
		strings.ToLower(release.ID),
		release.Title,
		release.ArtistName(),
		release.TrackCount(),
		string(payload),
		s.now().UTC().Format(fetchedAtLayout),
	)
}

// List returns all entries, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT release_id, title, artist, track_count, fetched_at FROM releases ORDER BY fetched_at DESC, release_id")
	if err != nil {
		return nil, fmt.Errorf("list releases: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry     Entry
			fetchedAt string
		)
		if err := rows.Scan(&entry.ReleaseID, &entry.Title, &entry.Artist, &entry.TrackCount, &fetchedAt); err != nil {
			return nil, fmt.Errorf("scan release: %w", err)
		}
		if entry.FetchedAt, err = time.Parse(fetchedAtLayout, fetchedAt); err != nil {
			return nil, fmt.Errorf("parse fetched_at: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Clear removes every entry and reports how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, "DELETE FROM releases")
	if err != nil {
		return 0, fmt.Errorf("clear releases: %w", err)
	}
	return res.RowsAffected()
}

// Prune removes expired entries.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl).UTC().Format(fetchedAtLayout)
	res, err := s.execWithRetry(ctx, "DELETE FROM releases WHERE fetched_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune releases: %w", err)
	}
	return res.RowsAffected()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) execWithoutResultRetry(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}
