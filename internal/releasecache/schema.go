package releasecache

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stored in PRAGMA user_version. Bump it whenever the
// releases table or the payload encoding changes.
const schemaVersion = 1

// ErrSchemaMismatch means the file was written by a newer mbtagger.
var ErrSchemaMismatch = errors.New("cache schema is newer than this build")

// initSchema creates the tables on first use. A cache written by an older
// build is dropped and rebuilt, since every row can be fetched again.
func (s *Store) initSchema(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	switch {
	case version == schemaVersion:
		return nil
	case version > schemaVersion:
		return fmt.Errorf("%w: database has version %d, this build understands %d (delete %s to rebuild it)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	statements := []string{
		"DROP INDEX IF EXISTS idx_releases_fetched_at",
		"DROP TABLE IF EXISTS releases",
		schemaSQL,
		fmt.Sprintf("PRAGMA user_version = %d", schemaVersion),
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("rebuild schema from version %d: %w", version, err)
		}
	}
	return tx.Commit()
}
