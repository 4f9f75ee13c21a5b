package testsupport

import (
	"testing"

	"mbtagger/internal/config"
	"mbtagger/internal/releasecache"
)

// MustOpenCache opens the release cache for tests and registers cleanup.
func MustOpenCache(t testing.TB, cfg *config.Config) *releasecache.Store {
	t.Helper()

	store, err := releasecache.Open(cfg)
	if err != nil {
		t.Fatalf("releasecache.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
