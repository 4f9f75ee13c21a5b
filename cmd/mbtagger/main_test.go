package main

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"mbtagger/internal/config"
	"mbtagger/internal/library"
	"mbtagger/internal/services"
	"mbtagger/internal/testsupport"
)

const testReleaseID = "8d1f2c3b-5a6e-4c7d-9e8f-0a1b2c3d4e5f"

const testReleaseJSON = `{
  "id": "8d1f2c3b-5a6e-4c7d-9e8f-0a1b2c3d4e5f",
  "title": "Harbor Lights",
  "date": "2004-05-12",
  "status": "Official",
  "country": "GB",
  "artist-credit": [{"name": "The Tides", "joinphrase": "", "artist": {"id": "a1", "name": "The Tides"}}],
  "media": [
    {"position": 1, "title": "", "tracks": [
      {"id": "t1", "position": 1, "number": "1", "title": "Paper Boats", "length": 185000, "recording": {"id": "r1", "title": "Paper Boats"}},
      {"id": "t2", "position": 2, "number": "2", "title": "Glass Houses", "length": 240000, "recording": {"id": "r2", "title": "Glass Houses"}}
    ]}
  ]
}`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	albumDir   string
	requests   *atomic.Int64
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	var requests atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		switch r.URL.Path {
		case "/ws/2/release/" + testReleaseID:
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, testReleaseJSON)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithMusicBrainzURL(server.URL)}, opts...)...)
	cfg.Paths.EnvFile = ""
	base := testsupport.BaseDir(cfg)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	albumDir := filepath.Join(base, "album")
	testsupport.WriteMP3(t, filepath.Join(albumDir, "01 - Paper Boats.mp3"), testsupport.Track{Title: "paper boats", Track: "1"})
	testsupport.WriteMP3(t, filepath.Join(albumDir, "02 - Glass Houses.mp3"), testsupport.Track{})

	return &cliTestEnv{cfg: cfg, configPath: configPath, albumDir: albumDir, requests: &requests}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath, stdin string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	flags := []string{"--log-level", "error"}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func readTitle(t *testing.T, path string) string {
	t.Helper()
	values, _, err := library.ReadTags(path)
	if err != nil {
		t.Fatalf("ReadTags %s: %v", path, err)
	}
	return values.Title
}

func TestTagWithYesWritesFiles(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, []string{"tag", "--path", env.albumDir, "--album-id", testReleaseID, "--yes"}, env.configPath, "")
	if err != nil {
		t.Fatalf("tag --yes: %v\n%s", err, out)
	}
	requireContains(t, out, "Harbor Lights")
	requireContains(t, out, "matched")
	requireContains(t, out, "Wrote 2 of 2 file(s)")

	path := filepath.Join(env.albumDir, "02 - Glass Houses.mp3")
	values, _, err := library.ReadTags(path)
	if err != nil {
		t.Fatalf("ReadTags: %v", err)
	}
	if values.Title != "Glass Houses" || values.Album != "Harbor Lights" || values.TrackNumber != 2 || values.TrackTotal != 2 {
		t.Fatalf("unexpected tags after write: %+v", values)
	}
	if values.ReleaseID != testReleaseID {
		t.Fatalf("release id = %q", values.ReleaseID)
	}
}

func TestTagDryRunLeavesFilesAlone(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, []string{"tag", "--path", env.albumDir, "--album-id", testReleaseID, "--dry-run", "--no-cover-art"}, env.configPath, "")
	if err != nil {
		t.Fatalf("tag --dry-run: %v", err)
	}
	requireContains(t, out, "Dry run: 2 file(s) would be written")
	if got := readTitle(t, filepath.Join(env.albumDir, "01 - Paper Boats.mp3")); got != "paper boats" {
		t.Fatalf("dry run modified title to %q", got)
	}
}

func TestTagInteractiveConfirmation(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, []string{"tag", "--path", env.albumDir, "--album-id", testReleaseID, "--no-cover-art"}, env.configPath, "y\n")
	if err != nil {
		t.Fatalf("tag interactive: %v", err)
	}
	requireContains(t, out, "Write tags to 2 file(s)?")
	if got := readTitle(t, filepath.Join(env.albumDir, "01 - Paper Boats.mp3")); got != "Paper Boats" {
		t.Fatalf("title = %q", got)
	}
}

func TestTagDeclinedConfirmationAborts(t *testing.T) {
	env := setupCLITestEnv(t)

	_, err := runCLI(t, []string{"tag", "--path", env.albumDir, "--album-id", testReleaseID, "--no-cover-art"}, env.configPath, "n\n")
	if !errors.Is(err, services.ErrAborted) {
		t.Fatalf("expected aborted error, got %v", err)
	}
	if code := services.ExitCode(err); code != services.ExitAborted {
		t.Fatalf("exit code = %d", code)
	}
	if got := readTitle(t, filepath.Join(env.albumDir, "01 - Paper Boats.mp3")); got != "paper boats" {
		t.Fatalf("declined run modified title to %q", got)
	}
}

func TestTagManualWithTracklist(t *testing.T) {
	env := setupCLITestEnv(t)
	tracklist := filepath.Join(t.TempDir(), "tracks.txt")
	content := "# title | artist | length\nPaper Boats | The Tides | 3:05\nGlass Houses | Mara | 4:00\n"
	if err := os.WriteFile(tracklist, []byte(content), 0o644); err != nil {
		t.Fatalf("write tracklist: %v", err)
	}

	out, err := runCLI(t, []string{"tag", "--path", env.albumDir, "--manual", "--tracklist", tracklist, "--yes"}, env.configPath, "")
	if err != nil {
		t.Fatalf("tag --manual: %v\n%s", err, out)
	}
	requireContains(t, out, "Mode:    manual")
	values, _, err := library.ReadTags(filepath.Join(env.albumDir, "02 - Glass Houses.mp3"))
	if err != nil {
		t.Fatalf("ReadTags: %v", err)
	}
	if values.Title != "Glass Houses" || values.Artist != "Mara" {
		t.Fatalf("unexpected manual tags: %+v", values)
	}
	if values.Album != "album" {
		t.Fatalf("album default = %q, want directory name", values.Album)
	}
	if env.requests.Load() != 0 {
		t.Fatalf("manual mode contacted MusicBrainz %d times", env.requests.Load())
	}
}

func TestTagUsageErrors(t *testing.T) {
	env := setupCLITestEnv(t)

	cases := []struct {
		name string
		args []string
	}{
		{"missing path", []string{"tag", "--album-id", testReleaseID}},
		{"missing mode", []string{"tag", "--path", env.albumDir}},
		{"both modes", []string{"tag", "--path", env.albumDir, "--album-id", testReleaseID, "--manual"}},
		{"tracklist without manual", []string{"tag", "--path", env.albumDir, "--album-id", testReleaseID, "--tracklist", "x.txt"}},
		{"bad release id", []string{"tag", "--path", env.albumDir, "--album-id", "not-a-uuid"}},
		{"unknown flag", []string{"tag", "--bogus"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runCLI(t, tc.args, env.configPath, "")
			if code := services.ExitCode(err); code != services.ExitUsage {
				t.Fatalf("exit code = %d, err = %v", code, err)
			}
		})
	}
}

func TestTagEmptyDirectoryIsNotFound(t *testing.T) {
	env := setupCLITestEnv(t)

	_, err := runCLI(t, []string{"tag", "--path", t.TempDir(), "--album-id", testReleaseID, "--yes"}, env.configPath, "")
	if code := services.ExitCode(err); code != services.ExitNotFound {
		t.Fatalf("exit code = %d, err = %v", code, err)
	}
}

func TestTagUnknownReleaseIsNotFound(t *testing.T) {
	env := setupCLITestEnv(t)

	_, err := runCLI(t, []string{"tag", "--path", env.albumDir, "--album-id", "11111111-2222-3333-4444-555555555555", "--yes"}, env.configPath, "")
	if code := services.ExitCode(err); code != services.ExitNotFound {
		t.Fatalf("exit code = %d, err = %v", code, err)
	}
}

func TestLookupPrintsTracks(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, []string{"lookup", testReleaseID}, env.configPath, "")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	requireContains(t, out, "Harbor Lights")
	requireContains(t, out, "Glass Houses")
	requireContains(t, out, "4:00")
	requireContains(t, out, "2 track(s) on 1 disc(s)")
}

func TestLookupUsesCache(t *testing.T) {
	env := setupCLITestEnv(t)

	for range 2 {
		if _, err := runCLI(t, []string{"lookup", testReleaseID}, env.configPath, ""); err != nil {
			t.Fatalf("lookup: %v", err)
		}
	}
	if got := env.requests.Load(); got != 1 {
		t.Fatalf("expected one catalog request, got %d", got)
	}

	if _, err := runCLI(t, []string{"lookup", "--refresh", testReleaseID}, env.configPath, ""); err != nil {
		t.Fatalf("lookup --refresh: %v", err)
	}
	if got := env.requests.Load(); got != 2 {
		t.Fatalf("expected refresh to bypass cache, got %d requests", got)
	}
}

func TestCacheListAndClear(t *testing.T) {
	env := setupCLITestEnv(t)

	out, err := runCLI(t, []string{"cache", "list"}, env.configPath, "")
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, out, "Release cache is empty")

	if _, err := runCLI(t, []string{"lookup", testReleaseID}, env.configPath, ""); err != nil {
		t.Fatalf("lookup: %v", err)
	}

	out, err = runCLI(t, []string{"cache", "list"}, env.configPath, "")
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, out, testReleaseID)
	requireContains(t, out, "fresh")

	out, err = runCLI(t, []string{"cache", "prune"}, env.configPath, "")
	if err != nil {
		t.Fatalf("cache prune: %v", err)
	}
	requireContains(t, out, "No expired releases")

	out, err = runCLI(t, []string{"cache", "clear"}, env.configPath, "")
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Removed 1 cached release(s)")
}

func TestCacheDisabled(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCacheDisabled())

	_, err := runCLI(t, []string{"cache", "list"}, env.configPath, "")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestScanListsFiles(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteFile(t, filepath.Join(env.albumDir, "cover.jpg"), 16)

	out, err := runCLI(t, []string{"scan", "--path", env.albumDir}, env.configPath, "")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	requireContains(t, out, "01 - Paper Boats.mp3")
	requireContains(t, out, "paper boats")
	requireContains(t, out, "2 file(s)")
	requireContains(t, out, "Cover image: cover.jpg")
}
