package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mbtagger/internal/config"
	"mbtagger/internal/library"
	"mbtagger/internal/musicbrainz"
	"mbtagger/internal/reconcile"
	"mbtagger/internal/services"
	"mbtagger/internal/tagplan"
	"mbtagger/internal/testsupport"
)

const testReleaseID = "4b7c9a53-7d2e-4f57-9d42-0f6a2c1b8e11"

type fakeCatalog struct {
	release *musicbrainz.Release
	err     error
	cover   *musicbrainz.Image
}

func (f *fakeCatalog) Release(context.Context, string) (*musicbrainz.Release, error) {
	return f.release, f.err
}

func (f *fakeCatalog) CoverArt(context.Context, string) (*musicbrainz.Image, error) {
	if f.cover == nil {
		return nil, services.Wrap(services.ErrNotFound, "catalog", "cover art", "none", musicbrainz.ErrNoCoverArt)
	}
	return f.cover, nil
}

type recordingRenderer struct {
	plans []*tagplan.ChangePlan
}

func (r *recordingRenderer) RenderPlan(_ context.Context, plan *tagplan.ChangePlan) error {
	r.plans = append(r.plans, plan)
	return nil
}

func harborLights() *musicbrainz.Release {
	return &musicbrainz.Release{
		ID:           testReleaseID,
		Title:        "Harbor Lights",
		Date:         "2004",
		ArtistCredit: []musicbrainz.ArtistCredit{{Name: "The Tides", Artist: musicbrainz.Artist{ID: "artist-1"}}},
		Media: []musicbrainz.Medium{{Position: 1, Tracks: []musicbrainz.Track{
			{ID: "t1", Position: 1, Title: "Paper Boats", Recording: musicbrainz.Recording{ID: "r1"}},
			{ID: "t2", Position: 2, Title: "Glass Houses", Recording: musicbrainz.Recording{ID: "r2"}},
		}}},
	}
}

func albumDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "Harbor Lights")
	testsupport.WriteMP3(t, filepath.Join(dir, "01 - Paper Boats.mp3"), testsupport.Track{Title: "paper boats", Track: "1"})
	testsupport.WriteMP3(t, filepath.Join(dir, "02 - Glass Houses.mp3"), testsupport.Track{})
	testsupport.WriteMP3(t, filepath.Join(dir, "99 - Bonus Jam.mp3"), testsupport.Track{Title: "bonus jam"})
	return dir
}

func newTestSession(cfg *config.Config, catalog musicbrainz.Fetcher, renderer Renderer) *Session {
	return NewSession(cfg, Dependencies{
		Catalog:  catalog,
		Writer:   library.NewWriter(cfg.Paths.CacheDir, nil),
		Renderer: renderer,
	})
}

func TestRunCatalogModeWithYes(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := albumDir(t)
	renderer := &recordingRenderer{}

	result, err := newTestSession(cfg, &fakeCatalog{release: harborLights()}, renderer).Run(context.Background(), Request{
		Dir:       dir,
		Mode:      tagplan.ModeCatalog,
		ReleaseID: testReleaseID,
		Flags:     tagplan.Flags{Yes: true},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.RunID == "" || len(result.Files) != 3 {
		t.Fatalf("result = %+v", result)
	}
	if len(renderer.plans) != 1 {
		t.Fatalf("renderer called %d times", len(renderer.plans))
	}
	counts := result.Plan.Counts()
	if counts.Matched != 2 || counts.Unresolved != 1 || counts.Skipped != 1 {
		t.Fatalf("counts = %+v", counts)
	}
	if result.Report.Written() != 2 {
		t.Fatalf("written = %d", result.Report.Written())
	}

	got, _, err := library.ReadTags(filepath.Join(dir, "02 - Glass Houses.mp3"))
	if err != nil {
		t.Fatalf("ReadTags: %v", err)
	}
	if got.Title != "Glass Houses" || got.TrackNumber != 2 || got.TrackTotal != 2 || got.Album != "Harbor Lights" || got.ReleaseID != testReleaseID {
		t.Fatalf("tags = %+v", got)
	}
	bonus, _, _ := library.ReadTags(filepath.Join(dir, "99 - Bonus Jam.mp3"))
	if bonus.Title != "bonus jam" || bonus.Album != "" {
		t.Fatalf("unresolved file was written: %+v", bonus)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := albumDir(t)
	before, err := os.ReadFile(filepath.Join(dir, "02 - Glass Houses.mp3"))
	if err != nil {
		t.Fatal(err)
	}

	result, err := newTestSession(cfg, &fakeCatalog{release: harborLights()}, nil).Run(context.Background(), Request{
		Dir:       dir,
		Mode:      tagplan.ModeCatalog,
		ReleaseID: testReleaseID,
		Flags:     tagplan.Flags{DryRun: true},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Approval.Decision != tagplan.DecisionDryRun || len(result.Report.Results) != 0 {
		t.Fatalf("approval = %+v report = %+v", result.Approval, result.Report)
	}
	after, _ := os.ReadFile(filepath.Join(dir, "02 - Glass Houses.mp3"))
	if string(before) != string(after) {
		t.Fatal("dry run modified a file")
	}
}

func TestRunStrictGateAbortsOnUnresolved(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStrictGate())
	_, err := newTestSession(cfg, &fakeCatalog{release: harborLights()}, nil).Run(context.Background(), Request{
		Dir:       albumDir(t),
		Mode:      tagplan.ModeCatalog,
		ReleaseID: testReleaseID,
		Flags:     tagplan.Flags{Yes: true},
	})
	if !errors.Is(err, services.ErrAborted) {
		t.Fatalf("err = %v, want ErrAborted", err)
	}
	if services.ExitCode(err) != services.ExitAborted {
		t.Fatalf("exit code = %d", services.ExitCode(err))
	}
}

func TestRunManualModeWithTracklist(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := filepath.Join(t.TempDir(), "Demos")
	testsupport.WriteMP3(t, filepath.Join(dir, "a.mp3"), testsupport.Track{Title: "Outro"})
	testsupport.WriteMP3(t, filepath.Join(dir, "b.mp3"), testsupport.Track{Title: "Intro"})
	testsupport.WriteMP3(t, filepath.Join(dir, "c.mp3"), testsupport.Track{Title: "Untitled Sketch"})
	tracklist := filepath.Join(t.TempDir(), "tracks.txt")
	if err := os.WriteFile(tracklist, []byte("# demos\nIntro\nOutro | Guest\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := newTestSession(cfg, nil, nil).Run(context.Background(), Request{
		Dir:           dir,
		Mode:          tagplan.ModeManual,
		TracklistPath: tracklist,
		Flags:         tagplan.Flags{Yes: true},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	counts := result.Plan.Counts()
	if counts.Matched != 2 || counts.Manual != 1 {
		t.Fatalf("counts = %+v", counts)
	}
	if result.Report.Written() != 3 {
		t.Fatalf("written = %d", result.Report.Written())
	}

	outro, _, _ := library.ReadTags(filepath.Join(dir, "a.mp3"))
	if outro.TrackNumber != 2 || outro.Artist != "Guest" || outro.Album != "Demos" || outro.AlbumArtist != DefaultAlbumArtist {
		t.Fatalf("outro tags = %+v", outro)
	}
	sketch, _, _ := library.ReadTags(filepath.Join(dir, "c.mp3"))
	if sketch.Title != "Untitled Sketch" || sketch.Album != "Demos" || sketch.TrackNumber != 1 {
		t.Fatalf("manual entry tags = %+v", sketch)
	}
}

func TestRunEmptyDirectory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := newTestSession(cfg, nil, nil).Run(context.Background(), Request{
		Dir:   t.TempDir(),
		Mode:  tagplan.ModeManual,
		Flags: tagplan.Flags{Yes: true},
	})
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRunRejectsBadRequests(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	session := newTestSession(cfg, &fakeCatalog{release: harborLights()}, nil)
	if _, err := session.Run(context.Background(), Request{Dir: t.TempDir(), Mode: tagplan.ModeCatalog, ReleaseID: "nope"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("bad id: err = %v", err)
	}
	if _, err := session.Run(context.Background(), Request{Dir: t.TempDir(), Mode: "other"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("bad mode: err = %v", err)
	}
	if _, err := newTestSession(cfg, nil, nil).Run(context.Background(), Request{Dir: t.TempDir(), Mode: tagplan.ModeCatalog, ReleaseID: testReleaseID}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("no catalog: err = %v", err)
	}
}

func TestRunPropagatesCatalogErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	catalog := &fakeCatalog{err: services.Wrap(services.ErrNotFound, "catalog", "release lookup", "gone", nil)}
	_, err := newTestSession(cfg, catalog, nil).Run(context.Background(), Request{
		Dir:       albumDir(t),
		Mode:      tagplan.ModeCatalog,
		ReleaseID: testReleaseID,
		Flags:     tagplan.Flags{Yes: true},
	})
	if services.ExitCode(err) != services.ExitNotFound {
		t.Fatalf("err = %v", err)
	}
}

func TestRunEmbedsCatalogCover(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	dir := albumDir(t)
	catalog := &fakeCatalog{release: harborLights(), cover: &musicbrainz.Image{Data: []byte("jpeg"), MIMEType: "image/jpeg", URL: "https://caa/1200.jpg"}}
	result, err := newTestSession(cfg, catalog, nil).Run(context.Background(), Request{
		Dir:       dir,
		Mode:      tagplan.ModeCatalog,
		ReleaseID: testReleaseID,
		Flags:     tagplan.Flags{DryRun: true},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Plan.Artwork == nil || string(result.Plan.Artwork.Data) != "jpeg" {
		t.Fatalf("artwork = %+v", result.Plan.Artwork)
	}

	noCover, err := newTestSession(cfg, catalog, nil).Run(context.Background(), Request{
		Dir:        dir,
		Mode:       tagplan.ModeCatalog,
		ReleaseID:  testReleaseID,
		Flags:      tagplan.Flags{DryRun: true},
		NoCoverArt: true,
	})
	if err != nil || noCover.Plan.Artwork != nil {
		t.Fatalf("--no-cover-art ignored: %+v %v", noCover.Plan.Artwork, err)
	}
}

func TestLogAssignmentLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	cfg := testsupport.NewConfig(t)
	session := NewSession(cfg, Dependencies{Logger: logger})

	locals := []reconcile.LocalTrack{{Path: "/m/a.mp3", Title: "A"}, {Path: "/m/b.mp3", Title: "A"}}
	canonicals := []reconcile.CanonicalTrack{{Position: 1, Title: "A"}, {Position: 2, Title: "A"}}
	a := reconcile.Assignment{
		Solver: reconcile.SolverGreedy,
		Issues: []reconcile.Issue{
			{Kind: reconcile.IssueAmbiguousTie, Side: reconcile.SideBoth, Index: 0, Detail: "swap with local 1"},
			{Kind: reconcile.IssueApproximateSolution, Side: reconcile.SideBoth, Index: -1, Detail: "greedy"},
		},
	}
	session.logAssignment(context.Background(), a, locals, canonicals)

	levels := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var record map[string]any
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			t.Fatalf("decode log line %q: %v", line, err)
		}
		if issue, ok := record["issue"].(string); ok {
			levels[issue], _ = record["level"].(string)
		}
	}
	if got := levels[string(reconcile.IssueAmbiguousTie)]; got != "INFO" {
		t.Errorf("ambiguous tie logged at %q, want INFO", got)
	}
	if got := levels[string(reconcile.IssueApproximateSolution)]; got != "WARN" {
		t.Errorf("approximate solution logged at %q, want WARN", got)
	}
}
