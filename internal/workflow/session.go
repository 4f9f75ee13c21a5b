package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"mbtagger/internal/config"
	"mbtagger/internal/library"
	"mbtagger/internal/logging"
	"mbtagger/internal/musicbrainz"
	"mbtagger/internal/reconcile"
	"mbtagger/internal/services"
	"mbtagger/internal/tagplan"
)

// Stage names stamped into the context.
const (
	StageScan    = "scan"
	StageCatalog = "catalog"
	StageMatch   = "match"
	StagePlan    = "plan"
	StageConfirm = "confirm"
	StageWrite   = "write"
)

// DefaultAlbumArtist is suggested for manual albums without an artist tag.
const DefaultAlbumArtist = "Various Artists"

// AlbumRequest asks for the album-level values of a manual run.
type AlbumRequest struct {
	Dir           string
	DefaultTitle  string
	DefaultArtist string
	DefaultDate   string
}

// AlbumResponse is the person's answer to an AlbumRequest.
type AlbumResponse struct {
	Title  string
	Artist string
	Date   string
}

// AlbumPrompter gathers album values in manual mode.
type AlbumPrompter interface {
	Album(ctx context.Context, req AlbumRequest) (AlbumResponse, error)
}

// PlanWriter applies an approved plan.
type PlanWriter interface {
	Apply(ctx context.Context, approval tagplan.Approval, plan *tagplan.ChangePlan) (library.Report, error)
}

// Renderer shows the plan before the confirmation question.
type Renderer interface {
	RenderPlan(ctx context.Context, plan *tagplan.ChangePlan) error
}

// Dependencies are the collaborators a Session drives. Catalog is required
// only for catalog mode; a nil Renderer or AlbumPrompter is skipped.
type Dependencies struct {
	Catalog       musicbrainz.Fetcher
	Writer        PlanWriter
	Prompter      tagplan.Prompter
	AlbumPrompter AlbumPrompter
	Renderer      Renderer
	Logger        *slog.Logger
}

// Request describes one run.
type Request struct {
	Dir           string
	Mode          tagplan.Mode
	ReleaseID     string
	TracklistPath string
	Flags         tagplan.Flags
	NoCoverArt    bool
}

// Result is everything a run produced. Plan is nil when the run failed before
// planning.
type Result struct {
	RunID      string
	Dir        string
	Files      []library.File
	Assignment reconcile.Assignment
	Plan       *tagplan.ChangePlan
	Approval   tagplan.Approval
	Report     library.Report
	Elapsed    time.Duration
}

// Session runs tagging requests against one configuration.
type Session struct {
	cfg        *config.Config
	deps       Dependencies
	reconciler *reconcile.Reconciler
	gate       *tagplan.Gate
	logger     *slog.Logger
}

// NewSession wires a session from configuration and collaborators.
func NewSession(cfg *config.Config, deps Dependencies) *Session {
	logger := logging.NewComponentLogger(deps.Logger, "workflow")
	return &Session{
		cfg:        cfg,
		deps:       deps,
		reconciler: reconcile.New(cfg.MatchingPolicy()),
		gate: &tagplan.Gate{
			Prompter: deps.Prompter,
			Logger:   deps.Logger,
			Strict:   cfg.Gate.RequireResolution,
		},
		logger: logger,
	}
}

// Run executes every stage for req. A dry run or a declined confirmation
// still returns the plan; a declined or aborted run returns an error
// matching services.ErrAborted.
func (s *Session) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	dir, err := filepath.Abs(strings.TrimSpace(req.Dir))
	if err != nil || strings.TrimSpace(req.Dir) == "" {
		return nil, services.Wrap(services.ErrValidation, StageScan, "resolve directory", "album directory required", err)
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	result := &Result{RunID: uuid.NewString(), Dir: dir}
	ctx = services.WithRunID(ctx, result.RunID)
	ctx = services.WithAlbumDir(ctx, dir)
	defer func() { result.Elapsed = time.Since(start) }()

	logging.WithContext(ctx, s.logger).Info("tagging session started",
		logging.String(logging.FieldEventType, "session_start"),
		logging.String("mode", string(req.Mode)),
		logging.String("release_id", req.ReleaseID),
		logging.Bool("dry_run", req.Flags.DryRun),
		logging.Bool("yes", req.Flags.Yes))

	files, err := s.scan(services.WithStage(ctx, StageScan), dir, req.Mode)
	if err != nil {
		return result, err
	}
	result.Files = files

	catalogCtx := services.WithStage(ctx, StageCatalog)
	canonicals, release, err := s.loadCanonicals(catalogCtx, req, dir, files)
	if err != nil {
		return result, err
	}
	artwork := s.loadArtwork(catalogCtx, req, dir)

	matchCtx := services.WithStage(ctx, StageMatch)
	locals := library.LocalTracks(files)
	result.Assignment = s.reconciler.Reconcile(locals, canonicals)
	s.logAssignment(matchCtx, result.Assignment, locals, canonicals)

	planCtx := services.WithStage(ctx, StagePlan)
	plan := tagplan.Build(tagplan.Input{
		Mode:       req.Mode,
		Release:    release,
		Locals:     locals,
		Current:    library.CurrentTags(files),
		Canonicals: canonicals,
		Assignment: result.Assignment,
		Artwork:    artwork,
	})
	result.Plan = &plan
	if err := s.gate.ResolveManual(planCtx, &plan, req.Flags); err != nil {
		return result, fmt.Errorf("resolve manual entries: %w", err)
	}

	confirmCtx := services.WithStage(ctx, StageConfirm)
	if s.deps.Renderer != nil {
		if err := s.deps.Renderer.RenderPlan(confirmCtx, &plan); err != nil {
			return result, fmt.Errorf("render plan: %w", err)
		}
	}
	approval, err := s.gate.Decide(confirmCtx, &plan, req.Flags)
	result.Approval = approval
	if err != nil {
		return result, fmt.Errorf("confirm plan: %w", err)
	}
	switch approval.Decision {
	case tagplan.DecisionDryRun:
		return result, nil
	case tagplan.DecisionAbort:
		return result, services.Wrap(services.ErrAborted, StageConfirm, "confirm plan", approval.Reason, nil)
	}

	writeCtx := services.WithStage(ctx, StageWrite)
	if s.deps.Writer == nil {
		return result, services.Wrap(services.ErrConfiguration, StageWrite, "apply plan", "no writer configured", nil)
	}
	report, err := s.deps.Writer.Apply(writeCtx, approval, &plan)
	result.Report = report
	if err != nil {
		return result, err
	}
	logging.WithContext(writeCtx, s.logger).Info("tagging session finished",
		logging.String(logging.FieldEventType, "session_complete"),
		logging.Int("written", report.Written()),
		logging.Int("failed", len(report.Failed())),
		logging.Int("skipped", len(approval.Skipped)),
		logging.Duration("elapsed", time.Since(start)))
	return result, report.Err()
}

func (s *Session) validate(req Request) error {
	switch req.Mode {
	case tagplan.ModeCatalog:
		if s.deps.Catalog == nil {
			return services.Wrap(services.ErrConfiguration, StageCatalog, "lookup", "no catalog client configured", nil)
		}
		if _, err := musicbrainz.ValidateID(req.ReleaseID); err != nil {
			return err
		}
	case tagplan.ModeManual:
	default:
		return services.Wrap(services.ErrValidation, "", "mode", fmt.Sprintf("unknown mode %q", req.Mode), nil)
	}
	return nil
}

// Scan lists the audio files a run in mode would consider.
func (s *Session) Scan(ctx context.Context, dir string, mode tagplan.Mode) ([]library.File, error) {
	return s.scan(services.WithStage(ctx, StageScan), dir, mode)
}

func (s *Session) scan(ctx context.Context, dir string, mode tagplan.Mode) ([]library.File, error) {
	logger := logging.WithContext(ctx, s.logger)
	depth := s.cfg.Scan.MaxDepth
	if mode == tagplan.ModeManual {
		depth = s.cfg.Scan.ManualMaxDepth
	}
	files, err := library.Scan(ctx, dir, library.ScanOptions{MaxDepth: depth})
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, services.Wrap(services.ErrNotFound, StageScan, "list files", "no mp3 files in "+dir, nil)
	}
	for _, f := range files {
		if f.TagErr != nil {
			logging.WarnWithContext(logger, "unreadable tag", "tag_read_failed",
				logging.Path(f.Path),
				logging.Error(f.TagErr),
				logging.String(logging.FieldErrorHint, "the file name is used for matching instead"),
				logging.String(logging.FieldImpact, "match confidence for this file may be lower"))
		}
	}
	logger.Info("album directory scanned",
		logging.Int("files", len(files)),
		logging.Int("max_depth", depth))
	return files, nil
}

func (s *Session) loadCanonicals(ctx context.Context, req Request, dir string, files []library.File) ([]reconcile.CanonicalTrack, tagplan.Release, error) {
	logger := logging.WithContext(ctx, s.logger)
	if req.Mode == tagplan.ModeCatalog {
		release, err := s.deps.Catalog.Release(ctx, req.ReleaseID)
		if err != nil {
			return nil, tagplan.Release{}, err
		}
		canonicals := CanonicalTracks(release)
		summary := ReleaseSummary(release)
		logger.Info("release loaded",
			logging.String("release_id", summary.ID),
			logging.String("album", summary.Title),
			logging.String("album_artist", summary.Artist),
			logging.Int("tracks", len(canonicals)),
			logging.Int("discs", summary.DiscCount))
		return canonicals, summary, nil
	}

	var canonicals []reconcile.CanonicalTrack
	if path := strings.TrimSpace(req.TracklistPath); path != "" {
		tracks, err := ReadTracklist(path)
		if err != nil {
			return nil, tagplan.Release{}, err
		}
		canonicals = tracks
		logger.Info("tracklist loaded", logging.Path(path), logging.Int("tracks", len(tracks)))
	}

	album := AlbumRequest{
		Dir:           dir,
		DefaultTitle:  filepath.Base(dir),
		DefaultArtist: DefaultAlbumArtist,
	}
	if len(files) > 0 {
		first := files[0].Tags
		album.DefaultTitle = firstNonEmpty(first.Album, album.DefaultTitle)
		album.DefaultArtist = firstNonEmpty(first.AlbumArtist, album.DefaultArtist)
		album.DefaultDate = first.Date
	}
	answer := AlbumResponse{Title: album.DefaultTitle, Artist: album.DefaultArtist, Date: album.DefaultDate}
	if s.deps.AlbumPrompter != nil && !req.Flags.Yes && !req.Flags.DryRun {
		got, err := s.deps.AlbumPrompter.Album(ctx, album)
		if err != nil {
			return nil, tagplan.Release{}, fmt.Errorf("album prompt: %w", err)
		}
		answer.Title = firstNonEmpty(got.Title, answer.Title)
		answer.Artist = firstNonEmpty(got.Artist, answer.Artist)
		answer.Date = firstNonEmpty(got.Date, answer.Date)
	}
	release := tagplan.Release{Title: answer.Title, Artist: answer.Artist, Date: answer.Date}
	if len(canonicals) > 0 {
		release.DiscCount = 1
		release.DiscTrackCounts = map[int]int{1: len(canonicals)}
	}
	return canonicals, release, nil
}

// loadArtwork never fails the run; a missing cover only costs the APIC frame.
func (s *Session) loadArtwork(ctx context.Context, req Request, dir string) *tagplan.Artwork {
	if req.NoCoverArt || !s.cfg.Tagging.CoverArt {
		return nil
	}
	logger := logging.WithContext(ctx, s.logger)
	maxBytes := int64(s.cfg.Tagging.MaxCoverArtBytes)

	if req.Mode == tagplan.ModeManual {
		art, err := library.LoadCoverArt(dir, maxBytes)
		if err != nil {
			logging.WarnWithContext(logger, "cover image unreadable", "cover_art_unreadable",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the image file in the album directory"),
				logging.String(logging.FieldImpact, "files are tagged without a cover"))
			return nil
		}
		if art != nil {
			logger.Info("cover image found", logging.Path(art.Source), logging.Int("bytes", len(art.Data)))
		}
		return art
	}

	img, err := s.deps.Catalog.CoverArt(ctx, req.ReleaseID)
	switch {
	case errors.Is(err, musicbrainz.ErrNoCoverArt):
		logger.Info("release has no front cover", logging.String("release_id", req.ReleaseID))
		return nil
	case err != nil:
		logging.WarnWithContext(logger, "cover download failed", "cover_art_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "rerun later or pass --no-cover-art"),
			logging.String(logging.FieldImpact, "files are tagged without a cover"))
		return nil
	}
	if maxBytes > 0 && int64(len(img.Data)) > maxBytes {
		logging.WarnWithContext(logger, "cover image too large", "cover_art_too_large",
			logging.Int("bytes", len(img.Data)),
			logging.String(logging.FieldErrorHint, "raise tagging.max_cover_art_bytes"),
			logging.String(logging.FieldImpact, "files are tagged without a cover"))
		return nil
	}
	logger.Info("cover image downloaded", logging.String("url", img.URL), logging.Int("bytes", len(img.Data)))
	return &tagplan.Artwork{Data: img.Data, MIMEType: img.MIMEType, Source: img.URL}
}

func (s *Session) logAssignment(ctx context.Context, a reconcile.Assignment, locals []reconcile.LocalTrack, canonicals []reconcile.CanonicalTrack) {
	logger := logging.WithContext(ctx, s.logger)
	for _, issue := range a.Issues {
		attrs := []logging.Attr{
			logging.String("issue", string(issue.Kind)),
			logging.String("detail", issue.Detail),
		}
		if issue.Side == reconcile.SideLocal || issue.Side == reconcile.SideBoth {
			if issue.Index >= 0 && issue.Index < len(locals) {
				attrs = append(attrs, logging.Path(locals[issue.Index].Path))
			}
		}
		if issue.Side == reconcile.SideCanonical && issue.Index >= 0 && issue.Index < len(canonicals) {
			attrs = append(attrs, logging.String("track", canonicals[issue.Index].Title))
		}
		switch issue.Kind {
		case reconcile.IssueApproximateSolution:
			logging.WarnWithContext(logger, "match needs review", "match_"+string(issue.Kind), append(attrs,
				logging.String(logging.FieldErrorHint, "review the plan before confirming"),
				logging.String(logging.FieldImpact, "a pairing may be swapped"))...)
		case reconcile.IssueAmbiguousTie:
			logger.Info("equally good pairing exists", logging.Args(attrs...)...)
		default:
			logger.Debug("reconcile issue", logging.Args(attrs...)...)
		}
	}
	logger.Info("files reconciled",
		logging.Args(append(logging.DecisionAttrs("reconcile", string(a.Solver), fmt.Sprintf("exact=%t", a.Exact)),
			logging.Int("pairs", len(a.Pairs)),
			logging.Int("unmatched_files", len(a.UnmatchedLocals)),
			logging.Int("unmatched_tracks", len(a.UnmatchedCanonicals)),
			logging.Score("total_score", a.TotalScore()))...)...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
