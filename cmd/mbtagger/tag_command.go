package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mbtagger/internal/library"
	"mbtagger/internal/musicbrainz"
	"mbtagger/internal/services"
	"mbtagger/internal/tagplan"
	"mbtagger/internal/workflow"
)

type tagOptions struct {
	path       string
	albumID    string
	manual     bool
	dryRun     bool
	yes        bool
	noCoverArt bool
	tracklist  string
}

func (o tagOptions) request() (workflow.Request, error) {
	if strings.TrimSpace(o.path) == "" {
		return workflow.Request{}, usageError("tag", "--path is required")
	}
	albumID := strings.TrimSpace(o.albumID)
	switch {
	case albumID != "" && o.manual:
		return workflow.Request{}, usageError("tag", "--album-id and --manual cannot be combined")
	case albumID == "" && !o.manual:
		return workflow.Request{}, usageError("tag", "one of --album-id or --manual is required")
	case o.tracklist != "" && !o.manual:
		return workflow.Request{}, usageError("tag", "--tracklist only applies with --manual")
	}
	req := workflow.Request{
		Dir:           o.path,
		Mode:          tagplan.ModeCatalog,
		ReleaseID:     albumID,
		TracklistPath: strings.TrimSpace(o.tracklist),
		Flags:         tagplan.Flags{Yes: o.yes, DryRun: o.dryRun},
		NoCoverArt:    o.noCoverArt,
	}
	if o.manual {
		req.Mode = tagplan.ModeManual
	}
	return req, nil
}

func newTagCommand(ctx *commandContext) *cobra.Command {
	var opts tagOptions

	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Match an album directory to a release and write tags",
		Long: `Match the MP3 files of an album directory to the tracks of a MusicBrainz
release (--album-id) or tag them by hand (--manual), show the planned changes,
and write them after confirmation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request()
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			var catalog musicbrainz.Fetcher
			if req.Mode == tagplan.ModeCatalog {
				fetcher, closeCatalog, err := ctx.catalog(cfg, logger, true)
				if err != nil {
					return err
				}
				defer closeCatalog()
				catalog = fetcher
			}

			out := cmd.OutOrStdout()
			prompter := newTerminalPrompter(cmd.InOrStdin(), out)
			session := workflow.NewSession(cfg, workflow.Dependencies{
				Catalog:       catalog,
				Writer:        library.NewWriter(cfg.Paths.CacheDir, logger, library.WithMusicBrainzIDs(cfg.Tagging.MusicBrainzIDs)),
				Prompter:      prompter,
				AlbumPrompter: prompter,
				Renderer:      newPlanRenderer(out),
				Logger:        logger,
			})

			result, err := session.Run(cmd.Context(), req)
			if result != nil {
				printRunSummary(out, result)
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.path, "path", "p", "", "Album directory")
	flags.StringVar(&opts.albumID, "album-id", "", "MusicBrainz release id")
	flags.BoolVar(&opts.manual, "manual", false, "Tag without a release, prompting for values")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Show the plan without writing")
	flags.BoolVarP(&opts.yes, "yes", "y", false, "Write without asking; unresolved files are skipped")
	flags.BoolVar(&opts.noCoverArt, "no-cover-art", false, "Do not embed a front cover")
	flags.StringVar(&opts.tracklist, "tracklist", "", "Track list file for --manual (title | artist | m:ss per line)")
	return cmd
}

func printRunSummary(out io.Writer, result *workflow.Result) {
	switch result.Approval.Decision {
	case tagplan.DecisionDryRun:
		fmt.Fprintf(out, "Dry run: %d file(s) would be written\n", len(result.Approval.Entries))
		return
	case tagplan.DecisionAbort:
		if result.Approval.Reason != "" {
			fmt.Fprintf(out, "Nothing written: %s\n", result.Approval.Reason)
		}
		return
	case tagplan.DecisionProceed:
	default:
		return
	}
	report := result.Report
	fmt.Fprintf(out, "Wrote %d of %d file(s) in %s\n", report.Written(), len(report.Results), result.Elapsed.Round(time.Millisecond))
	for _, failed := range report.Failed() {
		fmt.Fprintf(out, "  failed: %s: %v\n", displayPath(result.Dir, failed.Path), failed.Err)
	}
	if n := len(result.Approval.Skipped); n > 0 {
		fmt.Fprintf(out, "Skipped %d unresolved file(s)\n", n)
	}
}

func usageError(command, message string) error {
	return services.Wrap(services.ErrValidation, "", command, message, nil)
}
