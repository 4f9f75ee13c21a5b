package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mbtagger/internal/workflow"
)

func newLookupCommand(ctx *commandContext) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "lookup <release-id>",
		Short: "Show the track list of a MusicBrainz release",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			catalog, closeCatalog, err := ctx.catalog(cfg, logger, !refresh)
			if err != nil {
				return err
			}
			defer closeCatalog()

			release, err := catalog.Release(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			summary := workflow.ReleaseSummary(release)
			tracks := workflow.CanonicalTracks(release)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n", summary.Title)
			fmt.Fprintf(out, "  Artist:  %s\n", summary.Artist)
			if summary.Date != "" {
				fmt.Fprintf(out, "  Date:    %s\n", summary.Date)
			}
			if release.Country != "" || release.Status != "" {
				fmt.Fprintf(out, "  Status:  %s %s\n", release.Status, release.Country)
			}
			fmt.Fprintf(out, "  Release: %s\n", summary.ID)

			rows := make([][]string, 0, len(tracks))
			for _, t := range tracks {
				length := ""
				if t.DurationSeconds > 0 {
					length = formatClock(t.DurationSeconds)
				}
				rows = append(rows, []string{
					strconv.Itoa(t.DiscNumber),
					strconv.Itoa(t.Position),
					t.Title,
					t.Artist,
					length,
					t.DiscTitle,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Disc", "#", "Title", "Artist", "Length", "Disc title"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignRight, alignLeft},
				map[int]int{2: maxTitleWidth, 3: maxTitleWidth},
			))
			fmt.Fprintf(out, "%d track(s) on %d disc(s)\n", len(tracks), summary.DiscCount)
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Bypass the release cache")
	return cmd
}
