package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mbtagger/internal/library"
	"mbtagger/internal/tagplan"
	"mbtagger/internal/workflow"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var dir string
	var manual bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List the MP3 files a tag run would consider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				return usageError("scan", "--path is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			mode := tagplan.ModeCatalog
			if manual {
				mode = tagplan.ModeManual
			}
			session := workflow.NewSession(cfg, workflow.Dependencies{Logger: logger})
			files, err := session.Scan(cmd.Context(), dir, mode)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(files))
			for _, f := range files {
				local := f.LocalTrack()
				length := ""
				if f.DurationSeconds > 0 {
					length = formatClock(f.DurationSeconds)
				}
				tagState := "ok"
				if f.TagErr != nil {
					tagState = "unreadable"
				}
				rows = append(rows, []string{
					f.RelPath,
					f.Tags.Title,
					f.Tags.Artist,
					positive(local.TrackNumber),
					positive(local.DiscNumber),
					length,
					f.Name.Title,
					tagState,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"File", "Title", "Artist", "Track", "Disc", "Length", "Name title", "Tag"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft},
				map[int]int{0: maxPathWidth, 1: maxTitleWidth, 2: maxTitleWidth, 6: maxTitleWidth},
			))
			fmt.Fprintf(out, "%d file(s)\n", len(files))
			if cover, err := library.FindCoverArt(dir); err == nil && cover != "" {
				fmt.Fprintf(out, "Cover image: %s\n", displayPath(dir, cover))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "path", "p", "", "Album directory")
	cmd.Flags().BoolVar(&manual, "manual", false, "Use the shallower manual-mode scan depth")
	return cmd
}

func positive(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}
