package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mbtagger/internal/releasecache"
	"mbtagger/internal/services"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the release cache",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	cacheCmd.AddCommand(newCachePruneCommand(ctx))

	return cacheCmd
}

func openCache(ctx *commandContext) (*releasecache.Store, time.Duration, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, 0, err
	}
	if !cfg.Cache.Enabled {
		return nil, 0, services.Wrap(services.ErrConfiguration, "", "open cache", "release cache is disabled (cache.enabled = false)", nil)
	}
	store, err := releasecache.Open(cfg)
	if err != nil {
		return nil, 0, err
	}
	return store, time.Duration(cfg.Cache.TTLHours) * time.Hour, nil
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached releases",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, ttl, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Release cache is empty")
				return nil
			}

			const stampLayout = "2006-01-02 15:04"
			now := time.Now()
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				state := "fresh"
				if entry.Expired(ttl, now) {
					state = "expired"
				}
				rows = append(rows, []string{
					entry.ReleaseID,
					entry.Title,
					entry.Artist,
					strconv.Itoa(entry.TrackCount),
					entry.FetchedAt.Local().Format(stampLayout),
					state,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Release", "Title", "Artist", "Tracks", "Fetched", "State"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				map[int]int{1: maxTitleWidth, 2: maxTitleWidth},
			))
			fmt.Fprintf(out, "%d cached release(s) in %s\n", len(entries), store.Path())
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached release",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached release(s)\n", removed)
			return nil
		},
	}
}

func newCachePruneCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove expired releases",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openCache(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Prune(cmd.Context())
			if err != nil {
				return err
			}
			if removed == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No expired releases")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d expired release(s)\n", removed)
			return nil
		},
	}
}
