package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"mbtagger/internal/reconcile"
	"mbtagger/internal/services"
	"mbtagger/internal/tagplan"
)

func samplePlan(dir string) *tagplan.ChangePlan {
	return &tagplan.ChangePlan{
		Mode: tagplan.ModeCatalog,
		Release: tagplan.Release{
			ID:        testReleaseID,
			Title:     "Harbor Lights",
			Artist:    "The Tides",
			Date:      "2004",
			DiscCount: 1,
		},
		Solver: reconcile.SolverHungarian,
		Exact:  true,
		Entries: []tagplan.Entry{
			{
				LocalIndex: 0,
				Local:      reconcile.LocalTrack{Path: filepath.Join(dir, "01.mp3")},
				Current:    tagplan.TagValues{Title: "paper boats"},
				Proposed:   tagplan.TagValues{Title: "Paper Boats", Artist: "The Tides", TrackNumber: 1, TrackTotal: 3},
				Provenance: tagplan.ProvenanceMatched,
				Score:      0.91,
			},
			{
				LocalIndex:     1,
				Local:          reconcile.LocalTrack{Path: filepath.Join(dir, "bonus.mp3")},
				Proposed:       tagplan.TagValues{Title: "bonus"},
				Provenance:     tagplan.ProvenanceUnresolved,
				CanonicalIndex: -1,
			},
		},
		Missing: []reconcile.CanonicalTrack{{Position: 3, DiscNumber: 1, Title: "Low Tide", DurationSeconds: 200}},
		Issues: []reconcile.Issue{
			{Kind: reconcile.IssueBelowThreshold, Side: reconcile.SideLocal, Index: 1, Detail: "best score 0.200 below 0.50"},
			{Kind: reconcile.IssueAmbiguousTie, Side: reconcile.SideBoth, Index: 0, Other: 0, Detail: "equal score with canonical 2"},
		},
	}
}

func TestRenderPlan(t *testing.T) {
	dir := "/music/harbor"
	ctx := services.WithAlbumDir(context.Background(), dir)
	var out bytes.Buffer

	if err := newPlanRenderer(&out).RenderPlan(ctx, samplePlan(dir)); err != nil {
		t.Fatalf("RenderPlan: %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"Harbor Lights",
		"solver hungarian",
		"Cover:   none",
		"01.mp3",
		"0.91",
		"matched",
		"unresolved",
		"title, artist, track",
		"Not found in directory (1)",
		"03  Low Tide (3:20)",
		"01.mp3: equal score with canonical 2 (ambiguous_tie)",
		"Matched 1, manual 0, unresolved 1, skipped 0, missing 1; 1 files change",
	} {
		requireContains(t, text, want)
	}
	if strings.Contains(text, "below 0.50") {
		t.Fatalf("below-threshold issues should only show as unresolved rows:\n%s", text)
	}
	if strings.Contains(text, "\x1b[") {
		t.Fatal("buffer output must not be colorized")
	}
}

func TestRenderPlanMultiDiscLabels(t *testing.T) {
	if got := trackLabel(2, 5, 2); got != "2-05" {
		t.Fatalf("trackLabel = %q", got)
	}
	if got := discText(tagplan.TagValues{DiscNumber: 1, DiscTotal: 1}); got != "" {
		t.Fatalf("single disc text = %q", got)
	}
	if got := discText(tagplan.TagValues{DiscNumber: 2, DiscTotal: 3}); got != "2/3" {
		t.Fatalf("disc text = %q", got)
	}
}

func TestHumanBytes(t *testing.T) {
	cases := map[int64]string{
		512:             "512 B",
		2048:            "2.0 KiB",
		5 * 1024 * 1024: "5.0 MiB",
	}
	for in, want := range cases {
		if got := humanBytes(in); got != want {
			t.Fatalf("humanBytes(%d) = %q, want %q", in, got, want)
		}
	}
}
