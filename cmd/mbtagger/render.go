package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"

	"mbtagger/internal/reconcile"
	"mbtagger/internal/services"
	"mbtagger/internal/tagplan"
)

// planRenderer prints a change plan as a table followed by the tracks the
// release has but the directory lacks.
type planRenderer struct {
	out      io.Writer
	colorize bool
}

func newPlanRenderer(out io.Writer) *planRenderer {
	return &planRenderer{out: out, colorize: shouldColorize(out)}
}

func (r *planRenderer) RenderPlan(ctx context.Context, plan *tagplan.ChangePlan) error {
	if plan == nil {
		return nil
	}
	dir, _ := services.AlbumDirFromContext(ctx)

	var b strings.Builder
	r.writeHeader(&b, plan)

	rows := make([][]string, 0, len(plan.Entries))
	for i, e := range plan.Entries {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			displayPath(dir, e.Local.Path),
			e.Proposed.Title,
			e.Proposed.Artist,
			tagplan.Fraction(e.Proposed.TrackNumber, e.Proposed.TrackTotal),
			discText(e.Proposed),
			scoreText(e),
			r.status(e),
			changeSummary(e),
		})
	}
	b.WriteString(renderTable(
		[]string{"#", "File", "Title", "Artist", "Track", "Disc", "Score", "Status", "Changes"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft},
		map[int]int{1: maxPathWidth, 2: maxTitleWidth, 3: maxTitleWidth, 8: maxTitleWidth},
	))
	b.WriteString("\n")

	if len(plan.Missing) > 0 {
		fmt.Fprintf(&b, "\nNot found in directory (%d):\n", len(plan.Missing))
		for _, c := range plan.Missing {
			fmt.Fprintf(&b, "  %s  %s", trackLabel(c.DiscNumber, c.Position, plan.Release.DiscCount), c.Title)
			if c.DurationSeconds > 0 {
				fmt.Fprintf(&b, " (%s)", formatClock(c.DurationSeconds))
			}
			b.WriteString("\n")
		}
	}

	if notes := issueLines(plan, dir); len(notes) > 0 {
		b.WriteString("\nNotes:\n")
		for _, line := range notes {
			fmt.Fprintf(&b, "  - %s\n", line)
		}
	}

	c := plan.Counts()
	fmt.Fprintf(&b, "\nMatched %d, manual %d, unresolved %d, skipped %d, missing %d; %d files change\n",
		c.Matched, c.Manual, c.Unresolved, c.Skipped, c.Missing, c.Changed)

	_, err := io.WriteString(r.out, b.String())
	return err
}

func (r *planRenderer) writeHeader(b *strings.Builder, plan *tagplan.ChangePlan) {
	rel := plan.Release
	title := strings.TrimSpace(rel.Title)
	if title == "" {
		title = "(untitled album)"
	}
	fmt.Fprintf(b, "%s\n", paint(title, r.colorize, text.Colors{text.Bold}))
	if rel.Artist != "" {
		fmt.Fprintf(b, "  Artist:  %s\n", rel.Artist)
	}
	if rel.Date != "" {
		fmt.Fprintf(b, "  Date:    %s\n", rel.Date)
	}
	if rel.ID != "" {
		fmt.Fprintf(b, "  Release: %s\n", rel.ID)
	}
	fmt.Fprintf(b, "  Mode:    %s", plan.Mode)
	if plan.Solver != "" {
		fmt.Fprintf(b, " (solver %s", plan.Solver)
		if !plan.Exact {
			b.WriteString(", approximate")
		}
		b.WriteString(")")
	}
	b.WriteString("\n")
	if plan.Artwork != nil {
		fmt.Fprintf(b, "  Cover:   %s (%s)\n", filepath.Base(plan.Artwork.Source), humanBytes(int64(len(plan.Artwork.Data))))
	} else {
		b.WriteString("  Cover:   none\n")
	}
}

func (r *planRenderer) status(e tagplan.Entry) string {
	if e.Skipped {
		return paint("skipped", r.colorize, text.Colors{text.Faint})
	}
	switch e.Provenance {
	case tagplan.ProvenanceMatched:
		return paint("matched", r.colorize, text.Colors{text.FgGreen})
	case tagplan.ProvenanceManual:
		return paint("manual", r.colorize, text.Colors{text.FgYellow})
	default:
		return paint(string(e.Provenance), r.colorize, text.Colors{text.FgRed})
	}
}

func displayPath(dir, path string) string {
	if dir != "" {
		if rel, err := filepath.Rel(dir, path); err == nil && !strings.HasPrefix(rel, "..") {
			return rel
		}
	}
	return filepath.Base(path)
}

func discText(v tagplan.TagValues) string {
	if v.DiscTotal <= 1 {
		return ""
	}
	return tagplan.Fraction(v.DiscNumber, v.DiscTotal)
}

func scoreText(e tagplan.Entry) string {
	if e.Provenance != tagplan.ProvenanceMatched {
		return "-"
	}
	return strconv.FormatFloat(e.Score, 'f', 2, 64)
}

func changeSummary(e tagplan.Entry) string {
	if !e.Writable() {
		return ""
	}
	changes := e.Changes()
	if len(changes) == 0 {
		return "none"
	}
	fields := make([]string, 0, len(changes))
	for _, c := range changes {
		fields = append(fields, strings.TrimPrefix(c.Field, "musicbrainz_"))
	}
	return strings.Join(fields, ", ")
}

func trackLabel(disc, position, discCount int) string {
	if discCount > 1 && disc > 0 {
		return fmt.Sprintf("%d-%02d", disc, position)
	}
	return fmt.Sprintf("%02d", position)
}

// issueLines describes reconciler issues using file names instead of indices.
// Below-threshold locals are already visible as unresolved rows.
func issueLines(plan *tagplan.ChangePlan, dir string) []string {
	paths := make(map[int]string, len(plan.Entries))
	for _, e := range plan.Entries {
		paths[e.LocalIndex] = displayPath(dir, e.Local.Path)
	}
	var lines []string
	for _, issue := range plan.Issues {
		switch issue.Kind {
		case reconcile.IssueBelowThreshold:
			continue
		case reconcile.IssueAmbiguousTie, reconcile.IssueMalformedInput:
			if name, ok := paths[issue.Index]; ok && issue.Side != reconcile.SideCanonical {
				lines = append(lines, fmt.Sprintf("%s: %s (%s)", name, issue.Detail, issue.Kind))
				continue
			}
		}
		lines = append(lines, issue.Error())
	}
	return lines
}

func formatClock(seconds float64) string {
	total := int(seconds + 0.5)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
