package tagplan

import (
	"sort"
	"strings"

	"mbtagger/internal/reconcile"
	"mbtagger/internal/textutil"
)

// Input carries everything Build needs. Current is parallel to Locals; a
// missing element means the file had no readable tags.
type Input struct {
	Mode       Mode
	Release    Release
	Locals     []reconcile.LocalTrack
	Current    []TagValues
	Canonicals []reconcile.CanonicalTrack
	Assignment reconcile.Assignment
	Artwork    *Artwork
}

// Build produces one entry per local file. Matched entries come first in
// (disc, position) order, followed by manual or unresolved entries in path
// order. Canonical tracks no file was matched to are listed in Missing.
func Build(in Input) ChangePlan {
	plan := ChangePlan{
		Mode:    in.Mode,
		Release: in.Release,
		Issues:  append([]reconcile.Issue(nil), in.Assignment.Issues...),
		Solver:  in.Assignment.Solver,
		Exact:   in.Assignment.Exact,
		Artwork: in.Artwork,
	}
	album := albumValues(in.Release)

	matched := make([]Entry, 0, len(in.Assignment.Pairs))
	seen := make(map[int]bool, len(in.Locals))
	for _, pair := range in.Assignment.Pairs {
		if !inRange(pair.LocalIndex, len(in.Locals)) || !inRange(pair.CanonicalIndex, len(in.Canonicals)) {
			continue
		}
		seen[pair.LocalIndex] = true
		current := currentFor(in, pair.LocalIndex)
		canonical := in.Canonicals[pair.CanonicalIndex]
		matched = append(matched, Entry{
			LocalIndex:     pair.LocalIndex,
			Local:          in.Locals[pair.LocalIndex],
			Current:        current,
			Proposed:       current.Overlay(album).Overlay(canonicalValues(canonical, in)),
			Provenance:     ProvenanceMatched,
			Score:          pair.Score,
			CanonicalIndex: pair.CanonicalIndex,
		})
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := in.Canonicals[matched[i].CanonicalIndex], in.Canonicals[matched[j].CanonicalIndex]
		if a.DiscNumber != b.DiscNumber {
			return a.DiscNumber < b.DiscNumber
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return matched[i].LocalIndex < matched[j].LocalIndex
	})

	rest := make([]int, 0, len(in.Locals)-len(seen))
	for i := range in.Locals {
		if !seen[i] {
			rest = append(rest, i)
		}
	}
	sort.SliceStable(rest, func(i, j int) bool {
		return in.Locals[rest[i]].Path < in.Locals[rest[j]].Path
	})

	provenance := ProvenanceUnresolved
	if in.Mode == ModeManual {
		provenance = ProvenanceManual
	}
	total := len(in.Locals)
	if len(in.Canonicals) > total {
		total = len(in.Canonicals)
	}
	plan.Entries = matched
	for ordinal, idx := range rest {
		current := currentFor(in, idx)
		proposed := current.Overlay(album).Overlay(Suggest(in.Locals[idx], current, in.Release, ordinal+1))
		if proposed.TrackTotal == 0 && in.Mode == ModeManual {
			proposed.TrackTotal = total
		}
		plan.Entries = append(plan.Entries, Entry{
			LocalIndex:     idx,
			Local:          in.Locals[idx],
			Current:        current,
			Proposed:       proposed,
			Provenance:     provenance,
			CanonicalIndex: -1,
		})
	}

	for _, j := range in.Assignment.UnmatchedCanonicals {
		if inRange(j, len(in.Canonicals)) {
			plan.Missing = append(plan.Missing, in.Canonicals[j])
		}
	}
	return plan
}

// Suggest pre-fills values for a file that has no canonical match. Title
// comes from the existing tag, else the file name. Artist comes from the
// existing tag, else the file name, else the album artist. Track number comes
// from the existing tag, else the file name, else ordinal.
func Suggest(local reconcile.LocalTrack, current TagValues, release Release, ordinal int) TagValues {
	parsed := textutil.ParseFileName(local.FilenameHint)
	return TagValues{
		Title:       firstNonEmpty(current.Title, local.Title, parsed.Title),
		Artist:      firstNonEmpty(current.Artist, local.Artist, parsed.Artist, release.Artist),
		TrackNumber: firstPositive(current.TrackNumber, local.TrackNumber, parsed.TrackNumber, ordinal),
		DiscNumber:  firstPositive(current.DiscNumber, local.DiscNumber, parsed.DiscNumber),
	}
}

func albumValues(r Release) TagValues {
	return TagValues{
		Album:           r.Title,
		AlbumArtist:     r.Artist,
		Date:            r.Date,
		DiscTotal:       r.DiscCount,
		ReleaseID:       r.ID,
		ReleaseArtistID: r.ArtistID,
	}
}

func canonicalValues(c reconcile.CanonicalTrack, in Input) TagValues {
	return TagValues{
		Title:       c.Title,
		Artist:      firstNonEmpty(c.Artist, in.Release.Artist),
		TrackNumber: c.Position,
		TrackTotal:  discTrackCount(c.DiscNumber, in),
		DiscNumber:  c.DiscNumber,
		DiscTitle:   c.DiscTitle,
		ArtistID:    c.ArtistID,
		TrackID:     c.TrackID,
		RecordingID: c.RecordingID,
	}
}

func discTrackCount(disc int, in Input) int {
	if n, ok := in.Release.DiscTrackCounts[disc]; ok && n > 0 {
		return n
	}
	count := 0
	for _, c := range in.Canonicals {
		if c.DiscNumber == disc {
			count++
		}
	}
	return count
}

func currentFor(in Input, idx int) TagValues {
	if idx < len(in.Current) {
		return in.Current[idx]
	}
	return TagValues{}
}

func inRange(idx, n int) bool {
	return idx >= 0 && idx < n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
