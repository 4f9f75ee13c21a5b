package workflow

import (
	"strings"
	"testing"

	"mbtagger/internal/musicbrainz"
)

func TestCanonicalTracksFlattensMedia(t *testing.T) {
	release := &musicbrainz.Release{
		ID:           testReleaseID,
		Title:        "Double",
		ArtistCredit: []musicbrainz.ArtistCredit{{Name: "Band", Artist: musicbrainz.Artist{ID: "band"}}},
		Media: []musicbrainz.Medium{
			{Position: 2, Title: "Night", Tracks: []musicbrainz.Track{
				{ID: "t3", Position: 1, Title: "Moon", Length: 61000},
			}},
			{Position: 1, TrackCount: 3, Tracks: []musicbrainz.Track{
				{ID: "t1", Position: 1, Title: "Sun", Recording: musicbrainz.Recording{ID: "r1", Length: 120500}},
				{ID: "t2", Title: "", Recording: musicbrainz.Recording{ID: "r2", Title: "Sky"},
					ArtistCredit: []musicbrainz.ArtistCredit{{Name: "Guest", Artist: musicbrainz.Artist{ID: "guest"}}}},
			}},
		},
	}

	tracks := CanonicalTracks(release)
	if len(tracks) != 3 {
		t.Fatalf("tracks = %d", len(tracks))
	}
	sun, sky, moon := tracks[0], tracks[1], tracks[2]
	if sun.Title != "Sun" || sun.DiscNumber != 1 || sun.Position != 1 || sun.DurationSeconds != 120.5 || sun.Artist != "Band" || sun.ArtistID != "band" {
		t.Fatalf("sun = %+v", sun)
	}
	if sky.Title != "Sky" || sky.Position != 2 || sky.Artist != "Guest" || sky.ArtistID != "guest" || sky.RecordingID != "r2" {
		t.Fatalf("sky = %+v", sky)
	}
	if moon.DiscNumber != 2 || moon.DiscTitle != "Night" || moon.DurationSeconds != 61 {
		t.Fatalf("moon = %+v", moon)
	}

	summary := ReleaseSummary(release)
	if summary.DiscCount != 2 || summary.DiscTrackCounts[1] != 3 || summary.DiscTrackCounts[2] != 1 {
		t.Fatalf("summary = %+v", summary)
	}
	if summary.Artist != "Band" || summary.ArtistID != "band" || summary.ID != testReleaseID {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestParseTracklist(t *testing.T) {
	input := `
# comment
Intro
Glass Houses | The Tides feat. Mara
Slow Burn | | 4:05
`
	tracks, err := ParseTracklist(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseTracklist: %v", err)
	}
	if len(tracks) != 3 {
		t.Fatalf("tracks = %+v", tracks)
	}
	if tracks[0].Title != "Intro" || tracks[0].Position != 1 || tracks[0].DiscNumber != 1 {
		t.Fatalf("first = %+v", tracks[0])
	}
	if tracks[1].Artist != "The Tides feat. Mara" {
		t.Fatalf("second = %+v", tracks[1])
	}
	if tracks[2].Position != 3 || tracks[2].DurationSeconds != 245 || tracks[2].Artist != "" {
		t.Fatalf("third = %+v", tracks[2])
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"", 0},
		{"45", 45},
		{"3:05", 185},
		{"1:02:03", 3723},
		{"2.5", 2.5},
	}
	for _, tt := range tests {
		got, err := parseClock(tt.raw)
		if err != nil || got != tt.want {
			t.Errorf("parseClock(%q) = %v, %v; want %v", tt.raw, got, err, tt.want)
		}
	}
}

func TestParseTracklistErrors(t *testing.T) {
	inputs := []string{
		" | artist",
		"Song | a | x:yy",
		"Song | a | 1:00 | extra",
		"Song | a | NaN",
		"Song | a | Inf",
		"Song | a | 1e9",
		"Song | a | 3:1e2",
		"Song | a | -5",
		"Song | a | +5",
	}
	for _, input := range inputs {
		if _, err := ParseTracklist(strings.NewReader(input)); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}
