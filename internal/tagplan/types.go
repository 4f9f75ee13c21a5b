package tagplan

import (
	"strconv"

	"mbtagger/internal/reconcile"
)

// Mode selects where canonical tracks come from.
type Mode string

const (
	ModeCatalog Mode = "catalog"
	ModeManual  Mode = "manual"
)

// Provenance records how an entry's proposed values were obtained.
type Provenance string

const (
	ProvenanceMatched    Provenance = "matched"
	ProvenanceManual     Provenance = "manual"
	ProvenanceUnresolved Provenance = "unresolved"
)

// TagValues is the set of tag fields the tool reads and writes. Zero values
// mean absent.
type TagValues struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	TrackNumber int
	TrackTotal  int
	DiscNumber  int
	DiscTotal   int
	DiscTitle   string
	Date        string

	ReleaseID       string
	ReleaseArtistID string
	ArtistID        string
	TrackID         string
	RecordingID     string
}

// FieldChange is one differing field between current and proposed values.
type FieldChange struct {
	Field string
	Old   string
	New   string
}

// Overlay returns v with every non-empty field of over applied on top.
func (v TagValues) Overlay(over TagValues) TagValues {
	out := v
	setString(&out.Title, over.Title)
	setString(&out.Artist, over.Artist)
	setString(&out.Album, over.Album)
	setString(&out.AlbumArtist, over.AlbumArtist)
	setInt(&out.TrackNumber, over.TrackNumber)
	setInt(&out.TrackTotal, over.TrackTotal)
	setInt(&out.DiscNumber, over.DiscNumber)
	setInt(&out.DiscTotal, over.DiscTotal)
	setString(&out.DiscTitle, over.DiscTitle)
	setString(&out.Date, over.Date)
	setString(&out.ReleaseID, over.ReleaseID)
	setString(&out.ReleaseArtistID, over.ReleaseArtistID)
	setString(&out.ArtistID, over.ArtistID)
	setString(&out.TrackID, over.TrackID)
	setString(&out.RecordingID, over.RecordingID)
	return out
}

// Diff lists the fields that differ from v to next, in a fixed field order.
func (v TagValues) Diff(next TagValues) []FieldChange {
	var changes []FieldChange
	add := func(field, old, updated string) {
		if old != updated {
			changes = append(changes, FieldChange{Field: field, Old: old, New: updated})
		}
	}
	add("title", v.Title, next.Title)
	add("artist", v.Artist, next.Artist)
	add("album", v.Album, next.Album)
	add("album_artist", v.AlbumArtist, next.AlbumArtist)
	add("track", Fraction(v.TrackNumber, v.TrackTotal), Fraction(next.TrackNumber, next.TrackTotal))
	add("disc", Fraction(v.DiscNumber, v.DiscTotal), Fraction(next.DiscNumber, next.DiscTotal))
	add("disc_title", v.DiscTitle, next.DiscTitle)
	add("date", v.Date, next.Date)
	add("musicbrainz_album_id", v.ReleaseID, next.ReleaseID)
	add("musicbrainz_album_artist_id", v.ReleaseArtistID, next.ReleaseArtistID)
	add("musicbrainz_artist_id", v.ArtistID, next.ArtistID)
	add("musicbrainz_release_track_id", v.TrackID, next.TrackID)
	add("musicbrainz_recording_id", v.RecordingID, next.RecordingID)
	return changes
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func setInt(dst *int, value int) {
	if value > 0 {
		*dst = value
	}
}

// Fraction renders "n/total" the way TRCK and TPOS frames store it.
func Fraction(n, total int) string {
	switch {
	case n <= 0 && total <= 0:
		return ""
	case total <= 0:
		return strconv.Itoa(n)
	default:
		return strconv.Itoa(n) + "/" + strconv.Itoa(total)
	}
}

// Release summarizes album-level values applied to every entry.
type Release struct {
	ID              string
	Title           string
	Artist          string
	ArtistID        string
	Date            string
	DiscCount       int
	DiscTrackCounts map[int]int
}

// Artwork is a front cover image to embed.
type Artwork struct {
	Data     []byte
	MIMEType string
	Source   string
}

// Entry is the proposed change for one local file.
type Entry struct {
	LocalIndex     int
	Local          reconcile.LocalTrack
	Current        TagValues
	Proposed       TagValues
	Provenance     Provenance
	Score          float64
	CanonicalIndex int
	Skipped        bool
}

// Writable reports whether the entry may be handed to a tag writer.
func (e Entry) Writable() bool {
	return !e.Skipped && (e.Provenance == ProvenanceMatched || e.Provenance == ProvenanceManual)
}

// Changes lists the fields the entry would modify.
func (e Entry) Changes() []FieldChange {
	return e.Current.Diff(e.Proposed)
}

// ChangePlan is the full set of proposed changes for one run.
type ChangePlan struct {
	Mode    Mode
	Release Release
	Entries []Entry
	Missing []reconcile.CanonicalTrack
	Issues  []reconcile.Issue
	Solver  reconcile.Solver
	Exact   bool
	Artwork *Artwork
}

// Counts tallies entries by provenance.
type Counts struct {
	Matched    int
	Manual     int
	Unresolved int
	Skipped    int
	Missing    int
	Changed    int
}

// Counts summarizes the plan for display and confirmation prompts.
func (p ChangePlan) Counts() Counts {
	c := Counts{Missing: len(p.Missing)}
	for _, e := range p.Entries {
		switch e.Provenance {
		case ProvenanceMatched:
			c.Matched++
		case ProvenanceManual:
			c.Manual++
		case ProvenanceUnresolved:
			c.Unresolved++
		}
		if e.Skipped {
			c.Skipped++
		}
		if e.Writable() && len(e.Changes()) > 0 {
			c.Changed++
		}
	}
	return c
}

// HasUnresolved reports whether any entry is still unresolved.
func (p ChangePlan) HasUnresolved() bool {
	for _, e := range p.Entries {
		if e.Provenance == ProvenanceUnresolved {
			return true
		}
	}
	return false
}

// Writable returns the indices of entries a writer may touch.
func (p ChangePlan) Writable() []int {
	var out []int
	for i, e := range p.Entries {
		if e.Writable() {
			out = append(out, i)
		}
	}
	return out
}
