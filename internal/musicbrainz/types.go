package musicbrainz

import (
	"sort"
	"strings"
)

// Artist is a MusicBrainz artist reference.
type Artist struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	SortName string `json:"sort-name"`
}

// ArtistCredit is one element of a credited artist list.
type ArtistCredit struct {
	Name       string `json:"name"`
	JoinPhrase string `json:"joinphrase"`
	Artist     Artist `json:"artist"`
}

// Recording is the recording a track was taken from.
type Recording struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Length int    `json:"length"`
}

// Track is one track of a medium. Length is in milliseconds.
type Track struct {
	ID           string         `json:"id"`
	Number       string         `json:"number"`
	Position     int            `json:"position"`
	Title        string         `json:"title"`
	Length       int            `json:"length"`
	ArtistCredit []ArtistCredit `json:"artist-credit"`
	Recording    Recording      `json:"recording"`
}

// Medium is one disc of a release.
type Medium struct {
	Position   int     `json:"position"`
	Title      string  `json:"title"`
	Format     string  `json:"format"`
	TrackCount int     `json:"track-count"`
	Tracks     []Track `json:"tracks"`
}

// Release is the subset of the release resource the tagger uses.
type Release struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Date         string         `json:"date"`
	Status       string         `json:"status"`
	Country      string         `json:"country"`
	ArtistCredit []ArtistCredit `json:"artist-credit"`
	Media        []Medium       `json:"media"`
}

// Credit renders a credit list the way MusicBrainz displays it.
func Credit(credits []ArtistCredit) string {
	var b strings.Builder
	for _, c := range credits {
		name := c.Name
		if name == "" {
			name = c.Artist.Name
		}
		b.WriteString(name)
		b.WriteString(c.JoinPhrase)
	}
	return strings.TrimSpace(b.String())
}

// CreditID returns the id of the first credited artist.
func CreditID(credits []ArtistCredit) string {
	if len(credits) == 0 {
		return ""
	}
	return credits[0].Artist.ID
}

// ArtistName is the release-level credited artist.
func (r Release) ArtistName() string {
	return Credit(r.ArtistCredit)
}

// TrackCount sums the tracks of every medium.
func (r Release) TrackCount() int {
	total := 0
	for _, m := range r.Media {
		total += len(m.Tracks)
	}
	return total
}

// SortedMedia returns media ordered by position. Media without a position keep
// their listed order after numbered ones.
func (r Release) SortedMedia() []Medium {
	media := append([]Medium(nil), r.Media...)
	sort.SliceStable(media, func(i, j int) bool {
		a, b := media[i].Position, media[j].Position
		if a <= 0 || b <= 0 {
			return a > 0 && b <= 0
		}
		return a < b
	})
	return media
}

// Image is a downloaded cover image.
type Image struct {
	URL      string
	MIMEType string
	Data     []byte
}

type coverArtListing struct {
	Images []coverArtImage `json:"images"`
}

type coverArtImage struct {
	Front      bool              `json:"front"`
	Types      []string          `json:"types"`
	Image      string            `json:"image"`
	Thumbnails map[string]string `json:"thumbnails"`
}

// frontURL prefers the 1200px thumbnail, then the large one, then the original.
func (l coverArtListing) frontURL() string {
	for _, img := range l.Images {
		if !img.Front && !hasType(img.Types, "Front") {
			continue
		}
		for _, size := range []string{"1200", "large", "500"} {
			if u := strings.TrimSpace(img.Thumbnails[size]); u != "" {
				return u
			}
		}
		return strings.TrimSpace(img.Image)
	}
	return ""
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if strings.EqualFold(t, want) {
			return true
		}
	}
	return false
}
