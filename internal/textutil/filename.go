package textutil

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	discTrackPattern = regexp.MustCompile(`^(\d{1,2})-(\d{1,3})(?:\s*[-._]\s*|\s+)(.+)$`)
	trackPattern     = regexp.MustCompile(`^(\d{1,3})(?:\s*[-._)]\s*|\s+)(.+)$`)
	digitsPattern    = regexp.MustCompile(`^\d+$`)
)

// FileNameParts is what a conventional audio file name reveals about its track.
type FileNameParts struct {
	DiscNumber  int
	TrackNumber int
	Artist      string
	Title       string
}

// ParseFileName reads "01 - Title", "01. Artist - Title", "1-03 Title", and
// plain "Artist - Title" names. Directory and extension are ignored. An
// all-digit artist segment is treated as part of the title.
func ParseFileName(name string) FileNameParts {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if !strings.Contains(base, " ") {
		base = strings.ReplaceAll(base, "_", " ")
	}
	base = strings.TrimSpace(base)

	var parts FileNameParts
	if m := discTrackPattern.FindStringSubmatch(base); m != nil {
		parts.DiscNumber, _ = strconv.Atoi(m[1])
		parts.TrackNumber, _ = strconv.Atoi(m[2])
		base = m[3]
	} else if m := trackPattern.FindStringSubmatch(base); m != nil {
		parts.TrackNumber, _ = strconv.Atoi(m[1])
		base = m[2]
	}

	if artist, title, ok := strings.Cut(base, " - "); ok {
		artist = strings.TrimSpace(artist)
		title = strings.TrimSpace(title)
		if artist != "" && title != "" && !digitsPattern.MatchString(artist) {
			parts.Artist = artist
			parts.Title = title
			return parts
		}
	}
	parts.Title = strings.TrimSpace(base)
	return parts
}

// FileStem returns the file name without directory or extension.
func FileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
