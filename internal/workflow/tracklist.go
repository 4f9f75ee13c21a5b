package workflow

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"mbtagger/internal/reconcile"
	"mbtagger/internal/services"
)

// ReadTracklist loads a manual track list from path.
func ReadTracklist(path string) ([]reconcile.CanonicalTrack, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "tracklist", "open", path, err)
	}
	defer f.Close()
	tracks, err := ParseTracklist(f)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "tracklist", "parse", path, err)
	}
	return tracks, nil
}

// ParseTracklist reads one track per line as "title", "title | artist", or
// "title | artist | m:ss". Blank lines and lines starting with # are
// ignored. Positions follow line order on disc 1.
func ParseTracklist(r io.Reader) ([]reconcile.CanonicalTrack, error) {
	var tracks []reconcile.CanonicalTrack
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "|")
		track := reconcile.CanonicalTrack{
			Position:   len(tracks) + 1,
			DiscNumber: 1,
			Title:      strings.TrimSpace(fields[0]),
		}
		if track.Title == "" {
			return nil, fmt.Errorf("line %d: empty title", lineNo)
		}
		if len(fields) > 1 {
			track.Artist = strings.TrimSpace(fields[1])
		}
		if len(fields) > 2 {
			seconds, err := parseClock(strings.TrimSpace(fields[2]))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			track.DurationSeconds = seconds
		}
		if len(fields) > 3 {
			return nil, fmt.Errorf("line %d: too many fields", lineNo)
		}
		tracks = append(tracks, track)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return tracks, nil
}

// clockPartPattern admits plain decimal numbers. Signs, exponents and
// NaN/Inf spellings never match.
var clockPartPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// parseClock reads "ss", "m:ss", or "h:mm:ss".
func parseClock(raw string) (float64, error) {
	if raw == "" {
		return 0, nil
	}
	parts := strings.Split(raw, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid duration %q", raw)
	}
	var total float64
	for _, part := range parts {
		if !clockPartPattern.MatchString(part) {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		n, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", raw)
		}
		total = total*60 + n
	}
	return total, nil
}
