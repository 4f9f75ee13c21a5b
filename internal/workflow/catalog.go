package workflow

import (
	"strings"

	"mbtagger/internal/musicbrainz"
	"mbtagger/internal/reconcile"
	"mbtagger/internal/tagplan"
)

// CanonicalTracks flattens a release into reconciler input ordered by disc
// and position. Track artists fall back to the release artist.
func CanonicalTracks(release *musicbrainz.Release) []reconcile.CanonicalTrack {
	if release == nil {
		return nil
	}
	releaseArtist := release.ArtistName()
	var out []reconcile.CanonicalTrack
	for mi, medium := range release.SortedMedia() {
		disc := medium.Position
		if disc <= 0 {
			disc = mi + 1
		}
		for ti, track := range medium.Tracks {
			position := track.Position
			if position <= 0 {
				position = ti + 1
			}
			title := strings.TrimSpace(track.Title)
			if title == "" {
				title = strings.TrimSpace(track.Recording.Title)
			}
			artist := musicbrainz.Credit(track.ArtistCredit)
			artistID := musicbrainz.CreditID(track.ArtistCredit)
			if artist == "" {
				artist = releaseArtist
				artistID = musicbrainz.CreditID(release.ArtistCredit)
			}
			length := track.Length
			if length <= 0 {
				length = track.Recording.Length
			}
			out = append(out, reconcile.CanonicalTrack{
				Position:        position,
				DiscNumber:      disc,
				Title:           title,
				Artist:          artist,
				DurationSeconds: float64(length) / 1000,
				DiscTitle:       strings.TrimSpace(medium.Title),
				TrackID:         track.ID,
				RecordingID:     track.Recording.ID,
				ArtistID:        artistID,
			})
		}
	}
	return out
}

// ReleaseSummary extracts the album-level values written to every file.
func ReleaseSummary(release *musicbrainz.Release) tagplan.Release {
	if release == nil {
		return tagplan.Release{}
	}
	summary := tagplan.Release{
		ID:              release.ID,
		Title:           strings.TrimSpace(release.Title),
		Artist:          release.ArtistName(),
		ArtistID:        musicbrainz.CreditID(release.ArtistCredit),
		Date:            strings.TrimSpace(release.Date),
		DiscCount:       len(release.Media),
		DiscTrackCounts: make(map[int]int, len(release.Media)),
	}
	for mi, medium := range release.SortedMedia() {
		disc := medium.Position
		if disc <= 0 {
			disc = mi + 1
		}
		count := len(medium.Tracks)
		if medium.TrackCount > count {
			count = medium.TrackCount
		}
		summary.DiscTrackCounts[disc] = count
	}
	return summary
}
