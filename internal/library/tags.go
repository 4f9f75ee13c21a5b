package library

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"

	"mbtagger/internal/tagplan"
)

const (
	frameTitle        = "TIT2"
	frameArtist       = "TPE1"
	frameAlbum        = "TALB"
	frameAlbumArtist  = "TPE2"
	frameTrack        = "TRCK"
	framePart         = "TPOS"
	frameSetSubtitle  = "TSST"
	frameReleaseTime  = "TDRL"
	frameLength       = "TLEN"
	frameUserText     = "TXXX"
	frameAttachedPict = "APIC"
)

// TXXX descriptions used by MusicBrainz Picard.
const (
	descAlbumID       = "MusicBrainz Album Id"
	descAlbumArtistID = "MusicBrainz Album Artist Id"
	descArtistID      = "MusicBrainz Artist Id"
	descTrackID       = "MusicBrainz Release Track Id"
	descRecordingID   = "MusicBrainz Recording Id"
)

// idFrames maps each MusicBrainz id field onto its TXXX description.
var idFrames = []struct {
	desc  string
	field func(*tagplan.TagValues) *string
}{
	{descAlbumID, func(v *tagplan.TagValues) *string { return &v.ReleaseID }},
	{descAlbumArtistID, func(v *tagplan.TagValues) *string { return &v.ReleaseArtistID }},
	{descArtistID, func(v *tagplan.TagValues) *string { return &v.ArtistID }},
	{descTrackID, func(v *tagplan.TagValues) *string { return &v.TrackID }},
	{descRecordingID, func(v *tagplan.TagValues) *string { return &v.RecordingID }},
}

// ReadTags decodes the tag values and TLEN duration (seconds, 0 if absent)
// of one file.
func ReadTags(path string) (tagplan.TagValues, float64, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return tagplan.TagValues{}, 0, fmt.Errorf("open id3 tag: %w", err)
	}
	defer tag.Close()
	values, duration := decodeTag(tag)
	return values, duration, nil
}

func decodeTag(tag *id3v2.Tag) (tagplan.TagValues, float64) {
	text := func(id string) string {
		return strings.TrimSpace(tag.GetTextFrame(id).Text)
	}
	values := tagplan.TagValues{
		Title:       text(frameTitle),
		Artist:      text(frameArtist),
		Album:       text(frameAlbum),
		AlbumArtist: text(frameAlbumArtist),
		DiscTitle:   text(frameSetSubtitle),
		Date:        strings.TrimSpace(tag.Year()),
	}
	values.TrackNumber, values.TrackTotal = ParseFraction(text(frameTrack))
	values.DiscNumber, values.DiscTotal = ParseFraction(text(framePart))

	for _, frame := range tag.GetFrames(frameUserText) {
		udtf, ok := frame.(id3v2.UserDefinedTextFrame)
		if !ok {
			continue
		}
		for _, idf := range idFrames {
			if strings.EqualFold(udtf.Description, idf.desc) {
				*idf.field(&values) = strings.TrimSpace(udtf.Value)
			}
		}
	}

	var duration float64
	if ms, err := strconv.Atoi(text(frameLength)); err == nil && ms > 0 {
		duration = float64(ms) / 1000
	}
	return values, duration
}

// ParseFraction reads "n" or "n/total". Unparseable parts are 0.
func ParseFraction(raw string) (int, int) {
	num, total, _ := strings.Cut(strings.TrimSpace(raw), "/")
	n, _ := strconv.Atoi(strings.TrimSpace(num))
	t, _ := strconv.Atoi(strings.TrimSpace(total))
	if n < 0 {
		n = 0
	}
	if t < 0 {
		t = 0
	}
	return n, t
}

type encodeOptions struct {
	musicBrainzIDs bool
	artwork        *tagplan.Artwork
}

// encodeTag applies values onto tag as ID3v2.4. Empty values leave the
// existing frame alone.
func encodeTag(tag *id3v2.Tag, values tagplan.TagValues, opts encodeOptions) {
	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)

	setText := func(id, value string) {
		if value = strings.TrimSpace(value); value != "" {
			tag.AddTextFrame(id, id3v2.EncodingUTF8, value)
		}
	}
	setText(frameTitle, values.Title)
	setText(frameArtist, values.Artist)
	setText(frameAlbum, values.Album)
	setText(frameAlbumArtist, values.AlbumArtist)
	setText(frameTrack, tagplan.Fraction(values.TrackNumber, values.TrackTotal))
	if values.DiscTotal > 1 {
		setText(framePart, tagplan.Fraction(values.DiscNumber, values.DiscTotal))
		setText(frameSetSubtitle, values.DiscTitle)
	}
	if date := strings.TrimSpace(values.Date); date != "" {
		tag.SetYear(date)
		setText(frameReleaseTime, date)
	}

	if opts.musicBrainzIDs {
		replaceUserText(tag, values)
	}
	if opts.artwork != nil && len(opts.artwork.Data) > 0 {
		replaceFrontCover(tag, opts.artwork)
	}
}

// replaceUserText rewrites the MusicBrainz TXXX frames and keeps all others.
func replaceUserText(tag *id3v2.Tag, values tagplan.TagValues) {
	var keep []id3v2.UserDefinedTextFrame
	for _, frame := range tag.GetFrames(frameUserText) {
		udtf, ok := frame.(id3v2.UserDefinedTextFrame)
		if !ok || isIDDescription(udtf.Description) {
			continue
		}
		keep = append(keep, udtf)
	}
	tag.DeleteFrames(frameUserText)
	for _, udtf := range keep {
		tag.AddUserDefinedTextFrame(udtf)
	}
	for _, idf := range idFrames {
		value := strings.TrimSpace(*idf.field(&values))
		if value == "" {
			continue
		}
		tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: idf.desc,
			Value:       value,
		})
	}
}

func isIDDescription(desc string) bool {
	for _, idf := range idFrames {
		if strings.EqualFold(desc, idf.desc) {
			return true
		}
	}
	return false
}

// replaceFrontCover drops existing front covers and attaches artwork.
func replaceFrontCover(tag *id3v2.Tag, artwork *tagplan.Artwork) {
	var keep []id3v2.PictureFrame
	for _, frame := range tag.GetFrames(frameAttachedPict) {
		pf, ok := frame.(id3v2.PictureFrame)
		if !ok || pf.PictureType == id3v2.PTFrontCover {
			continue
		}
		keep = append(keep, pf)
	}
	tag.DeleteFrames(frameAttachedPict)
	for _, pf := range keep {
		tag.AddAttachedPicture(pf)
	}
	mimeType := artwork.MIMEType
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    mimeType,
		PictureType: id3v2.PTFrontCover,
		Description: "Front Cover",
		Picture:     artwork.Data,
	})
}
