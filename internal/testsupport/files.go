package testsupport

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/bogem/id3v2/v2"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// Track describes the ID3 frames of a generated MP3 fixture. Empty fields are
// not written.
type Track struct {
	Title    string
	Artist   string
	Album    string
	Track    string
	Disc     string
	LengthMS int
}

// WriteMP3 writes a small fake audio payload at path and tags it. The payload
// is not decodable audio; the tag codec does not care.
func WriteMP3(t testing.TB, path string, track Track) {
	t.Helper()

	WriteFile(t, path, 2048)
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("open tag %s: %v", path, err)
	}
	defer tag.Close()

	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	frames := map[string]string{
		"TIT2": track.Title,
		"TPE1": track.Artist,
		"TALB": track.Album,
		"TRCK": track.Track,
		"TPOS": track.Disc,
	}
	if track.LengthMS > 0 {
		frames["TLEN"] = strconv.Itoa(track.LengthMS)
	}
	for id, value := range frames {
		if value != "" {
			tag.AddTextFrame(id, id3v2.EncodingUTF8, value)
		}
	}
	if err := tag.Save(); err != nil {
		t.Fatalf("save tag %s: %v", path, err)
	}
}
