package library

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"
	"github.com/gofrs/flock"

	"mbtagger/internal/reconcile"
	"mbtagger/internal/services"
	"mbtagger/internal/tagplan"
	"mbtagger/internal/testsupport"
	"mbtagger/internal/textutil"
)

func writerPlan(dir string) *tagplan.ChangePlan {
	return &tagplan.ChangePlan{
		Mode: tagplan.ModeCatalog,
		Entries: []tagplan.Entry{
			{
				Local:      reconcile.LocalTrack{Path: filepath.Join(dir, "01.mp3")},
				Current:    tagplan.TagValues{Title: "paper boats"},
				Provenance: tagplan.ProvenanceMatched,
				Proposed: tagplan.TagValues{
					Title: "Paper Boats", Artist: "The Tides", Album: "Harbor Lights", AlbumArtist: "The Tides",
					TrackNumber: 1, TrackTotal: 2, DiscNumber: 1, DiscTotal: 2, DiscTitle: "Day",
					Date: "2004-05-12", ReleaseID: "rel-1", TrackID: "trk-1", RecordingID: "rec-1",
				},
			},
			{
				Local:      reconcile.LocalTrack{Path: filepath.Join(dir, "02.mp3")},
				Provenance: tagplan.ProvenanceUnresolved,
				Proposed:   tagplan.TagValues{Title: "never written"},
			},
		},
		Artwork: &tagplan.Artwork{Data: []byte("\x89PNG fake"), MIMEType: "image/png"},
	}
}

func TestWriterAppliesApprovedEntries(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteMP3(t, filepath.Join(dir, "01.mp3"), testsupport.Track{Title: "paper boats", LengthMS: 185000})
	testsupport.WriteMP3(t, filepath.Join(dir, "02.mp3"), testsupport.Track{Title: "untouched"})

	tag, err := id3v2.Open(filepath.Join(dir, "01.mp3"), id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{Encoding: id3v2.EncodingUTF8, Description: "REPLAYGAIN_TRACK_GAIN", Value: "-6.1 dB"})
	if err := tag.Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	tag.Close()

	plan := writerPlan(dir)
	writer := NewWriter(filepath.Join(t.TempDir(), "locks"), nil)
	report, err := writer.Apply(context.Background(), tagplan.Approval{Decision: tagplan.DecisionProceed, Entries: []int{0}}, plan)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if report.Written() != 1 || report.Err() != nil {
		t.Fatalf("report = %+v", report)
	}

	values, duration, err := ReadTags(filepath.Join(dir, "01.mp3"))
	if err != nil {
		t.Fatalf("ReadTags: %v", err)
	}
	if values != plan.Entries[0].Proposed {
		t.Fatalf("tags = %+v\nwant %+v", values, plan.Entries[0].Proposed)
	}
	if duration != 185 {
		t.Fatalf("duration = %v", duration)
	}

	tag, err = id3v2.Open(filepath.Join(dir, "01.mp3"), id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer tag.Close()
	pictures := tag.GetFrames("APIC")
	if len(pictures) != 1 {
		t.Fatalf("pictures = %d", len(pictures))
	}
	if pf := pictures[0].(id3v2.PictureFrame); pf.PictureType != id3v2.PTFrontCover || pf.MimeType != "image/png" {
		t.Fatalf("picture = %+v", pf)
	}
	var replayGain bool
	for _, f := range tag.GetFrames("TXXX") {
		if udtf := f.(id3v2.UserDefinedTextFrame); udtf.Description == "REPLAYGAIN_TRACK_GAIN" {
			replayGain = true
		}
	}
	if !replayGain {
		t.Fatal("unrelated TXXX frame was dropped")
	}

	untouched, _, err := ReadTags(filepath.Join(dir, "02.mp3"))
	if err != nil || untouched.Title != "untouched" {
		t.Fatalf("unresolved file changed: %+v %v", untouched, err)
	}
}

func TestWriterWritesEachFileOnce(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteMP3(t, filepath.Join(dir, "01.mp3"), testsupport.Track{})
	plan := writerPlan(dir)
	approval := tagplan.Approval{Decision: tagplan.DecisionProceed, Entries: []int{0, 0}}

	report, err := NewWriter("", nil).Apply(context.Background(), approval, plan)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(report.Results) != 2 || report.Results[0].Err != nil || !errors.Is(report.Results[1].Err, ErrAlreadyWritten) {
		t.Fatalf("results = %+v", report.Results)
	}
	if !errors.Is(report.Err(), services.ErrPartialWrite) {
		t.Fatalf("report err = %v", report.Err())
	}
}

func TestWriterFailuresAreIndependent(t *testing.T) {
	dir := t.TempDir()
	testsupport.WriteMP3(t, filepath.Join(dir, "02.mp3"), testsupport.Track{})
	plan := writerPlan(dir)
	plan.Entries[1].Provenance = tagplan.ProvenanceManual
	approval := tagplan.Approval{Decision: tagplan.DecisionProceed, Entries: []int{0, 1}}

	report, err := NewWriter("", nil).Apply(context.Background(), approval, plan)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if report.Results[0].Err == nil || report.Results[1].Err != nil {
		t.Fatalf("results = %+v", report.Results)
	}
	if got, _, _ := ReadTags(filepath.Join(dir, "02.mp3")); got.Title != "never written" {
		t.Fatalf("second file not written: %+v", got)
	}
}

func TestWriterRefusesUnapprovedPlans(t *testing.T) {
	for _, decision := range []tagplan.Decision{tagplan.DecisionAbort, tagplan.DecisionDryRun} {
		_, err := NewWriter("", nil).Apply(context.Background(), tagplan.Approval{Decision: decision, Entries: []int{0}}, writerPlan(t.TempDir()))
		if !errors.Is(err, services.ErrAborted) {
			t.Fatalf("%s: err = %v, want ErrAborted", decision, err)
		}
	}
}

func TestWriterHonorsAlbumLock(t *testing.T) {
	dir := t.TempDir()
	lockDir := t.TempDir()
	testsupport.WriteMP3(t, filepath.Join(dir, "01.mp3"), testsupport.Track{})

	held := flock.New(filepath.Join(lockDir, "album-"+textutil.PathToken(dir)+".lock"))
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("pre-lock: ok=%v err=%v", ok, err)
	}
	defer held.Unlock()

	_, err = NewWriter(lockDir, nil).Apply(context.Background(), tagplan.Approval{Decision: tagplan.DecisionProceed, Entries: []int{0}}, writerPlan(dir))
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("err = %v, want ErrTransient", err)
	}
}

func TestCommonDir(t *testing.T) {
	got := commonDir([]string{"/m/album/CD1/01.mp3", "/m/album/CD2/01.mp3", "/m/album/03.mp3"})
	if got != "/m/album" {
		t.Fatalf("commonDir = %s", got)
	}
}
