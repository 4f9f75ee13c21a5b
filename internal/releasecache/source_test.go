package releasecache

import (
	"context"
	"errors"
	"testing"
	"time"

	"mbtagger/internal/musicbrainz"
	"mbtagger/internal/services"
)

type stubFetcher struct {
	release *musicbrainz.Release
	err     error
	calls   int
}

func (f *stubFetcher) Release(_ context.Context, _ string) (*musicbrainz.Release, error) {
	f.calls++
	return f.release, f.err
}

func (f *stubFetcher) CoverArt(context.Context, string) (*musicbrainz.Image, error) {
	return &musicbrainz.Image{MIMEType: "image/jpeg"}, nil
}

func TestSourceCachesReleases(t *testing.T) {
	fetcher := &stubFetcher{release: testRelease(testID, "Harbor Lights")}
	source := NewSource(fetcher, openTestStore(t, time.Hour), nil)
	ctx := context.Background()

	for range 3 {
		release, err := source.Release(ctx, testID)
		if err != nil {
			t.Fatalf("Release: %v", err)
		}
		if release.Title != "Harbor Lights" {
			t.Fatalf("title = %q", release.Title)
		}
	}
	if fetcher.calls != 1 {
		t.Fatalf("fetcher called %d times, want 1", fetcher.calls)
	}
}

func TestSourceWithoutStore(t *testing.T) {
	fetcher := &stubFetcher{release: testRelease(testID, "Harbor Lights")}
	source := NewSource(fetcher, nil, nil)
	for range 2 {
		if _, err := source.Release(context.Background(), testID); err != nil {
			t.Fatalf("Release: %v", err)
		}
	}
	if fetcher.calls != 2 {
		t.Fatalf("fetcher called %d times, want 2", fetcher.calls)
	}
	if img, err := source.CoverArt(context.Background(), testID); err != nil || img.MIMEType != "image/jpeg" {
		t.Fatalf("CoverArt = %+v, %v", img, err)
	}
}

func TestSourcePropagatesFetchErrors(t *testing.T) {
	fetcher := &stubFetcher{err: services.Wrap(services.ErrNotFound, "catalog", "release lookup", "gone", nil)}
	source := NewSource(fetcher, openTestStore(t, time.Hour), nil)
	if _, err := source.Release(context.Background(), testID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := source.Release(context.Background(), "bogus"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}
