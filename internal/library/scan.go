package library

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"mbtagger/internal/reconcile"
	"mbtagger/internal/services"
	"mbtagger/internal/tagplan"
	"mbtagger/internal/textutil"
)

const (
	// DefaultMaxDepth covers disc subdirectories under an album directory.
	DefaultMaxDepth = 3
	// ManualMaxDepth keeps manual runs to the files directly in the directory.
	ManualMaxDepth = 1

	tagReadWorkers = 4
)

// ScanOptions bounds a directory scan. MaxDepth 1 lists only the files
// directly inside the directory.
type ScanOptions struct {
	MaxDepth   int
	Extensions []string
}

// File is one audio file found by Scan.
type File struct {
	Path            string
	RelPath         string
	Tags            tagplan.TagValues
	DurationSeconds float64
	Name            textutil.FileNameParts
	TagErr          error
}

// LocalTrack converts the file into reconciler input. Track and disc numbers
// fall back to the file name when the tag has none.
func (f File) LocalTrack() reconcile.LocalTrack {
	return reconcile.LocalTrack{
		Path:            f.Path,
		Title:           f.Tags.Title,
		Artist:          f.Tags.Artist,
		TrackNumber:     firstPositive(f.Tags.TrackNumber, f.Name.TrackNumber),
		DiscNumber:      firstPositive(f.Tags.DiscNumber, f.Name.DiscNumber),
		FilenameHint:    textutil.FileStem(f.Path),
		DurationSeconds: f.DurationSeconds,
	}
}

// Scan lists audio files under dir in path order and reads their tags.
// Unreadable tags are recorded on the File, not returned as errors.
func Scan(ctx context.Context, dir string, opts ScanOptions) ([]File, error) {
	root, err := filepath.Abs(strings.TrimSpace(dir))
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "scan", "resolve directory", dir, err)
	}
	info, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, services.Wrap(services.ErrNotFound, "scan", "stat directory", root+" does not exist", nil)
	case err != nil:
		return nil, services.Wrap(services.ErrValidation, "scan", "stat directory", root, err)
	case !info.IsDir():
		return nil, services.Wrap(services.ErrValidation, "scan", "stat directory", root+" is not a directory", nil)
	}

	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = []string{".mp3"}
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		depth := strings.Count(rel, string(filepath.Separator)) + 1
		if d.IsDir() {
			if depth >= maxDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && hasExtension(path, exts) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, services.Wrap(services.ErrValidation, "scan", "walk directory", root, err)
	}
	sort.Strings(paths)

	files := make([]File, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(tagReadWorkers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rel, _ := filepath.Rel(root, path)
			file := File{Path: path, RelPath: rel, Name: textutil.ParseFileName(path)}
			file.Tags, file.DurationSeconds, file.TagErr = ReadTags(path)
			files[i] = file
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// LocalTracks converts scanned files into reconciler input, preserving order.
func LocalTracks(files []File) []reconcile.LocalTrack {
	out := make([]reconcile.LocalTrack, len(files))
	for i, f := range files {
		out[i] = f.LocalTrack()
	}
	return out
}

// CurrentTags returns the tag values of each file, preserving order.
func CurrentTags(files []File) []tagplan.TagValues {
	out := make([]tagplan.TagValues, len(files))
	for i, f := range files {
		out[i] = f.Tags
	}
	return out
}

func hasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range exts {
		if ext == strings.ToLower(want) {
			return true
		}
	}
	return false
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
