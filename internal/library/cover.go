package library

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mbtagger/internal/tagplan"
)

var (
	coverBaseNames  = []string{"cover", "folder", "album", "front", "artwork"}
	coverExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}
)

// FindCoverArt looks for a conventionally named cover image in dir, then for
// any image at all. It returns "" when there is none.
func FindCoverArt(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read directory: %w", err)
	}
	images := make(map[string]string)
	var names []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if imageMIMEType(ext) == "" {
			continue
		}
		images[strings.ToLower(name)] = name
		names = append(names, name)
	}
	for _, base := range coverBaseNames {
		for _, ext := range coverExtensions {
			if name, ok := images[base+ext]; ok {
				return filepath.Join(dir, name), nil
			}
		}
	}
	if len(names) == 0 {
		return "", nil
	}
	sort.Strings(names)
	return filepath.Join(dir, names[0]), nil
}

// LoadCoverArt reads the cover found by FindCoverArt. It returns nil when the
// directory has no image; images larger than maxBytes are rejected.
func LoadCoverArt(dir string, maxBytes int64) (*tagplan.Artwork, error) {
	path, err := FindCoverArt(dir)
	if err != nil || path == "" {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cover: %w", err)
	}
	defer f.Close()

	reader := io.Reader(f)
	if maxBytes > 0 {
		reader = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read cover: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("cover %s exceeds %d bytes", path, maxBytes)
	}
	return &tagplan.Artwork{
		Data:     data,
		MIMEType: imageMIMEType(strings.ToLower(filepath.Ext(path))),
		Source:   path,
	}, nil
}

func imageMIMEType(ext string) string {
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return ""
	}
}
