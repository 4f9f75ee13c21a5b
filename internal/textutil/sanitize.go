package textutil

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
	"unicode"
)

const maxSlugRunes = 32

// PathToken turns a directory path into a short file-name-safe token: a slug
// of the last path element plus a hash of the whole cleaned path, so two
// albums that share a folder name still get distinct tokens.
func PathToken(path string) string {
	cleaned := filepath.Clean(strings.TrimSpace(path))
	sum := sha256.Sum256([]byte(cleaned))
	hash := hex.EncodeToString(sum[:4])

	slug := Slug(filepath.Base(cleaned))
	if slug == "" {
		return hash
	}
	return slug + "-" + hash
}

// Slug case folds s, drops diacritics, and joins the remaining letter and
// digit runs with single hyphens.
func Slug(s string) string {
	var b strings.Builder
	pendingHyphen := false
	n := 0
	for _, r := range foldReplacer.Replace(fold(s)) {
		if n >= maxSlugRunes {
			break
		}
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
				n++
			}
			b.WriteRune(unicode.ToLower(r))
			n++
			pendingHyphen = false
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
