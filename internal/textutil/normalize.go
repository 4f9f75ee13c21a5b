package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// trackPrefixPattern matches a leading track number once punctuation has been
// reduced to spaces ("01 - intro" arrives here as "01 intro").
var trackPrefixPattern = regexp.MustCompile(`^[0-9]{1,3} (\S.*)$`)

// foldReplacer transliterates letters that have no canonical decomposition.
var foldReplacer = strings.NewReplacer(
	"æ", "ae",
	"œ", "oe",
	"ø", "o",
	"ł", "l",
	"đ", "d",
	"ð", "d",
	"þ", "th",
	"ı", "i",
	"&", " and ",
)

// Normalize converts raw file names, tag values, and catalog titles into a
// comparison key: case folded, diacritics removed, punctuation reduced to
// single spaces, and a leading track-number prefix stripped.
func Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	folded := fold(raw)
	folded = foldReplacer.Replace(folded)

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
			continue
		}
		pendingSpace = true
	}

	key := b.String()
	for {
		m := trackPrefixPattern.FindStringSubmatch(key)
		if m == nil {
			return key
		}
		key = m[1]
	}
}

// fold applies compatibility decomposition, drops combining marks, and case
// folds. The decomposition runs a second time because folding can produce
// characters that decompose further.
func fold(s string) string {
	chain := transform.Chain(
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
		cases.Fold(),
		runes.Map(settleCherokee),
		norm.NFKD,
		runes.Remove(runes.In(unicode.Mn)),
	)
	out, _, err := transform.String(chain, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

// settleCherokee maps Cherokee small letters onto their capital forms. Fold
// output for Cherokee flips case when folded again, so both cases are pinned
// to the capitals.
func settleCherokee(r rune) rune {
	switch {
	case r >= 0xAB70 && r <= 0xABBF:
		return r - 0xAB70 + 0x13A0
	case r >= 0x13F8 && r <= 0x13FD:
		return r - 8
	}
	return r
}
