package textutil

import (
	"regexp"
	"slices"
	"strings"
)

// qualifierPattern matches bracketed version annotations such as
// "(Remastered 2011)" or "[Live]".
var qualifierPattern = regexp.MustCompile(`\(([^()]*)\)|\[([^\[\]]*)\]`)

// SplitQualifiers separates a title from its bracketed qualifiers. The base
// title is returned trimmed; qualifiers are returned as comparison keys,
// sorted and deduplicated, with empty groups dropped.
func SplitQualifiers(raw string) (string, []string) {
	matches := qualifierPattern.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return strings.TrimSpace(raw), nil
	}
	base := qualifierPattern.ReplaceAllString(raw, " ")
	qualifiers := make([]string, 0, len(matches))
	for _, m := range matches {
		inner := m[1]
		if inner == "" {
			inner = m[2]
		}
		if key := Normalize(inner); key != "" {
			qualifiers = append(qualifiers, key)
		}
	}
	slices.Sort(qualifiers)
	qualifiers = slices.Compact(qualifiers)
	return strings.Join(strings.Fields(base), " "), qualifiers
}
