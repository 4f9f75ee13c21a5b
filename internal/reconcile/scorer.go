package reconcile

import (
	"math"
	"slices"
	"strings"

	"mbtagger/internal/textutil"
)

// Scorer rates how well a local track matches a canonical track.
type Scorer struct {
	policy Policy
}

// NewScorer builds a scorer; zero-valued policy fields take their defaults.
func NewScorer(policy Policy) *Scorer {
	return &Scorer{policy: policy.normalized()}
}

// Score returns a value in [0, 1]. Identical title, track number, and
// duration score exactly 1.
func (s *Scorer) Score(local LocalTrack, canonical CanonicalTrack) float64 {
	return s.score(prepareLocal(local), prepareCanonical(canonical))
}

// titleKey holds the comparison keys derived from one raw title.
type titleKey struct {
	full       string
	base       string
	qualifiers []string
}

func newTitleKey(raw string) titleKey {
	base, qualifiers := textutil.SplitQualifiers(raw)
	return titleKey{
		full:       textutil.Normalize(raw),
		base:       textutil.Normalize(base),
		qualifiers: qualifiers,
	}
}

type preparedLocal struct {
	titles   []titleKey
	track    int
	disc     int
	duration float64
}

type preparedCanonical struct {
	title    titleKey
	position int
	disc     int
	duration float64
}

func prepareLocal(l LocalTrack) preparedLocal {
	return preparedLocal{
		titles:   localTitleKeys(l),
		track:    l.TrackNumber,
		disc:     l.DiscNumber,
		duration: l.DurationSeconds,
	}
}

func prepareCanonical(c CanonicalTrack) preparedCanonical {
	return preparedCanonical{
		title:    newTitleKey(c.Title),
		position: c.Position,
		disc:     c.DiscNumber,
		duration: c.DurationSeconds,
	}
}

// localTitle prefers the embedded tag and falls back to the filename hint.
func localTitle(l LocalTrack) string {
	if title := strings.TrimSpace(l.Title); title != "" {
		return title
	}
	return l.FilenameHint
}

// localTitleKeys returns the title candidates for a local track. Without a
// tag, an "Artist - Title" file name also offers its title segment alone.
func localTitleKeys(l LocalTrack) []titleKey {
	keys := []titleKey{newTitleKey(localTitle(l))}
	if strings.TrimSpace(l.Title) != "" {
		return keys
	}
	if parts := textutil.ParseFileName(l.FilenameHint); parts.Artist != "" && parts.Title != "" {
		keys = append(keys, newTitleKey(parts.Title))
	}
	return keys
}

func (s *Scorer) score(l preparedLocal, c preparedCanonical) float64 {
	p := s.policy
	var title float64
	for _, key := range l.titles {
		title = max(title, s.titleSimilarity(key, c.title))
	}
	num := p.TitleWeight * title
	den := p.TitleWeight

	if l.track > 0 {
		num += p.TrackNumberWeight * trackAgreement(l, c)
		den += p.TrackNumberWeight
	}
	if l.duration > 0 && c.duration > 0 {
		num += p.DurationWeight * s.durationCloseness(math.Abs(l.duration-c.duration))
		den += p.DurationWeight
	}
	if den <= 0 {
		return 0
	}
	return clamp01(num / den)
}

func (s *Scorer) titleSimilarity(a, b titleKey) float64 {
	best := textutil.Similarity(a.full, b.full)
	if best == 1 || a.base == "" || b.base == "" {
		return best
	}
	factor := 1.0
	switch {
	case len(a.qualifiers) == 0 && len(b.qualifiers) == 0:
	case len(a.qualifiers) == 0 || len(b.qualifiers) == 0:
		factor = s.policy.QualifierMismatchFactor
	case !slices.Equal(a.qualifiers, b.qualifiers):
		factor = s.policy.QualifierConflictFactor
	}
	return max(best, textutil.Similarity(a.base, b.base)*factor)
}

func trackAgreement(l preparedLocal, c preparedCanonical) float64 {
	if l.track != c.position {
		return 0
	}
	if l.disc > 0 && c.disc > 0 && l.disc != c.disc {
		return 0
	}
	return 1
}

func (s *Scorer) durationCloseness(diff float64) float64 {
	tol := s.policy.DurationTolerance
	cutoff := s.policy.DurationCutoff
	switch {
	case diff <= tol:
		return 1
	case diff >= cutoff:
		return 0
	}
	return 0.5 * (1 + math.Cos(math.Pi*(diff-tol)/(cutoff-tol)))
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
