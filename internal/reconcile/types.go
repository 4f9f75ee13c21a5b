package reconcile

import (
	"errors"
	"fmt"
)

// LocalTrack is one on-disk audio file plus whatever tag and filename
// information was read from it. Zero numeric fields mean absent.
type LocalTrack struct {
	Path            string
	Title           string
	Artist          string
	TrackNumber     int
	DiscNumber      int
	FilenameHint    string
	DurationSeconds float64
}

// CanonicalTrack is an authoritative record for one track position of a
// release. Position counts within the track's disc, starting at 1.
type CanonicalTrack struct {
	Position        int
	DiscNumber      int
	Title           string
	Artist          string
	DurationSeconds float64

	DiscTitle   string
	TrackID     string
	RecordingID string
	ArtistID    string
}

// MatchCandidate is one scored (local, canonical) pairing.
type MatchCandidate struct {
	LocalIndex     int
	CanonicalIndex int
	Score          float64
}

// Solver names the assignment method that produced an Assignment.
type Solver string

const (
	SolverAuto      Solver = "auto"
	SolverHungarian Solver = "hungarian"
	SolverGreedy    Solver = "greedy"
)

// Assignment is an injective partial mapping from local to canonical indices.
// Every local index appears exactly once across Pairs and UnmatchedLocals;
// likewise for canonical indices and UnmatchedCanonicals.
type Assignment struct {
	Pairs               []MatchCandidate
	UnmatchedLocals     []int
	UnmatchedCanonicals []int
	Issues              []Issue
	Solver              Solver
	Exact               bool
}

// CanonicalFor returns the pair holding the given local index.
func (a Assignment) CanonicalFor(local int) (MatchCandidate, bool) {
	for _, p := range a.Pairs {
		if p.LocalIndex == local {
			return p, true
		}
	}
	return MatchCandidate{}, false
}

// TotalScore sums the scores of all accepted pairs.
func (a Assignment) TotalScore() float64 {
	var total float64
	for _, p := range a.Pairs {
		total += p.Score
	}
	return total
}

// IssuesOf filters issues by kind.
func (a Assignment) IssuesOf(kind IssueKind) []Issue {
	var out []Issue
	for _, issue := range a.Issues {
		if issue.Kind == kind {
			out = append(out, issue)
		}
	}
	return out
}

// IssueKind classifies a per-item reconciliation problem.
type IssueKind string

const (
	IssueNoCandidates        IssueKind = "no_candidates"
	IssueAmbiguousTie        IssueKind = "ambiguous_tie"
	IssueBelowThreshold      IssueKind = "below_threshold"
	IssueMalformedInput      IssueKind = "malformed_input"
	IssueApproximateSolution IssueKind = "approximate_solution"
)

// Sentinels matched by Issue.Unwrap.
var (
	ErrNoCandidates        = errors.New("no candidates")
	ErrAmbiguousTie        = errors.New("ambiguous tie")
	ErrBelowThreshold      = errors.New("below acceptance threshold")
	ErrMalformedInput      = errors.New("malformed input")
	ErrApproximateSolution = errors.New("approximate solution")
)

// Side tells which input list an issue index refers to.
type Side string

const (
	SideLocal     Side = "local"
	SideCanonical Side = "canonical"
	SideBoth      Side = "both"
)

// Issue is a non-fatal problem found while reconciling. Index is -1 for
// issues that concern the whole run.
type Issue struct {
	Kind   IssueKind
	Side   Side
	Index  int
	Other  int
	Detail string
}

func (i Issue) Error() string {
	switch {
	case i.Index < 0:
		return fmt.Sprintf("%s: %s", i.Kind, i.Detail)
	case i.Side == SideBoth:
		return fmt.Sprintf("%s: local %d / canonical %d: %s", i.Kind, i.Index, i.Other, i.Detail)
	default:
		return fmt.Sprintf("%s: %s %d: %s", i.Kind, i.Side, i.Index, i.Detail)
	}
}

func (i Issue) Unwrap() error {
	switch i.Kind {
	case IssueNoCandidates:
		return ErrNoCandidates
	case IssueAmbiguousTie:
		return ErrAmbiguousTie
	case IssueBelowThreshold:
		return ErrBelowThreshold
	case IssueMalformedInput:
		return ErrMalformedInput
	case IssueApproximateSolution:
		return ErrApproximateSolution
	default:
		return nil
	}
}
