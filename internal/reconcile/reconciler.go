package reconcile

import (
	"fmt"
	"strings"

	"mbtagger/internal/textutil"
)

// Reconciler computes Assignments under one immutable Policy.
type Reconciler struct {
	scorer *Scorer
}

// New builds a reconciler; zero-valued policy fields take their defaults.
func New(policy Policy) *Reconciler {
	return &Reconciler{scorer: NewScorer(policy)}
}

// Reconcile pairs locals with canonicals. It never fails: malformed entries,
// empty inputs, and low-confidence items surface as Issues and land in the
// unmatched sets.
func (r *Reconciler) Reconcile(locals []LocalTrack, canonicals []CanonicalTrack) Assignment {
	policy := r.scorer.policy
	out := Assignment{Solver: r.solverFor(len(locals), len(canonicals)), Exact: true}

	validLocals, preparedLocals := r.validateLocals(locals, &out)
	validCanon, preparedCanon := r.validateCanonicals(canonicals, &out)

	if len(validLocals) == 0 || len(validCanon) == 0 {
		r.reportNoCandidates(validLocals, validCanon, len(locals), len(canonicals), &out)
		out.UnmatchedLocals = indices(len(locals))
		out.UnmatchedCanonicals = indices(len(canonicals))
		return out
	}

	scores := r.scorer.scoreMatrix(preparedLocals, preparedCanon)
	accepted := make([][]float64, len(scores))
	for i, row := range scores {
		accepted[i] = make([]float64, len(row))
		for j, s := range row {
			if s >= policy.MinAcceptScore {
				accepted[i][j] = s
			}
		}
	}

	out.Solver = r.solverFor(len(validLocals), len(validCanon))
	w, cols := quantize(accepted)
	var assign []int
	if out.Solver == SolverGreedy {
		out.Exact = false
		assign = canonicalize(w, greedyAssignment(w, cols), cols)
		out.Issues = append(out.Issues, Issue{
			Kind:   IssueApproximateSolution,
			Index:  -1,
			Detail: fmt.Sprintf("greedy assignment used for %d×%d tracks; result may not be optimal", len(validLocals), len(validCanon)),
		})
	} else {
		assign = canonicalize(w, maxWeightAssignment(w, cols), cols)
	}

	for _, t := range findTies(w, assign, cols) {
		out.Issues = append(out.Issues, tieIssue(t, validLocals, validCanon))
	}

	matchedLocal := make(map[int]bool, len(assign))
	matchedCanon := make(map[int]bool, len(assign))
	for i, j := range assign {
		if j < 0 {
			continue
		}
		li, cj := validLocals[i], validCanon[j]
		out.Pairs = append(out.Pairs, MatchCandidate{LocalIndex: li, CanonicalIndex: cj, Score: scores[i][j]})
		matchedLocal[li] = true
		matchedCanon[cj] = true
	}
	for i := range locals {
		if !matchedLocal[i] {
			out.UnmatchedLocals = append(out.UnmatchedLocals, i)
		}
	}
	for j := range canonicals {
		if !matchedCanon[j] {
			out.UnmatchedCanonicals = append(out.UnmatchedCanonicals, j)
		}
	}

	r.reportBelowThreshold(scores, validLocals, validCanon, &out)
	return out
}

func (r *Reconciler) solverFor(n, m int) Solver {
	policy := r.scorer.policy
	switch policy.Solver {
	case SolverGreedy:
		return SolverGreedy
	case SolverHungarian:
		return SolverHungarian
	}
	if max(n, m) > policy.MaxExactSize {
		return SolverGreedy
	}
	return SolverHungarian
}

func (r *Reconciler) validateLocals(locals []LocalTrack, out *Assignment) ([]int, []preparedLocal) {
	valid := make([]int, 0, len(locals))
	prepared := make([]preparedLocal, 0, len(locals))
	for i, l := range locals {
		var problem string
		switch {
		case strings.TrimSpace(l.Path) == "":
			problem = "empty path"
		case l.TrackNumber < 0 || l.DiscNumber < 0 || l.DurationSeconds < 0:
			problem = "negative track, disc, or duration"
		case textutil.Normalize(localTitle(l)) == "":
			problem = "title and filename hint are empty after normalization"
		}
		if problem != "" {
			out.Issues = append(out.Issues, Issue{Kind: IssueMalformedInput, Side: SideLocal, Index: i, Detail: problem})
			continue
		}
		valid = append(valid, i)
		prepared = append(prepared, prepareLocal(l))
	}
	return valid, prepared
}

func (r *Reconciler) validateCanonicals(canonicals []CanonicalTrack, out *Assignment) ([]int, []preparedCanonical) {
	valid := make([]int, 0, len(canonicals))
	prepared := make([]preparedCanonical, 0, len(canonicals))
	for j, c := range canonicals {
		var problem string
		switch {
		case c.Position < 1:
			problem = fmt.Sprintf("non-positive position %d", c.Position)
		case c.DiscNumber < 0 || c.DurationSeconds < 0:
			problem = "negative disc or duration"
		case textutil.Normalize(c.Title) == "":
			problem = "title is empty after normalization"
		}
		if problem != "" {
			out.Issues = append(out.Issues, Issue{Kind: IssueMalformedInput, Side: SideCanonical, Index: j, Detail: problem})
			continue
		}
		valid = append(valid, j)
		prepared = append(prepared, prepareCanonical(c))
	}
	return valid, prepared
}

func (r *Reconciler) reportNoCandidates(validLocals, validCanon []int, totalLocals, totalCanon int, out *Assignment) {
	if len(validCanon) == 0 {
		for _, i := range validLocals {
			out.Issues = append(out.Issues, Issue{
				Kind: IssueNoCandidates, Side: SideLocal, Index: i,
				Detail: fmt.Sprintf("no usable canonical tracks (%d supplied)", totalCanon),
			})
		}
	}
	if len(validLocals) == 0 {
		for _, j := range validCanon {
			out.Issues = append(out.Issues, Issue{
				Kind: IssueNoCandidates, Side: SideCanonical, Index: j,
				Detail: fmt.Sprintf("no usable local tracks (%d supplied)", totalLocals),
			})
		}
	}
}

func (r *Reconciler) reportBelowThreshold(scores [][]float64, validLocals, validCanon []int, out *Assignment) {
	threshold := r.scorer.policy.MinAcceptScore
	for i, row := range scores {
		best := 0.0
		for _, s := range row {
			best = max(best, s)
		}
		if best < threshold {
			out.Issues = append(out.Issues, Issue{
				Kind: IssueBelowThreshold, Side: SideLocal, Index: validLocals[i],
				Detail: fmt.Sprintf("best score %.3f below %.2f", best, threshold),
			})
		}
	}
	for j := range validCanon {
		best := 0.0
		for i := range scores {
			best = max(best, scores[i][j])
		}
		if best < threshold {
			out.Issues = append(out.Issues, Issue{
				Kind: IssueBelowThreshold, Side: SideCanonical, Index: validCanon[j],
				Detail: fmt.Sprintf("best score %.3f below %.2f", best, threshold),
			})
		}
	}
}

func tieIssue(t tie, validLocals, validCanon []int) Issue {
	local := validLocals[t.local]
	canon := validCanon[t.canonical]
	var detail string
	switch t.kind {
	case "swap":
		detail = fmt.Sprintf("swapping with local %d gives the same total", validLocals[t.other])
	case "canonical":
		detail = fmt.Sprintf("canonical %d scores equally; lower index kept", validCanon[t.other])
	default:
		detail = fmt.Sprintf("local %d scores equally; lower index kept", validLocals[t.other])
	}
	return Issue{Kind: IssueAmbiguousTie, Side: SideBoth, Index: local, Other: canon, Detail: detail}
}

func indices(n int) []int {
	if n == 0 {
		return nil
	}
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
