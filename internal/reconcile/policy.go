package reconcile

import (
	"fmt"
	"runtime"
)

// Policy centralizes scoring weights and acceptance rules. It is passed by
// value and never mutated after construction, so one Policy can back any
// number of concurrent scorers.
type Policy struct {
	TitleWeight       float64
	TrackNumberWeight float64
	DurationWeight    float64

	// MinAcceptScore rejects any pairing scoring below it.
	MinAcceptScore float64

	// Durations within DurationTolerance seconds score 1; the score decays
	// along a half cosine to 0 at DurationCutoff seconds.
	DurationTolerance float64
	DurationCutoff    float64

	// Applied to the qualifier-free title comparison when only one side
	// carries bracketed qualifiers, or when both carry different ones.
	QualifierMismatchFactor float64
	QualifierConflictFactor float64

	Solver       Solver
	MaxExactSize int
	Workers      int
}

// DefaultPolicy returns the documented scoring constants. Title similarity
// dominates; an agreeing track number is the strongest tie-breaker.
func DefaultPolicy() Policy {
	return Policy{
		TitleWeight:             0.60,
		TrackNumberWeight:       0.25,
		DurationWeight:          0.15,
		MinAcceptScore:          0.50,
		DurationTolerance:       3,
		DurationCutoff:          15,
		QualifierMismatchFactor: 0.90,
		QualifierConflictFactor: 0.75,
		Solver:                  SolverAuto,
		MaxExactSize:            1000,
		Workers:                 runtime.GOMAXPROCS(0),
	}
}

// Validate reports policies that would produce meaningless scores.
func (p Policy) Validate() error {
	if p.TitleWeight <= 0 {
		return fmt.Errorf("title weight must be positive, got %v", p.TitleWeight)
	}
	if p.TrackNumberWeight < 0 || p.DurationWeight < 0 {
		return fmt.Errorf("signal weights must not be negative")
	}
	if p.TitleWeight < p.TrackNumberWeight || p.TitleWeight < p.DurationWeight {
		return fmt.Errorf("title weight %.2f must dominate the other signals", p.TitleWeight)
	}
	if p.MinAcceptScore <= 0 || p.MinAcceptScore >= 1 {
		return fmt.Errorf("min accept score must be in (0,1), got %v", p.MinAcceptScore)
	}
	if p.DurationTolerance < 0 || p.DurationCutoff <= p.DurationTolerance {
		return fmt.Errorf("duration cutoff %.1fs must exceed tolerance %.1fs", p.DurationCutoff, p.DurationTolerance)
	}
	for name, f := range map[string]float64{
		"qualifier mismatch factor": p.QualifierMismatchFactor,
		"qualifier conflict factor": p.QualifierConflictFactor,
	} {
		if f <= 0 || f > 1 {
			return fmt.Errorf("%s must be in (0,1], got %v", name, f)
		}
	}
	switch p.Solver {
	case SolverAuto, SolverHungarian, SolverGreedy:
	default:
		return fmt.Errorf("unknown solver %q", p.Solver)
	}
	return nil
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()

	if p.TitleWeight <= 0 {
		p.TitleWeight = d.TitleWeight
		p.TrackNumberWeight = d.TrackNumberWeight
		p.DurationWeight = d.DurationWeight
	}
	if p.TrackNumberWeight < 0 {
		p.TrackNumberWeight = d.TrackNumberWeight
	}
	if p.DurationWeight < 0 {
		p.DurationWeight = d.DurationWeight
	}
	if p.MinAcceptScore <= 0 || p.MinAcceptScore >= 1 {
		p.MinAcceptScore = d.MinAcceptScore
	}
	if p.DurationTolerance < 0 {
		p.DurationTolerance = d.DurationTolerance
	}
	if p.DurationCutoff <= p.DurationTolerance {
		p.DurationTolerance = d.DurationTolerance
		p.DurationCutoff = d.DurationCutoff
	}
	if p.QualifierMismatchFactor <= 0 || p.QualifierMismatchFactor > 1 {
		p.QualifierMismatchFactor = d.QualifierMismatchFactor
	}
	if p.QualifierConflictFactor <= 0 || p.QualifierConflictFactor > 1 {
		p.QualifierConflictFactor = d.QualifierConflictFactor
	}
	if p.Solver == "" {
		p.Solver = SolverAuto
	}
	if p.MaxExactSize <= 0 {
		p.MaxExactSize = d.MaxExactSize
	}
	if p.Workers <= 0 {
		p.Workers = d.Workers
	}
	return p
}
