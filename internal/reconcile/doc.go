// Package reconcile pairs local audio files with the canonical track list of
// one release.
//
// A Scorer rates every (local, canonical) pair from three signals: title
// similarity, track-number agreement, and duration closeness. Signals missing
// on either side drop out of the weighted average instead of counting against
// the pair. The Reconciler assembles the full score matrix across a bounded
// worker group, then solves the maximum-weight one-to-one assignment with the
// Hungarian method. Pairs scoring under Policy.MinAcceptScore are never
// selected; both sides stay in the unmatched sets for a person to resolve.
//
// Nothing in this package performs I/O. Given identical inputs and Policy,
// Reconcile returns an identical Assignment: ties between equally good
// assignments are broken toward giving lower local indices lower canonical
// indices, and each tie is reported as an AmbiguousTie issue.
//
// Very large inputs (over Policy.MaxExactSize on either side) or an explicit
// SolverGreedy policy fall back to a greedy highest-score-first pass. The
// Assignment records which solver ran and carries an ApproximateSolution
// issue whenever the result is not guaranteed optimal.
package reconcile
