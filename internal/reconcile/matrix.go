package reconcile

import "golang.org/x/sync/errgroup"

// scoreMatrix computes every (local, canonical) score. Rows are independent
// and are scored concurrently; the matrix is complete when this returns.
func (s *Scorer) scoreMatrix(locals []preparedLocal, canonicals []preparedCanonical) [][]float64 {
	matrix := make([][]float64, len(locals))
	var g errgroup.Group
	g.SetLimit(max(1, s.policy.Workers))
	for i := range locals {
		g.Go(func() error {
			row := make([]float64, len(canonicals))
			for j := range canonicals {
				row[j] = s.score(locals[i], canonicals[j])
			}
			matrix[i] = row
			return nil
		})
	}
	_ = g.Wait()
	return matrix
}

// ScoreMatrix scores every local against every canonical track.
func (s *Scorer) ScoreMatrix(locals []LocalTrack, canonicals []CanonicalTrack) [][]float64 {
	pl := make([]preparedLocal, len(locals))
	for i, l := range locals {
		pl[i] = prepareLocal(l)
	}
	pc := make([]preparedCanonical, len(canonicals))
	for j, c := range canonicals {
		pc[j] = prepareCanonical(c)
	}
	return s.scoreMatrix(pl, pc)
}
