package reconcile

// canonicalize rewrites an assignment into the equal-weight alternative that
// gives lower rows lower columns and prefers matching lower rows. Every step
// is a weight-preserving exchange that lowers the assignment vector
// lexicographically, so the loop terminates.
func canonicalize(w [][]int64, assign []int, cols int) []int {
	out := append([]int(nil), assign...)
	owner := make([]int, cols)
	for j := range owner {
		owner[j] = -1
	}
	for i, j := range out {
		if j >= 0 {
			owner[j] = i
		}
	}

	for changed := true; changed; {
		changed = false
		for i := range out {
			// Move row i to a lower free column of equal weight.
			if j := out[i]; j >= 0 {
				for alt := 0; alt < j; alt++ {
					if owner[alt] < 0 && w[i][alt] == w[i][j] {
						owner[j], owner[alt] = -1, i
						out[i] = alt
						changed = true
						break
					}
				}
			}
			// Hand a column held by a later row to free row i.
			if out[i] < 0 {
				for k := i + 1; k < len(out); k++ {
					j := out[k]
					if j >= 0 && w[i][j] > 0 && w[i][j] == w[k][j] {
						out[i], out[k] = j, -1
						owner[j] = i
						changed = true
						break
					}
				}
			}
			// Swap with a later row holding a lower column.
			for k := i + 1; k < len(out); k++ {
				ji, jk := out[i], out[k]
				if ji < 0 || jk < 0 || ji < jk {
					continue
				}
				if w[i][jk] > 0 && w[k][ji] > 0 && w[i][jk]+w[k][ji] == w[i][ji]+w[k][jk] {
					out[i], out[k] = jk, ji
					owner[jk], owner[ji] = i, k
					changed = true
				}
			}
		}
	}
	return out
}

// tie describes an equal-weight alternative to a canonical assignment.
type tie struct {
	local     int
	canonical int
	kind      string
	other     int
}

// findTies lists the single-exchange alternatives that would yield the same
// total weight as assign. Longer exchange cycles are not searched.
func findTies(w [][]int64, assign []int, cols int) []tie {
	owner := make([]int, cols)
	for j := range owner {
		owner[j] = -1
	}
	for i, j := range assign {
		if j >= 0 {
			owner[j] = i
		}
	}

	var ties []tie
	for i, ji := range assign {
		if ji < 0 {
			continue
		}
		for k := i + 1; k < len(assign); k++ {
			jk := assign[k]
			if jk < 0 {
				continue
			}
			if w[i][jk] > 0 && w[k][ji] > 0 && w[i][jk]+w[k][ji] == w[i][ji]+w[k][jk] {
				ties = append(ties, tie{local: i, canonical: ji, kind: "swap", other: k})
			}
		}
		for alt := range cols {
			if owner[alt] < 0 && alt != ji && w[i][alt] == w[i][ji] {
				ties = append(ties, tie{local: i, canonical: ji, kind: "canonical", other: alt})
			}
		}
		for k := range assign {
			if assign[k] < 0 && k != i && w[k][ji] == w[i][ji] {
				ties = append(ties, tie{local: i, canonical: ji, kind: "local", other: k})
			}
		}
	}
	return ties
}
