package reconcile

import (
	"cmp"
	"math"
	"slices"
)

// scoreScale quantizes scores so that equal-weight assignments compare
// exactly; float sums would make ties depend on summation order.
const scoreScale = 1_000_000

// SolveExact returns a maximum-weight one-to-one assignment over a dense
// score matrix: assign[i] is the column chosen for row i, or -1. Cells with a
// score of zero or less are never chosen. Among equally good assignments the
// one giving lower rows lower columns is returned.
func SolveExact(scores [][]float64) []int {
	w, cols := quantize(scores)
	assign := maxWeightAssignment(w, cols)
	return canonicalize(w, assign, cols)
}

// SolveGreedy repeatedly takes the highest remaining positive cell, breaking
// ties by row then column. The result is not guaranteed optimal.
func SolveGreedy(scores [][]float64) []int {
	w, cols := quantize(scores)
	return canonicalize(w, greedyAssignment(w, cols), cols)
}

func greedyAssignment(w [][]int64, cols int) []int {
	type cell struct {
		i, j int
		w    int64
	}
	var cells []cell
	for i, row := range w {
		for j, v := range row {
			if v > 0 {
				cells = append(cells, cell{i, j, v})
			}
		}
	}
	slices.SortFunc(cells, func(a, b cell) int {
		if c := cmp.Compare(b.w, a.w); c != 0 {
			return c
		}
		if c := cmp.Compare(a.i, b.i); c != 0 {
			return c
		}
		return cmp.Compare(a.j, b.j)
	})

	assign := unassigned(len(w))
	taken := make([]bool, cols)
	for _, c := range cells {
		if assign[c.i] >= 0 || taken[c.j] {
			continue
		}
		assign[c.i] = c.j
		taken[c.j] = true
	}
	return assign
}

func quantize(scores [][]float64) ([][]int64, int) {
	cols := 0
	for _, row := range scores {
		cols = max(cols, len(row))
	}
	w := make([][]int64, len(scores))
	for i, row := range scores {
		w[i] = make([]int64, cols)
		for j, s := range row {
			if s > 0 && !math.IsNaN(s) {
				w[i][j] = int64(math.Round(min(s, 1) * scoreScale))
			}
		}
	}
	return w, cols
}

func unassigned(n int) []int {
	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}
	return assign
}

// maxWeightAssignment pads the weights to a square cost matrix and runs the
// Hungarian method. Zero-weight picks are discarded afterwards.
func maxWeightAssignment(w [][]int64, cols int) []int {
	n := len(w)
	assign := unassigned(n)
	if n == 0 || cols == 0 {
		return assign
	}

	size := max(n, cols)
	var top int64
	for _, row := range w {
		for _, v := range row {
			top = max(top, v)
		}
	}
	cost := make([][]int64, size)
	for i := range size {
		cost[i] = make([]int64, size)
		for j := range size {
			cost[i][j] = top
			if i < n && j < cols {
				cost[i][j] = top - w[i][j]
			}
		}
	}

	for i, j := range hungarian(cost) {
		if i >= n || j < 0 || j >= cols || w[i][j] <= 0 {
			continue
		}
		assign[i] = j
	}
	return assign
}

// hungarian solves the assignment problem for a square cost matrix
// (minimization). Returns assignment[i] = column chosen for row i.
func hungarian(cost [][]int64) []int {
	n := len(cost)
	if n == 0 || len(cost[0]) != n {
		return nil
	}
	const inf = math.MaxInt64 / 4

	u := make([]int64, n+1)
	v := make([]int64, n+1)
	p := make([]int, n+1)
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]int64, n+1)
		used := make([]bool, n+1)
		for j := range minv {
			minv[j] = inf
		}
		for {
			used[j0] = true
			i0 := p[j0]
			delta := int64(inf)
			j1 := 0
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}
		for {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
			if j0 == 0 {
				break
			}
		}
	}

	assign := unassigned(n)
	for j := 1; j <= n; j++ {
		if p[j] > 0 {
			assign[p[j]-1] = j - 1
		}
	}
	return assign
}
