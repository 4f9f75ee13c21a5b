package reconcile

import (
	"math"
	"math/rand/v2"
	"slices"
	"testing"
)

func assignmentWeight(w [][]int64, assign []int) int64 {
	var total int64
	for i, j := range assign {
		if j >= 0 {
			total += w[i][j]
		}
	}
	return total
}

// bruteForceBest enumerates every partial injective assignment.
func bruteForceBest(w [][]int64, cols int) int64 {
	used := make([]bool, cols)
	var best int64
	var walk func(row int, total int64)
	walk = func(row int, total int64) {
		if row == len(w) {
			best = max(best, total)
			return
		}
		walk(row+1, total)
		for j := range cols {
			if used[j] || w[row][j] <= 0 {
				continue
			}
			used[j] = true
			walk(row+1, total+w[row][j])
			used[j] = false
		}
	}
	walk(0, 0)
	return best
}

func assertInjective(t *testing.T, assign []int) {
	t.Helper()
	seen := map[int]bool{}
	for i, j := range assign {
		if j < 0 {
			continue
		}
		if seen[j] {
			t.Fatalf("column %d assigned twice (row %d): %v", j, i, assign)
		}
		seen[j] = true
	}
}

func TestSolveExactBeatsGreedy(t *testing.T) {
	scores := [][]float64{
		{0.9, 0.8, 0},
		{0.85, 0, 0},
		{0, 0, 0.7},
	}
	exact := SolveExact(scores)
	if want := []int{1, 0, 2}; !slices.Equal(exact, want) {
		t.Fatalf("SolveExact = %v, want %v", exact, want)
	}
	greedy := SolveGreedy(scores)
	if want := []int{0, -1, 2}; !slices.Equal(greedy, want) {
		t.Fatalf("SolveGreedy = %v, want %v", greedy, want)
	}
}

func TestSolveExactRectangular(t *testing.T) {
	tall := [][]float64{
		{0.2, 0.9},
		{0.95, 0.1},
		{0.6, 0.7},
	}
	got := SolveExact(tall)
	if want := []int{1, 0, -1}; !slices.Equal(got, want) {
		t.Fatalf("tall SolveExact = %v, want %v", got, want)
	}

	wide := [][]float64{
		{0.1, 0.2, 0.9},
		{0.8, 0.1, 0.3},
	}
	got = SolveExact(wide)
	if want := []int{2, 0}; !slices.Equal(got, want) {
		t.Fatalf("wide SolveExact = %v, want %v", got, want)
	}
}

func TestSolveExactSkipsNonPositive(t *testing.T) {
	scores := [][]float64{
		{0, -1},
		{math.NaN(), 0.4},
	}
	got := SolveExact(scores)
	if want := []int{-1, 1}; !slices.Equal(got, want) {
		t.Fatalf("SolveExact = %v, want %v", got, want)
	}
	if got := SolveExact(nil); len(got) != 0 {
		t.Fatalf("SolveExact(nil) = %v, want empty", got)
	}
	if got := SolveExact([][]float64{{}, {}}); !slices.Equal(got, []int{-1, -1}) {
		t.Fatalf("SolveExact(no columns) = %v", got)
	}
}

func TestSolveExactTieBreaksByIndex(t *testing.T) {
	scores := [][]float64{
		{0.8, 0.8, 0.8},
		{0.8, 0.8, 0.8},
	}
	if got := SolveExact(scores); !slices.Equal(got, []int{0, 1}) {
		t.Fatalf("SolveExact = %v, want [0 1]", got)
	}

	oneColumn := [][]float64{{0.7}, {0.7}, {0.7}}
	if got := SolveExact(oneColumn); !slices.Equal(got, []int{0, -1, -1}) {
		t.Fatalf("SolveExact = %v, want [0 -1 -1]", got)
	}
}

func TestSolveExactMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for trial := range 300 {
		rows := 1 + rng.IntN(5)
		cols := 1 + rng.IntN(5)
		scores := make([][]float64, rows)
		for i := range scores {
			scores[i] = make([]float64, cols)
			for j := range scores[i] {
				// Coarse values produce plenty of ties.
				scores[i][j] = float64(rng.IntN(6)) / 5
			}
		}
		w, c := quantize(scores)
		got := SolveExact(scores)
		assertInjective(t, got)
		if gw, bw := assignmentWeight(w, got), bruteForceBest(w, c); gw != bw {
			t.Fatalf("trial %d: SolveExact weight %d, brute force %d\nscores=%v\nassign=%v", trial, gw, bw, scores, got)
		}
		if again := canonicalize(w, got, c); !slices.Equal(again, got) {
			t.Fatalf("trial %d: canonical form not stable: %v then %v", trial, got, again)
		}
		greedy := SolveGreedy(scores)
		assertInjective(t, greedy)
		if assignmentWeight(w, greedy) > assignmentWeight(w, got) {
			t.Fatalf("trial %d: greedy beat exact", trial)
		}
	}
}

func TestFindTies(t *testing.T) {
	w, cols := quantize([][]float64{
		{0.8, 0.8},
		{0.8, 0.8},
	})
	ties := findTies(w, []int{0, 1}, cols)
	if len(ties) == 0 || ties[0].kind != "swap" {
		t.Fatalf("expected swap tie, got %+v", ties)
	}

	w, cols = quantize([][]float64{
		{0.9, 0.1},
		{0.2, 0.8},
	})
	if ties := findTies(w, []int{0, 1}, cols); len(ties) != 0 {
		t.Fatalf("expected no ties, got %+v", ties)
	}
}
