package solver

import (
	"fmt"
	"math"

	"github.com/me/linsched/pkg/model"
)

// gaussJordan reduces [A|b] to reduced row echelon form with partial
// pivoting, one pivot column per Step.
type gaussJordan struct {
	aug [][]float64
	tol float64
	k   int
	x   []float64
	err error
}

func newGaussJordan(a [][]float64, b []float64) Stepper {
	tol := Eps * normInf(a)
	aug := make([][]float64, len(a))
	for i, row := range a {
		aug[i] = append(row, b[i])
	}
	return &gaussJordan{aug: aug, tol: tol}
}

func (g *gaussJordan) Step() error {
	if g.err != nil {
		return g.err
	}
	if g.Done() {
		return nil
	}
	n := len(g.aug)
	k := g.k

	p := k
	for r := k + 1; r < n; r++ {
		if math.Abs(g.aug[r][k]) > math.Abs(g.aug[p][k]) {
			p = r
		}
	}
	pivot := g.aug[p][k]
	if math.Abs(pivot) <= g.tol || pivot == 0 {
		g.err = fmt.Errorf("gauss-jordan: pivot %d below tolerance: %w", k, model.ErrSingularMatrix)
		return g.err
	}
	g.aug[p], g.aug[k] = g.aug[k], g.aug[p]

	row := g.aug[k]
	for c := k; c <= n; c++ {
		row[c] /= pivot
	}
	for r := 0; r < n; r++ {
		if r == k {
			continue
		}
		f := g.aug[r][k]
		if f == 0 {
			continue
		}
		for c := k; c <= n; c++ {
			g.aug[r][c] -= f * row[c]
		}
	}

	g.k++
	if g.k == n {
		x := make([]float64, n)
		for i := range x {
			x[i] = g.aug[i][n]
		}
		if err := checkFinite(x); err != nil {
			g.err = fmt.Errorf("gauss-jordan: %w", err)
			return g.err
		}
		g.x = x
	}
	return nil
}

func (g *gaussJordan) Done() bool { return g.x != nil }

func (g *gaussJordan) Solution() []float64 { return g.x }
