package solver

import (
	"fmt"
	"math"

	"github.com/me/linsched/pkg/model"
)

// cramer computes x_i = det(A_i)/det(A). Step 0 factors A; step i computes
// x_{i-1}. Determinants are carried as (sign, log|det|) so large systems do
// not overflow the ratio.
type cramer struct {
	a       [][]float64
	rhs     []float64
	tol     float64
	sign    float64
	logDet  float64
	x       []float64
	next    int
	started bool
	err     error
}

func newCramer(a [][]float64, b []float64) Stepper {
	return &cramer{a: a, rhs: b, tol: Eps * normInf(a), x: make([]float64, len(b))}
}

func (c *cramer) Step() error {
	if c.err != nil {
		return c.err
	}
	if c.Done() {
		return nil
	}
	if !c.started {
		sign, logDet, ok := logDeterminant(model.CloneMatrix(c.a), c.tol)
		if !ok {
			c.err = fmt.Errorf("cramer: determinant below tolerance: %w", model.ErrSingularMatrix)
			return c.err
		}
		c.sign, c.logDet, c.started = sign, logDet, true
		return nil
	}

	col := c.next
	ai := model.CloneMatrix(c.a)
	for r := range ai {
		ai[r][col] = c.rhs[r]
	}
	// Only det(A) is tested against tol; a zero pivot in A_i means x_i = 0.
	sign, logDet, ok := logDeterminant(ai, 0)
	if ok {
		c.x[col] = sign * c.sign * math.Exp(logDet-c.logDet)
	}
	c.next++
	if c.Done() {
		if err := checkFinite(c.x); err != nil {
			c.err = fmt.Errorf("cramer: %w", err)
			c.next--
			return c.err
		}
	}
	return nil
}

func (c *cramer) Done() bool {
	return c.started && c.next == len(c.x) && c.err == nil
}

func (c *cramer) Solution() []float64 {
	if !c.Done() {
		return nil
	}
	return c.x
}

// logDeterminant factors m in place with partial pivoting. It returns the
// sign of det(m) and log|det(m)|, or ok=false when a pivot is at or below tol.
func logDeterminant(m [][]float64, tol float64) (sign, logAbs float64, ok bool) {
	n := len(m)
	sign = 1
	for k := 0; k < n; k++ {
		p := k
		for r := k + 1; r < n; r++ {
			if math.Abs(m[r][k]) > math.Abs(m[p][k]) {
				p = r
			}
		}
		pivot := m[p][k]
		if math.Abs(pivot) <= tol || pivot == 0 {
			return 0, 0, false
		}
		if p != k {
			m[p], m[k] = m[k], m[p]
			sign = -sign
		}
		if pivot < 0 {
			sign = -sign
		}
		logAbs += math.Log(math.Abs(pivot))
		for r := k + 1; r < n; r++ {
			f := m[r][k] / pivot
			if f == 0 {
				continue
			}
			for c := k; c < n; c++ {
				m[r][c] -= f * m[k][c]
			}
		}
	}
	return sign, logAbs, true
}
