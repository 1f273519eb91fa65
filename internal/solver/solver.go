// Package solver implements the linear-system methods a Job can run. Every
// method is expressed as a Stepper so that a round-robin dispatcher can slice
// the computation; Solve drives a Stepper to completion.
package solver

import (
	"fmt"
	"math"

	"github.com/me/linsched/pkg/model"
)

// Eps is the relative pivot tolerance. A pivot whose magnitude is at or below
// Eps·‖A‖∞ marks the matrix as singular.
const Eps = 1e-12

// Solver solves A·x = b in one call.
type Solver interface {
	Method() model.Method
	Solve(a [][]float64, b []float64) ([]float64, error)
}

// Stepper is a resumable computation. Step performs one unit of work. Done
// reports whether the solution is ready. Solution is nil until Done.
type Stepper interface {
	Step() error
	Done() bool
	Solution() []float64
}

type stepperFactory func(a [][]float64, b []float64) Stepper

var factories = map[model.Method]stepperFactory{
	model.MethodCramer:      newCramer,
	model.MethodGaussJordan: newGaussJordan,
	model.MethodLibrary:     newLibrary,
}

// NewStepper validates the system and returns a Stepper for method. The
// stepper works on private copies of a and b.
func NewStepper(method model.Method, a [][]float64, b []float64) (Stepper, error) {
	f, ok := factories[method]
	if !ok {
		return nil, model.Invalidf("unknown method %q", method)
	}
	if err := ValidateSystem(a, b); err != nil {
		return nil, err
	}
	return f(model.CloneMatrix(a), append([]float64(nil), b...)), nil
}

// New returns the Solver for method.
func New(method model.Method) (Solver, error) {
	if _, ok := factories[method]; !ok {
		return nil, model.Invalidf("unknown method %q", method)
	}
	return methodSolver(method), nil
}

type methodSolver model.Method

func (m methodSolver) Method() model.Method { return model.Method(m) }

func (m methodSolver) Solve(a [][]float64, b []float64) ([]float64, error) {
	st, err := NewStepper(model.Method(m), a, b)
	if err != nil {
		return nil, err
	}
	return Run(st)
}

// Run drives st until it is done or fails.
func Run(st Stepper) ([]float64, error) {
	for !st.Done() {
		if err := st.Step(); err != nil {
			return nil, err
		}
	}
	return st.Solution(), nil
}

// Solve is a convenience for New(method) followed by Solve.
func Solve(method model.Method, a [][]float64, b []float64) ([]float64, error) {
	s, err := New(method)
	if err != nil {
		return nil, err
	}
	return s.Solve(a, b)
}

// ValidateSystem checks that a is a non-empty square matrix matching b and
// that every entry is finite.
func ValidateSystem(a [][]float64, b []float64) error {
	n := len(a)
	if n == 0 {
		return model.Invalidf("matrix is empty")
	}
	if len(b) != n {
		return model.Invalidf("matrix has %d rows, vector has %d", n, len(b))
	}
	for i, row := range a {
		if len(row) != n {
			return model.Invalidf("matrix is not square: row %d has %d columns, want %d", i, len(row), n)
		}
		for j, v := range row {
			if !finite(v) {
				return model.Invalidf("a[%d][%d] is not finite", i, j)
			}
		}
		if !finite(b[i]) {
			return model.Invalidf("b[%d] is not finite", i)
		}
	}
	return nil
}

// Verify computes A·x for every row. The residual is the L2 norm of A·x − b.
func Verify(a [][]float64, b, x []float64) (float64, []model.EquationCheck) {
	checks := make([]model.EquationCheck, len(a))
	var sum float64
	for i, row := range a {
		var lhs float64
		for j, v := range row {
			lhs += v * x[j]
		}
		diff := lhs - b[i]
		checks[i] = model.EquationCheck{Row: i, LHS: lhs, RHS: b[i], Error: math.Abs(diff)}
		sum += diff * diff
	}
	return math.Sqrt(sum), checks
}

// normInf returns the maximum absolute row sum of a.
func normInf(a [][]float64) float64 {
	var max float64
	for _, row := range a {
		var s float64
		for _, v := range row {
			s += math.Abs(v)
		}
		if s > max {
			max = s
		}
	}
	return max
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func checkFinite(x []float64) error {
	for i, v := range x {
		if !finite(v) {
			return fmt.Errorf("x[%d] = %v: %w", i, v, model.ErrNumericOverflow)
		}
	}
	return nil
}
