package solver

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/me/linsched/pkg/model"
)

// library solves with gonum's dense LU. Step 1 factorizes, step 2 solves.
type library struct {
	a   *mat.Dense
	b   *mat.VecDense
	lu  *mat.LU
	x   []float64
	err error
}

func newLibrary(a [][]float64, b []float64) Stepper {
	n := len(b)
	data := make([]float64, 0, n*n)
	for _, row := range a {
		data = append(data, row...)
	}
	return &library{
		a: mat.NewDense(n, n, data),
		b: mat.NewVecDense(n, b),
	}
}

func (l *library) Step() error {
	if l.err != nil {
		return l.err
	}
	if l.Done() {
		return nil
	}
	if l.lu == nil {
		var lu mat.LU
		lu.Factorize(l.a)
		if c := lu.Cond(); !(c <= mat.ConditionTolerance) {
			l.err = fmt.Errorf("library: condition number %g: %w", c, model.ErrSingularMatrix)
			return l.err
		}
		l.lu = &lu
		return nil
	}

	var x mat.VecDense
	if err := l.lu.SolveVecTo(&x, false, l.b); err != nil {
		var cond mat.Condition
		if errors.As(err, &cond) || errors.Is(err, mat.ErrSingular) {
			l.err = fmt.Errorf("library: %v: %w", err, model.ErrSingularMatrix)
		} else {
			l.err = fmt.Errorf("library: %w", err)
		}
		return l.err
	}
	out := make([]float64, x.Len())
	for i := range out {
		out[i] = x.AtVec(i)
	}
	if err := checkFinite(out); err != nil {
		l.err = fmt.Errorf("library: %w", err)
		return l.err
	}
	l.x = out
	return nil
}

func (l *library) Done() bool { return l.x != nil }

func (l *library) Solution() []float64 { return l.x }
