package scheduler

import (
	"math"
	"sync"
	"time"

	"github.com/me/linsched/pkg/model"
)

const (
	emaAlpha      = 0.2
	seedNsPerFlop = 1.0
	nanosPerMilli = 1e6
)

// Flops approximates the floating-point work of solving an n×n system with
// method.
func Flops(method model.Method, n int) float64 {
	f := float64(n)
	switch method {
	case model.MethodCramer:
		return (f + 1) * f * f * f / 3
	case model.MethodGaussJordan:
		return f * f * f
	case model.MethodLibrary:
		return 2 * f * f * f / 3
	}
	return f * f * f
}

// Estimator predicts job duration for SJF. It learns a per-method cost per
// flop as an exponential moving average of observed runs.
type Estimator struct {
	mu        sync.RWMutex
	nsPerFlop map[model.Method]float64
}

// NewEstimator returns an Estimator seeded at 1 ns per flop for every method.
func NewEstimator() *Estimator {
	return &Estimator{nsPerFlop: make(map[model.Method]float64)}
}

// NsPerFlop returns the current learned cost for method.
func (e *Estimator) NsPerFlop(method model.Method) float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if v, ok := e.nsPerFlop[method]; ok {
		return v
	}
	return seedNsPerFlop
}

// Estimate returns the predicted compute time in milliseconds.
func (e *Estimator) Estimate(method model.Method, n int) float64 {
	return Flops(method, n) * e.NsPerFlop(method) / nanosPerMilli
}

// Observe folds one completed run into the moving average.
func (e *Estimator) Observe(method model.Method, n int, elapsed time.Duration) {
	flops := Flops(method, n)
	if flops <= 0 || elapsed <= 0 {
		return
	}
	sample := float64(elapsed.Nanoseconds()) / flops
	if math.IsNaN(sample) || math.IsInf(sample, 0) {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	old, ok := e.nsPerFlop[method]
	if !ok {
		old = seedNsPerFlop
	}
	e.nsPerFlop[method] = emaAlpha*sample + (1-emaAlpha)*old
}
