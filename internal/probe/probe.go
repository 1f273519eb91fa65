// Package probe samples resource counters of the current process so that
// each job can be charged with the CPU, memory, context switches and IO it
// consumed. Counters the platform cannot provide are reported as NaN.
package probe

import (
	"context"
	"math"
	"time"

	"github.com/me/linsched/pkg/model"
)

// Probe takes an absolute reading of the process counters. A non-nil error
// wrapping model.ErrProbeUnavailable may accompany a usable Snapshot whose
// missing counters are NaN.
type Probe interface {
	Sample(ctx context.Context) (Snapshot, error)
}

// Snapshot holds absolute counter values at one instant. NaN means the
// counter could not be read.
type Snapshot struct {
	Wall           time.Time
	CPUSeconds     float64
	RSSBytes       float64
	CtxVoluntary   float64
	CtxInvoluntary float64
	IOReadBytes    float64
	IOWriteBytes   float64
}

func unavailable(wall time.Time) Snapshot {
	nan := math.NaN()
	return Snapshot{
		Wall:           wall,
		CPUSeconds:     nan,
		RSSBytes:       nan,
		CtxVoluntary:   nan,
		CtxInvoluntary: nan,
		IOReadBytes:    nan,
		IOWriteBytes:   nan,
	}
}

// Delta attributes the interval between two snapshots to one job.
func Delta(before, after Snapshot) model.ResourceSample {
	var acc Accumulator
	acc.Add(before, after)
	return acc.Sample()
}

// Accumulator sums the deltas of several slices of one job, as happens under
// round-robin. The zero value is ready to use.
type Accumulator struct {
	slices         int
	wallSeconds    float64
	cpuSeconds     float64
	rssBytes       float64
	ctxVoluntary   float64
	ctxInvoluntary float64
	ioReadBytes    float64
	ioWriteBytes   float64
}

// Add records one slice bracketed by before and after.
func (a *Accumulator) Add(before, after Snapshot) {
	a.slices++
	a.wallSeconds += after.Wall.Sub(before.Wall).Seconds()
	a.cpuSeconds += counterDelta(before.CPUSeconds, after.CPUSeconds)
	a.ctxVoluntary += counterDelta(before.CtxVoluntary, after.CtxVoluntary)
	a.ctxInvoluntary += counterDelta(before.CtxInvoluntary, after.CtxInvoluntary)
	a.ioReadBytes += counterDelta(before.IOReadBytes, after.IOReadBytes)
	a.ioWriteBytes += counterDelta(before.IOWriteBytes, after.IOWriteBytes)
	a.rssBytes = after.RSSBytes
}

// Sample returns the accumulated consumption. CPU% is CPU time over wall
// time; MemMB is the resident set after the last slice.
func (a *Accumulator) Sample() model.ResourceSample {
	if a.slices == 0 {
		return model.UnavailableSample()
	}
	cpuPct := math.NaN()
	if a.wallSeconds > 0 {
		cpuPct = a.cpuSeconds / a.wallSeconds * 100
	}
	return model.ResourceSample{
		CPUPct:         model.Float(cpuPct),
		MemMB:          model.Float(a.rssBytes / (1024 * 1024)),
		CtxVoluntary:   model.Float(a.ctxVoluntary),
		CtxInvoluntary: model.Float(a.ctxInvoluntary),
		IOReadBytes:    model.Float(a.ioReadBytes),
		IOWriteBytes:   model.Float(a.ioWriteBytes),
	}
}

// counterDelta returns after−before, or NaN when either side is missing or
// the counter went backwards.
func counterDelta(before, after float64) float64 {
	d := after - before
	if math.IsNaN(d) || d < 0 {
		return math.NaN()
	}
	return d
}

// NopProbe reports every counter as unavailable.
type NopProbe struct{}

// Sample implements Probe.
func (NopProbe) Sample(context.Context) (Snapshot, error) {
	return unavailable(time.Now()), nil
}
