package probe

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/me/linsched/pkg/model"
)

// ProcessProbe samples the current process through gopsutil.
type ProcessProbe struct {
	proc *process.Process
	now  func() time.Time
}

// NewProcessProbe returns a probe bound to the calling process.
func NewProcessProbe() (*ProcessProbe, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("open process: %v: %w", err, model.ErrProbeUnavailable)
	}
	return &ProcessProbe{proc: p, now: time.Now}, nil
}

// Sample implements Probe. Each counter that fails is left NaN and reported
// in the returned error; the snapshot is still usable.
func (p *ProcessProbe) Sample(ctx context.Context) (Snapshot, error) {
	s := unavailable(p.now())
	var errs []error

	if t, err := p.proc.TimesWithContext(ctx); err == nil {
		s.CPUSeconds = t.User + t.System
	} else {
		errs = append(errs, fmt.Errorf("cpu times: %w", err))
	}
	if m, err := p.proc.MemoryInfoWithContext(ctx); err == nil {
		s.RSSBytes = float64(m.RSS)
	} else {
		errs = append(errs, fmt.Errorf("memory info: %w", err))
	}
	if c, err := p.proc.NumCtxSwitchesWithContext(ctx); err == nil {
		s.CtxVoluntary = float64(c.Voluntary)
		s.CtxInvoluntary = float64(c.Involuntary)
	} else {
		errs = append(errs, fmt.Errorf("context switches: %w", err))
	}
	if io, err := p.proc.IOCountersWithContext(ctx); err == nil {
		s.IOReadBytes = float64(io.ReadBytes)
		s.IOWriteBytes = float64(io.WriteBytes)
	} else {
		errs = append(errs, fmt.Errorf("io counters: %w", err))
	}

	if len(errs) > 0 {
		return s, fmt.Errorf("%w: %w", model.ErrProbeUnavailable, errors.Join(errs...))
	}
	return s, nil
}
