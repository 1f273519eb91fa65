package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/linsched/internal/probe"
	"github.com/me/linsched/internal/solver"
	"github.com/me/linsched/pkg/model"
)

// Config holds scheduler configuration.
type Config struct {
	// Quantum is the round-robin slice budget.
	Quantum time.Duration

	// MinStepCost is the least budget one round-robin step consumes, so that
	// a step too fast to measure still advances the rotation.
	MinStepCost time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Quantum:     10 * time.Millisecond,
		MinStepCost: time.Millisecond,
	}
}

// StepperFactory builds the resumable computation for a job.
type StepperFactory func(method model.Method, a [][]float64, b []float64) (solver.Stepper, error)

// CompletionFunc is invoked once per job, in completion order.
type CompletionFunc func(model.SolveResult)

// Runner executes batches of jobs. A Runner is safe for sequential use; the
// caller serializes batches.
type Runner struct {
	config     Config
	probe      probe.Probe
	estimator  *Estimator
	newStepper StepperFactory
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithProbe sets the resource probe. Defaults to probe.NopProbe.
func WithProbe(p probe.Probe) Option {
	return func(r *Runner) { r.probe = p }
}

// WithEstimator shares an SJF estimator across runners.
func WithEstimator(e *Estimator) Option {
	return func(r *Runner) { r.estimator = e }
}

// WithStepperFactory replaces the solver stepper constructor.
func WithStepperFactory(f StepperFactory) Option {
	return func(r *Runner) { r.newStepper = f }
}

// WithClock replaces the clock used to measure compute time.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a Runner.
func NewRunner(cfg Config, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		config:     cfg,
		probe:      probe.NopProbe{},
		estimator:  NewEstimator(),
		newStepper: solver.NewStepper,
		now:        time.Now,
		logger:     logger.With("component", "scheduler"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Estimator returns the runner's SJF estimator.
func (r *Runner) Estimator() *Estimator { return r.estimator }

// execution is the per-job bookkeeping kept while a batch runs.
type execution struct {
	job      *model.Job
	stepper  solver.Stepper
	compute  time.Duration
	usage    probe.Accumulator
	started  time.Duration
	dispatch int
	steps    int
}

// Run executes jobs under policy and returns one result per job in
// completion order. All jobs are treated as submitted together at the
// earliest SubmittedAt. A solver failure marks that job FAILED; the batch
// continues. Run stops early only when ctx is done, returning the results
// completed so far together with ctx.Err().
func (r *Runner) Run(ctx context.Context, policy model.Policy, jobs []*model.Job, onComplete CompletionFunc) ([]model.SolveResult, error) {
	pol, err := NewPolicy(policy, r.config)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, nil
	}

	submitted := jobs[0].SubmittedAt
	for _, j := range jobs {
		if j.SubmittedAt.Before(submitted) {
			submitted = j.SubmittedAt
		}
		j.Estimate = r.estimator.Estimate(j.Method, j.Size())
	}

	queue := make([]*execution, 0, len(jobs))
	for _, j := range pol.Order(jobs) {
		queue = append(queue, &execution{job: j, dispatch: -1})
	}

	r.logger.Debug("batch started", "policy", policy, "jobs", len(jobs), "quantum", pol.Quantum())

	var (
		lane       time.Duration
		dispatched int
		results    = make([]model.SolveResult, 0, len(jobs))
	)
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		ex := queue[0]
		queue = queue[1:]

		if ex.dispatch < 0 {
			if err := ex.job.Transition(model.JobStateRunning); err != nil {
				return results, fmt.Errorf("dispatch %s: %w", ex.job.ID, err)
			}
			ex.dispatch = dispatched
			ex.started = lane
			dispatched++
			st, err := r.newStepper(ex.job.Method, ex.job.A, ex.job.B)
			if err != nil {
				results = append(results, r.finish(ex, submitted, lane, err, onComplete))
				continue
			}
			ex.stepper = st
		}

		used, stepErr := r.slice(ctx, ex, pol.Quantum())
		lane += used

		switch {
		case stepErr != nil:
			results = append(results, r.finish(ex, submitted, lane, stepErr, onComplete))
		case ex.stepper.Done():
			r.estimator.Observe(ex.job.Method, ex.job.Size(), ex.compute)
			results = append(results, r.finish(ex, submitted, lane, nil, onComplete))
		default:
			queue = append(queue, ex)
		}
	}

	r.logger.Debug("batch finished", "policy", policy, "jobs", len(results), "lane", lane)
	return results, nil
}

// slice runs one dispatch of ex and returns the compute time it consumed.
// A zero quantum runs the job to completion.
func (r *Runner) slice(ctx context.Context, ex *execution, quantum time.Duration) (time.Duration, error) {
	before, err := r.probe.Sample(ctx)
	if err != nil {
		r.logger.Debug("probe sample before slice", "job_id", ex.job.ID, "error", err)
	}

	var (
		used    time.Duration
		budget  = quantum
		stepErr error
	)
	for !ex.stepper.Done() {
		t0 := r.now()
		stepErr = ex.stepper.Step()
		d := r.now().Sub(t0)
		if d < 0 {
			d = 0
		}
		used += d
		ex.steps++
		if stepErr != nil {
			break
		}
		if quantum > 0 {
			budget -= max(d, r.config.MinStepCost)
			if budget <= 0 {
				break
			}
		}
	}
	ex.compute += used

	after, err := r.probe.Sample(ctx)
	if err != nil {
		r.logger.Debug("probe sample after slice", "job_id", ex.job.ID, "error", err)
	}
	ex.usage.Add(before, after)
	return used, stepErr
}

// finish moves ex to its terminal state and builds its result.
func (r *Runner) finish(ex *execution, submitted time.Time, lane time.Duration, runErr error, onComplete CompletionFunc) model.SolveResult {
	job := ex.job
	started := submitted.Add(ex.started)
	completed := submitted.Add(lane)

	res := model.SolveResult{
		JobID:         job.ID,
		Method:        job.Method,
		Policy:        job.Policy,
		Scenario:      job.Scenario,
		ElapsedMs:     millis(ex.compute),
		WaitingMs:     millis(lane - ex.compute),
		Residual:      model.NaN(),
		Resources:     ex.usage.Sample(),
		DispatchOrder: ex.dispatch,
		StartedAt:     &started,
		CompletedAt:   &completed,
	}
	res.TurnaroundMs = res.WaitingMs + res.ElapsedMs

	if runErr == nil {
		x := ex.stepper.Solution()
		residual, checks := solver.Verify(job.A, job.B, x)
		res.X = x
		res.Equations = checks
		res.Residual = model.Float(residual)
		res.State = model.JobStateDone
	} else {
		res.State = model.JobStateFailed
		res.Error = runErr.Error()
	}
	if err := job.Transition(res.State); err != nil {
		r.logger.Error("job transition", "job_id", job.ID, "error", err)
	}

	r.logger.Debug("job finished",
		"job_id", job.ID,
		"method", job.Method,
		"state", res.State,
		"steps", ex.steps,
		"elapsed_ms", res.ElapsedMs,
		"waiting_ms", res.WaitingMs,
	)
	if runErr != nil {
		r.logger.Warn("job failed", "job_id", job.ID, "method", job.Method, "error", runErr)
	}
	if onComplete != nil {
		onComplete(res)
	}
	return res
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
