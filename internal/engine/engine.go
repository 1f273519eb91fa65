// Package engine turns solve requests into job batches, runs them through the
// scheduler one batch at a time, and fans the results out to the job log,
// the aggregator, Prometheus and live subscribers.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/me/linsched/internal/broadcast"
	"github.com/me/linsched/internal/circuit"
	"github.com/me/linsched/internal/metrics"
	"github.com/me/linsched/internal/probe"
	"github.com/me/linsched/internal/scheduler"
	"github.com/me/linsched/internal/solver"
	"github.com/me/linsched/internal/store"
	"github.com/me/linsched/pkg/model"
)

// Config holds engine configuration.
type Config struct {
	Scheduler        scheduler.Config
	ScenarioSizes    map[string]int
	SubscriberBuffer int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Scheduler:        scheduler.DefaultConfig(),
		ScenarioSizes:    circuit.DefaultSizes,
		SubscriberBuffer: broadcast.DefaultBuffer,
	}
}

// Engine owns every stateful component of a linsched process.
type Engine struct {
	config     Config
	jobLog     store.JobLog
	agg        *metrics.Aggregator
	bus        *broadcast.Broadcaster
	runner     *scheduler.Runner
	gen        *circuit.Generator
	collectors *metrics.Collectors
	probe      probe.Probe
	now        func() time.Time
	logger     *slog.Logger

	// runMu serializes batches and keeps Clear from racing a run.
	runMu sync.Mutex

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithProbe sets the resource probe used for every job.
func WithProbe(p probe.Probe) Option {
	return func(e *Engine) { e.probe = p }
}

// WithCollectors wires Prometheus collectors.
func WithCollectors(c *metrics.Collectors) Option {
	return func(e *Engine) { e.collectors = c }
}

// WithRand sets the scenario random source.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithClock replaces the wall clock used for submission times and labels.
// Compute time is always measured with the real clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an Engine backed by jobLog.
func New(cfg Config, jobLog store.JobLog, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		config: cfg,
		jobLog: jobLog,
		agg:    metrics.NewAggregator(),
		probe:  probe.NopProbe{},
		now:    time.Now,
		logger: logger.With("component", "engine"),
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x6c696e73)),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.gen = circuit.NewGenerator(cfg.ScenarioSizes, e.now)

	var busOpts []broadcast.Option
	if e.collectors != nil {
		busOpts = append(busOpts,
			broadcast.WithDroppedCounter(e.collectors.EventsDropped),
			broadcast.WithSubscriberGauge(e.collectors.Subscribers),
		)
	}
	e.bus = broadcast.New(logger, busOpts...)
	e.runner = scheduler.NewRunner(cfg.Scheduler, logger, scheduler.WithProbe(e.probe))
	return e
}

// Restore rebuilds the aggregates from the persisted job log.
func (e *Engine) Restore(ctx context.Context) error {
	records, err := e.jobLog.List(ctx)
	if err != nil {
		return fmt.Errorf("restore job log: %w", err)
	}
	e.agg.Rebuild(records)
	e.logger.Info("aggregates restored", "records", len(records))
	return nil
}

// SubmitScenario generates the named scenario and solves it with every method.
func (e *Engine) SubmitScenario(ctx context.Context, policy, scenario string) ([]model.SolveResult, error) {
	pol, err := model.ParsePolicy(policy)
	if err != nil {
		return nil, err
	}
	e.rngMu.Lock()
	sys, err := e.gen.Scenario(scenario, e.rng)
	e.rngMu.Unlock()
	if err != nil {
		return nil, err
	}
	return e.submit(ctx, pol, sys)
}

// SubmitCustom solves a caller-provided system with every method.
func (e *Engine) SubmitCustom(ctx context.Context, req model.SolveRequest) ([]model.SolveResult, error) {
	pol, err := model.ParsePolicy(req.Policy)
	if err != nil {
		return nil, err
	}
	if err := solver.ValidateSystem(req.A, req.B); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "custom"
	}
	sys := circuit.System{Name: name, A: model.CloneMatrix(req.A), B: append([]float64(nil), req.B...)}
	return e.submit(ctx, pol, sys)
}

// SubmitCircuit builds the system of a physical circuit and solves it with
// every method.
func (e *Engine) SubmitCircuit(ctx context.Context, req model.PhysicalSolveRequest) ([]model.SolveResult, error) {
	pol, err := model.ParsePolicy(req.Policy)
	if err != nil {
		return nil, err
	}
	topo, err := circuit.ParseTopology(req.Topology)
	if err != nil {
		return nil, err
	}
	sys, err := circuit.Build(topo, req.Voltage, req.Resistances, req.Name, e.now())
	if err != nil {
		return nil, err
	}
	return e.submit(ctx, pol, sys)
}

type runOutcome struct {
	results []model.SolveResult
	err     error
}

// submit runs one batch in the background and waits for it. If ctx ends
// first the batch keeps running and its results still reach the job log and
// subscribers.
func (e *Engine) submit(ctx context.Context, policy model.Policy, sys circuit.System) ([]model.SolveResult, error) {
	jobs := e.buildJobs(policy, sys)
	done := make(chan runOutcome, 1)
	runCtx := context.WithoutCancel(ctx)

	go func() {
		e.runMu.Lock()
		defer e.runMu.Unlock()
		results, err := e.execute(runCtx, policy, jobs)
		done <- runOutcome{results: results, err: err}
	}()

	select {
	case out := <-done:
		return out.results, out.err
	case <-ctx.Done():
		e.logger.Warn("caller stopped waiting, batch continues", "policy", policy, "scenario", sys.Name)
		return nil, ctx.Err()
	}
}

func (e *Engine) buildJobs(policy model.Policy, sys circuit.System) []*model.Job {
	submitted := e.now().UTC()
	jobs := make([]*model.Job, 0, len(model.Methods))
	for i, m := range model.Methods {
		jobs = append(jobs, &model.Job{
			ID:          "job_" + uuid.New().String(),
			Method:      m,
			Policy:      policy,
			Scenario:    sys.Name,
			A:           sys.A,
			B:           sys.B,
			State:       model.JobStateQueued,
			SubmittedAt: submitted,
			Seq:         i,
		})
	}
	return jobs
}

func (e *Engine) execute(ctx context.Context, policy model.Policy, jobs []*model.Job) ([]model.SolveResult, error) {
	e.logger.Info("batch started", "policy", policy, "scenario", jobs[0].Scenario, "size", jobs[0].Size(), "jobs", len(jobs))
	e.bus.Publish(model.StatusEvent(model.RunStateRunning, policy, len(jobs)))

	results, err := e.runner.Run(ctx, policy, jobs, func(res model.SolveResult) {
		e.complete(ctx, res)
	})

	e.bus.Publish(model.StatusEvent(model.RunStateDone, policy, len(results)))
	if e.collectors != nil {
		e.collectors.ObserveRun(policy)
	}
	if err != nil {
		return results, fmt.Errorf("run batch: %w", err)
	}
	e.logger.Info("batch finished", "policy", policy, "jobs", len(results))
	return results, nil
}

// complete records one finished job. Failed jobs are broadcast and counted
// but stay out of the job log and the aggregates.
func (e *Engine) complete(ctx context.Context, res model.SolveResult) {
	if e.collectors != nil {
		e.collectors.ObserveResult(res)
	}
	if !res.Failed() {
		rec := res.Record()
		if err := e.jobLog.Append(ctx, rec); err != nil {
			e.logger.Error("append job log", "job_id", res.JobID, "error", err)
		}
		e.agg.Ingest(rec)
	}
	e.bus.Publish(model.ResultEvent(res))
}

// Snapshot returns the current aggregates.
func (e *Engine) Snapshot() model.MetricsSnapshot {
	return e.agg.Snapshot()
}

// Export writes the job log as CSV to w and returns the number of records.
// Nothing is written when the log is empty.
func (e *Engine) Export(ctx context.Context, w io.Writer) (int, error) {
	records, err := e.jobLog.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list job log: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}
	if err := store.WriteCSV(w, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// Clear truncates the job log and resets the aggregates. It waits for a
// running batch to finish.
func (e *Engine) Clear(ctx context.Context) error {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if err := e.jobLog.Clear(ctx); err != nil {
		return fmt.Errorf("clear job log: %w", err)
	}
	e.agg.Rebuild(nil)
	e.logger.Info("job log cleared")
	return nil
}

// Subscribe registers a live observer. A non-positive buffer uses the
// configured default.
func (e *Engine) Subscribe(buffer int) *broadcast.Subscription {
	if buffer <= 0 {
		buffer = e.config.SubscriberBuffer
	}
	return e.bus.Subscribe(buffer)
}

// Subscribers returns the number of live observers.
func (e *Engine) Subscribers() int {
	return e.bus.Len()
}

// Scenarios returns the names of the predefined scenarios.
func (e *Engine) Scenarios() []string {
	return e.gen.Names()
}
