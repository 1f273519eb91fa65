package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/me/linsched/internal/solver"
	"github.com/me/linsched/pkg/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStepper finishes after a fixed number of steps and records each step
// in a shared trace.
type fakeStepper struct {
	name   string
	total  int
	done   int
	failAt int
	trace  *[]string
}

func (f *fakeStepper) Step() error {
	f.done++
	*f.trace = append(*f.trace, f.name)
	if f.failAt > 0 && f.done == f.failAt {
		return model.ErrSingularMatrix
	}
	return nil
}

func (f *fakeStepper) Done() bool { return f.done >= f.total && f.failAt == 0 }

func (f *fakeStepper) Solution() []float64 {
	if !f.Done() {
		return nil
	}
	return []float64{1}
}

type fakeSpec struct {
	steps  int
	failAt int
}

// tickingClock advances by step on every call.
func tickingClock(step time.Duration) func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func frozenClock() func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time { return t }
}

var batchStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newJob(id string, method model.Method, policy model.Policy, seq int) *model.Job {
	return &model.Job{
		ID:          id,
		Method:      method,
		Policy:      policy,
		Scenario:    "test",
		A:           [][]float64{{1}},
		B:           []float64{1},
		State:       model.JobStateQueued,
		SubmittedAt: batchStart,
		Seq:         seq,
	}
}

// runFake runs jobs whose IDs map to fake step counts.
func runFake(t *testing.T, cfg Config, clock func() time.Time, policy model.Policy, jobs []*model.Job, specs map[string]fakeSpec) ([]model.SolveResult, []string) {
	t.Helper()
	var trace []string
	byJob := make(map[*model.Job]fakeSpec)
	for _, j := range jobs {
		byJob[j] = specs[j.ID]
	}
	// Steppers are created in dispatch order; match on the matrix pointer.
	factory := func(method model.Method, a [][]float64, b []float64) (solver.Stepper, error) {
		for j, fs := range byJob {
			if &j.A[0][0] == &a[0][0] {
				return &fakeStepper{name: j.ID, total: fs.steps, failAt: fs.failAt, trace: &trace}, nil
			}
		}
		return nil, errors.New("unknown job")
	}
	r := NewRunner(cfg, discardLogger(), WithStepperFactory(factory), WithClock(clock))
	results, err := r.Run(context.Background(), policy, jobs, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return results, trace
}

func TestRun_RoundRobinRotation(t *testing.T) {
	cfg := Config{Quantum: 2 * time.Millisecond, MinStepCost: time.Millisecond}
	jobs := []*model.Job{
		newJob("X", model.MethodCramer, model.PolicyRR, 0),
		newJob("Y", model.MethodCramer, model.PolicyRR, 1),
	}
	specs := map[string]fakeSpec{"X": {steps: 3}, "Y": {steps: 1}}

	results, trace := runFake(t, cfg, frozenClock(), model.PolicyRR, jobs, specs)

	if got := strings.Join(trace, ","); got != "X,X,Y,X" {
		t.Errorf("step order = %s, want X,X,Y,X", got)
	}
	if len(results) != 2 || results[0].JobID != "Y" || results[1].JobID != "X" {
		t.Errorf("completion order = %v", resultIDs(results))
	}
}

func TestRun_FCFSWaiting(t *testing.T) {
	jobs := []*model.Job{
		newJob("A", model.MethodCramer, model.PolicyFCFS, 0),
		newJob("B", model.MethodGaussJordan, model.PolicyFCFS, 1),
		newJob("C", model.MethodLibrary, model.PolicyFCFS, 2),
	}
	specs := map[string]fakeSpec{"A": {steps: 3}, "B": {steps: 1}, "C": {steps: 2}}

	// Each step reads the clock twice, so one step measures 1ms.
	results, trace := runFake(t, DefaultConfig(), tickingClock(time.Millisecond), model.PolicyFCFS, jobs, specs)

	if got := strings.Join(trace, ","); got != "A,A,A,B,C,C" {
		t.Errorf("step order = %s", got)
	}
	var sumPrev float64
	for i, r := range results {
		if r.State != model.JobStateDone {
			t.Errorf("%s state = %s", r.JobID, r.State)
		}
		if r.DispatchOrder != i {
			t.Errorf("%s dispatch order = %d, want %d", r.JobID, r.DispatchOrder, i)
		}
		if math.Abs(r.WaitingMs-sumPrev) > 1e-9 {
			t.Errorf("%s waiting = %v, want %v", r.JobID, r.WaitingMs, sumPrev)
		}
		if r.TurnaroundMs != r.WaitingMs+r.ElapsedMs {
			t.Errorf("%s turnaround %v != waiting %v + elapsed %v", r.JobID, r.TurnaroundMs, r.WaitingMs, r.ElapsedMs)
		}
		sumPrev += r.ElapsedMs
	}
	if results[0].ElapsedMs != 3 || results[1].ElapsedMs != 1 || results[2].ElapsedMs != 2 {
		t.Errorf("elapsed = %v, %v, %v", results[0].ElapsedMs, results[1].ElapsedMs, results[2].ElapsedMs)
	}
	if !results[2].CompletedAt.Equal(batchStart.Add(6 * time.Millisecond)) {
		t.Errorf("C completed at %v", results[2].CompletedAt)
	}
}

func TestRun_RoundRobinBookkeeping(t *testing.T) {
	cfg := Config{Quantum: 3 * time.Millisecond, MinStepCost: time.Millisecond}
	jobs := []*model.Job{
		newJob("A", model.MethodCramer, model.PolicyRR, 0),
		newJob("B", model.MethodGaussJordan, model.PolicyRR, 1),
		newJob("C", model.MethodLibrary, model.PolicyRR, 2),
	}
	specs := map[string]fakeSpec{"A": {steps: 7}, "B": {steps: 2}, "C": {steps: 4}}

	results, _ := runFake(t, cfg, tickingClock(time.Millisecond), model.PolicyRR, jobs, specs)

	var total float64
	for _, r := range results {
		total += r.ElapsedMs
		if r.WaitingMs < 0 {
			t.Errorf("%s waiting negative: %v", r.JobID, r.WaitingMs)
		}
		if r.TurnaroundMs != r.WaitingMs+r.ElapsedMs {
			t.Errorf("%s turnaround invariant broken", r.JobID)
		}
	}
	if total != 13 {
		t.Errorf("total elapsed = %v, want 13", total)
	}
	last := results[len(results)-1]
	if last.JobID != "A" || last.TurnaroundMs != 13 {
		t.Errorf("last = %s turnaround %v, want A at 13", last.JobID, last.TurnaroundMs)
	}
}

func TestRun_SJFOrdersByEstimate(t *testing.T) {
	big := newJob("big", model.MethodCramer, model.PolicySJF, 0)
	big.A = [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	big.B = []float64{1, 1, 1}
	small := newJob("small", model.MethodLibrary, model.PolicySJF, 1)
	tieA := newJob("tieA", model.MethodLibrary, model.PolicySJF, 2)

	r := NewRunner(DefaultConfig(), discardLogger(), WithClock(tickingClock(time.Microsecond)))
	results, err := r.Run(context.Background(), model.PolicySJF, []*model.Job{big, small, tieA}, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := resultIDs(results)
	if strings.Join(got, ",") != "small,tieA,big" {
		t.Errorf("order = %v, want small,tieA,big", got)
	}
	if big.Estimate <= small.Estimate {
		t.Errorf("estimates: big %v <= small %v", big.Estimate, small.Estimate)
	}
}

func TestRun_FailureContinues(t *testing.T) {
	jobs := []*model.Job{
		newJob("A", model.MethodCramer, model.PolicyFCFS, 0),
		newJob("B", model.MethodGaussJordan, model.PolicyFCFS, 1),
	}
	specs := map[string]fakeSpec{"A": {steps: 3, failAt: 2}, "B": {steps: 1}}

	var completed []string
	var trace []string
	factory := func(method model.Method, a [][]float64, b []float64) (solver.Stepper, error) {
		for _, j := range jobs {
			if &j.A[0][0] == &a[0][0] {
				s := specs[j.ID]
				return &fakeStepper{name: j.ID, total: s.steps, failAt: s.failAt, trace: &trace}, nil
			}
		}
		return nil, errors.New("unknown job")
	}
	r := NewRunner(DefaultConfig(), discardLogger(), WithStepperFactory(factory), WithClock(tickingClock(time.Millisecond)))
	results, err := r.Run(context.Background(), model.PolicyFCFS, jobs, func(res model.SolveResult) {
		completed = append(completed, res.JobID)
	})
	if err != nil {
		t.Fatal(err)
	}

	if results[0].State != model.JobStateFailed || results[0].Error == "" {
		t.Errorf("A = %s %q, want FAILED with marker", results[0].State, results[0].Error)
	}
	if results[0].Residual.Valid() || results[0].X != nil {
		t.Errorf("failed result should have NaN residual and no solution")
	}
	if results[0].ElapsedMs != 2 {
		t.Errorf("failed elapsed = %v, want 2", results[0].ElapsedMs)
	}
	if results[1].State != model.JobStateDone || results[1].WaitingMs != 2 {
		t.Errorf("B = %s waiting %v", results[1].State, results[1].WaitingMs)
	}
	if strings.Join(completed, ",") != "A,B" {
		t.Errorf("callbacks = %v", completed)
	}
	if jobs[0].State != model.JobStateFailed || jobs[1].State != model.JobStateDone {
		t.Errorf("job states = %s, %s", jobs[0].State, jobs[1].State)
	}
}

func TestRun_RealSolvers(t *testing.T) {
	var jobs []*model.Job
	for i, m := range model.Methods {
		j := newJob(string(m), m, model.PolicyRR, i)
		j.A = [][]float64{{4, 1, 0}, {1, 3, 1}, {0, 1, 2}}
		j.B = []float64{1, 2, 3}
		jobs = append(jobs, j)
	}
	r := NewRunner(DefaultConfig(), discardLogger())
	results, err := r.Run(context.Background(), model.PolicyRR, jobs, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d", len(results))
	}
	for _, res := range results {
		if res.State != model.JobStateDone {
			t.Errorf("%s: %s %s", res.JobID, res.State, res.Error)
		}
		if float64(res.Residual) > 1e-9 {
			t.Errorf("%s residual %v", res.JobID, res.Residual)
		}
		if len(res.Equations) != 3 {
			t.Errorf("%s equations = %d", res.JobID, len(res.Equations))
		}
		if res.TurnaroundMs != res.WaitingMs+res.ElapsedMs {
			t.Errorf("%s turnaround invariant broken", res.JobID)
		}
	}
	if r.Estimator().NsPerFlop(model.MethodGaussJordan) == seedNsPerFlop {
		t.Errorf("estimator not updated after run")
	}
}

func TestRun_SingularMatrixFails(t *testing.T) {
	j := newJob("S", model.MethodGaussJordan, model.PolicyFCFS, 0)
	j.A = [][]float64{{1, 2}, {2, 4}}
	j.B = []float64{1, 2}
	r := NewRunner(DefaultConfig(), discardLogger())
	results, err := r.Run(context.Background(), model.PolicyFCFS, []*model.Job{j}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].State != model.JobStateFailed || !strings.Contains(results[0].Error, "singular") {
		t.Errorf("result = %s %q", results[0].State, results[0].Error)
	}
}

func TestRun_UnknownPolicy(t *testing.T) {
	r := NewRunner(DefaultConfig(), discardLogger())
	_, err := r.Run(context.Background(), "lottery", nil, nil)
	if !errors.Is(err, model.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewRunner(DefaultConfig(), discardLogger())
	results, err := r.Run(ctx, model.PolicyFCFS, []*model.Job{newJob("A", model.MethodLibrary, model.PolicyFCFS, 0)}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %d, want 0", len(results))
	}
}

func resultIDs(results []model.SolveResult) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.JobID
	}
	return out
}
