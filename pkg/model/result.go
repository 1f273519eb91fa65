package model

import "time"

// EquationCheck verifies one row of A·x = b.
type EquationCheck struct {
	Row   int     `json:"row"`
	LHS   float64 `json:"lhs"`
	RHS   float64 `json:"rhs"`
	Error float64 `json:"error"`
}

// ResourceSample is the resource consumption attributed to one job. NaN
// fields mean the counter was not available on this platform.
type ResourceSample struct {
	CPUPct         Float `json:"cpu_pct"`
	MemMB          Float `json:"mem_mb"`
	CtxVoluntary   Float `json:"ctx_voluntary"`
	CtxInvoluntary Float `json:"ctx_involuntary"`
	IOReadBytes    Float `json:"io_read_bytes"`
	IOWriteBytes   Float `json:"io_write_bytes"`
}

// UnavailableSample returns a ResourceSample with every field not available.
func UnavailableSample() ResourceSample {
	return ResourceSample{
		CPUPct:         NaN(),
		MemMB:          NaN(),
		CtxVoluntary:   NaN(),
		CtxInvoluntary: NaN(),
		IOReadBytes:    NaN(),
		IOWriteBytes:   NaN(),
	}
}

// SolveResult is the outcome of one Job. Failed jobs carry the same timing
// bookkeeping with Error set and Residual NaN.
type SolveResult struct {
	JobID        string          `json:"job_id"`
	Method       Method          `json:"method"`
	Policy       Policy          `json:"scheduler"`
	Scenario     string          `json:"scenario"`
	State        JobState        `json:"state"`
	Error        string          `json:"error,omitempty"`
	ElapsedMs    float64         `json:"elapsed_ms"`
	WaitingMs    float64         `json:"waiting_ms"`
	TurnaroundMs float64         `json:"turnaround_ms"`
	Residual     Float           `json:"residual"`
	Equations    []EquationCheck `json:"equations"`
	X            []float64       `json:"x"`
	Resources    ResourceSample  `json:"resources"`

	// DispatchOrder is the 0-based position of the job's first dispatch.
	DispatchOrder int        `json:"dispatch_order"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// Failed returns true if the job ended in the FAILED state.
func (r *SolveResult) Failed() bool {
	return r.State == JobStateFailed
}

// Record converts a completed result into its persisted log row.
func (r *SolveResult) Record() JobRecord {
	ts := time.Now().UTC()
	if r.CompletedAt != nil {
		ts = *r.CompletedAt
	}
	return JobRecord{
		Timestamp:      ts,
		JobID:          r.JobID,
		Method:         r.Method,
		Policy:         r.Policy,
		Scenario:       r.Scenario,
		ElapsedMs:      r.ElapsedMs,
		WaitingMs:      r.WaitingMs,
		TurnaroundMs:   r.TurnaroundMs,
		CPUPct:         r.Resources.CPUPct,
		MemMB:          r.Resources.MemMB,
		CtxVoluntary:   r.Resources.CtxVoluntary,
		CtxInvoluntary: r.Resources.CtxInvoluntary,
		IOReadBytes:    r.Resources.IOReadBytes,
		IOWriteBytes:   r.Resources.IOWriteBytes,
		Residual:       r.Residual,
	}
}

// JobRecord is one row of the append-only job log.
type JobRecord struct {
	Timestamp      time.Time `json:"ts"`
	JobID          string    `json:"job_id"`
	Method         Method    `json:"method"`
	Policy         Policy    `json:"scheduler"`
	Scenario       string    `json:"scenario"`
	ElapsedMs      float64   `json:"elapsed_ms"`
	WaitingMs      float64   `json:"waiting_ms"`
	TurnaroundMs   float64   `json:"turnaround_ms"`
	CPUPct         Float     `json:"cpu_pct"`
	MemMB          Float     `json:"mem_mb"`
	CtxVoluntary   Float     `json:"ctx_voluntary"`
	CtxInvoluntary Float     `json:"ctx_involuntary"`
	IOReadBytes    Float     `json:"io_read_bytes"`
	IOWriteBytes   Float     `json:"io_write_bytes"`
	Residual       Float     `json:"residual"`
}

// Event is pushed to live observers. Type "status" carries State/Policy/Count;
// type "result" carries Result.
type Event struct {
	Type   EventType    `json:"type"`
	State  RunState     `json:"state,omitempty"`
	Policy Policy       `json:"scheduler,omitempty"`
	Count  int          `json:"count,omitempty"`
	Result *SolveResult `json:"result,omitempty"`
}

// EventType discriminates Event payloads.
type EventType string

const (
	EventStatus EventType = "status"
	EventResult EventType = "result"
)

// StatusEvent builds a batch status event.
func StatusEvent(state RunState, policy Policy, count int) Event {
	return Event{Type: EventStatus, State: state, Policy: policy, Count: count}
}

// ResultEvent builds a per-job result event. The result is copied.
func ResultEvent(r SolveResult) Event {
	return Event{Type: EventResult, Policy: r.Policy, Result: &r}
}
