package model

import (
	"strings"
	"time"
)

// Method identifies which solve strategy runs a Job.
type Method string

const (
	MethodCramer      Method = "cramer"
	MethodGaussJordan Method = "gauss-jordan"
	MethodLibrary     Method = "library"
)

// Methods lists every solve strategy in the order a batch submits them.
var Methods = []Method{MethodCramer, MethodGaussJordan, MethodLibrary}

// ParseMethod converts user input to a Method. Accepts the aliases used by
// older clients (gauss, gauss_jordan, commons).
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cramer":
		return MethodCramer, nil
	case "gauss", "gauss-jordan", "gauss_jordan":
		return MethodGaussJordan, nil
	case "library", "commons":
		return MethodLibrary, nil
	}
	return "", Invalidf("unknown method %q", s)
}

// Policy identifies a dispatch policy.
type Policy string

const (
	PolicyFCFS Policy = "fcfs"
	PolicyRR   Policy = "rr"
	PolicySJF  Policy = "sjf"
)

// ParsePolicy converts user input to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyFCFS, PolicyRR, PolicySJF:
		return p, nil
	case "":
		return "", Invalidf("sched is required")
	}
	return "", Invalidf("unknown scheduler policy %q", s)
}

// Job is a concrete, schedulable unit of work: one solve of A·x = b by one
// method under one policy.
type Job struct {
	ID          string      `json:"id"`
	Method      Method      `json:"method"`
	Policy      Policy      `json:"policy"`
	Scenario    string      `json:"scenario"`
	A           [][]float64 `json:"a"`
	B           []float64   `json:"b"`
	State       JobState    `json:"state"`
	SubmittedAt time.Time   `json:"submitted_at"`

	// Seq is the submission order within the batch (0-based). Used as the
	// stable tie-break by every policy.
	Seq int `json:"seq"`

	// Estimate is the SJF cost proxy in milliseconds.
	Estimate float64 `json:"estimate_ms"`
}

// Size returns the dimension n of the system.
func (j *Job) Size() int {
	return len(j.B)
}

// Transition moves the job to next, or returns an InvalidTransitionError.
func (j *Job) Transition(next JobState) error {
	if !j.State.CanTransitionTo(next) {
		return &InvalidTransitionError{
			Entity: "Job",
			ID:     j.ID,
			From:   j.State.String(),
			To:     next.String(),
		}
	}
	j.State = next
	return nil
}

// CloneMatrix returns a deep copy of a.
func CloneMatrix(a [][]float64) [][]float64 {
	if a == nil {
		return nil
	}
	out := make([][]float64, len(a))
	for i, row := range a {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
