package model

import (
	"errors"
	"testing"
	"time"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    Method
		wantErr bool
	}{
		{"cramer", MethodCramer, false},
		{"CRAMER", MethodCramer, false},
		{"gauss", MethodGaussJordan, false},
		{"gauss_jordan", MethodGaussJordan, false},
		{"gauss-jordan", MethodGaussJordan, false},
		{"commons", MethodLibrary, false},
		{" library ", MethodLibrary, false},
		{"qr", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseMethod(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMethod(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ParseMethod(%q) error %v does not wrap ErrInvalidInput", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseMethod(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"fcfs", PolicyFCFS, false},
		{"RR", PolicyRR, false},
		{"Sjf", PolicySJF, false},
		{"priority", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePolicy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJob_Transition(t *testing.T) {
	j := &Job{ID: "job_1", State: JobStateQueued}
	if err := j.Transition(JobStateRunning); err != nil {
		t.Fatalf("queued -> running: %v", err)
	}
	if err := j.Transition(JobStateDone); err != nil {
		t.Fatalf("running -> done: %v", err)
	}
	err := j.Transition(JobStateRunning)
	var ite *InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatalf("done -> running: got %v, want InvalidTransitionError", err)
	}
	if j.State != JobStateDone {
		t.Errorf("state changed on invalid transition: %s", j.State)
	}
}

func TestCloneMatrix(t *testing.T) {
	a := [][]float64{{1, 2}, {3, 4}}
	c := CloneMatrix(a)
	c[0][0] = 99
	if a[0][0] != 1 {
		t.Errorf("CloneMatrix shares storage with source")
	}
	if CloneMatrix(nil) != nil {
		t.Errorf("CloneMatrix(nil) should be nil")
	}
}

func TestSolveResult_Record(t *testing.T) {
	done := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	r := SolveResult{
		JobID:        "job_1",
		Method:       MethodGaussJordan,
		Policy:       PolicyRR,
		Scenario:     "medio-1714564800000",
		State:        JobStateDone,
		ElapsedMs:    2,
		WaitingMs:    3,
		TurnaroundMs: 5,
		Residual:     1e-13,
		Resources:    UnavailableSample(),
		CompletedAt:  &done,
	}
	rec := r.Record()
	if !rec.Timestamp.Equal(done) {
		t.Errorf("Timestamp = %v, want %v", rec.Timestamp, done)
	}
	if rec.Method != MethodGaussJordan || rec.Policy != PolicyRR {
		t.Errorf("method/policy = %s/%s", rec.Method, rec.Policy)
	}
	if rec.TurnaroundMs != rec.WaitingMs+rec.ElapsedMs {
		t.Errorf("turnaround %v != waiting %v + elapsed %v", rec.TurnaroundMs, rec.WaitingMs, rec.ElapsedMs)
	}
	if rec.CPUPct.Valid() || rec.IOWriteBytes.Valid() {
		t.Errorf("unavailable resources should stay NaN")
	}
	if rec.Residual != 1e-13 {
		t.Errorf("Residual = %v", rec.Residual)
	}
}

func TestResultEvent_CopiesResult(t *testing.T) {
	r := SolveResult{JobID: "job_1", Policy: PolicySJF}
	ev := ResultEvent(r)
	r.JobID = "changed"
	if ev.Type != EventResult {
		t.Errorf("Type = %s, want result", ev.Type)
	}
	if ev.Result.JobID != "job_1" {
		t.Errorf("event result aliases caller value")
	}
	if ev.Policy != PolicySJF {
		t.Errorf("Policy = %s, want sjf", ev.Policy)
	}
}
