package scheduler

import (
	"math"
	"testing"
	"time"

	"github.com/me/linsched/pkg/model"
)

func TestFlops(t *testing.T) {
	tests := []struct {
		method model.Method
		n      int
		want   float64
	}{
		{model.MethodCramer, 3, 36},
		{model.MethodGaussJordan, 3, 27},
		{model.MethodLibrary, 3, 18},
		{model.MethodLibrary, 0, 0},
	}
	for _, tt := range tests {
		if got := Flops(tt.method, tt.n); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Flops(%s, %d) = %v, want %v", tt.method, tt.n, got, tt.want)
		}
	}
}

func TestEstimator_SeedAndObserve(t *testing.T) {
	e := NewEstimator()
	if got := e.Estimate(model.MethodGaussJordan, 100); got != 1 {
		t.Errorf("seed estimate = %v ms, want 1", got)
	}

	// 1000 flops in 3000ns is 3 ns/flop; EMA: 0.2*3 + 0.8*1 = 1.4.
	e.Observe(model.MethodGaussJordan, 10, 3000*time.Nanosecond)
	if got := e.NsPerFlop(model.MethodGaussJordan); math.Abs(got-1.4) > 1e-12 {
		t.Errorf("NsPerFlop = %v, want 1.4", got)
	}
	if got := e.NsPerFlop(model.MethodCramer); got != 1 {
		t.Errorf("other method changed: %v", got)
	}

	e.Observe(model.MethodGaussJordan, 10, 0)
	if got := e.NsPerFlop(model.MethodGaussJordan); math.Abs(got-1.4) > 1e-12 {
		t.Errorf("zero elapsed should be ignored, got %v", got)
	}
}

func TestNewPolicy(t *testing.T) {
	cfg := DefaultConfig()
	for _, p := range []model.Policy{model.PolicyFCFS, model.PolicyRR, model.PolicySJF} {
		pol, err := NewPolicy(p, cfg)
		if err != nil {
			t.Fatalf("NewPolicy(%s): %v", p, err)
		}
		if pol.Name() != p {
			t.Errorf("Name() = %s, want %s", pol.Name(), p)
		}
	}
	if _, err := NewPolicy(model.PolicyRR, Config{}); err == nil {
		t.Error("expected error for zero quantum")
	}
}

func TestSJF_StableTieBreak(t *testing.T) {
	jobs := []*model.Job{
		{ID: "c", Seq: 2, Estimate: 1},
		{ID: "a", Seq: 0, Estimate: 5},
		{ID: "b", Seq: 1, Estimate: 1},
	}
	got := sjf{}.Order(jobs)
	want := []string{"b", "c", "a"}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("order[%d] = %s, want %s", i, got[i].ID, want[i])
		}
	}
	if jobs[0].ID != "c" {
		t.Error("Order modified its input")
	}
}
