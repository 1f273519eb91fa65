// Package scheduler dispatches a batch of solve jobs under FCFS, round-robin
// or shortest-job-first on a single virtual execution lane.
//
// The lane clock starts at zero when the batch is submitted and advances only
// by measured compute time, so for every job
//
//	turnaround = lane time at completion = waiting + elapsed.
package scheduler

import (
	"sort"
	"time"

	"github.com/me/linsched/pkg/model"
)

// Policy decides dispatch order and slice length.
type Policy interface {
	Name() model.Policy

	// Order returns the initial ready queue. It must not modify jobs.
	Order(jobs []*model.Job) []*model.Job

	// Quantum is the slice budget. Zero means run each job to completion.
	Quantum() time.Duration
}

// NewPolicy returns the Policy for p.
func NewPolicy(p model.Policy, cfg Config) (Policy, error) {
	switch p {
	case model.PolicyFCFS:
		return fcfs{}, nil
	case model.PolicyRR:
		if cfg.Quantum <= 0 {
			return nil, model.Invalidf("round-robin quantum must be positive, got %s", cfg.Quantum)
		}
		return roundRobin{quantum: cfg.Quantum}, nil
	case model.PolicySJF:
		return sjf{}, nil
	}
	return nil, model.Invalidf("unknown scheduler policy %q", p)
}

type fcfs struct{}

func (fcfs) Name() model.Policy { return model.PolicyFCFS }

func (fcfs) Order(jobs []*model.Job) []*model.Job { return bySeq(jobs) }

func (fcfs) Quantum() time.Duration { return 0 }

type roundRobin struct {
	quantum time.Duration
}

func (roundRobin) Name() model.Policy { return model.PolicyRR }

func (roundRobin) Order(jobs []*model.Job) []*model.Job { return bySeq(jobs) }

func (r roundRobin) Quantum() time.Duration { return r.quantum }

// sjf is non-preemptive: ascending Estimate, ties broken by submission order.
type sjf struct{}

func (sjf) Name() model.Policy { return model.PolicySJF }

func (sjf) Order(jobs []*model.Job) []*model.Job {
	out := bySeq(jobs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Estimate < out[j].Estimate
	})
	return out
}

func (sjf) Quantum() time.Duration { return 0 }

func bySeq(jobs []*model.Job) []*model.Job {
	out := append([]*model.Job(nil), jobs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Seq < out[j].Seq
	})
	return out
}
