// Package metrics aggregates completed job records into per-method,
// per-scenario and per-policy buckets, and exposes Prometheus collectors.
package metrics

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/me/linsched/pkg/model"
)

// fieldSum is a running sum that ignores unavailable samples.
type fieldSum struct {
	sum float64
	n   int
}

func (f *fieldSum) add(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	f.sum += v
	f.n++
}

func (f fieldSum) avg() model.Float {
	if f.n == 0 {
		return model.NaN()
	}
	return model.Float(f.sum / float64(f.n))
}

type bucket struct {
	count          int
	elapsed        fieldSum
	waiting        fieldSum
	turnaround     fieldSum
	cpuPct         fieldSum
	memMB          fieldSum
	ctxVoluntary   fieldSum
	ctxInvoluntary fieldSum
	ioRead         fieldSum
	ioWrite        fieldSum
	residual       fieldSum
	first, last    time.Time
}

func (b *bucket) add(r model.JobRecord) {
	b.count++
	b.elapsed.add(r.ElapsedMs)
	b.waiting.add(r.WaitingMs)
	b.turnaround.add(r.TurnaroundMs)
	b.cpuPct.add(float64(r.CPUPct))
	b.memMB.add(float64(r.MemMB))
	b.ctxVoluntary.add(float64(r.CtxVoluntary))
	b.ctxInvoluntary.add(float64(r.CtxInvoluntary))
	b.ioRead.add(float64(r.IOReadBytes))
	b.ioWrite.add(float64(r.IOWriteBytes))
	b.residual.add(float64(r.Residual))
	if b.first.IsZero() || r.Timestamp.Before(b.first) {
		b.first = r.Timestamp
	}
	if r.Timestamp.After(b.last) {
		b.last = r.Timestamp
	}
}

func (b bucket) view() model.MetricsBucket {
	throughput := model.NaN()
	if span := b.last.Sub(b.first).Minutes(); b.count >= 2 && span > 0 {
		throughput = model.Float(float64(b.count) / span)
	}
	return model.MetricsBucket{
		Count:               b.count,
		AvgElapsedMs:        b.elapsed.avg(),
		AvgWaitingMs:        b.waiting.avg(),
		AvgTurnaroundMs:     b.turnaround.avg(),
		AvgCPUPct:           b.cpuPct.avg(),
		AvgMemMB:            b.memMB.avg(),
		AvgCtxVoluntary:     b.ctxVoluntary.avg(),
		AvgCtxInvoluntary:   b.ctxInvoluntary.avg(),
		AvgIOReadBytes:      b.ioRead.avg(),
		AvgIOWriteBytes:     b.ioWrite.avg(),
		AvgResidual:         b.residual.avg(),
		TotalElapsedMs:      b.elapsed.sum,
		ThroughputPerMinute: throughput,
	}
}

// Aggregator keeps running sums of every ingested record. Safe for
// concurrent use; Snapshot holds the lock only while copying sums.
type Aggregator struct {
	mu         sync.RWMutex
	totals     bucket
	byMethod   map[string]*bucket
	byScenario map[string]*bucket
	byPolicy   map[string]*bucket
	now        func() time.Time
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	a := &Aggregator{now: time.Now}
	a.reset()
	return a
}

func (a *Aggregator) reset() {
	a.totals = bucket{}
	a.byMethod = make(map[string]*bucket)
	a.byScenario = make(map[string]*bucket)
	a.byPolicy = make(map[string]*bucket)
}

// Ingest folds one completed record into the aggregates.
func (a *Aggregator) Ingest(r model.JobRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ingest(r)
}

func (a *Aggregator) ingest(r model.JobRecord) {
	a.totals.add(r)
	group(a.byMethod, string(r.Method)).add(r)
	group(a.byScenario, NormalizeScenario(r.Scenario)).add(r)
	group(a.byPolicy, strings.ToLower(string(r.Policy))).add(r)
}

func group(m map[string]*bucket, key string) *bucket {
	b, ok := m[key]
	if !ok {
		b = &bucket{}
		m[key] = b
	}
	return b
}

// Rebuild discards the aggregates and replays records.
func (a *Aggregator) Rebuild(records []model.JobRecord) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reset()
	for _, r := range records {
		a.ingest(r)
	}
}

// Count returns the number of aggregated records.
func (a *Aggregator) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.totals.count
}

// Snapshot returns an immutable view of the aggregates.
func (a *Aggregator) Snapshot() model.MetricsSnapshot {
	a.mu.RLock()
	totals := a.totals
	byMethod := copyGroups(a.byMethod)
	byScenario := copyGroups(a.byScenario)
	byPolicy := copyGroups(a.byPolicy)
	a.mu.RUnlock()

	return model.MetricsSnapshot{
		TotalJobs:   totals.count,
		Totals:      totals.view(),
		ByMethod:    views(byMethod),
		ByScenario:  views(byScenario),
		ByPolicy:    views(byPolicy),
		GeneratedAt: a.now().UTC(),
	}
}

func copyGroups(m map[string]*bucket) map[string]bucket {
	out := make(map[string]bucket, len(m))
	for k, b := range m {
		out[k] = *b
	}
	return out
}

func views(m map[string]bucket) map[string]model.MetricsBucket {
	out := make(map[string]model.MetricsBucket, len(m))
	for k, b := range m {
		out[k] = b.view()
	}
	return out
}

// NormalizeScenario lower-cases a scenario label and strips a generated
// "-<digits>" suffix, so that simple-1700000000000 groups under simple.
func NormalizeScenario(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	if i := strings.LastIndexByte(s, '-'); i > 0 && isDigits(s[i+1:]) {
		return s[:i]
	}
	return s
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
