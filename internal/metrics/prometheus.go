package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/me/linsched/pkg/model"
)

// Namespace prefixes every exported metric.
const Namespace = "linsched"

// Collectors holds the Prometheus metrics of the service.
type Collectors struct {
	JobsTotal     *prometheus.CounterVec
	JobElapsed    *prometheus.HistogramVec
	JobWaiting    *prometheus.HistogramVec
	RunsTotal     *prometheus.CounterVec
	EventsDropped prometheus.Counter
	Subscribers   prometheus.Gauge
}

// NewCollectors creates and registers the collectors on reg. A nil reg uses
// the default registerer.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Collectors{
		JobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "jobs_total",
				Help:      "Jobs finished, by method, policy and terminal state",
			},
			[]string{"method", "policy", "state"},
		),
		JobElapsed: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "job_elapsed_seconds",
				Help:      "Compute time of a job",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 12), // 10µs to ~40s
			},
			[]string{"method"},
		),
		JobWaiting: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "job_waiting_seconds",
				Help:      "Time a job spent ready but not running",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 12),
			},
			[]string{"policy"},
		),
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "runs_total",
				Help:      "Batches executed, by policy",
			},
			[]string{"policy"},
		),
		EventsDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "events_dropped_total",
				Help:      "Events not delivered because a subscriber buffer was full",
			},
		),
		Subscribers: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "subscribers",
				Help:      "Live event subscribers",
			},
		),
	}
}

// ObserveResult records one finished job.
func (c *Collectors) ObserveResult(r model.SolveResult) {
	c.JobsTotal.WithLabelValues(string(r.Method), string(r.Policy), r.State.String()).Inc()
	c.JobElapsed.WithLabelValues(string(r.Method)).Observe(r.ElapsedMs / 1000)
	c.JobWaiting.WithLabelValues(string(r.Policy)).Observe(r.WaitingMs / 1000)
}

// ObserveRun records one executed batch.
func (c *Collectors) ObserveRun(p model.Policy) {
	c.RunsTotal.WithLabelValues(string(p)).Inc()
}
