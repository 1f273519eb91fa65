package model

import "time"

// MetricsBucket holds the aggregate of one group of job records. Averages of
// resource fields skip samples that were not available; a bucket with no
// valid samples for a field reports NaN (JSON null).
type MetricsBucket struct {
	Count               int     `json:"count"`
	AvgElapsedMs        Float   `json:"avg_elapsed_ms"`
	AvgWaitingMs        Float   `json:"avg_waiting_ms"`
	AvgTurnaroundMs     Float   `json:"avg_turnaround_ms"`
	AvgCPUPct           Float   `json:"avg_cpu_pct"`
	AvgMemMB            Float   `json:"avg_mem_mb"`
	AvgCtxVoluntary     Float   `json:"avg_ctx_voluntary"`
	AvgCtxInvoluntary   Float   `json:"avg_ctx_involuntary"`
	AvgIOReadBytes      Float   `json:"avg_io_read_bytes"`
	AvgIOWriteBytes     Float   `json:"avg_io_write_bytes"`
	AvgResidual         Float   `json:"avg_residual"`
	TotalElapsedMs      float64 `json:"total_elapsed_ms"`
	ThroughputPerMinute Float   `json:"throughput_per_min"`
}

// MetricsSnapshot is an immutable view of the aggregator.
type MetricsSnapshot struct {
	TotalJobs   int                      `json:"total_jobs"`
	Totals      MetricsBucket            `json:"totals"`
	ByMethod    map[string]MetricsBucket `json:"by_method"`
	ByScenario  map[string]MetricsBucket `json:"by_scenario"`
	ByPolicy    map[string]MetricsBucket `json:"by_scheduler"`
	GeneratedAt time.Time                `json:"generated_at"`
}

// Empty returns true if no job has been aggregated.
func (s *MetricsSnapshot) Empty() bool {
	return s.TotalJobs == 0
}
