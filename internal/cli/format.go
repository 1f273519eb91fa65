package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/me/linsched/pkg/model"
)

const mib = 1 << 20

// fmtMs renders a millisecond value with three decimals.
func fmtMs(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// fmtFloat renders an optional value, "n/a" when unavailable.
func fmtFloat(f model.Float, prec int) string {
	if !f.Valid() {
		return "n/a"
	}
	return strconv.FormatFloat(float64(f), 'f', prec, 64)
}

// fmtSci renders an optional value in exponent form, used for residuals.
func fmtSci(f model.Float) string {
	if !f.Valid() {
		return "n/a"
	}
	return strconv.FormatFloat(float64(f), 'e', 2, 64)
}

// fmtBytes renders an optional byte count in IEC units.
func fmtBytes(f model.Float) string {
	if !f.Valid() || f < 0 {
		return "n/a"
	}
	return humanize.IBytes(uint64(f))
}

// fmtMB renders an optional MiB value in IEC units.
func fmtMB(f model.Float) string {
	if !f.Valid() {
		return "n/a"
	}
	return fmtBytes(f * mib)
}

func printResults(w io.Writer, results []model.SolveResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results.")
		return
	}
	first := results[0]
	fmt.Fprintf(w, "Scenario:  %s (n=%d)\n", first.Scenario, len(first.X))
	fmt.Fprintf(w, "Scheduler: %s\n\n", first.Policy)

	fmt.Fprintf(w, "%-3s  %-13s  %-7s  %12s  %12s  %13s  %9s  %7s  %10s\n",
		"#", "METHOD", "STATE", "ELAPSED_MS", "WAITING_MS", "TURNAROUND_MS", "RESIDUAL", "CPU%", "MEM")
	for _, r := range results {
		fmt.Fprintf(w, "%-3d  %-13s  %-7s  %12s  %12s  %13s  %9s  %7s  %10s\n",
			r.DispatchOrder,
			r.Method,
			r.State,
			fmtMs(r.ElapsedMs),
			fmtMs(r.WaitingMs),
			fmtMs(r.TurnaroundMs),
			fmtSci(r.Residual),
			fmtFloat(r.Resources.CPUPct, 1),
			fmtMB(r.Resources.MemMB),
		)
	}

	for _, r := range results {
		if r.Failed() {
			fmt.Fprintf(w, "\n%s failed: %s\n", r.Method, r.Error)
		}
	}
	if n := len(first.X); n > 0 && n <= 8 {
		fmt.Fprintf(w, "\nSolution (%s):\n", first.Method)
		for i, x := range first.X {
			fmt.Fprintf(w, "  x[%d] = %.6g\n", i, x)
		}
	}
}

func printSnapshot(w io.Writer, snap model.MetricsSnapshot) {
	fmt.Fprintf(w, "Jobs: %s (as of %s)\n", humanize.Comma(int64(snap.TotalJobs)), snap.GeneratedAt.Format("2006-01-02 15:04:05"))
	printBucket(w, "Totals", snap.Totals)
	printGroup(w, "By method", snap.ByMethod)
	printGroup(w, "By scheduler", snap.ByPolicy)
	printGroup(w, "By scenario", snap.ByScenario)
}

func printGroup(w io.Writer, title string, group map[string]model.MetricsBucket) {
	if len(group) == 0 {
		return
	}
	keys := make([]string, 0, len(group))
	for k := range group {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "\n%s:\n", title)
	fmt.Fprintf(w, "  %-13s  %6s  %12s  %12s  %13s  %7s  %10s  %10s  %9s\n",
		"KEY", "COUNT", "ELAPSED_MS", "WAITING_MS", "TURNAROUND_MS", "CPU%", "MEM", "IO_READ", "JOBS/MIN")
	for _, k := range keys {
		b := group[k]
		fmt.Fprintf(w, "  %-13s  %6d  %12s  %12s  %13s  %7s  %10s  %10s  %9s\n",
			k,
			b.Count,
			fmtFloat(b.AvgElapsedMs, 3),
			fmtFloat(b.AvgWaitingMs, 3),
			fmtFloat(b.AvgTurnaroundMs, 3),
			fmtFloat(b.AvgCPUPct, 1),
			fmtMB(b.AvgMemMB),
			fmtBytes(b.AvgIOReadBytes),
			fmtFloat(b.ThroughputPerMinute, 2),
		)
	}
}

func printBucket(w io.Writer, title string, b model.MetricsBucket) {
	fmt.Fprintf(w, "\n%s:\n", title)
	fmt.Fprintf(w, "  Avg elapsed:     %s ms\n", fmtFloat(b.AvgElapsedMs, 3))
	fmt.Fprintf(w, "  Avg waiting:     %s ms\n", fmtFloat(b.AvgWaitingMs, 3))
	fmt.Fprintf(w, "  Avg turnaround:  %s ms\n", fmtFloat(b.AvgTurnaroundMs, 3))
	fmt.Fprintf(w, "  Avg residual:    %s\n", fmtSci(b.AvgResidual))
	fmt.Fprintf(w, "  Avg CPU:         %s%%\n", fmtFloat(b.AvgCPUPct, 1))
	fmt.Fprintf(w, "  Avg memory:      %s\n", fmtMB(b.AvgMemMB))
	fmt.Fprintf(w, "  Avg ctx (v/i):   %s / %s\n", fmtFloat(b.AvgCtxVoluntary, 1), fmtFloat(b.AvgCtxInvoluntary, 1))
	fmt.Fprintf(w, "  Avg IO (r/w):    %s / %s\n", fmtBytes(b.AvgIOReadBytes), fmtBytes(b.AvgIOWriteBytes))
	fmt.Fprintf(w, "  Total compute:   %s ms\n", fmtMs(b.TotalElapsedMs))
	fmt.Fprintf(w, "  Throughput:      %s jobs/min\n", fmtFloat(b.ThroughputPerMinute, 2))
}

// printEvent renders one live event on a single line.
func printEvent(w io.Writer, ev model.Event) {
	switch ev.Type {
	case model.EventStatus:
		fmt.Fprintf(w, "[status] %s scheduler=%s jobs=%d\n", ev.State, ev.Policy, ev.Count)
	case model.EventResult:
		if ev.Result == nil {
			return
		}
		r := ev.Result
		line := fmt.Sprintf("[result] %s %s %s elapsed=%sms waiting=%sms turnaround=%sms",
			r.Scenario, r.Method, r.State, fmtMs(r.ElapsedMs), fmtMs(r.WaitingMs), fmtMs(r.TurnaroundMs))
		if r.Failed() {
			line += " error=" + strconv.Quote(r.Error)
		} else {
			line += " residual=" + fmtSci(r.Residual)
		}
		fmt.Fprintln(w, line)
	default:
		fmt.Fprintf(w, "[%s]\n", ev.Type)
	}
}
