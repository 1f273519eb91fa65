package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/me/linsched/pkg/model"
)

// CSVHeader is the stable column order of the job log export.
var CSVHeader = []string{
	"ts", "job_id", "method", "scheduler", "scenario",
	"elapsed_ms", "waiting_ms", "turnaround_ms",
	"cpu_pct", "mem_mb", "ctx_voluntary", "ctx_involuntary",
	"io_read_bytes", "io_write_bytes", "residual",
}

// WriteCSV writes the header followed by one row per record. Unavailable
// values are written as empty fields.
func WriteCSV(w io.Writer, records []model.JobRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Timestamp.UTC().Format(time.RFC3339Nano),
			r.JobID,
			string(r.Method),
			string(r.Policy),
			r.Scenario,
			formatFloat(r.ElapsedMs),
			formatFloat(r.WaitingMs),
			formatFloat(r.TurnaroundMs),
			formatOptional(r.CPUPct),
			formatOptional(r.MemMB),
			formatOptional(r.CtxVoluntary),
			formatOptional(r.CtxInvoluntary),
			formatOptional(r.IOReadBytes),
			formatOptional(r.IOWriteBytes),
			formatOptional(r.Residual),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", r.JobID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatOptional(f model.Float) string {
	if !f.Valid() {
		return ""
	}
	return formatFloat(float64(f))
}
