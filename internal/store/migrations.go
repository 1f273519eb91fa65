package store

import (
	"context"
	"database/sql"
)

// schema contains the DDL for the job log.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS job_log (
		seq             INTEGER PRIMARY KEY AUTOINCREMENT,
		ts              TEXT NOT NULL,
		job_id          TEXT NOT NULL,
		method          TEXT NOT NULL,
		scheduler       TEXT NOT NULL,
		scenario        TEXT NOT NULL DEFAULT '',
		elapsed_ms      REAL NOT NULL,
		waiting_ms      REAL NOT NULL,
		turnaround_ms   REAL NOT NULL,
		cpu_pct         REAL,
		mem_mb          REAL,
		ctx_voluntary   REAL,
		ctx_involuntary REAL,
		io_read_bytes   REAL,
		io_write_bytes  REAL,
		residual        REAL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_job_log_scheduler ON job_log(scheduler)`,
	`CREATE INDEX IF NOT EXISTS idx_job_log_method ON job_log(method)`,
}

// migrate executes all schema DDL statements.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
