package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/linsched/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements JobLog using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a JobLog.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// Append inserts one record. Unavailable resource values and a NaN residual
// are stored as NULL.
func (s *SQLiteStore) Append(ctx context.Context, rec model.JobRecord) error {
	s.logger.Debug("sql", "op", "insert", "table", "job_log", "job_id", rec.JobID)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO job_log (ts, job_id, method, scheduler, scenario, elapsed_ms, waiting_ms, turnaround_ms,
		                      cpu_pct, mem_mb, ctx_voluntary, ctx_involuntary, io_read_bytes, io_write_bytes, residual)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Timestamp.UTC().Format(time.RFC3339Nano), rec.JobID, string(rec.Method), string(rec.Policy), rec.Scenario,
		rec.ElapsedMs, rec.WaitingMs, rec.TurnaroundMs,
		nullable(rec.CPUPct), nullable(rec.MemMB), nullable(rec.CtxVoluntary), nullable(rec.CtxInvoluntary),
		nullable(rec.IOReadBytes), nullable(rec.IOWriteBytes), nullable(rec.Residual),
	)
	if err != nil {
		return fmt.Errorf("insert job %s: %w", rec.JobID, err)
	}
	return nil
}

// List returns every record in insertion order.
func (s *SQLiteStore) List(ctx context.Context) ([]model.JobRecord, error) {
	s.logger.Debug("sql", "op", "select", "table", "job_log")

	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, job_id, method, scheduler, scenario, elapsed_ms, waiting_ms, turnaround_ms,
		        cpu_pct, mem_mb, ctx_voluntary, ctx_involuntary, io_read_bytes, io_write_bytes, residual
		 FROM job_log ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.JobRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count returns the number of records.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM job_log`).Scan(&n)
	return n, err
}

// Clear removes every record.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	s.logger.Debug("sql", "op", "delete", "table", "job_log")
	_, err := s.db.ExecContext(ctx, `DELETE FROM job_log`)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (model.JobRecord, error) {
	var rec model.JobRecord
	var ts, method, policy string
	var cpu, mem, vol, invol, rd, wr, residual sql.NullFloat64

	if err := row.Scan(
		&ts, &rec.JobID, &method, &policy, &rec.Scenario,
		&rec.ElapsedMs, &rec.WaitingMs, &rec.TurnaroundMs,
		&cpu, &mem, &vol, &invol, &rd, &wr, &residual,
	); err != nil {
		return rec, err
	}

	at, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return rec, fmt.Errorf("job %s: parse ts: %w", rec.JobID, err)
	}
	rec.Timestamp = at
	rec.Method = model.Method(method)
	rec.Policy = model.Policy(policy)
	rec.CPUPct = fromNull(cpu)
	rec.MemMB = fromNull(mem)
	rec.CtxVoluntary = fromNull(vol)
	rec.CtxInvoluntary = fromNull(invol)
	rec.IOReadBytes = fromNull(rd)
	rec.IOWriteBytes = fromNull(wr)
	rec.Residual = fromNull(residual)
	return rec, nil
}

func nullable(f model.Float) any {
	if !f.Valid() {
		return nil
	}
	return float64(f)
}

func fromNull(n sql.NullFloat64) model.Float {
	if !n.Valid {
		return model.NaN()
	}
	return model.Float(n.Float64)
}
