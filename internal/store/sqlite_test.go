package store

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/me/linsched/pkg/model"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
	st, err := NewSQLiteStore(":memory:", logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleRecord(id string) model.JobRecord {
	return model.JobRecord{
		Timestamp:      time.Date(2024, 6, 1, 12, 0, 0, 123000000, time.UTC),
		JobID:          id,
		Method:         model.MethodGaussJordan,
		Policy:         model.PolicyRR,
		Scenario:       "simple-1717243200000",
		ElapsedMs:      1.25,
		WaitingMs:      0.5,
		TurnaroundMs:   1.75,
		CPUPct:         98.5,
		MemMB:          42,
		CtxVoluntary:   3,
		CtxInvoluntary: model.NaN(),
		IOReadBytes:    0,
		IOWriteBytes:   model.NaN(),
		Residual:       2.5e-15,
	}
}

func TestSQLiteStore_AppendAndList(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := st.Append(ctx, sampleRecord(fmt.Sprintf("job_%d", i))); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := st.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("List len = %d, want 3", len(got))
	}
	for i, rec := range got {
		if rec.JobID != fmt.Sprintf("job_%d", i) {
			t.Errorf("record %d id = %s (insertion order lost)", i, rec.JobID)
		}
	}

	rec := got[0]
	want := sampleRecord("job_0")
	if !rec.Timestamp.Equal(want.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", rec.Timestamp, want.Timestamp)
	}
	if rec.Method != want.Method || rec.Policy != want.Policy || rec.Scenario != want.Scenario {
		t.Errorf("labels = %s/%s/%s", rec.Method, rec.Policy, rec.Scenario)
	}
	if rec.ElapsedMs != 1.25 || rec.TurnaroundMs != 1.75 {
		t.Errorf("timings = %v/%v", rec.ElapsedMs, rec.TurnaroundMs)
	}
	if rec.CPUPct != 98.5 || rec.IOReadBytes != 0 || rec.Residual != 2.5e-15 {
		t.Errorf("values = %v %v %v", rec.CPUPct, rec.IOReadBytes, rec.Residual)
	}
	if rec.CtxInvoluntary.Valid() || rec.IOWriteBytes.Valid() {
		t.Errorf("NaN should round-trip as NaN, got %v %v", rec.CtxInvoluntary, rec.IOWriteBytes)
	}
}

func TestSQLiteStore_CountAndClear(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	n, err := st.Count(ctx)
	if err != nil || n != 0 {
		t.Fatalf("Count = %d, %v", n, err)
	}
	st.Append(ctx, sampleRecord("a"))
	st.Append(ctx, sampleRecord("b"))
	if n, _ := st.Count(ctx); n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}

	if err := st.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n, _ := st.Count(ctx); n != 0 {
		t.Errorf("Count after clear = %d", n)
	}
	got, err := st.List(ctx)
	if err != nil || len(got) != 0 {
		t.Errorf("List after clear = %v, %v", got, err)
	}
}

func TestSQLiteStore_ListRejectsBadTimestamp(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	if err := st.Append(ctx, sampleRecord("good")); err != nil {
		t.Fatal(err)
	}
	_, err := st.db.ExecContext(ctx,
		`INSERT INTO job_log (ts, job_id, method, scheduler, elapsed_ms, waiting_ms, turnaround_ms)
		 VALUES ('yesterday', 'bad', 'cramer', 'fcfs', 1, 0, 1)`)
	if err != nil {
		t.Fatal(err)
	}

	got, err := st.List(ctx)
	if err == nil {
		t.Fatalf("List = %v, want parse error", got)
	}
	if !strings.Contains(err.Error(), "job bad") {
		t.Errorf("error = %v, want it to name the job", err)
	}
}

func TestSQLiteStore_MigrateIdempotent(t *testing.T) {
	st := testStore(t)
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.db")
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := context.Background()

	st, err := NewSQLiteStore(path, logger)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	if err := st.Append(ctx, sampleRecord("persisted")); err != nil {
		t.Fatal(err)
	}
	st.Close()

	st, err = NewSQLiteStore(path, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		t.Fatal(err)
	}
	got, err := st.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].JobID != "persisted" {
		t.Errorf("reopened log = %+v", got)
	}
}
