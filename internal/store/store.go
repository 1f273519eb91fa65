package store

import (
	"context"

	"github.com/me/linsched/pkg/model"
)

// JobLog is the append-only record of completed solves.
type JobLog interface {
	// Append persists one completed job.
	Append(ctx context.Context, rec model.JobRecord) error

	// List returns every record in insertion order.
	List(ctx context.Context) ([]model.JobRecord, error)

	// Count returns the number of records.
	Count(ctx context.Context) (int, error)

	// Clear removes every record.
	Clear(ctx context.Context) error

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
