package jobs

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
)

// Runners are the services the periodic jobs drive
type Runners struct {
	Dispatcher  DispatchRunner
	Retention   RetentionRunner
	Attachments AttachmentRunner
}

// Workers registers one worker per job kind
func Workers(r Runners) *river.Workers {
	workers := river.NewWorkers()
	river.AddWorker(workers, &DispatchWorker{Dispatcher: r.Dispatcher})
	river.AddWorker(workers, &RetentionWorker{Janitor: r.Retention})
	river.AddWorker(workers, &AttachmentCleanupWorker{Janitor: r.Attachments})
	return workers
}

// Migrate brings river's own tables up to date
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("failed to migrate river schema: %w", err)
	}
	return nil
}

// NewClient builds the river client that owns the periodic schedule
func NewClient(pool *pgxpool.Pool, r Runners, s Schedules, maxWorkers int) (*river.Client[pgx.Tx], error) {
	periodic, err := PeriodicJobs(s)
	if err != nil {
		return nil, err
	}
	if maxWorkers <= 0 {
		maxWorkers = 10
	}

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: maxWorkers},
		},
		Workers:      Workers(r),
		PeriodicJobs: periodic,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create river client: %w", err)
	}
	return client, nil
}
