package jobs

import (
	"context"
	"time"

	"groops-notifier/internal/metrics"
	"groops-notifier/internal/services"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/riverqueue/river"
)

// DispatchRunner is satisfied by *services.Dispatcher
type DispatchRunner interface {
	Run(ctx context.Context) (services.DispatchSummary, error)
}

// RetentionRunner is satisfied by *services.RetentionJanitor
type RetentionRunner interface {
	Run(ctx context.Context) (int64, error)
}

// AttachmentRunner is satisfied by *services.AttachmentJanitor
type AttachmentRunner interface {
	Run(ctx context.Context) (services.AttachmentSummary, error)
}

type DispatchWorker struct {
	river.WorkerDefaults[DispatchArgs]
	Dispatcher DispatchRunner
}

func (w *DispatchWorker) Work(ctx context.Context, job *river.Job[DispatchArgs]) error {
	defer observe(job.Args.Kind())()
	_, err := w.Dispatcher.Run(ctx)
	return err
}

// Timeout keeps one invocation inside the dispatch interval
func (w *DispatchWorker) Timeout(*river.Job[DispatchArgs]) time.Duration {
	return 55 * time.Second
}

type RetentionWorker struct {
	river.WorkerDefaults[RetentionArgs]
	Janitor RetentionRunner
}

func (w *RetentionWorker) Work(ctx context.Context, job *river.Job[RetentionArgs]) error {
	defer observe(job.Args.Kind())()
	_, err := w.Janitor.Run(ctx)
	return err
}

type AttachmentCleanupWorker struct {
	river.WorkerDefaults[AttachmentCleanupArgs]
	Janitor AttachmentRunner
}

func (w *AttachmentCleanupWorker) Work(ctx context.Context, job *river.Job[AttachmentCleanupArgs]) error {
	defer observe(job.Args.Kind())()
	_, err := w.Janitor.Run(ctx)
	return err
}

// Timeout allows for many posts with slow storage deletes
func (w *AttachmentCleanupWorker) Timeout(*river.Job[AttachmentCleanupArgs]) time.Duration {
	return 30 * time.Minute
}

func observe(kind string) func() {
	timer := prometheus.NewTimer(metrics.JobDuration.WithLabelValues(kind))
	return func() { timer.ObserveDuration() }
}
