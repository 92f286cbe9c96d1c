package services

import (
	"context"
	"time"

	"groops-notifier/internal/metrics"

	"go.uber.org/zap"
)

const (
	DefaultRetention          = 7 * 24 * time.Hour
	DefaultRetentionBatchSize = 500
)

// TerminalTaskPurger deletes finished tasks older than a cutoff
type TerminalTaskPurger interface {
	DeleteTerminalBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

// RetentionJanitor removes sent, error and cancelled tasks once they are
// older than the retention window
type RetentionJanitor struct {
	tasks     TerminalTaskPurger
	retention time.Duration
	batchSize int
	now       func() time.Time
	log       *zap.Logger
}

func NewRetentionJanitor(tasks TerminalTaskPurger, retention time.Duration, batchSize int, log *zap.Logger) *RetentionJanitor {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if batchSize <= 0 {
		batchSize = DefaultRetentionBatchSize
	}
	return &RetentionJanitor{
		tasks:     tasks,
		retention: retention,
		batchSize: batchSize,
		now:       time.Now,
		log:       log.Named("retention"),
	}
}

// Run deletes one batch and returns how many tasks were removed
func (j *RetentionJanitor) Run(ctx context.Context) (int64, error) {
	cutoff := j.now().Add(-j.retention)
	deleted, err := j.tasks.DeleteTerminalBefore(ctx, cutoff, j.batchSize)
	if err != nil {
		return 0, err
	}
	metrics.JanitorDeletions.WithLabelValues("task").Add(float64(deleted))
	j.log.Info("purged terminal tasks", zap.Int64("deleted", deleted), zap.Time("cutoff", cutoff))
	return deleted, nil
}
