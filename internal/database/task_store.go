package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"groops-notifier/internal/models"

	"gorm.io/gorm"
)

// ErrDuplicateScheduled is returned when an event already has a scheduled task
var ErrDuplicateScheduled = errors.New("event already has a scheduled task")

// TaskStore is the durable record of scheduled notification tasks.
// Every status transition is a conditional update on the current status.
type TaskStore struct {
	db *gorm.DB
}

func NewTaskStore(db *gorm.DB) *TaskStore {
	return &TaskStore{db: db}
}

// HasScheduled reports whether eventID already has a task in status scheduled
func (s *TaskStore) HasScheduled(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.ScheduledNotificationTask{}).
		Where("event_id = ? AND status = ?", eventID, models.TaskScheduled).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check scheduled tasks for event %s: %w", eventID, err)
	}
	return count > 0, nil
}

// Create inserts a new task
func (s *TaskStore) Create(ctx context.Context, task *models.ScheduledNotificationTask) error {
	err := s.db.WithContext(ctx).Create(task).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateScheduled
	}
	if err != nil {
		return fmt.Errorf("failed to create task for event %s: %w", task.EventID, err)
	}
	return nil
}

// Get loads a task by id
func (s *TaskStore) Get(ctx context.Context, id string) (*models.ScheduledNotificationTask, error) {
	var task models.ScheduledNotificationTask
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// ListDue returns at most limit scheduled tasks whose perform_at is at or before now
func (s *TaskStore) ListDue(ctx context.Context, now time.Time, limit int) ([]models.ScheduledNotificationTask, error) {
	var tasks []models.ScheduledNotificationTask
	err := s.db.WithContext(ctx).
		Where("status = ? AND perform_at <= ?", models.TaskScheduled, now.UTC()).
		Order("perform_at").
		Limit(limit).
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list due tasks: %w", err)
	}
	return tasks, nil
}

// Claim moves a task from scheduled to sent. It returns false when another
// invocation already moved the task out of scheduled.
func (s *TaskStore) Claim(ctx context.Context, id string, now time.Time) (bool, error) {
	sentAt := now.UTC()
	return s.transition(ctx, id, models.TaskScheduled, map[string]interface{}{
		"status":  models.TaskSent,
		"sent_at": &sentAt,
	})
}

// RecordSentCount stores how many messages were handed to the transport
// for a task this invocation claimed
func (s *TaskStore) RecordSentCount(ctx context.Context, id string, count int) error {
	_, err := s.transition(ctx, id, models.TaskSent, map[string]interface{}{
		"sent_count": count,
	})
	return err
}

// MarkError moves a task from scheduled to error
func (s *TaskStore) MarkError(ctx context.Context, id string, cause string, now time.Time) (bool, error) {
	errorAt := now.UTC()
	return s.transition(ctx, id, models.TaskScheduled, map[string]interface{}{
		"status":        models.TaskError,
		"error_message": cause,
		"error_at":      &errorAt,
	})
}

// CancelForEvent cancels every scheduled task of the event and returns how many moved
func (s *TaskStore) CancelForEvent(ctx context.Context, eventID string, now time.Time) (int64, error) {
	cancelledAt := now.UTC()
	result := s.db.WithContext(ctx).
		Model(&models.ScheduledNotificationTask{}).
		Where("event_id = ? AND status = ?", eventID, models.TaskScheduled).
		Updates(map[string]interface{}{
			"status":       models.TaskCancelled,
			"cancelled_at": &cancelledAt,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to cancel tasks for event %s: %w", eventID, result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteTerminalBefore deletes up to limit terminal tasks whose perform_at is
// strictly before cutoff, in one transaction
func (s *TaskStore) DeleteTerminalBefore(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&models.ScheduledNotificationTask{}).
			Where("status IN ? AND perform_at < ?", models.TerminalStatuses, cutoff.UTC()).
			Order("perform_at").
			Limit(limit).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		result := tx.Where("id IN ? AND status IN ?", ids, models.TerminalStatuses).
			Delete(&models.ScheduledNotificationTask{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete terminal tasks: %w", err)
	}
	return deleted, nil
}

// RecordDeliveryFailures writes per-message failures to the side table
func (s *TaskStore) RecordDeliveryFailures(ctx context.Context, failures []models.PushDeliveryFailure) error {
	if len(failures) == 0 {
		return nil
	}
	if err := s.db.WithContext(ctx).Create(&failures).Error; err != nil {
		return fmt.Errorf("failed to record %d delivery failures: %w", len(failures), err)
	}
	return nil
}

func (s *TaskStore) transition(ctx context.Context, id string, from models.TaskStatus, updates map[string]interface{}) (bool, error) {
	result := s.db.WithContext(ctx).
		Model(&models.ScheduledNotificationTask{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update task %s from %s: %w", id, from, result.Error)
	}
	return result.RowsAffected == 1, nil
}
