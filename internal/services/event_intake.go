package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"groops-notifier/internal/database"
	"groops-notifier/internal/metrics"
	"groops-notifier/internal/models"

	"go.uber.org/zap"
)

// IntakeOutcome says what the intake did with one event
type IntakeOutcome string

const (
	OutcomeScheduled        IntakeOutcome = "scheduled"
	OutcomeSkippedNoGroup   IntakeOutcome = "skipped_no_group"
	OutcomeSkippedPersonal  IntakeOutcome = "skipped_personal"
	OutcomeSkippedBadTime   IntakeOutcome = "skipped_bad_time"
	OutcomeSkippedPast      IntakeOutcome = "skipped_past"
	OutcomeSkippedDuplicate IntakeOutcome = "skipped_duplicate"
)

// TaskWriter is the part of the task store the intake needs
type TaskWriter interface {
	HasScheduled(ctx context.Context, eventID string) (bool, error)
	Create(ctx context.Context, task *models.ScheduledNotificationTask) error
	CancelForEvent(ctx context.Context, eventID string, now time.Time) (int64, error)
}

// EventIntake turns newly created calendar events into scheduled tasks.
// It is safe to call more than once for the same event.
type EventIntake struct {
	tasks    TaskWriter
	location *time.Location
	now      func() time.Time
	log      *zap.Logger
}

func NewEventIntake(tasks TaskWriter, location *time.Location, log *zap.Logger) *EventIntake {
	return &EventIntake{
		tasks:    tasks,
		location: location,
		now:      time.Now,
		log:      log.Named("intake"),
	}
}

// HandleEventCreated schedules the one-hour reminder for event when it qualifies
func (i *EventIntake) HandleEventCreated(ctx context.Context, event models.Event) (IntakeOutcome, error) {
	outcome, err := i.handleEventCreated(ctx, event)
	if err == nil {
		metrics.IntakeEvents.WithLabelValues(string(outcome)).Inc()
	}
	return outcome, err
}

func (i *EventIntake) handleEventCreated(ctx context.Context, event models.Event) (IntakeOutcome, error) {
	if strings.TrimSpace(event.GroupID) == "" {
		return OutcomeSkippedNoGroup, nil
	}
	if event.IsPersonal {
		return OutcomeSkippedPersonal, nil
	}

	start, err := EventStart(event, i.location)
	if err != nil {
		i.log.Debug("skipping event with unusable start", zap.String("event_id", event.ID), zap.Error(err))
		return OutcomeSkippedBadTime, nil
	}

	performAt := NotifyTime(start)
	if !performAt.After(i.now()) {
		return OutcomeSkippedPast, nil
	}

	exists, err := i.tasks.HasScheduled(ctx, event.ID)
	if err != nil {
		return "", err
	}
	if exists {
		i.log.Info("event already has a scheduled reminder", zap.String("event_id", event.ID))
		return OutcomeSkippedDuplicate, nil
	}

	task := &models.ScheduledNotificationTask{
		PerformAt:      performAt,
		Status:         models.TaskScheduled,
		EventID:        event.ID,
		EventTitle:     event.Title,
		EventStartDate: start,
		GroupID:        event.GroupID,
		CreatorID:      event.CreatorID,
		Source:         models.SourceServer,
		CreatedAt:      i.now(),
	}
	if err := i.tasks.Create(ctx, task); err != nil {
		if errors.Is(err, database.ErrDuplicateScheduled) {
			i.log.Info("lost scheduling race for event", zap.String("event_id", event.ID))
			return OutcomeSkippedDuplicate, nil
		}
		return "", err
	}

	i.log.Info("scheduled event reminder",
		zap.String("task_id", task.ID),
		zap.String("event_id", event.ID),
		zap.Time("perform_at", performAt),
	)
	return OutcomeScheduled, nil
}

// HandleEventDeleted cancels any reminder still scheduled for the event
func (i *EventIntake) HandleEventDeleted(ctx context.Context, eventID string) (int64, error) {
	cancelled, err := i.tasks.CancelForEvent(ctx, eventID, i.now())
	if err != nil {
		return 0, err
	}
	if cancelled > 0 {
		i.log.Info("cancelled event reminder", zap.String("event_id", eventID), zap.Int64("tasks", cancelled))
	}
	return cancelled, nil
}
