package services

import (
	"context"
	"fmt"
	"time"

	"groops-notifier/internal/metrics"
	"groops-notifier/internal/models"

	"go.uber.org/zap"
)

// DefaultDispatchBatchSize caps how many due tasks one invocation handles
const DefaultDispatchBatchSize = 100

// DueTaskStore is the part of the task store the dispatcher needs
type DueTaskStore interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]models.ScheduledNotificationTask, error)
	Claim(ctx context.Context, id string, now time.Time) (bool, error)
	RecordSentCount(ctx context.Context, id string, count int) error
	MarkError(ctx context.Context, id string, cause string, now time.Time) (bool, error)
	RecordDeliveryFailures(ctx context.Context, failures []models.PushDeliveryFailure) error
}

// RecipientDirectory resolves group members and their device tokens
type RecipientDirectory interface {
	GroupMemberIDs(ctx context.Context, groupID string) ([]string, error)
	PushTokens(ctx context.Context, userIDs []string) (map[string]string, error)
}

// PushSender hands messages to the push provider
type PushSender interface {
	Send(ctx context.Context, messages []PushMessage) SendResult
}

// DispatchSummary reports what one invocation did
type DispatchSummary struct {
	Due      int `json:"due"`
	Sent     int `json:"sent"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
	Messages int `json:"messages"`
}

type taskOutcome string

const (
	outcomeSent    taskOutcome = "sent"
	outcomeFailed  taskOutcome = "error"
	outcomeSkipped taskOutcome = "already_claimed"
)

// Dispatcher sends the reminders of due tasks. Each task is claimed with a
// conditional update before anything is sent, so overlapping or repeated
// invocations never notify twice.
type Dispatcher struct {
	tasks     DueTaskStore
	directory RecipientDirectory
	push      PushSender
	batchSize int
	location  *time.Location
	now       func() time.Time
	log       *zap.Logger
}

func NewDispatcher(tasks DueTaskStore, directory RecipientDirectory, push PushSender, batchSize int, location *time.Location, log *zap.Logger) *Dispatcher {
	if batchSize <= 0 {
		batchSize = DefaultDispatchBatchSize
	}
	return &Dispatcher{
		tasks:     tasks,
		directory: directory,
		push:      push,
		batchSize: batchSize,
		location:  location,
		now:       time.Now,
		log:       log.Named("dispatch"),
	}
}

// Run processes one batch of due tasks. Only a failure to load the batch is
// returned; per-task failures are recorded on the task.
func (d *Dispatcher) Run(ctx context.Context) (DispatchSummary, error) {
	var summary DispatchSummary
	now := d.now()

	due, err := d.tasks.ListDue(ctx, now, d.batchSize)
	if err != nil {
		return summary, err
	}
	summary.Due = len(due)

	for _, task := range due {
		outcome, messages := d.processTask(ctx, task)
		metrics.DispatchedTasks.WithLabelValues(string(outcome)).Inc()
		switch outcome {
		case outcomeSent:
			summary.Sent++
			summary.Messages += messages
		case outcomeFailed:
			summary.Failed++
		case outcomeSkipped:
			summary.Skipped++
		}
	}

	if summary.Due > 0 {
		d.log.Info("dispatch finished",
			zap.Int("due", summary.Due),
			zap.Int("sent", summary.Sent),
			zap.Int("failed", summary.Failed),
			zap.Int("skipped", summary.Skipped),
			zap.Int("messages", summary.Messages),
		)
	}
	return summary, nil
}

func (d *Dispatcher) processTask(ctx context.Context, task models.ScheduledNotificationTask) (outcome taskOutcome, messages int) {
	defer func() {
		if r := recover(); r != nil {
			outcome = d.fail(ctx, task, fmt.Errorf("panic while dispatching: %v", r))
			messages = 0
		}
	}()

	tokens, err := d.resolveRecipients(ctx, task)
	if err != nil {
		return d.fail(ctx, task, err), 0
	}

	claimed, err := d.tasks.Claim(ctx, task.ID, d.now())
	if err != nil {
		return d.fail(ctx, task, err), 0
	}
	if !claimed {
		d.log.Info("task already claimed by another run", zap.String("task_id", task.ID))
		return outcomeSkipped, 0
	}

	attempted := 0
	if len(tokens) > 0 {
		result := d.push.Send(ctx, d.buildMessages(task, tokens))
		attempted = result.Attempted
		d.recordFailures(ctx, task, result.Failures)
	}

	if err := d.tasks.RecordSentCount(ctx, task.ID, attempted); err != nil {
		d.log.Error("failed to record sent count", zap.String("task_id", task.ID), zap.Error(err))
	}

	d.log.Info("sent event reminder",
		zap.String("task_id", task.ID),
		zap.String("event_id", task.EventID),
		zap.Int("messages", attempted),
	)
	return outcomeSent, attempted
}

// resolveRecipients returns the valid tokens of every group member except the creator
func (d *Dispatcher) resolveRecipients(ctx context.Context, task models.ScheduledNotificationTask) ([]string, error) {
	memberIDs, err := d.directory.GroupMemberIDs(ctx, task.GroupID)
	if err != nil {
		return nil, err
	}

	recipients := make([]string, 0, len(memberIDs))
	for _, id := range memberIDs {
		// The creator already has a local notification on their device.
		if id == task.CreatorID {
			continue
		}
		recipients = append(recipients, id)
	}
	if len(recipients) == 0 {
		return nil, nil
	}

	byUser, err := d.directory.PushTokens(ctx, recipients)
	if err != nil {
		return nil, err
	}

	tokens := make([]string, 0, len(byUser))
	for _, id := range recipients {
		token, ok := byUser[id]
		if !ok || !ValidPushToken(token) {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

func (d *Dispatcher) buildMessages(task models.ScheduledNotificationTask, tokens []string) []PushMessage {
	title := task.EventTitle
	if title == "" {
		title = "Upcoming event"
	}
	body := fmt.Sprintf("Starts at %s, one hour from now", task.EventStartDate.In(d.location).Format("15:04"))
	data := map[string]string{
		"type":    "event_reminder",
		"eventId": task.EventID,
		"groupId": task.GroupID,
	}

	messages := make([]PushMessage, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, PushMessage{
			To:    token,
			Title: title,
			Body:  body,
			Data:  data,
			Sound: "default",
		})
	}
	return messages
}

func (d *Dispatcher) recordFailures(ctx context.Context, task models.ScheduledNotificationTask, failures []TicketFailure) {
	if len(failures) == 0 {
		return
	}
	rows := make([]models.PushDeliveryFailure, 0, len(failures))
	for _, f := range failures {
		rows = append(rows, models.PushDeliveryFailure{
			TaskID:      task.ID,
			PushToken:   f.Token,
			Message:     f.Message,
			Details:     f.Details,
			MaxAttempts: models.DefaultMaxDeliveryAttempts,
		})
	}
	if err := d.tasks.RecordDeliveryFailures(ctx, rows); err != nil {
		d.log.Error("failed to record delivery failures", zap.String("task_id", task.ID), zap.Error(err))
	}
}

func (d *Dispatcher) fail(ctx context.Context, task models.ScheduledNotificationTask, cause error) taskOutcome {
	d.log.Error("failed to dispatch task",
		zap.String("task_id", task.ID),
		zap.String("event_id", task.EventID),
		zap.Error(cause),
	)
	marked, err := d.tasks.MarkError(ctx, task.ID, cause.Error(), d.now())
	if err != nil {
		d.log.Error("failed to mark task as error", zap.String("task_id", task.ID), zap.Error(err))
	} else if !marked {
		d.log.Warn("task left scheduled state before it could be marked as error", zap.String("task_id", task.ID))
	}
	return outcomeFailed
}
