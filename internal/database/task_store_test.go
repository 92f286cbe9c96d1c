package database_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"groops-notifier/internal/database"
	"groops-notifier/internal/database/dbtest"
	"groops-notifier/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTask(eventID string, performAt time.Time) *models.ScheduledNotificationTask {
	return &models.ScheduledNotificationTask{
		EventID:        eventID,
		EventTitle:     "Practice " + eventID,
		EventStartDate: performAt.Add(models.ReminderLead),
		PerformAt:      performAt,
		GroupID:        "group-1",
		CreatorID:      "creator",
	}
}

func TestTaskStore_CreateAssignsDefaults(t *testing.T) {
	store := database.NewTaskStore(dbtest.Open(t))
	ctx := context.Background()

	task := newTask("event-1", now.Add(time.Hour))
	require.NoError(t, store.Create(ctx, task))

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, models.TaskScheduled, task.Status)
	assert.Equal(t, models.SourceServer, task.Source)

	has, err := store.HasScheduled(ctx, "event-1")
	require.NoError(t, err)
	assert.True(t, has)

	has, err = store.HasScheduled(ctx, "event-2")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestTaskStore_SecondScheduledTaskForEventIsRejected(t *testing.T) {
	store := database.NewTaskStore(dbtest.Open(t))
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, newTask("event-1", now)))

	clientTask := newTask("event-1", now)
	clientTask.Source = models.SourceClient
	err := store.Create(ctx, clientTask)
	assert.ErrorIs(t, err, database.ErrDuplicateScheduled)
}

func TestTaskStore_TerminalTaskDoesNotBlockNewSchedule(t *testing.T) {
	store := database.NewTaskStore(dbtest.Open(t))
	ctx := context.Background()

	first := newTask("event-1", now)
	require.NoError(t, store.Create(ctx, first))
	moved, err := store.CancelForEvent(ctx, "event-1", now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, moved)

	require.NoError(t, store.Create(ctx, newTask("event-1", now.Add(time.Hour))))
}

func TestTaskStore_ListDueRespectsLimitAndTime(t *testing.T) {
	store := database.NewTaskStore(dbtest.Open(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Create(ctx, newTask(fmt.Sprintf("due-%d", i), now.Add(-time.Duration(i)*time.Minute))))
	}
	require.NoError(t, store.Create(ctx, newTask("future", now.Add(time.Second))))

	due, err := store.ListDue(ctx, now, 3)
	require.NoError(t, err)
	assert.Len(t, due, 3)

	due, err = store.ListDue(ctx, now, 100)
	require.NoError(t, err)
	assert.Len(t, due, 5)
	for _, task := range due {
		assert.NotEqual(t, "future", task.EventID)
	}
}

func TestTaskStore_ClaimIsExclusive(t *testing.T) {
	store := database.NewTaskStore(dbtest.Open(t))
	ctx := context.Background()

	task := newTask("event-1", now)
	require.NoError(t, store.Create(ctx, task))

	claimed, err := store.Claim(ctx, task.ID, now)
	require.NoError(t, err)
	assert.True(t, claimed)

	claimed, err = store.Claim(ctx, task.ID, now)
	require.NoError(t, err)
	assert.False(t, claimed, "second claim must lose")

	marked, err := store.MarkError(ctx, task.ID, "late failure", now)
	require.NoError(t, err)
	assert.False(t, marked, "a sent task cannot become error")

	require.NoError(t, store.RecordSentCount(ctx, task.ID, 4))

	stored, err := store.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskSent, stored.Status)
	assert.Equal(t, 4, stored.SentCount)
	require.NotNil(t, stored.SentAt)
	assert.True(t, stored.SentAt.Equal(now))
}

func TestTaskStore_MarkError(t *testing.T) {
	store := database.NewTaskStore(dbtest.Open(t))
	ctx := context.Background()

	task := newTask("event-1", now)
	require.NoError(t, store.Create(ctx, task))

	marked, err := store.MarkError(ctx, task.ID, "members lookup failed", now)
	require.NoError(t, err)
	assert.True(t, marked)

	stored, err := store.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskError, stored.Status)
	assert.Equal(t, "members lookup failed", stored.ErrorMessage)
	require.NotNil(t, stored.ErrorAt)

	claimed, err := store.Claim(ctx, task.ID, now)
	require.NoError(t, err)
	assert.False(t, claimed)
}

func TestTaskStore_DeleteTerminalBefore(t *testing.T) {
	db := dbtest.Open(t)
	store := database.NewTaskStore(db)
	ctx := context.Background()
	cutoff := now.Add(-7 * 24 * time.Hour)

	oldSent := newTask("old-sent", cutoff.Add(-time.Second))
	oldScheduled := newTask("old-scheduled", cutoff.Add(-time.Hour))
	youngSent := newTask("young-sent", cutoff.Add(time.Hour))
	for _, task := range []*models.ScheduledNotificationTask{oldSent, oldScheduled, youngSent} {
		require.NoError(t, store.Create(ctx, task))
	}
	_, err := store.Claim(ctx, oldSent.ID, now)
	require.NoError(t, err)
	_, err = store.Claim(ctx, youngSent.ID, now)
	require.NoError(t, err)

	deleted, err := store.DeleteTerminalBefore(ctx, cutoff, 500)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	_, err = store.Get(ctx, oldSent.ID)
	assert.Error(t, err)
	_, err = store.Get(ctx, oldScheduled.ID)
	assert.NoError(t, err)
	_, err = store.Get(ctx, youngSent.ID)
	assert.NoError(t, err)
}

func TestTaskStore_DeleteTerminalBeforeHonoursLimit(t *testing.T) {
	db := dbtest.Open(t)
	store := database.NewTaskStore(db)
	ctx := context.Background()
	old := now.Add(-30 * 24 * time.Hour)

	for i := 0; i < 7; i++ {
		task := newTask(fmt.Sprintf("event-%d", i), old)
		require.NoError(t, store.Create(ctx, task))
		_, err := store.MarkError(ctx, task.ID, "boom", now)
		require.NoError(t, err)
	}

	deleted, err := store.DeleteTerminalBefore(ctx, now, 5)
	require.NoError(t, err)
	assert.EqualValues(t, 5, deleted)

	var remaining int64
	require.NoError(t, db.Model(&models.ScheduledNotificationTask{}).Count(&remaining).Error)
	assert.EqualValues(t, 2, remaining)
}

func TestTaskStore_RecordDeliveryFailures(t *testing.T) {
	db := dbtest.Open(t)
	store := database.NewTaskStore(db)
	ctx := context.Background()

	require.NoError(t, store.RecordDeliveryFailures(ctx, nil))
	require.NoError(t, store.RecordDeliveryFailures(ctx, []models.PushDeliveryFailure{
		{TaskID: "task-1", PushToken: "ExponentPushToken[abc]", Message: "DeviceNotRegistered"},
	}))

	var failures []models.PushDeliveryFailure
	require.NoError(t, db.Find(&failures).Error)
	require.Len(t, failures, 1)
	assert.Equal(t, 1, failures[0].Attempts)
	assert.Equal(t, models.DefaultMaxDeliveryAttempts, failures[0].MaxAttempts)
	assert.NotEmpty(t, failures[0].ID)
}
