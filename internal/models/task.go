package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskStatus is the lifecycle state of a scheduled notification task
type TaskStatus string

const (
	TaskScheduled TaskStatus = "scheduled"
	TaskSent      TaskStatus = "sent"
	TaskError     TaskStatus = "error"
	TaskCancelled TaskStatus = "cancelled"
)

// TerminalStatuses are the states the retention janitor may purge
var TerminalStatuses = []TaskStatus{TaskSent, TaskCancelled, TaskError}

// IsTerminal reports whether no further transition is allowed from s
func (s TaskStatus) IsTerminal() bool {
	return s == TaskSent || s == TaskError || s == TaskCancelled
}

// TaskSource records which side created the task
type TaskSource string

const (
	SourceServer TaskSource = "server"
	SourceClient TaskSource = "client"
)

// ReminderLead is how long before the event start the reminder goes out
const ReminderLead = time.Hour

// ScheduledNotificationTask is one pending (or finished) event reminder.
// At most one row per event_id may be scheduled; the partial unique index
// enforces it alongside the intake's existence check.
type ScheduledNotificationTask struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	PerformAt      time.Time  `gorm:"not null;index:idx_task_status_perform,priority:2" json:"perform_at"`
	Status         TaskStatus `gorm:"size:16;not null;index:idx_task_status_perform,priority:1" json:"status"`
	EventID        string     `gorm:"size:64;not null;index;index:idx_task_event_scheduled,unique,where:status = 'scheduled'" json:"event_id"`
	EventTitle     string     `gorm:"size:255" json:"event_title"`
	EventStartDate time.Time  `gorm:"not null" json:"event_start_date"`
	GroupID        string     `gorm:"size:64;not null" json:"group_id"`
	CreatorID      string     `gorm:"size:64" json:"creator_id"`
	Source         TaskSource `gorm:"size:16;not null;default:server" json:"source"`
	CreatedAt      time.Time  `gorm:"not null" json:"created_at"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	SentCount      int        `gorm:"not null;default:0" json:"sent_count"`
	ErrorMessage   string     `gorm:"type:text" json:"error_message,omitempty"`
	ErrorAt        *time.Time `json:"error_at,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
}

// BeforeCreate assigns the id and normalizes timestamps to UTC
func (t *ScheduledNotificationTask) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if t.Status == "" {
		t.Status = TaskScheduled
	}
	if t.Source == "" {
		t.Source = SourceServer
	}
	t.CreatedAt = t.CreatedAt.UTC()
	t.PerformAt = t.PerformAt.UTC()
	t.EventStartDate = t.EventStartDate.UTC()
	return nil
}

// TableName specifies the table name for the ScheduledNotificationTask model
func (ScheduledNotificationTask) TableName() string {
	return "scheduled_notification_task"
}
