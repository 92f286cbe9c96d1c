package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultMaxDeliveryAttempts bounds the attempt counter on a delivery failure
const DefaultMaxDeliveryAttempts = 3

// PushDeliveryFailure tracks one push message the transport rejected.
// It lives apart from the task so task completion stays sent/error only.
type PushDeliveryFailure struct {
	ID          string            `gorm:"primaryKey;size:36" json:"id"`
	TaskID      string            `gorm:"size:36;not null;index" json:"task_id"`
	PushToken   string            `gorm:"size:255;not null" json:"push_token"`
	Message     string            `gorm:"type:text" json:"message"`
	Details     datatypes.JSONMap `json:"details"`
	Attempts    int               `gorm:"not null;default:1" json:"attempts"`
	MaxAttempts int               `gorm:"not null" json:"max_attempts"`
	CreatedAt   time.Time         `gorm:"not null" json:"created_at"`
}

// BeforeCreate hook is called before creating a new failure record
func (f *PushDeliveryFailure) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	f.CreatedAt = f.CreatedAt.UTC()
	if f.Attempts == 0 {
		f.Attempts = 1
	}
	if f.MaxAttempts == 0 {
		f.MaxAttempts = DefaultMaxDeliveryAttempts
	}
	return nil
}

// TableName specifies the table name for the PushDeliveryFailure model
func (PushDeliveryFailure) TableName() string {
	return "push_delivery_failure"
}
