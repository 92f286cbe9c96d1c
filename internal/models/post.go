package models

import (
	"time"

	"gorm.io/datatypes"
)

// Attachment references one blob in object storage
type Attachment struct {
	StoragePath string `json:"storagePath"`
	URL         string `json:"url,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

// Post is a group post. Apart from Attachments (cleared to empty) and
// AttachmentsCleanedAt the notifier treats it as read-only.
type Post struct {
	ID                   string                         `gorm:"primaryKey;size:64" json:"id"`
	GroupID              string                         `gorm:"size:64;index" json:"group_id"`
	AuthorID             string                         `gorm:"size:64" json:"author_id"`
	Content              string                         `gorm:"type:text" json:"content"`
	Attachments          datatypes.JSONSlice[Attachment] `json:"attachments"`
	CreatedAt            time.Time                      `gorm:"not null;index" json:"created_at"`
	AttachmentsCleanedAt *time.Time                     `json:"attachments_cleaned_at,omitempty"`
}

// TableName specifies the table name for the Post model
func (Post) TableName() string {
	return "post"
}
