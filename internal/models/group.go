package models

import "time"

// GroupMember maps a group to one of its users. Owned by the main application;
// the notifier only reads it.
type GroupMember struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	GroupID  string    `gorm:"size:64;not null;index" json:"group_id"`
	UserID   string    `gorm:"size:64;not null;index" json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// TableName specifies the table name for the GroupMember model
func (GroupMember) TableName() string {
	return "group_member"
}

// User is the slice of the application's user record the notifier needs
type User struct {
	ID          string  `gorm:"primaryKey;size:64" json:"id"`
	DisplayName string  `gorm:"size:100" json:"display_name"`
	PushToken   *string `gorm:"size:255" json:"push_token,omitempty"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "user"
}
