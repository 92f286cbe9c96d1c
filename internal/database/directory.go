package database

import (
	"context"
	"fmt"

	"groops-notifier/internal/models"

	"gorm.io/gorm"
)

// Directory reads group membership and device tokens owned by the main app
type Directory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// GroupMemberIDs returns the user ids of every member of the group
func (d *Directory) GroupMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	var ids []string
	err := d.db.WithContext(ctx).
		Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).
		Distinct().
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load members of group %s: %w", groupID, err)
	}
	return ids, nil
}

// PushTokens returns user id → push token for the users that have one
func (d *Directory) PushTokens(ctx context.Context, userIDs []string) (map[string]string, error) {
	tokens := make(map[string]string, len(userIDs))
	if len(userIDs) == 0 {
		return tokens, nil
	}

	var users []models.User
	err := d.db.WithContext(ctx).
		Select("id", "push_token").
		Where("id IN ? AND push_token IS NOT NULL AND push_token <> ''", userIDs).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load push tokens: %w", err)
	}

	for _, u := range users {
		if u.PushToken != nil {
			tokens[u.ID] = *u.PushToken
		}
	}
	return tokens, nil
}
