package database

import (
	"context"
	"fmt"
	"time"

	"groops-notifier/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PostStore gives the attachment janitor its narrow view of the post table
type PostStore struct {
	db        *gorm.DB
	batchSize int
}

func NewPostStore(db *gorm.DB) *PostStore {
	return &PostStore{db: db, batchSize: 100}
}

// EachAgedWithAttachments calls fn for every post created before cutoff that
// still lists attachments. Posts are read in batches of the store's batch size.
func (s *PostStore) EachAgedWithAttachments(ctx context.Context, cutoff time.Time, fn func(models.Post) error) error {
	var batch []models.Post
	result := s.db.WithContext(ctx).
		Where("created_at < ?", cutoff.UTC()).
		FindInBatches(&batch, s.batchSize, func(tx *gorm.DB, _ int) error {
			for _, post := range batch {
				if len(post.Attachments) == 0 {
					continue
				}
				if err := fn(post); err != nil {
					return err
				}
			}
			return nil
		})
	if result.Error != nil {
		return fmt.Errorf("failed to scan aged posts: %w", result.Error)
	}
	return nil
}

// ClearAttachments empties the post's attachment list and stamps the cleanup time
func (s *PostStore) ClearAttachments(ctx context.Context, postID string, now time.Time) error {
	cleanedAt := now.UTC()
	err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", postID).
		Updates(map[string]interface{}{
			"attachments":            datatypes.JSONSlice[models.Attachment]{},
			"attachments_cleaned_at": &cleanedAt,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to clear attachments of post %s: %w", postID, err)
	}
	return nil
}
