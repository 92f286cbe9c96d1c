package services

import (
	"context"
	"errors"
	"time"

	"groops-notifier/internal/metrics"
	"groops-notifier/internal/models"

	"go.uber.org/zap"
)

// DefaultAttachmentRetention is how long post attachments are kept
const DefaultAttachmentRetention = 90 * 24 * time.Hour

// AgedPostStore is the part of the post table the attachment janitor touches
type AgedPostStore interface {
	EachAgedWithAttachments(ctx context.Context, cutoff time.Time, fn func(models.Post) error) error
	ClearAttachments(ctx context.Context, postID string, now time.Time) error
}

// AttachmentSummary reports one janitor run
type AttachmentSummary struct {
	Posts        int `json:"posts"`
	Deleted      int `json:"deleted"`
	AlreadyGone  int `json:"alreadyGone"`
	DeleteErrors int `json:"deleteErrors"`
	ClearErrors  int `json:"clearErrors"`
}

// AttachmentJanitor deletes the blobs of old posts and clears their
// attachment list. Deletion is best effort per file: a failed delete is
// logged and the metadata is cleared anyway.
type AttachmentJanitor struct {
	posts     AgedPostStore
	storage   ObjectStorage
	retention time.Duration
	now       func() time.Time
	log       *zap.Logger
}

func NewAttachmentJanitor(posts AgedPostStore, storage ObjectStorage, retention time.Duration, log *zap.Logger) *AttachmentJanitor {
	if retention <= 0 {
		retention = DefaultAttachmentRetention
	}
	return &AttachmentJanitor{
		posts:     posts,
		storage:   storage,
		retention: retention,
		now:       time.Now,
		log:       log.Named("attachments"),
	}
}

// Run cleans every aged post. Only a failure to scan posts is returned.
func (j *AttachmentJanitor) Run(ctx context.Context) (AttachmentSummary, error) {
	var summary AttachmentSummary
	now := j.now()
	cutoff := now.Add(-j.retention)

	err := j.posts.EachAgedWithAttachments(ctx, cutoff, func(post models.Post) error {
		summary.Posts++
		j.cleanPost(ctx, post, now, &summary)
		return nil
	})
	if err != nil {
		return summary, err
	}

	metrics.JanitorDeletions.WithLabelValues("attachment").Add(float64(summary.Deleted))
	j.log.Info("attachment cleanup finished",
		zap.Int("posts", summary.Posts),
		zap.Int("deleted", summary.Deleted),
		zap.Int("already_gone", summary.AlreadyGone),
		zap.Int("delete_errors", summary.DeleteErrors),
	)
	return summary, nil
}

func (j *AttachmentJanitor) cleanPost(ctx context.Context, post models.Post, now time.Time, summary *AttachmentSummary) {
	for _, attachment := range post.Attachments {
		if attachment.StoragePath == "" {
			continue
		}
		err := j.storage.Delete(ctx, attachment.StoragePath)
		switch {
		case err == nil:
			summary.Deleted++
		case errors.Is(err, ErrObjectNotFound):
			summary.AlreadyGone++
		default:
			summary.DeleteErrors++
			// The reference is dropped below, so this blob is no longer tracked anywhere.
			j.log.Warn("failed to delete attachment, reference will be cleared",
				zap.String("post_id", post.ID),
				zap.String("storage_path", attachment.StoragePath),
				zap.Error(err),
			)
		}
	}

	if err := j.posts.ClearAttachments(ctx, post.ID, now); err != nil {
		summary.ClearErrors++
		j.log.Error("failed to clear post attachments", zap.String("post_id", post.ID), zap.Error(err))
	}
}
