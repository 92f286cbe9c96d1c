package utils

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/logger"
)

type recordingGormLogger struct {
	logger.Interface
	traced []string
}

func (r *recordingGormLogger) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	r.traced = append(r.traced, sql)
}

func TestCustomGormLogger_SkipsIgnoredSuccessfulQueries(t *testing.T) {
	base := &recordingGormLogger{Interface: logger.Discard}
	l := NewCustomGormLogger(base, `FROM "scheduled_notification_task" WHERE status =`)

	poll := `SELECT * FROM "scheduled_notification_task" WHERE status = 'scheduled'`
	l.Trace(context.Background(), time.Now(), func() (string, int64) { return poll, 0 }, nil)
	assert.Empty(t, base.traced)

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return poll, 0 }, errors.New("connection reset"))
	assert.Len(t, base.traced, 1)
	assert.Contains(t, base.traced[0], poll)

	l.Trace(context.Background(), time.Now(), func() (string, int64) { return `DELETE FROM "post"`, 1 }, nil)
	assert.Len(t, base.traced, 2)
}
