package database_test

import (
	"context"
	"testing"

	"groops-notifier/internal/database"
	"groops-notifier/internal/database/dbtest"
	"groops-notifier/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestDirectory_MembersAndTokens(t *testing.T) {
	db := dbtest.Open(t)
	dir := database.NewDirectory(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&[]models.GroupMember{
		{GroupID: "g1", UserID: "creator"},
		{GroupID: "g1", UserID: "a"},
		{GroupID: "g1", UserID: "b"},
		{GroupID: "g2", UserID: "c"},
	}).Error)
	require.NoError(t, db.Create(&[]models.User{
		{ID: "creator", PushToken: strPtr("ExponentPushToken[creator]")},
		{ID: "a"},
		{ID: "b", PushToken: strPtr("ExponentPushToken[b]")},
		{ID: "c", PushToken: strPtr("")},
	}).Error)

	members, err := dir.GroupMemberIDs(ctx, "g1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"creator", "a", "b"}, members)

	tokens, err := dir.PushTokens(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"b": "ExponentPushToken[b]"}, tokens)

	tokens, err = dir.PushTokens(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, tokens)
}
