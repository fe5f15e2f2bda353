package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/rpggio/kanbansync/internal/domain/activity"
	"github.com/stretchr/testify/require"
)

func TestActivityRepository_LogList(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	repo := NewActivityRepository(db)
	entry1 := &activity.Entry{
		BoardID:   1,
		UserID:    3,
		Operation: "move_card",
		Entity:    "card:5",
		Token:     "move_card-5-abc",
		Type:      activity.TypeConfirmed,
	}
	entry2 := &activity.Entry{
		BoardID:   1,
		UserID:    3,
		Operation: "update_card",
		Entity:    "card:5",
		Token:     "update_card-5-def",
		Type:      activity.TypeRolledBack,
		Message:   "The title field is required.",
	}

	require.NoError(t, repo.Log(ctx, entry1))
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, repo.Log(ctx, entry2))
	require.NotZero(t, entry1.ID)
	require.False(t, entry1.CreatedAt.IsZero())

	entries, err := repo.List(ctx, activity.ListOptions{BoardID: 1})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, activity.TypeRolledBack, entries[0].Type)
	require.Equal(t, "The title field is required.", entries[0].Message)
	require.Equal(t, activity.TypeConfirmed, entries[1].Type)
	require.Equal(t, "move_card-5-abc", entries[1].Token)
}

func TestActivityRepository_Filters(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewActivityRepository(db)

	for _, e := range []*activity.Entry{
		{BoardID: 1, Operation: "move_card", Entity: "card:1", Type: activity.TypeConfirmed},
		{BoardID: 1, Operation: "move_card", Entity: "card:2", Type: activity.TypeDiscarded},
		{BoardID: 1, Operation: "delete_list", Entity: "list:4", Type: activity.TypeRefused},
		{BoardID: 2, Operation: "move_card", Entity: "card:1", Type: activity.TypeConfirmed},
	} {
		require.NoError(t, repo.Log(ctx, e))
	}

	entries, err := repo.List(ctx, activity.ListOptions{BoardID: 1, Entity: "card:1"})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	refused := activity.TypeRefused
	entries, err = repo.List(ctx, activity.ListOptions{BoardID: 1, Type: &refused})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "list:4", entries[0].Entity)

	entries, err = repo.List(ctx, activity.ListOptions{BoardID: 2})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entries, err = repo.List(ctx, activity.ListOptions{BoardID: 1, Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	entries, err = repo.List(ctx, activity.ListOptions{BoardID: 3})
	require.NoError(t, err)
	require.Empty(t, entries)
}
