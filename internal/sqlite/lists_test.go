package sqlite

import (
	"context"
	"testing"

	"github.com/rpggio/kanbansync/internal/domain/board"
	"github.com/rpggio/kanbansync/internal/repository"
	"github.com/stretchr/testify/require"
)

func listOrder(t *testing.T, db *DB, boardID int64) []string {
	t.Helper()
	b, err := NewBoardRepository(db).GetBoard(context.Background(), boardID)
	require.NoError(t, err)
	names := []string{}
	for i, l := range b.Lists {
		require.Equal(t, i+1, l.Position, "positions must be dense")
		names = append(names, l.Name)
	}
	return names
}

func TestListRepository_Create(t *testing.T) {
	db := NewTestDB(t)
	f := seed(t, db)
	repo := NewListRepository(db)
	ctx := context.Background()

	l, err := repo.CreateList(ctx, f.board.ID, board.ListPatch{Name: ptr("  Doing "), Position: ptr(2)})
	require.NoError(t, err)
	require.Equal(t, "Doing", l.Name)
	require.Equal(t, 2, l.Position)
	require.NotNil(t, l.Cards)
	require.Equal(t, []string{"Todo", "Doing", "Done"}, listOrder(t, db, f.board.ID))

	_, err = repo.CreateList(ctx, f.board.ID, board.ListPatch{Name: ptr("")})
	require.ErrorIs(t, err, repository.ErrInvalidInput)

	_, err = repo.CreateList(ctx, 999, board.ListPatch{Name: ptr("x")})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListRepository_Update(t *testing.T) {
	db := NewTestDB(t)
	f := seed(t, db)
	repo := NewListRepository(db)
	ctx := context.Background()

	l, err := repo.UpdateList(ctx, f.board.ID, f.done, board.ListPatch{Name: ptr("Shipped"), Position: ptr(1)})
	require.NoError(t, err)
	require.Equal(t, "Shipped", l.Name)
	require.Equal(t, 1, l.Position)
	require.Nil(t, l.Cards)
	require.Equal(t, []string{"Shipped", "Todo"}, listOrder(t, db, f.board.ID))
	require.Equal(t, []int64{f.c}, cardOrder(t, db, f.board.ID, f.done), "moving a list keeps its cards")

	_, err = repo.UpdateList(ctx, f.board.ID, f.done, board.ListPatch{Name: ptr(" ")})
	require.ErrorIs(t, err, repository.ErrInvalidInput)

	_, err = repo.UpdateList(ctx, f.board.ID+1, f.done, board.ListPatch{Name: ptr("x")})
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListRepository_DeleteCascades(t *testing.T) {
	db := NewTestDB(t)
	f := seed(t, db)
	repo := NewListRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.DeleteList(ctx, f.board.ID, f.todo))
	require.Equal(t, []string{"Done"}, listOrder(t, db, f.board.ID))

	var cards int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM cards WHERE list_id = ?`, f.todo).Scan(&cards))
	require.Zero(t, cards)

	require.ErrorIs(t, repo.DeleteList(ctx, f.board.ID, f.todo), repository.ErrNotFound)
}
