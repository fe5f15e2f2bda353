package mutation_test

import (
	"context"
	"testing"

	"github.com/rpggio/kanbansync/internal/domain/board"
	"github.com/rpggio/kanbansync/internal/domain/mutation"
	"github.com/rpggio/kanbansync/internal/repository"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func listIDs(b *board.Board) []int64 {
	ids := make([]int64, 0, len(b.Lists))
	for _, l := range b.Lists {
		ids = append(ids, l.ID)
	}
	return ids
}

func TestCreateList(t *testing.T) {
	e := newEnv(t, board.RoleEditor, mutation.Options{})
	e.load(t, scenarioBoard())

	e.lists.On("CreateList", mock.Anything, boardID, board.ListPatch{Name: ptr("Done"), Position: ptr(2)}).
		Return(&board.List{ID: 3, BoardID: boardID, Name: "Done", Position: 2}, nil)

	list, err := e.svc.CreateList(context.Background(), boardID, " Done ", 1)
	require.NoError(t, err)
	require.Equal(t, int64(3), list.ID)

	snap := e.snapshot(t)
	require.Equal(t, []int64{1, 3, 2}, listIDs(snap))
	require.Equal(t, 2, snap.Lists[1].Position)
	require.Empty(t, snap.Lists[1].Cards)
}

func TestCreateList_FailureAndValidation(t *testing.T) {
	e := newEnv(t, board.RoleEditor, mutation.Options{})
	e.load(t, scenarioBoard())
	e.lists.On("CreateList", mock.Anything, boardID, mock.Anything).Return(nil, repository.ErrNetwork)

	_, err := e.svc.CreateList(context.Background(), boardID, "Done", 0)
	require.ErrorIs(t, err, repository.ErrNetwork)
	require.Equal(t, scenarioBoard(), e.snapshot(t))

	_, err = e.svc.CreateList(context.Background(), boardID, "   ", 0)
	require.ErrorIs(t, err, mutation.ErrInvalidInput)
}

func TestRenameList(t *testing.T) {
	e := newEnv(t, board.RoleEditor, mutation.Options{})
	e.load(t, scenarioBoard())

	e.lists.On("UpdateList", mock.Anything, boardID, int64(2), board.ListPatch{Name: ptr("Doing")}).
		Return(&board.List{ID: 2, BoardID: boardID, Name: "Doing", Position: 2}, nil).Once()
	e.lists.On("UpdateList", mock.Anything, boardID, int64(2), board.ListPatch{Name: ptr("x")}).
		Return(nil, repository.NewValidationError("name", "The name is too short."))

	_, err := e.svc.RenameList(context.Background(), boardID, 2, "Doing")
	require.NoError(t, err)
	snap := e.snapshot(t)
	require.Equal(t, "Doing", snap.Lists[1].Name)
	require.Equal(t, []int64{'C'}, cardIDs(snap.Lists[1]), "cards stay local")

	_, err = e.svc.RenameList(context.Background(), boardID, 2, "x")
	require.Error(t, err)
	require.Equal(t, "Doing", e.snapshot(t).Lists[1].Name)
	require.Equal(t, "The name is too short.", e.lastNote(t).Message)
}

func TestMoveList(t *testing.T) {
	e := newEnv(t, board.RoleEditor, mutation.Options{})
	e.load(t, scenarioBoard())

	e.lists.On("UpdateList", mock.Anything, boardID, int64(2), board.ListPatch{Position: ptr(1)}).
		Return(nil, repository.ErrNetwork).Once()
	e.lists.On("UpdateList", mock.Anything, boardID, int64(2), board.ListPatch{Position: ptr(1)}).
		Return(&board.List{ID: 2, BoardID: boardID, Name: "L2", Position: 1}, nil)

	_, err := e.svc.MoveList(context.Background(), boardID, 2, 0)
	require.Error(t, err)
	require.Equal(t, scenarioBoard(), e.snapshot(t))

	_, err = e.svc.MoveList(context.Background(), boardID, 2, 0)
	require.NoError(t, err)
	snap := e.snapshot(t)
	require.Equal(t, []int64{2, 1}, listIDs(snap))
	require.Equal(t, 1, snap.Lists[0].Position)
}

func TestDeleteList_RequiresDeleteRights(t *testing.T) {
	e := newEnv(t, board.RoleEditor, mutation.Options{})
	e.load(t, scenarioBoard())

	err := e.svc.DeleteList(context.Background(), boardID, 1)
	require.ErrorIs(t, err, mutation.ErrPermissionDenied)
	require.Equal(t, scenarioBoard(), e.snapshot(t))
	e.lists.AssertNotCalled(t, "DeleteList", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteList_FailureRestoresCards(t *testing.T) {
	e := newEnv(t, board.RoleAdmin, mutation.Options{})
	e.load(t, scenarioBoard())
	e.lists.On("DeleteList", mock.Anything, boardID, int64(1)).Return(repository.ErrConflict)

	err := e.svc.DeleteList(context.Background(), boardID, 1)
	require.ErrorIs(t, err, repository.ErrConflict)
	require.Equal(t, scenarioBoard(), e.snapshot(t))
}

func TestDeleteList_MissingListIsReducerMiss(t *testing.T) {
	e := newEnv(t, board.RoleAdmin, mutation.Options{})
	e.load(t, scenarioBoard())

	err := e.svc.DeleteList(context.Background(), boardID, 42)
	require.ErrorIs(t, err, mutation.ErrReducerMiss)
	e.lists.AssertNotCalled(t, "DeleteList", mock.Anything, mock.Anything, mock.Anything)
}
