package mutation

import (
	"context"
	"fmt"
	"strings"

	"github.com/rpggio/kanbansync/internal/domain/board"
	"github.com/rpggio/kanbansync/internal/domain/optimistic"
)

// CreateList inserts a list at index. Like cards, it carries a temporary id
// until confirmed.
func (s *Service) CreateList(ctx context.Context, boardID int64, name string, index int) (*board.List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &Error{Op: "create_list", Err: fmt.Errorf("%w: name is required", ErrInvalidInput)}
	}
	tempID := s.nextTempID()

	o := op{
		name:     "create_list",
		kind:     kindList,
		entityID: tempID,
		success:  "List created",
		failure:  "Failed to create list",
		guard:    canEdit,
		apply: func(snap *board.Board) (*board.Board, bool) {
			return optimistic.InsertList(snap, board.List{ID: tempID, Name: name, Cards: []board.Card{}}, index)
		},
		revert: func(current, before *board.Board) *board.Board {
			return restoreList(current, before, tempID)
		},
	}
	return run(ctx, s, boardID, o, func(ctx context.Context, next *board.Board) (*board.List, error) {
		pos := next.ListIndex(tempID) + 1
		return s.lists.CreateList(ctx, boardID, board.ListPatch{Name: &name, Position: &pos})
	}, func(snap *board.Board, created *board.List) (*board.Board, bool) {
		if created == nil {
			return snap, false
		}
		return optimistic.ReplaceList(snap, tempID, *created)
	})
}

// RenameList changes a list's name.
func (s *Service) RenameList(ctx context.Context, boardID, listID int64, name string) (*board.List, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &Error{Op: "rename_list", Err: fmt.Errorf("%w: name is required", ErrInvalidInput)}
	}

	o := op{
		name:     "rename_list",
		kind:     kindList,
		entityID: listID,
		success:  "List renamed",
		failure:  "Failed to rename list",
		guard:    canEdit,
		apply: func(snap *board.Board) (*board.Board, bool) {
			return optimistic.PatchList(snap, listID, board.ListPatch{Name: &name})
		},
		revert: func(current, before *board.Board) *board.Board {
			return restoreList(current, before, listID)
		},
	}
	return run(ctx, s, boardID, o, func(ctx context.Context, _ *board.Board) (*board.List, error) {
		return s.lists.UpdateList(ctx, boardID, listID, board.ListPatch{Name: &name})
	}, reconcileList(listID))
}

// MoveList moves a list to destIndex among the board's lists.
func (s *Service) MoveList(ctx context.Context, boardID, listID int64, destIndex int) (*board.List, error) {
	o := op{
		name:     "move_list",
		kind:     kindList,
		entityID: listID,
		success:  "List moved",
		failure:  "Failed to move list",
		guard:    canEdit,
		apply: func(snap *board.Board) (*board.Board, bool) {
			return optimistic.MoveList(snap, listID, destIndex)
		},
		revert: func(current, before *board.Board) *board.Board {
			return restoreList(current, before, listID)
		},
	}
	return run(ctx, s, boardID, o, func(ctx context.Context, next *board.Board) (*board.List, error) {
		pos := next.ListIndex(listID) + 1
		return s.lists.UpdateList(ctx, boardID, listID, board.ListPatch{Position: &pos})
	}, reconcileList(listID))
}

// DeleteList removes a list and its cards. It needs delete rights, not just
// edit rights.
func (s *Service) DeleteList(ctx context.Context, boardID, listID int64) error {
	o := op{
		name:     "delete_list",
		kind:     kindList,
		entityID: listID,
		success:  "List deleted",
		failure:  "Failed to delete list",
		guard:    canDelete,
		apply: func(snap *board.Board) (*board.Board, bool) {
			return optimistic.RemoveList(snap, listID)
		},
		revert: func(current, before *board.Board) *board.Board {
			return restoreList(current, before, listID)
		},
	}
	_, err := run[struct{}](ctx, s, boardID, o, func(ctx context.Context, _ *board.Board) (struct{}, error) {
		return struct{}{}, s.lists.DeleteList(ctx, boardID, listID)
	}, nil)
	return err
}

// reconcileList takes the server's name for a list. Its cards and slot stay
// local.
func reconcileList(listID int64) func(*board.Board, *board.List) (*board.Board, bool) {
	return func(snap *board.Board, server *board.List) (*board.Board, bool) {
		if server == nil || server.ID != listID {
			return snap, false
		}
		name := server.Name
		return optimistic.PatchList(snap, listID, board.ListPatch{Name: &name})
	}
}
