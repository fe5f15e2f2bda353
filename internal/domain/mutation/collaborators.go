package mutation

import (
	"context"
	"fmt"

	"github.com/rpggio/kanbansync/internal/domain/board"
	"github.com/rpggio/kanbansync/internal/domain/optimistic"
)

// ChangeCollaboratorRole sets a collaborator's role. On success the cached
// permissions of the board are refreshed.
func (s *Service) ChangeCollaboratorRole(ctx context.Context, boardID, userID int64, role board.Role) error {
	if err := validateCollaboratorRole(role); err != nil {
		return &Error{Op: "change_collaborator_role", Err: err}
	}
	if err := s.notSelf(userID); err != nil {
		return &Error{Op: "change_collaborator_role", Err: err}
	}
	o := op{
		name:     "change_collaborator_role",
		kind:     kindCollaborator,
		entityID: userID,
		success:  "Role updated",
		failure:  "Failed to update role",
		guard:    canManageCollaborators,
		apply: func(snap *board.Board) (*board.Board, bool) {
			return optimistic.SetCollaboratorRole(snap, userID, role)
		},
		revert: func(current, before *board.Board) *board.Board {
			return restoreCollaborator(current, before, userID)
		},
	}
	return s.collaboratorOp(ctx, boardID, o, func(ctx context.Context) error {
		return s.collaborators.UpdateCollaborator(ctx, boardID, userID, role)
	})
}

// AddCollaborator invites a user to the board with role.
func (s *Service) AddCollaborator(ctx context.Context, boardID, userID int64, role board.Role) error {
	if err := validateCollaboratorRole(role); err != nil {
		return &Error{Op: "add_collaborator", Err: err}
	}
	o := op{
		name:     "add_collaborator",
		kind:     kindCollaborator,
		entityID: userID,
		success:  "Collaborator added",
		failure:  "Failed to add collaborator",
		guard:    canManageCollaborators,
		apply: func(snap *board.Board) (*board.Board, bool) {
			return optimistic.AddCollaborator(snap, board.Collaborator{UserID: userID, Role: role})
		},
		revert: func(current, before *board.Board) *board.Board {
			return restoreCollaborator(current, before, userID)
		},
	}
	return s.collaboratorOp(ctx, boardID, o, func(ctx context.Context) error {
		return s.collaborators.AddCollaborator(ctx, boardID, userID, role)
	})
}

// RemoveCollaborator removes a user from the board.
func (s *Service) RemoveCollaborator(ctx context.Context, boardID, userID int64) error {
	if err := s.notSelf(userID); err != nil {
		return &Error{Op: "remove_collaborator", Err: err}
	}
	o := op{
		name:     "remove_collaborator",
		kind:     kindCollaborator,
		entityID: userID,
		success:  "Collaborator removed",
		failure:  "Failed to remove collaborator",
		guard:    canManageCollaborators,
		apply: func(snap *board.Board) (*board.Board, bool) {
			return optimistic.RemoveCollaborator(snap, userID)
		},
		revert: func(current, before *board.Board) *board.Board {
			return restoreCollaborator(current, before, userID)
		},
	}
	return s.collaboratorOp(ctx, boardID, o, func(ctx context.Context) error {
		return s.collaborators.RemoveCollaborator(ctx, boardID, userID)
	})
}

func (s *Service) collaboratorOp(ctx context.Context, boardID int64, o op, call func(context.Context) error) error {
	_, err := run[struct{}](ctx, s, boardID, o, func(ctx context.Context, _ *board.Board) (struct{}, error) {
		return struct{}{}, call(ctx)
	}, nil)
	if err != nil {
		return err
	}
	rec := s.perms.Refresh(ctx, boardID)
	s.logger.Debug("permissions refreshed after membership change", "board_id", boardID, "role", string(rec.Role))
	return nil
}

// notSelf refuses membership changes aimed at the acting user.
func (s *Service) notSelf(userID int64) error {
	if userID != 0 && userID == s.perms.UserID() {
		return fmt.Errorf("%w: you cannot change your own membership", ErrInvalidInput)
	}
	return nil
}

func validateCollaboratorRole(role board.Role) error {
	switch role {
	case board.RoleAdmin, board.RoleEditor, board.RoleViewer:
		return nil
	default:
		return fmt.Errorf("%w: role must be admin, editor or viewer", ErrInvalidInput)
	}
}
