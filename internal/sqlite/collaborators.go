package sqlite

import (
	"context"
	"fmt"

	"github.com/rpggio/kanbansync/internal/domain/board"
	"github.com/rpggio/kanbansync/internal/repository"
)

// CollaboratorRepository implements repository.CollaboratorRepository for
// SQLite. The board owner is never stored as a collaborator.
type CollaboratorRepository struct {
	db *DB
}

// NewCollaboratorRepository creates a new CollaboratorRepository
func NewCollaboratorRepository(db *DB) *CollaboratorRepository {
	return &CollaboratorRepository{db: db}
}

// AddCollaborator grants a user a role on a board
func (r *CollaboratorRepository) AddCollaborator(ctx context.Context, boardID, userID int64, role board.Role) error {
	if err := checkCollaboratorRole(role); err != nil {
		return err
	}
	if err := r.checkNotOwner(ctx, boardID, userID); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO board_collaborators (board_id, user_id, role) VALUES (?, ?, ?)`,
		boardID, userID, role,
	)
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("user %d already collaborates on board %d: %w", userID, boardID, repository.ErrConflict)
	case isForeignKeyViolation(err):
		return invalid("user_id", "The selected user is invalid.")
	case err != nil:
		return fmt.Errorf("failed to add collaborator: %w", err)
	}
	return nil
}

// UpdateCollaborator changes an existing collaborator's role
func (r *CollaboratorRepository) UpdateCollaborator(ctx context.Context, boardID, userID int64, role board.Role) error {
	if err := checkCollaboratorRole(role); err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE board_collaborators SET role = ? WHERE board_id = ? AND user_id = ?`,
		role, boardID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update collaborator: %w", err)
	}
	return requireAffected(result.RowsAffected())
}

// RemoveCollaborator revokes a user's access to a board
func (r *CollaboratorRepository) RemoveCollaborator(ctx context.Context, boardID, userID int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM board_collaborators WHERE board_id = ? AND user_id = ?`, boardID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove collaborator: %w", err)
	}
	return requireAffected(result.RowsAffected())
}

func (r *CollaboratorRepository) checkNotOwner(ctx context.Context, boardID, userID int64) error {
	var ownerID int64
	err := r.db.QueryRowContext(ctx, `SELECT owner_id FROM boards WHERE id = ?`, boardID).Scan(&ownerID)
	if err != nil {
		if isNoRows(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to get board owner: %w", err)
	}
	if ownerID == userID {
		return invalid("user_id", "The board owner cannot be added as a collaborator.")
	}
	return nil
}

func checkCollaboratorRole(role board.Role) error {
	switch role {
	case board.RoleAdmin, board.RoleEditor, board.RoleViewer:
		return nil
	default:
		return invalid("role", "The selected role is invalid.")
	}
}

func requireAffected(rows int64, err error) error {
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
