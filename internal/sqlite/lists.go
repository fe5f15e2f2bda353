package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rpggio/kanbansync/internal/domain/board"
	"github.com/rpggio/kanbansync/internal/repository"
)

// ListRepository implements repository.ListRepository for SQLite
type ListRepository struct {
	db *DB
}

// NewListRepository creates a new ListRepository
func NewListRepository(db *DB) *ListRepository {
	return &ListRepository{db: db}
}

// CreateList inserts a list. A missing or out of range position appends.
func (r *ListRepository) CreateList(ctx context.Context, boardID int64, patch board.ListPatch) (*board.List, error) {
	if patch.Name == nil || strings.TrimSpace(*patch.Name) == "" {
		return nil, invalid("name", "The name field is required.")
	}

	var created *board.List
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM boards WHERE id = ?`, boardID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check board: %w", err)
		}
		if exists == 0 {
			return repository.ErrNotFound
		}

		ids, err := listIDsInBoard(ctx, tx, boardID, 0)
		if err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx,
			`INSERT INTO lists (board_id, name, position) VALUES (?, ?, ?)`,
			boardID, strings.TrimSpace(*patch.Name), len(ids)+1,
		)
		if err != nil {
			return fmt.Errorf("failed to create list: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read list id: %w", err)
		}

		pos := 0
		if patch.Position != nil {
			pos = *patch.Position
		}
		if err := writeListPositions(ctx, tx, insertAt(ids, id, pos)); err != nil {
			return err
		}
		created, err = getList(ctx, tx, boardID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	created.Cards = []board.Card{}
	return created, nil
}

// UpdateList renames and/or moves a list. The returned list carries no
// cards.
func (r *ListRepository) UpdateList(ctx context.Context, boardID, listID int64, patch board.ListPatch) (*board.List, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, invalid("name", "The name field is required.")
	}
	if patch.Position != nil && *patch.Position < 1 {
		return nil, invalid("position", "The position must be at least 1.")
	}

	var updated *board.List
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getList(ctx, tx, boardID, listID); err != nil {
			return err
		}
		if patch.Name != nil {
			if _, err := tx.ExecContext(ctx,
				`UPDATE lists SET name = ? WHERE id = ?`, strings.TrimSpace(*patch.Name), listID); err != nil {
				return fmt.Errorf("failed to update list: %w", err)
			}
		}
		if patch.Position != nil {
			ids, err := listIDsInBoard(ctx, tx, boardID, listID)
			if err != nil {
				return err
			}
			if err := writeListPositions(ctx, tx, insertAt(ids, listID, *patch.Position)); err != nil {
				return err
			}
		}
		var err error
		updated, err = getList(ctx, tx, boardID, listID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteList removes a list with its cards and closes the gap
func (r *ListRepository) DeleteList(ctx context.Context, boardID, listID int64) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM lists WHERE id = ? AND board_id = ?`, listID, boardID)
		if err != nil {
			return fmt.Errorf("failed to delete list: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrNotFound
		}
		ids, err := listIDsInBoard(ctx, tx, boardID, 0)
		if err != nil {
			return err
		}
		return writeListPositions(ctx, tx, ids)
	})
}

func getList(ctx context.Context, q querier, boardID, listID int64) (*board.List, error) {
	var l board.List
	err := q.QueryRowContext(ctx,
		`SELECT id, board_id, name, position FROM lists WHERE id = ? AND board_id = ?`, listID, boardID,
	).Scan(&l.ID, &l.BoardID, &l.Name, &l.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get list: %w", err)
	}
	return &l, nil
}

func listIDsInBoard(ctx context.Context, q querier, boardID, exclude int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id FROM lists WHERE board_id = ? AND id != ? ORDER BY position, id`, boardID, exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to list list ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan list id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func writeListPositions(ctx context.Context, tx *sql.Tx, ids []int64) error {
	for i, id := range ids {
		if _, err := tx.ExecContext(ctx, `UPDATE lists SET position = ? WHERE id = ?`, i+1, id); err != nil {
			return fmt.Errorf("failed to renumber lists: %w", err)
		}
	}
	return nil
}
