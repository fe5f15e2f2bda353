package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rpggio/kanbansync/internal/domain/board"
	"github.com/rpggio/kanbansync/internal/repository"
)

const cardColumns = `c.id, c.list_id, c.title, c.description, c.position,
	c.assigned_user_id, c.due_date, c.is_completed, c.progress_percentage`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*board.Card, error) {
	var c board.Card
	var assignee sql.NullInt64
	var due sql.NullTime
	var progress sql.NullInt64
	if err := row.Scan(
		&c.ID,
		&c.ListID,
		&c.Title,
		&c.Description,
		&c.Position,
		&assignee,
		&due,
		&c.IsCompleted,
		&progress,
	); err != nil {
		return nil, err
	}
	if assignee.Valid {
		c.AssigneeID = &assignee.Int64
	}
	if due.Valid {
		t := due.Time
		c.DueDate = &t
	}
	if progress.Valid {
		p := int(progress.Int64)
		c.Progress = &p
	}
	return &c, nil
}

// CardRepository implements repository.CardRepository for SQLite. Card
// positions are kept dense, 1..n within each list.
type CardRepository struct {
	db *DB
}

// NewCardRepository creates a new CardRepository
func NewCardRepository(db *DB) *CardRepository {
	return &CardRepository{db: db}
}

// CreateCard inserts a card at card.Position of a list. A position of zero
// or past the end appends.
func (r *CardRepository) CreateCard(ctx context.Context, listID int64, card board.Card) (*board.Card, error) {
	if strings.TrimSpace(card.Title) == "" {
		return nil, invalid("title", "The title field is required.")
	}
	if card.Progress != nil && (*card.Progress < 0 || *card.Progress > 100) {
		return nil, invalid("progress_percentage", "The progress percentage must be between 0 and 100.")
	}

	var created *board.Card
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		boardID, err := listBoard(ctx, tx, listID)
		if err != nil {
			return err
		}
		ids, err := cardIDsInList(ctx, tx, listID, 0)
		if err != nil {
			return err
		}
		if err := checkAssignee(ctx, tx, card.AssigneeID); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO cards (list_id, title, description, position, assigned_user_id, due_date, is_completed, progress_percentage)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, listID, card.Title, card.Description, len(ids)+1, card.AssigneeID, card.DueDate, card.IsCompleted, card.Progress)
		if err != nil {
			return fmt.Errorf("failed to create card: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read card id: %w", err)
		}

		ids = insertAt(ids, id, card.Position)
		if err := writeCardPositions(ctx, tx, listID, ids); err != nil {
			return err
		}
		if err := setCardLabels(ctx, tx, boardID, id, card.LabelIDs); err != nil {
			return err
		}
		created, err = getCard(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateCard applies a partial update. A list_id and/or position in the
// patch relocates the card and renumbers both affected lists.
func (r *CardRepository) UpdateCard(ctx context.Context, id int64, patch board.CardPatch) (*board.Card, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, invalid("title", "The title field is required.")
	}
	if patch.Progress != nil && (*patch.Progress < 0 || *patch.Progress > 100) {
		return nil, invalid("progress_percentage", "The progress percentage must be between 0 and 100.")
	}
	if patch.Position != nil && *patch.Position < 1 {
		return nil, invalid("position", "The position must be at least 1.")
	}

	var updated *board.Card
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getCard(ctx, tx, id)
		if err != nil {
			return err
		}
		boardID, err := listBoard(ctx, tx, current.ListID)
		if err != nil {
			return err
		}

		if patch.ListID != nil || patch.Position != nil {
			if err := moveCard(ctx, tx, boardID, current, patch.ListID, patch.Position); err != nil {
				return err
			}
		}

		sets := []string{"updated_at = ?"}
		args := []any{time.Now().UTC()}
		if patch.Title != nil {
			sets = append(sets, "title = ?")
			args = append(args, *patch.Title)
		}
		if patch.Description != nil {
			sets = append(sets, "description = ?")
			args = append(args, *patch.Description)
		}
		if patch.AssigneeID != nil {
			if *patch.AssigneeID == 0 {
				sets = append(sets, "assigned_user_id = NULL")
			} else {
				if err := checkAssignee(ctx, tx, patch.AssigneeID); err != nil {
					return err
				}
				sets = append(sets, "assigned_user_id = ?")
				args = append(args, *patch.AssigneeID)
			}
		}
		if patch.Progress != nil {
			sets = append(sets, "progress_percentage = ?")
			args = append(args, *patch.Progress)
		}
		if patch.IsCompleted != nil {
			sets = append(sets, "is_completed = ?")
			args = append(args, *patch.IsCompleted)
		}
		args = append(args, id)
		if _, err := tx.ExecContext(ctx, `UPDATE cards SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
			return fmt.Errorf("failed to update card: %w", err)
		}

		if patch.LabelIDs != nil {
			if err := setCardLabels(ctx, tx, boardID, id, patch.LabelIDs); err != nil {
				return err
			}
		}

		updated, err = getCard(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteCard removes a card and closes the gap in its list
func (r *CardRepository) DeleteCard(ctx context.Context, id int64) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getCard(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete card: %w", err)
		}
		ids, err := cardIDsInList(ctx, tx, current.ListID, 0)
		if err != nil {
			return err
		}
		return writeCardPositions(ctx, tx, current.ListID, ids)
	})
}

func moveCard(ctx context.Context, tx *sql.Tx, boardID int64, current *board.Card, listID *int64, position *int) error {
	destList := current.ListID
	if listID != nil {
		destBoard, err := listBoard(ctx, tx, *listID)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && destBoard != boardID) {
			return invalid("list_id", "The selected list is invalid.")
		}
		if err != nil {
			return err
		}
		destList = *listID
	}

	// Without a position a card changing list goes to the end.
	pos := 0
	if position != nil {
		pos = *position
	} else if destList == current.ListID {
		pos = current.Position
	}

	srcIDs, err := cardIDsInList(ctx, tx, current.ListID, current.ID)
	if err != nil {
		return err
	}
	if destList == current.ListID {
		return writeCardPositions(ctx, tx, destList, insertAt(srcIDs, current.ID, pos))
	}

	destIDs, err := cardIDsInList(ctx, tx, destList, current.ID)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE cards SET list_id = ? WHERE id = ?`, destList, current.ID); err != nil {
		return fmt.Errorf("failed to move card: %w", err)
	}
	if err := writeCardPositions(ctx, tx, current.ListID, srcIDs); err != nil {
		return err
	}
	return writeCardPositions(ctx, tx, destList, insertAt(destIDs, current.ID, pos))
}

func getCard(ctx context.Context, q querier, id int64) (*board.Card, error) {
	c, err := scanCard(q.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM cards c WHERE c.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	rows, err := q.QueryContext(ctx, `SELECT label_id FROM card_labels WHERE card_id = ? ORDER BY label_id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get card labels: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var labelID int64
		if err := rows.Scan(&labelID); err != nil {
			return nil, fmt.Errorf("failed to scan card label: %w", err)
		}
		c.LabelIDs = append(c.LabelIDs, labelID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating card label rows: %w", err)
	}
	return c, nil
}

// listBoard returns the board a list belongs to.
func listBoard(ctx context.Context, q querier, listID int64) (int64, error) {
	var boardID int64
	err := q.QueryRowContext(ctx, `SELECT board_id FROM lists WHERE id = ?`, listID).Scan(&boardID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, repository.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get list: %w", err)
	}
	return boardID, nil
}

// cardIDsInList returns the card ids of a list in position order, leaving
// out exclude.
func cardIDsInList(ctx context.Context, q querier, listID, exclude int64) ([]int64, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id FROM cards WHERE list_id = ? AND id != ? ORDER BY position, id`, listID, exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to list card ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan card id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func writeCardPositions(ctx context.Context, tx *sql.Tx, listID int64, ids []int64) error {
	for i, id := range ids {
		if _, err := tx.ExecContext(ctx, `UPDATE cards SET position = ?, list_id = ? WHERE id = ?`, i+1, listID, id); err != nil {
			return fmt.Errorf("failed to renumber cards: %w", err)
		}
	}
	return nil
}

// insertAt places id at 1-based position pos. Zero or past the end appends.
func insertAt(ids []int64, id int64, pos int) []int64 {
	idx := pos - 1
	if pos <= 0 || idx > len(ids) {
		idx = len(ids)
	}
	out := make([]int64, 0, len(ids)+1)
	out = append(out, ids[:idx]...)
	out = append(out, id)
	return append(out, ids[idx:]...)
}

func checkAssignee(ctx context.Context, q querier, userID *int64) error {
	if userID == nil {
		return nil
	}
	var exists int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = ?`, *userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check assignee: %w", err)
	}
	if exists == 0 {
		return invalid("assigned_user_id", "The selected assignee is invalid.")
	}
	return nil
}

func setCardLabels(ctx context.Context, tx *sql.Tx, boardID, cardID int64, labelIDs []int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM card_labels WHERE card_id = ?`, cardID); err != nil {
		return fmt.Errorf("failed to clear card labels: %w", err)
	}
	for _, labelID := range labelIDs {
		var labelBoard int64
		err := tx.QueryRowContext(ctx, `SELECT board_id FROM labels WHERE id = ?`, labelID).Scan(&labelBoard)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && labelBoard != boardID) {
			return invalid("label_ids", "The selected label is invalid.")
		}
		if err != nil {
			return fmt.Errorf("failed to check label: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO card_labels (card_id, label_id) VALUES (?, ?)`, cardID, labelID); err != nil {
			return fmt.Errorf("failed to set card label: %w", err)
		}
	}
	return nil
}
