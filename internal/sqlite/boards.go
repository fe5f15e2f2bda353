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

// BoardRepository implements repository.BoardRepository for SQLite
type BoardRepository struct {
	db *DB
}

// NewBoardRepository creates a new BoardRepository
func NewBoardRepository(db *DB) *BoardRepository {
	return &BoardRepository{db: db}
}

// CreateBoard inserts a board and sets its ID. Lists and collaborators are
// created through their own repositories.
func (r *BoardRepository) CreateBoard(ctx context.Context, b *board.Board) error {
	if strings.TrimSpace(b.Name) == "" {
		return invalid("name", "The name field is required.")
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO boards (name, description, owner_id, is_public) VALUES (?, ?, ?, ?)`,
		b.Name, b.Description, b.OwnerID, b.IsPublic,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return invalid("owner_id", "The selected owner is invalid.")
		}
		return fmt.Errorf("failed to create board: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read board id: %w", err)
	}
	b.ID = id
	return nil
}

// CreateLabel inserts a label on a board and sets its ID
func (r *BoardRepository) CreateLabel(ctx context.Context, boardID int64, label *board.Label) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO labels (board_id, name, color) VALUES (?, ?, ?)`,
		boardID, label.Name, label.Color,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to create label: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read label id: %w", err)
	}
	label.ID = id
	return nil
}

// ListBoards returns the boards a user owns or collaborates on, without
// lists.
func (r *BoardRepository) ListBoards(ctx context.Context, userID int64) ([]board.Board, error) {
	query := `
		SELECT id, name, description, owner_id, is_public
		FROM boards
		WHERE owner_id = ?
		   OR id IN (SELECT board_id FROM board_collaborators WHERE user_id = ?)
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	defer rows.Close()

	boards := []board.Board{}
	for rows.Next() {
		var b board.Board
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.OwnerID, &b.IsPublic); err != nil {
			return nil, fmt.Errorf("failed to scan board: %w", err)
		}
		boards = append(boards, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating board rows: %w", err)
	}
	return boards, nil
}

// GetBoard retrieves a board with its lists, cards, labels and embedded
// collaborators, all in position order.
func (r *BoardRepository) GetBoard(ctx context.Context, id int64) (*board.Board, error) {
	var b board.Board
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, owner_id, is_public FROM boards WHERE id = ?`, id,
	).Scan(&b.ID, &b.Name, &b.Description, &b.OwnerID, &b.IsPublic)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}

	if b.Lists, err = r.lists(ctx, id); err != nil {
		return nil, err
	}
	if err := r.attachCards(ctx, &b); err != nil {
		return nil, err
	}
	if b.Labels, err = r.labels(ctx, id); err != nil {
		return nil, err
	}
	users, err := r.GetBoardUsers(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Collaborators = make([]board.Collaborator, 0, len(users))
	for _, u := range users {
		b.Collaborators = append(b.Collaborators, board.Collaborator{UserID: u.ID, Role: u.Role, User: &u})
	}
	return &b, nil
}

// GetBoardUsers returns the collaborators of a board with their roles. The
// owner is not included.
func (r *BoardRepository) GetBoardUsers(ctx context.Context, boardID int64) ([]board.User, error) {
	query := `
		SELECT u.id, u.name, u.email, bc.role
		FROM board_collaborators bc
		JOIN users u ON u.id = bc.user_id
		WHERE bc.board_id = ?
		ORDER BY bc.created_at, u.id
	`
	rows, err := r.db.QueryContext(ctx, query, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list board users: %w", err)
	}
	defer rows.Close()

	users := []board.User{}
	for rows.Next() {
		var u board.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role); err != nil {
			return nil, fmt.Errorf("failed to scan board user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating board user rows: %w", err)
	}
	return users, nil
}

func (r *BoardRepository) lists(ctx context.Context, boardID int64) ([]board.List, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, board_id, name, position FROM lists WHERE board_id = ? ORDER BY position, id`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}
	defer rows.Close()

	lists := []board.List{}
	for rows.Next() {
		l := board.List{Cards: []board.Card{}}
		if err := rows.Scan(&l.ID, &l.BoardID, &l.Name, &l.Position); err != nil {
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating list rows: %w", err)
	}
	return lists, nil
}

func (r *BoardRepository) attachCards(ctx context.Context, b *board.Board) error {
	query := `SELECT ` + cardColumns + `
		FROM cards c
		JOIN lists l ON l.id = c.list_id
		WHERE l.board_id = ?
		ORDER BY c.position, c.id
	`
	rows, err := r.db.QueryContext(ctx, query, b.ID)
	if err != nil {
		return fmt.Errorf("failed to list cards: %w", err)
	}
	defer rows.Close()

	var cards []board.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return err
		}
		cards = append(cards, *c)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating card rows: %w", err)
	}

	labels, err := cardLabelsForBoard(ctx, r.db, b.ID)
	if err != nil {
		return err
	}
	for _, c := range cards {
		c.LabelIDs = labels[c.ID]
		if li := b.ListIndex(c.ListID); li >= 0 {
			b.Lists[li].Cards = append(b.Lists[li].Cards, c)
		}
	}
	return nil
}

func (r *BoardRepository) labels(ctx context.Context, boardID int64) ([]board.Label, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, color FROM labels WHERE board_id = ? ORDER BY id`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	defer rows.Close()

	labels := []board.Label{}
	for rows.Next() {
		var l board.Label
		if err := rows.Scan(&l.ID, &l.Name, &l.Color); err != nil {
			return nil, fmt.Errorf("failed to scan label: %w", err)
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating label rows: %w", err)
	}
	return labels, nil
}

func cardLabelsForBoard(ctx context.Context, q querier, boardID int64) (map[int64][]int64, error) {
	query := `
		SELECT cl.card_id, cl.label_id
		FROM card_labels cl
		JOIN cards c ON c.id = cl.card_id
		JOIN lists l ON l.id = c.list_id
		WHERE l.board_id = ?
		ORDER BY cl.card_id, cl.label_id
	`
	rows, err := q.QueryContext(ctx, query, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list card labels: %w", err)
	}
	defer rows.Close()

	out := make(map[int64][]int64)
	for rows.Next() {
		var cardID, labelID int64
		if err := rows.Scan(&cardID, &labelID); err != nil {
			return nil, fmt.Errorf("failed to scan card label: %w", err)
		}
		out[cardID] = append(out[cardID], labelID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating card label rows: %w", err)
	}
	return out, nil
}
