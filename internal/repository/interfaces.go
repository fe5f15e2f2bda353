package repository

import (
	"context"

	"github.com/rpggio/kanbansync/internal/domain/activity"
	"github.com/rpggio/kanbansync/internal/domain/board"
)

// BoardRepository reads boards and their members.
type BoardRepository interface {
	GetBoard(ctx context.Context, id int64) (*board.Board, error)
	GetBoardUsers(ctx context.Context, boardID int64) ([]board.User, error)
}

// UserRepository reads user profiles.
type UserRepository interface {
	GetUserByID(ctx context.Context, id int64) (*board.User, error)
}

// CardRepository mutates cards.
type CardRepository interface {
	CreateCard(ctx context.Context, listID int64, card board.Card) (*board.Card, error)
	UpdateCard(ctx context.Context, id int64, patch board.CardPatch) (*board.Card, error)
	DeleteCard(ctx context.Context, id int64) error
}

// ListRepository mutates lists.
type ListRepository interface {
	CreateList(ctx context.Context, boardID int64, patch board.ListPatch) (*board.List, error)
	UpdateList(ctx context.Context, boardID, listID int64, patch board.ListPatch) (*board.List, error)
	DeleteList(ctx context.Context, boardID, listID int64) error
}

// CollaboratorRepository mutates board membership.
type CollaboratorRepository interface {
	AddCollaborator(ctx context.Context, boardID, userID int64, role board.Role) error
	UpdateCollaborator(ctx context.Context, boardID, userID int64, role board.Role) error
	RemoveCollaborator(ctx context.Context, boardID, userID int64) error
}

// ActivityRepository manages activity log persistence
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.Entry) error
	List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
}
