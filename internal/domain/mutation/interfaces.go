package mutation

import (
	"context"

	"github.com/rpggio/kanbansync/internal/domain/activity"
	"github.com/rpggio/kanbansync/internal/domain/board"
	"github.com/rpggio/kanbansync/internal/domain/permission"
)

// BoardFetcher loads the authoritative board.
type BoardFetcher interface {
	GetBoard(ctx context.Context, id int64) (*board.Board, error)
}

// CardWriter persists card mutations.
type CardWriter interface {
	CreateCard(ctx context.Context, listID int64, card board.Card) (*board.Card, error)
	UpdateCard(ctx context.Context, id int64, patch board.CardPatch) (*board.Card, error)
	DeleteCard(ctx context.Context, id int64) error
}

// ListWriter persists list mutations.
type ListWriter interface {
	CreateList(ctx context.Context, boardID int64, patch board.ListPatch) (*board.List, error)
	UpdateList(ctx context.Context, boardID, listID int64, patch board.ListPatch) (*board.List, error)
	DeleteList(ctx context.Context, boardID, listID int64) error
}

// CollaboratorWriter persists board membership changes.
type CollaboratorWriter interface {
	AddCollaborator(ctx context.Context, boardID, userID int64, role board.Role) error
	UpdateCollaborator(ctx context.Context, boardID, userID int64, role board.Role) error
	RemoveCollaborator(ctx context.Context, boardID, userID int64) error
}

// Permissions is the subset of the permission cache the service needs.
type Permissions interface {
	Get(boardID int64) permission.Record
	Refresh(ctx context.Context, boardID int64) permission.Record
	UserID() int64
}

// ActivityLogger records terminal operation outcomes.
type ActivityLogger interface {
	LogActivity(ctx context.Context, entry *activity.Entry) error
}
