package permission

import (
	"context"

	"github.com/rpggio/kanbansync/internal/domain/board"
)

// BoardReader provides the board and member lookups used to resolve roles.
type BoardReader interface {
	GetBoard(ctx context.Context, id int64) (*board.Board, error)
	GetBoardUsers(ctx context.Context, boardID int64) ([]board.User, error)
}

// UserReader resolves the owner's profile when it is not embedded.
type UserReader interface {
	GetUserByID(ctx context.Context, id int64) (*board.User, error)
}
