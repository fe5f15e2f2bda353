package identity

import (
	"context"

	"github.com/rpggio/kanbansync/internal/domain/board"
)

// UserRepository looks up users.
type UserRepository interface {
	GetUserByID(ctx context.Context, id int64) (*board.User, error)
}

// Listener is told about every change of acting user. Zero means logged out.
type Listener interface {
	SetUser(userID int64)
}
