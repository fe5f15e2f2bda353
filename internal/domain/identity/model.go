package identity

import (
	"time"

	"github.com/rpggio/kanbansync/internal/domain/board"
)

// Session is the acting user of the process.
type Session struct {
	User      board.User `json:"user"`
	StartedAt time.Time  `json:"started_at"`
}
