package activity

import "time"

// Type represents the terminal outcome of a sync operation
type Type string

const (
	TypeConfirmed   Type = "confirmed"
	TypeRolledBack  Type = "rolled_back"
	TypeDiscarded   Type = "discarded"
	TypeRefused     Type = "refused"
	TypeReducerMiss Type = "reducer_miss"
)

// Entry represents one finished operation in the activity log
type Entry struct {
	ID        int64     `json:"id"`
	BoardID   int64     `json:"board_id"`
	UserID    int64     `json:"user_id"`
	Operation string    `json:"operation"`
	Entity    string    `json:"entity"`
	Token     string    `json:"token,omitempty"`
	Type      Type      `json:"type"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
