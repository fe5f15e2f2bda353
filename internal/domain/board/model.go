package board

import "time"

// Role is a user's role on a single board.
type Role string

const (
	RoleNone   Role = ""
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Valid reports whether r is one of the known board roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleEditor, RoleViewer:
		return true
	default:
		return false
	}
}

// User is a board member as seen by the client.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role,omitempty"`
}

// Collaborator pairs a user with a role scoped to one board
type Collaborator struct {
	UserID int64 `json:"user_id"`
	Role   Role  `json:"role"`
	User   *User `json:"user,omitempty"`
}

// Label is a board-scoped tag that cards reference by id
type Label struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Card is a unit of work inside a list.
type Card struct {
	ID          int64      `json:"id"`
	ListID      int64      `json:"list_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Position    int        `json:"position"`
	AssigneeID  *int64     `json:"assigned_user_id,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	LabelIDs    []int64    `json:"label_ids,omitempty"`
	IsCompleted bool       `json:"is_completed"`
	Progress    *int       `json:"progress_percentage,omitempty"`
}

// List is an ordered column of cards.
type List struct {
	ID       int64  `json:"id"`
	BoardID  int64  `json:"board_id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
	Cards    []Card `json:"cards"`
}

// Board is the full client-side view of a board.
type Board struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	OwnerID       int64          `json:"owner_id"`
	IsPublic      bool           `json:"is_public"`
	Lists         []List         `json:"lists"`
	Collaborators []Collaborator `json:"collaborators,omitempty"`
	Labels        []Label        `json:"labels,omitempty"`
}

// CardPatch carries the partial fields of a card update. Nil fields are left
// untouched.
type CardPatch struct {
	ListID      *int64  `json:"list_id,omitempty"`
	Position    *int    `json:"position,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	AssigneeID  *int64  `json:"assigned_user_id,omitempty"`
	LabelIDs    []int64 `json:"label_ids,omitempty"`
	Progress    *int    `json:"progress_percentage,omitempty"`
	IsCompleted *bool   `json:"is_completed,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p CardPatch) Empty() bool {
	return p.ListID == nil && p.Position == nil && p.Title == nil && p.Description == nil &&
		p.AssigneeID == nil && p.LabelIDs == nil && p.Progress == nil && p.IsCompleted == nil
}

// ListPatch carries the partial fields of a list create or update.
type ListPatch struct {
	Name     *string `json:"name,omitempty"`
	Position *int    `json:"position,omitempty"`
}
