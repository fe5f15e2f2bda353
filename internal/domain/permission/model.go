package permission

import "github.com/rpggio/kanbansync/internal/domain/board"

// Record is what the acting user may do on one board.
type Record struct {
	Role                   board.Role   `json:"user_role"`
	CanEdit                bool         `json:"can_edit"`
	CanDelete              bool         `json:"can_delete"`
	CanManageCollaborators bool         `json:"can_manage_collaborators"`
	CanView                bool         `json:"can_view"`
	Loading                bool         `json:"loading"`
	BoardUsers             []board.User `json:"board_users"`
}

// Capabilities derives the capability flags for a role. The result is never
// loading and carries no board users.
func Capabilities(role board.Role) Record {
	return Record{
		Role:                   role,
		CanEdit:                role == board.RoleOwner || role == board.RoleAdmin || role == board.RoleEditor,
		CanDelete:              role == board.RoleOwner || role == board.RoleAdmin,
		CanManageCollaborators: role == board.RoleOwner || role == board.RoleAdmin,
		CanView:                role != board.RoleNone,
		BoardUsers:             []board.User{},
	}
}

func placeholder() Record {
	rec := Capabilities(board.RoleNone)
	rec.Loading = true
	return rec
}

func noAccess() Record {
	return Capabilities(board.RoleNone)
}

func (r Record) clone() Record {
	r.BoardUsers = append([]board.User{}, r.BoardUsers...)
	return r
}
