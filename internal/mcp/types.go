package mcp

import (
	"github.com/rpggio/kanbansync/internal/domain/activity"
	"github.com/rpggio/kanbansync/internal/domain/board"
	"github.com/rpggio/kanbansync/internal/domain/mutation"
	"github.com/rpggio/kanbansync/internal/domain/permission"
	"github.com/rpggio/kanbansync/internal/notify"
)

type GetBoardParams struct {
	BoardID int64 `json:"board_id" jsonschema:"Board ID"`
	Refresh bool  `json:"refresh,omitempty" jsonschema:"Refetch from the store before returning"`
}

type GetPermissionsParams struct {
	BoardID int64 `json:"board_id" jsonschema:"Board ID"`
	Refresh bool  `json:"refresh,omitempty" jsonschema:"Re-resolve instead of using the cached record"`
}

type MoveCardParams struct {
	BoardID    int64 `json:"board_id" jsonschema:"Board ID"`
	CardID     int64 `json:"card_id" jsonschema:"Card to move"`
	FromListID int64 `json:"from_list_id" jsonschema:"List the card is in now"`
	ToListID   int64 `json:"to_list_id" jsonschema:"Destination list"`
	Index      int   `json:"index" jsonschema:"0-based index in the destination list"`
}

type ReorderCardParams struct {
	BoardID int64 `json:"board_id" jsonschema:"Board ID"`
	CardID  int64 `json:"card_id" jsonschema:"Card to move"`
	Index   int   `json:"index" jsonschema:"0-based index in the board-wide card order, as shown in table view"`
}

type UpdateCardParams struct {
	BoardID     int64   `json:"board_id" jsonschema:"Board ID"`
	CardID      int64   `json:"card_id" jsonschema:"Card to edit"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	AssigneeID  *int64  `json:"assigned_user_id,omitempty" jsonschema:"Assignee user ID, 0 to unassign"`
	LabelIDs    []int64 `json:"label_ids,omitempty"`
	Progress    *int    `json:"progress_percentage,omitempty" jsonschema:"0 to 100"`
	IsCompleted *bool   `json:"is_completed,omitempty"`
}

type CreateCardParams struct {
	BoardID     int64   `json:"board_id" jsonschema:"Board ID"`
	ListID      int64   `json:"list_id" jsonschema:"List to add the card to"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	AssigneeID  *int64  `json:"assigned_user_id,omitempty"`
	Index       *int    `json:"index,omitempty" jsonschema:"0-based index in the list, omit to append"`
	LabelIDs    []int64 `json:"label_ids,omitempty"`
}

type CardRefParams struct {
	BoardID int64 `json:"board_id" jsonschema:"Board ID"`
	CardID  int64 `json:"card_id" jsonschema:"Card ID"`
}

type CreateListParams struct {
	BoardID int64  `json:"board_id" jsonschema:"Board ID"`
	Name    string `json:"name"`
	Index   *int   `json:"index,omitempty" jsonschema:"0-based index among the board's lists, omit to append"`
}

type RenameListParams struct {
	BoardID int64  `json:"board_id" jsonschema:"Board ID"`
	ListID  int64  `json:"list_id" jsonschema:"List to rename"`
	Name    string `json:"name"`
}

type MoveListParams struct {
	BoardID int64 `json:"board_id" jsonschema:"Board ID"`
	ListID  int64 `json:"list_id" jsonschema:"List to move"`
	Index   int   `json:"index" jsonschema:"0-based destination index"`
}

type ListRefParams struct {
	BoardID int64 `json:"board_id" jsonschema:"Board ID"`
	ListID  int64 `json:"list_id" jsonschema:"List ID"`
}

type CollaboratorRoleParams struct {
	BoardID int64      `json:"board_id" jsonschema:"Board ID"`
	UserID  int64      `json:"user_id" jsonschema:"Collaborator user ID"`
	Role    board.Role `json:"role" jsonschema:"admin, editor or viewer"`
}

type CollaboratorRefParams struct {
	BoardID int64 `json:"board_id" jsonschema:"Board ID"`
	UserID  int64 `json:"user_id" jsonschema:"Collaborator user ID"`
}

type SwitchUserParams struct {
	UserID int64 `json:"user_id" jsonschema:"User to act as, 0 to log out"`
}

type RecentActivityParams struct {
	BoardID int64          `json:"board_id" jsonschema:"Board ID"`
	Entity  string         `json:"entity,omitempty" jsonschema:"Entity key such as card:12 or list:3"`
	Type    *activity.Type `json:"type,omitempty" jsonschema:"confirmed, rolled_back, discarded, refused or reducer_miss"`
	Limit   int            `json:"limit,omitempty"`
	Offset  int            `json:"offset,omitempty"`
}

type Empty struct{}

// Responses

type PermissionsResponse struct {
	BoardID int64 `json:"board_id"`
	permission.Record
}

type SyncStatusResponse struct {
	Syncing       bool                  `json:"syncing"`
	Operations    []mutation.Operation  `json:"operations"`
	Notifications []notify.Notification `json:"notifications,omitempty"`
}

type SwitchUserResponse struct {
	UserID int64       `json:"user_id"`
	User   *board.User `json:"user,omitempty"`
}

type DeletedResponse struct {
	Deleted bool   `json:"deleted"`
	Entity  string `json:"entity"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}
