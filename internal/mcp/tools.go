package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/rpggio/kanbansync/internal/domain/activity"
	"github.com/rpggio/kanbansync/internal/domain/board"
	"github.com/rpggio/kanbansync/internal/domain/mutation"
	"github.com/rpggio/kanbansync/internal/domain/permission"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const recentNotifications = 10

type tools struct {
	svc Services
}

func registerTools(server *sdkmcp.Server, svc Services) {
	t := &tools{svc: svc}

	// Reads
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_board",
		Description: "Get the local snapshot of a board with its lists, cards, labels and collaborators. Loads the board on first use.",
	}, t.getBoard)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_permissions",
		Description: "Get the acting user's role and capabilities on a board, plus everyone who has access to it",
	}, t.getPermissions)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "sync_status",
		Description: "Report whether any mutation is still in flight, which ones, and the latest notifications",
	}, t.syncStatus)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "recent_activity",
		Description: "List how recent operations on a board ended: confirmed, rolled_back, discarded, refused or reducer_miss",
	}, t.recentActivity)

	// Cards
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "move_card",
		Description: "Move a card to an index in the same or another list",
	}, t.moveCard)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "reorder_card",
		Description: "Move a card within the board-wide card order used by table view",
	}, t.reorderCard)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_card",
		Description: "Edit a card's title, description, assignee, labels, progress or completion. Use move_card to change its place.",
	}, t.updateCard)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_card",
		Description: "Create a card in a list",
	}, t.createCard)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_card",
		Description: "Delete a card",
	}, t.deleteCard)

	// Lists
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_list",
		Description: "Create a list on a board",
	}, t.createList)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "rename_list",
		Description: "Rename a list",
	}, t.renameList)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "move_list",
		Description: "Move a list to another index on its board",
	}, t.moveList)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_list",
		Description: "Delete a list and every card in it. Needs delete rights.",
	}, t.deleteList)

	// Collaborators
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "change_collaborator_role",
		Description: "Change a collaborator's role. Needs collaborator management rights.",
	}, t.changeCollaboratorRole)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "add_collaborator",
		Description: "Give a user access to a board with a role. Needs collaborator management rights.",
	}, t.addCollaborator)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "remove_collaborator",
		Description: "Revoke a collaborator's access. Needs collaborator management rights.",
	}, t.removeCollaborator)

	// Identity
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "switch_user",
		Description: "Act as another user, or log out with user_id 0. Cached permissions are dropped.",
	}, t.switchUser)
}

func (t *tools) getBoard(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetBoardParams) (*sdkmcp.CallToolResult, any, error) {
	rec := t.permissions(ctx, in.BoardID, false)
	if !rec.CanView {
		return errorResult(&mutation.Error{Op: "get_board", Err: mutation.ErrPermissionDenied})
	}
	if err := t.ensureLoaded(ctx, in.BoardID); err != nil {
		return errorResult(err)
	}
	if in.Refresh {
		if err := t.svc.Boards.Refetch(ctx, in.BoardID); err != nil {
			return errorResult(err)
		}
	}
	snap, err := t.svc.Boards.Snapshot(in.BoardID)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(snap)
}

func (t *tools) getPermissions(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetPermissionsParams) (*sdkmcp.CallToolResult, any, error) {
	rec := t.permissions(ctx, in.BoardID, in.Refresh)
	return jsonResult(PermissionsResponse{BoardID: in.BoardID, Record: rec})
}

func (t *tools) syncStatus(_ context.Context, _ *sdkmcp.CallToolRequest, _ Empty) (*sdkmcp.CallToolResult, any, error) {
	resp := SyncStatusResponse{
		Syncing:    t.svc.Sync.Syncing(),
		Operations: t.svc.Sync.Operations(),
	}
	if t.svc.Notifications != nil {
		notes := t.svc.Notifications.Notifications()
		if len(notes) > recentNotifications {
			notes = notes[len(notes)-recentNotifications:]
		}
		resp.Notifications = notes
	}
	return jsonResult(resp)
}

func (t *tools) recentActivity(ctx context.Context, _ *sdkmcp.CallToolRequest, in RecentActivityParams) (*sdkmcp.CallToolResult, any, error) {
	entries, err := t.svc.Activity.GetRecentActivity(ctx, activity.ListOptions{
		BoardID: in.BoardID,
		Entity:  in.Entity,
		Type:    in.Type,
		Limit:   in.Limit,
		Offset:  in.Offset,
	})
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(entries)
}

func (t *tools) moveCard(ctx context.Context, _ *sdkmcp.CallToolRequest, in MoveCardParams) (*sdkmcp.CallToolResult, any, error) {
	if err := t.prepare(ctx, in.BoardID); err != nil {
		return errorResult(err)
	}
	card, err := t.svc.Boards.MoveCard(ctx, in.BoardID, in.CardID, in.FromListID, in.ToListID, in.Index)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(card)
}

func (t *tools) reorderCard(ctx context.Context, _ *sdkmcp.CallToolRequest, in ReorderCardParams) (*sdkmcp.CallToolResult, any, error) {
	if err := t.prepare(ctx, in.BoardID); err != nil {
		return errorResult(err)
	}
	card, err := t.svc.Boards.ReorderCard(ctx, in.BoardID, in.CardID, in.Index)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(card)
}

func (t *tools) updateCard(ctx context.Context, _ *sdkmcp.CallToolRequest, in UpdateCardParams) (*sdkmcp.CallToolResult, any, error) {
	if err := t.prepare(ctx, in.BoardID); err != nil {
		return errorResult(err)
	}
	card, err := t.svc.Boards.UpdateCard(ctx, in.BoardID, in.CardID, board.CardPatch{
		Title:       in.Title,
		Description: in.Description,
		AssigneeID:  in.AssigneeID,
		LabelIDs:    in.LabelIDs,
		Progress:    in.Progress,
		IsCompleted: in.IsCompleted,
	})
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(card)
}

func (t *tools) createCard(ctx context.Context, _ *sdkmcp.CallToolRequest, in CreateCardParams) (*sdkmcp.CallToolResult, any, error) {
	if err := t.prepare(ctx, in.BoardID); err != nil {
		return errorResult(err)
	}
	card, err := t.svc.Boards.CreateCard(ctx, in.BoardID, in.ListID, board.Card{
		Title:       in.Title,
		Description: in.Description,
		AssigneeID:  in.AssigneeID,
		LabelIDs:    in.LabelIDs,
	}, indexOrEnd(in.Index))
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(card)
}

func (t *tools) deleteCard(ctx context.Context, _ *sdkmcp.CallToolRequest, in CardRefParams) (*sdkmcp.CallToolResult, any, error) {
	if err := t.prepare(ctx, in.BoardID); err != nil {
		return errorResult(err)
	}
	if err := t.svc.Boards.DeleteCard(ctx, in.BoardID, in.CardID); err != nil {
		return errorResult(err)
	}
	return jsonResult(DeletedResponse{Deleted: true, Entity: fmt.Sprintf("card:%d", in.CardID)})
}

func (t *tools) createList(ctx context.Context, _ *sdkmcp.CallToolRequest, in CreateListParams) (*sdkmcp.CallToolResult, any, error) {
	if err := t.prepare(ctx, in.BoardID); err != nil {
		return errorResult(err)
	}
	list, err := t.svc.Boards.CreateList(ctx, in.BoardID, in.Name, indexOrEnd(in.Index))
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(list)
}

func (t *tools) renameList(ctx context.Context, _ *sdkmcp.CallToolRequest, in RenameListParams) (*sdkmcp.CallToolResult, any, error) {
	if err := t.prepare(ctx, in.BoardID); err != nil {
		return errorResult(err)
	}
	list, err := t.svc.Boards.RenameList(ctx, in.BoardID, in.ListID, in.Name)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(list)
}

func (t *tools) moveList(ctx context.Context, _ *sdkmcp.CallToolRequest, in MoveListParams) (*sdkmcp.CallToolResult, any, error) {
	if err := t.prepare(ctx, in.BoardID); err != nil {
		return errorResult(err)
	}
	list, err := t.svc.Boards.MoveList(ctx, in.BoardID, in.ListID, in.Index)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(list)
}

func (t *tools) deleteList(ctx context.Context, _ *sdkmcp.CallToolRequest, in ListRefParams) (*sdkmcp.CallToolResult, any, error) {
	if err := t.prepare(ctx, in.BoardID); err != nil {
		return errorResult(err)
	}
	if err := t.svc.Boards.DeleteList(ctx, in.BoardID, in.ListID); err != nil {
		return errorResult(err)
	}
	return jsonResult(DeletedResponse{Deleted: true, Entity: fmt.Sprintf("list:%d", in.ListID)})
}

func (t *tools) changeCollaboratorRole(ctx context.Context, _ *sdkmcp.CallToolRequest, in CollaboratorRoleParams) (*sdkmcp.CallToolResult, any, error) {
	if err := t.prepare(ctx, in.BoardID); err != nil {
		return errorResult(err)
	}
	if err := t.svc.Boards.ChangeCollaboratorRole(ctx, in.BoardID, in.UserID, in.Role); err != nil {
		return errorResult(err)
	}
	return jsonResult(OKResponse{OK: true})
}

func (t *tools) addCollaborator(ctx context.Context, _ *sdkmcp.CallToolRequest, in CollaboratorRoleParams) (*sdkmcp.CallToolResult, any, error) {
	if err := t.prepare(ctx, in.BoardID); err != nil {
		return errorResult(err)
	}
	if err := t.svc.Boards.AddCollaborator(ctx, in.BoardID, in.UserID, in.Role); err != nil {
		return errorResult(err)
	}
	return jsonResult(OKResponse{OK: true})
}

func (t *tools) removeCollaborator(ctx context.Context, _ *sdkmcp.CallToolRequest, in CollaboratorRefParams) (*sdkmcp.CallToolResult, any, error) {
	if err := t.prepare(ctx, in.BoardID); err != nil {
		return errorResult(err)
	}
	if err := t.svc.Boards.RemoveCollaborator(ctx, in.BoardID, in.UserID); err != nil {
		return errorResult(err)
	}
	return jsonResult(OKResponse{OK: true})
}

func (t *tools) switchUser(ctx context.Context, _ *sdkmcp.CallToolRequest, in SwitchUserParams) (*sdkmcp.CallToolResult, any, error) {
	if in.UserID == 0 {
		if err := t.svc.Identity.Logout(); err != nil {
			return errorResult(err)
		}
		return jsonResult(SwitchUserResponse{})
	}
	sess, err := t.svc.Identity.Login(ctx, in.UserID)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(SwitchUserResponse{UserID: sess.User.ID, User: &sess.User})
}

// permissions returns a resolved record, waiting for resolution when the
// cache only holds a placeholder.
func (t *tools) permissions(ctx context.Context, boardID int64, refresh bool) permission.Record {
	if !refresh {
		if rec := t.svc.Permissions.Get(boardID); !rec.Loading {
			return rec
		}
	}
	return t.svc.Permissions.Refresh(ctx, boardID)
}

// prepare makes sure a mutation sees resolved permissions and a local
// snapshot. Tool calls arrive cold, unlike UI actions.
func (t *tools) prepare(ctx context.Context, boardID int64) error {
	t.permissions(ctx, boardID, false)
	return t.ensureLoaded(ctx, boardID)
}

func (t *tools) ensureLoaded(ctx context.Context, boardID int64) error {
	_, err := t.svc.Boards.Snapshot(boardID)
	if !errors.Is(err, mutation.ErrBoardNotLoaded) {
		return err
	}
	_, err = t.svc.Boards.Load(ctx, boardID)
	return err
}

func indexOrEnd(index *int) int {
	if index == nil {
		return math.MaxInt32
	}
	return *index
}

func jsonResult(v any) (*sdkmcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("encode result: %w", err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}

// errorResult reports a domain failure as a tool error rather than a
// protocol error, so the caller sees the code and recovery hint.
func errorResult(err error) (*sdkmcp.CallToolResult, any, error) {
	data, encErr := json.Marshal(MapError(err))
	if encErr != nil {
		return nil, nil, err
	}
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}
