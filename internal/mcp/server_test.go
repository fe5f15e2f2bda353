package mcp_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/rpggio/kanbansync/internal/domain/activity"
	"github.com/rpggio/kanbansync/internal/domain/board"
	"github.com/rpggio/kanbansync/internal/mcp"
	"github.com/rpggio/kanbansync/internal/notify"
	"github.com/rpggio/kanbansync/internal/testserver"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func listCards(t *testing.T, b board.Board, listID int64) []string {
	t.Helper()
	li := b.ListIndex(listID)
	require.GreaterOrEqual(t, li, 0)
	titles := []string{}
	for _, c := range b.Lists[li].Cards {
		titles = append(titles, c.Title)
	}
	return titles
}

func getBoard(t *testing.T, ts *testserver.TestServer, refresh bool) board.Board {
	t.Helper()
	var b board.Board
	ts.MustCall(t, "get_board", map[string]any{"board_id": ts.Seed.BoardID, "refresh": refresh}, &b)
	return b
}

func TestGetBoard(t *testing.T) {
	ts := testserver.New(t)
	ts.LoginAs(t, ts.Seed.Viewer.ID)

	b := getBoard(t, ts, false)
	require.Equal(t, "Launch", b.Name)
	require.Equal(t, []string{"Spec", "Build"}, listCards(t, b, ts.Seed.Todo))
	require.Equal(t, []string{"Ship"}, listCards(t, b, ts.Seed.Done))
	require.Len(t, b.Labels, 1)
}

func TestGetBoard_RequiresAccess(t *testing.T) {
	ts := testserver.New(t)

	apiErr := ts.CallError(t, "get_board", map[string]any{"board_id": ts.Seed.BoardID})
	require.Equal(t, "PERMISSION_DENIED", apiErr.Code, "logged out")

	ts.LoginAs(t, ts.Seed.Outsider.ID)
	apiErr = ts.CallError(t, "get_board", map[string]any{"board_id": ts.Seed.BoardID})
	require.Equal(t, "PERMISSION_DENIED", apiErr.Code)
}

func TestGetPermissions(t *testing.T) {
	ts := testserver.New(t)
	ts.LoginAs(t, ts.Seed.Editor.ID)

	var resp mcp.PermissionsResponse
	ts.MustCall(t, "get_permissions", map[string]any{"board_id": ts.Seed.BoardID}, &resp)
	require.Equal(t, board.RoleEditor, resp.Role)
	require.True(t, resp.CanEdit)
	require.False(t, resp.CanDelete)
	require.False(t, resp.Loading)
	require.Len(t, resp.BoardUsers, 3)
	require.Equal(t, ts.Seed.Owner.ID, resp.BoardUsers[0].ID)
	require.Equal(t, board.RoleOwner, resp.BoardUsers[0].Role)
}

func TestMoveCard_Confirmed(t *testing.T) {
	ts := testserver.New(t)
	ts.LoginAs(t, ts.Seed.Editor.ID)

	var card board.Card
	ts.MustCall(t, "move_card", map[string]any{
		"board_id":     ts.Seed.BoardID,
		"card_id":      ts.Seed.Spec,
		"from_list_id": ts.Seed.Todo,
		"to_list_id":   ts.Seed.Done,
		"index":        1,
	}, &card)
	require.Equal(t, ts.Seed.Done, card.ListID)
	require.Equal(t, 2, card.Position)

	b := getBoard(t, ts, true)
	require.Equal(t, []string{"Build"}, listCards(t, b, ts.Seed.Todo))
	require.Equal(t, []string{"Ship", "Spec"}, listCards(t, b, ts.Seed.Done))

	var status mcp.SyncStatusResponse
	ts.MustCall(t, "sync_status", nil, &status)
	require.False(t, status.Syncing)
	require.Empty(t, status.Operations)
	require.NotEmpty(t, status.Notifications)
	require.Equal(t, notify.Notification{Kind: notify.Success, Message: "Card moved", At: status.Notifications[0].At}, status.Notifications[0])

	var entries []activity.Entry
	ts.MustCall(t, "recent_activity", map[string]any{"board_id": ts.Seed.BoardID}, &entries)
	require.Len(t, entries, 1)
	require.Equal(t, activity.TypeConfirmed, entries[0].Type)
	require.Equal(t, "move_card", entries[0].Operation)
	require.Equal(t, ts.Seed.Editor.ID, entries[0].UserID)
}

func TestReorderCard_AcrossListBoundary(t *testing.T) {
	ts := testserver.New(t)
	ts.LoginAs(t, ts.Seed.Owner.ID)

	// Flat order is Spec, Build, Ship. Moving Ship to the top puts it first
	// in Todo.
	ts.MustCall(t, "reorder_card", map[string]any{
		"board_id": ts.Seed.BoardID,
		"card_id":  ts.Seed.Ship,
		"index":    0,
	}, nil)

	b := getBoard(t, ts, true)
	require.Equal(t, []string{"Ship", "Spec", "Build"}, listCards(t, b, ts.Seed.Todo))
	require.Empty(t, listCards(t, b, ts.Seed.Done))
}

func TestViewerIsRefusedLocally(t *testing.T) {
	ts := testserver.New(t)
	ts.LoginAs(t, ts.Seed.Viewer.ID)

	apiErr := ts.CallError(t, "move_card", map[string]any{
		"board_id":     ts.Seed.BoardID,
		"card_id":      ts.Seed.Spec,
		"from_list_id": ts.Seed.Todo,
		"to_list_id":   ts.Seed.Done,
		"index":        0,
	})
	require.Equal(t, "PERMISSION_DENIED", apiErr.Code)

	b := getBoard(t, ts, true)
	require.Equal(t, []string{"Spec", "Build"}, listCards(t, b, ts.Seed.Todo))

	refused := activity.TypeRefused
	var entries []activity.Entry
	ts.MustCall(t, "recent_activity", map[string]any{"board_id": ts.Seed.BoardID, "type": refused}, &entries)
	require.Len(t, entries, 1)
	require.Empty(t, entries[0].Token)
}

func TestUpdateCard_StoreValidationRollsBack(t *testing.T) {
	ts := testserver.New(t)
	ts.LoginAs(t, ts.Seed.Editor.ID)

	apiErr := ts.CallError(t, "update_card", map[string]any{
		"board_id":         ts.Seed.BoardID,
		"card_id":          ts.Seed.Build,
		"title":            "Build it",
		"assigned_user_id": 999,
	})
	require.Equal(t, "VALIDATION_FAILED", apiErr.Code)
	require.Equal(t, "The selected assignee is invalid.", apiErr.Message)

	b := getBoard(t, ts, false)
	li := b.ListIndex(ts.Seed.Todo)
	require.Equal(t, "Build", b.Lists[li].Cards[1].Title, "local snapshot restored")
	require.Nil(t, b.Lists[li].Cards[1].AssigneeID)

	note, ok := ts.Notes.Last()
	require.True(t, ok)
	require.Equal(t, notify.Error, note.Kind)
	require.Equal(t, "The selected assignee is invalid.", note.Message)
}

func TestUpdateCard_InvalidInput(t *testing.T) {
	ts := testserver.New(t)
	ts.LoginAs(t, ts.Seed.Editor.ID)

	apiErr := ts.CallError(t, "update_card", map[string]any{
		"board_id": ts.Seed.BoardID,
		"card_id":  ts.Seed.Build,
		"title":    "  ",
	})
	require.Equal(t, "INVALID_INPUT", apiErr.Code)
}

func TestUnknownCard_IsStaleView(t *testing.T) {
	ts := testserver.New(t)
	ts.LoginAs(t, ts.Seed.Editor.ID)

	apiErr := ts.CallError(t, "delete_card", map[string]any{
		"board_id": ts.Seed.BoardID,
		"card_id":  9999,
	})
	require.Equal(t, "STALE_VIEW", apiErr.Code)
}

func TestCreateCardAndList(t *testing.T) {
	ts := testserver.New(t)
	ts.LoginAs(t, ts.Seed.Editor.ID)

	var list board.List
	ts.MustCall(t, "create_list", map[string]any{"board_id": ts.Seed.BoardID, "name": "Doing", "index": 1}, &list)
	require.Positive(t, list.ID)
	require.Equal(t, 2, list.Position)

	var card board.Card
	ts.MustCall(t, "create_card", map[string]any{
		"board_id":  ts.Seed.BoardID,
		"list_id":   list.ID,
		"title":     "Review",
		"label_ids": []int64{ts.Seed.Bug.ID},
	}, &card)
	require.Positive(t, card.ID, "temporary id replaced by the store's")
	require.Equal(t, []int64{ts.Seed.Bug.ID}, card.LabelIDs)

	b := getBoard(t, ts, true)
	require.Equal(t, "Doing", b.Lists[1].Name)
	require.Equal(t, []string{"Review"}, listCards(t, b, list.ID))

	ts.MustCall(t, "rename_list", map[string]any{"board_id": ts.Seed.BoardID, "list_id": list.ID, "name": "In review"}, nil)
	ts.MustCall(t, "move_list", map[string]any{"board_id": ts.Seed.BoardID, "list_id": list.ID, "index": 0}, nil)

	b = getBoard(t, ts, true)
	require.Equal(t, "In review", b.Lists[0].Name)
	require.Equal(t, 1, b.Lists[0].Position)
}

func TestDeleteList_NeedsDeleteRights(t *testing.T) {
	ts := testserver.New(t)
	ts.LoginAs(t, ts.Seed.Editor.ID)

	args := map[string]any{"board_id": ts.Seed.BoardID, "list_id": ts.Seed.Done}
	apiErr := ts.CallError(t, "delete_list", args)
	require.Equal(t, "PERMISSION_DENIED", apiErr.Code)

	ts.MustCall(t, "switch_user", map[string]any{"user_id": ts.Seed.Owner.ID}, nil)
	var resp mcp.DeletedResponse
	ts.MustCall(t, "delete_list", args, &resp)
	require.True(t, resp.Deleted)
	require.Equal(t, fmt.Sprintf("list:%d", ts.Seed.Done), resp.Entity)

	b := getBoard(t, ts, true)
	require.Len(t, b.Lists, 1)
}

func TestCollaboratorRoleChange(t *testing.T) {
	ts := testserver.New(t)
	ts.LoginAs(t, ts.Seed.Owner.ID)

	ts.MustCall(t, "change_collaborator_role", map[string]any{
		"board_id": ts.Seed.BoardID,
		"user_id":  ts.Seed.Viewer.ID,
		"role":     "editor",
	}, nil)

	ts.MustCall(t, "switch_user", map[string]any{"user_id": ts.Seed.Viewer.ID}, nil)
	var resp mcp.PermissionsResponse
	ts.MustCall(t, "get_permissions", map[string]any{"board_id": ts.Seed.BoardID}, &resp)
	require.Equal(t, board.RoleEditor, resp.Role)

	ts.MustCall(t, "update_card", map[string]any{
		"board_id": ts.Seed.BoardID,
		"card_id":  ts.Seed.Ship,
		"title":    "Ship v1",
	}, nil)
}

func TestCollaboratorAddRemove(t *testing.T) {
	ts := testserver.New(t)
	ts.LoginAs(t, ts.Seed.Owner.ID)

	ts.MustCall(t, "add_collaborator", map[string]any{
		"board_id": ts.Seed.BoardID,
		"user_id":  ts.Seed.Outsider.ID,
		"role":     "viewer",
	}, nil)
	b := getBoard(t, ts, true)
	require.Len(t, b.Collaborators, 3)

	ts.MustCall(t, "remove_collaborator", map[string]any{
		"board_id": ts.Seed.BoardID,
		"user_id":  ts.Seed.Outsider.ID,
	}, nil)
	b = getBoard(t, ts, true)
	require.Len(t, b.Collaborators, 2)

	ts.MustCall(t, "switch_user", map[string]any{"user_id": ts.Seed.Editor.ID}, nil)
	apiErr := ts.CallError(t, "remove_collaborator", map[string]any{
		"board_id": ts.Seed.BoardID,
		"user_id":  ts.Seed.Viewer.ID,
	})
	require.Equal(t, "PERMISSION_DENIED", apiErr.Code)
}

func TestSwitchUser(t *testing.T) {
	ts := testserver.New(t)

	var resp mcp.SwitchUserResponse
	ts.MustCall(t, "switch_user", map[string]any{"user_id": ts.Seed.Editor.ID}, &resp)
	require.Equal(t, ts.Seed.Editor.ID, resp.UserID)
	require.Equal(t, "Ed", resp.User.Name)
	require.Equal(t, ts.Seed.Editor.ID, ts.Permissions.UserID())

	apiErr := ts.CallError(t, "switch_user", map[string]any{"user_id": 999})
	require.Equal(t, "USER_NOT_FOUND", apiErr.Code)

	ts.MustCall(t, "switch_user", map[string]any{"user_id": 0}, &resp)
	require.Zero(t, resp.UserID)
	require.Zero(t, ts.Permissions.UserID())
}

func TestDocResources(t *testing.T) {
	ts := testserver.New(t)

	res, err := ts.Session.ReadResource(context.Background(), &sdkmcp.ReadResourceParams{URI: "kanban://docs/concepts"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	require.Contains(t, res.Contents[0].Text, "Operation tokens")
}
