package functional_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rpggio/kanbansync/internal/domain/board"
	"github.com/rpggio/kanbansync/internal/sqlite"
	"github.com/rpggio/kanbansync/internal/testserver"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// stdioSession drives the built binary over stdio against a seeded database
// file.
type stdioSession struct {
	session *sdkmcp.ClientSession
	seed    testserver.Seed
}

func findBinary(t *testing.T) string {
	t.Helper()
	for _, path := range []string{"./bin/kanbansync", "../../bin/kanbansync"} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	t.Skip("server binary not found, build it to bin/kanbansync first")
	return ""
}

func seededDB(t *testing.T) (string, testserver.Seed) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kanban.db")
	db, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	seed := testserver.SeedDB(t, db)
	require.NoError(t, db.Close())
	return path, seed
}

func newStdioSession(t *testing.T, extraEnv ...string) *stdioSession {
	t.Helper()
	binaryPath := findBinary(t)
	dbPath, seed := seededDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	cmd := exec.CommandContext(ctx, binaryPath)
	cmd.Env = append(os.Environ(),
		"KANBAN_TRANSPORT=stdio",
		"KANBAN_DB_PATH="+dbPath,
		fmt.Sprintf("KANBAN_USER_ID=%d", seed.Editor.ID),
		"KANBAN_REFETCH_DELAY=-1ms",
	)
	cmd.Env = append(cmd.Env, extraEnv...)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &sdkmcp.CommandTransport{Command: cmd}, nil)
	if err != nil {
		cancel()
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		session.Close()
		cancel()
	})
	return &stdioSession{session: session, seed: seed}
}

func (s *stdioSession) call(t *testing.T, name string, args map[string]any) (json.RawMessage, bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if args == nil {
		args = map[string]any{}
	}
	result, err := s.session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err, "CallTool %s failed", name)
	for _, content := range result.Content {
		if text, ok := content.(*sdkmcp.TextContent); ok {
			return json.RawMessage(text.Text), result.IsError
		}
	}
	t.Fatalf("tool %s returned no text content", name)
	return nil, false
}

func (s *stdioSession) mustCall(t *testing.T, name string, args map[string]any, out any) {
	t.Helper()
	raw, isError := s.call(t, name, args)
	require.False(t, isError, "tool %s failed: %s", name, raw)
	if out != nil {
		require.NoError(t, json.Unmarshal(raw, out))
	}
}

func TestStdioFunctional_ProtocolCompliance(t *testing.T) {
	s := newStdioSession(t)

	initResult := s.session.InitializeResult()
	require.NotNil(t, initResult)
	require.Equal(t, "kanbansync", initResult.ServerInfo.Name)
	require.Equal(t, "0.1.0", initResult.ServerInfo.Version)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	tools, err := s.session.ListTools(ctx, nil)
	require.NoError(t, err)

	toolMap := make(map[string]*sdkmcp.Tool)
	for _, tool := range tools.Tools {
		toolMap[tool.Name] = tool
	}
	for _, name := range []string{"get_board", "move_card", "reorder_card", "change_collaborator_role", "switch_user"} {
		require.Contains(t, toolMap, name)
		require.NotEmpty(t, toolMap[name].Description)
	}
}

func TestStdioFunctional_ConfiguredUserMovesCard(t *testing.T) {
	s := newStdioSession(t)

	var perms struct {
		Role    board.Role `json:"user_role"`
		CanEdit bool       `json:"can_edit"`
	}
	s.mustCall(t, "get_permissions", map[string]any{"board_id": s.seed.BoardID}, &perms)
	require.Equal(t, board.RoleEditor, perms.Role)
	require.True(t, perms.CanEdit)

	s.mustCall(t, "move_card", map[string]any{
		"board_id":     s.seed.BoardID,
		"card_id":      s.seed.Build,
		"from_list_id": s.seed.Todo,
		"to_list_id":   s.seed.Done,
		"index":        0,
	}, nil)

	var b board.Board
	s.mustCall(t, "get_board", map[string]any{"board_id": s.seed.BoardID, "refresh": true}, &b)
	require.Len(t, b.Lists, 2)
	require.Len(t, b.Lists[1].Cards, 2)
	require.Equal(t, s.seed.Build, b.Lists[1].Cards[0].ID)
	require.Equal(t, s.seed.Ship, b.Lists[1].Cards[1].ID)

	raw, _ := s.call(t, "recent_activity", map[string]any{"board_id": s.seed.BoardID})
	require.Contains(t, string(raw), "move_card")
}

func TestStdioFunctional_SwitchUserDropsRights(t *testing.T) {
	s := newStdioSession(t)

	s.mustCall(t, "switch_user", map[string]any{"user_id": s.seed.Viewer.ID}, nil)

	raw, isError := s.call(t, "delete_card", map[string]any{
		"board_id": s.seed.BoardID,
		"card_id":  s.seed.Spec,
	})
	require.True(t, isError)
	require.Contains(t, string(raw), "PERMISSION_DENIED")
}

func TestStdioFunctional_LogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "kanbansync.log")
	s := newStdioSession(t,
		"KANBAN_LOG_PATH="+logPath,
		"KANBAN_LOG_LEVEL=debug",
	)

	s.mustCall(t, "sync_status", nil, nil)

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(logPath)
		if err != nil {
			return false
		}
		text := string(data)
		return strings.Contains(text, `msg="mcp traffic"`) &&
			strings.Contains(text, "stage=request") &&
			strings.Contains(text, "stage=response")
	}, 5*time.Second, 100*time.Millisecond)
}

func TestStdioFunctional_DocumentationResources(t *testing.T) {
	s := newStdioSession(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resources, err := s.session.ListResources(ctx, nil)
	require.NoError(t, err)
	uris := make(map[string]*sdkmcp.Resource, len(resources.Resources))
	for _, r := range resources.Resources {
		uris[r.URI] = r
	}
	for _, uri := range []string{"kanban://docs/concepts", "kanban://docs/ordering"} {
		r, ok := uris[uri]
		require.True(t, ok, "missing doc resource %s", uri)
		require.Equal(t, "text/markdown", r.MIMEType)
	}

	read, err := s.session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "kanban://docs/ordering"})
	require.NoError(t, err)
	require.NotEmpty(t, read.Contents)
	require.NotEmpty(t, read.Contents[0].Text)
}
