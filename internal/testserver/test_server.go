// Package testserver wires a complete kanbansync stack over an in-memory
// SQLite store, seeds it with a small board and connects an MCP client to it.
package testserver

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rpggio/kanbansync/internal/domain/activity"
	"github.com/rpggio/kanbansync/internal/domain/board"
	"github.com/rpggio/kanbansync/internal/domain/identity"
	"github.com/rpggio/kanbansync/internal/domain/mutation"
	"github.com/rpggio/kanbansync/internal/domain/permission"
	"github.com/rpggio/kanbansync/internal/mcp"
	"github.com/rpggio/kanbansync/internal/notify"
	"github.com/rpggio/kanbansync/internal/sqlite"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// Seed holds the ids of the seeded data. The board is owned by Owner, with
// Editor and Viewer as collaborators; Outsider has no access.
//
//	Todo: [Spec, Build]
//	Done: [Ship]
type Seed struct {
	Owner, Editor, Viewer, Outsider board.User
	BoardID                         int64
	Todo, Done                      int64
	Spec, Build, Ship               int64
	Bug                             board.Label
}

type TestServer struct {
	DB          *sqlite.DB
	Seed        Seed
	Identity    *identity.Service
	Permissions *permission.Cache
	Mutations   *mutation.Service
	Notes       *notify.Recorder
	Server      *sdkmcp.Server
	Session     *sdkmcp.ClientSession
}

// New builds the stack and connects a client. The acting user starts logged
// out.
func New(t *testing.T) *TestServer {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	users := sqlite.NewUserRepository(db)
	boards := sqlite.NewBoardRepository(db)
	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), nil)

	perms := permission.NewCache(boards, users, nil)
	ident := identity.NewService(users, nil, perms)
	notes := notify.NewRecorder(50, nil)
	mutations := mutation.NewService(mutation.Dependencies{
		Boards:        boards,
		Cards:         sqlite.NewCardRepository(db),
		Lists:         sqlite.NewListRepository(db),
		Collaborators: sqlite.NewCollaboratorRepository(db),
		Permissions:   perms,
		Activity:      activitySvc,
		Notifier:      notes,
	}, mutation.Options{RefetchDelay: -1}, nil)

	server := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Boards:        mutations,
			Permissions:   perms,
			Identity:      ident,
			Sync:          mutations.Tracker(),
			Notifications: notes,
			Activity:      activitySvc,
		},
		TransportMode: "stdio",
	})

	ts := &TestServer{
		DB:          db,
		Seed:        SeedDB(t, db),
		Identity:    ident,
		Permissions: perms,
		Mutations:   mutations,
		Notes:       notes,
		Server:      server,
	}

	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	ts.Session, err = client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = ts.Session.Close()
		_ = serverSession.Wait()
		mutations.Close()
		perms.Close()
		_ = db.Close()
	})

	return ts
}

// LoginAs switches the acting user.
func (ts *TestServer) LoginAs(t *testing.T, userID int64) {
	t.Helper()
	_, err := ts.Identity.Login(context.Background(), userID)
	require.NoError(t, err)
}

// CallTool calls a tool and returns its JSON text and whether it reported an
// error.
func (ts *TestServer) CallTool(t *testing.T, name string, args map[string]any) (json.RawMessage, bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if args == nil {
		args = map[string]any{}
	}
	result, err := ts.Session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err, "CallTool %s failed", name)
	require.NotEmpty(t, result.Content, "tool %s returned no content", name)

	for _, content := range result.Content {
		if text, ok := content.(*sdkmcp.TextContent); ok {
			return json.RawMessage(text.Text), result.IsError
		}
	}
	t.Fatalf("tool %s returned no text content", name)
	return nil, false
}

// MustCall calls a tool that is expected to succeed and decodes its result.
func (ts *TestServer) MustCall(t *testing.T, name string, args map[string]any, out any) {
	t.Helper()
	raw, isError := ts.CallTool(t, name, args)
	require.False(t, isError, "tool %s failed: %s", name, raw)
	if out != nil {
		require.NoError(t, json.Unmarshal(raw, out))
	}
}

// CallError calls a tool that is expected to fail and returns the error.
func (ts *TestServer) CallError(t *testing.T, name string, args map[string]any) mcp.APIError {
	t.Helper()
	raw, isError := ts.CallTool(t, name, args)
	require.True(t, isError, "tool %s unexpectedly succeeded: %s", name, raw)
	var apiErr mcp.APIError
	require.NoError(t, json.Unmarshal(raw, &apiErr))
	return apiErr
}

// SeedDB writes the seed board into db.
func SeedDB(t *testing.T, db *sqlite.DB) Seed {
	t.Helper()
	ctx := context.Background()
	users := sqlite.NewUserRepository(db)
	boards := sqlite.NewBoardRepository(db)
	lists := sqlite.NewListRepository(db)
	cards := sqlite.NewCardRepository(db)
	collabs := sqlite.NewCollaboratorRepository(db)

	s := Seed{
		Owner:    board.User{Name: "Olive", Email: "olive@example.com"},
		Editor:   board.User{Name: "Ed", Email: "ed@example.com"},
		Viewer:   board.User{Name: "Vi", Email: "vi@example.com"},
		Outsider: board.User{Name: "Otto", Email: "otto@example.com"},
	}
	for _, u := range []*board.User{&s.Owner, &s.Editor, &s.Viewer, &s.Outsider} {
		require.NoError(t, users.CreateUser(ctx, u))
	}

	b := board.Board{Name: "Launch", OwnerID: s.Owner.ID}
	require.NoError(t, boards.CreateBoard(ctx, &b))
	s.BoardID = b.ID
	require.NoError(t, collabs.AddCollaborator(ctx, b.ID, s.Editor.ID, board.RoleEditor))
	require.NoError(t, collabs.AddCollaborator(ctx, b.ID, s.Viewer.ID, board.RoleViewer))

	s.Bug = board.Label{Name: "bug", Color: "red"}
	require.NoError(t, boards.CreateLabel(ctx, b.ID, &s.Bug))

	newList := func(name string) int64 {
		l, err := lists.CreateList(ctx, b.ID, board.ListPatch{Name: &name})
		require.NoError(t, err)
		return l.ID
	}
	s.Todo = newList("Todo")
	s.Done = newList("Done")

	newCard := func(listID int64, title string) int64 {
		c, err := cards.CreateCard(ctx, listID, board.Card{Title: title})
		require.NoError(t, err)
		return c.ID
	}
	s.Spec = newCard(s.Todo, "Spec")
	s.Build = newCard(s.Todo, "Build")
	s.Ship = newCard(s.Done, "Ship")
	return s
}
