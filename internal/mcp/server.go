package mcp

import (
	"context"
	"log/slog"

	"github.com/rpggio/kanbansync/internal/domain/activity"
	"github.com/rpggio/kanbansync/internal/domain/board"
	"github.com/rpggio/kanbansync/internal/domain/identity"
	"github.com/rpggio/kanbansync/internal/domain/mutation"
	"github.com/rpggio/kanbansync/internal/domain/permission"
	"github.com/rpggio/kanbansync/internal/notify"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// BoardService defines the board operations needed by MCP.
type BoardService interface {
	Load(ctx context.Context, boardID int64) (*board.Board, error)
	Snapshot(boardID int64) (*board.Board, error)
	Refetch(ctx context.Context, boardID int64) error

	MoveCard(ctx context.Context, boardID, cardID, srcListID, destListID int64, destIndex int) (*board.Card, error)
	ReorderCard(ctx context.Context, boardID, cardID int64, destIndex int) (*board.Card, error)
	UpdateCard(ctx context.Context, boardID, cardID int64, patch board.CardPatch) (*board.Card, error)
	CreateCard(ctx context.Context, boardID, listID int64, card board.Card, index int) (*board.Card, error)
	DeleteCard(ctx context.Context, boardID, cardID int64) error

	CreateList(ctx context.Context, boardID int64, name string, index int) (*board.List, error)
	RenameList(ctx context.Context, boardID, listID int64, name string) (*board.List, error)
	MoveList(ctx context.Context, boardID, listID int64, destIndex int) (*board.List, error)
	DeleteList(ctx context.Context, boardID, listID int64) error

	ChangeCollaboratorRole(ctx context.Context, boardID, userID int64, role board.Role) error
	AddCollaborator(ctx context.Context, boardID, userID int64, role board.Role) error
	RemoveCollaborator(ctx context.Context, boardID, userID int64) error
}

// PermissionService defines permission lookups needed by MCP.
type PermissionService interface {
	Get(boardID int64) permission.Record
	Refresh(ctx context.Context, boardID int64) permission.Record
}

// IdentityService defines identity operations needed by MCP.
type IdentityService interface {
	Login(ctx context.Context, userID int64) (*identity.Session, error)
	Logout() error
	Current() (*identity.Session, error)
	UserID() int64
}

// SyncStatus reports in-flight operations.
type SyncStatus interface {
	Syncing() bool
	Operations() []mutation.Operation
}

// NotificationLog exposes recent user-facing notifications.
type NotificationLog interface {
	Notifications() []notify.Notification
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Boards        BoardService
	Permissions   PermissionService
	Identity      IdentityService
	Sync          SyncStatus
	Notifications NotificationLog
	Activity      ActivityService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	TransportMode string // "stdio" or "http"
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "kanbansync",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	// The first middleware runs first, so traffic logs see the acting user.
	server.AddReceivingMiddleware(
		actingUserMiddleware(cfg.Services.Identity),
		trafficLoggingMiddleware(cfg.Logger, "inbound"),
	)
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services)

	return server
}
