package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rpggio/kanbansync/internal/config"
	"github.com/rpggio/kanbansync/internal/domain/activity"
	"github.com/rpggio/kanbansync/internal/domain/identity"
	"github.com/rpggio/kanbansync/internal/domain/mutation"
	"github.com/rpggio/kanbansync/internal/domain/permission"
	"github.com/rpggio/kanbansync/internal/mcp"
	"github.com/rpggio/kanbansync/internal/notify"
	"github.com/rpggio/kanbansync/internal/sqlite"
	"github.com/rpggio/kanbansync/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	// Use stderr for logs in stdio mode to keep stdout clean for JSON-RPC.
	logWriter := io.Writer(os.Stdout)
	if cfg.Transport == config.TransportStdio {
		logWriter = os.Stderr
	}
	if cfg.Log.Path != "" {
		fileWriter, err := newLogFileWriter(cfg.Log.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log file error: %v\n", err)
		} else {
			defer fileWriter.Close()
			logWriter = fileWriter
		}
	}
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	if err := ensureDBDir(cfg.DB.Path); err != nil {
		return fmt.Errorf("prepare database path: %w", err)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		return err
	}

	userRepo := sqlite.NewUserRepository(db)
	boardRepo := sqlite.NewBoardRepository(db)

	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), logger)
	perms := permission.NewCache(boardRepo, userRepo, logger)
	defer perms.Close()
	identitySvc := identity.NewService(userRepo, logger, perms)
	notes := notify.NewRecorder(100, notify.NewLogger(logger))

	mutations := mutation.NewService(mutation.Dependencies{
		Boards:        boardRepo,
		Cards:         sqlite.NewCardRepository(db),
		Lists:         sqlite.NewListRepository(db),
		Collaborators: sqlite.NewCollaboratorRepository(db),
		Permissions:   perms,
		Activity:      activitySvc,
		Notifier:      notes,
	}, mutation.Options{RefetchDelay: cfg.Sync.RefetchDelay}, logger)
	defer mutations.Close()

	if cfg.Identity.UserID != 0 {
		if err := loginAndWarm(context.Background(), logger, identitySvc, boardRepo, perms, cfg.Identity.UserID); err != nil {
			return err
		}
	}

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Boards:        mutations,
			Permissions:   perms,
			Identity:      identitySvc,
			Sync:          mutations.Tracker(),
			Notifications: notes,
			Activity:      activitySvc,
		},
		TransportMode: cfg.Transport,
		Logger:        logger,
	})

	if cfg.Transport == config.TransportStdio {
		return runStdioMode(logger, mcpServer)
	}
	return runHTTPMode(logger, mcpServer, cfg.Server.Host, cfg.Server.Port)
}

// loginAndWarm logs in the configured user and resolves permissions for the
// boards they can see, so the first tool calls find them cached.
func loginAndWarm(ctx context.Context, logger *slog.Logger, ident *identity.Service, boards *sqlite.BoardRepository, perms *permission.Cache, userID int64) error {
	sess, err := ident.Login(ctx, userID)
	if err != nil {
		return fmt.Errorf("login user %d: %w", userID, err)
	}
	visible, err := boards.ListBoards(ctx, userID)
	if err != nil {
		logger.Warn("could not list boards to preload permissions", "error", err)
		return nil
	}
	ids := make([]int64, 0, len(visible))
	for _, b := range visible {
		ids = append(ids, b.ID)
	}
	if err := perms.Preload(ctx, ids); err != nil {
		logger.Warn("permission preload incomplete", "error", err)
	}
	logger.Info("logged in", "user_id", sess.User.ID, "boards", len(ids))
	return nil
}

func runStdioMode(logger *slog.Logger, mcpServer *sdkmcp.Server) error {
	logger.Info("starting stdio transport")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Run blocks until stdin closes or a signal arrives.
	if err := mcpServer.Run(ctx, &sdkmcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server: %w", err)
	}
	logger.Info("shutting down")
	return nil
}

func runHTTPMode(logger *slog.Logger, mcpServer *sdkmcp.Server, host string, port int) error {
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(r *http.Request) *sdkmcp.Server { return mcpServer },
		&sdkmcp.StreamableHTTPOptions{
			Stateless:      false,
			SessionTimeout: 30 * time.Minute,
		},
	)

	router := transport.NewRouter(mcpHandler, logger)

	addr := fmt.Sprintf("%s:%d", host, port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	return waitForShutdown(logger, httpServer, errCh)
}

func waitForShutdown(logger *slog.Logger, server *http.Server, errCh <-chan error) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
