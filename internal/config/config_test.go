package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"KANBAN_CONFIG_PATH",
		"KANBAN_SERVER_HOST",
		"KANBAN_SERVER_PORT",
		"KANBAN_TRANSPORT",
		"KANBAN_DB_PATH",
		"KANBAN_LOG_LEVEL",
		"KANBAN_LOG_PATH",
		"KANBAN_USER_ID",
		"KANBAN_REFETCH_DELAY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, TransportStdio, cfg.Transport)
	require.Equal(t, "kanban.db", cfg.DB.Path)
	require.Equal(t, "info", cfg.Log.Level)
	require.Zero(t, cfg.Identity.UserID)
	require.Equal(t, time.Second, cfg.Sync.RefetchDelay)
}

func TestLoad_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
transport: http
db:
  path: /tmp/boards.db
identity:
  user_id: 4
sync:
  refetch_delay: 250ms
`), 0o644))
	t.Setenv("KANBAN_CONFIG_PATH", path)
	t.Setenv("KANBAN_SERVER_PORT", "9100")
	t.Setenv("KANBAN_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 9100, cfg.Server.Port, "env overrides the file")
	require.Equal(t, TransportHTTP, cfg.Transport)
	require.Equal(t, "/tmp/boards.db", cfg.DB.Path)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, int64(4), cfg.Identity.UserID)
	require.Equal(t, 250*time.Millisecond, cfg.Sync.RefetchDelay)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("KANBAN_USER_ID", "7")
	t.Setenv("KANBAN_REFETCH_DELAY", "-1s")
	t.Setenv("KANBAN_LOG_PATH", "/var/log/kanban.log")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, int64(7), cfg.Identity.UserID)
	require.Equal(t, -time.Second, cfg.Sync.RefetchDelay)
	require.Equal(t, "/var/log/kanban.log", cfg.Log.Path)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"KANBAN_SERVER_PORT", "eighty"},
		{"KANBAN_USER_ID", "me"},
		{"KANBAN_REFETCH_DELAY", "soon"},
		{"KANBAN_TRANSPORT", "carrier-pigeon"},
		{"KANBAN_CONFIG_PATH", "/does/not/exist.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}
