package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig   `yaml:"server"`
	Transport string         `yaml:"transport"`
	DB        DBConfig       `yaml:"db"`
	Log       LogConfig      `yaml:"log"`
	Identity  IdentityConfig `yaml:"identity"`
	Sync      SyncConfig     `yaml:"sync"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// Path, when set, mirrors logs to a size-capped file.
	Path string `yaml:"path"`
}

// IdentityConfig selects the user the server acts as at startup. Zero
// starts logged out.
type IdentityConfig struct {
	UserID int64 `yaml:"user_id"`
}

type SyncConfig struct {
	// RefetchDelay debounces the background refetch after a confirmed
	// mutation. Negative disables it.
	RefetchDelay time.Duration `yaml:"refetch_delay"`
}

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportStdio,
		DB: DBConfig{
			Path: "kanban.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Sync: SyncConfig{
			RefetchDelay: time.Second,
		},
	}

	if path := os.Getenv("KANBAN_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("KANBAN_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("KANBAN_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid KANBAN_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if transport := os.Getenv("KANBAN_TRANSPORT"); transport != "" {
		cfg.Transport = transport
	}
	if dbPath := os.Getenv("KANBAN_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("KANBAN_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("KANBAN_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if userStr := os.Getenv("KANBAN_USER_ID"); userStr != "" {
		userID, err := strconv.ParseInt(userStr, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid KANBAN_USER_ID: %w", err)
		}
		cfg.Identity.UserID = userID
	}
	if delayStr := os.Getenv("KANBAN_REFETCH_DELAY"); delayStr != "" {
		delay, err := time.ParseDuration(delayStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid KANBAN_REFETCH_DELAY: %w", err)
		}
		cfg.Sync.RefetchDelay = delay
	}

	switch cfg.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return Config{}, fmt.Errorf("invalid transport %q: must be %s or %s", cfg.Transport, TransportStdio, TransportHTTP)
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
