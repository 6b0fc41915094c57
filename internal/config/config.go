// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
)

// Config holds configuration for the sync daemon, the CLI and the dev
// record-store service. Environment variables use the REELFOCUS_ prefix,
// e.g. REELFOCUS_REMOTE_URL, REELFOCUS_DATA_DIR.
type Config struct {
	// UserID identifies the signed-in user. Sync is skipped while empty.
	UserID string `envconfig:"USER_ID" default:""`

	// DisplayName used when the profile is created lazily on first run.
	DisplayName string `envconfig:"DISPLAY_NAME" default:""`

	// DataDir holds the local sqlite databases.
	DataDir string `envconfig:"DATA_DIR" default:".reelfocus"`

	// LocalDBPath and PendingDBPath are derived from DataDir when empty.
	LocalDBPath   string `envconfig:"LOCAL_DB_PATH" default:""`
	PendingDBPath string `envconfig:"PENDING_DB_PATH" default:""`

	// RemoteURL is the base URL of the record-store service.
	RemoteURL string `envconfig:"REMOTE_URL" default:"http://localhost:8080"`

	// Sync pacing.
	SyncInterval   string `envconfig:"SYNC_INTERVAL" default:"5m"`
	ProbeInterval  string `envconfig:"PROBE_INTERVAL" default:"15s"`
	RequestTimeout string `envconfig:"REQUEST_TIMEOUT" default:"15s"`

	// MetricsPort serves prometheus metrics from the sync daemon. 0 disables.
	MetricsPort int `envconfig:"METRICS_PORT" default:"0"`

	// Record-store service settings (cmd/reelfocus-recordstore).
	HTTPPort     int    `envconfig:"HTTP_PORT" default:"8080"`
	DBDriver     string `envconfig:"DB_DRIVER" default:"auto"`
	PostgresDSN  string `envconfig:"POSTGRES_DSN" default:""`
	RecordDBPath string `envconfig:"RECORD_DB_PATH" default:""`
}

// ResolveDefaults derives file paths from DataDir and validates the
// record-store driver choice.
func (c *Config) ResolveDefaults() error {
	if c.LocalDBPath == "" {
		c.LocalDBPath = filepath.Join(c.DataDir, "local.db")
	}
	if c.PendingDBPath == "" {
		c.PendingDBPath = filepath.Join(c.DataDir, "pending.db")
	}
	if c.RecordDBPath == "" {
		c.RecordDBPath = filepath.Join(c.DataDir, "records.db")
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		if c.PostgresDSN != "" {
			c.DBDriver = "postgres"
		} else {
			c.DBDriver = "sqlite"
		}
	}
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DBDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("DB_DRIVER=postgres requires POSTGRES_DSN")
	}
	return nil
}

// New creates a Config by parsing REELFOCUS_-prefixed environment variables.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("REELFOCUS", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
