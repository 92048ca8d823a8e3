// Package config loads floorsync configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config carries everything the client core needs from its host environment.
// All variables are prefixed FLOORSYNC_.
type Config struct {
	API  APIConfig
	Data DataConfig
	Sync SyncConfig
	Log  LogConfig
}

// APIConfig addresses the backend and the push channel.
type APIConfig struct {
	BaseURL          string        `envconfig:"FLOORSYNC_API_BASE_URL" default:"http://localhost:8000"`
	WSBaseURL        string        `envconfig:"FLOORSYNC_WS_BASE_URL" default:"ws://localhost:8000"`
	RequestTimeout   time.Duration `envconfig:"FLOORSYNC_REQUEST_TIMEOUT" default:"15s"`
	HandshakeTimeout time.Duration `envconfig:"FLOORSYNC_HANDSHAKE_TIMEOUT" default:"10s"`
}

// DataConfig locates the durable client-side state.
type DataConfig struct {
	Dir string `envconfig:"FLOORSYNC_DATA_DIR" default:".floorsync"`
}

// SyncConfig tunes the background scheduler.
type SyncConfig struct {
	StatusInterval time.Duration `envconfig:"FLOORSYNC_STATUS_INTERVAL" default:"30s"`
	FlushInterval  time.Duration `envconfig:"FLOORSYNC_FLUSH_INTERVAL" default:"1m"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level  string `envconfig:"FLOORSYNC_LOG_LEVEL" default:"info"`
	Format string `envconfig:"FLOORSYNC_LOG_FORMAT" default:"json"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("FLOORSYNC", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	return &cfg, nil
}
