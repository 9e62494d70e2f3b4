package config

import (
	"time"

	"github.com/vietddude/ethmonitor/internal/core/domain"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Render   RenderConfig   `yaml:"render"`
	Server   ServerConfig   `yaml:"server"`
	Sources  []SourceConfig `yaml:"sources"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level     string `yaml:"level"`       // debug, info, warn, error
	File      string `yaml:"file"`        // empty = stderr
	MaxSizeMB int    `yaml:"max_size_mb"` // rotation size when File is set
}

// ScheduleConfig holds the probe and render cadence.
type ScheduleConfig struct {
	SettleDelay   time.Duration `yaml:"settle_delay"`
	Tick          time.Duration `yaml:"tick"`
	TicksPerCycle int           `yaml:"ticks_per_cycle"`
	StaleAfter    time.Duration `yaml:"stale_after"`
}

// RenderConfig holds dashboard settings.
type RenderConfig struct {
	Color bool `yaml:"color"`
}

// ServerConfig holds the optional status server settings.
type ServerConfig struct {
	Port int `yaml:"port"` // 0 = disabled
}

// SourceConfig describes one monitored source.
type SourceConfig struct {
	ID        domain.SourceID   `yaml:"id"`
	Label     string            `yaml:"label"`
	Type      domain.SourceKind `yaml:"type"`
	URL       string            `yaml:"url"`
	URLs      []string          `yaml:"urls"`        // sweep only
	APIKeyEnv string            `yaml:"api_key_env"` // must be set in the environment
	Timeout   time.Duration     `yaml:"timeout"`
	GasPrice  bool              `yaml:"gas_price"` // jsonrpc only
	Path      string            `yaml:"path"`      // ticker only
	Symbol    string            `yaml:"symbol"`    // ticker only
}
