package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/ethmonitor/internal/core/domain"
	"github.com/vietddude/ethmonitor/internal/monitor/staleness"
)

const (
	DefaultSettleDelay   = 5 * time.Second
	DefaultTick          = 1 * time.Second
	DefaultTicksPerCycle = 10
	DefaultStaleAfter    = staleness.DefaultThreshold
	DefaultTimeout       = 10 * time.Second
)

// Load reads configuration from a YAML file, applies defaults and validates it.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes configuration from YAML bytes.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *AppConfig) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = 10
	}
	if c.Schedule.SettleDelay == 0 {
		c.Schedule.SettleDelay = DefaultSettleDelay
	}
	if c.Schedule.Tick == 0 {
		c.Schedule.Tick = DefaultTick
	}
	if c.Schedule.TicksPerCycle == 0 {
		c.Schedule.TicksPerCycle = DefaultTicksPerCycle
	}
	if c.Schedule.StaleAfter == 0 {
		c.Schedule.StaleAfter = DefaultStaleAfter
	}

	for i := range c.Sources {
		src := &c.Sources[i]
		if src.Timeout == 0 {
			src.Timeout = DefaultTimeout
		}
		if src.Label == "" {
			src.Label = strings.ToUpper(string(src.ID))
		}
	}
}

// Validate checks that every source can be turned into a probe.
func (c *AppConfig) Validate() error {
	if len(c.Sources) == 0 {
		return errors.New("no sources configured")
	}
	if c.Schedule.TicksPerCycle < 0 {
		return errors.New("schedule.ticks_per_cycle must not be negative")
	}
	if c.Schedule.SettleDelay < 0 || c.Schedule.Tick < 0 || c.Schedule.StaleAfter < 0 {
		return errors.New("schedule durations must not be negative")
	}

	seen := make(map[domain.SourceID]struct{}, len(c.Sources))
	for i, src := range c.Sources {
		if src.ID == "" {
			return fmt.Errorf("sources[%d]: id is required", i)
		}
		if _, dup := seen[src.ID]; dup {
			return fmt.Errorf("sources[%d]: duplicate id %q", i, src.ID)
		}
		seen[src.ID] = struct{}{}

		if err := src.validate(); err != nil {
			return fmt.Errorf("source %q: %w", src.ID, err)
		}
	}
	return nil
}

func (s SourceConfig) validate() error {
	// A non-positive client timeout means no timeout at all.
	if s.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}

	switch s.Type {
	case domain.KindRPC, domain.KindSupply, domain.KindPageLoad, domain.KindRelay:
		if s.URL == "" {
			return errors.New("url is required")
		}
	case domain.KindTicker:
		if s.URL == "" {
			return errors.New("url is required")
		}
		if s.Path == "" {
			return errors.New("path is required")
		}
	case domain.KindSweep:
		if len(s.URLs) == 0 {
			return errors.New("urls is required")
		}
	case "":
		return errors.New("type is required")
	default:
		return fmt.Errorf("unknown type %q", s.Type)
	}

	// Credentials are opaque; only their presence is checked.
	if s.APIKeyEnv != "" && os.Getenv(s.APIKeyEnv) == "" {
		return fmt.Errorf("%s is not set", s.APIKeyEnv)
	}
	return nil
}
