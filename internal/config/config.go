// Package config loads the server configuration from TOML with
// environment overrides for deployment-sensitive values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Loop     LoopConfig     `toml:"loop"`
	Autosave AutosaveConfig `toml:"autosave"`
	Network  NetworkConfig  `toml:"network"`
	Logging  LoggingConfig  `toml:"logging"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Scenario ScenarioConfig `toml:"scenario"`
}

type LoopConfig struct {
	UncappedFPS     bool    `toml:"uncapped_fps"`
	UpdateRateMs    int     `toml:"update_rate_ms"`
	MaxBacklogMs    int     `toml:"max_backlog_ms"`
	TimeScale       float64 `toml:"time_scale"`
	CatchupMaxTicks int     `toml:"catchup_max_ticks"`
}

// StepSeconds converts the configured update rate to seconds.
func (l LoopConfig) StepSeconds() float64 {
	return float64(l.UpdateRateMs) / 1000.0
}

// MaxBacklogSeconds converts the accumulator cap to seconds.
func (l LoopConfig) MaxBacklogSeconds() float64 {
	return float64(l.MaxBacklogMs) / 1000.0
}

type AutosaveConfig struct {
	Directory       string `toml:"directory"`
	FrequencyMonths int    `toml:"frequency_months"`
	Retention       int    `toml:"retention"`
}

type NetworkConfig struct {
	ListenAddress  string `toml:"listen_address"`
	Server         bool   `toml:"server"`
	JoinURL        string `toml:"join_url"`
	WriteTimeoutMs int    `toml:"write_timeout_ms"`
}

// WriteTimeout is how long one websocket frame write may block before
// the peer is considered unreachable.
func (n NetworkConfig) WriteTimeout() time.Duration {
	return time.Duration(n.WriteTimeoutMs) * time.Millisecond
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	Pprof   bool   `toml:"pprof"`
}

type ScenarioConfig struct {
	Path   string `toml:"path"`
	Resume string `toml:"resume"`
}

// Load reads the TOML file at path over the defaults. An empty path
// returns the defaults untouched.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Loop: LoopConfig{
			UncappedFPS:     true,
			UpdateRateMs:    31,
			MaxBacklogMs:    500,
			TimeScale:       1.0,
			CatchupMaxTicks: 4,
		},
		Autosave: AutosaveConfig{
			Directory:       "autosave",
			FrequencyMonths: 1,
			Retention:       12,
		},
		Network: NetworkConfig{
			ListenAddress:  ":8080",
			Server:         true,
			WriteTimeoutMs: 10000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Scenario: ScenarioConfig{},
	}
}

func (c *Config) applyEnvOverrides() {
	if addr := os.Getenv("IRONHAUL_LISTEN_ADDR"); addr != "" {
		c.Network.ListenAddress = addr
	}
	if dir := os.Getenv("IRONHAUL_AUTOSAVE_DIR"); dir != "" {
		c.Autosave.Directory = dir
	}
	if raw := os.Getenv("IRONHAUL_PPROF"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			c.Metrics.Pprof = value
		}
	}
}

// Validate rejects values the loop cannot run with.
func (c *Config) Validate() error {
	if c.Loop.UpdateRateMs <= 0 {
		return fmt.Errorf("loop.update_rate_ms must be positive, got %d", c.Loop.UpdateRateMs)
	}
	if c.Loop.MaxBacklogMs < c.Loop.UpdateRateMs {
		return fmt.Errorf("loop.max_backlog_ms %d must be at least the update rate %d", c.Loop.MaxBacklogMs, c.Loop.UpdateRateMs)
	}
	if c.Loop.TimeScale <= 0 {
		return fmt.Errorf("loop.time_scale must be positive, got %g", c.Loop.TimeScale)
	}
	if c.Loop.CatchupMaxTicks < 1 {
		return fmt.Errorf("loop.catchup_max_ticks must be at least 1, got %d", c.Loop.CatchupMaxTicks)
	}
	if c.Autosave.FrequencyMonths < 0 {
		return fmt.Errorf("autosave.frequency_months must not be negative, got %d", c.Autosave.FrequencyMonths)
	}
	if c.Autosave.Retention < 0 {
		return fmt.Errorf("autosave.retention must not be negative, got %d", c.Autosave.Retention)
	}
	if c.Network.ListenAddress == "" && c.Network.Server {
		return fmt.Errorf("network.listen_address must be set when running as server")
	}
	if c.Network.WriteTimeoutMs < 0 {
		return fmt.Errorf("network.write_timeout_ms must not be negative, got %d", c.Network.WriteTimeoutMs)
	}
	return nil
}
