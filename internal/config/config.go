package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the stockdash server.
type Config struct {
	Backend Backend `yaml:"backend"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
	Chart   Chart   `yaml:"chart"`
	Poll    Poll    `yaml:"poll"`
	Replay  Replay  `yaml:"replay"`
}

// Backend configures the upstream stock REST service.
type Backend struct {
	BaseURL        string        `yaml:"base_url"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	SyncRatePerMin int           `yaml:"sync_rate_per_min"`
	SyncBurst      int           `yaml:"sync_burst"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the listen address.
func (s Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Chart controls how chart payloads are shaped.
type Chart struct {
	Timezone    string `yaml:"timezone"`
	DayGap      string `yaml:"day_gap"`
	MAWindows   []int  `yaml:"ma_windows"`
	FiveDayDays int    `yaml:"five_day_days"`
	DailyDays   int    `yaml:"daily_days"`
}

// Poll configures the background refresh loop.
type Poll struct {
	Enabled         bool     `yaml:"enabled"`
	Schedule        string   `yaml:"schedule"`
	MarketHoursOnly bool     `yaml:"market_hours_only"`
	Codes           []string `yaml:"codes"`
	SignalLimit     int      `yaml:"signal_limit"`
}

// Replay configures capture and offline playback of upstream records.
type Replay struct {
	Dir  string `yaml:"dir"`
	Mode string `yaml:"mode"` // off, record, replay
}

// Replay modes.
const (
	ReplayOff    = "off"
	ReplayRecord = "record"
	ReplayServe  = "replay"
)

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, fills defaults, and then applies environment variable
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" && c.Replay.Mode != ReplayServe {
		return fmt.Errorf("backend.base_url is required unless replay.mode is %q", ReplayServe)
	}
	switch c.Replay.Mode {
	case ReplayOff, ReplayRecord, ReplayServe:
	default:
		return fmt.Errorf("replay.mode %q: want off, record or replay", c.Replay.Mode)
	}
	if c.Replay.Mode != ReplayOff && c.Replay.Dir == "" {
		return fmt.Errorf("replay.dir is required when replay.mode is %q", c.Replay.Mode)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	for _, n := range c.Chart.MAWindows {
		if n <= 0 {
			return fmt.Errorf("chart.ma_windows: window %d must be positive", n)
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Backend.Timeout <= 0 {
		cfg.Backend.Timeout = 10 * time.Second
	}
	if cfg.Backend.MaxRetries <= 0 {
		cfg.Backend.MaxRetries = 3
	}
	if cfg.Backend.RetryDelay <= 0 {
		cfg.Backend.RetryDelay = 200 * time.Millisecond
	}
	if cfg.Backend.SyncBurst <= 0 {
		cfg.Backend.SyncBurst = 5
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Chart.Timezone == "" {
		cfg.Chart.Timezone = "Asia/Shanghai"
	}
	if cfg.Chart.DayGap == "" {
		cfg.Chart.DayGap = "1%"
	}
	if len(cfg.Chart.MAWindows) == 0 {
		cfg.Chart.MAWindows = []int{5, 10, 20}
	}
	if cfg.Chart.FiveDayDays <= 0 {
		cfg.Chart.FiveDayDays = 7
	}
	if cfg.Chart.DailyDays <= 0 {
		cfg.Chart.DailyDays = 120
	}
	if cfg.Poll.Schedule == "" {
		cfg.Poll.Schedule = "0 * * * * *"
	}
	if cfg.Poll.SignalLimit <= 0 {
		cfg.Poll.SignalLimit = 20
	}
	if cfg.Replay.Mode == "" {
		cfg.Replay.Mode = ReplayOff
	}
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STOCKDASH_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("REPLAY_DIR"); v != "" {
		cfg.Replay.Dir = v
	}
	if v := os.Getenv("REPLAY_MODE"); v != "" {
		cfg.Replay.Mode = v
	}

	if v := os.Getenv("STOCKDASH_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}

	if v := os.Getenv("MARKET_TZ"); v != "" {
		cfg.Chart.Timezone = v
	}
}
