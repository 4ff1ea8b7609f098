package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Mode selects how the orchestrator runs.
type Mode string

const (
	ModeLoop Mode = "loop"
	ModeOnce Mode = "once"
)

// Config holds all application configuration.
type Config struct {
	Feed struct {
		URL              string        `yaml:"url" toml:"url"`
		SilverCode       string        `yaml:"silver_code" toml:"silver_code"`
		GoldCode         string        `yaml:"gold_code" toml:"gold_code"`
		Field            string        `yaml:"field" toml:"field"`
		Timeout          time.Duration `yaml:"timeout" toml:"timeout"`
		MaxAttempts      int           `yaml:"max_attempts" toml:"max_attempts"`
		BackoffBase      time.Duration `yaml:"backoff_base" toml:"backoff_base"`
		RetryStatuses    []int         `yaml:"retry_statuses" toml:"retry_statuses"`
		InsecureFallback bool          `yaml:"insecure_fallback" toml:"insecure_fallback"`
		UserAgent        string        `yaml:"user_agent" toml:"user_agent"`
	} `yaml:"feed" toml:"feed"`
	Schedule struct {
		Mode       Mode          `yaml:"mode" toml:"mode"`
		Interval   time.Duration `yaml:"interval" toml:"interval"`
		RunOnStart bool          `yaml:"run_on_start" toml:"run_on_start"`
	} `yaml:"schedule" toml:"schedule"`
	History struct {
		Capacity  int    `yaml:"capacity" toml:"capacity"`
		StateFile string `yaml:"state_file" toml:"state_file"`
	} `yaml:"history" toml:"history"`
	Signal struct {
		EMAFast       int     `yaml:"ema_fast" toml:"ema_fast"`
		EMASlow       int     `yaml:"ema_slow" toml:"ema_slow"`
		RSIPeriod     int     `yaml:"rsi_period" toml:"rsi_period"`
		RSIOverbought float64 `yaml:"rsi_overbought" toml:"rsi_overbought"`
		MinSamples    int     `yaml:"min_samples" toml:"min_samples"`
		MinValidRows  int     `yaml:"min_valid_rows" toml:"min_valid_rows"`
		Epsilon       float64 `yaml:"epsilon" toml:"epsilon"`
	} `yaml:"signal" toml:"signal"`
	Log struct {
		Level  string `yaml:"level" toml:"level"`
		Format string `yaml:"format" toml:"format"`
	} `yaml:"log" toml:"log"`
	Metrics struct {
		Addr string `yaml:"addr" toml:"addr"`
	} `yaml:"metrics" toml:"metrics"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path" toml:"sqlite_path"`
	} `yaml:"database" toml:"database"`
	Redis struct {
		Addr       string        `yaml:"addr" toml:"addr"`
		Password   string        `yaml:"password" toml:"password"`
		DB         int           `yaml:"db" toml:"db"`
		TLSEnabled bool          `yaml:"tls_enabled" toml:"tls_enabled"`
		TTL        time.Duration `yaml:"ttl" toml:"ttl"`
		KeyPrefix  string        `yaml:"key_prefix" toml:"key_prefix"`
	} `yaml:"redis" toml:"redis"`
	Proxy string `yaml:"proxy" toml:"proxy"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	var cfg Config
	cfg.Feed.URL = "https://finans.truncgil.com/v4/today.json"
	cfg.Feed.SilverCode = "GUMUS"
	cfg.Feed.GoldCode = "GRA"
	cfg.Feed.Field = "Selling"
	cfg.Feed.Timeout = 10 * time.Second
	cfg.Feed.MaxAttempts = 5
	cfg.Feed.BackoffBase = time.Second
	cfg.Feed.RetryStatuses = []int{500, 502, 503, 504, 522, 524}
	cfg.Feed.InsecureFallback = true
	cfg.Feed.UserAgent = "BullionSentinel/1.0"

	cfg.Schedule.Mode = ModeLoop
	cfg.Schedule.Interval = 10 * time.Second
	cfg.Schedule.RunOnStart = true

	cfg.History.Capacity = 200

	cfg.Signal.EMAFast = 20
	cfg.Signal.EMASlow = 50
	cfg.Signal.RSIPeriod = 14
	cfg.Signal.RSIOverbought = 70
	cfg.Signal.MinSamples = 60
	cfg.Signal.MinValidRows = 2
	cfg.Signal.Epsilon = 1e-9

	cfg.Log.Level = "info"
	cfg.Log.Format = "console"

	cfg.Redis.KeyPrefix = "bullion"
	return cfg
}

// Load reads config from a YAML (or .toml) file on top of the defaults, then
// applies .env and environment variable overrides. A missing file is not an
// error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if strings.EqualFold(filepath.Ext(path), ".toml") {
			if _, err := toml.Decode(string(data), &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Schedule.Mode {
	case ModeLoop, ModeOnce:
	default:
		return fmt.Errorf("schedule.mode must be %q or %q, got %q", ModeLoop, ModeOnce, c.Schedule.Mode)
	}
	if c.Schedule.Mode == ModeLoop && c.Schedule.Interval <= 0 {
		return fmt.Errorf("schedule.interval must be positive")
	}
	if c.Feed.URL == "" {
		return fmt.Errorf("feed.url is required")
	}
	if c.Feed.SilverCode == "" || c.Feed.GoldCode == "" || c.Feed.Field == "" {
		return fmt.Errorf("feed.silver_code, feed.gold_code and feed.field are required")
	}
	if c.Feed.Timeout <= 0 {
		return fmt.Errorf("feed.timeout must be positive")
	}
	if c.Feed.MaxAttempts <= 0 {
		return fmt.Errorf("feed.max_attempts must be positive")
	}
	if c.Feed.BackoffBase < 0 {
		return fmt.Errorf("feed.backoff_base must not be negative")
	}
	if c.History.Capacity <= 0 {
		return fmt.Errorf("history.capacity must be positive")
	}
	if c.Signal.EMAFast <= 0 || c.Signal.EMASlow <= 0 {
		return fmt.Errorf("signal EMA spans must be positive")
	}
	if c.Signal.EMAFast >= c.Signal.EMASlow {
		return fmt.Errorf("signal.ema_fast (%d) must be below signal.ema_slow (%d)", c.Signal.EMAFast, c.Signal.EMASlow)
	}
	if c.Signal.RSIPeriod < 1 {
		return fmt.Errorf("signal.rsi_period must be at least 1")
	}
	if c.Signal.RSIOverbought <= 0 || c.Signal.RSIOverbought >= 100 {
		return fmt.Errorf("signal.rsi_overbought must be within (0,100)")
	}
	if c.Signal.MinValidRows < 2 {
		return fmt.Errorf("signal.min_valid_rows must be at least 2")
	}
	if c.Signal.Epsilon < 0 {
		return fmt.Errorf("signal.epsilon must not be negative")
	}
	if c.Signal.MinSamples < 0 {
		return fmt.Errorf("signal.min_samples must not be negative")
	}
	if c.History.Capacity < c.Signal.MinSamples {
		return fmt.Errorf("history.capacity (%d) is below signal.min_samples (%d); no signal could ever fire",
			c.History.Capacity, c.Signal.MinSamples)
	}
	if c.History.Capacity < c.Signal.RSIPeriod+c.Signal.MinValidRows {
		return fmt.Errorf("history.capacity (%d) cannot hold %d valid rows after the RSI warm-up",
			c.History.Capacity, c.Signal.MinValidRows)
	}
	return nil
}
