package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// applyEnvOverrides reads SENTINEL_* environment variables and overwrites the
// corresponding fields when a variable is set.
func applyEnvOverrides(cfg *Config) {
	// Feed
	setStr(&cfg.Feed.URL, "SENTINEL_FEED_URL")
	setStr(&cfg.Feed.SilverCode, "SENTINEL_FEED_SILVER_CODE")
	setStr(&cfg.Feed.GoldCode, "SENTINEL_FEED_GOLD_CODE")
	setStr(&cfg.Feed.Field, "SENTINEL_FEED_FIELD")
	setDuration(&cfg.Feed.Timeout, "SENTINEL_FEED_TIMEOUT")
	setInt(&cfg.Feed.MaxAttempts, "SENTINEL_FEED_MAX_ATTEMPTS")
	setDuration(&cfg.Feed.BackoffBase, "SENTINEL_FEED_BACKOFF_BASE")
	setIntList(&cfg.Feed.RetryStatuses, "SENTINEL_FEED_RETRY_STATUSES")
	setBool(&cfg.Feed.InsecureFallback, "SENTINEL_FEED_INSECURE_FALLBACK")
	setStr(&cfg.Feed.UserAgent, "SENTINEL_FEED_USER_AGENT")

	// Schedule
	if v := os.Getenv("SENTINEL_MODE"); v != "" {
		cfg.Schedule.Mode = Mode(strings.ToLower(strings.TrimSpace(v)))
	}
	setDuration(&cfg.Schedule.Interval, "SENTINEL_INTERVAL")
	setBool(&cfg.Schedule.RunOnStart, "SENTINEL_RUN_ON_START")

	// History
	setInt(&cfg.History.Capacity, "SENTINEL_HISTORY_CAPACITY")
	setStr(&cfg.History.StateFile, "SENTINEL_HISTORY_STATE_FILE")

	// Signal
	setInt(&cfg.Signal.EMAFast, "SENTINEL_EMA_FAST")
	setInt(&cfg.Signal.EMASlow, "SENTINEL_EMA_SLOW")
	setInt(&cfg.Signal.RSIPeriod, "SENTINEL_RSI_PERIOD")
	setFloat64(&cfg.Signal.RSIOverbought, "SENTINEL_RSI_OVERBOUGHT")
	setInt(&cfg.Signal.MinSamples, "SENTINEL_MIN_SAMPLES")
	setInt(&cfg.Signal.MinValidRows, "SENTINEL_MIN_VALID_ROWS")
	setFloat64(&cfg.Signal.Epsilon, "SENTINEL_EPSILON")

	// Outputs
	setStr(&cfg.Log.Level, "SENTINEL_LOG_LEVEL")
	setStr(&cfg.Log.Format, "SENTINEL_LOG_FORMAT")
	setStr(&cfg.Metrics.Addr, "SENTINEL_METRICS_ADDR")
	setStr(&cfg.Database.SQLitePath, "SENTINEL_SQLITE_PATH")
	setStr(&cfg.Redis.Addr, "SENTINEL_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "SENTINEL_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "SENTINEL_REDIS_DB")
	setBool(&cfg.Redis.TLSEnabled, "SENTINEL_REDIS_TLS_ENABLED")
	setDuration(&cfg.Redis.TTL, "SENTINEL_REDIS_TTL")
	setStr(&cfg.Redis.KeyPrefix, "SENTINEL_REDIS_KEY_PREFIX")

	setStr(&cfg.Proxy, "HTTPS_PROXY")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			*dst = d
		}
	}
}

func setIntList(dst *[]int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []int
	for _, part := range strings.Split(v, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return
		}
		out = append(out, n)
	}
	*dst = out
}
