// Package config collects the relay's runtime configuration from the
// environment, with an optional .env fallback file loaded without
// overwriting variables that are already set.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvListenAddr         = "HOOKCAST_ADDR"
	EnvBotToken           = "HOOKCAST_BOT_TOKEN"
	EnvHistoryDBPath      = "HOOKCAST_HISTORY_DB"
	EnvLogDir             = "HOOKCAST_LOG_DIR"
	EnvRetryAfterFallback = "HOOKCAST_RETRY_AFTER_FALLBACK"
)

// Defaults.
const (
	DefaultListenAddr         = ":8787"
	DefaultHistoryDBPath      = "data/history.db"
	DefaultRetryAfterFallback = 5 * time.Second
)

// Config is the relay's runtime configuration.
type Config struct {
	// ListenAddr is the relay's HTTP listen address.
	ListenAddr string
	// BotToken, when set, enables the channel-message prefill endpoint.
	// Webhook-scoped operations never need it.
	BotToken string
	// HistoryDBPath locates the sqlite delivery history; empty disables it.
	HistoryDBPath string
	// LogDir, when set, adds a rotated file sink to the logger.
	LogDir string
	// RetryAfterFallback is the retry hint reported for 429 responses that
	// carry no Retry-After header.
	RetryAfterFallback time.Duration
}

// Load reads configuration from the environment. When envFile names an
// existing file it is loaded first with non-overwriting semantics, so real
// environment variables always win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if info, err := os.Stat(envFile); err == nil && !info.IsDir() {
			_ = godotenv.Load(envFile)
		}
	}

	cfg := &Config{
		ListenAddr:         envOr(EnvListenAddr, DefaultListenAddr),
		BotToken:           os.Getenv(EnvBotToken),
		HistoryDBPath:      envOr(EnvHistoryDBPath, DefaultHistoryDBPath),
		LogDir:             os.Getenv(EnvLogDir),
		RetryAfterFallback: DefaultRetryAfterFallback,
	}

	if raw := os.Getenv(EnvRetryAfterFallback); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return nil, fmt.Errorf("invalid %s value %q: want a positive number of seconds", EnvRetryAfterFallback, raw)
		}
		cfg.RetryAfterFallback = time.Duration(seconds) * time.Second
	}

	return cfg, nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
