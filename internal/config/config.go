// Package config resolves all runtime settings from the environment.
//
// A .env file next to the binary is honored when present (same discovery the
// original deployment relied on); real environment variables win over it.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full resolved configuration. It is read once at startup and
// never mutated afterwards.
type Config struct {
	// DiscourseURL is the base URL of the target forum, e.g. https://forum.example.com.
	DiscourseURL string

	// TopicsFile is the batch file posted in one-shot mode.
	TopicsFile string

	HTTPTimeout time.Duration
	RatePerSec  int
	Concurrency int

	Logging LoggingConfig
	Journal JournalConfig

	// WatchDir enables daemon mode when non-empty: batch files dropped into
	// this directory are posted and archived.
	WatchDir string
	// RescanSchedule is an optional cron expression for periodic spool rescans
	// (daemon mode only).
	RescanSchedule string

	Telegram TelegramConfig
}

type LoggingConfig struct {
	Level   string
	Console bool
	File    string
}

// JournalConfig controls the durable per-attempt journal.
//
// Driver values:
//   - "file": JSON Lines files (default)
//   - "sqlite": SQLite database file (optional build tag)
//   - "none": journal disabled
type JournalConfig struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// TelegramConfig controls the optional run-summary notification.
// Disabled when Token is empty.
type TelegramConfig struct {
	Token  string
	ChatID int64
}

// Load reads the environment (after best-effort .env discovery) and validates
// the startup-critical settings. A missing or malformed DISCOURSE_URL is fatal
// here, before any submission is attempted.
func Load() (*Config, error) {
	// Best-effort: a missing .env is the normal case in production.
	_ = godotenv.Load()

	cfg := &Config{
		DiscourseURL: strings.TrimSpace(getEnv("DISCOURSE_URL", "")),
		TopicsFile:   getEnv("TOPICS_FILE", "topics.json"),
		HTTPTimeout:  getEnvDuration("HTTP_TIMEOUT", 10*time.Second),
		RatePerSec:   getEnvInt("RATE_PER_SEC", 1),
		Concurrency:  getEnvInt("CONCURRENCY", 1),
		Logging: LoggingConfig{
			Level:   getEnv("LOG_LEVEL", "info"),
			Console: getEnvBool("LOG_CONSOLE", true),
			File:    getEnv("LOG_FILE", "discourse_topics.log"),
		},
		Journal: JournalConfig{
			Driver:      getEnv("JOURNAL_DRIVER", "file"),
			Path:        getEnv("JOURNAL_PATH", "./topicherd_journal"),
			BusyTimeout: getEnvDuration("JOURNAL_BUSY_TIMEOUT", 0),
		},
		WatchDir:       strings.TrimSpace(getEnv("WATCH_DIR", "")),
		RescanSchedule: strings.TrimSpace(getEnv("RESCAN_SCHEDULE", "")),
		Telegram: TelegramConfig{
			Token:  strings.TrimSpace(getEnv("TELEGRAM_TOKEN", "")),
			ChatID: getEnvInt64("TELEGRAM_CHAT_ID", 0),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DiscourseURL == "" {
		return errors.New("DISCOURSE_URL is required")
	}
	u, err := url.Parse(c.DiscourseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("DISCOURSE_URL %q is not a valid base URL", c.DiscourseURL)
	}
	// Trailing slash would double up when joining /posts.json.
	c.DiscourseURL = strings.TrimRight(c.DiscourseURL, "/")

	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 10 * time.Second
	}
	if c.RatePerSec <= 0 {
		c.RatePerSec = 1
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.Telegram.Token != "" && c.Telegram.ChatID == 0 {
		return errors.New("TELEGRAM_TOKEN is set but TELEGRAM_CHAT_ID is missing")
	}
	return nil
}
