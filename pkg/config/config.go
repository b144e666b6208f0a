package config

import (
	"fmt"
	"time"

	appredis "github.com/Proton-105/queue-bot/pkg/redis"
)

// Config holds runtime configuration for the queue bot.
type Config struct {
	AppEnv    string          `mapstructure:"app_env"`
	Bot       BotConfig       `mapstructure:"bot"`
	Server    ServerConfig    `mapstructure:"server"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Sentry    SentryConfig    `mapstructure:"sentry"`
	Redis     appredis.Config `mapstructure:"redis"`
	Database  DatabaseConfig  `mapstructure:"database"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	State     StateConfig     `mapstructure:"state"`
	Waitlist  WaitlistConfig  `mapstructure:"waitlist"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	I18n      I18nConfig      `mapstructure:"i18n"`
	Jobs      JobsConfig      `mapstructure:"jobs"`
}

// BotConfig configures the Telegram transport.
type BotConfig struct {
	Token      string        `mapstructure:"token" validate:"required"`
	Mode       string        `mapstructure:"mode" validate:"oneof=polling webhook"`
	Timeout    time.Duration `mapstructure:"timeout"`
	WebhookURL string        `mapstructure:"webhook_url" validate:"required_if=Mode webhook"`
	Listen     string        `mapstructure:"listen"`
}

// ServerConfig configures the operational HTTP server (metrics, health).
type ServerConfig struct {
	Port            string        `mapstructure:"port" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggerConfig configures slog output.
type LoggerConfig struct {
	Level      string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"omitempty,oneof=json text"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// SentryConfig toggles error reporting.
type SentryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn" validate:"required_if=Enabled true"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host          string `mapstructure:"host" validate:"required"`
	Port          string `mapstructure:"port" validate:"required"`
	User          string `mapstructure:"user" validate:"required"`
	Password      string `mapstructure:"password"`
	Name          string `mapstructure:"name" validate:"required"`
	SSLMode       string `mapstructure:"sslmode"`
	MigrationsDir string `mapstructure:"migrations_dir"`
}

// RateLimitRule is a limit per sliding window, e.g. {limit: 20, window: "1m"}.
type RateLimitRule struct {
	Limit  int    `mapstructure:"limit"`
	Window string `mapstructure:"window"`
}

// RateLimitConfig lists the per-user and per-action limits.
type RateLimitConfig struct {
	Enabled   bool                     `mapstructure:"enabled"`
	PerUser   RateLimitRule            `mapstructure:"per_user"`
	Actions   map[string]RateLimitRule `mapstructure:"actions"`
	Whitelist []int64                  `mapstructure:"whitelist"`
}

// StateConfig tunes conversation context storage and per-user serialization.
type StateConfig struct {
	TTL      time.Duration `mapstructure:"ttl"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
	LockWait time.Duration `mapstructure:"lock_wait"`
}

// WaitlistConfig tunes optimistic waitlist transactions.
type WaitlistConfig struct {
	MaxConflictRetries int `mapstructure:"max_conflict_retries" validate:"gte=0"`
}

// NotifyConfig tunes outbound delivery.
type NotifyConfig struct {
	Concurrency   int     `mapstructure:"concurrency" validate:"gte=0"`
	RatePerSecond float64 `mapstructure:"rate_per_second" validate:"gte=0"`
	Burst         int     `mapstructure:"burst" validate:"gte=0"`
}

// I18nConfig selects the copy catalog.
type I18nConfig struct {
	DefaultLang string `mapstructure:"default_lang"`
	Dir         string `mapstructure:"dir"`
}

// JobsConfig configures asynq background processing.
type JobsConfig struct {
	Concurrency int    `mapstructure:"concurrency"`
	SweepCron   string `mapstructure:"sweep_cron"`
}

// GetDBConnectionString returns PostgreSQL DSN based on config values.
func (c *Config) GetDBConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		sslMode,
	)
}

// IsDevelopment reports whether the bot runs in a local environment.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development" || c.AppEnv == "local"
}

func applyDefaults(cfg *Config) {
	if cfg.Bot.Mode == "" {
		cfg.Bot.Mode = "polling"
	}
	if cfg.Bot.Timeout == 0 {
		cfg.Bot.Timeout = 10 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 15 * time.Second
	}
	if cfg.State.TTL == 0 {
		cfg.State.TTL = time.Hour
	}
	if cfg.State.LockTTL == 0 {
		cfg.State.LockTTL = 10 * time.Second
	}
	if cfg.State.LockWait == 0 {
		cfg.State.LockWait = 5 * time.Second
	}
	if cfg.Waitlist.MaxConflictRetries == 0 {
		cfg.Waitlist.MaxConflictRetries = 10
	}
	if cfg.Notify.Concurrency == 0 {
		cfg.Notify.Concurrency = 16
	}
	if cfg.Notify.RatePerSecond == 0 {
		cfg.Notify.RatePerSecond = 25
	}
	if cfg.Notify.Burst == 0 {
		cfg.Notify.Burst = 5
	}
	if cfg.I18n.DefaultLang == "" {
		cfg.I18n.DefaultLang = "en"
	}
	if cfg.Jobs.Concurrency == 0 {
		cfg.Jobs.Concurrency = 5
	}
	if cfg.Jobs.SweepCron == "" {
		cfg.Jobs.SweepCron = "*/10 * * * *"
	}
	if cfg.Database.MigrationsDir == "" {
		cfg.Database.MigrationsDir = "migrations"
	}
}
