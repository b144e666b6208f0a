// Package logger builds the application's slog.Logger.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	slogsentry "github.com/samber/slog-sentry/v2"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Proton-105/queue-bot/pkg/config"
)

var level = new(slog.LevelVar)

// New creates a logger according to cfg: tinted text for development, JSON otherwise,
// optionally teed into a rotating file and Sentry. Sensitive attributes are masked.
func New(cfg config.Config) *slog.Logger {
	SetLevel(cfg.Logger.Level)

	var out io.Writer = os.Stdout
	if cfg.Logger.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.Logger.File,
			MaxSize:    orDefault(cfg.Logger.MaxSizeMB, 100),
			MaxBackups: orDefault(cfg.Logger.MaxBackups, 5),
			MaxAge:     orDefault(cfg.Logger.MaxAgeDays, 28),
			Compress:   true,
		})
	}

	var handler slog.Handler
	if cfg.Logger.Format == "text" || (cfg.Logger.Format == "" && cfg.IsDevelopment()) {
		handler = tint.NewHandler(out, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
			AddSource:  cfg.IsDevelopment(),
		})
	} else {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		})
	}

	if cfg.Sentry.Enabled {
		handler = &fanout{handlers: []slog.Handler{
			handler,
			slogsentry.Option{Level: slog.LevelError}.NewSentryHandler(),
		}}
	}

	return slog.New(NewMaskingHandler(handler)).With(slog.String("env", cfg.AppEnv))
}

// SetLevel changes the level of every logger built by New. Unknown values mean info.
func SetLevel(value string) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
}

func orDefault(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

// fanout hands every record to all handlers that accept its level.
type fanout struct {
	handlers []slog.Handler
}

func (f *fanout) Enabled(ctx context.Context, lvl slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, lvl) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, record slog.Record) error {
	var firstErr error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		if err := h.Handle(ctx, record.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &fanout{handlers: next}
}

func (f *fanout) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithGroup(name)
	}
	return &fanout{handlers: next}
}
