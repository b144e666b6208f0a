package middleware

import (
	"strings"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/queue-bot/internal/bot/handlers"
	"github.com/Proton-105/queue-bot/internal/bot/keyboard"
	"github.com/Proton-105/queue-bot/pkg/metrics"
)

// Metrics measures execution time and status for bot handlers, reporting them to Prometheus.
func Metrics(next handlers.Handler) handlers.Handler {
	if next == nil {
		return nil
	}

	return func(c telebot.Context) error {
		start := time.Now()
		err := next(c)

		status := "ok"
		if err != nil {
			status = "error"
		}

		metrics.RecordCommand(ActionName(c), status, time.Since(start))

		return err
	}
}

// ActionName labels an update with a bounded set of values: the callback token,
// the command name, "attachment" or "text".
func ActionName(c telebot.Context) string {
	if c == nil {
		return "unknown"
	}

	if cb := c.Callback(); cb != nil {
		if _, token, err := keyboard.DecodeCallback(cb.Data); err == nil && token != "" {
			return token
		}
		return "callback"
	}

	if msg := c.Message(); msg != nil && (msg.Photo != nil || msg.Document != nil) {
		return "attachment"
	}

	if text := c.Text(); strings.HasPrefix(text, "/") {
		cmd, _, _ := strings.Cut(text, " ")
		cmd, _, _ = strings.Cut(cmd, "@")
		return cmd
	}

	return "text"
}
