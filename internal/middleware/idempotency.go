package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/queue-bot/internal/bot/handlers"
	"github.com/Proton-105/queue-bot/internal/idempotency"
)

const updateTTL = 24 * time.Hour

// Idempotency ensures handlers execute at most once per Telegram update.
func Idempotency(manager idempotency.Manager, log *slog.Logger) handlers.Middleware {
	if manager == nil {
		return func(next handlers.Handler) handlers.Handler {
			return next
		}
	}
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			key := extractIdempotencyKey(c)
			if key == "" {
				return next(c)
			}

			ctx := handlers.RequestContext(c)
			result, err := manager.Execute(ctx, key, updateTTL, func(context.Context) (interface{}, error) {
				return nil, next(c)
			})
			if errors.Is(err, idempotency.ErrRequestInProgress) {
				log.DebugContext(ctx, "update already in progress", slog.String("key", key))
				return nil
			}
			if err != nil {
				return err
			}

			if result.FromCache {
				log.InfoContext(ctx, "skipping redelivered update", slog.String("key", key))
			}
			return nil
		}
	}
}

func extractIdempotencyKey(c telebot.Context) string {
	if c == nil {
		return ""
	}

	if id := c.Update().ID; id != 0 {
		return idempotency.GenerateKey("update", id)
	}

	if cb := c.Callback(); cb != nil && cb.ID != "" {
		return idempotency.GenerateKey("cb", cb.ID)
	}

	if msg := c.Message(); msg != nil && msg.ID != 0 {
		chatID := int64(0)
		if msg.Chat != nil {
			chatID = msg.Chat.ID
		}
		return idempotency.GenerateKey("msg", fmt.Sprintf("%d:%d", chatID, msg.ID))
	}

	return ""
}
