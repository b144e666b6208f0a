package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/queue-bot/internal/bot/handlers"
	"github.com/Proton-105/queue-bot/internal/domain"
	errors "github.com/Proton-105/queue-bot/internal/errors"
	"github.com/Proton-105/queue-bot/pkg/logger"
)

// UserRegistrar creates the profile row on first contact.
type UserRegistrar interface {
	GetOrCreate(ctx context.Context, telegramUser *telebot.User) (*domain.User, error)
}

// ActivityTracker records when a user was last seen.
type ActivityTracker interface {
	UpdateLastActive(ctx context.Context, userID int64) error
}

// RecoveryMiddleware catches panics, reports them via the centralized handler, and notifies the user.
func RecoveryMiddleware(log *slog.Logger, errHandler *errors.Handler) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					ctx := handlers.RequestContext(c)
					log.ErrorContext(ctx, "panic recovered in handler", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))

					userMsg := errors.GenericUserMessage
					if errHandler != nil {
						appErr := errors.NewStateError(fmt.Sprintf("panic recovered: %v", r))
						appErr.Severity = errors.SeverityCritical
						appErr.UserMessage = errors.GenericUserMessage
						if msg, _ := errHandler.Handle(ctx, appErr); msg != "" {
							userMsg = msg
						}
					}

					if c != nil {
						if sendErr := c.Send(userMsg); sendErr != nil {
							log.ErrorContext(ctx, "failed to notify user about panic", slog.Any("error", sendErr))
						}
					}

					err = nil
				}
			}()

			return next(c)
		}
	}
}

// ErrorHandlingMiddleware centralizes error reporting and user messaging for handler failures.
func ErrorHandlingMiddleware(errHandler *errors.Handler) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			userMsg := errors.GenericUserMessage
			if errHandler != nil {
				if msg, _ := errHandler.Handle(handlers.RequestContext(c), err); msg != "" {
					userMsg = msg
				}
			}

			if c != nil {
				_ = c.Send(userMsg)
			}

			return nil
		}
	}
}

// LoggingMiddleware tags the update with a correlation id and logs its outcome.
func LoggingMiddleware(log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			start := time.Now()
			ctx := logger.WithCorrelationID(handlers.RequestContext(c))
			handlers.WithRequestContext(c, ctx)

			userID := int64(0)
			if c.Sender() != nil {
				userID = c.Sender().ID
			}

			action := c.Text()
			if cb := c.Callback(); cb != nil {
				action = cb.Data
			}

			log.DebugContext(ctx, "handling update", slog.Int64("user_id", userID), slog.String("action", action))
			err := next(c)
			log.InfoContext(ctx, "handled update",
				slog.Int64("user_id", userID),
				slog.String("action", action),
				slog.Duration("duration", time.Since(start)),
				slog.String("correlation_id", logger.CorrelationIDFromContext(ctx)),
				slog.Any("error", err),
			)

			return err
		}
	}
}

// AuthMiddleware ensures that each incoming request is associated with a user record.
func AuthMiddleware(users UserRegistrar, log *slog.Logger) handlers.Middleware {
	if log == nil {
		log = slog.Default()
	}

	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			if users == nil || c.Sender() == nil {
				return next(c)
			}

			if _, err := users.GetOrCreate(handlers.RequestContext(c), c.Sender()); err != nil {
				log.Error("failed to register user", slog.Int64("user_id", c.Sender().ID), slog.Any("error", err))
				return err
			}

			return next(c)
		}
	}
}

// LastActiveMiddleware records user activity timestamps without blocking request flow.
func LastActiveMiddleware(tracker ActivityTracker) handlers.Middleware {
	return func(next handlers.Handler) handlers.Handler {
		if next == nil {
			return nil
		}

		return func(c telebot.Context) error {
			if tracker != nil && c.Sender() != nil {
				go func(id int64) {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = tracker.UpdateLastActive(ctx, id)
				}(c.Sender().ID)
			}

			return next(c)
		}
	}
}
