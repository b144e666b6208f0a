package errors

import (
	"context"
	"errors"
	"log/slog"

	"github.com/getsentry/sentry-go"
)

// Handler turns errors into log records, Sentry events and a message safe to show the user.
type Handler struct {
	log           *slog.Logger
	sentryEnabled bool
}

func NewHandler(log *slog.Logger, sentryEnabled bool) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		log:           log,
		sentryEnabled: sentryEnabled,
	}
}

// Handle logs err and returns the user-facing message and whether the operation may be retried.
func (h *Handler) Handle(ctx context.Context, err error) (string, bool) {
	if err == nil {
		return "", false
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var appErr *AppError
	if errors.As(err, &appErr) && appErr != nil {
		level := slog.LevelError
		if appErr.Severity == SeverityLow {
			level = slog.LevelWarn
		}

		h.log.Log(ctx, level, "application error",
			slog.String("code", appErr.Code),
			slog.String("error", err.Error()),
			slog.String("severity", string(appErr.Severity)),
			slog.Bool("retryable", appErr.Retryable),
		)

		if h.sentryEnabled && (appErr.Severity == SeverityCritical || appErr.Severity == SeverityHigh) {
			h.sendToSentry(err)
		}

		userMessage := appErr.UserMessage
		if userMessage == "" {
			userMessage = GenericUserMessage
		}

		return userMessage, appErr.Retryable
	}

	h.log.ErrorContext(ctx, "unknown error",
		slog.String("error", err.Error()),
		slog.String("severity", string(SeverityHigh)),
	)

	if h.sentryEnabled {
		h.sendToSentry(err)
	}

	return GenericUserMessage, false
}

func (h *Handler) sendToSentry(err error) {
	sentry.WithScope(func(scope *sentry.Scope) {
		var appErr *AppError
		if errors.As(err, &appErr) && appErr != nil {
			if appErr.Code != "" {
				scope.SetTag("code", appErr.Code)
			}

			if appErr.Severity != "" {
				scope.SetTag("severity", string(appErr.Severity))
			}
		}

		sentry.CaptureException(err)
	})
}
