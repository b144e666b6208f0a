package middleware

import (
	"fmt"
	"log/slog"
	"math"

	"gopkg.in/telebot.v3"

	"github.com/Proton-105/queue-bot/internal/bot/handlers"
	"github.com/Proton-105/queue-bot/internal/i18n"
	"github.com/Proton-105/queue-bot/internal/ratelimit"
)

// RateLimitMiddleware enforces per-user and per-action limits for incoming Telegram updates.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
	rules   *ratelimit.Rules
	catalog *i18n.Manager
	log     *slog.Logger
}

type limitCheck struct {
	key  string
	rule ratelimit.Rule
}

// NewRateLimitMiddleware constructs a rate-limit middleware component.
func NewRateLimitMiddleware(limiter ratelimit.Limiter, rules *ratelimit.Rules, catalog *i18n.Manager, log *slog.Logger) *RateLimitMiddleware {
	if log == nil {
		log = slog.Default()
	}

	return &RateLimitMiddleware{
		limiter: limiter,
		rules:   rules,
		catalog: catalog,
		log:     log,
	}
}

// Handle returns a telebot middleware. Limiter failures let the update through.
func (m *RateLimitMiddleware) Handle(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		if m.limiter == nil || m.rules == nil {
			return next(c)
		}

		sender := c.Sender()
		if sender == nil || m.rules.IsWhitelisted(sender.ID) {
			return next(c)
		}

		action := ActionName(c)
		checks := make([]limitCheck, 0, 2)
		if rule, ok := m.rules.PerUser(); ok {
			checks = append(checks, limitCheck{key: fmt.Sprintf("user:%d", sender.ID), rule: rule})
		}
		if rule, ok := m.rules.ForAction(action); ok {
			checks = append(checks, limitCheck{key: fmt.Sprintf("action:%s:%d", action, sender.ID), rule: rule})
		}

		ctx := handlers.RequestContext(c)
		for _, check := range checks {
			result, err := m.limiter.Check(ctx, check.key, check.rule)
			if err != nil {
				m.log.WarnContext(ctx, "rate limiter error", slog.Int64("user_id", sender.ID), slog.Any("error", err))
				continue
			}
			if result.Allowed {
				continue
			}

			seconds := int(math.Ceil(result.RetryAfter.Seconds()))
			m.log.WarnContext(ctx, "rate limit exceeded",
				slog.Int64("user_id", sender.ID),
				slog.String("key", check.key),
				slog.Int("retry_after_seconds", seconds),
			)
			if c.Callback() != nil {
				_ = c.Respond()
			}
			return c.Send(m.catalog.Translator(sender.LanguageCode).F("general.rate_limited", "seconds", seconds))
		}

		return next(c)
	}
}
