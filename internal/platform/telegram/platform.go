// Package telegram implements the outbound messaging platform on top of telebot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/queue-bot/internal/bot/keyboard"
	apperrors "github.com/Proton-105/queue-bot/internal/errors"
	"github.com/Proton-105/queue-bot/internal/notify"
)

// Sender is the part of *telebot.Bot the platform needs.
type Sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// Platform delivers notify messages as Telegram messages with inline keyboards.
type Platform struct {
	bot     Sender
	limiter *rate.Limiter
	breaker *apperrors.CircuitBreaker
	log     *slog.Logger
}

// New builds a Platform. limiter and breaker are optional.
func New(bot Sender, limiter *rate.Limiter, breaker *apperrors.CircuitBreaker, log *slog.Logger) *Platform {
	if log == nil {
		log = slog.Default()
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	if breaker == nil {
		breaker = apperrors.NewCircuitBreaker()
	}
	return &Platform{bot: bot, limiter: limiter, breaker: breaker, log: log}
}

// NewLimiter returns a limiter allowing perSecond messages with the given burst.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

func (p *Platform) SendText(ctx context.Context, recipient int64, text string) error {
	return p.send(ctx, recipient, text)
}

func (p *Platform) SendQuickReplies(ctx context.Context, recipient int64, prompt string, replies []notify.QuickReply) error {
	markup, err := keyboard.QuickReplies(replies)
	if err != nil {
		return fmt.Errorf("build quick replies: %w", err)
	}
	return p.send(ctx, recipient, prompt, markup)
}

// SendTemplate renders the card as text with its buttons in one row.
func (p *Platform) SendTemplate(ctx context.Context, recipient int64, tpl notify.Template) error {
	markup, err := keyboard.Postbacks(tpl.Buttons)
	if err != nil {
		return fmt.Errorf("build template buttons: %w", err)
	}

	text := tpl.Title
	if tpl.Subtitle != "" {
		text = strings.Join([]string{tpl.Title, tpl.Subtitle}, "\n")
	}
	return p.send(ctx, recipient, text, markup)
}

func (p *Platform) send(ctx context.Context, recipient int64, what interface{}, opts ...interface{}) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("wait for send slot: %w", err)
	}

	// Errors caused by the recipient (blocked bot, unknown chat) say nothing about
	// Telegram's health and must not open the breaker.
	var recipientErr error
	err := p.breaker.Call(func() error {
		_, err := p.bot.Send(&telebot.User{ID: recipient}, what, opts...)
		if isRecipientError(err) {
			recipientErr = err
			return nil
		}
		return err
	})
	if recipientErr != nil {
		return recipientErr
	}
	if err != nil {
		return apperrors.NewExternalAPIError("telegram", err)
	}
	return nil
}

func isRecipientError(err error) bool {
	var tbErr *telebot.Error
	if !errors.As(err, &tbErr) {
		return false
	}
	return tbErr.Code == 400 || tbErr.Code == 403
}
