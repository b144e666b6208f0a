package handlers

import (
	"context"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/queue-bot/internal/conversation"
)

// Handler processes bot commands.
type Handler func(c telebot.Context) error

// CallbackHandler processes inline callback events.
type CallbackHandler func(c telebot.Context) error

// Middleware wraps handlers with additional behavior.
type Middleware func(Handler) Handler

// Conversation consumes normalized inbound events.
type Conversation interface {
	Handle(ctx context.Context, ev conversation.Event) error
}

const requestContextKey = "request_ctx"

// WithRequestContext stores ctx on the update so later handlers share its values.
func WithRequestContext(c telebot.Context, ctx context.Context) {
	c.Set(requestContextKey, ctx)
}

// RequestContext returns the context stored by WithRequestContext or a background one.
func RequestContext(c telebot.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if ctx, ok := c.Get(requestContextKey).(context.Context); ok && ctx != nil {
		return ctx
	}
	return context.Background()
}

func senderLang(c telebot.Context) string {
	if s := c.Sender(); s != nil {
		return s.LanguageCode
	}
	return ""
}
