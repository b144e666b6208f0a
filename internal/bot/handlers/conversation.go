package handlers

import (
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/queue-bot/internal/bot/keyboard"
	"github.com/Proton-105/queue-bot/internal/conversation"
)

// NewTextHandler forwards plain messages.
func NewTextHandler(conv Conversation) Handler {
	return func(c telebot.Context) error {
		if c.Sender() == nil {
			return nil
		}
		return conv.Handle(RequestContext(c), conversation.Event{
			Kind:   conversation.KindText,
			Sender: c.Sender().ID,
			Text:   c.Text(),
			Lang:   senderLang(c),
		})
	}
}

// NewAttachmentHandler forwards photos and documents.
func NewAttachmentHandler(conv Conversation) Handler {
	return func(c telebot.Context) error {
		if c.Sender() == nil {
			return nil
		}
		return conv.Handle(RequestContext(c), conversation.Event{
			Kind:   conversation.KindAttachment,
			Sender: c.Sender().ID,
			Lang:   senderLang(c),
		})
	}
}

// NewTokenHandler turns a command into the quick reply with the given token.
func NewTokenHandler(conv Conversation, token string) Handler {
	return func(c telebot.Context) error {
		if c.Sender() == nil {
			return nil
		}
		return conv.Handle(RequestContext(c), conversation.Event{
			Kind:    conversation.KindQuickReply,
			Sender:  c.Sender().ID,
			Payload: token,
			Lang:    senderLang(c),
		})
	}
}

// NewCallbackHandler decodes qr:/pb: callback data into quick reply and postback events.
func NewCallbackHandler(conv Conversation, log *slog.Logger) CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		cb := c.Callback()
		if cb == nil || c.Sender() == nil {
			return nil
		}
		// Stops the client-side spinner regardless of the outcome.
		defer func() { _ = c.Respond() }()

		prefix, token, err := keyboard.DecodeCallback(cb.Data)
		if err != nil || token == "" {
			log.Warn("malformed callback data", slog.String("data", cb.Data), slog.Any("error", err))
			return nil
		}

		kind := conversation.KindQuickReply
		switch prefix {
		case keyboard.PrefixQuickReply:
		case keyboard.PrefixPostback:
			kind = conversation.KindPostback
		default:
			log.Warn("unknown callback prefix", slog.String("prefix", prefix))
			return nil
		}

		return conv.Handle(RequestContext(c), conversation.Event{
			Kind:    kind,
			Sender:  c.Sender().ID,
			Payload: token,
			Lang:    senderLang(c),
		})
	}
}
