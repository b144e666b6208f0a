package handlers

import (
	"log/slog"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/queue-bot/internal/conversation"
	"github.com/Proton-105/queue-bot/internal/menu"
)

// NewStartHandler handles /start. A deep-link argument naming a listing opens that
// listing, anything else shows the welcome menu.
func NewStartHandler(conv Conversation, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			log.Warn("start handler invoked without sender")
			return nil
		}

		ev := conversation.Event{Sender: sender.ID, Lang: sender.LanguageCode}

		arg := strings.TrimSpace(c.Message().Payload)
		if arg == "" {
			_, arg, _ = strings.Cut(c.Text(), " ")
			arg = strings.TrimSpace(arg)
		}
		switch {
		case conversation.ValidListingID(arg):
			ev.Kind = conversation.KindText
			ev.Text = arg
			ev.ListingID = arg
		default:
			if arg != "" {
				log.Debug("ignoring malformed start payload", slog.Int64("user_id", sender.ID), slog.String("payload", arg))
			}
			ev.Kind = conversation.KindQuickReply
			ev.Payload = menu.TokenGetStarted
		}

		return conv.Handle(RequestContext(c), ev)
	}
}
