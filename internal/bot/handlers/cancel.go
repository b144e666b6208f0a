package handlers

import (
	"errors"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/queue-bot/internal/bot/keyboard"
	"github.com/Proton-105/queue-bot/internal/i18n"
	"github.com/Proton-105/queue-bot/internal/state"
)

// NewCancelHandler forgets the user's conversation context.
func NewCancelHandler(fsm state.StateMachine, catalog *i18n.Manager, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		if c.Sender() == nil {
			log.Warn("cancel handler invoked without sender context")
			return nil
		}

		userID := c.Sender().ID
		tr := catalog.Translator(senderLang(c))

		ctx, release, err := fsm.Lock(RequestContext(c), userID)
		if errors.Is(err, state.ErrStateLocked) {
			return c.Send(tr.T("general.busy"))
		}
		if err != nil {
			return err
		}
		defer release()

		if err := fsm.Clear(ctx, userID); err != nil {
			log.ErrorContext(ctx, "failed to clear user state", slog.Int64("user_id", userID), slog.Any("error", err))
			return err
		}

		return c.Send(tr.T("general.cancelled"))
	}
}

// NewHelpHandler lists the available commands and pins them as a reply keyboard.
func NewHelpHandler(catalog *i18n.Manager, commands ...string) Handler {
	menu := keyboard.CommandMenu(commands...)
	return func(c telebot.Context) error {
		return c.Send(catalog.Translator(senderLang(c)).T("general.help"), menu)
	}
}
