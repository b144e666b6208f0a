package keyboard

import (
	telebot "gopkg.in/telebot.v3"

	"github.com/Proton-105/queue-bot/internal/notify"
)

// QuickReplies renders one button per row, each answering with a qr: callback.
func QuickReplies(replies []notify.QuickReply) (*telebot.ReplyMarkup, error) {
	b := NewInlineKeyboard()
	for _, qr := range replies {
		b.AddRow(InlineButton{Text: qr.Title, Unique: PrefixQuickReply, Data: qr.Payload})
	}
	return b.Build()
}

// Postbacks renders template buttons side by side, each answering with a pb: callback.
func Postbacks(buttons []notify.Button) (*telebot.ReplyMarkup, error) {
	row := make([]InlineButton, 0, len(buttons))
	for _, btn := range buttons {
		row = append(row, InlineButton{Text: btn.Title, Unique: PrefixPostback, Data: btn.Payload})
	}
	return NewInlineKeyboard().AddRow(row...).Build()
}
