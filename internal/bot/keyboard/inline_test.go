package keyboard_test

import (
	"strings"
	"testing"

	"github.com/Proton-105/queue-bot/internal/bot/keyboard"
	"github.com/Proton-105/queue-bot/internal/notify"
	"github.com/Proton-105/queue-bot/internal/testutil"
)

func TestInlineKeyboardBuilder(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		builder := keyboard.NewInlineKeyboard()
		builder.AddRow(
			keyboard.InlineButton{Text: "Yes", Unique: keyboard.PrefixQuickReply, Data: "accept-seller-offer"},
			keyboard.InlineButton{Text: "No", Unique: keyboard.PrefixQuickReply, Data: "decline-seller-offer"},
		).AddRow(
			keyboard.InlineButton{Text: "Quit", Unique: keyboard.PrefixQuickReply, Data: "quit"},
		)

		markup, err := builder.Build()
		testutil.AssertNoError(t, err)

		if markup == nil {
			t.Fatal("expected markup, got nil")
		}

		testutil.AssertEqual(t, 2, len(markup.InlineKeyboard))
		testutil.AssertEqual(t, 2, len(markup.InlineKeyboard[0]))
		testutil.AssertEqual(t, 1, len(markup.InlineKeyboard[1]))
		testutil.AssertEqual(t, "qr:decline-seller-offer", markup.InlineKeyboard[0][1].Data)
		testutil.AssertEqual(t, "", markup.InlineKeyboard[0][1].Unique)
	})

	t.Run("callback data overflow", func(t *testing.T) {
		builder := keyboard.NewInlineKeyboard()
		builder.AddRow(keyboard.InlineButton{
			Text:   "Too big",
			Unique: "overflow",
			Data:   strings.Repeat("x", keyboard.CallbackDataLimitBytes),
		})

		_, err := builder.Build()
		testutil.AssertError(t, err)
	})

	t.Run("empty rows are skipped", func(t *testing.T) {
		markup, err := keyboard.NewInlineKeyboard().AddRow().Build()
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, 0, len(markup.InlineKeyboard))
	})
}

func TestQuickReplies(t *testing.T) {
	markup, err := keyboard.QuickReplies([]notify.QuickReply{
		{Title: "I'm buying", Payload: "buyer"},
		{Title: "I'm selling", Payload: "seller"},
	})
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, 2, len(markup.InlineKeyboard))
	testutil.AssertEqual(t, "I'm buying", markup.InlineKeyboard[0][0].Text)
	testutil.AssertEqual(t, "qr:buyer", markup.InlineKeyboard[0][0].Data)
	testutil.AssertEqual(t, "qr:seller", markup.InlineKeyboard[1][0].Data)
}

func TestPostbacks(t *testing.T) {
	markup, err := keyboard.Postbacks([]notify.Button{
		{Title: "Yes!", Payload: "confirm-photo"},
		{Title: "No!", Payload: "reject-photo"},
	})
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, 1, len(markup.InlineKeyboard))
	testutil.AssertEqual(t, "pb:confirm-photo", markup.InlineKeyboard[0][0].Data)
	testutil.AssertEqual(t, "pb:reject-photo", markup.InlineKeyboard[0][1].Data)
}
