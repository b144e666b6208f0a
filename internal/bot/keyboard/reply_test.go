package keyboard_test

import (
	"testing"

	"github.com/Proton-105/queue-bot/internal/bot/keyboard"
	"github.com/Proton-105/queue-bot/internal/testutil"
)

func TestCommandMenu(t *testing.T) {
	markup := keyboard.CommandMenu("/listings", "/interests", "/cancel")

	if !markup.ResizeKeyboard {
		t.Fatalf("expected ResizeKeyboard to be true")
	}

	expectedRows := [][]string{
		{"/listings", "/interests"},
		{"/cancel"},
	}

	testutil.AssertEqual(t, len(expectedRows), len(markup.ReplyKeyboard))
	for i, row := range expectedRows {
		testutil.AssertEqual(t, len(row), len(markup.ReplyKeyboard[i]))
		for j, text := range row {
			testutil.AssertEqual(t, text, markup.ReplyKeyboard[i][j].Text)
		}
	}
}

func TestCommandMenu_Empty(t *testing.T) {
	markup := keyboard.CommandMenu()
	testutil.AssertEqual(t, 0, len(markup.ReplyKeyboard))
}
