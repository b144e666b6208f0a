package keyboard

import (
	telebot "gopkg.in/telebot.v3"
)

// CommandMenu builds a persistent reply keyboard whose buttons send the given commands,
// two per row.
func CommandMenu(commands ...string) *telebot.ReplyMarkup {
	markup := &telebot.ReplyMarkup{
		ResizeKeyboard:  true,
		OneTimeKeyboard: false,
	}

	rows := make([]telebot.Row, 0, (len(commands)+1)/2)
	for i := 0; i < len(commands); i += 2 {
		row := telebot.Row{markup.Text(commands[i])}
		if i+1 < len(commands) {
			row = append(row, markup.Text(commands[i+1]))
		}
		rows = append(rows, row)
	}
	markup.Reply(rows...)

	return markup
}
