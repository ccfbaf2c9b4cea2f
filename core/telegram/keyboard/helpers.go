// Package keyboard builds telebot reply keyboards from plain label rows.
package keyboard

import tele "gopkg.in/telebot.v4"

// RemoveKeyboard returns a markup that hides the reply keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// ReplyButtons builds a resized reply keyboard; empty rows are skipped.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	keyboard := make([]tele.Row, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		buttons := make([]tele.Btn, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, markup.Text(label))
		}
		keyboard = append(keyboard, markup.Row(buttons...))
	}
	markup.Reply(keyboard...)
	return markup
}

// Markup picks the markup for a reply: buttons when rows are given, a
// removal when remove is set, nil otherwise.
func Markup(rows [][]string, remove bool) *tele.ReplyMarkup {
	switch {
	case len(rows) > 0:
		return ReplyButtons(rows...)
	case remove:
		return RemoveKeyboard()
	}
	return nil
}
