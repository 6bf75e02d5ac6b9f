// Package keyboard builds inline keyboards from plain button descriptions.
package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn describes one inline button: either a callback button
// (Unique, optionally Data) or an external link button (URL).
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
	URL    string
}

// Inline builds an inline keyboard from rows of InlineBtn.
func Inline(rows ...[]InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, len(rows))
	for i, row := range rows {
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			if btn.URL != "" {
				r[j] = *markup.URL(btn.Text, btn.URL).Inline()
				continue
			}
			r[j] = *markup.Data(btn.Text, btn.Unique, btn.Data).Inline()
		}
		inline[i] = r
	}
	markup.InlineKeyboard = inline
	return markup
}

// InlineColumn places every button on its own row.
func InlineColumn(buttons ...InlineBtn) *tele.ReplyMarkup {
	rows := make([][]InlineBtn, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, []InlineBtn{b})
	}
	return Inline(rows...)
}

// Rows is a convenience constructor for readability at call sites.
func Rows(rows ...[]InlineBtn) [][]InlineBtn {
	return rows
}

// Row groups buttons into a single keyboard row.
func Row(buttons ...InlineBtn) []InlineBtn {
	return buttons
}
