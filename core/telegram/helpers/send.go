package helpers

import (
	tele "gopkg.in/telebot.v4"
)

// All helpers here are synchronous: a handler must not return before its
// outbound calls have completed (broadcast summaries depend on it).

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	if rm := first(markup); rm != nil {
		return c.Send(text, rm)
	}
	return c.Send(text)
}

// SendHTML sends a message with HTML parse mode and optional reply markup.
func SendHTML(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return c.Send(text, htmlOpts(first(markup)))
}

// EditHTML edits the current message with HTML parse mode and optional markup.
func EditHTML(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return c.Edit(text, htmlOpts(first(markup)))
}

// EditOrSendHTML tries to edit the message or sends a new one if edit fails.
func EditOrSendHTML(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	return c.EditOrSend(text, htmlOpts(first(markup)))
}

const respondedKey = "cb_responded"

// Alert answers a callback with a blocking alert box.
func Alert(c tele.Context, text string) error {
	c.Set(respondedKey, true)
	return c.Respond(&tele.CallbackResponse{Text: text, ShowAlert: true})
}

// Toast answers a callback with a transient notification.
func Toast(c tele.Context, text string) error {
	c.Set(respondedKey, true)
	return c.Respond(&tele.CallbackResponse{Text: text})
}

// Ack answers a callback with no notification at all.
func Ack(c tele.Context) error {
	c.Set(respondedKey, true)
	return c.Respond()
}

// Responded reports whether this callback was already answered via the
// helpers above. The router uses it to ack exactly once.
func Responded(c tele.Context) bool {
	v, _ := c.Get(respondedKey).(bool)
	return v
}

func htmlOpts(rm *tele.ReplyMarkup) *tele.SendOptions {
	return &tele.SendOptions{
		ParseMode:             tele.ModeHTML,
		ReplyMarkup:           rm,
		DisableWebPagePreview: true,
	}
}

func first(markup []*tele.ReplyMarkup) *tele.ReplyMarkup {
	if len(markup) > 0 {
		return markup[0]
	}
	return nil
}
