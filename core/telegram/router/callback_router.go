package router

import (
	"time"

	tg "github.com/m3rciful/gatebot/core/telegram"
	"github.com/m3rciful/gatebot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/gatebot/core/telegram/helpers"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// CallbackRoute returns a handler that routes button presses through the
// registry. Handlers answer their own callback when they need an alert or a
// toast; everything else gets a bare acknowledge after the handler returns,
// so an unmatched or unauthorized action degrades to a silent no-op.
func CallbackRoute(reg *tg.Registry) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		if c.Callback() == nil {
			return nil
		}

		key := callbacks.Key(c)
		name := "callback." + normalizeHandlerName(key)
		extras := []slog.Attr{slog.String("cb_key", key)}

		cbHandler, ok := reg.GetCallback(key)
		if !ok || cbHandler == nil {
			fallback := reg.CallbackNotFound()
			extras = append(extras, slog.String("reason", "not_found"))
			return handleWithSummary(c, name, start, "skip", func() error {
				if fallback != nil {
					return fallback(c)
				}
				return nil
			}, extras...)
		}

		err := handleWithSummary(c, name, start, "", func() error {
			return cbHandler(c)
		}, extras...)
		if !tghelpers.Responded(c) {
			_ = c.Respond()
		}
		return err
	}
	return tg.Route{
		Endpoint: tele.OnCallback,
		Handler:  handler,
	}
}
