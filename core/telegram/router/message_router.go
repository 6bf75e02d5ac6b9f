package router

import (
	"time"

	tg "github.com/m3rciful/gatebot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// Wizard is the minimal interface the text route needs from the
// conversational wizard engine.
type Wizard interface {
	InProgress(userID int64) bool
	HandleText(c tele.Context) error
}

// TextOptions controls fallback behaviour for free-text updates.
type TextOptions struct {
	UnknownText tele.HandlerFunc
}

// TextRoute builds the free-text route: a pending wizard step consumes the
// message first; otherwise the text may match a command alias; otherwise the
// fallback runs (default: ignore).
func TextRoute(wiz Wizard, reg *tg.Registry, opts TextOptions) tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()

		if wiz != nil && wiz.InProgress(c.Sender().ID) {
			return handleWithSummary(c, "wizard", start, "", func() error {
				return wiz.HandleText(c)
			})
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
				return handleWithSummary(c, normalizeHandlerName(key), start, "", func() error {
					return cmd.Handler(c)
				})
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", nil)
		return nil
	}

	return tg.Route{
		Endpoint: tele.OnText,
		Handler:  handler,
	}
}

// CommandRoutes prepares command handlers as individual routes.
func CommandRoutes(reg *tg.Registry) []tg.Route {
	if reg == nil {
		return nil
	}
	routes := make([]tg.Route, 0, len(reg.Commands()))
	for cmd, def := range reg.Commands() {
		routes = append(routes, tg.Route{
			Endpoint: cmd,
			Handler:  def.Handler,
		})
	}
	return routes
}
