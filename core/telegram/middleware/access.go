package middleware

import (
	"log/slog"

	"github.com/m3rciful/gatebot/core/logger"
	tghelpers "github.com/m3rciful/gatebot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// BlockGuard drops every update from blocked users before any other handler
// sees it. Blocked callback presses are answered with a blocking alert so the
// button does not spin forever; messages are dropped silently.
func BlockGuard(isBlocked func(userID int64) bool) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || isBlocked == nil || !isBlocked(user.ID) {
				return next(c)
			}
			if c.Callback() != nil {
				return c.Respond(&tele.CallbackResponse{
					Text:      "You are blocked from using this bot.",
					ShowAlert: true,
				})
			}
			return nil
		}
	}
}

// Require gates a handler on a live permission check evaluated at the moment
// of the action, so a demoted admin is rejected on the next press even if the
// button is still on screen. Failures are silent: privileged actions must not
// reveal themselves to unprivileged users.
func Require(allowed func(userID int64) bool) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil {
				return nil
			}
			if allowed != nil && !allowed(user.ID) {
				ctx := tghelpers.BuildContext(c)
				logger.Debug(ctx, "tg", "access.denied",
					slog.Int64("user_id", user.ID),
				)
				if c.Callback() != nil {
					return tghelpers.Ack(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
