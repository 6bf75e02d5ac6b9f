package platform

import (
	"context"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/gatebot/core/logger"
)

// teleAPI adapts a running telebot instance to the API interface. The
// underlying client has no context plumbing, so ctx is consumed for
// logging correlation only; cancellation happens at the HTTP layer.
type teleAPI struct {
	bot *tele.Bot
}

// NewTelebotAPI wraps a telebot bot.
func NewTelebotAPI(bot *tele.Bot) API {
	return &teleAPI{bot: bot}
}

func (a *teleAPI) SendText(ctx context.Context, chatID int64, text string) error {
	start := time.Now()
	_, err := a.bot.Send(tele.ChatID(chatID), text)
	a.logCall(ctx, "send", chatID, 0, start, err)
	return err
}

func (a *teleAPI) SendHTML(ctx context.Context, chatID int64, text string) error {
	start := time.Now()
	_, err := a.bot.Send(tele.ChatID(chatID), text, &tele.SendOptions{
		ParseMode:             tele.ModeHTML,
		DisableWebPagePreview: true,
	})
	a.logCall(ctx, "send_html", chatID, 0, start, err)
	return err
}

func (a *teleAPI) MemberStatus(ctx context.Context, chatID, userID int64) (Status, error) {
	start := time.Now()
	member, err := a.bot.ChatMemberOf(&tele.Chat{ID: chatID}, &tele.User{ID: userID})
	a.logCall(ctx, "chat_member_of", chatID, userID, start, err)
	if err != nil {
		return "", err
	}
	return Status(member.Role), nil
}

func (a *teleAPI) Ban(ctx context.Context, chatID, userID int64) error {
	start := time.Now()
	err := a.bot.Ban(&tele.Chat{ID: chatID}, &tele.ChatMember{
		User: &tele.User{ID: userID},
	})
	a.logCall(ctx, "ban", chatID, userID, start, err)
	return err
}

func (a *teleAPI) Unban(ctx context.Context, chatID, userID int64) error {
	start := time.Now()
	err := a.bot.Unban(&tele.Chat{ID: chatID}, &tele.User{ID: userID})
	a.logCall(ctx, "unban", chatID, userID, start, err)
	return err
}

func (a *teleAPI) Leave(ctx context.Context, chatID int64) error {
	start := time.Now()
	err := a.bot.Leave(&tele.Chat{ID: chatID})
	a.logCall(ctx, "leave", chatID, 0, start, err)
	return err
}

func (a *teleAPI) logCall(ctx context.Context, method string, chatID, userID int64, start time.Time, err error) {
	attrs := []slog.Attr{
		slog.String("method", method),
		slog.Int64("chat_id", chatID),
		slog.Int64("duration_ms", logger.Took(start).Milliseconds()),
	}
	if userID != 0 {
		attrs = append(attrs, slog.Int64("target_user_id", userID))
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
		logger.Warn(ctx, "twire", "api.call_failed", attrs...)
		return
	}
	if logger.ShouldSampleDebug() {
		logger.Debug(ctx, "twire", "api.call", attrs...)
	}
}
