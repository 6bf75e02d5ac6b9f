package gate

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/gatebot/core/logger"
	tghelpers "github.com/m3rciful/gatebot/core/telegram/helpers"
	"github.com/m3rciful/gatebot/internal/access"
	"github.com/m3rciful/gatebot/internal/platform"
	"github.com/m3rciful/gatebot/internal/store"
)

// Tracker reacts to chat_member and my_chat_member updates: it keeps the
// active-chat registry in sync with the bot's own memberships, and fires the
// kick cascade when a user leaves the mandatory channel or blocks the bot.
type Tracker struct {
	api          platform.API
	ev           *access.Evaluator
	reg          *store.Store
	kicker       *Kicker
	channelID    int64
	logChannelID int64
}

// NewTracker wires the membership tracker.
func NewTracker(api platform.API, ev *access.Evaluator, reg *store.Store, kicker *Kicker, mandatoryChannelID, logChannelID int64) *Tracker {
	return &Tracker{
		api:          api,
		ev:           ev,
		reg:          reg,
		kicker:       kicker,
		channelID:    mandatoryChannelID,
		logChannelID: logChannelID,
	}
}

// HandleMyChatMember tracks the bot's own membership changes. Added to a
// chat → remember it; removed → forget it. Both paths checkpoint.
func (t *Tracker) HandleMyChatMember(c tele.Context) error {
	upd := c.ChatMember()
	if upd == nil || upd.Chat == nil || upd.NewChatMember == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	status := platform.Status(upd.NewChatMember.Role)

	switch {
	case status.MemberLike():
		t.reg.SetActiveChat(ctx, upd.Chat.ID, chatTitle(upd.Chat))
		logger.Info(ctx, "gate", "bot.joined_chat",
			slog.Int64("chat_id", upd.Chat.ID),
			slog.String("title", chatTitle(upd.Chat)),
		)
	default:
		if t.reg.RemoveActiveChat(ctx, upd.Chat.ID) {
			logger.Info(ctx, "gate", "bot.left_chat",
				slog.Int64("chat_id", upd.Chat.ID),
			)
		}
	}
	return nil
}

// HandleChatMember reacts to other users' membership transitions. Two cases
// matter, both member-like → gone:
//   - in the mandatory channel: the user no longer passes the gate, kick
//     them out of every free channel;
//   - in the private chat with the bot (the user blocked it): same cascade,
//     plus a note to the log channel and eviction from the user directory.
func (t *Tracker) HandleChatMember(c tele.Context) error {
	upd := c.ChatMember()
	if upd == nil || upd.Chat == nil || upd.NewChatMember == nil || upd.NewChatMember.User == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)

	wasIn := upd.OldChatMember != nil && platform.Status(upd.OldChatMember.Role).MemberLike()
	isIn := platform.Status(upd.NewChatMember.Role).MemberLike()
	if !wasIn || isIn {
		return nil
	}
	userID := upd.NewChatMember.User.ID
	// Admins are never kicked, notified about, or evicted.
	if t.ev.IsAdmin(userID) {
		return nil
	}

	switch {
	case upd.Chat.ID == t.channelID:
		logger.Info(ctx, "gate", "gate.member_left",
			slog.Int64("target_user_id", userID),
		)
		t.kicker.KickFromFreeChannels(ctx, userID)

	case upd.Chat.Type == tele.ChatPrivate:
		profile, known := t.reg.RemoveUser(ctx, userID)
		if known {
			logger.Info(ctx, "gate", "user.blocked_bot",
				slog.Int64("target_user_id", userID),
				slog.String("username", profile.Username),
			)
		}
		t.notifyBotBlocked(ctx, upd.NewChatMember.User, profile, known)
		t.kicker.KickFromFreeChannels(ctx, userID)
	}
	return nil
}

// notifyBotBlocked posts who blocked the bot to the configured log channel.
// The last-known directory profile is preferred over the update payload; the
// latter is only a fallback for users the directory never saw.
func (t *Tracker) notifyBotBlocked(ctx context.Context, user *tele.User, profile store.Profile, known bool) {
	if t.logChannelID == 0 {
		return
	}
	name := strings.TrimSpace(profile.FullName)
	username := profile.Username
	if !known {
		name = strings.TrimSpace(user.FirstName + " " + user.LastName)
		username = user.Username
	}
	handle := "-"
	if username != "" {
		handle = "@" + username
	}
	text := fmt.Sprintf("🚫 User blocked the bot\nName: %s\nHandle: %s\nID: <code>%d</code>",
		html.EscapeString(name), html.EscapeString(handle), user.ID)
	if err := t.api.SendHTML(ctx, t.logChannelID, text); err != nil {
		logger.Warn(ctx, "gate", "log_channel.notify_failed",
			slog.Int64("chat_id", t.logChannelID),
			slog.String("err", err.Error()),
		)
	}
}

func chatTitle(chat *tele.Chat) string {
	if chat.Title != "" {
		return chat.Title
	}
	return fmt.Sprintf("chat %d", chat.ID)
}
