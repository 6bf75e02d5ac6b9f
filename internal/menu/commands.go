package menu

import (
	"fmt"
	"log/slog"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/gatebot/core/logger"
	tgcore "github.com/m3rciful/gatebot/core/telegram"
	"github.com/m3rciful/gatebot/core/telegram/commands"
	tghelpers "github.com/m3rciful/gatebot/core/telegram/helpers"
	"github.com/m3rciful/gatebot/internal/store"
)

// RegisterCommands installs /start, /help and /id.
func (m *Menu) RegisterCommands(reg *tgcore.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     m.handleStart,
		Description: "Open the menu",
	})
	reg.RegisterCommand("/help", commands.Command{
		Handler:     m.handleHelp,
		Description: "How to use the bot",
	})
	reg.RegisterCommand("/id", commands.Command{
		Handler:     m.handleID,
		Description: "Show your id (or this chat's id)",
	})
}

// handleStart renders the role-dependent root screen. Every /start refreshes
// the sender's directory profile. A non-member who was previously known is
// swept out of the free channels before being shown the join prompt.
func (m *Menu) handleStart(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	ctx := tghelpers.WithHandler(c, "start")

	known := m.reg.HasUser(user.ID)
	m.reg.UpsertUser(ctx, user.ID, store.Profile{
		FullName: strings.TrimSpace(user.FirstName + " " + user.LastName),
		Username: user.Username,
	})

	switch {
	case m.ev.IsOwner(user.ID):
		return m.send(c, m.ownerRoot())
	case m.ev.IsAdmin(user.ID):
		return m.send(c, m.adminRoot())
	case m.gate.IsMember(ctx, user.ID):
		return m.send(c, m.memberMenuFor(user))
	default:
		if known {
			logger.Info(ctx, "gate", "gate.stale_member",
				slog.Int64("target_user_id", user.ID),
			)
			m.kicker.KickFromFreeChannels(ctx, user.ID)
		}
		return m.send(c, m.joinPrompt(user.FirstName))
	}
}

func (m *Menu) handleHelp(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	ctx := tghelpers.WithHandler(c, "help")

	var text string
	switch {
	case m.ev.IsAdmin(user.ID):
		text = "Hello! Use /start to open the button menu with all management options."
	case m.gate.IsMember(ctx, user.ID):
		text = "Hello! You are a member. Use /start to open the menu and see the channel lists."
	default:
		text = "Hello! To use this bot, please join the mandatory channel first. /start will give you the join link."
	}
	return tghelpers.SendText(c, text)
}

func (m *Menu) handleID(c tele.Context) error {
	chat := c.Chat()
	user := c.Sender()
	if chat == nil || user == nil {
		return nil
	}
	var text string
	if chat.Type == tele.ChatPrivate {
		text = fmt.Sprintf("Your user id: <code>%d</code>\n(Tap to copy)", user.ID)
	} else {
		text = fmt.Sprintf("This %s's chat id: <code>%d</code>\n(Tap to copy)", chat.Type, chat.ID)
	}
	return tghelpers.SendHTML(c, text)
}
