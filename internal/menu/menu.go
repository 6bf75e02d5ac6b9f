// Package menu implements the button-driven navigation tree: role-dependent
// root screens, the admin and owner panels, catalogue pickers, and the
// entry points into the data-entry wizards. Every action token maps to a
// required role and a handler; the role is re-checked on every press.
package menu

import (
	"fmt"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/gatebot/core/logger"
	tgcore "github.com/m3rciful/gatebot/core/telegram"
	"github.com/m3rciful/gatebot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/gatebot/core/telegram/helpers"
	"github.com/m3rciful/gatebot/core/telegram/keyboard"
	"github.com/m3rciful/gatebot/core/telegram/middleware"
	"github.com/m3rciful/gatebot/internal/access"
	"github.com/m3rciful/gatebot/internal/gate"
	"github.com/m3rciful/gatebot/internal/platform"
	"github.com/m3rciful/gatebot/internal/store"
	"github.com/m3rciful/gatebot/internal/wizard"
)

// Menu wires screens, the gate and the wizard engine together.
type Menu struct {
	api    platform.API
	reg    *store.Store
	ev     *access.Evaluator
	gate   *gate.Gate
	kicker *gate.Kicker
	wiz    *wizard.Engine

	channelLink string
	contactLink string
}

// Options carries the link configuration the member screens need.
type Options struct {
	MandatoryChannelLink string
	ContactAdminLink     string
}

// New builds the menu layer.
func New(api platform.API, reg *store.Store, ev *access.Evaluator, g *gate.Gate, k *gate.Kicker, wiz *wizard.Engine, opts Options) *Menu {
	return &Menu{
		api:         api,
		reg:         reg,
		ev:          ev,
		gate:        g,
		kicker:      k,
		wiz:         wiz,
		channelLink: opts.MandatoryChannelLink,
		contactLink: opts.ContactAdminLink,
	}
}

// action pairs a callback handler with the role it requires.
type action struct {
	role    access.Role
	handler tele.HandlerFunc
}

// actions is the full token table. Dispatch is a lookup; unknown tokens fall
// through to the registry's silent acknowledge.
func (m *Menu) actions() map[string]action {
	table := map[string]action{
		CbVerifyJoin:    {access.Regular, m.handleVerifyJoin},
		CbGetMyID:       {access.Regular, m.handleGetMyID},
		CbStartMember:   {access.Regular, m.handleStartMember},
		CbShowFree:      {access.Regular, m.editScreenFn(m.freePicker)},
		CbShowPaid:      {access.Regular, m.editScreenFn(m.paidPicker)},
		CbJoinFree:      {access.Regular, m.handleJoinFree},
		CbJoinPaid:      {access.Regular, m.handleJoinPaid},
		CbNoop:          {access.Regular, tghelpers.Ack},
		CbMainMenuOwner: {access.Owner, m.editScreenFn(m.ownerRoot)},
		CbAdminPanel:    {access.Admin, m.handleAdminPanel},
		CbOwnerPanel:    {access.Owner, m.editScreenFn(m.ownerPanel)},
		CbManageFree:    {access.Admin, m.editScreenFn(m.manageFree)},
		CbManagePaid:    {access.Admin, m.editScreenFn(m.managePaid)},
		CbManageUsers:   {access.Owner, m.editScreenFn(m.manageUsers)},
		CbListAdmins:    {access.Owner, m.editScreenFn(m.adminList)},
		CbListUsers:     {access.Owner, m.editScreenFn(m.userList)},
		CbListBlocked:   {access.Owner, m.editScreenFn(m.blockedList)},
		CbBotStats:      {access.Owner, m.editScreenFn(m.statsScreen)},
		CbJoinList:      {access.Owner, m.editScreenFn(m.joinListScreen)},
		CbListFreeAdmin: {access.Admin, m.editScreenFn(m.freeListAdmin)},
		CbListPaidAdmin: {access.Admin, m.editScreenFn(m.paidListAdmin)},
		CbLeaveChat:     {access.Owner, m.handleLeaveChat},
	}
	for token, p := range prompts {
		table[token] = action{role: p.role, handler: m.promptHandler(p)}
	}
	return table
}

// Register installs every action into the callback registry with its role
// guard applied.
func (m *Menu) Register(reg *tgcore.Registry) {
	for token, act := range m.actions() {
		_ = reg.RegisterCallback(token, m.guard(act.role, act.handler))
	}
}

// guard re-validates the sender's role at press time. Unauthorized presses
// are acknowledged silently: a leaked or replayed token must not reveal
// that the action exists.
func (m *Menu) guard(required access.Role, h tele.HandlerFunc) tele.HandlerFunc {
	return middleware.Require(func(userID int64) bool {
		return m.ev.Allows(userID, required)
	})(h)
}

// editScreenFn adapts a pure screen render into an edit-in-place handler.
func (m *Menu) editScreenFn(render func() Screen) tele.HandlerFunc {
	return func(c tele.Context) error {
		return m.edit(c, render())
	}
}

func (m *Menu) edit(c tele.Context, s Screen) error {
	if s.HTML {
		return tghelpers.EditOrSendHTML(c, s.Text, s.Markup)
	}
	return c.EditOrSend(s.Text, s.Markup)
}

func (m *Menu) send(c tele.Context, s Screen) error {
	if s.HTML {
		return tghelpers.SendHTML(c, s.Text, s.Markup)
	}
	return tghelpers.SendText(c, s.Text, s.Markup)
}

// memberMenuFor renders the member root for the pressing user; a nil user
// falls back to a generic greeting (start_member token from an old message).
func (m *Menu) memberMenuFor(user *tele.User) Screen {
	name := "there"
	if user != nil && user.FirstName != "" {
		name = user.FirstName
	}
	return m.memberMenu(name)
}

// handleVerifyJoin re-checks the gate when the user claims to have joined.
// Success swaps the join prompt for the member menu; failure answers with a
// blocking alert and leaves the prompt in place.
func (m *Menu) handleVerifyJoin(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "verify_join")
	userID := c.Sender().ID
	if !m.gate.IsMember(ctx, userID) {
		return tghelpers.Alert(c, "You have not joined the channel yet. Please join and try again.")
	}
	logger.Info(ctx, "gate", "gate.verified", slog.Int64("target_user_id", userID))
	return m.edit(c, m.memberMenuFor(c.Sender()))
}

func (m *Menu) handleStartMember(c tele.Context) error {
	return m.edit(c, m.memberMenuFor(c.Sender()))
}

func (m *Menu) handleGetMyID(c tele.Context) error {
	return tghelpers.Alert(c, fmt.Sprintf("Your user id: %d", c.Sender().ID))
}

func (m *Menu) handleAdminPanel(c tele.Context) error {
	return m.edit(c, m.adminPanel(m.ev.IsOwner(c.Sender().ID)))
}

// promptHandler arms the wizard step and shows the prompt with a back
// button. Arming replaces whatever step the admin had pending.
func (m *Menu) promptHandler(p prompt) tele.HandlerFunc {
	return func(c tele.Context) error {
		m.wiz.Begin(c.Sender().ID, p.step)
		return m.edit(c, promptScreen(p))
	}
}

// handleJoinFree deletes the picker and sends the invite link for the
// chosen channel. A catalogue entry without a link answers with an alert.
func (m *Menu) handleJoinFree(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "join_free")
	chatID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return tghelpers.Ack(c)
	}
	_ = c.Delete()

	link, ok := m.reg.FreeLink(chatID)
	if !ok {
		return tghelpers.Alert(c, "No link is available for this channel.")
	}
	logger.Info(ctx, "tg", "join.link_sent",
		slog.Int64("chat_id", chatID),
		slog.Int64("target_user_id", c.Sender().ID),
	)
	return tghelpers.SendText(c, "Click the button below to join the channel:",
		keyboard.InlineColumn(keyboard.InlineBtn{Text: "✅ Join now", URL: link}))
}

// handleJoinPaid resolves the catalogue entry by index and sends its link
// together with the purchase contact note.
func (m *Menu) handleJoinPaid(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "join_paid")
	index, err := callbacks.PayloadInt(c)
	if err != nil {
		return tghelpers.Ack(c)
	}
	entries := m.reg.PaidChannels()
	if index < 0 || index >= len(entries) {
		return tghelpers.Ack(c)
	}
	_ = c.Delete()

	link := paidEntryLink(entries[index])
	if link == "" {
		return tghelpers.Alert(c, "No link was found for this channel.")
	}
	logger.Info(ctx, "tg", "join.paid_link_sent",
		slog.Int("entry_index", index),
		slog.Int64("target_user_id", c.Sender().ID),
	)
	text := fmt.Sprintf(
		"Click the button below to join the channel:\n\n"+
			"----------------------------------------\n"+
			"<b>If you would like to purchase the course, please contact %s for details.</b>",
		m.contactLink,
	)
	return tghelpers.SendHTML(c, text,
		keyboard.InlineColumn(keyboard.InlineBtn{Text: "✅ Join now", URL: link}))
}

// handleLeaveChat makes the bot leave the chosen chat, drops it from the
// registry and re-renders the join list in place.
func (m *Menu) handleLeaveChat(c tele.Context) error {
	ctx := tghelpers.WithHandler(c, "leave_chat")
	chatID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return tghelpers.Ack(c)
	}
	if err := m.api.Leave(ctx, chatID); err != nil {
		return tghelpers.Alert(c, fmt.Sprintf("Failed to leave the chat: %v", err))
	}
	m.reg.RemoveActiveChat(ctx, chatID)
	_ = tghelpers.Toast(c, fmt.Sprintf("Left chat %d.", chatID))
	return m.edit(c, m.joinListScreen())
}
