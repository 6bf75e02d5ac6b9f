package menu

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/gatebot/core/telegram/keyboard"
	"github.com/m3rciful/gatebot/core/telegram/state"
	"github.com/m3rciful/gatebot/internal/access"
	"github.com/m3rciful/gatebot/internal/wizard"
)

// Screen is one rendered menu surface. Handlers only decide which screen to
// show; building text and keyboard lives here so renders stay testable
// without a live bot.
type Screen struct {
	Text   string
	Markup *tele.ReplyMarkup
	HTML   bool
}

func backRow(token string) []keyboard.InlineBtn {
	return keyboard.Row(keyboard.InlineBtn{Text: "⬅️ Back", Unique: token})
}

// ownerRoot is the owner's /start screen.
func (m *Menu) ownerRoot() Screen {
	return Screen{
		Text: "Hello, owner! Please pick an option:",
		Markup: keyboard.InlineColumn(
			keyboard.InlineBtn{Text: "👑 Admin Panel", Unique: CbAdminPanel},
			keyboard.InlineBtn{Text: "🔑 Owner Panel", Unique: CbOwnerPanel},
		),
	}
}

// adminRoot is the admin's /start screen.
func (m *Menu) adminRoot() Screen {
	return Screen{
		Text: "Hello, admin! Please pick an option:",
		Markup: keyboard.InlineColumn(
			keyboard.InlineBtn{Text: "👑 Admin Panel", Unique: CbAdminPanel},
		),
	}
}

// memberMenu is the root screen for a regular user who passes the gate.
func (m *Menu) memberMenu(firstName string) Screen {
	return Screen{
		Text: fmt.Sprintf("Hello, %s! Welcome.", firstName),
		Markup: keyboard.Inline(
			keyboard.Row(
				keyboard.InlineBtn{Text: "🆓 Free Channels", Unique: CbShowFree},
				keyboard.InlineBtn{Text: "💎 Paid Channels", Unique: CbShowPaid},
			),
			keyboard.Row(
				keyboard.InlineBtn{Text: "📢 Mandatory Channel", URL: m.channelLink},
				keyboard.InlineBtn{Text: "📞 Contact Admin", URL: m.contactLink},
			),
			keyboard.Row(
				keyboard.InlineBtn{Text: "🆔 My ID", Unique: CbGetMyID},
			),
		),
	}
}

// joinPrompt is shown to non-members instead of any menu.
func (m *Menu) joinPrompt(firstName string) Screen {
	text := fmt.Sprintf(
		"<b>Welcome!</b>\n\nHello, %s!\n\n"+
			"<b>Warning:</b> if you block this bot or leave the main channel, "+
			"you will be removed from all free channels.\n\n"+
			"To use the bot, please join the channel and then press the "+
			"'I have joined' button.",
		html.EscapeString(firstName),
	)
	return Screen{
		Text: text,
		HTML: true,
		Markup: keyboard.InlineColumn(
			keyboard.InlineBtn{Text: "➡️ Join the channel", URL: m.channelLink},
			keyboard.InlineBtn{Text: "✅ I have joined", Unique: CbVerifyJoin},
		),
	}
}

func (m *Menu) adminPanel(isOwner bool) Screen {
	rows := keyboard.Rows(
		keyboard.Row(
			keyboard.InlineBtn{Text: "📢 Broadcast", Unique: CbAskBroadcast},
			keyboard.InlineBtn{Text: "✍️ Post", Unique: CbAskPost},
		),
		keyboard.Row(keyboard.InlineBtn{Text: "🆓 Manage Free Channels", Unique: CbManageFree}),
		keyboard.Row(keyboard.InlineBtn{Text: "💎 Manage Paid Channels", Unique: CbManagePaid}),
	)
	if isOwner {
		rows = append(rows, backRow(CbMainMenuOwner))
	}
	return Screen{Text: "👑 Admin Panel:", Markup: keyboard.Inline(rows...)}
}

func (m *Menu) ownerPanel() Screen {
	return Screen{
		Text: "🔑 Owner Panel:",
		Markup: keyboard.Inline(
			keyboard.Row(
				keyboard.InlineBtn{Text: "➕ Add Admin", Unique: CbAskAddAdmin},
				keyboard.InlineBtn{Text: "➖ Remove Admin", Unique: CbAskRemoveAdmin},
			),
			keyboard.Row(keyboard.InlineBtn{Text: "📋 Admin List", Unique: CbListAdmins}),
			keyboard.Row(keyboard.InlineBtn{Text: "👥 Manage Users", Unique: CbManageUsers}),
			keyboard.Row(keyboard.InlineBtn{Text: "📡 Join List", Unique: CbJoinList}),
			backRow(CbMainMenuOwner),
		),
	}
}

func (m *Menu) manageFree() Screen {
	return Screen{
		Text: "🆓 Manage Free Channels:",
		Markup: keyboard.Inline(
			keyboard.Row(
				keyboard.InlineBtn{Text: "➕ Add", Unique: CbAskAddFree},
				keyboard.InlineBtn{Text: "➖ Remove", Unique: CbAskRemoveFree},
			),
			keyboard.Row(keyboard.InlineBtn{Text: "📋 View List", Unique: CbListFreeAdmin}),
			backRow(CbAdminPanel),
		),
	}
}

func (m *Menu) managePaid() Screen {
	return Screen{
		Text: "💎 Manage Paid Channels:",
		Markup: keyboard.Inline(
			keyboard.Row(
				keyboard.InlineBtn{Text: "➕ Add", Unique: CbAskAddPaid},
				keyboard.InlineBtn{Text: "➖ Remove", Unique: CbAskRemovePaid},
			),
			keyboard.Row(keyboard.InlineBtn{Text: "📋 View List", Unique: CbListPaidAdmin}),
			backRow(CbAdminPanel),
		),
	}
}

func (m *Menu) manageUsers() Screen {
	return Screen{
		Text: "👥 Manage Users:",
		Markup: keyboard.Inline(
			keyboard.Row(
				keyboard.InlineBtn{Text: "📋 User List", Unique: CbListUsers},
				keyboard.InlineBtn{Text: "📊 Bot Stats", Unique: CbBotStats},
			),
			keyboard.Row(
				keyboard.InlineBtn{Text: "🚫 Block User", Unique: CbAskBlockUser},
				keyboard.InlineBtn{Text: "✅ Unblock User", Unique: CbAskUnblockUser},
			),
			keyboard.Row(keyboard.InlineBtn{Text: "📜 Blocked List", Unique: CbListBlocked}),
			backRow(CbOwnerPanel),
		),
	}
}

func (m *Menu) adminList() Screen {
	ids := m.reg.Admins()
	lines := make([]string, len(ids))
	for i, id := range ids {
		lines[i] = strconv.FormatInt(id, 10)
	}
	return Screen{
		Text: fmt.Sprintf("<b>Owner:</b> %d\n\n<b>All admins:</b>\n%s",
			m.reg.OwnerID(), strings.Join(lines, "\n")),
		HTML:   true,
		Markup: keyboard.Inline(backRow(CbOwnerPanel)),
	}
}

func (m *Menu) userList() Screen {
	markup := keyboard.Inline(backRow(CbManageUsers))
	users := m.reg.Users()
	if len(users) == 0 {
		return Screen{Text: "No users found.", Markup: markup}
	}
	var blocks []string
	for _, u := range users {
		if m.reg.IsAdmin(u.ID) {
			continue
		}
		handle := "N/A"
		if u.Profile.Username != "" {
			handle = "@" + u.Profile.Username
		}
		blocks = append(blocks, fmt.Sprintf("<b>%s</b>\n%s\n<code>%d</code>",
			html.EscapeString(u.Profile.FullName), html.EscapeString(handle), u.ID))
	}
	if len(blocks) == 0 {
		return Screen{Text: "There are no users besides admins.", Markup: markup}
	}
	return Screen{
		Text:   "<b>Bot users:</b>\n\n" + strings.Join(blocks, "\n\n"),
		HTML:   true,
		Markup: markup,
	}
}

func (m *Menu) blockedList() Screen {
	markup := keyboard.Inline(backRow(CbManageUsers))
	ids := m.reg.BlockedIDs()
	if len(ids) == 0 {
		return Screen{Text: "No users are blocked.", Markup: markup}
	}
	lines := make([]string, len(ids))
	for i, id := range ids {
		lines[i] = fmt.Sprintf("<code>%d</code>", id)
	}
	return Screen{
		Text:   "<b>Blocked users:</b>\n\n" + strings.Join(lines, "\n"),
		HTML:   true,
		Markup: markup,
	}
}

func (m *Menu) statsScreen() Screen {
	st := m.reg.UserStats()
	return Screen{
		Text: fmt.Sprintf(
			"📊 <b>Bot stats</b> 📊\n\nTotal known users: %d\nAdmins: %d\nNormal users: %d\nBlocked users: %d",
			st.TotalUsers, st.Admins, st.NormalUsers, st.Blocked),
		HTML:   true,
		Markup: keyboard.Inline(backRow(CbManageUsers)),
	}
}

// joinListScreen lists every chat the bot is in, each with a leave button.
func (m *Menu) joinListScreen() Screen {
	var rows [][]keyboard.InlineBtn
	for _, chat := range m.reg.ActiveChats() {
		id := strconv.FormatInt(chat.ID, 10)
		rows = append(rows, keyboard.Row(
			keyboard.InlineBtn{Text: fmt.Sprintf("%s (%d)", chat.Title, chat.ID), Unique: CbNoop},
			keyboard.InlineBtn{Text: "❌ Leave", Unique: CbLeaveChat, Data: id},
		))
	}
	rows = append(rows, backRow(CbOwnerPanel))
	return Screen{Text: "The bot is in these groups/channels:", Markup: keyboard.Inline(rows...)}
}

func (m *Menu) freeListAdmin() Screen {
	markup := keyboard.Inline(backRow(CbManageFree))
	channels := m.reg.FreeChannels()
	if len(channels) == 0 {
		return Screen{
			Text:   "<b>Free channel list (admin view):</b>\n\nNo free channels yet.",
			HTML:   true,
			Markup: markup,
		}
	}
	lines := make([]string, len(channels))
	for i, ch := range channels {
		lines[i] = fmt.Sprintf("%d. <a href='%s'>%s</a>",
			i+1, html.EscapeString(ch.Link), html.EscapeString(ch.Name))
	}
	return Screen{
		Text:   "<b>Free channel list (admin view):</b>\n\n" + strings.Join(lines, "\n"),
		HTML:   true,
		Markup: markup,
	}
}

func (m *Menu) paidListAdmin() Screen {
	markup := keyboard.Inline(backRow(CbManagePaid))
	entries := m.reg.PaidChannels()
	if len(entries) == 0 {
		return Screen{
			Text:   "<b>Paid channel list (admin view):</b>\n\nNo paid channels yet.",
			HTML:   true,
			Markup: markup,
		}
	}
	lines := make([]string, len(entries))
	for i, entry := range entries {
		lines[i] = fmt.Sprintf("%d. %s", i+1, entry)
	}
	return Screen{
		Text:   "<b>Paid channel list (admin view):</b>\n\n" + strings.Join(lines, "\n"),
		HTML:   true,
		Markup: markup,
	}
}

// freePicker offers every free channel as a join button.
func (m *Menu) freePicker() Screen {
	var rows [][]keyboard.InlineBtn
	for _, ch := range m.reg.FreeChannels() {
		rows = append(rows, keyboard.Row(keyboard.InlineBtn{
			Text:   "🆓 " + ch.Name,
			Unique: CbJoinFree,
			Data:   strconv.FormatInt(ch.ID, 10),
		}))
	}
	rows = append(rows, backRow(CbStartMember))
	return Screen{Text: "Please pick a free channel:", Markup: keyboard.Inline(rows...)}
}

// paidPicker offers every paid catalogue entry as a join button. Button
// labels come from the <code>…</code> fragment of the stored entry.
func (m *Menu) paidPicker() Screen {
	var rows [][]keyboard.InlineBtn
	for i, entry := range m.reg.PaidChannels() {
		label := paidEntryName(entry)
		if label == "" {
			label = fmt.Sprintf("Paid channel %d", i+1)
		}
		rows = append(rows, keyboard.Row(keyboard.InlineBtn{
			Text:   "💎 " + label,
			Unique: CbJoinPaid,
			Data:   strconv.Itoa(i),
		}))
	}
	rows = append(rows, backRow(CbStartMember))
	return Screen{Text: "Please pick a paid channel:", Markup: keyboard.Inline(rows...)}
}

// paidEntryName extracts the display name out of a stored paid entry.
func paidEntryName(entry string) string {
	const tagOpen, tagClose = "<code>", "</code>"
	i := strings.Index(entry, tagOpen)
	if i < 0 {
		return ""
	}
	rest := entry[i+len(tagOpen):]
	j := strings.Index(rest, tagClose)
	if j < 0 {
		return ""
	}
	return html.UnescapeString(rest[:j])
}

// paidEntryLink extracts the invite link out of a stored paid entry.
func paidEntryLink(entry string) string {
	const open = "href='"
	i := strings.Index(entry, open)
	if i < 0 {
		return ""
	}
	rest := entry[i+len(open):]
	j := strings.Index(rest, "'")
	if j < 0 {
		return ""
	}
	return html.UnescapeString(rest[:j])
}

// prompt describes one ask_* data-entry entry point.
type prompt struct {
	role access.Role
	text string
	step state.State
	back string
}

// prompts maps every ask_* token to its role requirement, prompt text,
// wizard step and back target.
var prompts = map[string]prompt{
	CbAskBroadcast:   {access.Admin, "Send the message to deliver to all users:", wizard.StepBroadcast, CbAdminPanel},
	CbAskPost:        {access.Admin, "Send the message to post to all free channels:", wizard.StepPost, CbAdminPanel},
	CbAskAddAdmin:    {access.Owner, "Send the user id of the new admin:", wizard.StepAddAdmin, CbOwnerPanel},
	CbAskRemoveAdmin: {access.Owner, "Send the user id of the admin to remove:", wizard.StepRemoveAdmin, CbOwnerPanel},
	CbAskBlockUser:   {access.Owner, "Send the user id to block:", wizard.StepBlockUser, CbManageUsers},
	CbAskUnblockUser: {access.Owner, "Send the user id to unblock:", wizard.StepUnblockUser, CbManageUsers},
	CbAskAddFree:     {access.Admin, "Please send the name of the new free channel:", wizard.StepFreeName, CbManageFree},
	CbAskRemoveFree:  {access.Admin, "Send the number of the free channel to remove:", wizard.StepRemoveFreeNum, CbManageFree},
	CbAskAddPaid:     {access.Admin, "Please send the name of the new paid channel:", wizard.StepPaidName, CbManagePaid},
	CbAskRemovePaid:  {access.Admin, "Send the number of the paid channel to remove:", wizard.StepRemovePaidNum, CbManagePaid},
}

func promptScreen(p prompt) Screen {
	return Screen{Text: p.text, Markup: keyboard.Inline(backRow(p.back))}
}
