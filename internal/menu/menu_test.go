package menu

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/gatebot/core/telegram/state"
	"github.com/m3rciful/gatebot/internal/access"
	"github.com/m3rciful/gatebot/internal/broadcast"
	"github.com/m3rciful/gatebot/internal/gate"
	"github.com/m3rciful/gatebot/internal/platform"
	"github.com/m3rciful/gatebot/internal/store"
	"github.com/m3rciful/gatebot/internal/wizard"
)

type stubAPI struct{}

func (stubAPI) SendText(context.Context, int64, string) error { return nil }
func (stubAPI) SendHTML(context.Context, int64, string) error { return nil }
func (stubAPI) MemberStatus(context.Context, int64, int64) (platform.Status, error) {
	return platform.StatusMember, nil
}
func (stubAPI) Ban(context.Context, int64, int64) error   { return nil }
func (stubAPI) Unban(context.Context, int64, int64) error { return nil }
func (stubAPI) Leave(context.Context, int64) error        { return nil }

func newMenu(t *testing.T) (*Menu, *store.Store) {
	t.Helper()
	reg, err := store.Open(filepath.Join(t.TempDir(), "bot_data.json"), 100, nil)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	api := stubAPI{}
	ev := access.NewEvaluator(reg)
	g := gate.New(api, ev, -1009)
	k := gate.NewKicker(api, ev, reg)
	wiz := wizard.New(state.NewMemoryManager(), ev, reg, broadcast.New(api, reg))
	m := New(api, reg, ev, g, k, wiz, Options{
		MandatoryChannelLink: "https://t.me/mandatory",
		ContactAdminLink:     "https://t.me/contact",
	})
	return m, reg
}

func buttons(markup *tele.ReplyMarkup) []tele.InlineButton {
	var out []tele.InlineButton
	for _, row := range markup.InlineKeyboard {
		out = append(out, row...)
	}
	return out
}

func findButton(markup *tele.ReplyMarkup, unique string) (tele.InlineButton, bool) {
	for _, b := range buttons(markup) {
		if b.Unique == unique {
			return b, true
		}
	}
	return tele.InlineButton{}, false
}

func TestMemberMenuCarriesConfiguredLinks(t *testing.T) {
	m, _ := newMenu(t)
	s := m.memberMenu("Ana")

	if !strings.Contains(s.Text, "Ana") {
		t.Errorf("greeting missing name: %q", s.Text)
	}
	var urls []string
	for _, b := range buttons(s.Markup) {
		if b.URL != "" {
			urls = append(urls, b.URL)
		}
	}
	if len(urls) != 2 || urls[0] != "https://t.me/mandatory" || urls[1] != "https://t.me/contact" {
		t.Errorf("url buttons = %v", urls)
	}
	if _, ok := findButton(s.Markup, CbShowFree); !ok {
		t.Error("free channels button missing")
	}
	if _, ok := findButton(s.Markup, CbGetMyID); !ok {
		t.Error("my id button missing")
	}
}

func TestJoinPromptOffersVerifyButton(t *testing.T) {
	m, _ := newMenu(t)
	s := m.joinPrompt("Bo")

	if !s.HTML {
		t.Error("join prompt should render as HTML")
	}
	if _, ok := findButton(s.Markup, CbVerifyJoin); !ok {
		t.Error("verify button missing")
	}
}

func TestAdminPanelBackButtonOnlyForOwner(t *testing.T) {
	m, _ := newMenu(t)

	if _, ok := findButton(m.adminPanel(false).Markup, CbMainMenuOwner); ok {
		t.Error("plain admin must not see the back-to-owner button")
	}
	if _, ok := findButton(m.adminPanel(true).Markup, CbMainMenuOwner); !ok {
		t.Error("owner's admin panel must have a back button")
	}
}

func TestFreePickerPayloadsAreChatIDs(t *testing.T) {
	m, reg := newMenu(t)
	ctx := context.Background()
	reg.AddFreeChannel(ctx, -1001, "News", "l1")
	reg.AddFreeChannel(ctx, -1002, "Deals", "l2")

	s := m.freePicker()
	var payloads []string
	for _, b := range buttons(s.Markup) {
		if b.Unique == CbJoinFree {
			payloads = append(payloads, b.Data)
		}
	}
	if len(payloads) != 2 || payloads[0] != "-1001" || payloads[1] != "-1002" {
		t.Errorf("payloads = %v", payloads)
	}
}

func TestPaidPickerLabelsFromEntries(t *testing.T) {
	m, reg := newMenu(t)
	ctx := context.Background()
	reg.AddPaidChannel(ctx, wizard.RenderPaidEntry("VIP Batch", "https://t.me/+vip"))
	reg.AddPaidChannel(ctx, "malformed entry")

	s := m.paidPicker()
	var labels []string
	for _, b := range buttons(s.Markup) {
		if b.Unique == CbJoinPaid {
			labels = append(labels, b.Text)
		}
	}
	if len(labels) != 2 {
		t.Fatalf("labels = %v", labels)
	}
	if labels[0] != "💎 VIP Batch" {
		t.Errorf("first label = %q", labels[0])
	}
	// A malformed entry falls back to a positional label.
	if !strings.Contains(labels[1], "2") {
		t.Errorf("fallback label = %q", labels[1])
	}
}

func TestPaidEntryLinkRoundTrip(t *testing.T) {
	entry := wizard.RenderPaidEntry("Name", "https://t.me/+x?a=1&b=2")
	if got := paidEntryLink(entry); got != "https://t.me/+x?a=1&b=2" {
		t.Errorf("link = %q", got)
	}
	if got := paidEntryName(entry); got != "Name" {
		t.Errorf("name = %q", got)
	}
}

func TestUserListSkipsAdmins(t *testing.T) {
	m, reg := newMenu(t)
	ctx := context.Background()
	reg.UpsertUser(ctx, 100, store.Profile{FullName: "The Owner"})
	reg.UpsertUser(ctx, 300, store.Profile{FullName: "A User", Username: "auser"})

	s := m.userList()
	if strings.Contains(s.Text, "The Owner") {
		t.Error("admin leaked into the user list")
	}
	if !strings.Contains(s.Text, "@auser") {
		t.Errorf("regular user missing: %q", s.Text)
	}
}

func TestUserListEmptyStates(t *testing.T) {
	m, reg := newMenu(t)

	if got := m.userList().Text; got != "No users found." {
		t.Errorf("empty directory text = %q", got)
	}
	reg.UpsertUser(context.Background(), 100, store.Profile{FullName: "The Owner"})
	if got := m.userList().Text; got != "There are no users besides admins." {
		t.Errorf("admins-only text = %q", got)
	}
}

func TestJoinListScreenRows(t *testing.T) {
	m, reg := newMenu(t)
	ctx := context.Background()
	reg.SetActiveChat(ctx, -2001, "Group A")
	reg.SetActiveChat(ctx, -2002, "Group B")

	s := m.joinListScreen()
	var leaves []string
	for _, b := range buttons(s.Markup) {
		if b.Unique == CbLeaveChat {
			leaves = append(leaves, b.Data)
		}
	}
	if len(leaves) != 2 || leaves[0] != "-2002" || leaves[1] != "-2001" {
		t.Errorf("leave payloads = %v", leaves)
	}
	if _, ok := findButton(s.Markup, CbOwnerPanel); !ok {
		t.Error("back button missing")
	}
}

func TestStatsScreenCounts(t *testing.T) {
	m, reg := newMenu(t)
	ctx := context.Background()
	reg.UpsertUser(ctx, 300, store.Profile{})
	reg.UpsertUser(ctx, 301, store.Profile{})
	if err := reg.Block(ctx, 400); err != nil {
		t.Fatalf("Block: %v", err)
	}

	text := m.statsScreen().Text
	for _, want := range []string{"Total known users: 2", "Admins: 1", "Blocked users: 1"} {
		if !strings.Contains(text, want) {
			t.Errorf("stats missing %q in %q", want, text)
		}
	}
}

func TestActionTableRoleRequirements(t *testing.T) {
	m, _ := newMenu(t)
	table := m.actions()

	ownerOnly := []string{
		CbOwnerPanel, CbManageUsers, CbListAdmins, CbListUsers, CbListBlocked,
		CbBotStats, CbJoinList, CbLeaveChat, CbMainMenuOwner,
		CbAskAddAdmin, CbAskRemoveAdmin, CbAskBlockUser, CbAskUnblockUser,
	}
	for _, token := range ownerOnly {
		act, ok := table[token]
		if !ok {
			t.Errorf("token %q missing from table", token)
			continue
		}
		if act.role != access.Owner {
			t.Errorf("token %q role = %v, want Owner", token, act.role)
		}
	}

	adminOnly := []string{
		CbAdminPanel, CbManageFree, CbManagePaid, CbListFreeAdmin, CbListPaidAdmin,
		CbAskBroadcast, CbAskPost, CbAskAddFree, CbAskRemoveFree, CbAskAddPaid, CbAskRemovePaid,
	}
	for _, token := range adminOnly {
		if table[token].role != access.Admin {
			t.Errorf("token %q role = %v, want Admin", token, table[token].role)
		}
	}

	open := []string{CbVerifyJoin, CbGetMyID, CbStartMember, CbShowFree, CbShowPaid, CbJoinFree, CbJoinPaid, CbNoop}
	for _, token := range open {
		if table[token].role != access.Regular {
			t.Errorf("token %q role = %v, want Regular", token, table[token].role)
		}
	}
}

func TestPromptsArmDistinctSteps(t *testing.T) {
	seen := make(map[string]string)
	for token, p := range prompts {
		if prev, dup := seen[string(p.step)]; dup {
			t.Errorf("step %q armed by both %q and %q", p.step, prev, token)
		}
		seen[string(p.step)] = token
		if p.text == "" || p.back == "" {
			t.Errorf("prompt %q incomplete: %+v", token, p)
		}
	}
	if len(prompts) != 10 {
		t.Errorf("prompt table has %d entries, want 10", len(prompts))
	}
}
