package gate

import (
	"context"
	"strings"
	"testing"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/gatebot/internal/platform"
	"github.com/m3rciful/gatebot/internal/store"
)

// memberCtx implements the slice of tele.Context the tracker touches:
// the chat-member payload plus the Get/Set scratch space the logging
// context builder relies on. Everything else panics via the embedded nil.
type memberCtx struct {
	tele.Context
	upd  tele.Update
	data map[string]interface{}
}

func newMemberCtx(cm *tele.ChatMemberUpdate) *memberCtx {
	return &memberCtx{
		upd:  tele.Update{ID: 1, ChatMember: cm, MyChatMember: cm},
		data: make(map[string]interface{}),
	}
}

func (m *memberCtx) Update() tele.Update                { return m.upd }
func (m *memberCtx) ChatMember() *tele.ChatMemberUpdate { return m.upd.ChatMember }
func (m *memberCtx) Sender() *tele.User                 { return m.upd.ChatMember.Sender }
func (m *memberCtx) Chat() *tele.Chat                   { return m.upd.ChatMember.Chat }
func (m *memberCtx) Get(key string) interface{}         { return m.data[key] }
func (m *memberCtx) Set(key string, val interface{})    { m.data[key] = val }

func transition(chat *tele.Chat, user *tele.User, from, to platform.Status) *tele.ChatMemberUpdate {
	cm := &tele.ChatMemberUpdate{
		Chat:          chat,
		Sender:        user,
		NewChatMember: &tele.ChatMember{User: user, Role: tele.MemberStatus(to)},
	}
	if from != "" {
		cm.OldChatMember = &tele.ChatMember{User: user, Role: tele.MemberStatus(from)}
	}
	return cm
}

func TestBotMembershipUpdatesActiveChats(t *testing.T) {
	api, reg, ev := newFixture(t)
	tr := NewTracker(api, ev, reg, NewKicker(api, ev, reg), -1009, 0)

	chat := &tele.Chat{ID: -2001, Title: "Study Group"}
	bot := &tele.User{ID: 999}

	if err := tr.HandleMyChatMember(newMemberCtx(transition(chat, bot, "", platform.StatusAdministrator))); err != nil {
		t.Fatalf("join: %v", err)
	}
	chats := reg.ActiveChats()
	if len(chats) != 1 || chats[0].ID != -2001 || chats[0].Title != "Study Group" {
		t.Fatalf("active chats after join = %+v", chats)
	}

	if err := tr.HandleMyChatMember(newMemberCtx(transition(chat, bot, platform.StatusAdministrator, platform.StatusLeft))); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if got := reg.ActiveChats(); len(got) != 0 {
		t.Fatalf("active chats after leave = %+v", got)
	}
}

func TestLeavingMandatoryChannelTriggersKick(t *testing.T) {
	api, reg, ev := newFixture(t)
	ctx := context.Background()
	reg.AddFreeChannel(ctx, -3001, "Free A", "https://t.me/a")
	reg.AddFreeChannel(ctx, -3002, "Free B", "https://t.me/b")

	tr := NewTracker(api, ev, reg, NewKicker(api, ev, reg), -1009, 0)
	user := &tele.User{ID: 555}
	cm := transition(&tele.Chat{ID: -1009, Type: tele.ChatChannel}, user, platform.StatusMember, platform.StatusLeft)

	if err := tr.HandleChatMember(newMemberCtx(cm)); err != nil {
		t.Fatalf("HandleChatMember: %v", err)
	}
	if len(api.banned) != 2 || len(api.unbanned) != 2 {
		t.Fatalf("banned=%v unbanned=%v, expected both free channels", api.banned, api.unbanned)
	}
}

func TestJoinTransitionIsIgnored(t *testing.T) {
	api, reg, ev := newFixture(t)
	reg.AddFreeChannel(context.Background(), -3001, "Free A", "https://t.me/a")

	tr := NewTracker(api, ev, reg, NewKicker(api, ev, reg), -1009, 0)
	user := &tele.User{ID: 555}
	cm := transition(&tele.Chat{ID: -1009, Type: tele.ChatChannel}, user, platform.StatusLeft, platform.StatusMember)

	if err := tr.HandleChatMember(newMemberCtx(cm)); err != nil {
		t.Fatalf("HandleChatMember: %v", err)
	}
	if len(api.banned) != 0 {
		t.Fatalf("join must not kick, banned=%v", api.banned)
	}
}

func TestBlockingBotNotifiesAndEvicts(t *testing.T) {
	api, reg, ev := newFixture(t)
	ctx := context.Background()
	reg.AddFreeChannel(ctx, -3001, "Free A", "https://t.me/a")
	reg.UpsertUser(ctx, 555, store.Profile{FullName: "Ada Lovelace", Username: "ada_dir"})

	const logChannel = int64(-4001)
	tr := NewTracker(api, ev, reg, NewKicker(api, ev, reg), -1009, logChannel)
	// The update payload carries a different name: the note must render the
	// last-known directory profile, not the live update.
	user := &tele.User{ID: 555, FirstName: "Renamed", Username: "renamed"}
	cm := transition(&tele.Chat{ID: 555, Type: tele.ChatPrivate}, user, platform.StatusMember, platform.StatusKicked)

	if err := tr.HandleChatMember(newMemberCtx(cm)); err != nil {
		t.Fatalf("HandleChatMember: %v", err)
	}

	notes := api.sent[logChannel]
	if len(notes) != 1 {
		t.Fatalf("log channel notes = %v", notes)
	}
	if !strings.Contains(notes[0], "Ada Lovelace") || !strings.Contains(notes[0], "@ada_dir") || !strings.Contains(notes[0], "<code>555</code>") {
		t.Fatalf("note missing directory profile fields: %q", notes[0])
	}
	if strings.Contains(notes[0], "Renamed") {
		t.Fatalf("note rendered the update payload instead of the directory profile: %q", notes[0])
	}
	if reg.HasUser(555) {
		t.Fatal("blocked user must be evicted from the directory")
	}
	if len(api.banned) != 1 {
		t.Fatalf("banned=%v, expected the free channel", api.banned)
	}
}

func TestBlockNotificationFallsBackToUpdateUser(t *testing.T) {
	api, reg, ev := newFixture(t)

	const logChannel = int64(-4001)
	tr := NewTracker(api, ev, reg, NewKicker(api, ev, reg), -1009, logChannel)
	user := &tele.User{ID: 556, FirstName: "Grace", Username: "grace"}
	cm := transition(&tele.Chat{ID: 556, Type: tele.ChatPrivate}, user, platform.StatusMember, platform.StatusKicked)

	if err := tr.HandleChatMember(newMemberCtx(cm)); err != nil {
		t.Fatalf("HandleChatMember: %v", err)
	}
	notes := api.sent[logChannel]
	if len(notes) != 1 || !strings.Contains(notes[0], "Grace") || !strings.Contains(notes[0], "@grace") {
		t.Fatalf("expected fallback to the update user, notes = %v", notes)
	}
}

func TestAdminBlockTransitionHasNoSideEffects(t *testing.T) {
	api, reg, ev := newFixture(t)
	ctx := context.Background()
	reg.AddFreeChannel(ctx, -3001, "Free A", "https://t.me/a")
	reg.UpsertUser(ctx, 100, store.Profile{FullName: "Owner", Username: "owner"})

	const logChannel = int64(-4001)
	tr := NewTracker(api, ev, reg, NewKicker(api, ev, reg), -1009, logChannel)
	owner := &tele.User{ID: 100, FirstName: "Owner", Username: "owner"}
	cm := transition(&tele.Chat{ID: 100, Type: tele.ChatPrivate}, owner, platform.StatusMember, platform.StatusKicked)

	if err := tr.HandleChatMember(newMemberCtx(cm)); err != nil {
		t.Fatalf("HandleChatMember: %v", err)
	}
	if len(api.sent) != 0 {
		t.Fatalf("admin transition sent a block notification: %v", api.sent[logChannel])
	}
	if !reg.HasUser(100) {
		t.Fatal("admin directory entry was evicted")
	}
	if len(api.banned) != 0 {
		t.Fatalf("admin was kicked, banned=%v", api.banned)
	}
}

func TestBlockNotificationSkippedWithoutLogChannel(t *testing.T) {
	api, reg, ev := newFixture(t)
	reg.UpsertUser(context.Background(), 555, store.Profile{})

	tr := NewTracker(api, ev, reg, NewKicker(api, ev, reg), -1009, 0)
	user := &tele.User{ID: 555}
	cm := transition(&tele.Chat{ID: 555, Type: tele.ChatPrivate}, user, platform.StatusMember, platform.StatusKicked)

	if err := tr.HandleChatMember(newMemberCtx(cm)); err != nil {
		t.Fatalf("HandleChatMember: %v", err)
	}
	if len(api.sent) != 0 {
		t.Fatalf("no notification expected, sent=%v", api.sent)
	}
}
