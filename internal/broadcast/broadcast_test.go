package broadcast

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/m3rciful/gatebot/internal/platform"
	"github.com/m3rciful/gatebot/internal/store"
)

type fakeSender struct {
	failFor map[int64]error
	sent    []int64
}

func (f *fakeSender) SendText(ctx context.Context, chatID int64, text string) error {
	return f.SendHTML(ctx, chatID, text)
}

func (f *fakeSender) SendHTML(_ context.Context, chatID int64, _ string) error {
	if err := f.failFor[chatID]; err != nil {
		return err
	}
	f.sent = append(f.sent, chatID)
	return nil
}

func (f *fakeSender) MemberStatus(context.Context, int64, int64) (platform.Status, error) {
	return platform.StatusMember, nil
}
func (f *fakeSender) Ban(context.Context, int64, int64) error   { return nil }
func (f *fakeSender) Unban(context.Context, int64, int64) error { return nil }
func (f *fakeSender) Leave(context.Context, int64) error        { return nil }

func newFixture(t *testing.T) (*fakeSender, *store.Store) {
	t.Helper()
	reg, err := store.Open(filepath.Join(t.TempDir(), "bot_data.json"), 100, nil)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	return &fakeSender{failFor: make(map[int64]error)}, reg
}

func TestToUsersTallyAndContinuation(t *testing.T) {
	ctx := context.Background()
	api, reg := newFixture(t)
	reg.UpsertUser(ctx, 301, store.Profile{})
	reg.UpsertUser(ctx, 302, store.Profile{})
	reg.UpsertUser(ctx, 303, store.Profile{})
	api.failFor[302] = errors.New("blocked by user")

	sum := New(api, reg).ToUsers(ctx, "hello")

	if sum.Targets != 3 || sum.Success != 2 || sum.Failed != 1 {
		t.Errorf("summary = %+v, want targets=3 success=2 failed=1", sum)
	}
	// The target after the failing one must still have been attempted.
	if len(api.sent) != 2 || api.sent[1] != 303 {
		t.Errorf("sent = %v, want [301 303]", api.sent)
	}
}

func TestToUsersExcludesAdminsAndBlocked(t *testing.T) {
	ctx := context.Background()
	api, reg := newFixture(t)
	reg.UpsertUser(ctx, 100, store.Profile{}) // owner
	reg.UpsertUser(ctx, 301, store.Profile{})
	reg.UpsertUser(ctx, 302, store.Profile{})
	if err := reg.Block(ctx, 302); err != nil {
		t.Fatalf("Block: %v", err)
	}

	sum := New(api, reg).ToUsers(ctx, "hello")
	if sum.Targets != 1 || len(api.sent) != 1 || api.sent[0] != 301 {
		t.Errorf("summary=%+v sent=%v, want only 301", sum, api.sent)
	}
}

func TestToFreeChannelsReportsFailedIDs(t *testing.T) {
	ctx := context.Background()
	api, reg := newFixture(t)
	reg.AddFreeChannel(ctx, -1001, "A", "l1")
	reg.AddFreeChannel(ctx, -1002, "B", "l2")
	api.failFor[-1001] = errors.New("kicked from channel")

	sum := New(api, reg).ToFreeChannels(ctx, "post")

	if sum.Success != 1 {
		t.Errorf("success = %d, want 1", sum.Success)
	}
	if len(sum.FailedIDs) != 1 || sum.FailedIDs[0] != -1001 {
		t.Errorf("failed ids = %v, want [-1001]", sum.FailedIDs)
	}
}

func TestTargetCount(t *testing.T) {
	ctx := context.Background()
	api, reg := newFixture(t)
	reg.UpsertUser(ctx, 301, store.Profile{})
	reg.UpsertUser(ctx, 302, store.Profile{})

	if got := New(api, reg).TargetCount(); got != 2 {
		t.Errorf("TargetCount = %d, want 2", got)
	}
}
