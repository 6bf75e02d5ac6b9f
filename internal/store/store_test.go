package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T, ownerID int64, seedAdmins []int64) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bot_data.json")
	s, err := Open(path, ownerID, seedAdmins)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, path
}

func TestOpenFirstRunCreatesSnapshot(t *testing.T) {
	s, path := openTestStore(t, 100, []int64{200})

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot file not created: %v", err)
	}
	if !s.IsAdmin(100) {
		t.Error("owner should be seeded as admin")
	}
	if !s.IsAdmin(200) {
		t.Error("configured admin should be seeded")
	}
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, path := openTestStore(t, 100, nil)

	s.AddFreeChannel(ctx, -1001, "News", "https://t.me/+abc")
	s.AddFreeChannel(ctx, -1002, "Deals", "https://t.me/+def")
	s.AddPaidChannel(ctx, "VIP - contact admin")
	if err := s.Block(ctx, 555); err != nil {
		t.Fatalf("Block: %v", err)
	}
	s.SetActiveChat(ctx, -1003, "Support Group")
	s.UpsertUser(ctx, 777, Profile{FullName: "Some One", Username: "someone"})

	reopened, err := Open(path, 100, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	free := reopened.FreeChannels()
	if len(free) != 2 || free[0].ID != -1001 || free[1].ID != -1002 {
		t.Fatalf("free channels not preserved in order: %+v", free)
	}
	if free[0].Name != "News" || free[0].Link != "https://t.me/+abc" {
		t.Errorf("free channel fields lost: %+v", free[0])
	}
	if got := reopened.PaidChannels(); len(got) != 1 || got[0] != "VIP - contact admin" {
		t.Errorf("paid channels lost: %v", got)
	}
	if !reopened.IsBlocked(555) {
		t.Error("block list lost")
	}
	chats := reopened.ActiveChats()
	if len(chats) != 1 || chats[0].Title != "Support Group" {
		t.Errorf("active chats lost: %+v", chats)
	}
	users := reopened.Users()
	if len(users) != 1 || users[0].Profile.Username != "someone" {
		t.Errorf("user directory lost: %+v", users)
	}
}

func TestBlockRefusesOwnerAndAdmins(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t, 100, []int64{200})

	if err := s.Block(ctx, 100); !errors.Is(err, ErrAdminProtected) {
		t.Errorf("blocking owner: got %v, want ErrAdminProtected", err)
	}
	if err := s.Block(ctx, 200); !errors.Is(err, ErrAdminProtected) {
		t.Errorf("blocking admin: got %v, want ErrAdminProtected", err)
	}
	if err := s.Block(ctx, 300); err != nil {
		t.Errorf("blocking regular user: %v", err)
	}
}

func TestAdminLifecycle(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t, 100, nil)

	if err := s.AddAdmin(ctx, 200); err != nil {
		t.Fatalf("AddAdmin: %v", err)
	}
	if err := s.AddAdmin(ctx, 200); !errors.Is(err, ErrAlreadyAdmin) {
		t.Errorf("duplicate promote: got %v", err)
	}
	if err := s.RemoveAdmin(ctx, 100); !errors.Is(err, ErrOwnerProtected) {
		t.Errorf("demoting owner: got %v", err)
	}
	if err := s.RemoveAdmin(ctx, 999); !errors.Is(err, ErrNotAdmin) {
		t.Errorf("demoting non-admin: got %v", err)
	}
	if err := s.RemoveAdmin(ctx, 200); err != nil {
		t.Fatalf("RemoveAdmin: %v", err)
	}
	if s.IsAdmin(200) {
		t.Error("user still admin after demotion")
	}
}

func TestUnblockNotBlocked(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t, 100, nil)
	if err := s.Unblock(ctx, 42); !errors.Is(err, ErrNotBlocked) {
		t.Errorf("got %v, want ErrNotBlocked", err)
	}
}

func TestRemoveFreeChannelByPosition(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t, 100, nil)
	s.AddFreeChannel(ctx, -1001, "First", "l1")
	s.AddFreeChannel(ctx, -1002, "Second", "l2")

	removed, ok := s.RemoveFreeChannel(ctx, 0)
	if !ok || removed.Name != "First" {
		t.Fatalf("remove at 0: ok=%v removed=%+v", ok, removed)
	}
	if _, ok := s.RemoveFreeChannel(ctx, 5); ok {
		t.Error("out-of-range removal should report false")
	}
	left := s.FreeChannels()
	if len(left) != 1 || left[0].ID != -1002 {
		t.Errorf("remaining catalogue wrong: %+v", left)
	}
}

func TestBroadcastTargetsExcludeAdminsAndBlocked(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t, 100, nil)
	s.UpsertUser(ctx, 100, Profile{FullName: "Owner"})
	s.UpsertUser(ctx, 300, Profile{FullName: "Normal"})
	s.UpsertUser(ctx, 400, Profile{FullName: "Bad"})
	if err := s.Block(ctx, 400); err != nil {
		t.Fatalf("Block: %v", err)
	}

	targets := s.BroadcastTargets()
	if len(targets) != 1 || targets[0] != 300 {
		t.Errorf("targets = %v, want [300]", targets)
	}
}

func TestCorruptSnapshotFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot_data.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Open(path, 100, nil)
	if err != nil {
		t.Fatalf("Open with corrupt file: %v", err)
	}
	if !s.IsAdmin(100) {
		t.Error("defaults not applied after corrupt snapshot")
	}
	// The broken file must survive untouched for manual recovery.
	raw, err := os.ReadFile(path)
	if err != nil || string(raw) != "{not json" {
		t.Errorf("corrupt snapshot was rewritten: %q err=%v", raw, err)
	}
}

func TestSnapshotShapeOnDisk(t *testing.T) {
	ctx := context.Background()
	s, path := openTestStore(t, 100, nil)
	s.AddFreeChannel(ctx, -1001, "News", "link")

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]json.RawMessage
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("snapshot is not valid JSON: %v", err)
	}
	for _, key := range []string{
		"admin_ids", "free_channels", "free_channel_links",
		"paid_channels", "blocked_user_ids", "active_chats", "users",
	} {
		if _, ok := got[key]; !ok {
			t.Errorf("snapshot missing key %q", key)
		}
	}
}
