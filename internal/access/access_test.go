package access

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/m3rciful/gatebot/internal/store"
)

func newEvaluator(t *testing.T) (*Evaluator, *store.Store) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bot_data.json")
	reg, err := store.Open(path, 100, []int64{200})
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	return NewEvaluator(reg), reg
}

func TestClassify(t *testing.T) {
	ev, reg := newEvaluator(t)
	if err := reg.Block(context.Background(), 400); err != nil {
		t.Fatalf("Block: %v", err)
	}

	cases := []struct {
		userID int64
		want   Role
	}{
		{100, Owner},
		{200, Admin},
		{300, Regular},
		{400, Blocked},
	}
	for _, tc := range cases {
		if got := ev.Classify(tc.userID); got != tc.want {
			t.Errorf("Classify(%d) = %v, want %v", tc.userID, got, tc.want)
		}
	}
}

func TestAllowsHierarchy(t *testing.T) {
	ev, _ := newEvaluator(t)

	if !ev.Allows(100, Admin) {
		t.Error("owner must satisfy admin requirement")
	}
	if !ev.Allows(200, Regular) {
		t.Error("admin must satisfy regular requirement")
	}
	if ev.Allows(200, Owner) {
		t.Error("admin must not satisfy owner requirement")
	}
	if ev.Allows(300, Admin) {
		t.Error("regular user must not satisfy admin requirement")
	}
}

func TestRoleTracksLiveMutations(t *testing.T) {
	ctx := context.Background()
	ev, reg := newEvaluator(t)

	if err := reg.AddAdmin(ctx, 300); err != nil {
		t.Fatalf("AddAdmin: %v", err)
	}
	if got := ev.Classify(300); got != Admin {
		t.Fatalf("after promote: %v", got)
	}
	if err := reg.RemoveAdmin(ctx, 300); err != nil {
		t.Fatalf("RemoveAdmin: %v", err)
	}
	if got := ev.Classify(300); got != Regular {
		t.Errorf("after demote: %v", got)
	}
}
