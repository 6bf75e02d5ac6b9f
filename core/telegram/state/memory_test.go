package state

import "testing"

func TestSingleSlotState(t *testing.T) {
	m := NewMemoryManager()
	const user = int64(100)

	if m.InProgress(user) {
		t.Fatal("fresh user must be idle")
	}

	m.SetState(user, State("step_a"))
	m.SetState(user, State("step_b"))
	if got := m.GetState(user); got != State("step_b") {
		t.Fatalf("state = %q, new step must replace the previous", got)
	}

	m.ClearState(user)
	if m.InProgress(user) {
		t.Fatal("expected idle after ClearState")
	}
}

func TestTempDataSurvivesClearState(t *testing.T) {
	m := NewMemoryManager()
	const user = int64(7)

	m.SetState(user, State("step"))
	m.SetTemp(user, "name", "Batch A")
	m.ClearState(user)

	if v, ok := m.GetTemp(user, "name"); !ok || v != "Batch A" {
		t.Fatalf("temp = %q, %v; ClearState must keep accumulated data", v, ok)
	}

	m.Clear(user)
	if _, ok := m.GetTemp(user, "name"); ok {
		t.Fatal("Clear must drop accumulated data")
	}
}

func TestSessionsIsolatedPerUser(t *testing.T) {
	m := NewMemoryManager()
	m.SetState(1, State("a"))
	m.SetTemp(1, "k", "v")

	if m.InProgress(2) {
		t.Fatal("user 2 must not inherit user 1 state")
	}
	if _, ok := m.GetTemp(2, "k"); ok {
		t.Fatal("user 2 must not see user 1 temp data")
	}
}
