package state

// State identifies a pending conversation step for a user.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Session stores the pending step and temporary data for a user.
type Session struct {
	State    State
	TempData map[string]string
}

// Manager orchestrates user sessions and step transitions. A user has at
// most one pending step; setting a new one replaces the previous.
type Manager interface {
	SetState(userID int64, st State)
	GetState(userID int64) State
	HasState(userID int64) bool
	ClearState(userID int64)

	SetTemp(userID int64, key, value string)
	GetTemp(userID int64, key string) (string, bool)
	ClearTemp(userID int64, key string)

	// Clear removes the whole session: pending step and accumulator.
	Clear(userID int64)

	InProgress(userID int64) bool
}
