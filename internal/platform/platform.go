// Package platform narrows the Telegram Bot API down to the handful of calls
// the gate, kicker and broadcasters need. Handlers depend on the interface,
// the real bot satisfies it through the telebot adapter, and tests swap in
// counting fakes.
package platform

import "context"

// Status is a chat member status as reported by Telegram.
type Status string

const (
	StatusCreator       Status = "creator"
	StatusAdministrator Status = "administrator"
	StatusMember        Status = "member"
	StatusRestricted    Status = "restricted"
	StatusLeft          Status = "left"
	StatusKicked        Status = "kicked"
)

// MemberLike reports whether the status counts as being inside the chat.
// Restricted users are still members as far as the join gate is concerned.
func (s Status) MemberLike() bool {
	switch s {
	case StatusCreator, StatusAdministrator, StatusMember, StatusRestricted:
		return true
	default:
		return false
	}
}

// API is the platform surface handlers are written against.
type API interface {
	// SendText delivers a plain-text message to a chat or user.
	SendText(ctx context.Context, chatID int64, text string) error
	// SendHTML delivers an HTML-formatted message to a chat or user.
	SendHTML(ctx context.Context, chatID int64, text string) error
	// MemberStatus resolves a user's membership status in a chat.
	MemberStatus(ctx context.Context, chatID, userID int64) (Status, error)
	// Ban removes a user from a chat.
	Ban(ctx context.Context, chatID, userID int64) error
	// Unban lifts the ban so the user may rejoin through an invite link.
	Unban(ctx context.Context, chatID, userID int64) error
	// Leave makes the bot leave a chat.
	Leave(ctx context.Context, chatID int64) error
}
