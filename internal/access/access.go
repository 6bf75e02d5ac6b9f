// Package access classifies users into the roles that gate every command,
// callback and wizard step. Roles are never cached across updates; each
// check reads the live registry so demotions and blocks apply immediately.
package access

import "github.com/m3rciful/gatebot/internal/store"

// Role is a user's privilege tier, highest first.
type Role int

const (
	// Blocked users get no interaction at all.
	Blocked Role = iota
	// Regular users see the member surface only.
	Regular
	// Admin users manage catalogues and broadcasts.
	Admin
	// Owner is the single top-level operator; owner-only screens add
	// admin and user management on top of the admin surface.
	Owner
)

// String renders the role for logs.
func (r Role) String() string {
	switch r {
	case Owner:
		return "owner"
	case Admin:
		return "admin"
	case Regular:
		return "regular"
	default:
		return "blocked"
	}
}

// Evaluator resolves roles against the live registry.
type Evaluator struct {
	reg *store.Store
}

// NewEvaluator wires the evaluator to the registry.
func NewEvaluator(reg *store.Store) *Evaluator {
	return &Evaluator{reg: reg}
}

// Classify derives a user's current role. Owner and admin status win over
// the block list because the registry never lets an admin become blocked.
func (e *Evaluator) Classify(userID int64) Role {
	switch {
	case e.reg.IsOwner(userID):
		return Owner
	case e.reg.IsAdmin(userID):
		return Admin
	case e.reg.IsBlocked(userID):
		return Blocked
	default:
		return Regular
	}
}

// Allows reports whether a user's current role satisfies the requirement.
// Higher roles always satisfy lower requirements.
func (e *Evaluator) Allows(userID int64, required Role) bool {
	return e.Classify(userID) >= required
}

// IsOwner is a convenience predicate for owner-only routes.
func (e *Evaluator) IsOwner(userID int64) bool {
	return e.reg.IsOwner(userID)
}

// IsAdmin reports admin-or-higher.
func (e *Evaluator) IsAdmin(userID int64) bool {
	return e.reg.IsAdmin(userID)
}

// IsBlocked reports whether the user is on the block list.
func (e *Evaluator) IsBlocked(userID int64) bool {
	return e.reg.IsBlocked(userID)
}
