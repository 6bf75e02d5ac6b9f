// Package state provides a lightweight per-user conversation state manager.
// It is intentionally domain-agnostic so it can be reused across bots.
package state
