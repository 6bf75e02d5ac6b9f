// Package store is the durable registry behind the bot: admins, the free and
// paid channel catalogues, the block list, chats the bot participates in,
// and the directory of users it has seen. Every mutation is checkpointed
// synchronously into a single JSON snapshot file.
package store

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/m3rciful/gatebot/core/logger"
)

var (
	// ErrOwnerProtected is returned for mutations that would demote the owner.
	ErrOwnerProtected = errors.New("store: owner cannot be removed")
	// ErrAdminProtected is returned when blocking an admin or the owner.
	ErrAdminProtected = errors.New("store: admins cannot be blocked")
	// ErrAlreadyAdmin is returned when promoting an existing admin.
	ErrAlreadyAdmin = errors.New("store: user is already an admin")
	// ErrNotAdmin is returned when demoting a user who is not an admin.
	ErrNotAdmin = errors.New("store: user is not an admin")
	// ErrNotBlocked is returned when unblocking a user who is not blocked.
	ErrNotBlocked = errors.New("store: user is not blocked")
)

// Profile is the best-known identity of a user who talked to the bot.
type Profile struct {
	FullName string `json:"full_name"`
	Username string `json:"username"`
}

// FreeChannel is one catalogue entry in listing order.
type FreeChannel struct {
	ID   int64
	Name string
	Link string
}

// ActiveChat is a chat the bot currently has membership in.
type ActiveChat struct {
	ID    int64
	Title string
}

// UserEntry pairs a directory profile with its user id.
type UserEntry struct {
	ID      int64
	Profile Profile
}

// Stats summarizes the user directory for the owner panel.
type Stats struct {
	TotalUsers  int
	Admins      int
	NormalUsers int
	Blocked     int
}

// Store holds the registry in memory and mirrors it to the snapshot file.
// A single mutex serializes every read-modify-write together with its
// checkpoint, so concurrent handlers never interleave inside one mutation.
type Store struct {
	mu      sync.Mutex
	path    string
	ownerID int64

	adminIDs    []int64
	freeOrder   []int64
	freeNames   map[int64]string
	freeLinks   map[int64]string
	paid        []string
	blocked     map[int64]struct{}
	activeChats map[int64]string
	users       map[int64]Profile
}

// Open loads the snapshot at path, creating it from defaults on first run.
// seedAdmins come from configuration; the owner is always appended. A file
// that fails to parse is left untouched and the defaults are used.
func Open(path string, ownerID int64, seedAdmins []int64) (*Store, error) {
	s := &Store{
		path:        path,
		ownerID:     ownerID,
		freeNames:   make(map[int64]string),
		freeLinks:   make(map[int64]string),
		blocked:     make(map[int64]struct{}),
		activeChats: make(map[int64]string),
		users:       make(map[int64]Profile),
	}
	for _, id := range seedAdmins {
		if !containsID(s.adminIDs, id) {
			s.adminIDs = append(s.adminIDs, id)
		}
	}
	s.ensureOwner()

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureOwner() {
	if s.ownerID != 0 && !containsID(s.adminIDs, s.ownerID) {
		s.adminIDs = append(s.adminIDs, s.ownerID)
	}
}

// OwnerID returns the configured owner id.
func (s *Store) OwnerID() int64 {
	return s.ownerID
}

// IsOwner reports whether id is the configured owner.
func (s *Store) IsOwner(id int64) bool {
	return s.ownerID != 0 && id == s.ownerID
}

// IsAdmin reports whether id has admin privileges (the owner always does).
func (s *Store) IsAdmin(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return containsID(s.adminIDs, id)
}

// Admins returns the admin ids in promotion order.
func (s *Store) Admins() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, len(s.adminIDs))
	copy(out, s.adminIDs)
	return out
}

// AddAdmin promotes a user and checkpoints.
func (s *Store) AddAdmin(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if containsID(s.adminIDs, id) {
		return ErrAlreadyAdmin
	}
	s.adminIDs = append(s.adminIDs, id)
	s.checkpointLocked(ctx)
	return nil
}

// RemoveAdmin demotes a user and checkpoints. The owner cannot be demoted.
func (s *Store) RemoveAdmin(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.IsOwner(id) {
		return ErrOwnerProtected
	}
	idx := indexOfID(s.adminIDs, id)
	if idx < 0 {
		return ErrNotAdmin
	}
	s.adminIDs = append(s.adminIDs[:idx], s.adminIDs[idx+1:]...)
	s.checkpointLocked(ctx)
	return nil
}

// Block adds a user to the block list and checkpoints. The owner and admins
// can never be blocked; this is an invariant of the store, not only a
// courtesy check in the block wizard.
func (s *Store) Block(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.IsOwner(id) || containsID(s.adminIDs, id) {
		return ErrAdminProtected
	}
	s.blocked[id] = struct{}{}
	s.checkpointLocked(ctx)
	return nil
}

// Unblock removes a user from the block list and checkpoints.
func (s *Store) Unblock(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blocked[id]; !ok {
		return ErrNotBlocked
	}
	delete(s.blocked, id)
	s.checkpointLocked(ctx)
	return nil
}

// IsBlocked reports whether id is on the block list.
func (s *Store) IsBlocked(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blocked[id]
	return ok
}

// BlockedIDs returns the block list sorted for stable rendering.
func (s *Store) BlockedIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.blocked))
	for id := range s.blocked {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AddFreeChannel inserts or replaces a free channel entry and checkpoints.
func (s *Store) AddFreeChannel(ctx context.Context, id int64, name, link string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.freeNames[id]; !exists {
		s.freeOrder = append(s.freeOrder, id)
	}
	s.freeNames[id] = name
	s.freeLinks[id] = link
	s.checkpointLocked(ctx)
}

// RemoveFreeChannel drops the entry at the 0-based position and checkpoints.
func (s *Store) RemoveFreeChannel(ctx context.Context, index int) (FreeChannel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.freeOrder) {
		return FreeChannel{}, false
	}
	id := s.freeOrder[index]
	removed := FreeChannel{ID: id, Name: s.freeNames[id], Link: s.freeLinks[id]}
	s.freeOrder = append(s.freeOrder[:index], s.freeOrder[index+1:]...)
	delete(s.freeNames, id)
	delete(s.freeLinks, id)
	s.checkpointLocked(ctx)
	return removed, true
}

// FreeChannels returns the catalogue in listing order.
func (s *Store) FreeChannels() []FreeChannel {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FreeChannel, 0, len(s.freeOrder))
	for _, id := range s.freeOrder {
		out = append(out, FreeChannel{ID: id, Name: s.freeNames[id], Link: s.freeLinks[id]})
	}
	return out
}

// FreeChannelIDs returns the channel ids in listing order.
func (s *Store) FreeChannelIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, len(s.freeOrder))
	copy(out, s.freeOrder)
	return out
}

// FreeLink returns the invite link for a channel id. A catalogue entry with
// no link is valid but degraded: the join button cannot be offered.
func (s *Store) FreeLink(id int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.freeLinks[id]
	return link, ok && link != ""
}

// FreeName returns the display name for a channel id.
func (s *Store) FreeName(id int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name, ok := s.freeNames[id]
	return name, ok
}

// AddPaidChannel appends one pre-rendered paid catalogue entry and checkpoints.
func (s *Store) AddPaidChannel(ctx context.Context, entry string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paid = append(s.paid, entry)
	s.checkpointLocked(ctx)
}

// RemovePaidChannel drops the entry at the 0-based position and checkpoints.
func (s *Store) RemovePaidChannel(ctx context.Context, index int) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.paid) {
		return "", false
	}
	removed := s.paid[index]
	s.paid = append(s.paid[:index], s.paid[index+1:]...)
	s.checkpointLocked(ctx)
	return removed, true
}

// PaidChannels returns the paid catalogue in listing order.
func (s *Store) PaidChannels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.paid))
	copy(out, s.paid)
	return out
}

// SetActiveChat records the bot's membership in a chat and checkpoints.
func (s *Store) SetActiveChat(ctx context.Context, id int64, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeChats[id] = title
	s.checkpointLocked(ctx)
}

// RemoveActiveChat forgets a chat and checkpoints. Reports whether the chat
// was known.
func (s *Store) RemoveActiveChat(ctx context.Context, id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.activeChats[id]; !ok {
		return false
	}
	delete(s.activeChats, id)
	s.checkpointLocked(ctx)
	return true
}

// ActiveChats returns the known chats sorted by id for stable rendering.
func (s *Store) ActiveChats() []ActiveChat {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ActiveChat, 0, len(s.activeChats))
	for id, title := range s.activeChats {
		out = append(out, ActiveChat{ID: id, Title: title})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UpsertUser refreshes the directory profile for a user and checkpoints.
func (s *Store) UpsertUser(ctx context.Context, id int64, p Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = p
	s.checkpointLocked(ctx)
}

// RemoveUser evicts a directory entry, returning the last-known profile so
// callers can still report who left.
func (s *Store) RemoveUser(ctx context.Context, id int64) (Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.users[id]
	if !ok {
		return Profile{}, false
	}
	delete(s.users, id)
	s.checkpointLocked(ctx)
	return p, true
}

// HasUser reports whether the directory knows this user.
func (s *Store) HasUser(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[id]
	return ok
}

// Users returns the directory sorted by user id.
func (s *Store) Users() []UserEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]UserEntry, 0, len(s.users))
	for id, p := range s.users {
		out = append(out, UserEntry{ID: id, Profile: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// BroadcastTargets returns every known non-admin, non-blocked user id.
func (s *Store) BroadcastTargets() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int64, 0, len(s.users))
	for id := range s.users {
		if containsID(s.adminIDs, id) {
			continue
		}
		if _, blocked := s.blocked[id]; blocked {
			continue
		}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// UserStats summarizes directory counts for the owner panel.
func (s *Store) UserStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := len(s.users)
	admins := len(s.adminIDs)
	return Stats{
		TotalUsers:  total,
		Admins:      admins,
		NormalUsers: total - admins,
		Blocked:     len(s.blocked),
	}
}

func (s *Store) checkpointLocked(ctx context.Context) {
	if err := s.writeSnapshotLocked(); err != nil {
		logger.Error(ctx, "store", "checkpoint.failed",
			slog.String("path", s.path),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.Debug(ctx, "store", "checkpoint.saved", slog.String("path", s.path))
}

func containsID(ids []int64, id int64) bool {
	return indexOfID(ids, id) >= 0
}

func indexOfID(ids []int64, id int64) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
