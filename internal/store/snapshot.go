package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/m3rciful/gatebot/core/logger"
)

// snapshot is the on-disk form of the whole registry. One file, rewritten in
// full on every mutation; there is no incremental log.
type snapshot struct {
	AdminIDs         []int64           `json:"admin_ids"`
	FreeChannelOrder []int64           `json:"free_channel_order"`
	FreeChannels     map[int64]string  `json:"free_channels"`
	FreeChannelLinks map[int64]string  `json:"free_channel_links"`
	PaidChannels     []string          `json:"paid_channels"`
	BlockedUserIDs   []int64           `json:"blocked_user_ids"`
	ActiveChats      map[int64]string  `json:"active_chats"`
	Users            map[int64]Profile `json:"users"`
}

// load reads the snapshot file into the store. A missing file is first run:
// the defaults are checkpointed immediately so the path is writable from the
// start. A file that fails to parse is kept on disk untouched and the store
// continues with defaults.
func (s *Store) load() error {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		logger.Info(context.Background(), "store", "snapshot.first_run",
			slog.String("path", s.path))
		if werr := s.writeSnapshotLocked(); werr != nil {
			return fmt.Errorf("create snapshot %s: %w", s.path, werr)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", s.path, err)
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		logger.Error(context.Background(), "store", "snapshot.corrupt",
			slog.String("path", s.path),
			slog.String("err", err.Error()),
		)
		return nil
	}
	s.apply(snap)
	logger.Info(context.Background(), "store", "snapshot.loaded",
		slog.String("path", s.path),
		slog.Int("users", len(s.users)),
		slog.Int("free_channels", len(s.freeOrder)),
		slog.Int("admins", len(s.adminIDs)),
	)
	return nil
}

func (s *Store) apply(snap snapshot) {
	if snap.AdminIDs != nil {
		s.adminIDs = snap.AdminIDs
	}
	s.ensureOwner()

	if snap.FreeChannels != nil {
		s.freeNames = snap.FreeChannels
	}
	if snap.FreeChannelLinks != nil {
		s.freeLinks = snap.FreeChannelLinks
	}
	s.freeOrder = normalizeOrder(snap.FreeChannelOrder, s.freeNames)

	if snap.PaidChannels != nil {
		s.paid = snap.PaidChannels
	}
	s.blocked = make(map[int64]struct{}, len(snap.BlockedUserIDs))
	for _, id := range snap.BlockedUserIDs {
		s.blocked[id] = struct{}{}
	}
	if snap.ActiveChats != nil {
		s.activeChats = snap.ActiveChats
	}
	if snap.Users != nil {
		s.users = snap.Users
	}
}

// normalizeOrder keeps only ids still present in the catalogue and appends
// any catalogue ids a stale order list missed, sorted for determinism.
func normalizeOrder(order []int64, names map[int64]string) []int64 {
	out := make([]int64, 0, len(names))
	seen := make(map[int64]struct{}, len(names))
	for _, id := range order {
		if _, ok := names[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	var missing []int64
	for id := range names {
		if _, ok := seen[id]; !ok {
			missing = append(missing, id)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return append(out, missing...)
}

// writeSnapshotLocked serializes the registry and replaces the snapshot file
// atomically via a temp file in the same directory. Callers hold s.mu.
func (s *Store) writeSnapshotLocked() error {
	snap := snapshot{
		AdminIDs:         s.adminIDs,
		FreeChannelOrder: s.freeOrder,
		FreeChannels:     s.freeNames,
		FreeChannelLinks: s.freeLinks,
		PaidChannels:     s.paid,
		BlockedUserIDs:   sortedIDs(s.blocked),
		ActiveChats:      s.activeChats,
		Users:            s.users,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot %s: %w", s.path, err)
	}
	return nil
}

func sortedIDs(set map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
