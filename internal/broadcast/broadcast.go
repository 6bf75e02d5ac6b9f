// Package broadcast fans one message out to every eligible user, or one post
// out to every free channel. Fan-out is synchronous and sequential; each
// target is independent and a failure never stops the rest.
package broadcast

import (
	"context"
	"log/slog"

	"github.com/m3rciful/gatebot/core/logger"
	"github.com/m3rciful/gatebot/internal/platform"
	"github.com/m3rciful/gatebot/internal/store"
)

// Summary is the outcome of a user broadcast.
type Summary struct {
	Targets int
	Success int
	Failed  int
}

// PostSummary is the outcome of a channel post, keeping the ids that failed
// so the admin can see which channels missed the post.
type PostSummary struct {
	Success   int
	FailedIDs []int64
}

// Broadcaster delivers admin-authored messages.
type Broadcaster struct {
	api platform.API
	reg *store.Store
}

// New builds a broadcaster over the registry.
func New(api platform.API, reg *store.Store) *Broadcaster {
	return &Broadcaster{api: api, reg: reg}
}

// TargetCount returns how many users a broadcast would reach right now.
func (b *Broadcaster) TargetCount() int {
	return len(b.reg.BroadcastTargets())
}

// ToUsers sends text to every known non-admin, non-blocked user and returns
// the success/failure tally. Users who blocked the bot simply count as
// failures; eviction of their directory entries is the tracker's job.
func (b *Broadcaster) ToUsers(ctx context.Context, text string) Summary {
	targets := b.reg.BroadcastTargets()
	sum := Summary{Targets: len(targets)}
	for _, userID := range targets {
		if err := b.api.SendHTML(ctx, userID, text); err != nil {
			sum.Failed++
			logger.Debug(ctx, "cast", "broadcast.send_failed",
				slog.Int64("target_user_id", userID),
				slog.String("err", err.Error()),
			)
			continue
		}
		sum.Success++
	}
	logger.Info(ctx, "cast", "broadcast.done",
		slog.Int("targets", sum.Targets),
		slog.Int("success", sum.Success),
		slog.Int("failed", sum.Failed),
	)
	return sum
}

// ToFreeChannels posts text to every free channel in catalogue order.
func (b *Broadcaster) ToFreeChannels(ctx context.Context, text string) PostSummary {
	var sum PostSummary
	for _, chatID := range b.reg.FreeChannelIDs() {
		if err := b.api.SendHTML(ctx, chatID, text); err != nil {
			sum.FailedIDs = append(sum.FailedIDs, chatID)
			logger.Warn(ctx, "cast", "post.send_failed",
				slog.Int64("chat_id", chatID),
				slog.String("err", err.Error()),
			)
			continue
		}
		sum.Success++
	}
	logger.Info(ctx, "cast", "post.done",
		slog.Int("success", sum.Success),
		slog.Int("failed", len(sum.FailedIDs)),
	)
	return sum
}
