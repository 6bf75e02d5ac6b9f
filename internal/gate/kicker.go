package gate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hashicorp/go-multierror"

	"github.com/m3rciful/gatebot/core/logger"
	"github.com/m3rciful/gatebot/internal/access"
	"github.com/m3rciful/gatebot/internal/platform"
	"github.com/m3rciful/gatebot/internal/store"
)

// KickResult is the outcome of removing one user from one free channel.
type KickResult struct {
	ChatID int64
	Err    error
}

// Kicker removes a user from every free channel when they stop satisfying
// the join gate.
type Kicker struct {
	api platform.API
	ev  *access.Evaluator
	reg *store.Store
}

// NewKicker builds the removal worker.
func NewKicker(api platform.API, ev *access.Evaluator, reg *store.Store) *Kicker {
	return &Kicker{api: api, ev: ev, reg: reg}
}

// KickFromFreeChannels bans and immediately unbans the user in each free
// channel. The ban evicts them; the unban clears the ban record so they can
// rejoin through an invite link after passing the gate again. Each channel
// is handled independently: a failure in one never stops the rest. Admins
// are never kicked.
func (k *Kicker) KickFromFreeChannels(ctx context.Context, userID int64) []KickResult {
	if k.ev.IsAdmin(userID) {
		return nil
	}
	channelIDs := k.reg.FreeChannelIDs()
	results := make([]KickResult, 0, len(channelIDs))
	for _, chatID := range channelIDs {
		err := k.api.Ban(ctx, chatID, userID)
		if err == nil {
			err = k.api.Unban(ctx, chatID, userID)
		}
		results = append(results, KickResult{ChatID: chatID, Err: err})
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	logger.Info(ctx, "kick", "kick.done",
		slog.Int64("target_user_id", userID),
		slog.Int("channels", len(results)),
		slog.Int("failed", failed),
	)
	if err := CombinedError(results); err != nil {
		logger.Warn(ctx, "kick", "kick.partial_failure",
			slog.Int64("target_user_id", userID),
			slog.String("err", err.Error()),
		)
	}
	return results
}

// CombinedError folds the per-channel failures into one error, nil when
// every channel succeeded.
func CombinedError(results []KickResult) error {
	var merr *multierror.Error
	for _, r := range results {
		if r.Err != nil {
			merr = multierror.Append(merr, fmt.Errorf("channel %d: %w", r.ChatID, r.Err))
		}
	}
	return merr.ErrorOrNil()
}
