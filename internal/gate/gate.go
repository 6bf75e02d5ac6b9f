// Package gate enforces the mandatory-channel membership requirement and
// carries out the cascading removal of users who no longer satisfy it.
package gate

import (
	"context"
	"log/slog"

	"github.com/m3rciful/gatebot/core/logger"
	"github.com/m3rciful/gatebot/internal/access"
	"github.com/m3rciful/gatebot/internal/platform"
)

// Gate answers the one question the member surface hangs on: is this user
// currently inside the mandatory channel.
type Gate struct {
	api       platform.API
	ev        *access.Evaluator
	channelID int64
}

// New builds a gate against the mandatory channel.
func New(api platform.API, ev *access.Evaluator, mandatoryChannelID int64) *Gate {
	return &Gate{api: api, ev: ev, channelID: mandatoryChannelID}
}

// ChannelID returns the mandatory channel id the gate checks against.
func (g *Gate) ChannelID() int64 {
	return g.channelID
}

// IsMember reports whether the user currently passes the join gate. Admins
// pass without a platform call. Every other user costs one getChatMember
// round-trip; the result is never cached. Any platform error fails closed:
// the user is treated as a non-member and asked to join again.
func (g *Gate) IsMember(ctx context.Context, userID int64) bool {
	if g.ev.IsAdmin(userID) {
		return true
	}
	status, err := g.api.MemberStatus(ctx, g.channelID, userID)
	if err != nil {
		logger.Warn(ctx, "gate", "membership.check_failed",
			slog.Int64("channel_id", g.channelID),
			slog.Int64("target_user_id", userID),
			slog.String("err", err.Error()),
		)
		return false
	}
	return status.MemberLike()
}
