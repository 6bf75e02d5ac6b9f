// Package wizard runs the admin data-entry conversations. A user has at
// most one pending step; the next free-text message from that user is
// consumed by it. Multi-step flows carry their partial input in the session
// accumulator.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/gatebot/core/logger"
	"github.com/m3rciful/gatebot/core/telegram/state"
	"github.com/m3rciful/gatebot/internal/access"
	"github.com/m3rciful/gatebot/internal/broadcast"
	"github.com/m3rciful/gatebot/internal/store"
)

// Pending steps. One per data-entry conversation.
const (
	StepBroadcast     state.State = "awaiting_broadcast_message"
	StepPost          state.State = "awaiting_post_message"
	StepAddAdmin      state.State = "awaiting_add_admin_id"
	StepRemoveAdmin   state.State = "awaiting_remove_admin_id"
	StepBlockUser     state.State = "awaiting_block_user_id"
	StepUnblockUser   state.State = "awaiting_unblock_user_id"
	StepFreeName      state.State = "awaiting_free_channel_name"
	StepFreeLink      state.State = "awaiting_free_channel_link"
	StepFreeChatID    state.State = "awaiting_free_channel_chat_id"
	StepRemoveFreeNum state.State = "awaiting_remove_free_channel_num"
	StepPaidName      state.State = "awaiting_paid_channel_name"
	StepPaidLink      state.State = "awaiting_paid_channel_link"
	StepRemovePaidNum state.State = "awaiting_remove_paid_channel_num"
)

// Accumulator keys for the chained add-channel flows.
const (
	tempChannelName = "new_channel_name"
	tempChannelLink = "new_channel_link"
)

// ReplyFunc delivers one wizard response to the user who typed. html selects
// HTML parse mode.
type ReplyFunc func(text string, html bool) error

// Engine consumes pending steps against the registry.
type Engine struct {
	states state.Manager
	ev     *access.Evaluator
	reg    *store.Store
	caster *broadcast.Broadcaster
}

// New builds the wizard engine.
func New(states state.Manager, ev *access.Evaluator, reg *store.Store, caster *broadcast.Broadcaster) *Engine {
	return &Engine{states: states, ev: ev, reg: reg, caster: caster}
}

// Begin arms a pending step for the user, silently replacing any previous
// step together with its accumulator.
func (e *Engine) Begin(userID int64, step state.State) {
	e.states.Clear(userID)
	e.states.SetState(userID, step)
}

// Cancel drops the user's pending step and accumulator, if any.
func (e *Engine) Cancel(userID int64) {
	e.states.Clear(userID)
}

// InProgress reports whether the next text message from this user belongs to
// a wizard. Only admins ever have a live step; a demoted admin's leftover
// step is dead.
func (e *Engine) InProgress(userID int64) bool {
	return e.ev.IsAdmin(userID) && e.states.InProgress(userID)
}

// Consume processes one free-text message. It reports false when the text
// was not for the wizard (no pending step, or sender lost the admin role)
// so the dispatcher can route it elsewhere.
func (e *Engine) Consume(ctx context.Context, userID int64, text string, reply ReplyFunc) bool {
	if !e.InProgress(userID) {
		return false
	}
	step := e.states.GetState(userID)
	logger.Debug(ctx, "tg", "wizard.consume",
		slog.String("step", string(step)),
		slog.Int64("target_user_id", userID),
	)

	switch step {
	case StepBroadcast:
		e.states.Clear(userID)
		e.runBroadcast(ctx, text, reply)
	case StepPost:
		e.states.Clear(userID)
		e.runPost(ctx, text, reply)
	case StepAddAdmin, StepRemoveAdmin, StepBlockUser, StepUnblockUser:
		e.runUserMutation(ctx, userID, step, text, reply)
	case StepFreeName:
		e.states.SetTemp(userID, tempChannelName, text)
		e.states.SetState(userID, StepFreeLink)
		e.say(ctx, reply, "Name saved.\n\nNow send the invite link for this channel (https://t.me/+...):", false)
	case StepFreeLink:
		e.states.SetTemp(userID, tempChannelLink, text)
		e.states.SetState(userID, StepFreeChatID)
		e.say(ctx, reply, "Link saved.\n\nNow send the chat id for this channel (-100...):", false)
	case StepFreeChatID:
		e.finishAddFree(ctx, userID, text, reply)
	case StepRemoveFreeNum:
		e.removeFree(ctx, userID, text, reply)
	case StepPaidName:
		e.states.SetTemp(userID, tempChannelName, text)
		e.states.SetState(userID, StepPaidLink)
		e.say(ctx, reply, "Now send the invite link for this channel (https://t.me/+...):", false)
	case StepPaidLink:
		e.finishAddPaid(ctx, userID, text, reply)
	case StepRemovePaidNum:
		e.removePaid(ctx, userID, text, reply)
	default:
		// Unknown leftover step from an older build: drop it.
		e.states.Clear(userID)
		return false
	}
	return true
}

// say delivers one wizard line to the user. Delivery failure does not change
// the flow, but it is logged like any other outbound call failure.
func (e *Engine) say(ctx context.Context, reply ReplyFunc, text string, asHTML bool) {
	if err := reply(text, asHTML); err != nil {
		logger.Warn(ctx, "wizard", "reply.failed", slog.String("err", err.Error()))
	}
}

func (e *Engine) runBroadcast(ctx context.Context, text string, reply ReplyFunc) {
	e.say(ctx, reply, fmt.Sprintf("Sending the message to %d users...", e.caster.TargetCount()), false)
	sum := e.caster.ToUsers(ctx, text)
	e.say(ctx, reply, fmt.Sprintf("Broadcast complete.\nSuccess: %d, failed: %d", sum.Success, sum.Failed), false)
}

func (e *Engine) runPost(ctx context.Context, text string, reply ReplyFunc) {
	sum := e.caster.ToFreeChannels(ctx, text)
	report := fmt.Sprintf("The message was posted to %d channels.", sum.Success)
	if len(sum.FailedIDs) > 0 {
		ids := make([]string, len(sum.FailedIDs))
		for i, id := range sum.FailedIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		report += "\nFailed to post to: " + strings.Join(ids, ", ")
	}
	e.say(ctx, reply, report, false)
}

// runUserMutation handles the four owner-only one-step flows. The owner role
// is re-checked at consume time: an admin who somehow armed one of these
// steps gets silently dropped.
func (e *Engine) runUserMutation(ctx context.Context, userID int64, step state.State, text string, reply ReplyFunc) {
	if !e.ev.IsOwner(userID) {
		e.states.Clear(userID)
		return
	}
	targetID, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		e.say(ctx, reply, "Invalid user id. Send a numeric user id:", false)
		return
	}
	e.states.Clear(userID)

	switch step {
	case StepAddAdmin:
		switch err := e.reg.AddAdmin(ctx, targetID); {
		case errors.Is(err, store.ErrAlreadyAdmin):
			e.say(ctx, reply, "This user is already an admin.", false)
		case err == nil:
			e.say(ctx, reply, fmt.Sprintf("Admin %d added.", targetID), false)
		}
	case StepRemoveAdmin:
		switch err := e.reg.RemoveAdmin(ctx, targetID); {
		case errors.Is(err, store.ErrOwnerProtected):
			e.say(ctx, reply, "You cannot remove the owner.", false)
		case errors.Is(err, store.ErrNotAdmin):
			e.say(ctx, reply, "This user is not an admin.", false)
		case err == nil:
			e.say(ctx, reply, fmt.Sprintf("Admin %d removed.", targetID), false)
		}
	case StepBlockUser:
		switch err := e.reg.Block(ctx, targetID); {
		case errors.Is(err, store.ErrAdminProtected):
			e.say(ctx, reply, "You cannot block an admin or the owner.", false)
		case err == nil:
			e.say(ctx, reply, fmt.Sprintf("User %d blocked.", targetID), false)
		}
	case StepUnblockUser:
		switch err := e.reg.Unblock(ctx, targetID); {
		case errors.Is(err, store.ErrNotBlocked):
			e.say(ctx, reply, "This user is not on the block list.", false)
		case err == nil:
			e.say(ctx, reply, fmt.Sprintf("User %d unblocked.", targetID), false)
		}
	}
}

func (e *Engine) finishAddFree(ctx context.Context, userID int64, text string, reply ReplyFunc) {
	raw := strings.TrimSpace(text)
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		e.say(ctx, reply, "Invalid chat id. Send numbers only (-100...):", false)
		return
	}
	if !strings.HasPrefix(raw, "-100") {
		e.say(ctx, reply, "Invalid chat id. It must start with -100. Please try again:", false)
		return
	}

	name, okName := e.states.GetTemp(userID, tempChannelName)
	link, okLink := e.states.GetTemp(userID, tempChannelLink)
	e.states.Clear(userID)
	if !okName || !okLink {
		e.say(ctx, reply, "Some information was missing. Please start the flow again.", false)
		return
	}
	e.reg.AddFreeChannel(ctx, chatID, name, link)
	e.say(ctx, reply, fmt.Sprintf("Success! Free channel '%s' has been added.", name), false)
}

func (e *Engine) removeFree(ctx context.Context, userID int64, text string, reply ReplyFunc) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		e.say(ctx, reply, "Please send a number:", false)
		return
	}
	e.states.Clear(userID)
	removed, ok := e.reg.RemoveFreeChannel(ctx, n-1)
	if !ok {
		e.say(ctx, reply, "Invalid number.", false)
		return
	}
	e.say(ctx, reply, fmt.Sprintf("Free channel '%s' has been removed.", removed.Name), false)
}

func (e *Engine) finishAddPaid(ctx context.Context, userID int64, link string, reply ReplyFunc) {
	name, ok := e.states.GetTemp(userID, tempChannelName)
	e.states.Clear(userID)
	if !ok {
		name = "N/A"
	}
	e.reg.AddPaidChannel(ctx, RenderPaidEntry(name, link))
	e.say(ctx, reply, fmt.Sprintf("Paid channel '%s' has been added.", name), false)
}

func (e *Engine) removePaid(ctx context.Context, userID int64, text string, reply ReplyFunc) {
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		e.say(ctx, reply, "Please send a number:", false)
		return
	}
	e.states.Clear(userID)
	removed, ok := e.reg.RemovePaidChannel(ctx, n-1)
	if !ok {
		e.say(ctx, reply, "Invalid number.", false)
		return
	}
	e.say(ctx, reply, "Removed paid channel entry: "+removed, true)
}

// RenderPaidEntry builds the opaque HTML catalogue entry stored for a paid
// channel. Once stored, the entry is never parsed again, only displayed.
func RenderPaidEntry(name, link string) string {
	return fmt.Sprintf("<a href='%s'>💎<code>%s</code></a> - premium content.",
		html.EscapeString(link), html.EscapeString(name))
}
