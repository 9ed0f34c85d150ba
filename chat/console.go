package chat

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/streamroom/streamroom-api/databases"
	"github.com/streamroom/streamroom-api/models"
)

// Moderation action kinds accepted by the console.
const (
	ActionApprove = "approve"
	ActionDelete  = "delete"
	ActionBan     = "ban"
	ActionReplace = "replace"
)

// ActionExtra carries the per-kind extras of a moderation action.
type ActionExtra struct {
	Username string
	Text     string
}

// Console is the admin-facing moderation surface. Each action consumes one
// queue reference exactly once: of two racing actions against the same
// reference, one succeeds and the other observes ErrNotFound.
type Console struct {
	History    databases.HistoryDatabase
	Moderation databases.ModerationDatabase
	Hub        *Hub
}

// NewConsole wires a console over the given stores and broadcaster
func NewConsole(history databases.HistoryDatabase, moderation databases.ModerationDatabase, hub *Hub) *Console {
	return &Console{History: history, Moderation: moderation, Hub: hub}
}

// Queue returns every pending flagged entry for a room, each carrying its
// one-shot reference token.
func (c *Console) Queue(ctx context.Context, roomID string) ([]models.QueuedEntry, error) {
	if roomID == "" {
		return nil, ErrInvalidInput
	}
	return c.Moderation.Queue(ctx, roomID)
}

// Action resolves one queued entry. The kind and its extras are validated
// before the queue removal commits, so an unknown kind or missing extra
// leaves the entry queued instead of silently dropping it. After removal,
// approve and replace append to history and rebroadcast; ban adds the
// username to the ban set; delete discards.
func (c *Console) Action(ctx context.Context, roomID, raw, kind string, extra ActionExtra) error {
	if roomID == "" || raw == "" {
		return ErrInvalidInput
	}
	switch kind {
	case ActionApprove, ActionDelete:
	case ActionBan:
		if extra.Username == "" {
			return ErrInvalidInput
		}
	case ActionReplace:
		if extra.Text == "" {
			return ErrInvalidInput
		}
	default:
		return ErrInvalidAction
	}

	var entry models.FlaggedEntry
	if kind == ActionApprove || kind == ActionReplace {
		queue, err := c.Moderation.Queue(ctx, roomID)
		if err != nil {
			return err
		}
		found := false
		for _, q := range queue {
			if q.Raw == raw {
				entry = q.Entry
				found = true
				break
			}
		}
		if !found {
			return ErrNotFound
		}
	}

	removed, err := c.Moderation.Remove(ctx, roomID, raw)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotFound
	}

	switch kind {
	case ActionApprove:
		return c.republish(ctx, roomID, raw, models.ChatEntry{
			Sender:    entry.Sender,
			Text:      entry.Text,
			Timestamp: time.Now().UnixMilli(),
		})
	case ActionReplace:
		return c.republish(ctx, roomID, raw, models.ChatEntry{
			Sender:    entry.Sender,
			Text:      extra.Text,
			Timestamp: time.Now().UnixMilli(),
			Moderated: true,
		})
	case ActionBan:
		if err := c.Moderation.BanUser(ctx, extra.Username); err != nil {
			c.requeue(ctx, roomID, raw)
			return err
		}
	}
	return nil
}

// republish appends the resolved entry to history and broadcasts it. If the
// append fails after the queue removal committed, the entry is put back so
// the action can be retried instead of losing the message.
func (c *Console) republish(ctx context.Context, roomID, raw string, entry models.ChatEntry) error {
	if err := c.History.Append(ctx, roomID, entry); err != nil {
		c.requeue(ctx, roomID, raw)
		return err
	}
	if err := c.Hub.Publish(ctx, roomID, EventChat, entry); err != nil {
		zap.S().Errorw("approved message stored but broadcast failed", "room", roomID, "error", err)
	}
	return nil
}

func (c *Console) requeue(ctx context.Context, roomID, raw string) {
	// raw is the serialized slot itself, so appending it verbatim restores it
	if err := c.Moderation.Requeue(ctx, roomID, raw); err != nil {
		zap.S().Errorw("failed to restore queue entry after action failure", "room", roomID, "error", err)
	}
}

// FilterTerms returns the current filter list
func (c *Console) FilterTerms(ctx context.Context) ([]string, error) {
	return c.Moderation.FilterTerms(ctx)
}

// SetFilterTerms replaces the filter list wholesale
func (c *Console) SetFilterTerms(ctx context.Context, terms []string) error {
	return c.Moderation.SetFilterTerms(ctx, terms)
}
