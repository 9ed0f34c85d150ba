package databases

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/streamroom/streamroom-api/models"
)

// QueueCap bounds each room's moderation queue; entries beyond it age out
// oldest first.
const QueueCap = 500

const (
	queueKeyPrefix = "mod:"
	bannedUsersKey = "moderation:banned_users"
	filterTermsKey = "moderation:filtered_terms"
)

// ModerationDatabase contains the methods to use with the moderation queue,
// the banned-user set and the filter-term list
type ModerationDatabase interface {
	Enqueue(ctx context.Context, roomID string, entry models.FlaggedEntry) error
	Queue(ctx context.Context, roomID string) ([]models.QueuedEntry, error)
	QueueLength(ctx context.Context, roomID string) (int64, error)
	// Remove deletes the queue slot identified by its serialized form. It
	// reports false when the slot is absent, so of two racing removals of the
	// same reference exactly one observes true.
	Remove(ctx context.Context, roomID, raw string) (bool, error)
	// Requeue appends a previously removed slot verbatim, for compensating a
	// failed action after its removal committed.
	Requeue(ctx context.Context, roomID, raw string) error
	BanUser(ctx context.Context, username string) error
	IsBanned(ctx context.Context, username string) (bool, error)
	FilterTerms(ctx context.Context) ([]string, error)
	SetFilterTerms(ctx context.Context, terms []string) error
}

type moderationDatabase struct {
	store ChatStore
}

// NewModerationDatabase initializes a new instance of the moderation store
// over the provided backend
func NewModerationDatabase(store ChatStore) ModerationDatabase {
	return &moderationDatabase{
		store: store,
	}
}

func (m *moderationDatabase) Enqueue(ctx context.Context, roomID string, entry models.FlaggedEntry) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return m.store.AppendTrim(ctx, queueKeyPrefix+roomID, string(b), QueueCap)
}

func (m *moderationDatabase) Queue(ctx context.Context, roomID string) ([]models.QueuedEntry, error) {
	raw, err := m.store.Range(ctx, queueKeyPrefix+roomID, 0, -1)
	if err != nil {
		return nil, err
	}
	queue := make([]models.QueuedEntry, 0, len(raw))
	for _, r := range raw {
		var entry models.FlaggedEntry
		if err := json.Unmarshal([]byte(r), &entry); err != nil {
			zap.S().Warnw("skipping undecodable queue entry", "room", roomID, "error", err)
			continue
		}
		queue = append(queue, models.QueuedEntry{Raw: r, Entry: entry})
	}
	return queue, nil
}

func (m *moderationDatabase) QueueLength(ctx context.Context, roomID string) (int64, error) {
	return m.store.Length(ctx, queueKeyPrefix+roomID)
}

func (m *moderationDatabase) Remove(ctx context.Context, roomID, raw string) (bool, error) {
	removed, err := m.store.RemoveValue(ctx, queueKeyPrefix+roomID, raw)
	if err != nil {
		return false, err
	}
	return removed > 0, nil
}

func (m *moderationDatabase) Requeue(ctx context.Context, roomID, raw string) error {
	return m.store.AppendTrim(ctx, queueKeyPrefix+roomID, raw, QueueCap)
}

func (m *moderationDatabase) BanUser(ctx context.Context, username string) error {
	return m.store.AddMember(ctx, bannedUsersKey, username)
}

func (m *moderationDatabase) IsBanned(ctx context.Context, username string) (bool, error) {
	return m.store.IsMember(ctx, bannedUsersKey, username)
}

func (m *moderationDatabase) FilterTerms(ctx context.Context) ([]string, error) {
	return m.store.Members(ctx, filterTermsKey)
}

func (m *moderationDatabase) SetFilterTerms(ctx context.Context, terms []string) error {
	return m.store.ReplaceMembers(ctx, filterTermsKey, terms)
}
