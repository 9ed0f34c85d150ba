package databases

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/streamroom/streamroom-api/models"
)

// HistoryCap is the sliding-window size of a room's chat history log. The
// oldest entries are dropped once the log exceeds it.
const HistoryCap = 200

const historyKeyPrefix = "chat:"

// HistoryDatabase contains the methods to use with a room's chat history log
type HistoryDatabase interface {
	Append(ctx context.Context, roomID string, entry models.ChatEntry) error
	Recent(ctx context.Context, roomID string, n int64) ([]models.ChatEntry, error)
	Length(ctx context.Context, roomID string) (int64, error)
}

type historyDatabase struct {
	store ChatStore
}

// NewHistoryDatabase initializes a new instance of the history log over the
// provided store
func NewHistoryDatabase(store ChatStore) HistoryDatabase {
	return &historyDatabase{
		store: store,
	}
}

func (h *historyDatabase) Append(ctx context.Context, roomID string, entry models.ChatEntry) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return h.store.AppendTrim(ctx, historyKeyPrefix+roomID, string(b), HistoryCap)
}

func (h *historyDatabase) Recent(ctx context.Context, roomID string, n int64) ([]models.ChatEntry, error) {
	raw, err := h.store.Range(ctx, historyKeyPrefix+roomID, -n, -1)
	if err != nil {
		return nil, err
	}
	entries := make([]models.ChatEntry, 0, len(raw))
	for _, r := range raw {
		var entry models.ChatEntry
		if err := json.Unmarshal([]byte(r), &entry); err != nil {
			zap.S().Warnw("skipping undecodable history entry", "room", roomID, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (h *historyDatabase) Length(ctx context.Context, roomID string) (int64, error) {
	return h.store.Length(ctx, historyKeyPrefix+roomID)
}
