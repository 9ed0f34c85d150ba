package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/streamroom/streamroom-api/api"
	"github.com/streamroom/streamroom-api/chat"
	"github.com/streamroom/streamroom-api/config"
	"github.com/streamroom/streamroom-api/models"
)

// Moderation exported for testing purposes
type Moderation struct {
	Console *chat.Console
}

// QueueResponse carries the pending entries for one room
type QueueResponse struct {
	RoomID string               `json:"roomId"`
	Queue  []models.QueuedEntry `json:"queue"`
}

// QueueHandler returns the pending flagged entries for the room given in the
// room query parameter, each carrying the reference token an action needs
func (m Moderation) QueueHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	w.Header().Set("Content-Type", "application/json")

	roomID := r.URL.Query().Get("room")

	queue, err := m.Console.Queue(ctx, roomID)
	if err != nil {
		if errors.Is(err, chat.ErrInvalidInput) {
			config.ErrorStatus("room query parameter is required", http.StatusBadRequest, w, err)
			return
		}
		config.ErrorStatus("failed to read moderation queue", http.StatusInternalServerError, w, err)
		return
	}
	if queue == nil {
		queue = []models.QueuedEntry{}
	}

	b, err := json.Marshal(QueueResponse{RoomID: roomID, Queue: queue})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ActionRequest is one moderation decision against a queued entry. Raw is the
// reference token from the queue listing; Username is required for ban,
// Text for replace.
type ActionRequest struct {
	RoomID   string `json:"roomId"`
	Raw      string `json:"raw"`
	Action   string `json:"action"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

// ActionHandler resolves one queued entry. A stale reference token, already
// consumed by a racing action, yields a not found.
func (m Moderation) ActionHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	w.Header().Set("Content-Type", "application/json")

	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode moderation action", http.StatusBadRequest, w, err)
		return
	}

	err := m.Console.Action(ctx, req.RoomID, req.Raw, req.Action, chat.ActionExtra{
		Username: req.Username,
		Text:     req.Text,
	})
	switch {
	case err == nil:
	case errors.Is(err, chat.ErrInvalidAction):
		config.ErrorStatus("unknown moderation action", http.StatusBadRequest, w, err)
		return
	case errors.Is(err, chat.ErrInvalidInput):
		config.ErrorStatus("invalid moderation action payload", http.StatusBadRequest, w, err)
		return
	case errors.Is(err, chat.ErrNotFound):
		config.ErrorStatus("queue entry not found", http.StatusNotFound, w, err)
		return
	default:
		config.ErrorStatus("failed to apply moderation action", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "applied"}`))
}

// FilterResponse carries the full filter-term list
type FilterResponse struct {
	Terms []string `json:"terms"`
}

// GetFilterHandler returns the current filter-term list
func (m Moderation) GetFilterHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	w.Header().Set("Content-Type", "application/json")

	terms, err := m.Console.FilterTerms(ctx)
	if err != nil {
		config.ErrorStatus("failed to read filter terms", http.StatusInternalServerError, w, err)
		return
	}
	if terms == nil {
		terms = []string{}
	}

	b, err := json.Marshal(FilterResponse{Terms: terms})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// SetFilterHandler replaces the filter-term list wholesale. New terms apply
// to messages submitted after the write; nothing already delivered is
// re-evaluated.
func (m Moderation) SetFilterHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()
	w.Header().Set("Content-Type", "application/json")

	var req FilterResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode filter terms", http.StatusBadRequest, w, err)
		return
	}

	if err := m.Console.SetFilterTerms(ctx, req.Terms); err != nil {
		config.ErrorStatus("failed to store filter terms", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "updated"}`))
}
