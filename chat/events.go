package chat

import (
	"encoding/json"

	"github.com/streamroom/streamroom-api/models"
)

// Event names understood by connected clients.
const (
	EventViewer          = "viewer"
	EventChat            = "chat"
	EventChatHistory     = "chatHistory"
	EventModeration      = "moderation"
	EventModerationStats = "moderationStats"
	EventError           = "error"
)

// Inbound event names sent by clients.
const (
	inboundJoin    = "join"
	inboundLeave   = "leave"
	inboundMessage = "message"
)

// Event is one outbound frame, broadcast to a room or sent to a single
// connection.
type Event struct {
	Name string      `json:"event"`
	Data interface{} `json:"data"`
}

// ClientFrame is one inbound frame from a connection. Data stays raw until
// the event name picks its shape.
type ClientFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// MessageRequest is the payload of an inbound "message" frame.
type MessageRequest struct {
	RoomID string `json:"roomId"`
	Text   string `json:"text"`
}

// ViewerPayload is broadcast to a room when its viewer count changes.
type ViewerPayload struct {
	RoomID  string `json:"roomId"`
	Viewers int    `json:"viewers"`
}

// ModerationPayload tells a sender their message was held for review. The
// matched term is intentionally not included.
type ModerationPayload struct {
	RoomID string `json:"roomId"`
	Reason string `json:"reason"`
}

// ModerationStatsPayload tells a joining connection how many entries are
// pending review, without exposing their content.
type ModerationStatsPayload struct {
	RoomID  string `json:"roomId"`
	Flagged int64  `json:"flagged"`
}

// ErrorPayload is a private notice for auth-required and banned rejections.
type ErrorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ChatHistoryPayload replays recent history to a joining connection.
type ChatHistoryPayload []models.ChatEntry
