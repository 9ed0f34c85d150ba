package models

// ChatEntry is a single chat message as stored in a room's history log and
// delivered to clients. Entries are immutable once created.
type ChatEntry struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"ts"`
	Moderated bool   `json:"moderated,omitempty"`
}

// FlaggedEntry is a chat entry withheld from public history pending admin
// review, plus the reason it was held.
type FlaggedEntry struct {
	ChatEntry
	Reason string `json:"reason"`
}

// QueuedEntry is one slot of a room's moderation queue as returned to the
// moderation console. Raw is the serialized queue slot and doubles as the
// opaque reference token for a single follow-up action.
type QueuedEntry struct {
	Raw   string       `json:"raw"`
	Entry FlaggedEntry `json:"entry"`
}
