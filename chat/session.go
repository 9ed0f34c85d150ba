package chat

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/streamroom/streamroom-api/databases"
	"github.com/streamroom/streamroom-api/models"
)

const (
	// MaxMessageLength caps message text after trimming.
	MaxMessageLength = 1000
	// HistoryReplay is how many history entries a joining connection receives.
	HistoryReplay = 100
	// SendInterval is the per-session minimum spacing between message
	// attempts. The limiter timestamp moves on every attempt, accepted or
	// not, so hammering the endpoint only extends the quiet period.
	SendInterval = 500 * time.Millisecond

	sessionBuffer = 64
)

// Session is the per-connection state owned by the Coordinator: the identity
// asserted at connect time (nil while anonymous), the set of joined rooms and
// the rate-limiter timestamp. A session is created on connect and discarded
// on disconnect; the identity is never replaced mid-connection.
type Session struct {
	id       string
	identity *models.Identity

	mu          sync.Mutex
	joined      map[string]struct{}
	lastAttempt time.Time
	closed      bool

	out chan Event
}

// ID returns the session's unique connection ID
func (s *Session) ID() string {
	return s.id
}

// Identity returns the identity asserted at connect, nil for anonymous
// sessions
func (s *Session) Identity() *models.Identity {
	return s.identity
}

// Events is the outbound stream the transport writer drains. It is closed by
// Disconnect.
func (s *Session) Events() <-chan Event {
	return s.out
}

// Deliver queues an event for the connection without blocking; events to a
// connection that cannot keep up are dropped.
func (s *Session) Deliver(evt Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.out <- evt:
	default:
		zap.S().Debugw("dropping event for slow connection", "session", s.id, "event", evt.Name)
	}
}

// Coordinator routes each connection's inbound events to the presence
// tracker and the moderation pipeline, and its outbound events through the
// hub. Transports call its methods from a single goroutine per connection,
// which is what gives a single sender in-order classification and appends.
type Coordinator struct {
	Hub        *Hub
	Presence   *Presence
	Pipeline   *Pipeline
	History    databases.HistoryDatabase
	Moderation databases.ModerationDatabase

	now func() time.Time
}

// NewCoordinator wires a coordinator over the chat core components
func NewCoordinator(hub *Hub, presence *Presence, pipeline *Pipeline, history databases.HistoryDatabase, moderation databases.ModerationDatabase) *Coordinator {
	return &Coordinator{
		Hub:        hub,
		Presence:   presence,
		Pipeline:   pipeline,
		History:    history,
		Moderation: moderation,
		now:        time.Now,
	}
}

// NewSession creates the session for a new connection. identity is nil for
// anonymous connections, which may join and watch but never send.
func (c *Coordinator) NewSession(identity *models.Identity) *Session {
	return &Session{
		id:       uuid.New().String(),
		identity: identity,
		joined:   make(map[string]struct{}),
		out:      make(chan Event, sessionBuffer),
	}
}

// Join adds the session to a room, bumps the viewer count and replays recent
// history plus the flagged-count hint to the joining connection only.
// Joining a room twice is a no-op.
func (c *Coordinator) Join(ctx context.Context, s *Session, roomID string) error {
	if roomID == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	if _, ok := s.joined[roomID]; ok {
		s.mu.Unlock()
		return nil
	}
	s.joined[roomID] = struct{}{}
	s.mu.Unlock()

	viewers := c.Presence.Increment(roomID)
	c.Hub.Join(roomID, s)

	if err := c.Hub.Publish(ctx, roomID, EventViewer, ViewerPayload{RoomID: roomID, Viewers: viewers}); err != nil {
		zap.S().Errorw("failed to broadcast viewer count", "room", roomID, "error", err)
	}

	// replay is best effort: a store hiccup should not kick the viewer out
	history, err := c.History.Recent(ctx, roomID, HistoryReplay)
	if err != nil {
		zap.S().Errorw("failed to load chat history", "room", roomID, "error", err)
		history = nil
	}
	if history == nil {
		history = []models.ChatEntry{}
	}
	s.Deliver(Event{Name: EventChatHistory, Data: ChatHistoryPayload(history)})

	flagged, err := c.Moderation.QueueLength(ctx, roomID)
	if err != nil {
		zap.S().Errorw("failed to read moderation queue length", "room", roomID, "error", err)
		flagged = 0
	}
	s.Deliver(Event{Name: EventModerationStats, Data: ModerationStatsPayload{RoomID: roomID, Flagged: flagged}})

	return nil
}

// Leave removes the session from a room and broadcasts the lowered viewer
// count. Leaving a room the session never joined is a no-op.
func (c *Coordinator) Leave(ctx context.Context, s *Session, roomID string) error {
	s.mu.Lock()
	if _, ok := s.joined[roomID]; !ok {
		s.mu.Unlock()
		return nil
	}
	delete(s.joined, roomID)
	s.mu.Unlock()

	c.Hub.Leave(roomID, s)
	viewers := c.Presence.Decrement(roomID)

	if err := c.Hub.Publish(ctx, roomID, EventViewer, ViewerPayload{RoomID: roomID, Viewers: viewers}); err != nil {
		zap.S().Errorw("failed to broadcast viewer count", "room", roomID, "error", err)
	}
	return nil
}

// SendMessage validates, rate-limits and forwards a message to the
// moderation pipeline, then notifies the sender privately of any hold or
// rejection. Rate-limited attempts are dropped silently.
func (c *Coordinator) SendMessage(ctx context.Context, s *Session, roomID, text string) error {
	if s.identity == nil {
		s.Deliver(Event{Name: EventError, Data: ErrorPayload{Type: "auth", Message: "authentication required to chat"}})
		return ErrAuthRequired
	}
	if roomID == "" {
		return ErrInvalidInput
	}

	now := c.now()
	s.mu.Lock()
	tooSoon := now.Sub(s.lastAttempt) < SendInterval
	s.lastAttempt = now
	s.mu.Unlock()
	if tooSoon {
		// silent by design: no error event leaks the limiter timing
		return nil
	}

	text = truncate(text, MaxMessageLength)
	if text == "" {
		return nil
	}

	outcome, err := c.Pipeline.Submit(ctx, roomID, *s.identity, text)
	if err != nil {
		// failed closed: the message is dropped rather than delivered
		// unfiltered
		zap.S().Errorw("moderation pipeline failure, dropping message",
			"room", roomID,
			"sender", s.identity.Username,
			"error", err,
		)
		return err
	}

	switch outcome {
	case Held:
		s.Deliver(Event{Name: EventModeration, Data: ModerationPayload{RoomID: roomID, Reason: "message held for review"}})
	case Rejected:
		s.Deliver(Event{Name: EventError, Data: ErrorPayload{Type: "banned", Message: "you are banned from chat"}})
	}
	return nil
}

// Disconnect releases every room membership the session holds, decrementing
// presence exactly once per prior increment, then closes the outbound
// stream.
func (c *Coordinator) Disconnect(ctx context.Context, s *Session) {
	s.mu.Lock()
	rooms := make([]string, 0, len(s.joined))
	for roomID := range s.joined {
		rooms = append(rooms, roomID)
	}
	s.joined = make(map[string]struct{})
	s.mu.Unlock()

	for _, roomID := range rooms {
		c.Hub.Leave(roomID, s)
		viewers := c.Presence.Decrement(roomID)
		if err := c.Hub.Publish(ctx, roomID, EventViewer, ViewerPayload{RoomID: roomID, Viewers: viewers}); err != nil {
			zap.S().Errorw("failed to broadcast viewer count", "room", roomID, "error", err)
		}
	}

	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.out)
	}
	s.mu.Unlock()
}

// HandleFrame decodes one inbound frame and routes it. Unknown event names
// and undecodable payloads earn the sender a private error notice rather
// than a dropped connection.
func (c *Coordinator) HandleFrame(ctx context.Context, s *Session, frame []byte) error {
	var f ClientFrame
	if err := json.Unmarshal(frame, &f); err != nil {
		s.Deliver(Event{Name: EventError, Data: ErrorPayload{Type: "protocol", Message: "malformed frame"}})
		return nil
	}

	switch f.Event {
	case inboundJoin:
		var roomID string
		if err := json.Unmarshal(f.Data, &roomID); err != nil {
			s.Deliver(Event{Name: EventError, Data: ErrorPayload{Type: "protocol", Message: "join expects a room id"}})
			return nil
		}
		return c.Join(ctx, s, roomID)
	case inboundLeave:
		var roomID string
		if err := json.Unmarshal(f.Data, &roomID); err != nil {
			s.Deliver(Event{Name: EventError, Data: ErrorPayload{Type: "protocol", Message: "leave expects a room id"}})
			return nil
		}
		return c.Leave(ctx, s, roomID)
	case inboundMessage:
		var req MessageRequest
		if err := json.Unmarshal(f.Data, &req); err != nil {
			s.Deliver(Event{Name: EventError, Data: ErrorPayload{Type: "protocol", Message: "message expects roomId and text"}})
			return nil
		}
		if err := c.SendMessage(ctx, s, req.RoomID, req.Text); err != nil {
			// the sender was already notified where it matters; keep the
			// connection alive
			return nil
		}
		return nil
	default:
		s.Deliver(Event{Name: EventError, Data: ErrorPayload{Type: "protocol", Message: "unknown event"}})
		return nil
	}
}

func truncate(text string, limit int) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) > limit {
		return string(runes[:limit])
	}
	return text
}
