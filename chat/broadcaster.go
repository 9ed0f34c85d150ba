package chat

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Subscriber is one deliverable endpoint, usually a websocket connection.
// Deliver must not block: implementations drop events for endpoints that
// cannot keep up.
type Subscriber interface {
	ID() string
	Deliver(evt Event)
}

// Fabric carries published room events between server instances. The Hub
// publishes through it and receives everything back through the
// subscription, local publishes included, so single- and multi-instance
// deployments share one delivery path.
type Fabric interface {
	Publish(ctx context.Context, roomID string, payload []byte) error
	Subscribe(ctx context.Context, handler func(roomID string, payload []byte)) error
}

// LocalFabric is an in-process fabric for tests and single-node runs.
// Publishes are delivered synchronously to all subscribed handlers.
type LocalFabric struct {
	mu       sync.Mutex
	handlers []func(roomID string, payload []byte)
}

// NewLocalFabric returns an empty in-process fabric
func NewLocalFabric() *LocalFabric {
	return &LocalFabric{}
}

// Publish hands payload to every subscribed handler
func (f *LocalFabric) Publish(_ context.Context, roomID string, payload []byte) error {
	f.mu.Lock()
	handlers := append([]func(string, []byte){}, f.handlers...)
	f.mu.Unlock()
	for _, h := range handlers {
		h(roomID, payload)
	}
	return nil
}

// Subscribe registers handler for all rooms
func (f *LocalFabric) Subscribe(_ context.Context, handler func(roomID string, payload []byte)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, handler)
	return nil
}

// Hub fans room events out to every connection currently subscribed to the
// room on this instance. Cross-instance delivery goes through the Fabric.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[string]Subscriber
	fabric Fabric
}

// NewHub creates a hub and wires it into the fabric subscription
func NewHub(ctx context.Context, fabric Fabric) (*Hub, error) {
	h := &Hub{
		rooms:  make(map[string]map[string]Subscriber),
		fabric: fabric,
	}
	if err := fabric.Subscribe(ctx, h.deliver); err != nil {
		return nil, err
	}
	return h, nil
}

// Join subscribes s to a room's broadcasts
func (h *Hub) Join(roomID string, s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]Subscriber)
	}
	h.rooms[roomID][s.ID()] = s
}

// Leave unsubscribes s from a room's broadcasts
func (h *Hub) Leave(roomID string, s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[roomID]
	if !ok {
		return
	}
	delete(members, s.ID())
	if len(members) == 0 {
		delete(h.rooms, roomID)
	}
}

// Publish sends an event to every connection joined to the room, on this
// instance and every other one sharing the fabric.
func (h *Hub) Publish(ctx context.Context, roomID, name string, data interface{}) error {
	b, err := json.Marshal(Event{Name: name, Data: data})
	if err != nil {
		return err
	}
	return h.fabric.Publish(ctx, roomID, b)
}

func (h *Hub) deliver(roomID string, payload []byte) {
	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		zap.S().Warnw("dropping undecodable room event", "room", roomID, "error", err)
		return
	}
	h.mu.RLock()
	members := make([]Subscriber, 0, len(h.rooms[roomID]))
	for _, s := range h.rooms[roomID] {
		members = append(members, s)
	}
	h.mu.RUnlock()
	for _, s := range members {
		s.Deliver(evt)
	}
}
