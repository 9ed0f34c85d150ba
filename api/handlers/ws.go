package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/streamroom/streamroom-api/api"
	"github.com/streamroom/streamroom-api/chat"
)

const (
	// writeWait is the deadline for a single outbound frame
	writeWait = 10 * time.Second
	// pongWait is how long the read side tolerates silence before the
	// connection is considered dead
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait
	pingPeriod = (pongWait * 9) / 10

	maxFrameSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the chat surface is consumed by arbitrary stream-viewer origins
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WebSocket upgrades connections and bridges them onto the chat coordinator
type WebSocket struct {
	Coordinator *chat.Coordinator
	Auth        api.Auth
}

// ServeHTTP upgrades the connection and runs its read loop. A token, when
// present, asserts the identity for the whole connection; without one the
// connection is anonymous and may watch but not send.
func (h WebSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity := api.IdentityFromContext(r.Context())
	if identity == nil {
		if token := api.BearerToken(r); token != "" {
			verified, err := h.Auth.VerifyToken(token)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error": "unauthorized"}`))
				return
			}
			identity = verified
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade failed", "error", err)
		return
	}

	session := h.Coordinator.NewSession(identity)
	zap.S().Debugw("connection opened", "session", session.ID())

	go h.writeLoop(conn, session)
	h.readLoop(conn, session)
}

// readLoop is the single reader for the connection, which is what keeps one
// sender's frames in order end to end
func (h WebSocket) readLoop(conn *websocket.Conn, session *chat.Session) {
	defer func() {
		h.Coordinator.Disconnect(context.Background(), session)
		conn.Close()
		zap.S().Debugw("connection closed", "session", session.ID())
	}()

	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.S().Debugw("unexpected close", "session", session.ID(), "error", err)
			}
			return
		}
		if err := h.Coordinator.HandleFrame(context.Background(), session, frame); err != nil {
			zap.S().Debugw("frame rejected", "session", session.ID(), "error", err)
		}
	}
}

// writeLoop drains the session's outbound stream onto the wire and keeps the
// connection alive with pings. It exits when Disconnect closes the stream.
func (h WebSocket) writeLoop(conn *websocket.Conn, session *chat.Session) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case evt, ok := <-session.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
