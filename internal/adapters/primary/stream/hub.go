package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lorrc/ticket-stream-backend/internal/core/ports"
)

// Hub is the per-instance registry of streaming sessions. Registration,
// removal and relay all take the same mutex, so a relay observes a stable
// snapshot of the membership.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*Session

	heartbeat time.Duration
	buffer    int
	logger    *slog.Logger
}

var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates an empty hub. heartbeat is the keepalive period pushed to
// every session; buffer is the per-session outbound queue size.
func NewHub(heartbeat time.Duration, buffer int, logger *slog.Logger) *Hub {
	return &Hub{
		sessions:  make(map[string]*Session),
		heartbeat: heartbeat,
		buffer:    buffer,
		logger:    logger.With("component", "stream_hub"),
	}
}

// Register creates a session, adds it to the registry and queues its
// connection frame. The frame is the first thing the transport writes, so
// the client learns its session identifier before any update arrives.
func (h *Hub) Register() *Session {
	sess := &Session{
		id:   uuid.NewString(),
		send: make(chan Frame, h.buffer),
		done: make(chan struct{}),
	}

	greeting, _ := json.Marshal(map[string]string{
		"status":   "connected",
		"clientId": sess.id,
	})

	h.mu.Lock()
	h.sessions[sess.id] = sess
	count := len(h.sessions)
	h.mu.Unlock()

	sess.enqueue(Frame{Name: frameConnection, Data: greeting})
	h.logger.Info("session registered", "session_id", sess.id, "sessions", count)
	return sess
}

// Unregister removes a session and closes it. Calling it twice, or with an
// identifier that was never registered, is a no-op.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	sess, ok := h.sessions[id]
	if ok {
		delete(h.sessions, id)
	}
	count := len(h.sessions)
	h.mu.Unlock()

	if !ok {
		return
	}
	sess.close()
	h.logger.Info("session unregistered", "session_id", id, "sessions", count)
}

// Relay delivers one raw change payload to every registered session. A
// session whose buffer is full is dropped from the registry; the others are
// untouched.
func (h *Hub) Relay(payload []byte) {
	frame := Frame{Name: frameUpdate, Data: json.RawMessage(payload)}

	h.mu.Lock()
	snapshot := make([]*Session, 0, len(h.sessions))
	for _, sess := range h.sessions {
		snapshot = append(snapshot, sess)
	}
	h.mu.Unlock()

	for _, sess := range snapshot {
		if !sess.enqueue(frame) {
			h.logger.Warn("dropping slow session", "session_id", sess.id)
			h.Unregister(sess.id)
		}
	}
}

// SessionCount returns the number of live sessions on this instance.
func (h *Hub) SessionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Shutdown closes every session. Transports unblock on the session done
// channel and finish their handlers.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*Session)
	h.mu.Unlock()

	for _, sess := range sessions {
		sess.close()
	}
	h.logger.Info("hub shut down", "closed_sessions", len(sessions))
}

func heartbeatPayload() json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{"timestamp":%d}`, time.Now().UnixMilli()))
}
