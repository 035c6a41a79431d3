package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/lorrc/ticket-stream-backend/internal/adapters/primary/stream"
)

// StreamHandler exposes the ticket change feed over SSE and WebSocket. Both
// transports share one hub, so a change reaches every session regardless of
// how it connected.
type StreamHandler struct {
	hub      *stream.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewStreamHandler creates a stream handler. allowedOrigins restricts
// WebSocket handshakes; an empty list or a "*" entry accepts any origin.
func NewStreamHandler(hub *stream.Hub, allowedOrigins []string, readBuf, writeBuf int, logger *slog.Logger) *StreamHandler {
	return &StreamHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBuf,
			WriteBufferSize: writeBuf,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger.With("handler", "stream"),
	}
}

// RegisterRoutes registers streaming routes on the given router
func (h *StreamHandler) RegisterRoutes(r chi.Router) {
	r.Get("/stream", h.ServeSSE)
	r.Get("/stream/ws", h.ServeWS)
}

// ServeSSE handles GET /api/tickets/stream
func (h *StreamHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeSSE(w, r)
}

// ServeWS handles GET /api/tickets/stream/ws
func (h *StreamHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the handshake error.
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	h.hub.ServeWS(conn)
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}
