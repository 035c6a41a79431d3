package stream

import (
	"fmt"
	"net/http"
	"time"
)

// ServeSSE runs one server-sent-events session until the client goes away or
// the hub shuts down. The stream is push only; nothing is read from the
// client after the handshake.
func (h *Hub) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	// Tell intermediary proxies not to buffer the stream.
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sess := h.Register()
	defer h.Unregister(sess.id)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-sess.done:
			return
		case frame := <-sess.send:
			if err := writeSSEFrame(w, frame); err != nil {
				return
			}
			flusher.Flush()
		case <-ticker.C:
			frame := Frame{Name: frameHeartbeat, Data: heartbeatPayload()}
			if err := writeSSEFrame(w, frame); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSEFrame(w http.ResponseWriter, frame Frame) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", frame.Name, frame.Data)
	return err
}
