package stream

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

// Time allowed to write a frame to the peer.
const wsWriteWait = 10 * time.Second

// Maximum frame size accepted from the peer. Sessions are push only, so
// nothing bigger than a control frame is expected inbound.
const wsMaxMessageSize = 512

// wsFrame is the JSON envelope written to WebSocket peers. It mirrors the
// SSE event/data pair so both transports carry identical content.
type wsFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ServeWS runs one WebSocket session over an already upgraded connection.
// The session is push only; inbound frames are read and discarded solely to
// notice the peer closing. Liveness uses protocol pings on the heartbeat
// period instead of an application frame, and a peer that stops answering
// pongs is dropped once the read deadline lapses.
func (h *Hub) ServeWS(conn *websocket.Conn) {
	sess := h.Register()

	// The next pong must arrive within pongWait. Pings go out every
	// heartbeat period, so the window is padded past it and a responsive
	// peer keeps refreshing the deadline.
	pongWait := h.heartbeat * 10 / 9

	conn.SetReadLimit(wsMaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Read pump. Its only job is to unblock on close, or on a missed pong
	// deadline, so the writer stops.
	go func() {
		defer h.Unregister(sess.id)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer func() {
		h.Unregister(sess.id)
		conn.Close()
	}()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-sess.done:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		case frame := <-sess.send:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(wsFrame{Event: frame.Name, Data: frame.Data}); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
