// Package stream fans ticket change payloads out to every streaming session
// on this instance, over SSE or WebSocket transports.
package stream

import (
	"encoding/json"
	"sync"
)

// Frame names on the wire. Every streaming transport speaks the same three.
const (
	frameConnection = "connection"
	frameHeartbeat  = "heartbeat"
	frameUpdate     = "resource-update"
)

// Frame is a single named message pushed to a streaming session.
type Frame struct {
	Name string
	Data json.RawMessage
}

// Session is one connected streaming consumer. It is registered with the hub
// for its whole lifetime and only ever receives; there is no inbound data
// path.
type Session struct {
	id   string
	send chan Frame
	done chan struct{}

	// closeOnce guards done so concurrent unregister paths are safe.
	closeOnce sync.Once
}

// ID returns the identifier handed to the client in its connection frame.
func (s *Session) ID() string {
	return s.id
}

// enqueue offers a frame without blocking. It reports false when the session
// buffer is full or the session is closed.
func (s *Session) enqueue(f Frame) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- f:
		return true
	default:
		return false
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}
