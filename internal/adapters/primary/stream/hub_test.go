package stream

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub() *Hub {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHub(30*time.Second, 8, logger)
}

// drainConnection pops the greeting frame every fresh session starts with.
func drainConnection(t *testing.T, sess *Session) map[string]string {
	t.Helper()
	select {
	case frame := <-sess.send:
		require.Equal(t, "connection", frame.Name)
		var greeting map[string]string
		require.NoError(t, json.Unmarshal(frame.Data, &greeting))
		return greeting
	default:
		t.Fatal("expected a connection frame on a fresh session")
		return nil
	}
}

func TestHub_ConnectionFrameFirst(t *testing.T) {
	hub := newTestHub()
	sess := hub.Register()

	greeting := drainConnection(t, sess)
	assert.Equal(t, "connected", greeting["status"])
	assert.Equal(t, sess.ID(), greeting["clientId"])
	assert.Equal(t, 1, hub.SessionCount())
}

func TestHub_RelayReachesOnlyRegistered(t *testing.T) {
	hub := newTestHub()

	early := hub.Register()
	drainConnection(t, early)

	hub.Relay([]byte(`{"operation":"insert"}`))

	late := hub.Register()
	drainConnection(t, late)

	select {
	case frame := <-early.send:
		assert.Equal(t, "resource-update", frame.Name)
		assert.JSONEq(t, `{"operation":"insert"}`, string(frame.Data))
	default:
		t.Fatal("registered session should have received the relay")
	}

	select {
	case frame := <-late.send:
		t.Fatalf("session registered after the relay got frame %q", frame.Name)
	default:
	}
}

func TestHub_UnregisteredSessionStopsReceiving(t *testing.T) {
	hub := newTestHub()
	sess := hub.Register()
	drainConnection(t, sess)

	hub.Unregister(sess.ID())
	assert.Equal(t, 0, hub.SessionCount())

	hub.Relay([]byte(`{"operation":"delete"}`))
	select {
	case frame := <-sess.send:
		t.Fatalf("unregistered session got frame %q", frame.Name)
	default:
	}
}

func TestHub_UnregisterIdempotent(t *testing.T) {
	hub := newTestHub()
	sess := hub.Register()

	hub.Unregister(sess.ID())
	hub.Unregister(sess.ID())
	hub.Unregister("never-registered")
	assert.Equal(t, 0, hub.SessionCount())
}

func TestHub_SlowSessionDoesNotBlockOthers(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := NewHub(30*time.Second, 1, logger)

	slow := hub.Register()
	healthy := hub.Register()
	drainConnection(t, healthy)

	// The slow session still holds its connection frame, so its one-slot
	// buffer is already full.
	hub.Relay([]byte(`{"operation":"update"}`))

	select {
	case frame := <-healthy.send:
		assert.Equal(t, "resource-update", frame.Name)
	default:
		t.Fatal("healthy session should have received the relay")
	}

	// The overflowing session was evicted, not the whole hub.
	assert.Equal(t, 1, hub.SessionCount())
	select {
	case <-slow.done:
	case <-time.After(time.Second):
		t.Fatal("slow session should have been closed")
	}
}

func TestHub_ShutdownClosesAll(t *testing.T) {
	hub := newTestHub()
	a := hub.Register()
	b := hub.Register()

	hub.Shutdown()
	assert.Equal(t, 0, hub.SessionCount())

	for _, sess := range []*Session{a, b} {
		select {
		case <-sess.done:
		case <-time.After(time.Second):
			t.Fatal("session should be closed after shutdown")
		}
	}
}
