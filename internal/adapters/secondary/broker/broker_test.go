package broker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/ticket-stream-backend/internal/core/domain"
)

func startTestBroker(t *testing.T) string {
	t.Helper()
	opts := &natsserver.Options{Host: "127.0.0.1", Port: -1}
	srv, err := natsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("starting embedded broker: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded broker not ready")
	}
	return srv.ClientURL()
}

func testConfig(url string) Config {
	return Config{
		URL:            url,
		Subject:        "tickets.updates",
		PublishTimeout: 2 * time.Second,
		ReconnectWait:  50 * time.Millisecond,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitForReady(t *testing.T, pub *Publisher) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !pub.Ready() {
		if time.Now().After(deadline) {
			t.Fatal("publisher never became ready")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func sampleTicket(id int64) *domain.Ticket {
	now := time.Now().UTC()
	return &domain.Ticket{
		ID:        id,
		OwnerID:   7,
		Body:      "sample",
		State:     domain.StateOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestBridge_PublishSubscribeRoundtrip(t *testing.T) {
	url := startTestBroker(t)
	cfg := testConfig(url)

	pub, err := NewPublisher(cfg, discardLogger())
	require.NoError(t, err)
	defer pub.Close()
	waitForReady(t, pub)

	sub, err := NewSubscriber(cfg, discardLogger())
	require.NoError(t, err)
	defer sub.Close()

	received := make(chan []byte, 8)
	require.NoError(t, sub.Subscribe(func(payload []byte) {
		received <- payload
	}))

	ctx := context.Background()
	require.NoError(t, pub.Publish(ctx, domain.NewChangeEvent(domain.OpInsert, sampleTicket(1))))
	require.NoError(t, pub.Publish(ctx, domain.NewChangeEvent(domain.OpDelete, sampleTicket(2))))

	// Per-subscriber delivery preserves publish order.
	var first, second domain.ChangeEvent
	select {
	case payload := <-received:
		require.NoError(t, json.Unmarshal(payload, &first))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first event")
	}
	select {
	case payload := <-received:
		require.NoError(t, json.Unmarshal(payload, &second))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for second event")
	}

	assert.Equal(t, domain.OpInsert, first.Operation)
	assert.Equal(t, int64(1), first.Record.ID)
	assert.Equal(t, domain.OpDelete, second.Operation)
	assert.Equal(t, int64(2), second.Record.ID)
}

func TestBridge_ResumesAfterBrokerRestart(t *testing.T) {
	srv, err := natsserver.NewServer(&natsserver.Options{Host: "127.0.0.1", Port: -1})
	require.NoError(t, err)
	srv.Start()
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded broker not ready")
	}
	port := srv.Addr().(*net.TCPAddr).Port
	cfg := testConfig(srv.ClientURL())

	pub, err := NewPublisher(cfg, discardLogger())
	require.NoError(t, err)
	defer pub.Close()
	waitForReady(t, pub)

	sub, err := NewSubscriber(cfg, discardLogger())
	require.NoError(t, err)
	defer sub.Close()

	received := make(chan []byte, 8)
	require.NoError(t, sub.Subscribe(func(payload []byte) {
		received <- payload
	}))

	ctx := context.Background()
	require.NoError(t, pub.Publish(ctx, domain.NewChangeEvent(domain.OpInsert, sampleTicket(1))))
	select {
	case <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for delivery before the outage")
	}

	srv.Shutdown()
	srv.WaitForShutdown()

	// The publisher notices the drop asynchronously and goes not-ready, so
	// events raised during the gap are refused rather than queued.
	deadline := time.Now().Add(5 * time.Second)
	for pub.Ready() {
		if time.Now().After(deadline) {
			t.Fatal("publisher never noticed the outage")
		}
		time.Sleep(10 * time.Millisecond)
	}

	restarted, err := natsserver.NewServer(&natsserver.Options{Host: "127.0.0.1", Port: port})
	require.NoError(t, err)
	restarted.Start()
	t.Cleanup(restarted.Shutdown)
	if !restarted.ReadyForConnections(5 * time.Second) {
		t.Fatal("restarted broker not ready")
	}

	waitForReady(t, pub)

	// The subscriber reconnects and replays its subscription on its own
	// schedule, so keep publishing until a delivery proves it caught up.
	deadline = time.Now().Add(10 * time.Second)
	var payload []byte
	for payload == nil {
		if time.Now().After(deadline) {
			t.Fatal("delivery never resumed after the restart")
		}
		_ = pub.Publish(ctx, domain.NewChangeEvent(domain.OpUpdate, sampleTicket(2)))
		select {
		case payload = <-received:
		case <-time.After(100 * time.Millisecond):
		}
	}

	var ev domain.ChangeEvent
	require.NoError(t, json.Unmarshal(payload, &ev))
	assert.Equal(t, domain.OpUpdate, ev.Operation)
	assert.Equal(t, int64(2), ev.Record.ID)
}

func TestPublisher_RejectsWhileDown(t *testing.T) {
	// Nothing is listening on this port, so the publisher keeps dialing.
	cfg := testConfig("nats://127.0.0.1:39999")

	pub, err := NewPublisher(cfg, discardLogger())
	require.NoError(t, err, "construction should survive an unreachable broker")
	defer pub.Close()

	assert.False(t, pub.Ready())

	err = pub.Publish(context.Background(), domain.NewChangeEvent(domain.OpInsert, sampleTicket(1)))
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestPublisher_RejectsAfterClose(t *testing.T) {
	url := startTestBroker(t)

	pub, err := NewPublisher(testConfig(url), discardLogger())
	require.NoError(t, err)
	waitForReady(t, pub)

	pub.Close()
	assert.Equal(t, StateDisconnected, pub.State())

	err = pub.Publish(context.Background(), domain.NewChangeEvent(domain.OpUpdate, sampleTicket(3)))
	assert.ErrorIs(t, err, ErrNotReady)
}
