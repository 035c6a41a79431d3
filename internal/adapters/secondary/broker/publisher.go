// Package broker bridges ticket change events to a NATS channel. The
// publisher and subscriber halves hold independent connections so a stalled
// consumer can never back-pressure the write path.
package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/lorrc/ticket-stream-backend/internal/core/domain"
	"github.com/lorrc/ticket-stream-backend/internal/core/ports"
)

// ErrNotReady is returned by Publish while the broker connection is not in
// the Ready state. Events are rejected, never queued.
var ErrNotReady = errors.New("broker connection not ready")

// ConnState tracks the bridge connection lifecycle.
type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateReady
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	default:
		return "disconnected"
	}
}

// Config holds the broker connection settings shared by both halves of the
// bridge.
type Config struct {
	URL            string
	Subject        string
	PublishTimeout time.Duration
	ReconnectWait  time.Duration
}

// Publisher is the outbound half of the bridge. It owns its connection and
// refuses publishes whenever the connection is not Ready.
type Publisher struct {
	conn    *nats.Conn
	subject string
	timeout time.Duration
	state   atomic.Int32
	logger  *slog.Logger
}

var _ ports.EventPublisher = (*Publisher)(nil)

// NewPublisher dials the broker. The initial dial is allowed to fail; the
// client keeps retrying in the background and the publisher reports not
// ready until the connection lands.
func NewPublisher(cfg Config, logger *slog.Logger) (*Publisher, error) {
	p := &Publisher{
		subject: cfg.Subject,
		timeout: cfg.PublishTimeout,
		logger:  logger.With("component", "broker_publisher"),
	}
	p.state.Store(int32(StateConnecting))

	conn, err := nats.Connect(cfg.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.ConnectHandler(func(_ *nats.Conn) {
			p.setState(StateReady)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			p.setState(StateReady)
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			p.setState(StateConnecting)
			if err != nil {
				p.logger.Warn("broker connection lost", "error", err)
			}
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			p.setState(StateDisconnected)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to broker at %s: %w", cfg.URL, err)
	}
	p.conn = conn

	// RetryOnFailedConnect hands back a connection that may still be
	// dialing. If it is already up the ConnectHandler has fired or will
	// fire; reflect a live connection immediately either way.
	if conn.IsConnected() {
		p.setState(StateReady)
	}
	return p, nil
}

func (p *Publisher) setState(s ConnState) {
	old := ConnState(p.state.Swap(int32(s)))
	if old != s {
		p.logger.Info("broker state changed", "from", old.String(), "to", s.String())
	}
}

// State returns the current connection state.
func (p *Publisher) State() ConnState {
	return ConnState(p.state.Load())
}

// Ready reports whether the bridge will currently accept publishes.
func (p *Publisher) Ready() bool {
	return p.State() == StateReady
}

// Publish sends one change event to the broker channel. The call is bounded
// by the configured timeout and fails fast while the connection is down; a
// rejected event is dropped, not retried.
func (p *Publisher) Publish(ctx context.Context, event domain.ChangeEvent) error {
	if !p.Ready() {
		return ErrNotReady
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling change event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publishing to %s: %w", p.subject, err)
	}
	// Flush within the deadline so a wedged connection surfaces as an error
	// instead of silently buffering.
	if err := p.conn.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flushing publish to %s: %w", p.subject, err)
	}
	return nil
}

// Close tears down the connection. Publish calls after Close return
// ErrNotReady.
func (p *Publisher) Close() {
	p.setState(StateDisconnected)
	p.conn.Close()
}
