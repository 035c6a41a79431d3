package broker

import (
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/lorrc/ticket-stream-backend/internal/core/ports"
)

// Subscriber is the inbound half of the bridge. It holds its own connection
// and forwards every raw payload from the subject to a single callback.
type Subscriber struct {
	conn   *nats.Conn
	sub    *nats.Subscription
	logger *slog.Logger

	subject string
}

var _ ports.EventSubscriber = (*Subscriber)(nil)

// NewSubscriber dials the broker on a dedicated connection. Like the
// publisher it survives a broker that is down at boot and reconnects forever.
func NewSubscriber(cfg Config, logger *slog.Logger) (*Subscriber, error) {
	log := logger.With("component", "broker_subscriber")

	conn, err := nats.Connect(cfg.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("subscriber connection lost", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			log.Info("subscriber reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to broker at %s: %w", cfg.URL, err)
	}

	return &Subscriber{conn: conn, logger: log, subject: cfg.Subject}, nil
}

// Subscribe registers onEvent for every message on the subject. The callback
// runs on the client's delivery goroutine and must not block.
func (s *Subscriber) Subscribe(onEvent func(payload []byte)) error {
	sub, err := s.conn.Subscribe(s.subject, func(msg *nats.Msg) {
		onEvent(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", s.subject, err)
	}
	s.sub = sub

	// Flush ensures the subscription is registered on the server before
	// returning, so that messages published on other connections are routed.
	// While the broker is unreachable the registration is replayed on
	// reconnect, so a failed flush is not fatal.
	if s.conn.IsConnected() {
		if err := s.conn.Flush(); err != nil {
			s.logger.Warn("could not flush subscription", "error", err)
		}
	}
	return nil
}

// Close unsubscribes and tears down the connection.
func (s *Subscriber) Close() {
	if s.sub != nil {
		_ = s.sub.Unsubscribe()
	}
	s.conn.Close()
}
