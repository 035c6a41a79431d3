package ports

import (
	"context"

	"github.com/lorrc/ticket-stream-backend/internal/core/domain"
)

// ListTicketsQuery defines the input for listing tickets. Page and PageSize
// below 1 are normalized to the defaults rather than rejected.
type ListTicketsQuery struct {
	State    *string
	Page     int
	PageSize int
}

// CreateTicketParams defines the required input for creating a new ticket.
type CreateTicketParams struct {
	OwnerID  int64
	Body     string
	State    string
	ImageURL *string
}

// UpdateTicketParams defines a partial update; nil fields are left untouched.
type UpdateTicketParams struct {
	OwnerID  *int64
	Body     *string
	State    *string
	ImageURL *string
}

// TicketService defines the core business operations for managing tickets.
// Every successful mutation emits exactly one change event through the
// EventPublisher; emission failure never fails the mutation.
type TicketService interface {
	ListTickets(ctx context.Context, query ListTicketsQuery) (*domain.TicketPage, error)
	GetTicket(ctx context.Context, id int64) (*domain.Ticket, error)
	CreateTicket(ctx context.Context, params CreateTicketParams) (*domain.Ticket, error)
	UpdateTicket(ctx context.Context, id int64, params UpdateTicketParams) (*domain.Ticket, error)
	DeleteTicket(ctx context.Context, id int64) (*domain.Ticket, error)
}

// EventPublisher is the outbound half of the event bus bridge. Publish is a
// bounded-time, best-effort attempt: it fails fast when the session is not
// ready and never queues.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.ChangeEvent) error
	Ready() bool
	Close()
}

// EventSubscriber is the inbound half of the bridge. The callback is invoked
// once per broker message, preserving delivery order on the channel.
type EventSubscriber interface {
	Subscribe(onEvent func(payload []byte)) error
	Close()
}

// EventBroadcaster fans a raw broker payload out to every live streaming
// session held by this instance.
type EventBroadcaster interface {
	Relay(payload []byte)
	SessionCount() int
}
