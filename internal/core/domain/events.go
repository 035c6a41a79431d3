package domain

import "time"

// Operation is the kind of mutation a change event describes.
type Operation string

const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// ChangeEvent is published to the broker once per successful mutation and
// relayed verbatim to every streaming client. For deletes the record is the
// row as it was before removal. Ordering is derived solely from broker
// delivery order on the single channel; the event carries no sequence number
// of its own.
type ChangeEvent struct {
	Operation Operation      `json:"operation"`
	Record    TicketSnapshot `json:"record"`
}

// TicketSnapshot matches the API response shape for tickets. The same shape
// is used for change-event records so a streamed record is field-for-field
// equal to the mutation response.
type TicketSnapshot struct {
	ID        int64   `json:"id"`
	OwnerID   int64   `json:"ownerId"`
	Body      string  `json:"body"`
	ImageURL  *string `json:"imageUrl"`
	State     string  `json:"state"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

// NewTicketSnapshot builds a snapshot from a domain ticket.
func NewTicketSnapshot(ticket *Ticket) TicketSnapshot {
	return TicketSnapshot{
		ID:        ticket.ID,
		OwnerID:   ticket.OwnerID,
		Body:      ticket.Body,
		ImageURL:  ticket.ImageURL,
		State:     string(ticket.State),
		CreatedAt: ticket.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: ticket.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// NewChangeEvent builds the event for one mutation.
func NewChangeEvent(op Operation, ticket *Ticket) ChangeEvent {
	return ChangeEvent{
		Operation: op,
		Record:    NewTicketSnapshot(ticket),
	}
}
