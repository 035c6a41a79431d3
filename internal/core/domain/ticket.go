package domain

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/lorrc/ticket-stream-backend/internal/core/errors"
)

// TicketState represents the possible states of a ticket.
type TicketState string

const (
	StateOpen   TicketState = "open"
	StateClosed TicketState = "closed"
)

// ParseState validates a raw state value against the enum.
func ParseState(s string) (TicketState, error) {
	switch TicketState(s) {
	case StateOpen:
		return StateOpen, nil
	case StateClosed:
		return StateClosed, nil
	default:
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidState, s)
	}
}

// Ticket is the core domain entity. The identifier is assigned by the
// database and never reused; UpdatedAt is refreshed on every mutation.
type Ticket struct {
	ID        int64
	OwnerID   int64
	Body      string
	ImageURL  *string
	State     TicketState
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTicket is a factory function to create a valid new ticket.
// An unrecognized state falls back to open rather than failing; only the
// owner and body are hard requirements at creation time.
func NewTicket(ownerID int64, body, state string, imageURL *string) (*Ticket, error) {
	if ownerID <= 0 {
		return nil, apperrors.ErrOwnerRequired
	}
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.ErrBodyRequired
	}

	finalState, err := ParseState(state)
	if err != nil {
		finalState = StateOpen
	}

	return &Ticket{
		OwnerID:  ownerID,
		Body:     body,
		ImageURL: imageURL,
		State:    finalState,
	}, nil
}

// TicketPatch carries a partial update: nil fields keep their prior value.
type TicketPatch struct {
	OwnerID  *int64
	Body     *string
	ImageURL *string
	State    *TicketState
}

// TicketPage is one page of a ticket listing together with the total number
// of rows matching the filter, regardless of the page requested.
type TicketPage struct {
	Items []*Ticket
	Total int64
}
