package ports

import (
	"context"

	"github.com/lorrc/ticket-stream-backend/internal/core/domain"
)

// ListTicketsRepoParams is the repository-level listing input. Offset-based
// pagination is resolved by the service before it reaches the repository.
type ListTicketsRepoParams struct {
	State  *domain.TicketState
	Limit  int32
	Offset int32
}

// TicketRepository is the persistence port for tickets. Every mutating call
// is a single-statement commit; the repository knows nothing about the event
// pipeline.
type TicketRepository interface {
	List(ctx context.Context, params ListTicketsRepoParams) (*domain.TicketPage, error)
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)
	Update(ctx context.Context, id int64, patch domain.TicketPatch) (*domain.Ticket, error)
	Delete(ctx context.Context, id int64) (*domain.Ticket, error)
}

// UserRepository covers the minimal user surface the ticket FK needs.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}
