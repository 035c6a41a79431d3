package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/lorrc/ticket-stream-backend/internal/core/domain"
	apperrors "github.com/lorrc/ticket-stream-backend/internal/core/errors"
	"github.com/lorrc/ticket-stream-backend/internal/core/ports"
)

const (
	defaultPage     = 1
	defaultPageSize = 10
	maxPageSize     = 100
)

// TicketService implements business logic for ticket management. It is the
// single place where change events are emitted: every successful mutation
// publishes exactly one event, and a failed publish is logged and dropped
// rather than surfaced to the caller.
type TicketService struct {
	ticketRepo     ports.TicketRepository
	publisher      ports.EventPublisher
	publishTimeout time.Duration
	logger         *slog.Logger
}

var _ ports.TicketService = (*TicketService)(nil)

// NewTicketService creates a new ticket service.
func NewTicketService(
	ticketRepo ports.TicketRepository,
	publisher ports.EventPublisher,
	publishTimeout time.Duration,
	logger *slog.Logger,
) *TicketService {
	return &TicketService{
		ticketRepo:     ticketRepo,
		publisher:      publisher,
		publishTimeout: publishTimeout,
		logger:         logger.With("component", "ticket_service"),
	}
}

// ListTickets retrieves one page of tickets, newest identifier first.
// Out-of-range page and pageSize values fall back to the defaults.
func (s *TicketService) ListTickets(ctx context.Context, query ports.ListTicketsQuery) (*domain.TicketPage, error) {
	page := query.Page
	if page < 1 {
		page = defaultPage
	}
	pageSize := query.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	params := ports.ListTicketsRepoParams{
		Limit:  int32(pageSize),
		Offset: int32((page - 1) * pageSize),
	}
	if query.State != nil {
		// An unknown state simply matches zero rows; listing never rejects
		// a filter value.
		state := domain.TicketState(*query.State)
		params.State = &state
	}

	return s.ticketRepo.List(ctx, params)
}

// GetTicket retrieves a single ticket by its identifier.
func (s *TicketService) GetTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	return s.ticketRepo.GetByID(ctx, id)
}

// CreateTicket handles the use case for submitting a new ticket.
func (s *TicketService) CreateTicket(ctx context.Context, params ports.CreateTicketParams) (*domain.Ticket, error) {
	ticket, err := domain.NewTicket(params.OwnerID, params.Body, params.State, params.ImageURL)
	if err != nil {
		return nil, err
	}

	created, err := s.ticketRepo.Create(ctx, ticket)
	if err != nil {
		return nil, err
	}

	s.publishChange(domain.OpInsert, created)
	return created, nil
}

// UpdateTicket applies a partial update. Unsupplied fields keep their prior
// value; the last-update timestamp is always refreshed.
func (s *TicketService) UpdateTicket(ctx context.Context, id int64, params ports.UpdateTicketParams) (*domain.Ticket, error) {
	patch := domain.TicketPatch{
		ImageURL: params.ImageURL,
	}

	if params.OwnerID != nil {
		if *params.OwnerID <= 0 {
			return nil, apperrors.ErrOwnerRequired
		}
		patch.OwnerID = params.OwnerID
	}
	if params.Body != nil {
		if strings.TrimSpace(*params.Body) == "" {
			return nil, apperrors.ErrBodyRequired
		}
		patch.Body = params.Body
	}
	if params.State != nil {
		state, err := domain.ParseState(*params.State)
		if err != nil {
			return nil, err
		}
		patch.State = &state
	}

	updated, err := s.ticketRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.publishChange(domain.OpUpdate, updated)
	return updated, nil
}

// DeleteTicket removes a ticket and returns the deleted record.
func (s *TicketService) DeleteTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	deleted, err := s.ticketRepo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publishChange(domain.OpDelete, deleted)
	return deleted, nil
}

// publishChange emits the change event for one committed mutation. The
// attempt is bounded by the publish timeout; on failure the event is dropped
// and delivery degrades, but the mutation has already succeeded.
func (s *TicketService) publishChange(op domain.Operation, ticket *domain.Ticket) {
	ctx, cancel := context.WithTimeout(context.Background(), s.publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, domain.NewChangeEvent(op, ticket)); err != nil {
		s.logger.Warn("change event dropped",
			"operation", string(op),
			"ticket_id", ticket.ID,
			"error", err,
		)
	}
}
