package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lorrc/ticket-stream-backend/internal/core/domain"
	apperrors "github.com/lorrc/ticket-stream-backend/internal/core/errors"
	"github.com/lorrc/ticket-stream-backend/internal/core/ports"
)

// pgForeignKeyViolation is the Postgres error code for a foreign key
// violation, raised when a ticket references a missing owner.
const pgForeignKeyViolation = "23503"

const ticketColumns = "id, owner_id, body, image_url, state, created_at, updated_at"

// TicketRepository is the secondary adapter for ticket persistence. Every
// mutating method is a single-statement commit.
type TicketRepository struct {
	pool *pgxpool.Pool
}

// Ensure TicketRepository implements the ports.TicketRepository interface.
var _ ports.TicketRepository = (*TicketRepository)(nil)

// NewTicketRepository creates a new ticket repository.
func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool}
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var t domain.Ticket
	err := row.Scan(&t.ID, &t.OwnerID, &t.Body, &t.ImageURL, &t.State, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// List retrieves one page of tickets, newest identifier first, together with
// the total number of rows matching the filter. The window-function total is
// only present when the page has rows; out-of-range pages fall back to a
// plain count so the total stays correct.
func (r *TicketRepository) List(ctx context.Context, params ports.ListTicketsRepoParams) (*domain.TicketPage, error) {
	query := `
		SELECT ` + ticketColumns + `, COUNT(*) OVER() AS total_count
		FROM tickets
		WHERE ($1::text IS NULL OR state = $1)
		ORDER BY id DESC
		LIMIT $2 OFFSET $3`

	var state *string
	if params.State != nil {
		s := string(*params.State)
		state = &s
	}

	rows, err := r.pool.Query(ctx, query, state, params.Limit, params.Offset)
	if err != nil {
		return nil, fmt.Errorf("listing tickets: %w", err)
	}
	defer rows.Close()

	page := &domain.TicketPage{Items: []*domain.Ticket{}}
	for rows.Next() {
		var t domain.Ticket
		err := rows.Scan(&t.ID, &t.OwnerID, &t.Body, &t.ImageURL, &t.State, &t.CreatedAt, &t.UpdatedAt, &page.Total)
		if err != nil {
			return nil, fmt.Errorf("scanning ticket row: %w", err)
		}
		page.Items = append(page.Items, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing tickets: %w", err)
	}

	if len(page.Items) == 0 {
		countQuery := `SELECT COUNT(*) FROM tickets WHERE ($1::text IS NULL OR state = $1)`
		if err := r.pool.QueryRow(ctx, countQuery, state).Scan(&page.Total); err != nil {
			return nil, fmt.Errorf("counting tickets: %w", err)
		}
	}

	return page, nil
}

// GetByID retrieves a single ticket by its ID.
func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`

	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, fmt.Errorf("getting ticket %d: %w", id, err)
	}
	return ticket, nil
}

// Create persists a new ticket entity.
func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	query := `
		INSERT INTO tickets (owner_id, body, image_url, state)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + ticketColumns

	created, err := scanTicket(r.pool.QueryRow(ctx, query,
		ticket.OwnerID, ticket.Body, ticket.ImageURL, string(ticket.State)))
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, apperrors.ErrOwnerNotFound
		}
		return nil, fmt.Errorf("creating ticket: %w", err)
	}
	return created, nil
}

// Update applies a partial update in one statement: nil patch fields keep
// their prior value via COALESCE, and updated_at is always refreshed.
func (r *TicketRepository) Update(ctx context.Context, id int64, patch domain.TicketPatch) (*domain.Ticket, error) {
	query := `
		UPDATE tickets
		SET
			body       = COALESCE($1, body),
			state      = COALESCE($2, state),
			image_url  = COALESCE($3, image_url),
			owner_id   = COALESCE($4, owner_id),
			updated_at = now()
		WHERE id = $5
		RETURNING ` + ticketColumns

	var state *string
	if patch.State != nil {
		s := string(*patch.State)
		state = &s
	}

	updated, err := scanTicket(r.pool.QueryRow(ctx, query,
		patch.Body, state, patch.ImageURL, patch.OwnerID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		if isForeignKeyViolation(err) {
			return nil, apperrors.ErrOwnerNotFound
		}
		return nil, fmt.Errorf("updating ticket %d: %w", id, err)
	}
	return updated, nil
}

// Delete removes a ticket and returns the record as it was before removal.
func (r *TicketRepository) Delete(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `DELETE FROM tickets WHERE id = $1 RETURNING ` + ticketColumns

	deleted, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, fmt.Errorf("deleting ticket %d: %w", id, err)
	}
	return deleted, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}
