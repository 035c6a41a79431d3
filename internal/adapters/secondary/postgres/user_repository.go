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

// pgUniqueViolation is the Postgres error code for a unique constraint
// violation, raised on a duplicate email.
const pgUniqueViolation = "23505"

// UserRepository is the secondary adapter for user persistence.
type UserRepository struct {
	pool *pgxpool.Pool
}

var _ ports.UserRepository = (*UserRepository)(nil)

// NewUserRepository creates a new user repository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create persists a new user entity.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (full_name, email)
		VALUES ($1, $2)
		RETURNING id, full_name, email, created_at`

	var created domain.User
	err := r.pool.QueryRow(ctx, query, user.FullName, user.Email).
		Scan(&created.ID, &created.FullName, &created.Email, &created.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrUserExists
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	return &created, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// GetByID retrieves a single user by its ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT id, full_name, email, created_at FROM users WHERE id = $1`

	var user domain.User
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&user.ID, &user.FullName, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user %d: %w", id, err)
	}
	return &user, nil
}
