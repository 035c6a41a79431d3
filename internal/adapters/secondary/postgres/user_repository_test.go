package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/ticket-stream-backend/internal/core/domain"
	apperrors "github.com/lorrc/ticket-stream-backend/internal/core/errors"
	"github.com/lorrc/ticket-stream-backend/internal/core/ports"
)

// newTestRepos is a helper to create repos for a test.
func newTestRepos(t *testing.T) (ports.TicketRepository, ports.UserRepository) {
	t.Helper()
	require.NotNil(t, testPool, "testPool is nil. TestMain may not have run.")
	return NewTicketRepository(testPool), NewUserRepository(testPool)
}

func TestUserRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	_, userRepo := newTestRepos(t)

	email := uuid.NewString() + "@example.com"
	createdUser, err := userRepo.Create(ctx, &domain.User{
		FullName: "Test User",
		Email:    email,
	})
	require.NoError(t, err, "Failed to create user")
	assert.NotZero(t, createdUser.ID)
	assert.False(t, createdUser.CreatedAt.IsZero())

	foundUser, err := userRepo.GetByID(ctx, createdUser.ID)
	require.NoError(t, err, "Failed to get user by ID")
	assert.Equal(t, createdUser.ID, foundUser.ID)
	assert.Equal(t, "Test User", foundUser.FullName)
	assert.Equal(t, email, foundUser.Email)
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	_, userRepo := newTestRepos(t)

	email := uuid.NewString() + "@example.com"
	_, err := userRepo.Create(ctx, &domain.User{FullName: "First", Email: email})
	require.NoError(t, err)

	_, err = userRepo.Create(ctx, &domain.User{FullName: "Second", Email: email})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUserExists)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	_, userRepo := newTestRepos(t)

	_, err := userRepo.GetByID(ctx, 999999999)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
