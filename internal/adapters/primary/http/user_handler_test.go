package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lorrc/ticket-stream-backend/internal/core/domain"
	apperrors "github.com/lorrc/ticket-stream-backend/internal/core/errors"
	"github.com/lorrc/ticket-stream-backend/internal/core/mocks"
)

func newUserTestRouter(users *mocks.MockUserRepository) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewUserHandler(users, NewErrorHandler(logger), logger)

	r := chi.NewRouter()
	r.Route("/api/users", handler.RegisterRoutes)
	return r
}

func fixtureUser(id int64) *domain.User {
	return &domain.User{
		ID:        id,
		FullName:  "Ada Lovelace",
		Email:     "ada@example.com",
		CreatedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestUserHandler_Create(t *testing.T) {
	mockRepo := mocks.NewMockUserRepository()
	mockRepo.On("Create", mock.Anything, &domain.User{FullName: "Ada Lovelace", Email: "ada@example.com"}).
		Return(fixtureUser(1), nil)

	router := newUserTestRouter(mockRepo)
	rec := httptest.NewRecorder()
	body := bytes.NewBufferString(`{"fullName":"Ada Lovelace","email":"ada@example.com"}`)
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/users", body))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{
		"id": 1,
		"fullName": "Ada Lovelace",
		"email": "ada@example.com",
		"createdAt": "2026-08-30T12:00:00Z"
	}`, rec.Body.String())
}

func TestUserHandler_Create_InvalidEmail(t *testing.T) {
	mockRepo := mocks.NewMockUserRepository()

	router := newUserTestRouter(mockRepo)
	rec := httptest.NewRecorder()
	body := bytes.NewBufferString(`{"fullName":"Ada Lovelace","email":"not-an-email"}`)
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/users", body))

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp ValidationErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Fields, "email")
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUserHandler_Create_DuplicateEmail(t *testing.T) {
	mockRepo := mocks.NewMockUserRepository()
	mockRepo.On("Create", mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrUserExists)

	router := newUserTestRouter(mockRepo)
	rec := httptest.NewRecorder()
	body := bytes.NewBufferString(`{"fullName":"Ada Lovelace","email":"ada@example.com"}`)
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/users", body))

	require.Equal(t, http.StatusConflict, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "USER_EXISTS", resp.Code)
}

func TestUserHandler_Get(t *testing.T) {
	mockRepo := mocks.NewMockUserRepository()
	mockRepo.On("GetByID", mock.Anything, int64(1)).Return(fixtureUser(1), nil)

	router := newUserTestRouter(mockRepo)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/users/1", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ada@example.com", resp.Email)
}

func TestUserHandler_Get_NotFound(t *testing.T) {
	mockRepo := mocks.NewMockUserRepository()
	mockRepo.On("GetByID", mock.Anything, int64(99)).Return(nil, apperrors.ErrUserNotFound)

	router := newUserTestRouter(mockRepo)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/users/99", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "USER_NOT_FOUND", resp.Code)
}

func TestUserHandler_Get_InvalidID(t *testing.T) {
	mockRepo := mocks.NewMockUserRepository()

	router := newUserTestRouter(mockRepo)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/users/banana", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	mockRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}
