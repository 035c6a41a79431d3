package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lorrc/ticket-stream-backend/internal/adapters/primary/validation"
	"github.com/lorrc/ticket-stream-backend/internal/core/domain"
	apperrors "github.com/lorrc/ticket-stream-backend/internal/core/errors"
	"github.com/lorrc/ticket-stream-backend/internal/core/ports"
)

// UserHandler exposes the minimal user surface: users exist as ticket owners,
// so this is a seeding seam rather than account management. It sits directly
// on the repository because there is no business logic and no event emission
// behind these operations.
type UserHandler struct {
	users        ports.UserRepository
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(users ports.UserRepository, errorHandler *ErrorHandler, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:        users,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "user"),
	}
}

// RegisterRoutes registers user routes on the given router
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.CreateUser)
	r.Get("/{userID}", h.GetUser)
}

// CreateUserRequest is the request body for creating a user
type CreateUserRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// Validate validates the create request
func (req *CreateUserRequest) Validate() *apperrors.ValidationErrors {
	v := validation.NewValidator().
		Required("fullName", req.FullName).
		MaxLength("fullName", req.FullName, 255).
		Required("email", req.Email).
		Email("email", req.Email).
		MaxLength("email", req.Email, 255)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UserResponse is the JSON shape of a user
type UserResponse struct {
	ID        int64  `json:"id"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

func newUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		FullName:  user.FullName,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// CreateUser handles POST /api/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[CreateUserRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if errs := req.Validate(); errs != nil {
		h.errorHandler.Handle(w, r, errs)
		return
	}

	user, err := h.users.Create(r.Context(), &domain.User{
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteCreated(w, newUserResponse(user))
}

// GetUser handles GET /api/users/{userID}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "userID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "Invalid user ID"))
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, newUserResponse(user))
}
