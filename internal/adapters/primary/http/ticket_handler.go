package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lorrc/ticket-stream-backend/internal/adapters/primary/validation"
	"github.com/lorrc/ticket-stream-backend/internal/core/domain"
	apperrors "github.com/lorrc/ticket-stream-backend/internal/core/errors"
	"github.com/lorrc/ticket-stream-backend/internal/core/ports"
)

// TicketHandler handles ticket CRUD endpoints
type TicketHandler struct {
	service      ports.TicketService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(service ports.TicketService, errorHandler *ErrorHandler, logger *slog.Logger) *TicketHandler {
	return &TicketHandler{
		service:      service,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "ticket"),
	}
}

// RegisterRoutes registers ticket routes on the given router
func (h *TicketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.ListTickets)
	r.Post("/", h.CreateTicket)
	r.Route("/{ticketID}", func(r chi.Router) {
		r.Get("/", h.GetTicket)
		r.Patch("/", h.UpdateTicket)
		r.Delete("/", h.DeleteTicket)
	})
}

// CreateTicketRequest is the request body for creating a ticket
type CreateTicketRequest struct {
	OwnerID  int64   `json:"ownerId"`
	Body     string  `json:"body"`
	State    string  `json:"state,omitempty"`
	ImageURL *string `json:"imageUrl,omitempty"`
}

// Validate validates the create request. An unknown state is accepted here
// on purpose; the service falls back to the default.
func (req *CreateTicketRequest) Validate() *apperrors.ValidationErrors {
	v := validation.NewValidator().
		Custom("ownerId", req.OwnerID > 0, "Must be a positive integer").
		Required("body", req.Body).
		MaxLength("body", req.Body, 10000)

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// UpdateTicketRequest is the request body for a partial ticket update. Every
// field is optional, but at least one must be present.
type UpdateTicketRequest struct {
	OwnerID  *int64  `json:"ownerId,omitempty"`
	Body     *string `json:"body,omitempty"`
	State    *string `json:"state,omitempty"`
	ImageURL *string `json:"imageUrl,omitempty"`
}

// Validate validates the update request
func (req *UpdateTicketRequest) Validate() *apperrors.ValidationErrors {
	v := validation.NewValidator().
		Custom("request", req.OwnerID != nil || req.Body != nil || req.State != nil || req.ImageURL != nil,
			"At least one field must be provided")

	if req.Body != nil {
		v.Required("body", *req.Body).MaxLength("body", *req.Body, 10000)
	}
	if req.State != nil {
		v.OneOf("state", *req.State, []string{string(domain.StateOpen), string(domain.StateClosed)})
	}
	if req.OwnerID != nil {
		v.Custom("ownerId", *req.OwnerID > 0, "Must be a positive integer")
	}

	if v.HasErrors() {
		return v.Errors()
	}
	return nil
}

// ListTicketsResponse is the paginated ticket listing
type ListTicketsResponse struct {
	Items []domain.TicketSnapshot `json:"items"`
	Total int64                   `json:"total"`
}

// ListTickets handles GET /api/tickets
func (h *TicketHandler) ListTickets(w http.ResponseWriter, r *http.Request) {
	params := validation.ParsePageQuery(r)

	page, err := h.service.ListTickets(r.Context(), ports.ListTicketsQuery{
		State:    validation.ParseStringQueryParam(r, "state"),
		Page:     params.Page,
		PageSize: params.PageSize,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	resp := ListTicketsResponse{
		Items: make([]domain.TicketSnapshot, 0, len(page.Items)),
		Total: page.Total,
	}
	for _, ticket := range page.Items {
		resp.Items = append(resp.Items, domain.NewTicketSnapshot(ticket))
	}

	WriteJSON(w, http.StatusOK, resp)
}

// GetTicket handles GET /api/tickets/{ticketID}
func (h *TicketHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	id, err := parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.service.GetTicket(r.Context(), id)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, domain.NewTicketSnapshot(ticket))
}

// CreateTicket handles POST /api/tickets
func (h *TicketHandler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[CreateTicketRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if errs := req.Validate(); errs != nil {
		h.errorHandler.Handle(w, r, errs)
		return
	}

	ticket, err := h.service.CreateTicket(r.Context(), ports.CreateTicketParams{
		OwnerID:  req.OwnerID,
		Body:     req.Body,
		State:    req.State,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteCreated(w, domain.NewTicketSnapshot(ticket))
}

// UpdateTicket handles PATCH /api/tickets/{ticketID}
func (h *TicketHandler) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	id, err := parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	req, err := validation.DecodeAndValidate[UpdateTicketRequest](r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	if errs := req.Validate(); errs != nil {
		h.errorHandler.Handle(w, r, errs)
		return
	}

	ticket, err := h.service.UpdateTicket(r.Context(), id, ports.UpdateTicketParams{
		OwnerID:  req.OwnerID,
		Body:     req.Body,
		State:    req.State,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, domain.NewTicketSnapshot(ticket))
}

// DeleteTicket handles DELETE /api/tickets/{ticketID}
func (h *TicketHandler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	id, err := parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if _, err := h.service.DeleteTicket(r.Context(), id); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteNoContent(w)
}

// parseTicketID extracts and parses the ticket ID from the URL
func parseTicketID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "ticketID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewBadRequestError(err, "Invalid ticket ID")
	}
	return id, nil
}
