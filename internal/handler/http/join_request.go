package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/travelbuddy/server/internal/domain"
	"github.com/travelbuddy/server/internal/repository"
	"github.com/travelbuddy/server/internal/service"
	"github.com/travelbuddy/server/pkg/httputil"
	"github.com/travelbuddy/server/pkg/validator"
)

// JoinRequestHandler handles HTTP requests for join request endpoints.
type JoinRequestHandler struct {
	service *service.JoinRequestService
	logger  *slog.Logger
}

// NewJoinRequestHandler creates a new join request HTTP handler.
func NewJoinRequestHandler(svc *service.JoinRequestService, logger *slog.Logger) *JoinRequestHandler {
	return &JoinRequestHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateJoinRequestRequest is the JSON request body for requesting to join.
type CreateJoinRequestRequest struct {
	PlanID  string `json:"plan_id" validate:"required,uuid"`
	Message string `json:"message" validate:"max=500"`
}

// CreateJoinRequest handles POST /api/v1/join-requests
func (h *JoinRequestHandler) CreateJoinRequest(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreateJoinRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid request body: " + err.Error()},
		})
		return
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	request, err := h.service.CreateJoinRequest(r.Context(), actorFromRequest(r), service.CreateJoinRequestInput{
		PlanID:  req.PlanID,
		Message: req.Message,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: request})
}

func (h *JoinRequestHandler) listFilter(w http.ResponseWriter, r *http.Request) (repository.JoinRequestFilter, bool) {
	page, perPage, ok := parsePagination(w, r)
	if !ok {
		return repository.JoinRequestFilter{}, false
	}

	filter := repository.JoinRequestFilter{
		Page:    page,
		PerPage: perPage,
	}
	if v := r.URL.Query().Get("status"); v != "" {
		filter.Status = &v
	}
	if v := r.URL.Query().Get("plan_id"); v != "" {
		filter.PlanID = &v
	}

	return filter, true
}

// ListIncoming handles GET /api/v1/join-requests/incoming
func (h *JoinRequestHandler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.listFilter(w, r)
	if !ok {
		return
	}

	requests, total, err := h.service.ListIncoming(r.Context(), actorFromRequest(r), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(requests, total, filter.Page, filter.PerPage))
}

// ListOutgoing handles GET /api/v1/join-requests/outgoing
func (h *JoinRequestHandler) ListOutgoing(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.listFilter(w, r)
	if !ok {
		return
	}

	requests, total, err := h.service.ListOutgoing(r.Context(), actorFromRequest(r), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(requests, total, filter.Page, filter.PerPage))
}

// AcceptJoinRequest handles POST /api/v1/join-requests/{id}/accept
func (h *JoinRequestHandler) AcceptJoinRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, domain.JoinRequestStatusAccepted)
}

// RejectJoinRequest handles POST /api/v1/join-requests/{id}/reject
func (h *JoinRequestHandler) RejectJoinRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, domain.JoinRequestStatusRejected)
}

func (h *JoinRequestHandler) decide(w http.ResponseWriter, r *http.Request, status string) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	request, err := h.service.DecideJoinRequest(r.Context(), actorFromRequest(r), id.String(), status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: request})
}

// CancelJoinRequest handles POST /api/v1/join-requests/{id}/cancel
func (h *JoinRequestHandler) CancelJoinRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	request, err := h.service.CancelJoinRequest(r.Context(), actorFromRequest(r), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: request})
}
