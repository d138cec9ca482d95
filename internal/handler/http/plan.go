package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/travelbuddy/server/internal/domain"
	"github.com/travelbuddy/server/internal/repository"
	"github.com/travelbuddy/server/internal/service"
	"github.com/travelbuddy/server/pkg/httputil"
	"github.com/travelbuddy/server/pkg/validator"
)

// PlanHandler handles HTTP requests for travel plan endpoints.
type PlanHandler struct {
	service *service.PlanService
	logger  *slog.Logger
}

// NewPlanHandler creates a new travel plan HTTP handler.
func NewPlanHandler(svc *service.PlanService, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// DestinationRequest is the JSON body fragment naming where a plan goes.
type DestinationRequest struct {
	Country string `json:"country" validate:"required"`
	City    string `json:"city" validate:"required"`
}

// CreatePlanRequest is the JSON request body for announcing a plan.
type CreatePlanRequest struct {
	Destination     DestinationRequest `json:"destination" validate:"required"`
	StartDate       time.Time          `json:"start_date" validate:"required"`
	EndDate         time.Time          `json:"end_date" validate:"required"`
	BudgetMin       *int64             `json:"budget_min" validate:"omitempty,gte=0"`
	BudgetMax       *int64             `json:"budget_max" validate:"omitempty,gte=0"`
	TravelType      string             `json:"travel_type" validate:"required,oneof=SOLO FAMILY FRIENDS"`
	Description     string             `json:"description" validate:"max=2000"`
	Visibility      string             `json:"visibility" validate:"omitempty,oneof=PUBLIC PRIVATE"`
	MaxParticipants int                `json:"max_participants" validate:"gte=0"`
}

// UpdatePlanRequest is the JSON request body for a partial plan update.
type UpdatePlanRequest struct {
	Destination     *DestinationRequest `json:"destination"`
	StartDate       *time.Time          `json:"start_date"`
	EndDate         *time.Time          `json:"end_date"`
	BudgetMin       *int64              `json:"budget_min" validate:"omitempty,gte=0"`
	BudgetMax       *int64              `json:"budget_max" validate:"omitempty,gte=0"`
	TravelType      *string             `json:"travel_type" validate:"omitempty,oneof=SOLO FAMILY FRIENDS"`
	Description     *string             `json:"description" validate:"omitempty,max=2000"`
	Visibility      *string             `json:"visibility" validate:"omitempty,oneof=PUBLIC PRIVATE"`
	Status          *string             `json:"status" validate:"omitempty,oneof=UPCOMING ONGOING COMPLETED CANCELED"`
	MaxParticipants *int                `json:"max_participants" validate:"omitempty,gte=0"`
}

// --- Handlers ---

// CreatePlan handles POST /api/v1/plans
func (h *PlanHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req CreatePlanRequest
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

	input := service.CreatePlanInput{
		Destination: domain.Destination{
			Country: req.Destination.Country,
			City:    req.Destination.City,
		},
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		BudgetMin:       req.BudgetMin,
		BudgetMax:       req.BudgetMax,
		TravelType:      req.TravelType,
		Description:     req.Description,
		Visibility:      req.Visibility,
		MaxParticipants: req.MaxParticipants,
	}

	plan, err := h.service.CreatePlan(r.Context(), actorFromRequest(r), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: plan})
}

// ListPlans handles GET /api/v1/plans
func (h *PlanHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	page, perPage, ok := parsePagination(w, r)
	if !ok {
		return
	}

	filter := repository.PlanFilter{
		Page:    page,
		PerPage: perPage,
	}

	if v := r.URL.Query().Get("host_id"); v != "" {
		filter.HostID = &v
	}
	if v := r.URL.Query().Get("country"); v != "" {
		filter.Country = &v
	}
	if v := r.URL.Query().Get("city"); v != "" {
		filter.City = &v
	}
	if v := r.URL.Query().Get("travel_type"); v != "" {
		filter.TravelType = &v
	}
	if v := r.URL.Query().Get("status"); v != "" {
		filter.Status = &v
	}

	from, ok := parseDateParam(w, r, "from")
	if !ok {
		return
	}
	to, ok := parseDateParam(w, r, "to")
	if !ok {
		return
	}
	filter.From = from
	filter.To = to

	plans, total, err := h.service.ListPlans(r.Context(), optionalActorFromRequest(r), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(plans, total, filter.Page, filter.PerPage))
}

// GetPlan handles GET /api/v1/plans/{id}
func (h *PlanHandler) GetPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	plan, err := h.service.GetPlan(r.Context(), optionalActorFromRequest(r), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: plan})
}

// UpdatePlan handles PATCH /api/v1/plans/{id}
func (h *PlanHandler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdatePlanRequest
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

	input := service.UpdatePlanInput{
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		BudgetMin:       req.BudgetMin,
		BudgetMax:       req.BudgetMax,
		TravelType:      req.TravelType,
		Description:     req.Description,
		Visibility:      req.Visibility,
		Status:          req.Status,
		MaxParticipants: req.MaxParticipants,
	}
	if req.Destination != nil {
		input.Destination = &domain.Destination{
			Country: req.Destination.Country,
			City:    req.Destination.City,
		}
	}

	plan, err := h.service.UpdatePlan(r.Context(), actorFromRequest(r), id.String(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: plan})
}

// DeletePlan handles DELETE /api/v1/plans/{id}
func (h *PlanHandler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeletePlan(r.Context(), actorFromRequest(r), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// MatchPlans handles GET /api/v1/plans/match
func (h *PlanHandler) MatchPlans(w http.ResponseWriter, r *http.Request) {
	page, perPage, ok := parsePagination(w, r)
	if !ok {
		return
	}

	input := service.MatchInput{
		Country:     r.URL.Query().Get("country"),
		City:        r.URL.Query().Get("city"),
		Type:        r.URL.Query().Get("type"),
		ExcludeSelf: true,
		Page:        page,
		PerPage:     perPage,
	}

	if v := r.URL.Query().Get("interests"); v != "" {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				input.Interests = append(input.Interests, s)
			}
		}
	}

	if v := r.URL.Query().Get("exclude_self"); v != "" {
		input.ExcludeSelf = v != "false" && v != "0"
	}

	from, ok := parseDateParam(w, r, "from")
	if !ok {
		return
	}
	to, ok := parseDateParam(w, r, "to")
	if !ok {
		return
	}
	input.From = from
	input.To = to

	actor := actorFromRequest(r)
	matches, total, err := h.service.MatchPlans(r.Context(), &actor, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(matches, total, page, perPage))
}
