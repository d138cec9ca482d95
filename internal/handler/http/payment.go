package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/travelbuddy/server/internal/domain"
	"github.com/travelbuddy/server/internal/repository"
	"github.com/travelbuddy/server/internal/service"
	"github.com/travelbuddy/server/pkg/httputil"
	"github.com/travelbuddy/server/pkg/validator"
)

// PaymentHandler handles HTTP requests for payment endpoints, including the
// form-encoded callbacks the gateway posts back after checkout.
type PaymentHandler struct {
	service *service.PaymentService
	logger  *slog.Logger
}

// NewPaymentHandler creates a new payment HTTP handler.
func NewPaymentHandler(svc *service.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: svc,
		logger:  logger,
	}
}

// InitSubscriptionRequest is the JSON request body for starting a
// subscription purchase.
type InitSubscriptionRequest struct {
	PlanType string `json:"plan_type" validate:"required,oneof=MONTHLY YEARLY"`
}

// CheckoutResponse carries the payment record and the gateway redirect.
type CheckoutResponse struct {
	Payment     any    `json:"payment"`
	RedirectURL string `json:"redirect_url"`
}

// InitSubscription handles POST /api/v1/payments/subscription/init
func (h *PaymentHandler) InitSubscription(w http.ResponseWriter, r *http.Request) {
	// Limit request body to 1MB to prevent DoS via large payloads.
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req InitSubscriptionRequest
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

	payment, session, err := h.service.InitSubscription(r.Context(), actorFromRequest(r), req.PlanType)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: CheckoutResponse{
		Payment:     payment,
		RedirectURL: session.RedirectURL,
	}})
}

// InitVerifiedBadge handles POST /api/v1/payments/badge/init
func (h *PaymentHandler) InitVerifiedBadge(w http.ResponseWriter, r *http.Request) {
	payment, session, err := h.service.InitVerifiedBadge(r.Context(), actorFromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: CheckoutResponse{
		Payment:     payment,
		RedirectURL: session.RedirectURL,
	}})
}

// ListPayments handles GET /api/v1/payments
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	page, perPage, ok := parsePagination(w, r)
	if !ok {
		return
	}

	filter := repository.PaymentFilter{
		Page:    page,
		PerPage: perPage,
	}
	if v := r.URL.Query().Get("status"); v != "" {
		filter.Status = &v
	}
	if v := r.URL.Query().Get("purpose"); v != "" {
		filter.Purpose = &v
	}
	if v := r.URL.Query().Get("user_id"); v != "" && isAdminRequest(r) {
		filter.UserID = &v
	}

	payments, total, err := h.service.ListPayments(r.Context(), actorFromRequest(r), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(payments, total, filter.Page, filter.PerPage))
}

// callbackField reads a field from the gateway's form-encoded callback body.
func callbackField(r *http.Request, name string) string {
	if v := r.PostFormValue(name); v != "" {
		return v
	}
	return r.URL.Query().Get(name)
}

// PaymentSuccess handles POST /api/v1/payments/success
func (h *PaymentHandler) PaymentSuccess(w http.ResponseWriter, r *http.Request) {
	tranID := callbackField(r, "tran_id")
	valID := callbackField(r, "val_id")
	if tranID == "" || valID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "tran_id and val_id are required"},
		})
		return
	}

	payment, err := h.service.ProcessSuccess(r.Context(), tranID, valID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: payment})
}

// PaymentFail handles POST /api/v1/payments/fail
func (h *PaymentHandler) PaymentFail(w http.ResponseWriter, r *http.Request) {
	h.settleCallback(w, r, h.service.ProcessFail)
}

// PaymentCancel handles POST /api/v1/payments/cancel
func (h *PaymentHandler) PaymentCancel(w http.ResponseWriter, r *http.Request) {
	h.settleCallback(w, r, h.service.ProcessCancel)
}

func (h *PaymentHandler) settleCallback(w http.ResponseWriter, r *http.Request, settle func(context.Context, string) (*domain.Payment, error)) {
	tranID := callbackField(r, "tran_id")
	if tranID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "tran_id is required"},
		})
		return
	}

	payment, err := settle(r.Context(), tranID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: payment})
}
