package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/travelbuddy/server/internal/service"
	"github.com/travelbuddy/server/pkg/health"
	"github.com/travelbuddy/server/pkg/middleware"
)

// NewRouter creates a chi router with all matchmaking routes registered.
func NewRouter(
	planService *service.PlanService,
	joinRequestService *service.JoinRequestService,
	reviewService *service.ReviewService,
	paymentService *service.PaymentService,
	validateToken middleware.TokenValidator,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsCfg middleware.CORSConfig,
	pprofCIDRs []string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(corsCfg))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("travelbuddy"))
	r.Use(middleware.Tracing("travelbuddy"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, pprofCIDRs, logger)

	planHandler := NewPlanHandler(planService, logger)
	joinRequestHandler := NewJoinRequestHandler(joinRequestService, logger)
	reviewHandler := NewReviewHandler(reviewService, logger)
	paymentHandler := NewPaymentHandler(paymentService, logger)

	requireAuth := middleware.Auth(validateToken)
	optionalAuth := middleware.OptionalAuth(validateToken)

	r.Route("/api/v1/plans", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Browsing is open; a token, when present, lets hosts and admins see
		// private plans. Announcing and mutating require a login.
		r.With(optionalAuth, middleware.CacheControl(30)).Get("/", planHandler.ListPlans)
		r.With(optionalAuth, middleware.CacheControl(30)).Get("/{id}", planHandler.GetPlan)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/", planHandler.CreatePlan)
			r.Get("/match", planHandler.MatchPlans)
			r.Patch("/{id}", planHandler.UpdatePlan)
			r.Delete("/{id}", planHandler.DeletePlan)
		})
	})

	r.Route("/api/v1/join-requests", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(requireAuth)

		r.Post("/", joinRequestHandler.CreateJoinRequest)
		r.Get("/incoming", joinRequestHandler.ListIncoming)
		r.Get("/outgoing", joinRequestHandler.ListOutgoing)
		r.Post("/{id}/accept", joinRequestHandler.AcceptJoinRequest)
		r.Post("/{id}/reject", joinRequestHandler.RejectJoinRequest)
		r.Post("/{id}/cancel", joinRequestHandler.CancelJoinRequest)
	})

	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.With(middleware.CacheControl(30)).Get("/user/{id}", reviewHandler.ListUserReviews)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/", reviewHandler.CreateReview)
			r.Patch("/{id}", reviewHandler.UpdateReview)
			r.Delete("/{id}", reviewHandler.DeleteReview)
		})
	})

	r.Route("/api/v1/payments", func(r chi.Router) {
		// Gateway callbacks arrive form-encoded without a bearer token, so
		// they live outside both the JSON and auth middleware.
		r.Post("/success", paymentHandler.PaymentSuccess)
		r.Post("/fail", paymentHandler.PaymentFail)
		r.Post("/cancel", paymentHandler.PaymentCancel)

		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(requireAuth)

			r.Get("/", paymentHandler.ListPayments)
			r.Post("/subscription/init", paymentHandler.InitSubscription)
			r.Post("/badge/init", paymentHandler.InitVerifiedBadge)
		})
	})

	return r
}
