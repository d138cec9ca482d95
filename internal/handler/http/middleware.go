package http

import (
	"net/http"
	"strings"

	"github.com/travelbuddy/server/internal/domain"
	"github.com/travelbuddy/server/internal/service"
	"github.com/travelbuddy/server/pkg/middleware"
)

// ContentTypeJSON rejects mutating requests whose Content-Type is not JSON.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// actorFromRequest builds the service actor from the claims the auth
// middleware stored in the request context.
func actorFromRequest(r *http.Request) service.Actor {
	return service.Actor{
		UserID: middleware.UserIDFromContext(r.Context()),
		Role:   middleware.RoleFromContext(r.Context()),
	}
}

// optionalActorFromRequest returns the actor when the request is
// authenticated, or nil for anonymous reads.
func optionalActorFromRequest(r *http.Request) *service.Actor {
	actor := actorFromRequest(r)
	if actor.UserID == "" {
		return nil
	}
	return &actor
}

// isAdminRequest reports whether the request carries the admin role.
func isAdminRequest(r *http.Request) bool {
	return middleware.RoleFromContext(r.Context()) == domain.RoleAdmin
}
