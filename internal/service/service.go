package service

import (
	"context"

	"github.com/travelbuddy/server/internal/domain"
	"github.com/travelbuddy/server/internal/repository"
	apperrors "github.com/travelbuddy/server/pkg/errors"
)

// Actor identifies the authenticated caller of a service operation.
type Actor struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == domain.RoleAdmin
}

// fetchActiveUser loads a user, treats soft-deleted accounts as missing and
// rejects blocked ones. Every write path starts with this guard.
func fetchActiveUser(ctx context.Context, users repository.UserRepository, id string) (*domain.User, error) {
	user, err := users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.IsDeleted {
		return nil, apperrors.NotFound("user", id)
	}
	if !user.IsActive() {
		return nil, apperrors.Forbidden("user account is blocked")
	}
	return user, nil
}

// fetchLivePlan loads a plan and treats soft-deleted ones as missing.
func fetchLivePlan(ctx context.Context, plans repository.PlanRepository, id string) (*domain.TravelPlan, error) {
	plan, err := plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan.IsDeleted() {
		return nil, apperrors.NotFound("travel plan", id)
	}
	return plan, nil
}
