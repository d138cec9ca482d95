package repository

import (
	"context"
	"time"

	"github.com/travelbuddy/server/internal/domain"
)

// PlanFilter defines filter criteria for listing travel plans.
type PlanFilter struct {
	HostID     *string
	Country    *string
	City       *string
	TravelType *string
	Status     *string
	Visibility *string
	// From and To restrict results to plans whose dates overlap the range.
	// Both must be set for the filter to apply.
	From *time.Time
	To   *time.Time
	// IncludeDeleted lifts the soft-delete filter for admin reads.
	IncludeDeleted bool

	Page    int
	PerPage int
}

// MatchFilter selects candidate plans for companion matching. Matching only
// ever considers public, non-deleted plans.
type MatchFilter struct {
	Country       *string
	City          *string
	TravelType    *string
	From          *time.Time
	To            *time.Time
	ExcludeHostID *string
}

// JoinRequestFilter defines filter criteria for listing join requests.
type JoinRequestFilter struct {
	PlanID      *string
	HostID      *string
	RequesterID *string
	Status      *string

	Page    int
	PerPage int
}

// ReviewFilter defines filter criteria for listing reviews.
type ReviewFilter struct {
	RevieweeID *string
	PlanID     *string

	Page    int
	PerPage int
}

// PaymentFilter defines filter criteria for listing payments.
type PaymentFilter struct {
	UserID  *string
	Status  *string
	Purpose *string

	Page    int
	PerPage int
}

// UserRepository defines persistence operations on traveler accounts needed
// by the matchmaking flows.
type UserRepository interface {
	// GetByID retrieves a user by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// UpdateRatingSummary overwrites the denormalized rating aggregate.
	UpdateRatingSummary(ctx context.Context, userID string, summary domain.RatingSummary) error

	// SetSubscription marks the user subscribed until the given expiry.
	SetSubscription(ctx context.Context, userID string, expiresAt time.Time) error

	// SetVerifiedBadge grants the verified badge.
	SetVerifiedBadge(ctx context.Context, userID string) error
}

// PlanRepository defines persistence operations for travel plans.
type PlanRepository interface {
	// Create inserts a new travel plan.
	Create(ctx context.Context, plan *domain.TravelPlan) error

	// GetByID retrieves a plan by its unique identifier, including the host.
	// Soft-deleted plans are returned; callers decide how to treat them.
	GetByID(ctx context.Context, id string) (*domain.TravelPlan, error)

	// List returns plans matching the filter along with the total count.
	List(ctx context.Context, filter PlanFilter) ([]domain.TravelPlan, int, error)

	// Update persists mutable plan fields.
	Update(ctx context.Context, plan *domain.TravelPlan) error

	// SoftDelete marks the plan deleted without removing the row.
	SoftDelete(ctx context.Context, id string) error

	// ListForMatching returns all candidate plans for scoring, with hosts
	// populated, newest first.
	ListForMatching(ctx context.Context, filter MatchFilter) ([]domain.TravelPlan, error)
}

// JoinRequestRepository defines persistence operations for join requests.
type JoinRequestRepository interface {
	// Create inserts a new join request. A duplicate (plan_id, requester_id)
	// pair yields ErrAlreadyExists.
	Create(ctx context.Context, req *domain.JoinRequest) error

	// GetByID retrieves a join request by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.JoinRequest, error)

	// List returns join requests matching the filter with the total count.
	List(ctx context.Context, filter JoinRequestFilter) ([]domain.JoinRequest, int, error)

	// CountAccepted returns the number of accepted requests for a plan.
	CountAccepted(ctx context.Context, planID string) (int, error)

	// HasAccepted reports whether the user holds an accepted request on the plan.
	HasAccepted(ctx context.Context, planID, userID string) (bool, error)

	// UpdateStatus moves a pending request to the given status. It returns
	// ErrInvalidInput when the guarded update matches no row, meaning the
	// request already left the pending state, so a concurrent decision
	// loses cleanly.
	UpdateStatus(ctx context.Context, id string, status string) error
}

// ReviewRepository defines persistence operations for reviews.
type ReviewRepository interface {
	// Create inserts a new review. A duplicate (plan_id, reviewer_id,
	// reviewee_id) triple yields ErrAlreadyExists.
	Create(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its unique identifier. Soft-deleted
	// reviews are returned; callers decide how to treat them.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// List returns reviews matching the filter with the total count.
	List(ctx context.Context, filter ReviewFilter) ([]domain.Review, int, error)

	// Update persists rating and comment changes.
	Update(ctx context.Context, review *domain.Review) error

	// SoftDelete marks the review deleted without removing the row.
	SoftDelete(ctx context.Context, id string) error

	// ListRatingsForReviewee returns all live ratings received by a user.
	ListRatingsForReviewee(ctx context.Context, revieweeID string) ([]int, error)
}

// PaymentRepository defines persistence operations for payments.
type PaymentRepository interface {
	// Create inserts a new payment record.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByTransactionID retrieves a payment by its gateway transaction id.
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error)

	// List returns payments matching the filter with the total count.
	List(ctx context.Context, filter PaymentFilter) ([]domain.Payment, int, error)

	// UpdateStatus moves the payment to the given status, storing the raw
	// gateway payload when provided.
	UpdateStatus(ctx context.Context, transactionID, status string, gatewayData []byte) error
}
