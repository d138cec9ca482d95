package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/travelbuddy/server/internal/domain"
	"github.com/travelbuddy/server/pkg/database"
	apperrors "github.com/travelbuddy/server/pkg/errors"
)

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	pool database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool database.DBTX) *UserRepository {
	return &UserRepository{pool: pool}
}

// GetByID retrieves a user by its ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT id, full_name, email, role, status, is_deleted, image_url, current_location,
			   travel_interests, rating_average, rating_count, is_subscribed,
			   subscription_expires_at, has_verified_badge, created_at, updated_at
		FROM users
		WHERE id = $1`

	var u domain.User
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&u.ID,
		&u.FullName,
		&u.Email,
		&u.Role,
		&u.Status,
		&u.IsDeleted,
		&u.ImageURL,
		&u.CurrentLocation,
		&u.TravelInterests,
		&u.RatingSummary.Average,
		&u.RatingSummary.Count,
		&u.IsSubscribed,
		&u.SubscriptionExpiresAt,
		&u.HasVerifiedBadge,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user", id)
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &u, nil
}

// UpdateRatingSummary overwrites the denormalized rating aggregate.
func (r *UserRepository) UpdateRatingSummary(ctx context.Context, userID string, summary domain.RatingSummary) error {
	query := `
		UPDATE users
		SET rating_average = $1, rating_count = $2, updated_at = $3
		WHERE id = $4`

	ct, err := r.pool.Exec(ctx, query, summary.Average, summary.Count, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("update rating summary: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", userID)
	}

	return nil
}

// SetSubscription marks the user subscribed until the given expiry.
func (r *UserRepository) SetSubscription(ctx context.Context, userID string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET is_subscribed = TRUE, subscription_expires_at = $1, updated_at = $2
		WHERE id = $3`

	ct, err := r.pool.Exec(ctx, query, expiresAt, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("set subscription: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", userID)
	}

	return nil
}

// SetVerifiedBadge grants the verified badge.
func (r *UserRepository) SetVerifiedBadge(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET has_verified_badge = TRUE, updated_at = $1
		WHERE id = $2`

	ct, err := r.pool.Exec(ctx, query, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("set verified badge: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", userID)
	}

	return nil
}
