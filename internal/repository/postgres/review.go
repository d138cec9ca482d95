package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/travelbuddy/server/internal/domain"
	"github.com/travelbuddy/server/internal/repository"
	"github.com/travelbuddy/server/pkg/database"
	apperrors "github.com/travelbuddy/server/pkg/errors"
)

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	pool database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(pool database.DBTX) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create inserts a new review. The partial unique index on (plan_id,
// reviewer_id, reviewee_id) turns a repeat review into ErrAlreadyExists.
func (r *ReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (id, plan_id, reviewer_id, reviewee_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		review.ID,
		review.PlanID,
		review.ReviewerID,
		review.RevieweeID,
		review.Rating,
		review.Comment,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("review", "plan", review.PlanID)
		}
		return fmt.Errorf("insert review: %w", err)
	}

	return nil
}

// GetByID retrieves a review by its ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := `
		SELECT id, plan_id, reviewer_id, reviewee_id, rating, comment, deleted_at, created_at, updated_at
		FROM reviews
		WHERE id = $1`

	var review domain.Review
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&review.ID,
		&review.PlanID,
		&review.ReviewerID,
		&review.RevieweeID,
		&review.Rating,
		&review.Comment,
		&review.DeletedAt,
		&review.CreatedAt,
		&review.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("review", id)
		}
		return nil, fmt.Errorf("scan review: %w", err)
	}

	return &review, nil
}

// List returns live reviews matching the filter, newest first, with the
// reviewing user populated.
func (r *ReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	conditions := []string{"rv.deleted_at IS NULL"}
	var (
		args     []any
		argIndex = 1
	)

	if filter.RevieweeID != nil {
		conditions = append(conditions, fmt.Sprintf("rv.reviewee_id = $%d", argIndex))
		args = append(args, *filter.RevieweeID)
		argIndex++
	}
	if filter.PlanID != nil {
		conditions = append(conditions, fmt.Sprintf("rv.plan_id = $%d", argIndex))
		args = append(args, *filter.PlanID)
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT rv.id, rv.plan_id, rv.reviewer_id, rv.reviewee_id, rv.rating, rv.comment, rv.deleted_at, rv.created_at, rv.updated_at,
			   u.id, u.full_name, u.image_url, u.has_verified_badge,
			   count(*) OVER() AS total_count
		FROM reviews rv
		JOIN users u ON u.id = rv.reviewer_id
		WHERE %s
		ORDER BY rv.created_at DESC
		LIMIT $%d OFFSET $%d`,
		strings.Join(conditions, " AND "), argIndex, argIndex+1,
	)

	limit := filter.PerPage
	if limit <= 0 {
		limit = 10
	}
	offset := 0
	if filter.Page > 1 {
		offset = (filter.Page - 1) * limit
	}

	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var totalCount int
	reviews := make([]domain.Review, 0)

	for rows.Next() {
		var (
			review   domain.Review
			reviewer domain.User
		)
		if err := rows.Scan(
			&review.ID,
			&review.PlanID,
			&review.ReviewerID,
			&review.RevieweeID,
			&review.Rating,
			&review.Comment,
			&review.DeletedAt,
			&review.CreatedAt,
			&review.UpdatedAt,
			&reviewer.ID,
			&reviewer.FullName,
			&reviewer.ImageURL,
			&reviewer.HasVerifiedBadge,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan review row: %w", err)
		}
		review.Reviewer = &reviewer
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate review rows: %w", err)
	}

	return reviews, totalCount, nil
}

// Update persists rating and comment changes on a live review.
func (r *ReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	query := `
		UPDATE reviews
		SET rating = $1, comment = $2, updated_at = $3
		WHERE id = $4 AND deleted_at IS NULL`

	ct, err := r.pool.Exec(ctx, query, review.Rating, review.Comment, time.Now().UTC(), review.ID)
	if err != nil {
		return fmt.Errorf("update review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", review.ID)
	}

	return nil
}

// SoftDelete marks the review deleted without removing the row.
func (r *ReviewRepository) SoftDelete(ctx context.Context, id string) error {
	query := `
		UPDATE reviews
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL`

	ct, err := r.pool.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("soft delete review: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("review", id)
	}

	return nil
}

// ListRatingsForReviewee returns all live ratings received by a user, used
// to recompute the rating summary from scratch.
func (r *ReviewRepository) ListRatingsForReviewee(ctx context.Context, revieweeID string) ([]int, error) {
	query := `
		SELECT rating
		FROM reviews
		WHERE reviewee_id = $1 AND deleted_at IS NULL`

	rows, err := r.pool.Query(ctx, query, revieweeID)
	if err != nil {
		return nil, fmt.Errorf("list ratings for reviewee: %w", err)
	}
	defer rows.Close()

	ratings := make([]int, 0)
	for rows.Next() {
		var rating int
		if err := rows.Scan(&rating); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, rating)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rating rows: %w", err)
	}

	return ratings, nil
}
