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

// JoinRequestRepository implements repository.JoinRequestRepository using PostgreSQL.
type JoinRequestRepository struct {
	pool database.DBTX
}

// NewJoinRequestRepository creates a new PostgreSQL-backed join request repository.
func NewJoinRequestRepository(pool database.DBTX) *JoinRequestRepository {
	return &JoinRequestRepository{pool: pool}
}

// Create inserts a new join request. The (plan_id, requester_id) unique
// constraint turns a repeat request into ErrAlreadyExists.
func (r *JoinRequestRepository) Create(ctx context.Context, req *domain.JoinRequest) error {
	query := `
		INSERT INTO join_requests (id, plan_id, host_id, requester_id, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		req.ID,
		req.PlanID,
		req.HostID,
		req.RequesterID,
		req.Message,
		req.Status,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("join request", "plan", req.PlanID)
		}
		return fmt.Errorf("insert join request: %w", err)
	}

	return nil
}

// GetByID retrieves a join request by its ID.
func (r *JoinRequestRepository) GetByID(ctx context.Context, id string) (*domain.JoinRequest, error) {
	query := `
		SELECT id, plan_id, host_id, requester_id, message, status, created_at, updated_at
		FROM join_requests
		WHERE id = $1`

	var req domain.JoinRequest
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&req.ID,
		&req.PlanID,
		&req.HostID,
		&req.RequesterID,
		&req.Message,
		&req.Status,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("join request", id)
		}
		return nil, fmt.Errorf("scan join request: %w", err)
	}

	return &req, nil
}

// List returns join requests matching the filter, newest first, with the
// requesting user populated.
func (r *JoinRequestRepository) List(ctx context.Context, filter repository.JoinRequestFilter) ([]domain.JoinRequest, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.PlanID != nil {
		conditions = append(conditions, fmt.Sprintf("jr.plan_id = $%d", argIndex))
		args = append(args, *filter.PlanID)
		argIndex++
	}
	if filter.HostID != nil {
		conditions = append(conditions, fmt.Sprintf("jr.host_id = $%d", argIndex))
		args = append(args, *filter.HostID)
		argIndex++
	}
	if filter.RequesterID != nil {
		conditions = append(conditions, fmt.Sprintf("jr.requester_id = $%d", argIndex))
		args = append(args, *filter.RequesterID)
		argIndex++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("jr.status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT jr.id, jr.plan_id, jr.host_id, jr.requester_id, jr.message, jr.status, jr.created_at, jr.updated_at,
			   u.id, u.full_name, u.image_url, u.current_location, u.travel_interests,
			   u.rating_average, u.rating_count, u.has_verified_badge,
			   count(*) OVER() AS total_count
		FROM join_requests jr
		JOIN users u ON u.id = jr.requester_id
		%s
		ORDER BY jr.created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIndex, argIndex+1,
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
		return nil, 0, fmt.Errorf("list join requests: %w", err)
	}
	defer rows.Close()

	var totalCount int
	requests := make([]domain.JoinRequest, 0)

	for rows.Next() {
		var (
			req       domain.JoinRequest
			requester domain.User
		)
		if err := rows.Scan(
			&req.ID,
			&req.PlanID,
			&req.HostID,
			&req.RequesterID,
			&req.Message,
			&req.Status,
			&req.CreatedAt,
			&req.UpdatedAt,
			&requester.ID,
			&requester.FullName,
			&requester.ImageURL,
			&requester.CurrentLocation,
			&requester.TravelInterests,
			&requester.RatingSummary.Average,
			&requester.RatingSummary.Count,
			&requester.HasVerifiedBadge,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan join request row: %w", err)
		}
		req.Requester = &requester
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate join request rows: %w", err)
	}

	return requests, totalCount, nil
}

// CountAccepted returns the number of accepted requests for a plan.
func (r *JoinRequestRepository) CountAccepted(ctx context.Context, planID string) (int, error) {
	query := `
		SELECT count(*)
		FROM join_requests
		WHERE plan_id = $1 AND status = 'ACCEPTED'`

	var count int
	if err := r.pool.QueryRow(ctx, query, planID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count accepted join requests: %w", err)
	}

	return count, nil
}

// HasAccepted reports whether the user holds an accepted request on the plan.
func (r *JoinRequestRepository) HasAccepted(ctx context.Context, planID, userID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM join_requests
			WHERE plan_id = $1 AND requester_id = $2 AND status = 'ACCEPTED'
		)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, planID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check accepted join request: %w", err)
	}

	return exists, nil
}

// UpdateStatus moves a pending request to the given status. The status guard
// in the WHERE clause makes concurrent decisions race-safe: the second writer
// matches zero rows, meaning the request already left PENDING.
func (r *JoinRequestRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	query := `
		UPDATE join_requests
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = 'PENDING'`

	ct, err := r.pool.Exec(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update join request status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.InvalidInput("this request is not pending anymore")
	}

	return nil
}
