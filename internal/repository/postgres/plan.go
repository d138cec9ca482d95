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

// PlanRepository implements repository.PlanRepository using PostgreSQL.
type PlanRepository struct {
	pool database.DBTX
}

// NewPlanRepository creates a new PostgreSQL-backed travel plan repository.
func NewPlanRepository(pool database.DBTX) *PlanRepository {
	return &PlanRepository{pool: pool}
}

const planColumns = `p.id, p.host_id, p.country, p.city, p.start_date, p.end_date,
	p.budget_min, p.budget_max, p.travel_type, p.description, p.visibility,
	p.status, p.max_participants, p.deleted_at, p.created_at, p.updated_at`

const hostColumns = `u.id, u.full_name, u.image_url, u.current_location,
	u.travel_interests, u.rating_average, u.rating_count, u.has_verified_badge`

// Create inserts a new travel plan.
func (r *PlanRepository) Create(ctx context.Context, p *domain.TravelPlan) error {
	query := `
		INSERT INTO travel_plans (id, host_id, country, city, start_date, end_date, budget_min, budget_max, travel_type, description, visibility, status, max_participants, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.HostID,
		p.Destination.Country,
		p.Destination.City,
		p.StartDate,
		p.EndDate,
		p.BudgetMin,
		p.BudgetMax,
		p.TravelType,
		p.Description,
		p.Visibility,
		p.Status,
		p.MaxParticipants,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert travel plan: %w", err)
	}

	return nil
}

// GetByID retrieves a plan by its ID with the host populated.
func (r *PlanRepository) GetByID(ctx context.Context, id string) (*domain.TravelPlan, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM travel_plans p
		JOIN users u ON u.id = p.host_id
		WHERE p.id = $1`, planColumns, hostColumns)

	var (
		p    domain.TravelPlan
		host domain.User
	)

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.HostID,
		&p.Destination.Country,
		&p.Destination.City,
		&p.StartDate,
		&p.EndDate,
		&p.BudgetMin,
		&p.BudgetMax,
		&p.TravelType,
		&p.Description,
		&p.Visibility,
		&p.Status,
		&p.MaxParticipants,
		&p.DeletedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
		&host.ID,
		&host.FullName,
		&host.ImageURL,
		&host.CurrentLocation,
		&host.TravelInterests,
		&host.RatingSummary.Average,
		&host.RatingSummary.Count,
		&host.HasVerifiedBadge,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("travel plan", id)
		}
		return nil, fmt.Errorf("scan travel plan: %w", err)
	}

	p.Host = &host
	return &p, nil
}

// List returns plans matching the given filter with the total count.
func (r *PlanRepository) List(ctx context.Context, filter repository.PlanFilter) ([]domain.TravelPlan, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if !filter.IncludeDeleted {
		conditions = append(conditions, "p.deleted_at IS NULL")
	}
	if filter.HostID != nil {
		conditions = append(conditions, fmt.Sprintf("p.host_id = $%d", argIndex))
		args = append(args, *filter.HostID)
		argIndex++
	}
	if filter.Country != nil {
		conditions = append(conditions, fmt.Sprintf("p.country ILIKE '%%' || $%d || '%%'", argIndex))
		args = append(args, *filter.Country)
		argIndex++
	}
	if filter.City != nil {
		conditions = append(conditions, fmt.Sprintf("p.city ILIKE '%%' || $%d || '%%'", argIndex))
		args = append(args, *filter.City)
		argIndex++
	}
	if filter.TravelType != nil {
		conditions = append(conditions, fmt.Sprintf("p.travel_type = $%d", argIndex))
		args = append(args, *filter.TravelType)
		argIndex++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}
	if filter.Visibility != nil {
		conditions = append(conditions, fmt.Sprintf("p.visibility = $%d", argIndex))
		args = append(args, *filter.Visibility)
		argIndex++
	}
	if filter.From != nil && filter.To != nil {
		// Overlap: a plan qualifies when its range intersects [from, to].
		conditions = append(conditions, fmt.Sprintf("p.start_date <= $%d", argIndex))
		args = append(args, *filter.To)
		argIndex++
		conditions = append(conditions, fmt.Sprintf("p.end_date >= $%d", argIndex))
		args = append(args, *filter.From)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Use count(*) OVER() for total count in a single query.
	query := fmt.Sprintf(`
		SELECT %s, %s,
			   count(*) OVER() AS total_count
		FROM travel_plans p
		JOIN users u ON u.id = p.host_id
		%s
		ORDER BY p.created_at DESC
		LIMIT $%d OFFSET $%d`,
		planColumns, hostColumns, whereClause, argIndex, argIndex+1,
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
		return nil, 0, fmt.Errorf("list travel plans: %w", err)
	}
	defer rows.Close()

	var totalCount int
	plans := make([]domain.TravelPlan, 0)

	for rows.Next() {
		var (
			p    domain.TravelPlan
			host domain.User
		)
		if err := rows.Scan(
			&p.ID,
			&p.HostID,
			&p.Destination.Country,
			&p.Destination.City,
			&p.StartDate,
			&p.EndDate,
			&p.BudgetMin,
			&p.BudgetMax,
			&p.TravelType,
			&p.Description,
			&p.Visibility,
			&p.Status,
			&p.MaxParticipants,
			&p.DeletedAt,
			&p.CreatedAt,
			&p.UpdatedAt,
			&host.ID,
			&host.FullName,
			&host.ImageURL,
			&host.CurrentLocation,
			&host.TravelInterests,
			&host.RatingSummary.Average,
			&host.RatingSummary.Count,
			&host.HasVerifiedBadge,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan travel plan row: %w", err)
		}
		p.Host = &host
		plans = append(plans, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate travel plan rows: %w", err)
	}

	return plans, totalCount, nil
}

// Update persists mutable plan fields.
func (r *PlanRepository) Update(ctx context.Context, p *domain.TravelPlan) error {
	query := `
		UPDATE travel_plans
		SET country = $1, city = $2, start_date = $3, end_date = $4,
			budget_min = $5, budget_max = $6, travel_type = $7, description = $8,
			visibility = $9, status = $10, max_participants = $11, updated_at = $12
		WHERE id = $13 AND deleted_at IS NULL`

	ct, err := r.pool.Exec(ctx, query,
		p.Destination.Country,
		p.Destination.City,
		p.StartDate,
		p.EndDate,
		p.BudgetMin,
		p.BudgetMax,
		p.TravelType,
		p.Description,
		p.Visibility,
		p.Status,
		p.MaxParticipants,
		time.Now().UTC(),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update travel plan: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("travel plan", p.ID)
	}

	return nil
}

// SoftDelete marks the plan deleted without removing the row.
func (r *PlanRepository) SoftDelete(ctx context.Context, id string) error {
	query := `
		UPDATE travel_plans
		SET deleted_at = $1, updated_at = $1
		WHERE id = $2 AND deleted_at IS NULL`

	ct, err := r.pool.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("soft delete travel plan: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("travel plan", id)
	}

	return nil
}

// ListForMatching returns all candidate plans for scoring. Only public,
// live plans qualify; hosts are populated for interest scoring.
func (r *PlanRepository) ListForMatching(ctx context.Context, filter repository.MatchFilter) ([]domain.TravelPlan, error) {
	conditions := []string{
		"p.deleted_at IS NULL",
		"p.visibility = 'PUBLIC'",
	}
	var (
		args     []any
		argIndex = 1
	)

	if filter.Country != nil {
		conditions = append(conditions, fmt.Sprintf("p.country ILIKE '%%' || $%d || '%%'", argIndex))
		args = append(args, *filter.Country)
		argIndex++
	}
	if filter.City != nil {
		conditions = append(conditions, fmt.Sprintf("p.city ILIKE '%%' || $%d || '%%'", argIndex))
		args = append(args, *filter.City)
		argIndex++
	}
	if filter.TravelType != nil {
		conditions = append(conditions, fmt.Sprintf("p.travel_type = $%d", argIndex))
		args = append(args, *filter.TravelType)
		argIndex++
	}
	if filter.From != nil && filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("p.start_date <= $%d", argIndex))
		args = append(args, *filter.To)
		argIndex++
		conditions = append(conditions, fmt.Sprintf("p.end_date >= $%d", argIndex))
		args = append(args, *filter.From)
		argIndex++
	}
	if filter.ExcludeHostID != nil {
		conditions = append(conditions, fmt.Sprintf("p.host_id <> $%d", argIndex))
		args = append(args, *filter.ExcludeHostID)
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT %s, %s
		FROM travel_plans p
		JOIN users u ON u.id = p.host_id
		WHERE %s
		ORDER BY p.created_at DESC`,
		planColumns, hostColumns, strings.Join(conditions, " AND "),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list plans for matching: %w", err)
	}
	defer rows.Close()

	plans := make([]domain.TravelPlan, 0)
	for rows.Next() {
		var (
			p    domain.TravelPlan
			host domain.User
		)
		if err := rows.Scan(
			&p.ID,
			&p.HostID,
			&p.Destination.Country,
			&p.Destination.City,
			&p.StartDate,
			&p.EndDate,
			&p.BudgetMin,
			&p.BudgetMax,
			&p.TravelType,
			&p.Description,
			&p.Visibility,
			&p.Status,
			&p.MaxParticipants,
			&p.DeletedAt,
			&p.CreatedAt,
			&p.UpdatedAt,
			&host.ID,
			&host.FullName,
			&host.ImageURL,
			&host.CurrentLocation,
			&host.TravelInterests,
			&host.RatingSummary.Average,
			&host.RatingSummary.Count,
			&host.HasVerifiedBadge,
		); err != nil {
			return nil, fmt.Errorf("scan matching plan row: %w", err)
		}
		p.Host = &host
		plans = append(plans, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate matching plan rows: %w", err)
	}

	return plans, nil
}
