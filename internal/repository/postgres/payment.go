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

// PaymentRepository implements repository.PaymentRepository using PostgreSQL.
type PaymentRepository struct {
	pool database.DBTX
}

// NewPaymentRepository creates a new PostgreSQL-backed payment repository.
func NewPaymentRepository(pool database.DBTX) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Create inserts a new payment record.
func (r *PaymentRepository) Create(ctx context.Context, p *domain.Payment) error {
	query := `
		INSERT INTO payments (id, user_id, transaction_id, gateway, purpose, plan_type, amount, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.UserID,
		p.TransactionID,
		p.Gateway,
		p.Purpose,
		p.PlanType,
		p.Amount,
		p.Currency,
		p.Status,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("payment", "transaction_id", p.TransactionID)
		}
		return fmt.Errorf("insert payment: %w", err)
	}

	return nil
}

// GetByTransactionID retrieves a payment by its gateway transaction id.
func (r *PaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	query := `
		SELECT id, user_id, transaction_id, gateway, purpose, plan_type, amount, currency, status, gateway_data, created_at, updated_at
		FROM payments
		WHERE transaction_id = $1`

	var p domain.Payment
	err := r.pool.QueryRow(ctx, query, transactionID).Scan(
		&p.ID,
		&p.UserID,
		&p.TransactionID,
		&p.Gateway,
		&p.Purpose,
		&p.PlanType,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&p.GatewayData,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("payment", transactionID)
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}

	return &p, nil
}

// List returns payments matching the filter, newest first.
func (r *PaymentRepository) List(ctx context.Context, filter repository.PaymentFilter) ([]domain.Payment, int, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	if filter.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argIndex))
		args = append(args, *filter.UserID)
		argIndex++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, *filter.Status)
		argIndex++
	}
	if filter.Purpose != nil {
		conditions = append(conditions, fmt.Sprintf("purpose = $%d", argIndex))
		args = append(args, *filter.Purpose)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, transaction_id, gateway, purpose, plan_type, amount, currency, status, gateway_data, created_at, updated_at,
			   count(*) OVER() AS total_count
		FROM payments
		%s
		ORDER BY created_at DESC
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
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var totalCount int
	payments := make([]domain.Payment, 0)

	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.TransactionID,
			&p.Gateway,
			&p.Purpose,
			&p.PlanType,
			&p.Amount,
			&p.Currency,
			&p.Status,
			&p.GatewayData,
			&p.CreatedAt,
			&p.UpdatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate payment rows: %w", err)
	}

	return payments, totalCount, nil
}

// UpdateStatus moves an initiated payment to a terminal status, storing the
// raw gateway payload when provided. The status guard keeps gateway callbacks
// idempotent: a replayed callback matches zero rows.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, transactionID, status string, gatewayData []byte) error {
	query := `
		UPDATE payments
		SET status = $1, gateway_data = COALESCE($2, gateway_data), updated_at = $3
		WHERE transaction_id = $4 AND status = 'INITIATED'`

	ct, err := r.pool.Exec(ctx, query, status, gatewayData, time.Now().UTC(), transactionID)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("initiated payment", transactionID)
	}

	return nil
}
