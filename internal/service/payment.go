package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/travelbuddy/server/internal/domain"
	"github.com/travelbuddy/server/internal/event"
	"github.com/travelbuddy/server/internal/repository"
	apperrors "github.com/travelbuddy/server/pkg/errors"
)

// GatewaySession is the checkout session returned by the payment gateway.
type GatewaySession struct {
	SessionKey  string
	RedirectURL string
}

// GatewayValidation is the gateway's verdict on a completed transaction.
type GatewayValidation struct {
	TransactionID string
	ValidationID  string
	Status        string
	Amount        string
	Raw           []byte
}

// Valid reports whether the gateway confirmed the charge.
func (v *GatewayValidation) Valid() bool {
	return v.Status == "VALID" || v.Status == "VALIDATED"
}

// PaymentGateway abstracts the hosted checkout provider.
type PaymentGateway interface {
	// CreateSession opens a checkout session for the payment and returns the
	// URL the customer must be redirected to.
	CreateSession(ctx context.Context, payment *domain.Payment, customer *domain.User) (*GatewaySession, error)

	// ValidatePayment verifies a transaction with the gateway after the
	// success callback fires.
	ValidatePayment(ctx context.Context, validationID string) (*GatewayValidation, error)
}

// PaymentService implements subscription and verified badge purchases.
type PaymentService struct {
	payments repository.PaymentRepository
	users    repository.UserRepository
	gateway  PaymentGateway
	producer *event.Producer
	logger   *slog.Logger
}

// NewPaymentService creates a new payment service.
func NewPaymentService(
	payments repository.PaymentRepository,
	users repository.UserRepository,
	gateway PaymentGateway,
	producer *event.Producer,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		payments: payments,
		users:    users,
		gateway:  gateway,
		producer: producer,
		logger:   logger,
	}
}

func newTransactionID(prefix string) string {
	return prefix + "_" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
}

func (s *PaymentService) initPayment(ctx context.Context, user *domain.User, payment *domain.Payment) (*GatewaySession, error) {
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	session, err := s.gateway.CreateSession(ctx, payment, user)
	if err != nil {
		return nil, fmt.Errorf("create gateway session: %w", err)
	}

	s.logger.InfoContext(ctx, "payment initiated",
		slog.String("transaction_id", payment.TransactionID),
		slog.String("user_id", payment.UserID),
		slog.String("purpose", payment.Purpose),
		slog.Int64("amount", payment.Amount),
	)

	return session, nil
}

// InitSubscription starts a checkout session for a monthly or yearly
// subscription.
func (s *PaymentService) InitSubscription(ctx context.Context, actor Actor, planType string) (*domain.Payment, *GatewaySession, error) {
	user, err := fetchActiveUser(ctx, s.users, actor.UserID)
	if err != nil {
		return nil, nil, err
	}

	amount := domain.SubscriptionAmount(planType)
	if amount == 0 {
		return nil, nil, apperrors.InvalidInput(fmt.Sprintf("plan type must be %s or %s",
			domain.SubscriptionPlanMonthly, domain.SubscriptionPlanYearly))
	}

	now := time.Now().UTC()
	payment := &domain.Payment{
		ID:            uuid.New().String(),
		UserID:        user.ID,
		TransactionID: newTransactionID("SUB"),
		Gateway:       domain.GatewaySSLCommerz,
		Purpose:       domain.PaymentPurposeSubscription,
		PlanType:      planType,
		Amount:        amount,
		Currency:      domain.PaymentCurrency,
		Status:        domain.PaymentStatusInitiated,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	session, err := s.initPayment(ctx, user, payment)
	if err != nil {
		return nil, nil, err
	}

	return payment, session, nil
}

// InitVerifiedBadge starts a checkout session for the verified badge. Only
// subscribed users without the badge may buy one.
func (s *PaymentService) InitVerifiedBadge(ctx context.Context, actor Actor) (*domain.Payment, *GatewaySession, error) {
	user, err := fetchActiveUser(ctx, s.users, actor.UserID)
	if err != nil {
		return nil, nil, err
	}

	if !user.HasActiveSubscription(time.Now().UTC()) {
		return nil, nil, apperrors.Forbidden("an active subscription is required to buy the verified badge")
	}
	if user.HasVerifiedBadge {
		return nil, nil, apperrors.InvalidInput("you already have a verified badge")
	}

	now := time.Now().UTC()
	payment := &domain.Payment{
		ID:            uuid.New().String(),
		UserID:        user.ID,
		TransactionID: newTransactionID("BADGE"),
		Gateway:       domain.GatewaySSLCommerz,
		Purpose:       domain.PaymentPurposeVerifiedBadge,
		Amount:        domain.VerifiedBadgeAmount,
		Currency:      domain.PaymentCurrency,
		Status:        domain.PaymentStatusInitiated,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	session, err := s.initPayment(ctx, user, payment)
	if err != nil {
		return nil, nil, err
	}

	return payment, session, nil
}

// ProcessSuccess handles the gateway's success callback. The transaction is
// re-verified with the gateway before any benefit is granted.
func (s *PaymentService) ProcessSuccess(ctx context.Context, transactionID, validationID string) (*domain.Payment, error) {
	payment, err := s.payments.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if !payment.CanTransitionTo(domain.PaymentStatusPaid) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("payment is already %s", payment.Status))
	}

	validation, err := s.gateway.ValidatePayment(ctx, validationID)
	if err != nil {
		return nil, fmt.Errorf("validate payment: %w", err)
	}
	if !validation.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("gateway reported transaction status %s", validation.Status))
	}
	if validation.TransactionID != payment.TransactionID {
		return nil, apperrors.InvalidInput("transaction id mismatch")
	}

	if err := s.payments.UpdateStatus(ctx, transactionID, domain.PaymentStatusPaid, validation.Raw); err != nil {
		return nil, fmt.Errorf("mark payment paid: %w", err)
	}

	payment.Status = domain.PaymentStatusPaid
	payment.UpdatedAt = time.Now().UTC()

	if err := s.applyBenefit(ctx, payment); err != nil {
		return nil, err
	}

	s.publishSettled(ctx, payment)

	s.logger.InfoContext(ctx, "payment completed",
		slog.String("transaction_id", payment.TransactionID),
		slog.String("user_id", payment.UserID),
		slog.String("purpose", payment.Purpose),
	)

	return payment, nil
}

// applyBenefit grants what the payment bought. Subscription expiry extends
// from the current expiry when it is still in the future, otherwise from now.
func (s *PaymentService) applyBenefit(ctx context.Context, payment *domain.Payment) error {
	user, err := s.users.GetByID(ctx, payment.UserID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	switch payment.Purpose {
	case domain.PaymentPurposeSubscription:
		base := now
		if user.SubscriptionExpiresAt != nil && user.SubscriptionExpiresAt.After(now) {
			base = *user.SubscriptionExpiresAt
		}
		expiresAt := base.Add(domain.SubscriptionDuration(payment.PlanType))
		if err := s.users.SetSubscription(ctx, user.ID, expiresAt); err != nil {
			return fmt.Errorf("activate subscription: %w", err)
		}

	case domain.PaymentPurposeVerifiedBadge:
		if !user.HasActiveSubscription(now) {
			return apperrors.Forbidden("an active subscription is required to receive the verified badge")
		}
		if err := s.users.SetVerifiedBadge(ctx, user.ID); err != nil {
			return fmt.Errorf("grant verified badge: %w", err)
		}

	default:
		return apperrors.Internal(fmt.Errorf("unknown payment purpose %q", payment.Purpose))
	}

	return nil
}

// ProcessFail handles the gateway's failure callback.
func (s *PaymentService) ProcessFail(ctx context.Context, transactionID string) (*domain.Payment, error) {
	return s.settle(ctx, transactionID, domain.PaymentStatusFailed)
}

// ProcessCancel handles the gateway's cancellation callback.
func (s *PaymentService) ProcessCancel(ctx context.Context, transactionID string) (*domain.Payment, error) {
	return s.settle(ctx, transactionID, domain.PaymentStatusCanceled)
}

func (s *PaymentService) settle(ctx context.Context, transactionID, status string) (*domain.Payment, error) {
	payment, err := s.payments.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if !payment.CanTransitionTo(status) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("payment is already %s", payment.Status))
	}

	if err := s.payments.UpdateStatus(ctx, transactionID, status, nil); err != nil {
		return nil, fmt.Errorf("mark payment %s: %w", strings.ToLower(status), err)
	}

	payment.Status = status
	payment.UpdatedAt = time.Now().UTC()

	s.publishSettled(ctx, payment)

	s.logger.InfoContext(ctx, "payment settled",
		slog.String("transaction_id", payment.TransactionID),
		slog.String("status", status),
	)

	return payment, nil
}

func (s *PaymentService) publishSettled(ctx context.Context, payment *domain.Payment) {
	if err := s.producer.PublishPaymentSettled(ctx, payment); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish payment.settled event",
			slog.String("transaction_id", payment.TransactionID),
			slog.String("error", err.Error()),
		)
	}
}

// ListPayments returns the actor's own payment history. Admins may list any
// user's payments by leaving the filter's UserID set.
func (s *PaymentService) ListPayments(ctx context.Context, actor Actor, filter repository.PaymentFilter) ([]domain.Payment, int, error) {
	if _, err := fetchActiveUser(ctx, s.users, actor.UserID); err != nil {
		return nil, 0, err
	}

	if !actor.IsAdmin() || filter.UserID == nil {
		filter.UserID = &actor.UserID
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 10
	}
	if filter.PerPage > 50 {
		filter.PerPage = 50
	}

	payments, total, err := s.payments.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list payments: %w", err)
	}

	return payments, total, nil
}
