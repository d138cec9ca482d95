package service

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/travelbuddy/server/internal/domain"
	"github.com/travelbuddy/server/internal/event"
	"github.com/travelbuddy/server/internal/repository"
	pkgkafka "github.com/travelbuddy/server/pkg/kafka"
)

// --- Mock Repositories ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) UpdateRatingSummary(ctx context.Context, userID string, summary domain.RatingSummary) error {
	args := m.Called(ctx, userID, summary)
	return args.Error(0)
}

func (m *mockUserRepository) SetSubscription(ctx context.Context, userID string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, expiresAt)
	return args.Error(0)
}

func (m *mockUserRepository) SetVerifiedBadge(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type mockPlanRepository struct {
	mock.Mock
}

func (m *mockPlanRepository) Create(ctx context.Context, plan *domain.TravelPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *mockPlanRepository) GetByID(ctx context.Context, id string) (*domain.TravelPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TravelPlan), args.Error(1)
}

func (m *mockPlanRepository) List(ctx context.Context, filter repository.PlanFilter) ([]domain.TravelPlan, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.TravelPlan), args.Int(1), args.Error(2)
}

func (m *mockPlanRepository) Update(ctx context.Context, plan *domain.TravelPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *mockPlanRepository) SoftDelete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockPlanRepository) ListForMatching(ctx context.Context, filter repository.MatchFilter) ([]domain.TravelPlan, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TravelPlan), args.Error(1)
}

type mockJoinRequestRepository struct {
	mock.Mock
}

func (m *mockJoinRequestRepository) Create(ctx context.Context, req *domain.JoinRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *mockJoinRequestRepository) GetByID(ctx context.Context, id string) (*domain.JoinRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JoinRequest), args.Error(1)
}

func (m *mockJoinRequestRepository) List(ctx context.Context, filter repository.JoinRequestFilter) ([]domain.JoinRequest, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.JoinRequest), args.Int(1), args.Error(2)
}

func (m *mockJoinRequestRepository) CountAccepted(ctx context.Context, planID string) (int, error) {
	args := m.Called(ctx, planID)
	return args.Int(0), args.Error(1)
}

func (m *mockJoinRequestRepository) HasAccepted(ctx context.Context, planID, userID string) (bool, error) {
	args := m.Called(ctx, planID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockJoinRequestRepository) UpdateStatus(ctx context.Context, id string, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) List(ctx context.Context, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) SoftDelete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockReviewRepository) ListRatingsForReviewee(ctx context.Context, revieweeID string) ([]int, error) {
	args := m.Called(ctx, revieweeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

type mockPaymentRepository struct {
	mock.Mock
}

func (m *mockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *mockPaymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Payment), args.Error(1)
}

func (m *mockPaymentRepository) List(ctx context.Context, filter repository.PaymentFilter) ([]domain.Payment, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Payment), args.Int(1), args.Error(2)
}

func (m *mockPaymentRepository) UpdateStatus(ctx context.Context, transactionID, status string, gatewayData []byte) error {
	args := m.Called(ctx, transactionID, status, gatewayData)
	return args.Error(0)
}

// --- Mock Gateway ---

type mockPaymentGateway struct {
	mock.Mock
}

func (m *mockPaymentGateway) CreateSession(ctx context.Context, payment *domain.Payment, customer *domain.User) (*GatewaySession, error) {
	args := m.Called(ctx, payment, customer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*GatewaySession), args.Error(1)
}

func (m *mockPaymentGateway) ValidatePayment(ctx context.Context, validationID string) (*GatewayValidation, error) {
	args := m.Called(ctx, validationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*GatewayValidation), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestProducer() *event.Producer {
	logger := newTestLogger()
	// Create a Kafka producer that will fail silently in tests (no real broker).
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

func strPtr(s string) *string {
	return &s
}

func intPtr(i int) *int {
	return &i
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func activeUser(id string) *domain.User {
	return &domain.User{
		ID:       id,
		FullName: "Test Traveler",
		Email:    id + "@example.com",
		Role:     domain.RoleUser,
		Status:   domain.UserStatusActive,
	}
}

func blockedUser(id string) *domain.User {
	u := activeUser(id)
	u.Status = domain.UserStatusBlocked
	return u
}

func deletedUser(id string) *domain.User {
	u := activeUser(id)
	u.IsDeleted = true
	return u
}

func upcomingPlan(id, hostID string) *domain.TravelPlan {
	now := time.Now().UTC()
	return &domain.TravelPlan{
		ID:     id,
		HostID: hostID,
		Destination: domain.Destination{
			Country: "Japan",
			City:    "Tokyo",
		},
		StartDate:       now.Add(30 * 24 * time.Hour),
		EndDate:         now.Add(37 * 24 * time.Hour),
		TravelType:      domain.TravelTypeSolo,
		Visibility:      domain.VisibilityPublic,
		Status:          domain.PlanStatusUpcoming,
		MaxParticipants: 4,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
