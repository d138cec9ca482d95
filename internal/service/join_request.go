package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/travelbuddy/server/internal/domain"
	"github.com/travelbuddy/server/internal/event"
	"github.com/travelbuddy/server/internal/repository"
	apperrors "github.com/travelbuddy/server/pkg/errors"
)

// JoinRequestService implements the join request lifecycle: request, accept,
// reject, cancel.
type JoinRequestService struct {
	requests repository.JoinRequestRepository
	plans    repository.PlanRepository
	users    repository.UserRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewJoinRequestService creates a new join request service.
func NewJoinRequestService(
	requests repository.JoinRequestRepository,
	plans repository.PlanRepository,
	users repository.UserRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *JoinRequestService {
	return &JoinRequestService{
		requests: requests,
		plans:    plans,
		users:    users,
		producer: producer,
		logger:   logger,
	}
}

// CreateJoinRequestInput holds the parameters for requesting to join a plan.
type CreateJoinRequestInput struct {
	PlanID  string
	Message string
}

// assertPlanJoinable loads the plan and checks it can receive requests.
// Private plans are off limits; canceled and completed ones are closed.
func (s *JoinRequestService) assertPlanJoinable(ctx context.Context, planID string) (*domain.TravelPlan, error) {
	plan, err := fetchLivePlan(ctx, s.plans, planID)
	if err != nil {
		return nil, err
	}
	if plan.Visibility != domain.VisibilityPublic {
		return nil, apperrors.Forbidden("cannot request to join a private plan")
	}
	if !plan.IsJoinable() {
		return nil, apperrors.InvalidInput("this plan is no longer accepting join requests")
	}
	return plan, nil
}

// assertCapacityAvailable recounts accepted requests and rejects when the
// plan is full. Occupancy always includes the host's seat.
func (s *JoinRequestService) assertCapacityAvailable(ctx context.Context, plan *domain.TravelPlan) error {
	if plan.MaxParticipants <= 0 {
		return nil // unlimited
	}

	accepted, err := s.requests.CountAccepted(ctx, plan.ID)
	if err != nil {
		return fmt.Errorf("count accepted requests: %w", err)
	}

	if plan.IsFull(accepted) {
		return apperrors.Conflict("this travel plan is already full")
	}

	return nil
}

// CreateJoinRequest files a pending request from the actor to join a plan.
func (s *JoinRequestService) CreateJoinRequest(ctx context.Context, actor Actor, input CreateJoinRequestInput) (*domain.JoinRequest, error) {
	if _, err := fetchActiveUser(ctx, s.users, actor.UserID); err != nil {
		return nil, err
	}

	if len(input.Message) > domain.MaxJoinRequestMessageLen {
		return nil, apperrors.InvalidInput(fmt.Sprintf("message cannot exceed %d characters", domain.MaxJoinRequestMessageLen))
	}

	plan, err := s.assertPlanJoinable(ctx, input.PlanID)
	if err != nil {
		return nil, err
	}

	if plan.HostID == actor.UserID {
		return nil, apperrors.InvalidInput("you cannot request to join your own plan")
	}

	if err := s.assertCapacityAvailable(ctx, plan); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	req := &domain.JoinRequest{
		ID:          uuid.New().String(),
		PlanID:      plan.ID,
		HostID:      plan.HostID,
		RequesterID: actor.UserID,
		Message:     input.Message,
		Status:      domain.JoinRequestStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create join request: %w", err)
	}

	if err := s.producer.PublishJoinRequestCreated(ctx, req); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish joinrequest.created event",
			slog.String("request_id", req.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "join request created",
		slog.String("request_id", req.ID),
		slog.String("plan_id", req.PlanID),
		slog.String("requester_id", req.RequesterID),
	)

	return req, nil
}

// ListIncoming returns requests addressed to the actor as host.
func (s *JoinRequestService) ListIncoming(ctx context.Context, actor Actor, filter repository.JoinRequestFilter) ([]domain.JoinRequest, int, error) {
	if _, err := fetchActiveUser(ctx, s.users, actor.UserID); err != nil {
		return nil, 0, err
	}

	filter.HostID = &actor.UserID
	return s.list(ctx, filter)
}

// ListOutgoing returns requests filed by the actor.
func (s *JoinRequestService) ListOutgoing(ctx context.Context, actor Actor, filter repository.JoinRequestFilter) ([]domain.JoinRequest, int, error) {
	if _, err := fetchActiveUser(ctx, s.users, actor.UserID); err != nil {
		return nil, 0, err
	}

	filter.RequesterID = &actor.UserID
	return s.list(ctx, filter)
}

func (s *JoinRequestService) list(ctx context.Context, filter repository.JoinRequestFilter) ([]domain.JoinRequest, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 10
	}
	if filter.PerPage > 50 {
		filter.PerPage = 50
	}

	requests, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list join requests: %w", err)
	}

	return requests, total, nil
}

// DecideJoinRequest accepts or rejects a pending request. Only the plan's
// host or an admin may decide. Accepting re-checks the plan and its capacity
// so a stale listing cannot overfill the trip; the final guarded update
// settles any remaining race in the database.
func (s *JoinRequestService) DecideJoinRequest(ctx context.Context, actor Actor, requestID, status string) (*domain.JoinRequest, error) {
	if status != domain.JoinRequestStatusAccepted && status != domain.JoinRequestStatusRejected {
		return nil, apperrors.InvalidInput(fmt.Sprintf("decision must be %s or %s",
			domain.JoinRequestStatusAccepted, domain.JoinRequestStatusRejected))
	}

	if _, err := fetchActiveUser(ctx, s.users, actor.UserID); err != nil {
		return nil, err
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if req.HostID != actor.UserID && !actor.IsAdmin() {
		return nil, apperrors.Forbidden("only the host can decide this request")
	}

	if !req.IsPending() {
		return nil, apperrors.InvalidInput("this request is not pending anymore")
	}

	if status == domain.JoinRequestStatusAccepted {
		plan, err := s.assertPlanJoinable(ctx, req.PlanID)
		if err != nil {
			return nil, err
		}
		if err := s.assertCapacityAvailable(ctx, plan); err != nil {
			return nil, err
		}
	}

	if err := s.requests.UpdateStatus(ctx, requestID, status); err != nil {
		return nil, fmt.Errorf("decide join request: %w", err)
	}

	req.Status = status
	req.UpdatedAt = time.Now().UTC()

	if err := s.producer.PublishJoinRequestDecided(ctx, req, status); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish joinrequest.decided event",
			slog.String("request_id", req.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "join request decided",
		slog.String("request_id", req.ID),
		slog.String("status", status),
		slog.String("actor_id", actor.UserID),
	)

	return req, nil
}

// CancelJoinRequest withdraws a pending request. Only the requester or an
// admin may cancel.
func (s *JoinRequestService) CancelJoinRequest(ctx context.Context, actor Actor, requestID string) (*domain.JoinRequest, error) {
	if _, err := fetchActiveUser(ctx, s.users, actor.UserID); err != nil {
		return nil, err
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if req.RequesterID != actor.UserID && !actor.IsAdmin() {
		return nil, apperrors.Forbidden("only the requester can cancel this request")
	}

	if !req.IsPending() {
		return nil, apperrors.InvalidInput("only pending requests can be canceled")
	}

	if err := s.requests.UpdateStatus(ctx, requestID, domain.JoinRequestStatusCanceled); err != nil {
		return nil, fmt.Errorf("cancel join request: %w", err)
	}

	req.Status = domain.JoinRequestStatusCanceled
	req.UpdatedAt = time.Now().UTC()

	if err := s.producer.PublishJoinRequestCanceled(ctx, req); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish joinrequest.canceled event",
			slog.String("request_id", req.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "join request canceled",
		slog.String("request_id", req.ID),
		slog.String("actor_id", actor.UserID),
	)

	return req, nil
}
