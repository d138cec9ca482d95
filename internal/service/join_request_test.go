package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/travelbuddy/server/internal/domain"
	"github.com/travelbuddy/server/internal/repository"
	apperrors "github.com/travelbuddy/server/pkg/errors"
)

func newTestJoinRequestService(requests *mockJoinRequestRepository, plans *mockPlanRepository, users *mockUserRepository) *JoinRequestService {
	return NewJoinRequestService(requests, plans, users, newTestProducer(), newTestLogger())
}

func pendingRequest(id, planID, hostID, requesterID string) *domain.JoinRequest {
	now := time.Now().UTC()
	return &domain.JoinRequest{
		ID:          id,
		PlanID:      planID,
		HostID:      hostID,
		RequesterID: requesterID,
		Status:      domain.JoinRequestStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestCreateJoinRequest_Success(t *testing.T) {
	requests := new(mockJoinRequestRepository)
	plans := new(mockPlanRepository)
	users := new(mockUserRepository)
	svc := newTestJoinRequestService(requests, plans, users)
	ctx := context.Background()

	users.On("GetByID", ctx, "user-1").Return(activeUser("user-1"), nil)
	plans.On("GetByID", ctx, "plan-1").Return(upcomingPlan("plan-1", "host-1"), nil)
	requests.On("CountAccepted", ctx, "plan-1").Return(1, nil)
	requests.On("Create", ctx, mock.AnythingOfType("*domain.JoinRequest")).Return(nil)

	req, err := svc.CreateJoinRequest(ctx, Actor{UserID: "user-1"}, CreateJoinRequestInput{
		PlanID:  "plan-1",
		Message: "Count me in!",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, domain.JoinRequestStatusPending, req.Status)
	assert.Equal(t, "host-1", req.HostID)
	assert.Equal(t, "user-1", req.RequesterID)

	requests.AssertExpectations(t)
}

func TestCreateJoinRequest_OwnPlan(t *testing.T) {
	requests := new(mockJoinRequestRepository)
	plans := new(mockPlanRepository)
	users := new(mockUserRepository)
	svc := newTestJoinRequestService(requests, plans, users)
	ctx := context.Background()

	users.On("GetByID", ctx, "host-1").Return(activeUser("host-1"), nil)
	plans.On("GetByID", ctx, "plan-1").Return(upcomingPlan("plan-1", "host-1"), nil)

	req, err := svc.CreateJoinRequest(ctx, Actor{UserID: "host-1"}, CreateJoinRequestInput{PlanID: "plan-1"})

	assert.Nil(t, req)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateJoinRequest_PrivatePlan(t *testing.T) {
	requests := new(mockJoinRequestRepository)
	plans := new(mockPlanRepository)
	users := new(mockUserRepository)
	svc := newTestJoinRequestService(requests, plans, users)
	ctx := context.Background()

	private := upcomingPlan("plan-1", "host-1")
	private.Visibility = domain.VisibilityPrivate

	users.On("GetByID", ctx, "user-1").Return(activeUser("user-1"), nil)
	plans.On("GetByID", ctx, "plan-1").Return(private, nil)

	req, err := svc.CreateJoinRequest(ctx, Actor{UserID: "user-1"}, CreateJoinRequestInput{PlanID: "plan-1"})

	assert.Nil(t, req)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCreateJoinRequest_CanceledPlan(t *testing.T) {
	requests := new(mockJoinRequestRepository)
	plans := new(mockPlanRepository)
	users := new(mockUserRepository)
	svc := newTestJoinRequestService(requests, plans, users)
	ctx := context.Background()

	canceled := upcomingPlan("plan-1", "host-1")
	canceled.Status = domain.PlanStatusCanceled

	users.On("GetByID", ctx, "user-1").Return(activeUser("user-1"), nil)
	plans.On("GetByID", ctx, "plan-1").Return(canceled, nil)

	req, err := svc.CreateJoinRequest(ctx, Actor{UserID: "user-1"}, CreateJoinRequestInput{PlanID: "plan-1"})

	assert.Nil(t, req)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateJoinRequest_PlanFull(t *testing.T) {
	requests := new(mockJoinRequestRepository)
	plans := new(mockPlanRepository)
	users := new(mockUserRepository)
	svc := newTestJoinRequestService(requests, plans, users)
	ctx := context.Background()

	plan := upcomingPlan("plan-1", "host-1")
	plan.MaxParticipants = 4

	users.On("GetByID", ctx, "user-1").Return(activeUser("user-1"), nil)
	plans.On("GetByID", ctx, "plan-1").Return(plan, nil)
	// Host seat plus three accepted requesters fills a plan of four.
	requests.On("CountAccepted", ctx, "plan-1").Return(3, nil)

	req, err := svc.CreateJoinRequest(ctx, Actor{UserID: "user-1"}, CreateJoinRequestInput{PlanID: "plan-1"})

	assert.Nil(t, req)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestCreateJoinRequest_UnlimitedPlanSkipsCapacityCount(t *testing.T) {
	requests := new(mockJoinRequestRepository)
	plans := new(mockPlanRepository)
	users := new(mockUserRepository)
	svc := newTestJoinRequestService(requests, plans, users)
	ctx := context.Background()

	plan := upcomingPlan("plan-1", "host-1")
	plan.MaxParticipants = 0

	users.On("GetByID", ctx, "user-1").Return(activeUser("user-1"), nil)
	plans.On("GetByID", ctx, "plan-1").Return(plan, nil)
	requests.On("Create", ctx, mock.AnythingOfType("*domain.JoinRequest")).Return(nil)

	req, err := svc.CreateJoinRequest(ctx, Actor{UserID: "user-1"}, CreateJoinRequestInput{PlanID: "plan-1"})

	require.NoError(t, err)
	assert.Equal(t, domain.JoinRequestStatusPending, req.Status)

	requests.AssertNotCalled(t, "CountAccepted", mock.Anything, mock.Anything)
}

func TestCreateJoinRequest_MessageTooLong(t *testing.T) {
	requests := new(mockJoinRequestRepository)
	plans := new(mockPlanRepository)
	users := new(mockUserRepository)
	svc := newTestJoinRequestService(requests, plans, users)
	ctx := context.Background()

	users.On("GetByID", ctx, "user-1").Return(activeUser("user-1"), nil)

	req, err := svc.CreateJoinRequest(ctx, Actor{UserID: "user-1"}, CreateJoinRequestInput{
		PlanID:  "plan-1",
		Message: strings.Repeat("x", domain.MaxJoinRequestMessageLen+1),
	})

	assert.Nil(t, req)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateJoinRequest_Duplicate(t *testing.T) {
	requests := new(mockJoinRequestRepository)
	plans := new(mockPlanRepository)
	users := new(mockUserRepository)
	svc := newTestJoinRequestService(requests, plans, users)
	ctx := context.Background()

	users.On("GetByID", ctx, "user-1").Return(activeUser("user-1"), nil)
	plans.On("GetByID", ctx, "plan-1").Return(upcomingPlan("plan-1", "host-1"), nil)
	requests.On("CountAccepted", ctx, "plan-1").Return(0, nil)
	requests.On("Create", ctx, mock.AnythingOfType("*domain.JoinRequest")).
		Return(apperrors.AlreadyExists("join request", "plan_id", "plan-1"))

	req, err := svc.CreateJoinRequest(ctx, Actor{UserID: "user-1"}, CreateJoinRequestInput{PlanID: "plan-1"})

	assert.Nil(t, req)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestDecideJoinRequest_Accept(t *testing.T) {
	requests := new(mockJoinRequestRepository)
	plans := new(mockPlanRepository)
	users := new(mockUserRepository)
	svc := newTestJoinRequestService(requests, plans, users)
	ctx := context.Background()

	users.On("GetByID", ctx, "host-1").Return(activeUser("host-1"), nil)
	requests.On("GetByID", ctx, "req-1").Return(pendingRequest("req-1", "plan-1", "host-1", "user-1"), nil)
	plans.On("GetByID", ctx, "plan-1").Return(upcomingPlan("plan-1", "host-1"), nil)
	requests.On("CountAccepted", ctx, "plan-1").Return(1, nil)
	requests.On("UpdateStatus", ctx, "req-1", domain.JoinRequestStatusAccepted).Return(nil)

	req, err := svc.DecideJoinRequest(ctx, Actor{UserID: "host-1"}, "req-1", domain.JoinRequestStatusAccepted)

	require.NoError(t, err)
	assert.Equal(t, domain.JoinRequestStatusAccepted, req.Status)

	requests.AssertExpectations(t)
}

func TestDecideJoinRequest_RejectSkipsCapacityCheck(t *testing.T) {
	requests := new(mockJoinRequestRepository)
	plans := new(mockPlanRepository)
	users := new(mockUserRepository)
	svc := newTestJoinRequestService(requests, plans, users)
	ctx := context.Background()

	users.On("GetByID", ctx, "host-1").Return(activeUser("host-1"), nil)
	requests.On("GetByID", ctx, "req-1").Return(pendingRequest("req-1", "plan-1", "host-1", "user-1"), nil)
	requests.On("UpdateStatus", ctx, "req-1", domain.JoinRequestStatusRejected).Return(nil)

	req, err := svc.DecideJoinRequest(ctx, Actor{UserID: "host-1"}, "req-1", domain.JoinRequestStatusRejected)

	require.NoError(t, err)
	assert.Equal(t, domain.JoinRequestStatusRejected, req.Status)

	plans.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	requests.AssertNotCalled(t, "CountAccepted", mock.Anything, mock.Anything)
}

func TestDecideJoinRequest_AcceptRechecksCapacity(t *testing.T) {
	requests := new(mockJoinRequestRepository)
	plans := new(mockPlanRepository)
	users := new(mockUserRepository)
	svc := newTestJoinRequestService(requests, plans, users)
	ctx := context.Background()

	plan := upcomingPlan("plan-1", "host-1")
	plan.MaxParticipants = 2

	users.On("GetByID", ctx, "host-1").Return(activeUser("host-1"), nil)
	requests.On("GetByID", ctx, "req-1").Return(pendingRequest("req-1", "plan-1", "host-1", "user-1"), nil)
	plans.On("GetByID", ctx, "plan-1").Return(plan, nil)
	requests.On("CountAccepted", ctx, "plan-1").Return(1, nil)

	req, err := svc.DecideJoinRequest(ctx, Actor{UserID: "host-1"}, "req-1", domain.JoinRequestStatusAccepted)

	assert.Nil(t, req)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	requests.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestDecideJoinRequest_NonHostForbidden(t *testing.T) {
	requests := new(mockJoinRequestRepository)
	plans := new(mockPlanRepository)
	users := new(mockUserRepository)
	svc := newTestJoinRequestService(requests, plans, users)
	ctx := context.Background()

	users.On("GetByID", ctx, "stranger").Return(activeUser("stranger"), nil)
	requests.On("GetByID", ctx, "req-1").Return(pendingRequest("req-1", "plan-1", "host-1", "user-1"), nil)

	req, err := svc.DecideJoinRequest(ctx, Actor{UserID: "stranger", Role: domain.RoleUser}, "req-1", domain.JoinRequestStatusAccepted)

	assert.Nil(t, req)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestDecideJoinRequest_NotPending(t *testing.T) {
	requests := new(mockJoinRequestRepository)
	plans := new(mockPlanRepository)
	users := new(mockUserRepository)
	svc := newTestJoinRequestService(requests, plans, users)
	ctx := context.Background()

	decided := pendingRequest("req-1", "plan-1", "host-1", "user-1")
	decided.Status = domain.JoinRequestStatusRejected

	users.On("GetByID", ctx, "host-1").Return(activeUser("host-1"), nil)
	requests.On("GetByID", ctx, "req-1").Return(decided, nil)

	req, err := svc.DecideJoinRequest(ctx, Actor{UserID: "host-1"}, "req-1", domain.JoinRequestStatusAccepted)

	assert.Nil(t, req)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestDecideJoinRequest_InvalidDecision(t *testing.T) {
	requests := new(mockJoinRequestRepository)
	plans := new(mockPlanRepository)
	users := new(mockUserRepository)
	svc := newTestJoinRequestService(requests, plans, users)
	ctx := context.Background()

	req, err := svc.DecideJoinRequest(ctx, Actor{UserID: "host-1"}, "req-1", domain.JoinRequestStatusCanceled)

	assert.Nil(t, req)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestDecideJoinRequest_ConcurrentDecisionLoses(t *testing.T) {
	requests := new(mockJoinRequestRepository)
	plans := new(mockPlanRepository)
	users := new(mockUserRepository)
	svc := newTestJoinRequestService(requests, plans, users)
	ctx := context.Background()

	users.On("GetByID", ctx, "host-1").Return(activeUser("host-1"), nil)
	requests.On("GetByID", ctx, "req-1").Return(pendingRequest("req-1", "plan-1", "host-1", "user-1"), nil)
	// Another decision landed between the read and the guarded update.
	requests.On("UpdateStatus", ctx, "req-1", domain.JoinRequestStatusRejected).
		Return(apperrors.InvalidInput("this request is not pending anymore"))

	req, err := svc.DecideJoinRequest(ctx, Actor{UserID: "host-1"}, "req-1", domain.JoinRequestStatusRejected)

	assert.Nil(t, req)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCancelJoinRequest_Requester(t *testing.T) {
	requests := new(mockJoinRequestRepository)
	plans := new(mockPlanRepository)
	users := new(mockUserRepository)
	svc := newTestJoinRequestService(requests, plans, users)
	ctx := context.Background()

	users.On("GetByID", ctx, "user-1").Return(activeUser("user-1"), nil)
	requests.On("GetByID", ctx, "req-1").Return(pendingRequest("req-1", "plan-1", "host-1", "user-1"), nil)
	requests.On("UpdateStatus", ctx, "req-1", domain.JoinRequestStatusCanceled).Return(nil)

	req, err := svc.CancelJoinRequest(ctx, Actor{UserID: "user-1"}, "req-1")

	require.NoError(t, err)
	assert.Equal(t, domain.JoinRequestStatusCanceled, req.Status)
}

func TestCancelJoinRequest_HostCannotCancel(t *testing.T) {
	requests := new(mockJoinRequestRepository)
	plans := new(mockPlanRepository)
	users := new(mockUserRepository)
	svc := newTestJoinRequestService(requests, plans, users)
	ctx := context.Background()

	users.On("GetByID", ctx, "host-1").Return(activeUser("host-1"), nil)
	requests.On("GetByID", ctx, "req-1").Return(pendingRequest("req-1", "plan-1", "host-1", "user-1"), nil)

	req, err := svc.CancelJoinRequest(ctx, Actor{UserID: "host-1", Role: domain.RoleUser}, "req-1")

	assert.Nil(t, req)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCancelJoinRequest_AlreadyAccepted(t *testing.T) {
	requests := new(mockJoinRequestRepository)
	plans := new(mockPlanRepository)
	users := new(mockUserRepository)
	svc := newTestJoinRequestService(requests, plans, users)
	ctx := context.Background()

	accepted := pendingRequest("req-1", "plan-1", "host-1", "user-1")
	accepted.Status = domain.JoinRequestStatusAccepted

	users.On("GetByID", ctx, "user-1").Return(activeUser("user-1"), nil)
	requests.On("GetByID", ctx, "req-1").Return(accepted, nil)

	req, err := svc.CancelJoinRequest(ctx, Actor{UserID: "user-1"}, "req-1")

	assert.Nil(t, req)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestListIncoming_ForcesHostFilter(t *testing.T) {
	requests := new(mockJoinRequestRepository)
	plans := new(mockPlanRepository)
	users := new(mockUserRepository)
	svc := newTestJoinRequestService(requests, plans, users)
	ctx := context.Background()

	users.On("GetByID", ctx, "host-1").Return(activeUser("host-1"), nil)
	requests.On("List", ctx, mock.MatchedBy(func(f repository.JoinRequestFilter) bool {
		return f.HostID != nil && *f.HostID == "host-1" && f.Page == 1 && f.PerPage == 10
	})).Return([]domain.JoinRequest{}, 0, nil)

	_, _, err := svc.ListIncoming(ctx, Actor{UserID: "host-1"}, repository.JoinRequestFilter{})

	require.NoError(t, err)
	requests.AssertExpectations(t)
}

func TestListOutgoing_ForcesRequesterFilter(t *testing.T) {
	requests := new(mockJoinRequestRepository)
	plans := new(mockPlanRepository)
	users := new(mockUserRepository)
	svc := newTestJoinRequestService(requests, plans, users)
	ctx := context.Background()

	users.On("GetByID", ctx, "user-1").Return(activeUser("user-1"), nil)
	requests.On("List", ctx, mock.MatchedBy(func(f repository.JoinRequestFilter) bool {
		return f.RequesterID != nil && *f.RequesterID == "user-1"
	})).Return([]domain.JoinRequest{}, 0, nil)

	_, _, err := svc.ListOutgoing(ctx, Actor{UserID: "user-1"}, repository.JoinRequestFilter{})

	require.NoError(t, err)
	requests.AssertExpectations(t)
}
