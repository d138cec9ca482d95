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

// PlanService implements the business logic for travel plan operations,
// including companion matching.
type PlanService struct {
	plans    repository.PlanRepository
	users    repository.UserRepository
	producer *event.Producer
	cache    MatchCache
	logger   *slog.Logger
}

// NewPlanService creates a new travel plan service. The cache may be nil,
// in which case match results are computed on every call.
func NewPlanService(
	plans repository.PlanRepository,
	users repository.UserRepository,
	producer *event.Producer,
	cache MatchCache,
	logger *slog.Logger,
) *PlanService {
	return &PlanService{
		plans:    plans,
		users:    users,
		producer: producer,
		cache:    cache,
		logger:   logger,
	}
}

// CreatePlanInput holds the parameters for announcing a travel plan.
type CreatePlanInput struct {
	Destination     domain.Destination
	StartDate       time.Time
	EndDate         time.Time
	BudgetMin       *int64
	BudgetMax       *int64
	TravelType      string
	Description     string
	Visibility      string
	MaxParticipants int
}

// UpdatePlanInput holds the mutable plan fields. Nil pointers leave the
// current value untouched.
type UpdatePlanInput struct {
	Destination     *domain.Destination
	StartDate       *time.Time
	EndDate         *time.Time
	BudgetMin       *int64
	BudgetMax       *int64
	TravelType      *string
	Description     *string
	Visibility      *string
	Status          *string
	MaxParticipants *int
}

// MatchInput holds the searcher's criteria for companion matching.
type MatchInput struct {
	Country     string
	City        string
	Type        string
	Interests   []string
	From        *time.Time
	To          *time.Time
	ExcludeSelf bool
	Page        int
	PerPage     int
}

func validateDateRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperrors.InvalidInput("start_date and end_date are required")
	}
	if end.Before(start) {
		return apperrors.InvalidInput("end_date must not be before start_date")
	}
	return nil
}

// CreatePlan announces a new travel plan hosted by the actor.
func (s *PlanService) CreatePlan(ctx context.Context, actor Actor, input CreatePlanInput) (*domain.TravelPlan, error) {
	if _, err := fetchActiveUser(ctx, s.users, actor.UserID); err != nil {
		return nil, err
	}

	if input.Destination.Country == "" || input.Destination.City == "" {
		return nil, apperrors.InvalidInput("destination country and city are required")
	}
	if err := validateDateRange(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}
	if !domain.IsValidTravelType(input.TravelType) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid travel type %q, must be one of: %s",
			input.TravelType, strings.Join(domain.ValidTravelTypes(), ", ")))
	}
	if input.MaxParticipants < 0 {
		return nil, apperrors.InvalidInput("max_participants cannot be negative")
	}
	if input.BudgetMin != nil && input.BudgetMax != nil && *input.BudgetMax < *input.BudgetMin {
		return nil, apperrors.InvalidInput("budget_max cannot be less than budget_min")
	}

	visibility := input.Visibility
	if visibility == "" {
		visibility = domain.VisibilityPublic
	}
	if visibility != domain.VisibilityPublic && visibility != domain.VisibilityPrivate {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid visibility %q", visibility))
	}

	now := time.Now().UTC()
	plan := &domain.TravelPlan{
		ID:              uuid.New().String(),
		HostID:          actor.UserID,
		Destination:     input.Destination,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		BudgetMin:       input.BudgetMin,
		BudgetMax:       input.BudgetMax,
		TravelType:      input.TravelType,
		Description:     input.Description,
		Visibility:      visibility,
		Status:          domain.PlanStatusUpcoming,
		MaxParticipants: input.MaxParticipants,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("create travel plan: %w", err)
	}

	if err := s.producer.PublishPlanCreated(ctx, plan); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish plan.created event",
			slog.String("plan_id", plan.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "travel plan created",
		slog.String("plan_id", plan.ID),
		slog.String("host_id", plan.HostID),
		slog.String("country", plan.Destination.Country),
	)

	return plan, nil
}

// GetPlan retrieves a plan by its ID. Soft-deleted plans read as missing, and
// private plans read as missing to everyone but their host and admins.
func (s *PlanService) GetPlan(ctx context.Context, actor *Actor, id string) (*domain.TravelPlan, error) {
	plan, err := fetchLivePlan(ctx, s.plans, id)
	if err != nil {
		return nil, err
	}

	if plan.Visibility == domain.VisibilityPrivate && !canSeePrivate(actor, plan.HostID) {
		return nil, apperrors.NotFound("travel plan", id)
	}

	return plan, nil
}

func canSeePrivate(actor *Actor, hostID string) bool {
	return actor != nil && (actor.UserID == hostID || actor.IsAdmin())
}

// ListPlans returns a filtered, paginated list of plans. Private plans only
// surface when the actor lists their own plans or is an admin.
func (s *PlanService) ListPlans(ctx context.Context, actor *Actor, filter repository.PlanFilter) ([]domain.TravelPlan, int, error) {
	ownListing := actor != nil && filter.HostID != nil && *filter.HostID == actor.UserID
	if !ownListing && (actor == nil || !actor.IsAdmin()) {
		public := domain.VisibilityPublic
		filter.Visibility = &public
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

	plans, total, err := s.plans.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list travel plans: %w", err)
	}

	return plans, total, nil
}

// UpdatePlan applies partial updates to a plan. Only the host or an admin
// may mutate it.
func (s *PlanService) UpdatePlan(ctx context.Context, actor Actor, planID string, input UpdatePlanInput) (*domain.TravelPlan, error) {
	if _, err := fetchActiveUser(ctx, s.users, actor.UserID); err != nil {
		return nil, err
	}

	plan, err := fetchLivePlan(ctx, s.plans, planID)
	if err != nil {
		return nil, err
	}

	if plan.HostID != actor.UserID && !actor.IsAdmin() {
		return nil, apperrors.Forbidden("only the host can modify this plan")
	}

	if input.Destination != nil {
		if input.Destination.Country == "" || input.Destination.City == "" {
			return nil, apperrors.InvalidInput("destination country and city are required")
		}
		plan.Destination = *input.Destination
	}

	start := plan.StartDate
	if input.StartDate != nil {
		start = *input.StartDate
	}
	end := plan.EndDate
	if input.EndDate != nil {
		end = *input.EndDate
	}
	if err := validateDateRange(start, end); err != nil {
		return nil, err
	}
	plan.StartDate = start
	plan.EndDate = end

	if input.BudgetMin != nil {
		plan.BudgetMin = input.BudgetMin
	}
	if input.BudgetMax != nil {
		plan.BudgetMax = input.BudgetMax
	}
	if input.TravelType != nil {
		if !domain.IsValidTravelType(*input.TravelType) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid travel type %q", *input.TravelType))
		}
		plan.TravelType = *input.TravelType
	}
	if input.Description != nil {
		plan.Description = *input.Description
	}
	if input.Visibility != nil {
		if *input.Visibility != domain.VisibilityPublic && *input.Visibility != domain.VisibilityPrivate {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid visibility %q", *input.Visibility))
		}
		plan.Visibility = *input.Visibility
	}
	if input.Status != nil {
		if !domain.IsValidPlanStatus(*input.Status) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid status %q, must be one of: %s",
				*input.Status, strings.Join(domain.ValidPlanStatuses(), ", ")))
		}
		plan.Status = *input.Status
	}
	if input.MaxParticipants != nil {
		if *input.MaxParticipants < 0 {
			return nil, apperrors.InvalidInput("max_participants cannot be negative")
		}
		plan.MaxParticipants = *input.MaxParticipants
	}

	if err := s.plans.Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("update travel plan: %w", err)
	}

	s.logger.InfoContext(ctx, "travel plan updated",
		slog.String("plan_id", plan.ID),
		slog.String("actor_id", actor.UserID),
	)

	return plan, nil
}

// DeletePlan soft-deletes a plan. Only the host or an admin may delete it.
func (s *PlanService) DeletePlan(ctx context.Context, actor Actor, planID string) error {
	if _, err := fetchActiveUser(ctx, s.users, actor.UserID); err != nil {
		return err
	}

	plan, err := fetchLivePlan(ctx, s.plans, planID)
	if err != nil {
		return err
	}

	if plan.HostID != actor.UserID && !actor.IsAdmin() {
		return apperrors.Forbidden("only the host can delete this plan")
	}

	if err := s.plans.SoftDelete(ctx, planID); err != nil {
		return fmt.Errorf("delete travel plan: %w", err)
	}

	if err := s.producer.PublishPlanCanceled(ctx, planID, plan.HostID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish plan.canceled event",
			slog.String("plan_id", planID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "travel plan deleted",
		slog.String("plan_id", planID),
		slog.String("actor_id", actor.UserID),
	)

	return nil
}

// MatchPlans finds public plans matching the searcher's criteria, ranked by
// score then recency. The actor is optional; when present and ExcludeSelf is
// set, their own plans are filtered out.
func (s *PlanService) MatchPlans(ctx context.Context, actor *Actor, input MatchInput) ([]domain.ScoredPlan, int, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	perPage := input.PerPage
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 50 {
		perPage = 50
	}

	ranked, err := s.rankedMatches(ctx, actor, input)
	if err != nil {
		return nil, 0, err
	}

	total := len(ranked)
	offset := (page - 1) * perPage
	if offset >= total {
		return []domain.ScoredPlan{}, total, nil
	}
	end := offset + perPage
	if end > total {
		end = total
	}

	return ranked[offset:end], total, nil
}

// rankedMatches returns the full ranked candidate list, consulting the
// cache first. Caching the whole list keeps pagination stable across pages
// served within the TTL.
func (s *PlanService) rankedMatches(ctx context.Context, actor *Actor, input MatchInput) ([]domain.ScoredPlan, error) {
	key := matchCacheKey(actor, input)

	if s.cache != nil {
		if ranked, ok := s.cache.Get(ctx, key); ok {
			return ranked, nil
		}
	}

	filter := repository.MatchFilter{}
	if input.Country != "" {
		filter.Country = &input.Country
	}
	if input.City != "" {
		filter.City = &input.City
	}
	if input.Type != "" {
		if !domain.IsValidTravelType(input.Type) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid travel type %q", input.Type))
		}
		filter.TravelType = &input.Type
	}
	filter.From = input.From
	filter.To = input.To
	if input.ExcludeSelf && actor != nil {
		filter.ExcludeHostID = &actor.UserID
	}

	candidates, err := s.plans.ListForMatching(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("load match candidates: %w", err)
	}

	query := domain.MatchQuery{
		Country:   input.Country,
		City:      input.City,
		From:      input.From,
		To:        input.To,
		Type:      input.Type,
		Interests: input.Interests,
	}
	ranked := domain.RankPlans(candidates, query)

	if s.cache != nil {
		s.cache.Set(ctx, key, ranked)
	}

	return ranked, nil
}
