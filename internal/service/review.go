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

// ReviewService implements post-trip reviews and the rating aggregates
// derived from them.
type ReviewService struct {
	reviews  repository.ReviewRepository
	requests repository.JoinRequestRepository
	plans    repository.PlanRepository
	users    repository.UserRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(
	reviews repository.ReviewRepository,
	requests repository.JoinRequestRepository,
	plans repository.PlanRepository,
	users repository.UserRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	return &ReviewService{
		reviews:  reviews,
		requests: requests,
		plans:    plans,
		users:    users,
		producer: producer,
		logger:   logger,
	}
}

// CreateReviewInput holds the parameters for leaving a review.
type CreateReviewInput struct {
	PlanID     string
	RevieweeID string
	Rating     int
	Comment    string
}

// UpdateReviewInput holds the mutable review fields. Nil pointers leave the
// current value untouched.
type UpdateReviewInput struct {
	Rating  *int
	Comment *string
}

func validateReviewContent(rating int, comment string) error {
	if !domain.IsValidRating(rating) {
		return apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d",
			domain.MinReviewRating, domain.MaxReviewRating))
	}
	if len(comment) > domain.MaxReviewCommentLen {
		return apperrors.InvalidInput(fmt.Sprintf("comment cannot exceed %d characters", domain.MaxReviewCommentLen))
	}
	return nil
}

// assertReviewEligible checks the trip relationship: the trip must be over
// and the pair must be host and accepted requester, in either direction.
func (s *ReviewService) assertReviewEligible(ctx context.Context, reviewerID, revieweeID, planID string) error {
	plan, err := fetchLivePlan(ctx, s.plans, planID)
	if err != nil {
		return err
	}

	if !plan.IsCompletedAt(time.Now().UTC()) {
		return apperrors.InvalidInput("you can only review after the trip has completed")
	}

	var participantID string
	switch {
	case plan.HostID == reviewerID:
		participantID = revieweeID
	case plan.HostID == revieweeID:
		participantID = reviewerID
	default:
		return apperrors.Forbidden("reviews are only allowed between the host and an accepted participant")
	}

	accepted, err := s.requests.HasAccepted(ctx, planID, participantID)
	if err != nil {
		return fmt.Errorf("check accepted participant: %w", err)
	}
	if !accepted {
		return apperrors.Forbidden("reviews are only allowed between the host and an accepted participant")
	}

	return nil
}

// recomputeRating rebuilds the reviewee's rating aggregate from all of their
// live reviews and persists it.
func (s *ReviewService) recomputeRating(ctx context.Context, revieweeID string) error {
	ratings, err := s.reviews.ListRatingsForReviewee(ctx, revieweeID)
	if err != nil {
		return fmt.Errorf("list ratings: %w", err)
	}

	summary := domain.ComputeRatingSummary(ratings)
	if err := s.users.UpdateRatingSummary(ctx, revieweeID, summary); err != nil {
		return fmt.Errorf("update rating summary: %w", err)
	}

	return nil
}

// CreateReview records the actor's review of another participant on a
// completed trip and refreshes the reviewee's rating aggregate.
func (s *ReviewService) CreateReview(ctx context.Context, actor Actor, input CreateReviewInput) (*domain.Review, error) {
	if _, err := fetchActiveUser(ctx, s.users, actor.UserID); err != nil {
		return nil, err
	}

	if input.RevieweeID == actor.UserID {
		return nil, apperrors.InvalidInput("you cannot review yourself")
	}

	if err := validateReviewContent(input.Rating, input.Comment); err != nil {
		return nil, err
	}

	if _, err := fetchActiveUser(ctx, s.users, input.RevieweeID); err != nil {
		return nil, err
	}

	if err := s.assertReviewEligible(ctx, actor.UserID, input.RevieweeID, input.PlanID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:         uuid.New().String(),
		PlanID:     input.PlanID,
		ReviewerID: actor.UserID,
		RevieweeID: input.RevieweeID,
		Rating:     input.Rating,
		Comment:    input.Comment,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	if err := s.recomputeRating(ctx, review.RevieweeID); err != nil {
		return nil, err
	}

	if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("reviewer_id", review.ReviewerID),
		slog.String("reviewee_id", review.RevieweeID),
		slog.Int("rating", review.Rating),
	)

	return review, nil
}

// ListReviewsForUser returns the reviews received by a user, newest first.
func (s *ReviewService) ListReviewsForUser(ctx context.Context, revieweeID string, filter repository.ReviewFilter) ([]domain.Review, int, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 10
	}
	if filter.PerPage > 50 {
		filter.PerPage = 50
	}

	filter.RevieweeID = &revieweeID

	reviews, total, err := s.reviews.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}

	return reviews, total, nil
}

// fetchLiveReview loads a review and treats soft-deleted ones as missing.
func (s *ReviewService) fetchLiveReview(ctx context.Context, id string) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if review.IsDeleted() {
		return nil, apperrors.NotFound("review", id)
	}
	return review, nil
}

// UpdateReview lets the reviewer revise their rating or comment, then
// refreshes the reviewee's aggregate.
func (s *ReviewService) UpdateReview(ctx context.Context, actor Actor, reviewID string, input UpdateReviewInput) (*domain.Review, error) {
	if _, err := fetchActiveUser(ctx, s.users, actor.UserID); err != nil {
		return nil, err
	}

	review, err := s.fetchLiveReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	if review.ReviewerID != actor.UserID {
		return nil, apperrors.Forbidden("only the reviewer can modify this review")
	}

	rating := review.Rating
	if input.Rating != nil {
		rating = *input.Rating
	}
	comment := review.Comment
	if input.Comment != nil {
		comment = *input.Comment
	}
	if err := validateReviewContent(rating, comment); err != nil {
		return nil, err
	}

	ratingChanged := rating != review.Rating
	review.Rating = rating
	review.Comment = comment
	review.UpdatedAt = time.Now().UTC()

	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	if ratingChanged {
		if err := s.recomputeRating(ctx, review.RevieweeID); err != nil {
			return nil, err
		}
	}

	s.logger.InfoContext(ctx, "review updated",
		slog.String("review_id", review.ID),
		slog.String("reviewer_id", review.ReviewerID),
	)

	return review, nil
}

// DeleteReview soft-deletes the actor's review and refreshes the reviewee's
// aggregate without it.
func (s *ReviewService) DeleteReview(ctx context.Context, actor Actor, reviewID string) error {
	if _, err := fetchActiveUser(ctx, s.users, actor.UserID); err != nil {
		return err
	}

	review, err := s.fetchLiveReview(ctx, reviewID)
	if err != nil {
		return err
	}

	if review.ReviewerID != actor.UserID {
		return apperrors.Forbidden("only the reviewer can delete this review")
	}

	if err := s.reviews.SoftDelete(ctx, reviewID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	if err := s.recomputeRating(ctx, review.RevieweeID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", reviewID),
		slog.String("reviewer_id", review.ReviewerID),
	)

	return nil
}
