package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/travelbuddy/server/internal/domain"
	pkgkafka "github.com/travelbuddy/server/pkg/kafka"
)

// Kafka topics for matchmaking domain events.
var (
	TopicPlanCreated         = pkgkafka.Topic("plan", "created")
	TopicPlanCanceled        = pkgkafka.Topic("plan", "canceled")
	TopicJoinRequestCreated  = pkgkafka.Topic("joinrequest", "created")
	TopicJoinRequestDecided  = pkgkafka.Topic("joinrequest", "decided")
	TopicJoinRequestCanceled = pkgkafka.Topic("joinrequest", "canceled")
	TopicReviewCreated       = pkgkafka.Topic("review", "created")
	TopicPaymentSettled      = pkgkafka.Topic("payment", "settled")
)

// Aggregate type constants.
const (
	AggregateTypePlan        = "travel_plan"
	AggregateTypeJoinRequest = "join_request"
	AggregateTypeReview      = "review"
	AggregateTypePayment     = "payment"
)

// Source identifier for events originating from this service.
const Source = "travelbuddy-server"

// PlanCreatedData is the payload for a plan.created event.
type PlanCreatedData struct {
	ID              string             `json:"id"`
	HostID          string             `json:"host_id"`
	Destination     domain.Destination `json:"destination"`
	StartDate       time.Time          `json:"start_date"`
	EndDate         time.Time          `json:"end_date"`
	TravelType      string             `json:"travel_type"`
	Visibility      string             `json:"visibility"`
	MaxParticipants int                `json:"max_participants"`
}

// PlanCanceledData is the payload for a plan.canceled event.
type PlanCanceledData struct {
	PlanID string `json:"plan_id"`
	HostID string `json:"host_id"`
}

// JoinRequestCreatedData is the payload for a joinrequest.created event.
type JoinRequestCreatedData struct {
	ID          string `json:"id"`
	PlanID      string `json:"plan_id"`
	HostID      string `json:"host_id"`
	RequesterID string `json:"requester_id"`
}

// JoinRequestDecidedData is the payload for a joinrequest.decided event,
// published when the host accepts or rejects.
type JoinRequestDecidedData struct {
	ID          string `json:"id"`
	PlanID      string `json:"plan_id"`
	RequesterID string `json:"requester_id"`
	Status      string `json:"status"`
}

// JoinRequestCanceledData is the payload for a joinrequest.canceled event.
type JoinRequestCanceledData struct {
	ID          string `json:"id"`
	PlanID      string `json:"plan_id"`
	RequesterID string `json:"requester_id"`
}

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ID         string `json:"id"`
	PlanID     string `json:"plan_id"`
	ReviewerID string `json:"reviewer_id"`
	RevieweeID string `json:"reviewee_id"`
	Rating     int    `json:"rating"`
}

// PaymentSettledData is the payload for a payment.settled event, published
// for every terminal payment outcome.
type PaymentSettledData struct {
	TransactionID string `json:"transaction_id"`
	UserID        string `json:"user_id"`
	Purpose       string `json:"purpose"`
	Amount        int64  `json:"amount"`
	Status        string `json:"status"`
}

// Producer publishes matchmaking domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishPlanCreated publishes a plan.created event.
func (p *Producer) PublishPlanCreated(ctx context.Context, plan *domain.TravelPlan) error {
	data := PlanCreatedData{
		ID:              plan.ID,
		HostID:          plan.HostID,
		Destination:     plan.Destination,
		StartDate:       plan.StartDate,
		EndDate:         plan.EndDate,
		TravelType:      plan.TravelType,
		Visibility:      plan.Visibility,
		MaxParticipants: plan.MaxParticipants,
	}

	return p.publish(ctx, TopicPlanCreated, plan.ID, AggregateTypePlan, data)
}

// PublishPlanCanceled publishes a plan.canceled event.
func (p *Producer) PublishPlanCanceled(ctx context.Context, planID, hostID string) error {
	data := PlanCanceledData{PlanID: planID, HostID: hostID}
	return p.publish(ctx, TopicPlanCanceled, planID, AggregateTypePlan, data)
}

// PublishJoinRequestCreated publishes a joinrequest.created event.
func (p *Producer) PublishJoinRequestCreated(ctx context.Context, req *domain.JoinRequest) error {
	data := JoinRequestCreatedData{
		ID:          req.ID,
		PlanID:      req.PlanID,
		HostID:      req.HostID,
		RequesterID: req.RequesterID,
	}

	return p.publish(ctx, TopicJoinRequestCreated, req.ID, AggregateTypeJoinRequest, data)
}

// PublishJoinRequestDecided publishes a joinrequest.decided event.
func (p *Producer) PublishJoinRequestDecided(ctx context.Context, req *domain.JoinRequest, status string) error {
	data := JoinRequestDecidedData{
		ID:          req.ID,
		PlanID:      req.PlanID,
		RequesterID: req.RequesterID,
		Status:      status,
	}

	return p.publish(ctx, TopicJoinRequestDecided, req.ID, AggregateTypeJoinRequest, data)
}

// PublishJoinRequestCanceled publishes a joinrequest.canceled event.
func (p *Producer) PublishJoinRequestCanceled(ctx context.Context, req *domain.JoinRequest) error {
	data := JoinRequestCanceledData{
		ID:          req.ID,
		PlanID:      req.PlanID,
		RequesterID: req.RequesterID,
	}

	return p.publish(ctx, TopicJoinRequestCanceled, req.ID, AggregateTypeJoinRequest, data)
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	data := ReviewCreatedData{
		ID:         review.ID,
		PlanID:     review.PlanID,
		ReviewerID: review.ReviewerID,
		RevieweeID: review.RevieweeID,
		Rating:     review.Rating,
	}

	return p.publish(ctx, TopicReviewCreated, review.ID, AggregateTypeReview, data)
}

// PublishPaymentSettled publishes a payment.settled event.
func (p *Producer) PublishPaymentSettled(ctx context.Context, payment *domain.Payment) error {
	data := PaymentSettledData{
		TransactionID: payment.TransactionID,
		UserID:        payment.UserID,
		Purpose:       payment.Purpose,
		Amount:        payment.Amount,
		Status:        payment.Status,
	}

	return p.publish(ctx, TopicPaymentSettled, payment.TransactionID, AggregateTypePayment, data)
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}
