package domain

import "time"

// Payment gateway constants.
const (
	GatewaySSLCommerz = "SSLCOMMERZ"
)

// Payment purpose constants.
const (
	PaymentPurposeSubscription  = "SUBSCRIPTION"
	PaymentPurposeVerifiedBadge = "VERIFIED_BADGE"
)

// Subscription plan constants.
const (
	SubscriptionPlanMonthly = "MONTHLY"
	SubscriptionPlanYearly  = "YEARLY"
)

// Payment status constants.
const (
	PaymentStatusInitiated = "INITIATED"
	PaymentStatusPaid      = "PAID"
	PaymentStatusFailed    = "FAILED"
	PaymentStatusCanceled  = "CANCELED"
)

// PaymentCurrency is the only currency the gateway charges in.
const PaymentCurrency = "BDT"

// Fixed charge amounts in whole BDT.
const (
	MonthlySubscriptionAmount int64 = 499
	YearlySubscriptionAmount  int64 = 4999
	VerifiedBadgeAmount       int64 = 299
)

// Payment records a single charge attempt against the payment gateway.
type Payment struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	TransactionID string    `json:"transaction_id"`
	Gateway       string    `json:"gateway"`
	Purpose       string    `json:"purpose"`
	PlanType      string    `json:"plan_type,omitempty"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	GatewayData   []byte    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SubscriptionAmount returns the charge for a subscription plan type, or 0
// for an unknown plan.
func SubscriptionAmount(planType string) int64 {
	switch planType {
	case SubscriptionPlanMonthly:
		return MonthlySubscriptionAmount
	case SubscriptionPlanYearly:
		return YearlySubscriptionAmount
	default:
		return 0
	}
}

// SubscriptionDuration returns how long a subscription plan type extends the
// expiry, or 0 for an unknown plan.
func SubscriptionDuration(planType string) time.Duration {
	switch planType {
	case SubscriptionPlanMonthly:
		return 30 * 24 * time.Hour
	case SubscriptionPlanYearly:
		return 365 * 24 * time.Hour
	default:
		return 0
	}
}

// PaymentTransitions defines which payment status transitions are valid.
func PaymentTransitions() map[string][]string {
	return map[string][]string{
		PaymentStatusInitiated: {PaymentStatusPaid, PaymentStatusFailed, PaymentStatusCanceled},
		PaymentStatusPaid:      {},
		PaymentStatusFailed:    {},
		PaymentStatusCanceled:  {},
	}
}

// CanTransitionTo checks if the payment can transition to the target status.
func (p *Payment) CanTransitionTo(target string) bool {
	allowed, ok := PaymentTransitions()[p.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}
