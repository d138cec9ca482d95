package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionAmount(t *testing.T) {
	assert.Equal(t, int64(499), SubscriptionAmount(SubscriptionPlanMonthly))
	assert.Equal(t, int64(4999), SubscriptionAmount(SubscriptionPlanYearly))
	assert.Equal(t, int64(0), SubscriptionAmount("WEEKLY"))
}

func TestSubscriptionDuration(t *testing.T) {
	assert.Equal(t, 30*24*time.Hour, SubscriptionDuration(SubscriptionPlanMonthly))
	assert.Equal(t, 365*24*time.Hour, SubscriptionDuration(SubscriptionPlanYearly))
	assert.Equal(t, time.Duration(0), SubscriptionDuration(""))
}

func TestPayment_InitiatedCanReachEveryOutcome(t *testing.T) {
	p := &Payment{Status: PaymentStatusInitiated}
	assert.True(t, p.CanTransitionTo(PaymentStatusPaid))
	assert.True(t, p.CanTransitionTo(PaymentStatusFailed))
	assert.True(t, p.CanTransitionTo(PaymentStatusCanceled))
}

func TestPayment_TerminalStatesAreClosed(t *testing.T) {
	for _, from := range []string{PaymentStatusPaid, PaymentStatusFailed, PaymentStatusCanceled} {
		p := &Payment{Status: from}
		for _, to := range []string{PaymentStatusInitiated, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusCanceled} {
			assert.False(t, p.CanTransitionTo(to), "transition %q -> %q should be rejected", from, to)
		}
	}
}

func TestUser_HasActiveSubscription(t *testing.T) {
	now := time.Now().UTC()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	assert.True(t, (&User{IsSubscribed: true, SubscriptionExpiresAt: &future}).HasActiveSubscription(now))
	assert.False(t, (&User{IsSubscribed: true, SubscriptionExpiresAt: &past}).HasActiveSubscription(now))
	assert.False(t, (&User{IsSubscribed: true}).HasActiveSubscription(now))
	assert.False(t, (&User{IsSubscribed: false, SubscriptionExpiresAt: &future}).HasActiveSubscription(now))
}
