package domain

import "time"

// Join request status constants.
const (
	JoinRequestStatusPending  = "PENDING"
	JoinRequestStatusAccepted = "ACCEPTED"
	JoinRequestStatusRejected = "REJECTED"
	JoinRequestStatusCanceled = "CANCELED"
)

// MaxJoinRequestMessageLen bounds the optional message a requester can attach.
const MaxJoinRequestMessageLen = 500

// JoinRequest represents a traveler asking to join a plan. The host id is
// denormalized from the plan so host-side listings avoid a join.
type JoinRequest struct {
	ID          string    `json:"id"`
	PlanID      string    `json:"plan_id"`
	HostID      string    `json:"host_id"`
	RequesterID string    `json:"requester_id"`
	Message     string    `json:"message,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Requester is populated on reads that join the requesting user.
	Requester *User `json:"requester,omitempty"`
	// Plan is populated on requester-side listings.
	Plan *TravelPlan `json:"plan,omitempty"`
}

// ValidJoinRequestStatuses returns all valid join request statuses.
func ValidJoinRequestStatuses() []string {
	return []string{
		JoinRequestStatusPending,
		JoinRequestStatusAccepted,
		JoinRequestStatusRejected,
		JoinRequestStatusCanceled,
	}
}

// IsValidJoinRequestStatus checks if a status string is valid.
func IsValidJoinRequestStatus(status string) bool {
	for _, s := range ValidJoinRequestStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// JoinRequestTransitions defines which status transitions are valid. All
// non-pending states are terminal.
func JoinRequestTransitions() map[string][]string {
	return map[string][]string{
		JoinRequestStatusPending: {
			JoinRequestStatusAccepted,
			JoinRequestStatusRejected,
			JoinRequestStatusCanceled,
		},
		JoinRequestStatusAccepted: {},
		JoinRequestStatusRejected: {},
		JoinRequestStatusCanceled: {},
	}
}

// CanTransitionTo checks if the request can transition to the target status.
func (j *JoinRequest) CanTransitionTo(target string) bool {
	allowed, ok := JoinRequestTransitions()[j.Status]
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

// IsPending reports whether the request is still awaiting a host decision.
func (j *JoinRequest) IsPending() bool {
	return j.Status == JoinRequestStatusPending
}
