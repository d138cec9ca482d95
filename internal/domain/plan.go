package domain

import "time"

// Travel type constants.
const (
	TravelTypeSolo    = "SOLO"
	TravelTypeFamily  = "FAMILY"
	TravelTypeFriends = "FRIENDS"
)

// Plan visibility constants.
const (
	VisibilityPublic  = "PUBLIC"
	VisibilityPrivate = "PRIVATE"
)

// Plan status constants.
const (
	PlanStatusUpcoming  = "UPCOMING"
	PlanStatusOngoing   = "ONGOING"
	PlanStatusCompleted = "COMPLETED"
	PlanStatusCanceled  = "CANCELED"
)

// Destination identifies where a travel plan is headed.
type Destination struct {
	Country string `json:"country"`
	City    string `json:"city"`
}

// TravelPlan represents a trip announced by a host looking for companions.
type TravelPlan struct {
	ID              string      `json:"id"`
	HostID          string      `json:"host_id"`
	Destination     Destination `json:"destination"`
	StartDate       time.Time   `json:"start_date"`
	EndDate         time.Time   `json:"end_date"`
	BudgetMin       *int64      `json:"budget_min,omitempty"`
	BudgetMax       *int64      `json:"budget_max,omitempty"`
	TravelType      string      `json:"travel_type"`
	Description     string      `json:"description,omitempty"`
	Visibility      string      `json:"visibility"`
	Status          string      `json:"status"`
	MaxParticipants int         `json:"max_participants"`
	DeletedAt       *time.Time  `json:"deleted_at,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`

	// Host is populated on reads that join the hosting user.
	Host *User `json:"host,omitempty"`
}

// ValidTravelTypes returns all valid travel type values.
func ValidTravelTypes() []string {
	return []string{TravelTypeSolo, TravelTypeFamily, TravelTypeFriends}
}

// IsValidTravelType checks if a travel type string is valid.
func IsValidTravelType(t string) bool {
	for _, v := range ValidTravelTypes() {
		if v == t {
			return true
		}
	}
	return false
}

// ValidPlanStatuses returns all valid plan status values.
func ValidPlanStatuses() []string {
	return []string{PlanStatusUpcoming, PlanStatusOngoing, PlanStatusCompleted, PlanStatusCanceled}
}

// IsValidPlanStatus checks if a plan status string is valid.
func IsValidPlanStatus(status string) bool {
	for _, s := range ValidPlanStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// IsDeleted reports whether the plan has been soft-deleted.
func (p *TravelPlan) IsDeleted() bool {
	return p.DeletedAt != nil
}

// IsJoinable reports whether the plan can currently receive join requests.
// Canceled, completed and soft-deleted plans are closed.
func (p *TravelPlan) IsJoinable() bool {
	if p.IsDeleted() {
		return false
	}
	return p.Status == PlanStatusUpcoming || p.Status == PlanStatusOngoing
}

// IsCompletedAt reports whether the trip is over at the given instant, either
// because the host marked it completed or because its end date has passed.
func (p *TravelPlan) IsCompletedAt(now time.Time) bool {
	if p.Status == PlanStatusCompleted {
		return true
	}
	return p.EndDate.Before(now)
}

// Occupancy returns the number of seats taken given the count of accepted
// join requests. The host always holds one seat.
func (p *TravelPlan) Occupancy(acceptedCount int) int {
	return 1 + acceptedCount
}

// IsFull reports whether the plan has no seats left given the count of
// accepted join requests. Plans without a participant limit are never full.
func (p *TravelPlan) IsFull(acceptedCount int) bool {
	if p.MaxParticipants <= 0 {
		return false
	}
	return p.Occupancy(acceptedCount) >= p.MaxParticipants
}
