package domain

import "time"

// User role constants.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// User account status constants.
const (
	UserStatusActive  = "ACTIVE"
	UserStatusBlocked = "BLOCKED"
)

// RatingSummary is the denormalized rating aggregate kept on each user.
// It is recomputed from scratch whenever a review for the user changes.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// User represents a traveler account.
type User struct {
	ID                    string        `json:"id"`
	FullName              string        `json:"full_name"`
	Email                 string        `json:"email"`
	Role                  string        `json:"role"`
	Status                string        `json:"status"`
	IsDeleted             bool          `json:"is_deleted"`
	ImageURL              string        `json:"image_url,omitempty"`
	CurrentLocation       string        `json:"current_location,omitempty"`
	TravelInterests       []string      `json:"travel_interests"`
	RatingSummary         RatingSummary `json:"rating_summary"`
	IsSubscribed          bool          `json:"is_subscribed"`
	SubscriptionExpiresAt *time.Time    `json:"subscription_expires_at,omitempty"`
	HasVerifiedBadge      bool          `json:"has_verified_badge"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// IsActive reports whether the account may perform write operations.
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// HasActiveSubscription reports whether the user's subscription is live at
// the given instant.
func (u *User) HasActiveSubscription(now time.Time) bool {
	if !u.IsSubscribed {
		return false
	}
	if u.SubscriptionExpiresAt == nil {
		return false
	}
	return u.SubscriptionExpiresAt.After(now)
}
