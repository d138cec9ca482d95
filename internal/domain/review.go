package domain

import (
	"math"
	"time"
)

// Review rating bounds.
const (
	MinReviewRating = 1
	MaxReviewRating = 5
)

// MaxReviewCommentLen bounds the optional review comment.
const MaxReviewCommentLen = 1000

// Review is feedback left by one trip participant about another after the
// trip completed. A reviewer may review a given user once per plan.
type Review struct {
	ID         string     `json:"id"`
	PlanID     string     `json:"plan_id"`
	ReviewerID string     `json:"reviewer_id"`
	RevieweeID string     `json:"reviewee_id"`
	Rating     int        `json:"rating"`
	Comment    string     `json:"comment,omitempty"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Reviewer is populated on reads that join the reviewing user.
	Reviewer *User `json:"reviewer,omitempty"`
}

// IsDeleted reports whether the review has been soft-deleted.
func (r *Review) IsDeleted() bool {
	return r.DeletedAt != nil
}

// IsValidRating checks a rating against the allowed 1 to 5 range.
func IsValidRating(rating int) bool {
	return rating >= MinReviewRating && rating <= MaxReviewRating
}

// ComputeRatingSummary aggregates ratings into a summary. The average is
// rounded to two decimal places; an empty slice yields a zero summary.
func ComputeRatingSummary(ratings []int) RatingSummary {
	if len(ratings) == 0 {
		return RatingSummary{}
	}

	var sum int
	for _, r := range ratings {
		sum += r
	}

	avg := float64(sum) / float64(len(ratings))
	return RatingSummary{
		Average: math.Round(avg*100) / 100,
		Count:   len(ratings),
	}
}
