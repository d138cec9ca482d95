package domain

import (
	"sort"
	"strings"
	"time"
)

// Scoring weights for companion matching. Interest overlap dominates, then
// city and country closeness, then trip date overlap capped at a week.
const (
	interestWeight     = 6
	countryBonus       = 3
	cityBonus          = 5
	maxOverlapDaysUsed = 7
)

// MatchQuery holds the searcher's criteria for finding companion plans.
type MatchQuery struct {
	Country   string
	City      string
	From      *time.Time
	To        *time.Time
	Type      string
	Interests []string
}

// MatchMeta explains how a plan's score was computed.
type MatchMeta struct {
	InterestMatch int `json:"interest_match"`
	OverlapDays   int `json:"overlap_days"`
}

// ScoredPlan pairs a plan with its computed match score.
type ScoredPlan struct {
	Plan      TravelPlan `json:"plan"`
	Score     int        `json:"match_score"`
	MatchMeta MatchMeta  `json:"match_meta"`
}

// IntersectionCount returns how many elements of a appear in b, compared
// case-insensitively.
func IntersectionCount(a, b []string) int {
	set := make(map[string]struct{}, len(b))
	for _, s := range b {
		set[strings.ToLower(s)] = struct{}{}
	}
	count := 0
	for _, s := range a {
		if _, ok := set[strings.ToLower(s)]; ok {
			count++
		}
	}
	return count
}

// OverlapDays returns the number of whole days two date ranges share,
// rounded down. Non-overlapping ranges yield 0.
func OverlapDays(aStart, aEnd, bStart, bEnd time.Time) int {
	start := aStart
	if bStart.After(start) {
		start = bStart
	}
	end := aEnd
	if bEnd.Before(end) {
		end = bEnd
	}
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	return int(d / (24 * time.Hour))
}

// ScorePlan computes the match score of a plan against a query. Interest
// overlap is taken against the host's travel interests when the host is
// populated.
func ScorePlan(plan *TravelPlan, query MatchQuery) (int, MatchMeta) {
	var meta MatchMeta

	if len(query.Interests) > 0 && plan.Host != nil {
		meta.InterestMatch = IntersectionCount(plan.Host.TravelInterests, query.Interests)
	}

	score := meta.InterestMatch * interestWeight

	country := strings.ToLower(plan.Destination.Country)
	city := strings.ToLower(plan.Destination.City)
	if q := strings.ToLower(query.Country); q != "" && strings.Contains(country, q) {
		score += countryBonus
	}
	if q := strings.ToLower(query.City); q != "" && strings.Contains(city, q) {
		score += cityBonus
	}

	if query.From != nil && query.To != nil {
		meta.OverlapDays = OverlapDays(plan.StartDate, plan.EndDate, *query.From, *query.To)
		capped := meta.OverlapDays
		if capped > maxOverlapDaysUsed {
			capped = maxOverlapDaysUsed
		}
		score += capped
	}

	return score, meta
}

// RankPlans scores and orders candidate plans: highest score first, ties
// broken by newest creation time. The sort is deterministic for equal inputs.
func RankPlans(plans []TravelPlan, query MatchQuery) []ScoredPlan {
	scored := make([]ScoredPlan, len(plans))
	for i := range plans {
		score, meta := ScorePlan(&plans[i], query)
		scored[i] = ScoredPlan{Plan: plans[i], Score: score, MatchMeta: meta}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Plan.CreatedAt.After(scored[j].Plan.CreatedAt)
	})

	return scored
}
