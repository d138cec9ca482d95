package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/travelbuddy/server/internal/domain"
)

// MatchCache stores ranked match results for a short window so repeated
// searches and page walks do not rescore the whole candidate set.
type MatchCache interface {
	Get(ctx context.Context, key string) ([]domain.ScoredPlan, bool)
	Set(ctx context.Context, key string, ranked []domain.ScoredPlan)
}

// DefaultMatchCacheTTL bounds how stale a cached match result can get.
const DefaultMatchCacheTTL = 60 * time.Second

// RedisMatchCache implements MatchCache on Redis. All failures degrade to a
// cache miss; matching never depends on Redis being up.
type RedisMatchCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisMatchCache creates a Redis-backed match cache.
func NewRedisMatchCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisMatchCache {
	if ttl <= 0 {
		ttl = DefaultMatchCacheTTL
	}
	return &RedisMatchCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the cached ranked list for the key, if present.
func (c *RedisMatchCache) Get(ctx context.Context, key string) ([]domain.ScoredPlan, bool) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WarnContext(ctx, "match cache read failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return nil, false
	}

	var ranked []domain.ScoredPlan
	if err := json.Unmarshal(payload, &ranked); err != nil {
		c.logger.WarnContext(ctx, "match cache payload corrupt",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil, false
	}

	return ranked, true
}

// Set stores the ranked list under the key with the configured TTL.
func (c *RedisMatchCache) Set(ctx context.Context, key string, ranked []domain.ScoredPlan) {
	payload, err := json.Marshal(ranked)
	if err != nil {
		c.logger.WarnContext(ctx, "match cache marshal failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "match cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// matchCacheKey derives a stable cache key from the normalized query. The
// actor only matters when their own plans are excluded from results.
func matchCacheKey(actor *Actor, input MatchInput) string {
	var b strings.Builder

	b.WriteString(strings.ToLower(input.Country))
	b.WriteByte('|')
	b.WriteString(strings.ToLower(input.City))
	b.WriteByte('|')
	b.WriteString(input.Type)
	b.WriteByte('|')

	interests := make([]string, len(input.Interests))
	for i, s := range input.Interests {
		interests[i] = strings.ToLower(strings.TrimSpace(s))
	}
	sort.Strings(interests)
	b.WriteString(strings.Join(interests, ","))
	b.WriteByte('|')

	if input.From != nil {
		b.WriteString(input.From.UTC().Format(time.RFC3339))
	}
	b.WriteByte('|')
	if input.To != nil {
		b.WriteString(input.To.UTC().Format(time.RFC3339))
	}
	b.WriteByte('|')

	if input.ExcludeSelf && actor != nil {
		b.WriteString(actor.UserID)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return "match:" + hex.EncodeToString(sum[:16])
}
