package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Haventide/haventide-core/pkg/clients/redis"
)

// redisKeyPrefix namespaces identity cache entries so the cache can
// share a Redis database with other platform data.
const redisKeyPrefix = "haventide:identity:"

// RedisIdentityCache is an IdentityCache backed by Redis, for
// deployments where multiple instances serve the same traffic and a
// token validated by one instance should be a cache hit on all of them.
//
// The cache stores only claim sets keyed by token hash; raw tokens
// never reach Redis. Redis failures degrade to cache misses so an
// unavailable cache slows validation down instead of breaking it.
type RedisIdentityCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisIdentityCache creates a Redis-backed cache with the given
// per-entry TTL.
func NewRedisIdentityCache(client *redis.Client, ttl time.Duration) *RedisIdentityCache {
	return &RedisIdentityCache{
		client: client,
		ttl:    ttl,
		logger: slog.Default(),
	}
}

// Get returns the cached claims for the token hash, if present.
func (c *RedisIdentityCache) Get(ctx context.Context, tokenHash string) (*Claims, bool) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+tokenHash)
	if err != nil {
		// A missing key is the normal miss path; anything else is a
		// degraded cache worth a log line.
		if !errors.Is(err, goredis.Nil) {
			c.logger.WarnContext(ctx, "identity cache read failed", "error", err)
		}
		return nil, false
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		// A corrupt entry is dropped silently; the validator will
		// repopulate it.
		return nil, false
	}
	return newClaims(jwt.MapClaims(m)), true
}

// Put stores claims under the token hash with the configured TTL,
// capped by the token's remaining lifetime.
func (c *RedisIdentityCache) Put(ctx context.Context, tokenHash string, claims *Claims, tokenExpiry time.Time) {
	ttl := c.ttl
	if !tokenExpiry.IsZero() {
		if remaining := time.Until(tokenExpiry); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl <= 0 {
		return
	}

	payload, err := json.Marshal(claims.Map())
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+tokenHash, string(payload), ttl); err != nil {
		c.logger.WarnContext(ctx, "identity cache write failed", "error", err)
	}
}
