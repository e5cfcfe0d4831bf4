//go:build integration

// Package redis_test contains integration tests for the Redis client that
// require a running Redis instance via testcontainers-go. These tests are
// gated behind the "integration" build tag and are executed in CI with Docker.
//
// Run locally with:
//
//	go test -v -race -tags=integration ./pkg/clients/redis/...
//
// # Architecture
//
// All tests run within a single [suite.Suite] that starts one Redis
// container in [SetupSuite] and terminates it in [TearDownSuite]. Test
// isolation is achieved via unique key prefixes per test method rather than
// per-test containers, which reduces total execution time.
package redis_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/Haventide/haventide-core/internal/testutil/containers"
	"github.com/Haventide/haventide-core/pkg/auth"
	"github.com/Haventide/haventide-core/pkg/clients/redis"
	herr "github.com/Haventide/haventide-core/pkg/errors"
)

// ===========================================================================
// Suite Definition
// ===========================================================================

// RedisIntegrationSuite runs all Redis integration tests against a single
// shared container. The container is started once in SetupSuite and
// terminated in TearDownSuite. All test methods share the same client,
// using unique key prefixes for isolation.
type RedisIntegrationSuite struct {
	suite.Suite

	// ctx is the background context used for container and client
	// lifecycle operations.
	ctx context.Context

	// redisResult holds the started Redis container and connection
	// string. It is set in SetupSuite and used to terminate the
	// container in TearDownSuite.
	redisResult *containers.RedisResult

	// client is the platform Redis client connected to the test
	// container. All test methods use this client unless they need to
	// test client creation or close behavior.
	client *redis.Client
}

// SetupSuite starts a single Redis container and creates a client shared
// across all tests in the suite. This runs once before any test method
// executes.
func (s *RedisIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	result, err := containers.StartRedis(s.ctx)
	require.NoError(s.T(), err, "failed to start Redis container")
	s.redisResult = result

	cfg := redis.Config{
		URI:      result.ConnString,
		PoolSize: 10,
	}
	require.NoError(s.T(), cfg.Validate(), "failed to validate config")

	client, err := redis.NewClient(s.ctx, cfg)
	require.NoError(s.T(), err, "failed to create Redis client")
	s.client = client
}

// TearDownSuite closes the client and terminates the container. This
// runs once after all test methods have completed.
func (s *RedisIntegrationSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.redisResult != nil {
		if err := s.redisResult.Container.Terminate(s.ctx); err != nil {
			s.T().Logf("failed to terminate redis container: %v", err)
		}
	}
}

// TestRedisIntegration is the top-level entry point that runs all suite
// tests. It is skipped in short mode (-short flag) to allow fast unit
// test runs without Docker.
func TestRedisIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisIntegrationSuite))
}

// ===========================================================================
// Connection Tests
// ===========================================================================

// TestNewClient_ConnectsSuccessfully verifies that NewClient can
// establish a connection to a real Redis instance and that the returned
// client is functional.
func (s *RedisIntegrationSuite) TestNewClient_ConnectsSuccessfully() {
	require.NotNil(s.T(), s.client, "suite client should not be nil")
}

// TestHealth_ReturnsNil verifies that Health returns nil when Redis
// is reachable and responding to pings.
func (s *RedisIntegrationSuite) TestHealth_ReturnsNil() {
	require.NoError(s.T(), s.client.Health(s.ctx))
}

// ===========================================================================
// String Operation Tests
// ===========================================================================

// TestSet_And_Get verifies that Set stores a value and Get retrieves it.
func (s *RedisIntegrationSuite) TestSet_And_Get() {
	key := "test:set_get:key1"
	require.NoError(s.T(), s.client.Set(s.ctx, key, "hello", 10*time.Minute))

	val, err := s.client.Get(s.ctx, key)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "hello", val)
}

// TestGet_NonExistentKey verifies that Get on a missing key stays
// detectable with errors.Is(err, redis.Nil) through the platform wrap.
func (s *RedisIntegrationSuite) TestGet_NonExistentKey() {
	_, err := s.client.Get(s.ctx, "test:get_nonexistent:missing")
	require.Error(s.T(), err)

	assert.True(s.T(), errors.Is(err, goredis.Nil),
		"miss must remain errors.Is(err, redis.Nil)")

	var hErr *herr.Error
	require.True(s.T(), errors.As(err, &hErr))
	assert.Equal(s.T(), herr.CodeInternalDatabase, hErr.Code)
}

// TestDel_RemovesKey verifies that Del removes a key and returns the
// number of keys removed.
func (s *RedisIntegrationSuite) TestDel_RemovesKey() {
	key := "test:del:key1"
	require.NoError(s.T(), s.client.Set(s.ctx, key, "temp", 10*time.Minute))

	deleted, err := s.client.Del(s.ctx, key)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(1), deleted)

	_, err = s.client.Get(s.ctx, key)
	require.Error(s.T(), err, "Get after Del should fail")
}

// TestExists_ReturnsCount verifies that Exists returns the correct
// count of existing keys.
func (s *RedisIntegrationSuite) TestExists_ReturnsCount() {
	require.NoError(s.T(), s.client.Set(s.ctx, "test:exists:key1", "a", 10*time.Minute))
	require.NoError(s.T(), s.client.Set(s.ctx, "test:exists:key2", "b", 10*time.Minute))

	count, err := s.client.Exists(s.ctx,
		"test:exists:key1", "test:exists:key2", "test:exists:nonexistent")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(2), count)
}

// TestExpire_And_TTL verifies that Expire sets a TTL and TTL retrieves
// a positive duration.
func (s *RedisIntegrationSuite) TestExpire_And_TTL() {
	key := "test:expire:key1"
	require.NoError(s.T(), s.client.Set(s.ctx, key, "value", 0))

	ok, err := s.client.Expire(s.ctx, key, 30*time.Second)
	require.NoError(s.T(), err)
	assert.True(s.T(), ok, "Expire should return true for existing key")

	ttl, err := s.client.TTL(s.ctx, key)
	require.NoError(s.T(), err)
	assert.True(s.T(), ttl > 0, "TTL should be positive, got %v", ttl)
	assert.True(s.T(), ttl <= 30*time.Second, "TTL should be <= 30s, got %v", ttl)
}

// TestIncr_CountsRequests verifies counter semantics used for
// per-tenant request accounting.
func (s *RedisIntegrationSuite) TestIncr_CountsRequests() {
	key := "test:ratelimit:clinic-north"
	for want := int64(1); want <= 3; want++ {
		val, err := s.client.Incr(s.ctx, key)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), want, val)
	}
}

// ===========================================================================
// Identity Cache Tests
// ===========================================================================

// TestIdentityCache_RoundTrip runs the distributed identity cache
// against real Redis: claims stored under a token hash by one cache
// instance are a hit on a second instance sharing the same Redis, and
// the entry expires with the token.
func (s *RedisIntegrationSuite) TestIdentityCache_RoundTrip() {
	sum := sha256.Sum256([]byte("integration-token"))
	tokenHash := hex.EncodeToString(sum[:])

	claims := auth.NewClaimsFromMap(map[string]any{
		"sub":       "user-42",
		"iss":       "https://idp.haventide.test",
		"tenant_id": "clinic-north",
		"exp":       float64(time.Now().Add(time.Hour).Unix()),
	})

	writer := auth.NewRedisIdentityCache(s.client, 5*time.Minute)
	writer.Put(s.ctx, tokenHash, claims, time.Now().Add(time.Hour))

	// A second instance over the same Redis sees the entry.
	reader := auth.NewRedisIdentityCache(s.client, 5*time.Minute)
	got, ok := reader.Get(s.ctx, tokenHash)
	require.True(s.T(), ok, "expected cache hit on second instance")
	assert.Equal(s.T(), "user-42", got.Subject)
	tenant, ok := got.GetString("tenant_id")
	require.True(s.T(), ok)
	assert.Equal(s.T(), "clinic-north", tenant)

	// Unknown hashes miss cleanly.
	_, ok = reader.Get(s.ctx, "no-such-hash")
	assert.False(s.T(), ok)
}

// TestIdentityCache_TTLCappedByTokenExpiry verifies the Redis entry
// never outlives the token it caches.
func (s *RedisIntegrationSuite) TestIdentityCache_TTLCappedByTokenExpiry() {
	sum := sha256.Sum256([]byte("short-lived-token"))
	tokenHash := hex.EncodeToString(sum[:])

	claims := auth.NewClaimsFromMap(map[string]any{"sub": "user-9"})

	cache := auth.NewRedisIdentityCache(s.client, time.Hour)
	cache.Put(s.ctx, tokenHash, claims, time.Now().Add(10*time.Second))

	ttl, err := s.client.TTL(s.ctx, "haventide:identity:"+tokenHash)
	require.NoError(s.T(), err)
	assert.True(s.T(), ttl > 0 && ttl <= 10*time.Second,
		"entry TTL %v must be capped by token expiry", ttl)
}
