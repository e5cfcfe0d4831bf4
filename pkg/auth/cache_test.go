package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClaims(sub string, exp time.Time) *Claims {
	return newClaims(jwt.MapClaims{
		"sub": sub,
		"exp": float64(exp.Unix()),
	})
}

func TestMemoryIdentityCache_PutAndGet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := NewMemoryIdentityCache(5*time.Minute, 10)
	exp := time.Now().Add(time.Hour)
	c.Put(ctx, "hash-1", testClaims("user-1", exp), exp)

	got, ok := c.Get(ctx, "hash-1")
	require.True(t, ok)
	assert.Equal(t, "user-1", got.Subject)

	_, ok = c.Get(ctx, "hash-unknown")
	assert.False(t, ok)
}

func TestMemoryIdentityCache_EntriesExpire(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := NewMemoryIdentityCache(5*time.Minute, 10)
	now := time.Now()
	c.now = func() time.Time { return now }

	exp := now.Add(time.Hour)
	c.Put(ctx, "hash-1", testClaims("user-1", exp), exp)

	_, ok := c.Get(ctx, "hash-1")
	require.True(t, ok)

	// Advance past the cache TTL.
	now = now.Add(6 * time.Minute)
	_, ok = c.Get(ctx, "hash-1")
	assert.False(t, ok)
}

func TestMemoryIdentityCache_TTLCappedByTokenExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := NewMemoryIdentityCache(5*time.Minute, 10)
	now := time.Now()
	c.now = func() time.Time { return now }

	// Token expires in 1 minute, well before the 5 minute cache TTL.
	exp := now.Add(time.Minute)
	c.Put(ctx, "hash-1", testClaims("user-1", exp), exp)

	now = now.Add(90 * time.Second)
	_, ok := c.Get(ctx, "hash-1")
	assert.False(t, ok, "cached claims must never outlive the token")
}

func TestMemoryIdentityCache_ExpiredTokenNotCached(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := NewMemoryIdentityCache(5*time.Minute, 10)
	exp := time.Now().Add(-time.Minute)
	c.Put(ctx, "hash-1", testClaims("user-1", exp), exp)

	assert.Equal(t, 0, c.Len())
}

func TestMemoryIdentityCache_SizeCapEviction(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := NewMemoryIdentityCache(time.Hour, 3)
	base := time.Now()

	// Fill to capacity; hash-0 is closest to expiry.
	for i := range 3 {
		exp := base.Add(time.Duration(i+1) * 10 * time.Minute)
		c.Put(ctx, fmt.Sprintf("hash-%d", i), testClaims(fmt.Sprintf("user-%d", i), exp), exp)
	}
	require.Equal(t, 3, c.Len())

	exp := base.Add(time.Hour)
	c.Put(ctx, "hash-new", testClaims("user-new", exp), exp)

	assert.Equal(t, 3, c.Len())
	_, ok := c.Get(ctx, "hash-0")
	assert.False(t, ok, "entry closest to expiry is evicted first")
	_, ok = c.Get(ctx, "hash-new")
	assert.True(t, ok)
}

func TestMemoryIdentityCache_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	c := NewMemoryIdentityCache(time.Hour, 100)
	exp := time.Now().Add(time.Hour)

	done := make(chan struct{})
	for g := range 8 {
		go func() {
			defer func() { done <- struct{}{} }()
			for i := range 100 {
				hash := fmt.Sprintf("hash-%d-%d", g, i)
				c.Put(ctx, hash, testClaims("user", exp), exp)
				c.Get(ctx, hash)
			}
		}()
	}
	for range 8 {
		<-done
	}
	assert.LessOrEqual(t, c.Len(), 100)
}
