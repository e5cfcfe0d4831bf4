package auth

import (
	"context"
	"sync"
	"time"
)

// IdentityCache stores validated claims keyed by token hash, so repeat
// requests with the same token skip signature verification. Entries
// must never outlive the token: implementations cap the TTL by the
// token's expiry. Implementations must be safe for concurrent use.
//
// Get and Put take a context so distributed implementations (see
// [RedisIdentityCache]) can honor cancellation; the in-memory
// implementation ignores it.
type IdentityCache interface {
	Get(ctx context.Context, tokenHash string) (*Claims, bool)
	Put(ctx context.Context, tokenHash string, claims *Claims, tokenExpiry time.Time)
}

// memoryCacheEntry pairs cached claims with their eviction deadline.
type memoryCacheEntry struct {
	claims    *Claims
	expiresAt time.Time
}

// MemoryIdentityCache is a process-local IdentityCache with TTL
// expiration and a size cap. When full it evicts expired entries
// first, then the entry closest to expiry.
type MemoryIdentityCache struct {
	mu      sync.RWMutex
	entries map[string]*memoryCacheEntry
	ttl     time.Duration
	maxSize int
	now     func() time.Time
}

// NewMemoryIdentityCache creates a cache holding at most maxSize
// entries for at most ttl each.
func NewMemoryIdentityCache(ttl time.Duration, maxSize int) *MemoryIdentityCache {
	return &MemoryIdentityCache{
		entries: make(map[string]*memoryCacheEntry),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
	}
}

// Get returns the cached claims for the token hash, if present and
// unexpired.
func (c *MemoryIdentityCache) Get(_ context.Context, tokenHash string) (*Claims, bool) {
	c.mu.RLock()
	entry, ok := c.entries[tokenHash]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.claims, true
}

// Put stores claims under the token hash. The effective TTL is the
// configured TTL capped by the token's remaining lifetime; a token
// already at or past expiry is not cached.
func (c *MemoryIdentityCache) Put(_ context.Context, tokenHash string, claims *Claims, tokenExpiry time.Time) {
	now := c.now()
	ttl := c.ttl
	if !tokenExpiry.IsZero() {
		if remaining := tokenExpiry.Sub(now); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		c.evictExpiredLocked(now)
		if len(c.entries) >= c.maxSize {
			c.evictSoonestLocked()
		}
	}
	c.entries[tokenHash] = &memoryCacheEntry{
		claims:    claims,
		expiresAt: now.Add(ttl),
	}
}

// Len returns the number of entries, expired included.
func (c *MemoryIdentityCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictExpiredLocked removes all expired entries. Caller must hold the
// write lock.
func (c *MemoryIdentityCache) evictExpiredLocked(now time.Time) {
	for k, v := range c.entries {
		if now.After(v.expiresAt) {
			delete(c.entries, k)
		}
	}
}

// evictSoonestLocked removes the entry closest to expiry. Caller must
// hold the write lock.
func (c *MemoryIdentityCache) evictSoonestLocked() {
	var victim string
	var soonest time.Time
	for k, v := range c.entries {
		if victim == "" || v.expiresAt.Before(soonest) {
			victim = k
			soonest = v.expiresAt
		}
	}
	if victim != "" {
		delete(c.entries, victim)
	}
}
