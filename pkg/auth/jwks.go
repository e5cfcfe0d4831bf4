package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	herr "github.com/Haventide/haventide-core/pkg/errors"
)

// tracerName is the OpenTelemetry instrumentation scope name for auth spans.
const tracerName = "github.com/Haventide/haventide-core/pkg/auth"

const (
	// jwksStaleFraction of the TTL after which a snapshot is still
	// served but a background refresh is kicked off.
	jwksStaleFraction = 0.8

	// jwksFetchAttempts and jwksFetchBackoff control the retry policy
	// of a single refresh. Backoff doubles between attempts.
	jwksFetchAttempts = 3
	jwksFetchBackoff  = 500 * time.Millisecond

	// jwksFailureCooldown is how long the background refresher waits
	// after a failed refresh before trying again.
	jwksFailureCooldown = 60 * time.Second

	// jwksMaxResponseSize limits the JWKS response body.
	jwksMaxResponseSize = 1 << 20

	// jwksRefreshTimeout bounds a detached background refresh,
	// covering all fetch attempts plus backoff.
	jwksRefreshTimeout = 45 * time.Second
)

// jwksMissRefreshRate limits how often an unknown kid may force a
// synchronous refresh. Without this, a flood of tokens signed with a
// bogus kid would hammer the identity provider.
var jwksMissRefreshRate = rate.Every(30 * time.Second)

// ---------------------------------------------------------------------------
// KeySetCache — JWKS snapshot cache with background refresh
// ---------------------------------------------------------------------------

// keySetSnapshot is an immutable fetched key set. Snapshots are swapped
// wholesale and never mutated, so readers need no locking.
type keySetSnapshot struct {
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// KeySetCache caches the identity provider's JSON Web Key Set and keeps
// it fresh. Keys are served from an atomically swapped snapshot:
//
//   - Fresh snapshot: keys are served directly.
//   - Stale snapshot (older than 80% of the TTL): keys are still served
//     and a background refresh is started.
//   - Expired snapshot: the caller blocks on a refresh. If the refresh
//     fails and an old snapshot exists, the stale keys are served.
//   - Unknown kid: one rate-limited synchronous refresh covers key
//     rotation at the provider.
//
// Concurrent refresh attempts are collapsed into one fetch; late
// arrivals wait for the in-flight refresh and reuse its result. A
// failed refresh never clobbers the previous snapshot.
//
// KeySetCache is safe for concurrent use by multiple goroutines.
type KeySetCache struct {
	jwksURL string
	ttl     time.Duration
	client  HTTPClient
	tracer  trace.Tracer
	logger  *slog.Logger

	snap atomic.Pointer[keySetSnapshot]

	// mu guards the single-flight refresh state below.
	mu          sync.Mutex
	refreshing  bool
	refreshDone chan struct{}
	refreshErr  error

	missLimiter *rate.Limiter

	// lifecycle guards Start/Stop idempotency.
	lifecycle sync.Mutex
	started   bool
	cancel    context.CancelFunc
	loopDone  chan struct{}
}

// NewKeySetCache builds a key set cache from a validated Config. The
// cache is passive until [KeySetCache.Start] is called, but Key works
// without Start; the first call then pays for the initial fetch.
func NewKeySetCache(cfg Config) *KeySetCache {
	return &KeySetCache{
		jwksURL:     cfg.ResolvedJWKSURL(),
		ttl:         cfg.JWKSCacheTTL,
		client:      cfg.httpClient(),
		tracer:      otel.Tracer(tracerName),
		logger:      slog.Default(),
		missLimiter: rate.NewLimiter(jwksMissRefreshRate, 1),
	}
}

// Start fetches the key set once and launches the background refresher.
// The initial fetch error is returned so callers can fail startup on an
// unreachable identity provider, but the refresher starts regardless;
// a caller that prefers to boot degraded may log the error and
// continue, and the cache will heal itself. Start is idempotent.
func (c *KeySetCache) Start(ctx context.Context) error {
	c.lifecycle.Lock()
	if c.started {
		c.lifecycle.Unlock()
		return nil
	}
	c.started = true

	loopCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.loopDone = make(chan struct{})
	go c.refreshLoop(loopCtx)
	c.lifecycle.Unlock()

	return c.refresh(ctx)
}

// Stop cancels the background refresher and waits for it to exit.
// Stop is idempotent and safe to call without Start.
func (c *KeySetCache) Stop() {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()
	if !c.started {
		return
	}
	c.started = false
	c.cancel()
	<-c.loopDone
}

// Key returns the RSA public key for the given key ID.
//
// An unknown kid triggers at most one rate-limited refresh before the
// lookup fails with a not-found error; an unreachable identity provider
// with no usable snapshot fails with an unavailable error.
func (c *KeySetCache) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	ctx, span := c.tracer.Start(ctx, "auth.jwks.key",
		trace.WithAttributes(attribute.String("auth.kid", kid)))
	defer span.End()

	snap := c.snap.Load()
	if snap != nil {
		age := time.Since(snap.fetchedAt)
		if age < c.ttl {
			if key, ok := snap.keys[kid]; ok {
				if age >= c.staleAfter() {
					c.refreshInBackground()
				}
				span.SetAttributes(attribute.Bool("auth.jwks.cache_hit", true))
				return key, nil
			}
			// Kid not in a fresh snapshot: likely key rotation at the
			// provider. Allow one rate-limited refetch.
			if !c.missLimiter.Allow() {
				err := herr.Newf(herr.CodeNotFoundSigningKey,
					"auth: signing key %q not found in JWKS", kid)
				finishSpan(span, err)
				return nil, err
			}
		}
	}

	if err := c.refresh(ctx); err != nil {
		// Serve stale keys over failing outright when we have any.
		if snap != nil {
			if key, ok := snap.keys[kid]; ok {
				c.logger.WarnContext(ctx, "serving stale JWKS after refresh failure",
					"jwks_url", c.jwksURL,
					"snapshot_age", time.Since(snap.fetchedAt).String(),
					"error", err)
				return key, nil
			}
		}
		finishSpan(span, err)
		return nil, err
	}

	snap = c.snap.Load()
	if key, ok := snap.keys[kid]; ok {
		return key, nil
	}
	err := herr.Newf(herr.CodeNotFoundSigningKey,
		"auth: signing key %q not found in JWKS after refresh", kid)
	finishSpan(span, err)
	return nil, err
}

// Snapshot returns the kids currently held and the snapshot age.
// Intended for health endpoints and tests.
func (c *KeySetCache) Snapshot() (kids []string, age time.Duration, ok bool) {
	snap := c.snap.Load()
	if snap == nil {
		return nil, 0, false
	}
	kids = make([]string, 0, len(snap.keys))
	for kid := range snap.keys {
		kids = append(kids, kid)
	}
	return kids, time.Since(snap.fetchedAt), true
}

// staleAfter returns the snapshot age at which background refresh kicks in.
func (c *KeySetCache) staleAfter() time.Duration {
	return time.Duration(float64(c.ttl) * jwksStaleFraction)
}

// refreshInBackground starts a detached refresh. The single-flight gate
// in refresh makes concurrent triggers collapse into one fetch.
func (c *KeySetCache) refreshInBackground() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), jwksRefreshTimeout)
		defer cancel()
		if err := c.refresh(ctx); err != nil {
			c.logger.Warn("background JWKS refresh failed",
				"jwks_url", c.jwksURL, "error", err)
		}
	}()
}

// refreshLoop refreshes the snapshot when it crosses the stale
// threshold, backing off after failures so a provider outage does not
// turn into a retry storm.
func (c *KeySetCache) refreshLoop(ctx context.Context) {
	defer close(c.loopDone)
	for {
		wait := c.staleAfter()
		if snap := c.snap.Load(); snap != nil {
			until := time.Until(snap.fetchedAt.Add(c.staleAfter()))
			if until > 0 {
				wait = until
			} else {
				wait = 0
			}
		}
		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}

		refreshCtx, cancel := context.WithTimeout(ctx, jwksRefreshTimeout)
		err := c.refresh(refreshCtx)
		cancel()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			c.logger.Warn("scheduled JWKS refresh failed",
				"jwks_url", c.jwksURL,
				"retry_in", jwksFailureCooldown.String(),
				"error", err)
			timer := time.NewTimer(jwksFailureCooldown)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}
	}
}

// refresh fetches the JWKS and swaps in a new snapshot. Only one fetch
// runs at a time; callers that arrive while a refresh is in flight wait
// for it and share its outcome.
func (c *KeySetCache) refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.refreshing {
		done := c.refreshDone
		c.mu.Unlock()
		select {
		case <-done:
			c.mu.Lock()
			err := c.refreshErr
			c.mu.Unlock()
			return err
		case <-ctx.Done():
			return herr.Wrap(ctx.Err(), herr.CodeTimeoutDependency,
				"auth: canceled while waiting for JWKS refresh")
		}
	}
	c.refreshing = true
	c.refreshDone = make(chan struct{})
	done := c.refreshDone
	c.mu.Unlock()

	keys, err := c.fetch(ctx)

	c.mu.Lock()
	if err == nil {
		c.snap.Store(&keySetSnapshot{keys: keys, fetchedAt: time.Now()})
	}
	c.refreshErr = err
	c.refreshing = false
	close(done)
	c.mu.Unlock()
	return err
}

// fetch retrieves and parses the JWKS document, retrying transient
// failures with doubling backoff.
func (c *KeySetCache) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	ctx, span := c.tracer.Start(ctx, "auth.jwks.fetch",
		trace.WithAttributes(attribute.String("auth.jwks_url", c.jwksURL)))
	defer span.End()

	var lastErr error
	backoff := jwksFetchBackoff
	for attempt := 1; attempt <= jwksFetchAttempts; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, herr.Wrap(ctx.Err(), herr.CodeTimeoutDependency,
					"auth: JWKS fetch canceled")
			case <-timer.C:
			}
			backoff *= 2
		}

		keys, err := c.fetchOnce(ctx)
		if err == nil {
			span.SetAttributes(attribute.Int("auth.jwks.key_count", len(keys)))
			if len(keys) == 0 {
				// An empty key set is served as fetched; the provider
				// may legitimately be mid-rotation.
				c.logger.Warn("JWKS endpoint returned no usable RSA keys",
					"jwks_url", c.jwksURL)
			}
			return keys, nil
		}
		lastErr = err
	}

	err := herr.Wrapf(lastErr, herr.CodeUnavailableIdentityProvider,
		"auth: JWKS fetch from %s failed after %d attempts", c.jwksURL, jwksFetchAttempts)
	finishSpan(span, err)
	return nil, err
}

// jwksDocument is the JSON structure of a JWKS endpoint response.
type jwksDocument struct {
	Keys []jwkEntry `json:"keys"`
}

// jwkEntry is a single key in a JWKS response. Only the fields needed
// for RSA key reconstruction are decoded.
type jwkEntry struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// fetchOnce performs a single HTTP GET of the JWKS document. The body
// is limited to 1 MB to prevent resource exhaustion.
func (c *KeySetCache) fetchOnce(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.jwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to create JWKS request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: JWKS request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: JWKS endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, jwksMaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("auth: failed to read JWKS response: %w", err)
	}

	var doc jwksDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("auth: failed to parse JWKS JSON: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		// Tokens are RS256-only, so only RSA signing keys matter.
		if k.Kid == "" || k.Kty != "RSA" {
			continue
		}
		if k.Use != "" && k.Use != "sig" {
			continue
		}
		pub, err := parseRSAPublicKey(k.N, k.E)
		if err != nil {
			c.logger.Warn("skipping malformed JWKS key",
				"jwks_url", c.jwksURL, "kid", k.Kid, "error", err)
			continue
		}
		keys[k.Kid] = pub
	}
	return keys, nil
}

// parseRSAPublicKey constructs an *rsa.PublicKey from base64url-encoded
// modulus (n) and exponent (e) values.
func parseRSAPublicKey(nBase64, eBase64 string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nBase64)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to decode RSA modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(eBase64)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to decode RSA exponent: %w", err)
	}
	if len(nBytes) == 0 || len(eBytes) == 0 {
		return nil, fmt.Errorf("auth: RSA key has empty modulus or exponent")
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}

// finishSpan records an error on the span if err is non-nil and sets
// the span status to Error.
func finishSpan(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
