package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	herr "github.com/Haventide/haventide-core/pkg/errors"
)

// TokenValidator verifies access tokens and returns their claims.
// Implemented by [Validator]; consumers such as the HTTP middleware
// depend on this interface so tests can substitute a stub.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*Claims, error)
}

// Validator validates RS256-signed JWTs issued by the configured
// identity provider. Checks run in a fixed order so the cheapest
// rejections happen first and an attacker cannot learn which later
// check failed without passing the earlier ones:
//
//  1. size and shape of the raw token
//  2. signing algorithm and key ID from the unverified header
//  3. signature against the cached JWKS
//  4. time claims (exp required, iat not in the future, leeway applied)
//  5. issuer and audience
//  6. platform cap on total token lifetime (exp - iat)
//
// A claims cache keyed by token hash short-circuits repeat validations
// of the same token; entries never outlive the token itself.
//
// Validator is safe for concurrent use by multiple goroutines.
type Validator struct {
	cfg    Config
	keys   *KeySetCache
	cache  IdentityCache
	tracer trace.Tracer
	logger *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewValidator builds a Validator from a validated Config and a key set
// cache. The cache may be nil to disable claims caching.
func NewValidator(cfg Config, keys *KeySetCache, cache IdentityCache) *Validator {
	return &Validator{
		cfg:    cfg,
		keys:   keys,
		cache:  cache,
		tracer: otel.Tracer(tracerName),
		logger: slog.Default(),
		now:    time.Now,
	}
}

// ValidateToken verifies the token and returns its claims. Every
// rejection is a *[herr.Error] with an AUTH-class code, except an
// unreachable identity provider, which surfaces as unavailable so
// clients know to retry rather than re-authenticate.
func (v *Validator) ValidateToken(ctx context.Context, tokenStr string) (*Claims, error) {
	ctx, span := v.tracer.Start(ctx, "auth.validate_token")
	defer span.End()

	if tokenStr == "" {
		err := herr.New(herr.CodeAuthenticationInvalid, "auth: token is empty")
		finishSpan(span, err)
		return nil, err
	}
	if len(tokenStr) > maxTokenSize {
		err := herr.New(herr.CodeAuthenticationInvalid, "auth: token exceeds maximum size")
		finishSpan(span, err)
		return nil, err
	}

	hash := tokenHash(tokenStr)
	if v.cache != nil {
		if claims, ok := v.cache.Get(ctx, hash); ok {
			span.SetAttributes(attribute.Bool("auth.cache_hit", true))
			return claims, nil
		}
		span.SetAttributes(attribute.Bool("auth.cache_hit", false))
	}

	kid, err := v.extractKeyID(tokenStr)
	if err != nil {
		finishSpan(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.String("auth.kid", kid))

	claims, err := v.parseAndVerify(ctx, tokenStr, kid)
	if err != nil {
		finishSpan(span, err)
		return nil, err
	}

	if err := v.checkLifetime(claims); err != nil {
		finishSpan(span, err)
		return nil, err
	}

	if v.cache != nil && v.cfg.ClaimsCacheTTL > 0 {
		v.cache.Put(ctx, hash, claims, claims.ExpiresAt)
	}
	return claims, nil
}

// ValidateTokenClaims verifies the token and additionally requires the
// named claims to be present. A valid token missing a required claim is
// rejected with an authorization error, not an authentication one; the
// caller proved who they are but the token does not carry what this
// endpoint needs.
func (v *Validator) ValidateTokenClaims(ctx context.Context, tokenStr string, required ...string) (*Claims, error) {
	claims, err := v.ValidateToken(ctx, tokenStr)
	if err != nil {
		return nil, err
	}
	for _, name := range required {
		if !claims.Has(name) {
			return nil, herr.Newf(herr.CodeAuthorizationDenied,
				"auth: token is missing required claim %q", name)
		}
	}
	return claims, nil
}

// extractKeyID reads the kid from the unverified token header. The
// header is attacker-controlled at this point; nothing from it is
// trusted beyond routing the key lookup.
func (v *Validator) extractKeyID(tokenStr string) (string, error) {
	parser := jwt.NewParser()
	unverified, _, err := parser.ParseUnverified(tokenStr, jwt.MapClaims{})
	if err != nil {
		return "", herr.Wrap(err, herr.CodeAuthenticationInvalid, "auth: malformed token")
	}

	// alg:none never reaches signature verification, but rejecting it
	// here gives a clearer error than an RS256 mismatch.
	if alg, _ := unverified.Header["alg"].(string); strings.EqualFold(alg, "none") {
		return "", herr.New(herr.CodeAuthenticationInvalid, "auth: algorithm 'none' is not permitted")
	}

	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return "", herr.New(herr.CodeAuthenticationInvalid, "auth: token header has no key ID")
	}
	return kid, nil
}

// parseAndVerify runs signature and registered-claim verification.
func (v *Validator) parseAndVerify(ctx context.Context, tokenStr, kid string) (*Claims, error) {
	keyfunc := func(*jwt.Token) (any, error) {
		return v.keys.Key(ctx, kid)
	}

	token, err := jwt.Parse(tokenStr, keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.cfg.IssuerURL),
		jwt.WithAudience(v.cfg.Audience),
		jwt.WithLeeway(v.cfg.Leeway),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, v.classifyError(err)
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, herr.New(herr.CodeAuthenticationInvalid, "auth: unable to extract claims")
	}
	return newClaims(mc), nil
}

// checkLifetime enforces the platform cap on exp - iat. The issuer
// decides how long a token lives; this bound decides how long a token
// the platform will accept, regardless of issuer policy. Tokens without
// iat skip the check since the window cannot be computed.
func (v *Validator) checkLifetime(claims *Claims) error {
	if claims.IssuedAt.IsZero() || claims.ExpiresAt.IsZero() {
		return nil
	}
	lifetime := claims.ExpiresAt.Sub(claims.IssuedAt)
	if lifetime > v.cfg.MaxTokenLifetime {
		return herr.Newf(herr.CodeAuthenticationLifetime,
			"auth: token lifetime %s exceeds maximum %s", lifetime, v.cfg.MaxTokenLifetime)
	}
	return nil
}

// classifyError maps a jwt parse error to the platform error taxonomy.
//
// A kid the provider does not know is reported as a signature failure:
// from the caller's perspective the token cannot be verified, and
// echoing "unknown key" would leak key rotation state. An unreachable
// provider passes through as unavailable because the token might be
// perfectly valid.
func (v *Validator) classifyError(err error) error {
	if herr.HasCode(err, herr.CodeUnavailableIdentityProvider) ||
		herr.HasCode(err, herr.CodeTimeoutDependency) {
		return err
	}
	if herr.HasCode(err, herr.CodeNotFoundSigningKey) {
		return herr.Wrap(err, herr.CodeAuthenticationSignature, "auth: token signature cannot be verified")
	}

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return herr.Wrap(err, herr.CodeAuthenticationExpired, "auth: token has expired")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return herr.Wrap(err, herr.CodeAuthenticationSignature, "auth: invalid token signature")
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return herr.Wrap(err, herr.CodeAuthenticationInvalid, "auth: token issuer mismatch")
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return herr.Wrap(err, herr.CodeAuthenticationInvalid, "auth: token audience mismatch")
	case errors.Is(err, jwt.ErrTokenUsedBeforeIssued), errors.Is(err, jwt.ErrTokenNotValidYet):
		return herr.Wrap(err, herr.CodeAuthenticationInvalid, "auth: token is not yet valid")
	default:
		return herr.Wrap(err, herr.CodeAuthenticationInvalid, "auth: token validation failed")
	}
}

// tokenHash returns the hex SHA-256 of the token, used as the claims
// cache key so raw tokens are never stored.
func tokenHash(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
