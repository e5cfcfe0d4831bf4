package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the verified contents of an access token. The registered
// claims the validator checks are exposed as typed fields; everything
// else (tenant claims, custom namespaced claims) is reachable through
// [Claims.Get].
//
// A Claims value is only ever produced by the validator after signature
// and claim verification succeed, so holding a *Claims is proof the
// token it came from was valid at validation time.
type Claims struct {
	// Subject is the "sub" claim: the stable user identifier assigned
	// by the identity provider.
	Subject string

	// Issuer is the verified "iss" claim.
	Issuer string

	// Audience is the verified "aud" claim.
	Audience []string

	// IssuedAt is the "iat" claim. Zero if the token carried none.
	IssuedAt time.Time

	// ExpiresAt is the "exp" claim.
	ExpiresAt time.Time

	// raw holds every claim in the token, including the typed ones
	// above. Kept private so callers cannot mutate a shared Claims.
	raw map[string]any
}

// newClaims builds a Claims from the verified claim set of a parsed
// token. Registered timestamp claims that are absent stay zero.
func newClaims(mc jwt.MapClaims) *Claims {
	c := &Claims{
		raw: make(map[string]any, len(mc)),
	}
	for k, v := range mc {
		c.raw[k] = v
	}

	c.Subject, _ = mc["sub"].(string)
	c.Issuer, _ = mc["iss"].(string)

	if aud, err := mc.GetAudience(); err == nil {
		c.Audience = []string(aud)
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}

	return c
}

// NewClaimsFromMap builds a Claims from a raw claim map, such as one
// decoded from a shared cache entry. It performs no verification; use
// it only with claim sets that were verified before being stored.
func NewClaimsFromMap(m map[string]any) *Claims {
	return newClaims(jwt.MapClaims(m))
}

// Get returns the named claim and whether it was present in the token.
// Values keep the types produced by JSON decoding (string, float64,
// bool, []any, map[string]any).
func (c *Claims) Get(name string) (any, bool) {
	v, ok := c.raw[name]
	return v, ok
}

// GetString returns the named claim if it is present and a string.
func (c *Claims) GetString(name string) (string, bool) {
	v, ok := c.raw[name]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Has reports whether the named claim was present in the token.
func (c *Claims) Has(name string) bool {
	_, ok := c.raw[name]
	return ok
}

// Map returns a copy of all claims. Mutating the returned map does not
// affect the Claims.
func (c *Claims) Map() map[string]any {
	out := make(map[string]any, len(c.raw))
	for k, v := range c.raw {
		out[k] = v
	}
	return out
}

// UserContext is the request-scoped identity established by the
// authentication middleware: who the caller is and which tenant every
// data access in this request must be scoped to.
//
// A UserContext always has both identifiers set; requests whose tokens
// lack either never get one.
type UserContext struct {
	// UserID is the token subject.
	UserID string

	// TenantID is the validated tenant identifier extracted from the
	// token's tenant claim.
	TenantID string

	// Claims is the full verified claim set, for handlers that need
	// more than the two identifiers (roles, scopes, custom claims).
	Claims *Claims
}

// NewUserContext builds a UserContext from validated claims and an
// extracted tenant ID.
func NewUserContext(userID, tenantID string, claims *Claims) *UserContext {
	return &UserContext{
		UserID:   userID,
		TenantID: tenantID,
		Claims:   claims,
	}
}
