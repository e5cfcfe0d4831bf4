package auth

import (
	"regexp"
	"strings"

	herr "github.com/Haventide/haventide-core/pkg/errors"
)

// tenantIDPattern is the allowed character set for tenant identifiers.
// Length bounds are checked separately so their config stays in one
// place.
var tenantIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// TenantExtractor pulls the tenant identifier out of verified token
// claims. The claim list is ordered; the first claim holding a
// non-empty string wins and later claims are not consulted, so a token
// carrying both tenant_id and org_id is always attributed to tenant_id.
//
// Extraction distinguishes two failures a caller must treat
// differently: a token with no tenant claim at all is an authorization
// problem (this identity cannot be scoped to a tenant), while a tenant
// value that fails format validation is a validation problem (the claim
// exists but its content is unusable).
type TenantExtractor struct {
	claims         []string
	minLen, maxLen int
	skipFormat     bool
}

// NewTenantExtractor builds an extractor from a validated Config.
func NewTenantExtractor(cfg Config) *TenantExtractor {
	return &TenantExtractor{
		claims:     cfg.TenantClaims,
		minLen:     cfg.TenantIDMinLength,
		maxLen:     cfg.TenantIDMaxLength,
		skipFormat: cfg.SkipTenantFormatValidation,
	}
}

// Extract returns the tenant ID from claims, or an error when no
// configured claim carries one or the value fails format validation.
func (e *TenantExtractor) Extract(claims *Claims) (string, error) {
	for _, name := range e.claims {
		raw, ok := claims.Get(name)
		if !ok {
			continue
		}
		// A present non-string candidate is a format violation, not a
		// miss: falling through would let a poisoned high-priority claim
		// steer extraction to a lower-priority one.
		s, isString := raw.(string)
		if !isString {
			if e.skipFormat {
				continue
			}
			return "", herr.Newf(herr.CodeValidationTenantFormat,
				"auth: tenant ID in claim %q is %T, want string", name, raw)
		}
		// An empty or whitespace-only value is skipped: a later claim
		// may still carry the tenant.
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}

		if err := e.validateFormat(name, s); err != nil {
			return "", err
		}
		return s, nil
	}

	return "", herr.Newf(herr.CodeAuthorizationTenantMissing,
		"auth: no tenant identifier in token claims (checked %s)", strings.Join(e.claims, ", "))
}

// ExtractWithUserID returns both the tenant ID and the user ID from
// claims. It is the convenience form for callers that build a
// [UserContext] directly; both values must be present.
func (e *TenantExtractor) ExtractWithUserID(claims *Claims) (tenantID, userID string, err error) {
	tenantID, err = e.Extract(claims)
	if err != nil {
		return "", "", err
	}
	userID, err = ExtractUserID(claims)
	if err != nil {
		return "", "", err
	}
	return tenantID, userID, nil
}

// ExtractUserID returns the user identifier from the subject claim, or
// an invalid-claims error when the subject is absent or empty.
func ExtractUserID(claims *Claims) (string, error) {
	if strings.TrimSpace(claims.Subject) == "" {
		return "", herr.New(herr.CodeAuthenticationInvalid,
			"auth: token has no subject claim")
	}
	return claims.Subject, nil
}

// validateFormat checks length bounds and character set.
func (e *TenantExtractor) validateFormat(claim, tenantID string) error {
	if e.skipFormat {
		return nil
	}
	if len(tenantID) < e.minLen || len(tenantID) > e.maxLen {
		return herr.Newf(herr.CodeValidationTenantFormat,
			"auth: tenant ID in claim %q has length %d, want %d to %d",
			claim, len(tenantID), e.minLen, e.maxLen)
	}
	if !tenantIDPattern.MatchString(tenantID) {
		return herr.Newf(herr.CodeValidationTenantFormat,
			"auth: tenant ID in claim %q contains characters outside [a-zA-Z0-9_-]", claim)
	}
	return nil
}
