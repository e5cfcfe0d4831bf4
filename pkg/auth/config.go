package auth

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	herr "github.com/Haventide/haventide-core/pkg/errors"
)

// HTTPClient abstracts the HTTP client used for fetching the identity
// provider's JWKS document. Callers can supply clients with custom
// transports (mTLS, proxies, test doubles); the standard [http.Client]
// satisfies this interface.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Defaults for the authentication edge. The bounds on token lifetime
// and JWKS TTL exist because both are security parameters: a huge token
// lifetime defeats revocation, and a tiny JWKS TTL turns the identity
// provider into a per-request dependency.
const (
	// DefaultJWKSCacheTTL is how long a fetched key set is served
	// before a blocking refresh is forced.
	DefaultJWKSCacheTTL = time.Hour

	// MinJWKSCacheTTL and MaxJWKSCacheTTL bound the configurable TTL.
	MinJWKSCacheTTL = time.Minute
	MaxJWKSCacheTTL = 24 * time.Hour

	// DefaultLeeway is the clock skew tolerance applied to exp and iat.
	DefaultLeeway = 60 * time.Second

	// DefaultMaxTokenLifetime caps exp - iat. Tokens granted a longer
	// window by the issuer are rejected outright.
	DefaultMaxTokenLifetime = time.Hour

	// MinTokenLifetime and MaxTokenLifetime bound the configurable cap.
	MinTokenLifetime = time.Minute
	MaxTokenLifetime = 24 * time.Hour

	// DefaultTenantIDMinLength and DefaultTenantIDMaxLength bound
	// tenant identifier length.
	DefaultTenantIDMinLength = 3
	DefaultTenantIDMaxLength = 128

	// DefaultHTTPTimeout applies to JWKS fetches when the caller does
	// not supply an HTTP client.
	DefaultHTTPTimeout = 10 * time.Second

	// maxTokenSize is the maximum accepted size for a token string.
	// Larger tokens are rejected before any parsing.
	maxTokenSize = 8192
)

// DefaultTenantClaims is the ordered list of claims searched for a
// tenant identifier. Earlier entries win; the custom: prefix covers
// identity providers that namespace custom claims.
var DefaultTenantClaims = []string{
	"tenant_id",
	"organization_id",
	"org_id",
	"custom:tenant_id",
}

// Config holds the configuration for the authentication edge: the
// validator, the key set cache, and tenant extraction. Load it with
// pkg/config or populate it directly; either way [Config.Validate]
// must pass before the config is used, and an out-of-bounds value must
// prevent service startup.
type Config struct {
	// IssuerURL is the identity provider's issuer URL. Tokens whose
	// "iss" claim differs are rejected. Also the base for the default
	// JWKS URL.
	IssuerURL string `json:"issuer_url" yaml:"issuer_url" env:"ISSUER_URL" required:"true"`

	// Audience is the expected "aud" claim (the API's client ID).
	Audience string `json:"audience" yaml:"audience" env:"AUDIENCE" required:"true"`

	// JWKSURL overrides the JWKS endpoint. When empty it is derived as
	// <IssuerURL>/.well-known/jwks.json.
	JWKSURL string `json:"jwks_url,omitempty" yaml:"jwks_url" env:"JWKS_URL"`

	// JWKSCacheTTL is how long a fetched key set is considered fresh.
	// Bounds: [1m, 24h]. Default: 1h.
	JWKSCacheTTL time.Duration `json:"jwks_cache_ttl" yaml:"jwks_cache_ttl" env:"JWKS_CACHE_TTL" envDefault:"1h"`

	// Leeway is the clock skew tolerance for exp and iat checks.
	// Must be non-negative. Default: 60s.
	Leeway time.Duration `json:"leeway" yaml:"leeway" env:"LEEWAY" envDefault:"60s"`

	// MaxTokenLifetime caps the exp - iat window the platform accepts,
	// independent of what the issuer granted. Bounds: [1m, 24h].
	// Default: 1h.
	MaxTokenLifetime time.Duration `json:"max_token_lifetime" yaml:"max_token_lifetime" env:"MAX_TOKEN_LIFETIME" envDefault:"1h"`

	// ClaimsCacheTTL is how long a validated claim set may be served
	// from cache before full re-validation. The effective per-token TTL
	// is capped by the token's remaining lifetime. Zero disables the
	// cache. Default: 5m.
	ClaimsCacheTTL time.Duration `json:"claims_cache_ttl" yaml:"claims_cache_ttl" env:"CLAIMS_CACHE_TTL" envDefault:"5m"`

	// ClaimsCacheMaxSize is the entry cap for the in-memory claims
	// cache. Default: 10000.
	ClaimsCacheMaxSize int `json:"claims_cache_max_size" yaml:"claims_cache_max_size" env:"CLAIMS_CACHE_MAX_SIZE" envDefault:"10000"`

	// TenantClaims is the ordered list of claims searched for the
	// tenant identifier. Default: [DefaultTenantClaims].
	TenantClaims []string `json:"tenant_claims" yaml:"tenant_claims" env:"TENANT_CLAIMS" envDefault:"tenant_id,organization_id,org_id,custom:tenant_id"`

	// SkipTenantFormatValidation disables the tenant ID format check
	// (length and character set). Claim presence is still required.
	// Intended for deployments with legacy tenant identifiers.
	SkipTenantFormatValidation bool `json:"skip_tenant_format_validation" yaml:"skip_tenant_format_validation" env:"SKIP_TENANT_FORMAT_VALIDATION" envDefault:"false"`

	// TenantIDMinLength and TenantIDMaxLength bound tenant ID length
	// when format validation is enabled. Defaults: 3 and 128.
	TenantIDMinLength int `json:"tenant_id_min_length" yaml:"tenant_id_min_length" env:"TENANT_ID_MIN_LENGTH" envDefault:"3"`
	TenantIDMaxLength int `json:"tenant_id_max_length" yaml:"tenant_id_max_length" env:"TENANT_ID_MAX_LENGTH" envDefault:"128"`

	// HTTPClient is used for JWKS fetches. If nil, an [http.Client]
	// with [DefaultHTTPTimeout] is used.
	HTTPClient HTTPClient `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with all optional fields at their
// defaults. IssuerURL and Audience must still be set by the caller.
func DefaultConfig() Config {
	return Config{
		JWKSCacheTTL:       DefaultJWKSCacheTTL,
		Leeway:             DefaultLeeway,
		MaxTokenLifetime:   DefaultMaxTokenLifetime,
		ClaimsCacheTTL:     5 * time.Minute,
		ClaimsCacheMaxSize: 10000,
		TenantClaims:       append([]string(nil), DefaultTenantClaims...),
		TenantIDMinLength:  DefaultTenantIDMinLength,
		TenantIDMaxLength:  DefaultTenantIDMaxLength,
	}
}

// Validate checks the configuration and returns a *[herr.Error] with a
// VAL-class code on the first violation. Zero-valued optional fields
// are filled with defaults; bounds violations are hard errors, never
// silently clamped.
func (c *Config) Validate() *herr.Error {
	if c.IssuerURL == "" {
		return herr.New(herr.CodeValidationRequired, "auth: issuer URL must not be empty")
	}
	if u, err := url.Parse(c.IssuerURL); err != nil || u.Scheme == "" || u.Host == "" {
		return herr.Newf(herr.CodeValidationFormat, "auth: issuer URL %q is not an absolute URL", c.IssuerURL)
	}
	if c.Audience == "" {
		return herr.New(herr.CodeValidationRequired, "auth: audience must not be empty")
	}

	if c.JWKSCacheTTL == 0 {
		c.JWKSCacheTTL = DefaultJWKSCacheTTL
	}
	if c.JWKSCacheTTL < MinJWKSCacheTTL || c.JWKSCacheTTL > MaxJWKSCacheTTL {
		return herr.Newf(herr.CodeValidationRange,
			"auth: JWKS cache TTL %s outside [%s, %s]", c.JWKSCacheTTL, MinJWKSCacheTTL, MaxJWKSCacheTTL)
	}

	if c.Leeway < 0 {
		return herr.New(herr.CodeValidationRange, "auth: leeway must be non-negative")
	}

	if c.MaxTokenLifetime == 0 {
		c.MaxTokenLifetime = DefaultMaxTokenLifetime
	}
	if c.MaxTokenLifetime < MinTokenLifetime || c.MaxTokenLifetime > MaxTokenLifetime {
		return herr.Newf(herr.CodeValidationRange,
			"auth: max token lifetime %s outside [%s, %s]", c.MaxTokenLifetime, MinTokenLifetime, MaxTokenLifetime)
	}

	if c.ClaimsCacheTTL < 0 {
		return herr.New(herr.CodeValidationRange, "auth: claims cache TTL must be non-negative")
	}
	if c.ClaimsCacheMaxSize == 0 {
		c.ClaimsCacheMaxSize = 10000
	}
	if c.ClaimsCacheMaxSize < 0 {
		return herr.New(herr.CodeValidationRange, "auth: claims cache max size must be positive")
	}

	if len(c.TenantClaims) == 0 {
		c.TenantClaims = append([]string(nil), DefaultTenantClaims...)
	}
	for _, claim := range c.TenantClaims {
		if strings.TrimSpace(claim) == "" {
			return herr.New(herr.CodeValidation, "auth: tenant claim names must not be empty")
		}
	}

	if c.TenantIDMinLength == 0 {
		c.TenantIDMinLength = DefaultTenantIDMinLength
	}
	if c.TenantIDMaxLength == 0 {
		c.TenantIDMaxLength = DefaultTenantIDMaxLength
	}
	if c.TenantIDMinLength < 1 || c.TenantIDMaxLength < c.TenantIDMinLength {
		return herr.Newf(herr.CodeValidationRange,
			"auth: tenant ID length bounds [%d, %d] are invalid", c.TenantIDMinLength, c.TenantIDMaxLength)
	}

	return nil
}

// ResolvedJWKSURL returns the JWKS endpoint: the configured override,
// or the conventional well-known path under the issuer.
func (c *Config) ResolvedJWKSURL() string {
	if c.JWKSURL != "" {
		return c.JWKSURL
	}
	return strings.TrimRight(c.IssuerURL, "/") + "/.well-known/jwks.json"
}

// httpClient returns the configured HTTP client or the default.
func (c *Config) httpClient() HTTPClient {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: DefaultHTTPTimeout}
}
