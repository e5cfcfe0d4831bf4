package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	herr "github.com/Haventide/haventide-core/pkg/errors"
)

// authTestConfig mirrors the shape of the auth edge configuration:
// issuer and audience are required, durations have defaults, and the
// tenant claim list is a comma-separated string slice.
type authTestConfig struct {
	IssuerURL    string        `env:"ISSUER_URL" yaml:"issuer_url" required:"true"`
	Audience     string        `env:"AUDIENCE" yaml:"audience" required:"true"`
	JWKSTTL      time.Duration `env:"JWKS_TTL" envDefault:"1h" yaml:"jwks_ttl"`
	Leeway       time.Duration `env:"LEEWAY" envDefault:"60s" yaml:"leeway"`
	Debug        bool          `env:"DEBUG" envDefault:"false" yaml:"debug"`
	MaxCacheSize int           `env:"MAX_CACHE_SIZE" envDefault:"10000" yaml:"max_cache_size"`
	TenantClaims []string      `env:"TENANT_CLAIMS" envDefault:"tenant_id,organization_id" yaml:"tenant_claims"`
}

func TestLoad_DefaultsApplied(t *testing.T) {
	t.Setenv("ISSUER_URL", "https://idp.example.com")
	t.Setenv("AUDIENCE", "haventide-api")

	var cfg authTestConfig
	require.NoError(t, New().Load(&cfg))

	assert.Equal(t, time.Hour, cfg.JWKSTTL)
	assert.Equal(t, 60*time.Second, cfg.Leeway)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 10000, cfg.MaxCacheSize)
	assert.Equal(t, []string{"tenant_id", "organization_id"}, cfg.TenantClaims)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("ISSUER_URL", "https://idp.example.com")
	t.Setenv("AUDIENCE", "haventide-api")
	t.Setenv("JWKS_TTL", "30m")
	t.Setenv("MAX_CACHE_SIZE", "500")
	t.Setenv("TENANT_CLAIMS", "org_id, custom:tenant_id")

	var cfg authTestConfig
	require.NoError(t, New().Load(&cfg))

	assert.Equal(t, 30*time.Minute, cfg.JWKSTTL)
	assert.Equal(t, 500, cfg.MaxCacheSize)
	// Whitespace around entries is trimmed.
	assert.Equal(t, []string{"org_id", "custom:tenant_id"}, cfg.TenantClaims)
}

func TestLoad_EnvPrefix(t *testing.T) {
	t.Setenv("HAVENTIDE_ISSUER_URL", "https://idp.example.com")
	t.Setenv("HAVENTIDE_AUDIENCE", "haventide-api")
	// Unprefixed variable must be ignored when a prefix is configured.
	t.Setenv("AUDIENCE", "wrong-audience")

	var cfg authTestConfig
	require.NoError(t, New().WithEnvPrefix("haventide").Load(&cfg))

	assert.Equal(t, "haventide-api", cfg.Audience)
}

func TestLoad_FileThenEnvPriority(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"issuer_url: https://file-idp.example.com\naudience: file-audience\njwks_ttl: 2h\n",
	), 0o600))

	// Env beats file; file beats envDefault.
	t.Setenv("AUDIENCE", "env-audience")

	var cfg authTestConfig
	require.NoError(t, New().WithFile(path).Load(&cfg))

	assert.Equal(t, "https://file-idp.example.com", cfg.IssuerURL)
	assert.Equal(t, "env-audience", cfg.Audience)
	assert.Equal(t, 2*time.Hour, cfg.JWKSTTL)
}

func TestLoad_MissingFileIgnored(t *testing.T) {
	t.Setenv("ISSUER_URL", "https://idp.example.com")
	t.Setenv("AUDIENCE", "haventide-api")

	var cfg authTestConfig
	assert.NoError(t, New().WithFile("/nonexistent/config.yaml").Load(&cfg))
}

func TestLoad_TraversalPathRejected(t *testing.T) {
	var cfg authTestConfig
	err := New().WithFile("../../etc/passwd.yaml").Load(&cfg)
	require.Error(t, err)
	assert.Equal(t, herr.CodeInternalConfiguration, herr.GetCode(err))
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o600))

	var cfg authTestConfig
	err := New().WithFile(path).Load(&cfg)
	require.Error(t, err)
	assert.Equal(t, herr.CodeInternalConfiguration, herr.GetCode(err))
}

func TestLoad_RequiredFieldMissing(t *testing.T) {
	t.Setenv("ISSUER_URL", "https://idp.example.com")
	// AUDIENCE deliberately unset.

	var cfg authTestConfig
	err := New().Load(&cfg)
	require.Error(t, err)
	assert.Equal(t, herr.CodeValidationRequired, herr.GetCode(err))
	assert.Contains(t, err.Error(), "Audience")
}

func TestLoad_NonPointerRejected(t *testing.T) {
	var cfg authTestConfig
	err := New().Load(cfg)
	require.Error(t, err)
	assert.Equal(t, herr.CodeInternalConfiguration, herr.GetCode(err))
}

func TestLoad_NilPointerRejected(t *testing.T) {
	err := New().Load((*authTestConfig)(nil))
	require.Error(t, err)
	assert.Equal(t, herr.CodeInternalConfiguration, herr.GetCode(err))
}

// boundedConfig exercises the Validator hook with a range check, the
// same pattern the auth package uses for token lifetime bounds.
type boundedConfig struct {
	MaxLifetime time.Duration `env:"MAX_LIFETIME" envDefault:"1h"`
}

func (c *boundedConfig) Validate() error {
	if c.MaxLifetime < time.Minute || c.MaxLifetime > 24*time.Hour {
		return herr.Newf(herr.CodeValidationRange,
			"config: max lifetime %s outside [1m, 24h]", c.MaxLifetime)
	}
	return nil
}

func TestLoad_ValidatorHook(t *testing.T) {
	t.Run("within bounds passes", func(t *testing.T) {
		t.Setenv("MAX_LIFETIME", "30m")
		var cfg boundedConfig
		assert.NoError(t, New().Load(&cfg))
	})

	t.Run("below lower bound fails startup", func(t *testing.T) {
		t.Setenv("MAX_LIFETIME", "10s")
		var cfg boundedConfig
		err := New().Load(&cfg)
		require.Error(t, err)
		assert.Equal(t, herr.CodeValidationRange, herr.GetCode(err))
	})

	t.Run("above upper bound fails startup", func(t *testing.T) {
		t.Setenv("MAX_LIFETIME", "48h")
		var cfg boundedConfig
		err := New().Load(&cfg)
		require.Error(t, err)
		assert.Equal(t, herr.CodeValidationRange, herr.GetCode(err))
	})
}

// nestedConfig exercises env prefix accumulation through nested structs.
type nestedConfig struct {
	Auth struct {
		IssuerURL string `env:"ISSUER_URL" yaml:"issuer_url"`
	} `env:"AUTH" yaml:"auth"`
}

func TestLoad_NestedStructPrefix(t *testing.T) {
	t.Setenv("APP_AUTH_ISSUER_URL", "https://nested.example.com")

	var cfg nestedConfig
	require.NoError(t, New().WithEnvPrefix("APP").Load(&cfg))
	assert.Equal(t, "https://nested.example.com", cfg.Auth.IssuerURL)
}

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	// Required fields unset: MustLoad must panic, preventing startup.
	assert.Panics(t, func() {
		MustLoad[authTestConfig](New())
	})
}

func TestMustLoad_ReturnsPopulatedConfig(t *testing.T) {
	t.Setenv("ISSUER_URL", "https://idp.example.com")
	t.Setenv("AUDIENCE", "haventide-api")

	cfg := MustLoad[authTestConfig](New())
	assert.Equal(t, "https://idp.example.com", cfg.IssuerURL)
}
