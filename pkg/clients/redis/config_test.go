package redis

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ===========================================================================
// DefaultConfig / Validate Tests
// ===========================================================================

func TestDefaultConfig(t *testing.T) {
	t.Parallel()
	cfg := DefaultConfig()

	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultDB, cfg.DB)
	assert.Equal(t, DefaultPoolSize, cfg.PoolSize)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate_AppliesDefaults(t *testing.T) {
	t.Parallel()
	cfg := &Config{}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultPoolSize, cfg.PoolSize)
	assert.Equal(t, DefaultReadTimeout, cfg.ReadTimeout)
}

func TestConfigValidate_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port too large", func(c *Config) { c.Port = 70000 }},
		{"negative pool size", func(c *Config) { c.PoolSize = -1 }},
		{"negative min idle conns", func(c *Config) { c.MinIdleConns = -1 }},
		{"pool smaller than min idle", func(c *Config) { c.PoolSize = 2; c.MinIdleConns = 10 }},
		{"negative dial timeout", func(c *Config) { c.DialTimeout = -time.Second }},
		{"negative read timeout", func(c *Config) { c.ReadTimeout = -time.Second }},
		{"negative write timeout", func(c *Config) { c.WriteTimeout = -time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigValidate_URI(t *testing.T) {
	t.Parallel()

	t.Run("redis scheme accepted", func(t *testing.T) {
		t.Parallel()
		cfg := &Config{URI: "redis://:password@localhost:6379/0"}
		require.NoError(t, cfg.Validate())
		// Pool defaults still apply with URI config.
		assert.Equal(t, DefaultPoolSize, cfg.PoolSize)
	})

	t.Run("rediss scheme accepted", func(t *testing.T) {
		t.Parallel()
		cfg := &Config{URI: "rediss://cache.haventide.internal:6379/1"}
		require.NoError(t, cfg.Validate())
	})

	t.Run("other scheme rejected", func(t *testing.T) {
		t.Parallel()
		cfg := &Config{URI: "http://localhost:6379"}
		assert.Error(t, cfg.Validate())
	})
}

// ===========================================================================
// Secret Tests
// ===========================================================================

func TestSecret_NeverLeaksInOutput(t *testing.T) {
	t.Parallel()
	s := Secret("cache-password")

	assert.Equal(t, redacted, s.String())
	assert.NotContains(t, fmt.Sprintf("%v %s %#v", s, s, s), "cache-password")
	assert.Equal(t, "cache-password", s.Value())

	out, err := json.Marshal(struct {
		Password Secret `json:"password"`
	}{Password: s})
	require.NoError(t, err)
	assert.NotContains(t, string(out), "cache-password")
}

// ===========================================================================
// truncateStatement Tests
// ===========================================================================

func TestTruncateStatement(t *testing.T) {
	t.Parallel()

	short := "GET haventide:identity:abc123"
	assert.Equal(t, short, truncateStatement(short))

	long := "SET " + strings.Repeat("x", 200)
	got := truncateStatement(long)
	assert.Len(t, []rune(got), maxStatementTruncateLen+3)
	assert.True(t, strings.HasSuffix(got, "..."))

	// Rune-aware truncation must not split multi-byte characters.
	unicode := strings.Repeat("ä", maxStatementTruncateLen+10)
	got = truncateStatement(unicode)
	assert.Len(t, []rune(got), maxStatementTruncateLen+3)
}
