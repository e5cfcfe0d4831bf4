package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haventide/haventide-core/pkg/auth"
)

// logLine decodes the single JSON record written to buf.
func logLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func TestContextHandler_EnrichesFromContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(slog.LevelInfo, &buf)

	ctx := auth.ContextWithRequestID(context.Background(), "req-1")
	ctx = auth.ContextWithUser(ctx, auth.NewUserContext("user-1", "clinic-a", nil))

	logger.InfoContext(ctx, "patient record updated", "record_id", "rec-9")

	m := logLine(t, &buf)
	assert.Equal(t, "patient record updated", m["msg"])
	assert.Equal(t, "req-1", m["request_id"])
	assert.Equal(t, "user-1", m["user_id"])
	assert.Equal(t, "clinic-a", m["tenant_id"])
	assert.Equal(t, "rec-9", m["record_id"])
}

func TestContextHandler_BareContextPassesThrough(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(slog.LevelInfo, &buf)

	logger.InfoContext(context.Background(), "jwks refreshed")

	m := logLine(t, &buf)
	assert.NotContains(t, m, "request_id")
	assert.NotContains(t, m, "user_id")
	assert.NotContains(t, m, "tenant_id")
}

func TestContextHandler_RespectsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(slog.LevelWarn, &buf)

	logger.Info("below threshold")
	assert.Zero(t, buf.Len())

	logger.Warn("at threshold")
	assert.NotZero(t, buf.Len())
}

func TestContextHandler_WithAttrsAndGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(slog.LevelInfo, &buf).With("service", "haventide-api")

	ctx := auth.ContextWithRequestID(context.Background(), "req-2")
	logger.InfoContext(ctx, "started")

	m := logLine(t, &buf)
	assert.Equal(t, "haventide-api", m["service"])
	assert.Equal(t, "req-2", m["request_id"], "enrichment survives With")
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{" Error ", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "level %q", tt.in)
	}
}
