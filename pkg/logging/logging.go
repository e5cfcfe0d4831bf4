// Package logging configures structured JSON logging for Haventide
// services using log/slog. Its [ContextHandler] enriches every record
// with the request-scoped identifiers carried in the context (request
// ID, user ID, tenant ID), so any log line emitted while serving a
// request is correlatable without handlers threading those fields
// through every call site.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Haventide/haventide-core/pkg/auth"
)

// ContextHandler wraps a slog.Handler and appends request-scoped
// attributes from the context to every record. Records logged outside a
// request (startup, background refresh) pass through unchanged.
type ContextHandler struct {
	inner slog.Handler
}

// NewContextHandler wraps inner with request-context enrichment.
func NewContextHandler(inner slog.Handler) *ContextHandler {
	return &ContextHandler{inner: inner}
}

// Enabled implements slog.Handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler, adding request_id, user_id, and
// tenant_id attributes when the context carries them.
func (h *ContextHandler) Handle(ctx context.Context, rec slog.Record) error {
	if reqID, ok := auth.RequestIDFromContext(ctx); ok {
		rec.AddAttrs(slog.String("request_id", reqID))
	}
	if user, ok := auth.UserFromContext(ctx); ok {
		rec.AddAttrs(
			slog.String("user_id", user.UserID),
			slog.String("tenant_id", user.TenantID),
		)
	}
	return h.inner.Handle(ctx, rec)
}

// WithAttrs implements slog.Handler.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs)}
}

// WithGroup implements slog.Handler.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{inner: h.inner.WithGroup(name)}
}

// ParseLevel converts a level name ("debug", "info", "warn", "error",
// case-insensitive) to a slog.Level. Unknown names fall back to Info,
// matching the behavior of misconfigured-but-running log pipelines
// rather than failing startup over a log level.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a JSON logger at the given level writing to w, with
// context enrichment installed. Pass nil for w to log to stdout.
func New(level slog.Level, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	inner := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(NewContextHandler(inner))
}

// Setup builds a JSON logger from a level name, installs it as the
// process default via slog.SetDefault, and returns it. Intended for
// use in func main.
func Setup(levelName string) *slog.Logger {
	logger := New(ParseLevel(levelName), os.Stdout)
	slog.SetDefault(logger)
	return logger
}
