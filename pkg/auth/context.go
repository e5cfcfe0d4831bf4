package auth

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	herr "github.com/Haventide/haventide-core/pkg/errors"
)

// contextKey is an unexported type for context keys defined by this
// package, so values stored here cannot collide with keys from other
// packages.
type contextKey int

const (
	requestIDKey contextKey = iota
	userKey
)

// ContextWithRequestID returns a copy of ctx carrying the request ID.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request ID carried by ctx, if any.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok && id != ""
}

// ContextWithUser returns a copy of ctx carrying the authenticated
// user. Only the authentication middleware should call this; anything
// downstream that finds a UserContext in its context may treat it as a
// verified identity.
func ContextWithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the authenticated user carried by ctx, if
// any. Handlers behind the authentication middleware can rely on ok
// being true.
func UserFromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userKey).(*UserContext)
	return user, ok && user != nil
}

// MustUserFromContext returns the authenticated user or an AUTHZ error
// when the context carries none. Use it at boundaries that fail closed,
// such as tenant-scoped database access.
func MustUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return nil, herr.New(herr.CodeAuthorizationTenantMissing,
			"auth: no authenticated user in request context")
	}
	return user, nil
}

// TenantIDFromContext returns the tenant ID of the authenticated user
// carried by ctx, if any.
func TenantIDFromContext(ctx context.Context) (string, bool) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return "", false
	}
	return user.TenantID, user.TenantID != ""
}

// TraceIDFromContext returns the OpenTelemetry trace ID for the current
// span, or "" when the context carries no recording span.
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// SpanIDFromContext returns the OpenTelemetry span ID for the current
// span, or "" when the context carries no recording span.
func SpanIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasSpanID() {
		return ""
	}
	return sc.SpanID().String()
}
