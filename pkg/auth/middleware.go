package auth

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	herr "github.com/Haventide/haventide-core/pkg/errors"
)

// HTTP header names used by the middleware chain.
const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"

	bearerPrefix = "Bearer "
)

// ExtractBearerToken returns the token from an Authorization header
// value, or "" when the header is absent or not a bearer scheme. The
// scheme comparison is case-insensitive per RFC 9110.
func ExtractBearerToken(header string) string {
	if len(header) <= len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

// RequestIDMiddleware assigns each request an ID, stores it in the
// context, and echoes it in the X-Request-ID response header. An ID
// supplied by the caller is reused so request IDs stay stable across
// service hops; callers are trusted here because the ID is only a
// correlation handle, never an authorization input.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := ContextWithRequestID(r.Context(), requestID)
		w.Header().Set(HeaderRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder captures the status code written by downstream
// handlers for access logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware emits one structured access log line per request.
// The Authorization header is never logged. Request-scoped identifiers
// (request ID, user, tenant) are added by the logging package's context
// handler rather than here.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		ctx := r.Context()
		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
		}
		if traceID := TraceIDFromContext(ctx); traceID != "" {
			attrs = append(attrs, "trace_id", traceID)
		}
		slog.InfoContext(ctx, "http request", attrs...)
	})
}

// Authenticate returns middleware that validates the bearer token,
// extracts the tenant, and stores the resulting [UserContext] in the
// request context. Requests that fail any step are answered with the
// platform JSON error body and never reach the next handler.
//
// exposeDetail controls whether error causes are included in response
// bodies; keep it off outside development, since validation causes can
// describe token internals.
//
// Example:
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/api/patients", handlePatients)
//	handler := auth.RequestIDMiddleware(
//	    auth.LoggingMiddleware(
//	        auth.Authenticate(validator, extractor, false)(mux)))
func Authenticate(validator TokenValidator, extractor *TenantExtractor, exposeDetail bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID, _ := RequestIDFromContext(ctx)

			token := ExtractBearerToken(r.Header.Get(HeaderAuthorization))
			if token == "" {
				err := herr.New(herr.CodeAuthentication, "auth: missing bearer token")
				herr.WriteHTTP(w, err, requestID, exposeDetail)
				return
			}

			claims, err := validator.ValidateToken(ctx, token)
			if err != nil {
				slog.WarnContext(ctx, "token validation failed",
					"error", err, "path", r.URL.Path)
				herr.WriteHTTP(w, err, requestID, exposeDetail)
				return
			}

			if claims.Subject == "" {
				err := herr.New(herr.CodeAuthenticationInvalid, "auth: token has no subject")
				herr.WriteHTTP(w, err, requestID, exposeDetail)
				return
			}

			tenantID, err := extractor.Extract(claims)
			if err != nil {
				slog.WarnContext(ctx, "tenant extraction failed",
					"error", err, "user_id", claims.Subject, "path", r.URL.Path)
				herr.WriteHTTP(w, err, requestID, exposeDetail)
				return
			}

			ctx = ContextWithUser(ctx, NewUserContext(claims.Subject, tenantID, claims))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
