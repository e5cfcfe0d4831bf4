package auth

import "net/http"

// RequestIDRoundTripper wraps an [http.RoundTripper] to propagate the
// request ID from the request context to outgoing HTTP calls, so a
// request can be traced across service hops.
//
// Example:
//
//	client := &http.Client{
//	    Transport: auth.NewRequestIDRoundTripper(http.DefaultTransport),
//	}
//	resp, err := client.Do(req.WithContext(ctx))
type RequestIDRoundTripper struct {
	wrapped http.RoundTripper
}

// NewRequestIDRoundTripper wraps the given transport. If transport is
// nil, [http.DefaultTransport] is used.
func NewRequestIDRoundTripper(transport http.RoundTripper) *RequestIDRoundTripper {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &RequestIDRoundTripper{wrapped: transport}
}

// RoundTrip executes the request with the X-Request-ID header injected
// from the context. Requests without a request ID pass through
// unmodified. An existing header set by the caller wins.
//
// RoundTrip implements the [http.RoundTripper] interface.
func (t *RequestIDRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	requestID, ok := RequestIDFromContext(r.Context())
	if !ok || r.Header.Get(HeaderRequestID) != "" {
		return t.wrapped.RoundTrip(r)
	}

	// Clone to avoid mutating the caller's request.
	clone := r.Clone(r.Context())
	clone.Header.Set(HeaderRequestID, requestID)
	return t.wrapped.RoundTrip(clone)
}
