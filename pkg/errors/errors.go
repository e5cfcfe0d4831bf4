// Package errors provides the structured error type and error codes used
// across the Haventide Care Platform. Every error that crosses a package
// boundary in this module is a [*Error] carrying a stable [Code], a
// human-readable message, and optionally the underlying cause and
// structured details.
//
// # Why structured errors
//
// The authentication edge must distinguish failure classes precisely: an
// expired token (client should refresh), a bad signature (client should
// re-authenticate), a missing tenant claim (token is fine but unusable),
// and an unreachable identity provider (retry later) all demand different
// responses. Error codes make those distinctions machine-checkable
// without string matching, and they survive wrapping.
//
// # Usage
//
// Create and wrap:
//
//	err := errors.New(errors.CodeAuthenticationExpired, "access token has expired")
//	err = errors.Wrap(fetchErr, errors.CodeUnavailableIdentityProvider,
//	    "JWKS endpoint unreachable")
//
// Inspect:
//
//	if errors.HasCode(err, errors.CodeNotFoundSigningKey) {
//	    // trigger a key set refresh
//	}
//	if errors.IsAuthentication(err) {
//	    // respond 401 with WWW-Authenticate: Bearer
//	}
//
// Render to an HTTP response:
//
//	errors.WriteHTTP(w, err, requestID, includeDetail)
package errors
