package errors

// Code is a stable, machine-readable error code. Codes follow the pattern
// CATEGORY_XXX where CATEGORY is a short class identifier (AUTH, AUTHZ,
// VAL, ...) and XXX is a three-digit sequence number within the class.
//
// Codes are part of the platform's public API contract:
//   - They never change once assigned; clients may branch on them.
//   - Each distinct failure condition gets its own code so that, for
//     example, an expired token and a bad signature are distinguishable
//     without parsing error messages.
//   - They are safe to return to API clients; messages may be redacted
//     in production but codes never are.
type Code string

// Code classes and the HTTP status each maps to:
//
//	VAL_xxx     - Validation failures            (400 Bad Request)
//	AUTH_xxx    - Authentication failures        (401 Unauthorized)
//	AUTHZ_xxx   - Authorization failures         (403 Forbidden)
//	NF_xxx      - Missing resources              (404 Not Found)
//	CONF_xxx    - State conflicts                (409 Conflict)
//	INT_xxx     - Internal failures              (500 Internal Server Error)
//	UNAVAIL_xxx - Dependencies unreachable       (503 Service Unavailable)
//	TIMEOUT_xxx - Deadline exceeded              (504 Gateway Timeout)
const (
	// Validation errors (VAL_xxx) - HTTP 400

	// CodeValidation indicates a general validation failure.
	CodeValidation Code = "VAL_001"

	// CodeValidationRequired indicates a required field is missing.
	CodeValidationRequired Code = "VAL_002"

	// CodeValidationFormat indicates a field has an invalid format.
	CodeValidationFormat Code = "VAL_003"

	// CodeValidationRange indicates a value is outside its permitted range.
	CodeValidationRange Code = "VAL_004"

	// CodeValidationTenantFormat indicates a tenant identifier claim was
	// present but does not satisfy the tenant ID format rules (type,
	// length, or character set).
	CodeValidationTenantFormat Code = "VAL_005"

	// Authentication errors (AUTH_xxx) - HTTP 401

	// CodeAuthentication indicates a general authentication failure.
	CodeAuthentication Code = "AUTH_001"

	// CodeAuthenticationExpired indicates the access token has expired.
	CodeAuthenticationExpired Code = "AUTH_002"

	// CodeAuthenticationInvalid indicates the token is malformed or its
	// claims (issuer, audience, iat, missing kid) failed verification.
	CodeAuthenticationInvalid Code = "AUTH_003"

	// CodeAuthenticationSignature indicates the token signature could not
	// be verified, including the case where no signing key was available.
	CodeAuthenticationSignature Code = "AUTH_004"

	// CodeAuthenticationLifetime indicates the token's issued-at to
	// expiry window exceeds the maximum lifetime the platform accepts,
	// regardless of what the issuer granted.
	CodeAuthenticationLifetime Code = "AUTH_005"

	// Authorization errors (AUTHZ_xxx) - HTTP 403

	// CodeAuthorization indicates a general authorization failure.
	CodeAuthorization Code = "AUTHZ_001"

	// CodeAuthorizationTenantMissing indicates an authenticated token
	// carried no usable tenant identifier claim. The caller proved who
	// they are but not which tenant they belong to, so no tenant-scoped
	// resource may be touched.
	CodeAuthorizationTenantMissing Code = "AUTHZ_002"

	// CodeAuthorizationDenied indicates access to a resource is denied.
	CodeAuthorizationDenied Code = "AUTHZ_003"

	// Not found errors (NF_xxx) - HTTP 404

	// CodeNotFound indicates a general not found error.
	CodeNotFound Code = "NF_001"

	// CodeNotFoundSigningKey indicates the key ID referenced by a token
	// header is not present in the identity provider's published key set,
	// even after a refresh.
	CodeNotFoundSigningKey Code = "NF_002"

	// CodeNotFoundResource indicates the requested resource was not found.
	CodeNotFoundResource Code = "NF_003"

	// Conflict errors (CONF_xxx) - HTTP 409

	// CodeConflict indicates an operation conflicts with current state.
	CodeConflict Code = "CONF_001"

	// Internal errors (INT_xxx) - HTTP 500

	// CodeInternal indicates a general internal error.
	CodeInternal Code = "INT_001"

	// CodeInternalDatabase indicates a database operation failed.
	CodeInternalDatabase Code = "INT_002"

	// CodeInternalConfiguration indicates the service configuration is
	// invalid or could not be loaded. Raised at startup, never per-request.
	CodeInternalConfiguration Code = "INT_003"

	// Unavailable errors (UNAVAIL_xxx) - HTTP 503

	// CodeUnavailable indicates a general service unavailable error.
	CodeUnavailable Code = "UNAVAIL_001"

	// CodeUnavailableDependency indicates a dependent service is
	// unreachable (database, cache).
	CodeUnavailableDependency Code = "UNAVAIL_002"

	// CodeUnavailableIdentityProvider indicates the identity provider's
	// JWKS endpoint could not be reached or returned an unusable
	// response, and no cached key material was available.
	CodeUnavailableIdentityProvider Code = "UNAVAIL_003"

	// Timeout errors (TIMEOUT_xxx) - HTTP 504

	// CodeTimeout indicates a general timeout error.
	CodeTimeout Code = "TIMEOUT_001"

	// CodeTimeoutDatabase indicates a database operation timed out.
	CodeTimeoutDatabase Code = "TIMEOUT_002"

	// CodeTimeoutDependency indicates a dependent service call timed out.
	CodeTimeoutDependency Code = "TIMEOUT_003"
)

// String returns the string representation of the error code.
func (c Code) String() string {
	return string(c)
}

// Category returns the class prefix of the error code (e.g., "VAL", "AUTH").
func (c Code) Category() string {
	s := string(c)
	for i, r := range s {
		if r == '_' {
			return s[:i]
		}
	}
	return s
}
