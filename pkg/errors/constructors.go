package errors

import (
	"errors"
	"fmt"
)

// New creates a new Error with the given code and message.
//
// Example:
//
//	err := errors.New(errors.CodeAuthenticationInvalid, "token header missing kid")
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with a formatted message.
//
// Example:
//
//	err := errors.Newf(errors.CodeNotFoundSigningKey, "signing key %q not found", kid)
func Newf(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with a code and message. The wrapped
// error becomes the Cause. Returns nil if err is nil.
//
// Example:
//
//	if err := tx.Commit(ctx); err != nil {
//	    return errors.Wrap(err, errors.CodeInternalDatabase, "commit failed")
//	}
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with a formatted message. Returns nil
// if err is nil.
//
// Example:
//
//	err := errors.Wrapf(err, errors.CodeUnavailableIdentityProvider,
//	    "fetching JWKS from %s", url)
func Wrapf(err error, code Code, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// Validation creates a general validation error (VAL_001).
func Validation(message string) *Error {
	return New(CodeValidation, message)
}

// Validationf creates a general validation error with a formatted message.
//
// Example:
//
//	err := errors.Validationf("tenant ID must be %d-%d characters", min, max)
func Validationf(format string, args ...any) *Error {
	return Newf(CodeValidation, format, args...)
}

// NotFound creates a general not found error (NF_001).
func NotFound(message string) *Error {
	return New(CodeNotFound, message)
}

// NotFoundf creates a general not found error with a formatted message.
func NotFoundf(format string, args ...any) *Error {
	return Newf(CodeNotFound, format, args...)
}

// Unauthorized creates a general authentication error (AUTH_001). Use
// this when credentials are missing or cannot be classified further.
func Unauthorized(message string) *Error {
	return New(CodeAuthentication, message)
}

// Forbidden creates a general authorization error (AUTHZ_001). Use this
// when an authenticated caller may not perform the requested action.
func Forbidden(message string) *Error {
	return New(CodeAuthorization, message)
}

// Conflict creates a conflict error (CONF_001).
func Conflict(message string) *Error {
	return New(CodeConflict, message)
}

// Internal creates a general internal error (INT_001). The message is
// client-visible, so keep internal detail in the cause instead.
func Internal(message string) *Error {
	return New(CodeInternal, message)
}

// Internalf creates a general internal error with a formatted message.
func Internalf(format string, args ...any) *Error {
	return Newf(CodeInternal, format, args...)
}

// Unavailable creates a service unavailable error (UNAVAIL_001).
func Unavailable(message string) *Error {
	return New(CodeUnavailable, message)
}

// Timeout creates a timeout error (TIMEOUT_001).
func Timeout(message string) *Error {
	return New(CodeTimeout, message)
}

// FromError converts any error to an *Error. If err already is (or
// wraps) an *Error, that error is returned unchanged; anything else is
// wrapped as an internal error so that no foreign error type reaches an
// API response.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return Wrap(err, CodeInternal, "an unexpected error occurred")
}
