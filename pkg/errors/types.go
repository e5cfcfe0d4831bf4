package errors

import (
	"fmt"
	"net/http"
)

// Error is the structured error type used throughout the platform. It
// implements the standard error interface and carries enough context for
// API responses, logging, and programmatic handling.
//
// Error values are treated as immutable after creation; WithDetail and
// WithDetails return copies rather than mutating the receiver.
type Error struct {
	// Code is the stable machine-readable error code (e.g., "AUTH_002").
	Code Code

	// Message is the human-readable error message. It may be returned to
	// API clients, so it must not contain secrets, raw tokens, or
	// internal paths.
	Message string

	// Cause is the underlying error, if any. It is reachable through
	// Unwrap for errors.Is / errors.As chains, but it is never rendered
	// into client-facing responses.
	Cause error

	// Details holds additional structured context, such as the claim
	// name that failed validation or the key ID that was not found.
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, supporting errors.Unwrap,
// errors.Is, and errors.As from the standard library.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the HTTP status code implied by the error's code
// category.
func (e *Error) HTTPStatus() int {
	switch e.Code.Category() {
	case "VAL":
		return http.StatusBadRequest
	case "AUTH":
		return http.StatusUnauthorized
	case "AUTHZ":
		return http.StatusForbidden
	case "NF":
		return http.StatusNotFound
	case "CONF":
		return http.StatusConflict
	case "INT":
		return http.StatusInternalServerError
	case "UNAVAIL":
		return http.StatusServiceUnavailable
	case "TIMEOUT":
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// WithDetails returns a copy of the error with the given details merged
// in. Keys in details override existing keys. The receiver is unchanged.
func (e *Error) WithDetails(details map[string]any) *Error {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Cause:   e.Cause,
		Details: merged,
	}
}

// WithDetail returns a copy of the error with a single detail added.
// The receiver is unchanged.
func (e *Error) WithDetail(key string, value any) *Error {
	merged := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		merged[k] = v
	}
	merged[key] = value
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Cause:   e.Cause,
		Details: merged,
	}
}

// Format implements fmt.Formatter. %v prints the standard error string;
// %+v additionally prints details and the full cause chain.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "Error{Code: %q, Message: %q", e.Code, e.Message)
			if len(e.Details) > 0 {
				fmt.Fprintf(s, ", Details: %v", e.Details)
			}
			if e.Cause != nil {
				fmt.Fprintf(s, ", Cause: %+v", e.Cause)
			}
			fmt.Fprint(s, "}")
			return
		}
		fallthrough
	case 's':
		fmt.Fprint(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}
