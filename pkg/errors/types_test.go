package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "error without cause",
			err: &Error{
				Code:    CodeAuthenticationExpired,
				Message: "access token has expired",
			},
			want: "AUTH_002: access token has expired",
		},
		{
			name: "error with cause",
			err: &Error{
				Code:    CodeUnavailableIdentityProvider,
				Message: "JWKS fetch failed",
				Cause:   errors.New("connection refused"),
			},
			want: "UNAVAIL_003: JWKS fetch failed: connection refused",
		},
		{
			name: "error with empty message",
			err: &Error{
				Code: CodeInternal,
			},
			want: "INT_001: ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: i/o timeout")
	err := Wrap(cause, CodeUnavailableIdentityProvider, "JWKS endpoint unreachable")

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestError_Unwrap_NoCause(t *testing.T) {
	t.Parallel()

	err := New(CodeAuthorizationTenantMissing, "no tenant claim in token")
	assert.Nil(t, err.Unwrap())
}

func TestError_HTTPStatus(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		code Code
		want int
	}{
		{"validation maps to 400", CodeValidation, http.StatusBadRequest},
		{"tenant format maps to 400", CodeValidationTenantFormat, http.StatusBadRequest},
		{"expired token maps to 401", CodeAuthenticationExpired, http.StatusUnauthorized},
		{"bad signature maps to 401", CodeAuthenticationSignature, http.StatusUnauthorized},
		{"lifetime exceeded maps to 401", CodeAuthenticationLifetime, http.StatusUnauthorized},
		{"tenant missing maps to 403", CodeAuthorizationTenantMissing, http.StatusForbidden},
		{"not found maps to 404", CodeNotFoundSigningKey, http.StatusNotFound},
		{"conflict maps to 409", CodeConflict, http.StatusConflict},
		{"internal maps to 500", CodeInternalConfiguration, http.StatusInternalServerError},
		{"idp unavailable maps to 503", CodeUnavailableIdentityProvider, http.StatusServiceUnavailable},
		{"timeout maps to 504", CodeTimeoutDatabase, http.StatusGatewayTimeout},
		{"unknown category maps to 500", Code("MYSTERY_001"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := New(tt.code, "test")
			assert.Equal(t, tt.want, err.HTTPStatus())
		})
	}
}

func TestError_WithDetail(t *testing.T) {
	t.Parallel()

	orig := New(CodeNotFoundSigningKey, "signing key not found")
	withKid := orig.WithDetail("kid", "key-2024-01")

	require.NotNil(t, withKid.Details)
	assert.Equal(t, "key-2024-01", withKid.Details["kid"])

	// The original is unchanged.
	assert.Nil(t, orig.Details)
	assert.Equal(t, orig.Code, withKid.Code)
	assert.Equal(t, orig.Message, withKid.Message)
}

func TestError_WithDetails_MergesAndOverrides(t *testing.T) {
	t.Parallel()

	base := New(CodeValidationTenantFormat, "tenant ID format invalid").
		WithDetail("claim", "tenant_id").
		WithDetail("length", 2)

	merged := base.WithDetails(map[string]any{
		"length":  200,
		"pattern": "^[a-zA-Z0-9_-]+$",
	})

	assert.Equal(t, "tenant_id", merged.Details["claim"])
	assert.Equal(t, 200, merged.Details["length"])
	assert.Equal(t, "^[a-zA-Z0-9_-]+$", merged.Details["pattern"])

	// Base keeps its original values.
	assert.Equal(t, 2, base.Details["length"])
	assert.NotContains(t, base.Details, "pattern")
}

func TestError_Format(t *testing.T) {
	t.Parallel()

	err := Wrap(errors.New("boom"), CodeInternal, "unexpected failure").
		WithDetail("component", "validator")

	plain := fmt.Sprintf("%v", err)
	assert.Equal(t, "INT_001: unexpected failure: boom", plain)

	quoted := fmt.Sprintf("%q", err)
	assert.Equal(t, `"INT_001: unexpected failure: boom"`, quoted)

	verbose := fmt.Sprintf("%+v", err)
	assert.Contains(t, verbose, `Code: "INT_001"`)
	assert.Contains(t, verbose, "component")
	assert.Contains(t, verbose, "boom")
}
