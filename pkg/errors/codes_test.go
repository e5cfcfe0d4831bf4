package errors

import (
	"testing"
)

func TestCode_String(t *testing.T) {
	tests := []struct {
		name string
		code Code
		want string
	}{
		{
			name: "validation code",
			code: CodeValidation,
			want: "VAL_001",
		},
		{
			name: "tenant format code",
			code: CodeValidationTenantFormat,
			want: "VAL_005",
		},
		{
			name: "expired token code",
			code: CodeAuthenticationExpired,
			want: "AUTH_002",
		},
		{
			name: "signature code",
			code: CodeAuthenticationSignature,
			want: "AUTH_004",
		},
		{
			name: "tenant missing code",
			code: CodeAuthorizationTenantMissing,
			want: "AUTHZ_002",
		},
		{
			name: "signing key not found code",
			code: CodeNotFoundSigningKey,
			want: "NF_002",
		},
		{
			name: "identity provider unavailable code",
			code: CodeUnavailableIdentityProvider,
			want: "UNAVAIL_003",
		},
		{
			name: "empty code",
			code: Code(""),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.code.String(); got != tt.want {
				t.Errorf("Code.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCode_Category(t *testing.T) {
	tests := []struct {
		name string
		code Code
		want string
	}{
		{
			name: "validation category",
			code: CodeValidation,
			want: "VAL",
		},
		{
			name: "tenant format is validation not authorization",
			code: CodeValidationTenantFormat,
			want: "VAL",
		},
		{
			name: "authentication category",
			code: CodeAuthentication,
			want: "AUTH",
		},
		{
			name: "lifetime exceeded is authentication",
			code: CodeAuthenticationLifetime,
			want: "AUTH",
		},
		{
			name: "tenant missing is authorization not validation",
			code: CodeAuthorizationTenantMissing,
			want: "AUTHZ",
		},
		{
			name: "signing key not found category",
			code: CodeNotFoundSigningKey,
			want: "NF",
		},
		{
			name: "conflict category",
			code: CodeConflict,
			want: "CONF",
		},
		{
			name: "configuration category",
			code: CodeInternalConfiguration,
			want: "INT",
		},
		{
			name: "identity provider category",
			code: CodeUnavailableIdentityProvider,
			want: "UNAVAIL",
		},
		{
			name: "timeout category",
			code: CodeTimeoutDatabase,
			want: "TIMEOUT",
		},
		{
			name: "code without underscore returns entire string",
			code: Code("NOCATEGORY"),
			want: "NOCATEGORY",
		},
		{
			name: "empty code returns empty string",
			code: Code(""),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.code.Category(); got != tt.want {
				t.Errorf("Code.Category() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAllCodesHaveValidFormat(t *testing.T) {
	// Verify all defined codes follow the CATEGORY_XXX format.
	codes := []Code{
		CodeValidation, CodeValidationRequired, CodeValidationFormat,
		CodeValidationRange, CodeValidationTenantFormat,
		CodeAuthentication, CodeAuthenticationExpired, CodeAuthenticationInvalid,
		CodeAuthenticationSignature, CodeAuthenticationLifetime,
		CodeAuthorization, CodeAuthorizationTenantMissing, CodeAuthorizationDenied,
		CodeNotFound, CodeNotFoundSigningKey, CodeNotFoundResource,
		CodeConflict,
		CodeInternal, CodeInternalDatabase, CodeInternalConfiguration,
		CodeUnavailable, CodeUnavailableDependency, CodeUnavailableIdentityProvider,
		CodeTimeout, CodeTimeoutDatabase, CodeTimeoutDependency,
	}

	seen := make(map[Code]bool, len(codes))
	for _, code := range codes {
		t.Run(string(code), func(t *testing.T) {
			if seen[code] {
				t.Errorf("code %v assigned to more than one constant", code)
			}
			seen[code] = true

			if code.String() == "" {
				t.Error("Code.String() returned empty string")
			}

			validCategories := map[string]bool{
				"VAL": true, "AUTH": true, "AUTHZ": true, "NF": true,
				"CONF": true, "INT": true, "UNAVAIL": true, "TIMEOUT": true,
			}
			if cat := code.Category(); !validCategories[cat] {
				t.Errorf("Code.Category() = %v, not a valid category", cat)
			}
		})
	}
}
