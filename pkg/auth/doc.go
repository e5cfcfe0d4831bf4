// Package auth is the authentication and tenant-scoping edge of the
// Haventide platform. It validates RS256 access tokens issued by the
// configured identity provider, keeps the provider's JWKS cached and
// fresh, extracts and validates the tenant identifier from token
// claims, and carries the resulting identity through the request
// context so every downstream data access can be scoped to the
// caller's tenant.
//
// The pieces compose in a fixed order at the HTTP boundary:
//
//	cfg := auth.DefaultConfig()
//	cfg.IssuerURL = "https://idp.example.com"
//	cfg.Audience = "haventide-api"
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
//	keys := auth.NewKeySetCache(cfg)
//	if err := keys.Start(ctx); err != nil {
//	    slog.Warn("starting with cold JWKS cache", "error", err)
//	}
//	defer keys.Stop()
//
//	validator := auth.NewValidator(cfg, keys,
//	    auth.NewMemoryIdentityCache(cfg.ClaimsCacheTTL, cfg.ClaimsCacheMaxSize))
//	extractor := auth.NewTenantExtractor(cfg)
//
//	handler := auth.RequestIDMiddleware(
//	    auth.LoggingMiddleware(
//	        auth.Authenticate(validator, extractor, false)(mux)))
//
// Handlers behind the chain read the caller's identity with
// [UserFromContext]; database access uses the tenant ID to scope
// queries through row-level security (see pkg/clients/postgres).
package auth
