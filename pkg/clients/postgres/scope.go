package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Haventide/haventide-core/pkg/auth"
	herr "github.com/Haventide/haventide-core/pkg/errors"
)

// tenantSettingSQL configures the RLS session variable for the current
// transaction only (set_config with is_local = true). The setting
// vanishes at COMMIT or ROLLBACK, so a pooled connection can never
// carry one request's tenant into the next request.
const tenantSettingSQL = `SELECT set_config('app.current_tenant_id', $1, true)`

// WithTenant runs fn inside a transaction whose row-level security
// context is pinned to tenantID. Every statement fn issues on the
// transaction sees only that tenant's rows, enforced by the database
// rather than by query discipline.
//
// The transaction is committed when fn returns nil and rolled back
// otherwise; fn must not commit or roll back itself. An empty tenantID
// fails closed before any statement runs.
//
// Example:
//
//	err := client.WithTenant(ctx, user.TenantID, func(tx pgx.Tx) error {
//	    rows, err := tx.Query(ctx, "SELECT id, name FROM patients")
//	    ...
//	})
func (c *Client) WithTenant(ctx context.Context, tenantID string, fn func(pgx.Tx) error) error {
	ctx, span := c.tracer.Start(ctx, "postgres.WithTenant",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.name", c.databaseName),
			attribute.String("tenant.id", tenantID),
		),
	)

	if tenantID == "" {
		err := herr.New(herr.CodeAuthorizationTenantMissing,
			"postgres: refusing tenant-scoped access without a tenant ID")
		finishSpan(span, err)
		return err
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		wrapped := wrapError(err, "postgres: begin tenant transaction failed")
		finishSpan(span, wrapped)
		return wrapped
	}
	// Rollback after Commit is a no-op; this covers every early return.
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, tenantSettingSQL, tenantID); err != nil {
		wrapped := wrapError(err, "postgres: setting tenant context failed")
		finishSpan(span, wrapped)
		return wrapped
	}

	if err := fn(tx); err != nil {
		// fn errors pass through untouched; they are the caller's own.
		finishSpan(span, err)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		wrapped := wrapError(err, "postgres: commit tenant transaction failed")
		finishSpan(span, wrapped)
		return wrapped
	}

	finishSpan(span, nil)
	return nil
}

// WithRequestTenant runs fn tenant-scoped to the authenticated user in
// ctx. It is the bridge between the HTTP middleware and the database:
// handlers call it without ever touching a tenant ID by hand.
//
// A context without an authenticated user fails closed with an
// authorization error; data access never falls back to an unscoped
// query.
func (c *Client) WithRequestTenant(ctx context.Context, fn func(pgx.Tx) error) error {
	user, err := auth.MustUserFromContext(ctx)
	if err != nil {
		return err
	}
	return c.WithTenant(ctx, user.TenantID, fn)
}
