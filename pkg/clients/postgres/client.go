// Package postgres provides the PostgreSQL client for Haventide
// services: connection pooling via pgxpool, OpenTelemetry tracing, the
// platform error taxonomy, and tenant-scoped data access.
//
// # Tenant scoping
//
// Haventide stores every tenant's data in shared tables protected by
// PostgreSQL row-level security. RLS policies filter rows on the
// app.current_tenant_id session setting, so a query can only ever see
// rows belonging to the tenant the connection is configured for.
// [Client.WithTenant] is the only supported way to run tenant-scoped
// statements: it opens a transaction, sets app.current_tenant_id for
// exactly that transaction, and guarantees the setting never leaks to
// the next pooled connection user. See scope.go.
//
// # Connection management
//
// pgxpool manages a pool of persistent connections and replaces failed
// ones on its own; callers do not implement connection-level retries.
//
// # Configuration
//
//	cfg := postgres.DefaultConfig()
//	cfg.Password = postgres.Secret(os.Getenv("POSTGRES_PASSWORD"))
//	client, err := postgres.NewClient(ctx, *cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
// For unit tests, inject a mock pool with [NewFromPool]:
//
//	mock, _ := pgxmock.NewPool()
//	client := postgres.NewFromPool(mock, nil)
//
// # Tracing
//
// Every operation creates an OpenTelemetry client span with the
// standard database semantic attributes. Statements recorded on spans
// are truncated so patient data in literals cannot leak into the
// telemetry pipeline.
package postgres

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	herr "github.com/Haventide/haventide-core/pkg/errors"
)

// tracerName is the OpenTelemetry instrumentation scope name for this package.
const tracerName = "github.com/Haventide/haventide-core/pkg/clients/postgres"

// Pool is the connection pool surface the client depends on. It is
// satisfied by [*pgxpool.Pool] and by pgxmock, which is what makes
// [NewFromPool] usable in unit tests. Method signatures follow the pgx
// v5 API exactly so *pgxpool.Pool needs no adaptation.
type Pool interface {
	// Query executes a SQL query that returns rows.
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)

	// QueryRow executes a SQL query that returns at most one row.
	// Errors are deferred until the returned pgx.Row is scanned.
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row

	// Exec executes a SQL statement that does not return rows.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// Begin starts a new database transaction.
	Begin(ctx context.Context) (pgx.Tx, error)

	// Ping verifies the connection to the database is alive.
	Ping(ctx context.Context) error

	// Close releases all pool resources.
	Close()
}

// Compile-time check that *pgxpool.Pool satisfies Pool.
var _ Pool = (*pgxpool.Pool)(nil)

// Client is the PostgreSQL client. It wraps a [Pool] and adds tracing,
// error classification, and tenant scoping to every operation.
//
// A Client is safe for concurrent use by multiple goroutines; create
// one per database and share it.
type Client struct {
	pool         Pool
	config       *Config
	tracer       trace.Tracer
	databaseName string
}

// NewClient creates a client with a fresh connection pool. It validates
// the configuration, configures TLS when a custom CA is given, and
// verifies connectivity with a ping before returning.
//
// The caller must call [Client.Close] when done.
//
// Error codes returned:
//   - [herr.CodeValidation]: invalid configuration
//   - [herr.CodeInternalConfiguration]: TLS setup failure
//   - [herr.CodeUnavailableDependency]: cannot reach the database
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, herr.Wrap(err, herr.CodeValidation,
			"postgres: invalid configuration")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, herr.Wrap(err, herr.CodeValidation,
			"postgres: failed to parse connection string")
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod

	tlsCfg, err := cfg.tlsConfig()
	if err != nil {
		return nil, herr.Wrap(err, herr.CodeInternalConfiguration,
			"postgres: failed to configure TLS")
	}
	if tlsCfg != nil {
		poolCfg.ConnConfig.TLSConfig = tlsCfg
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, herr.Wrap(err, herr.CodeUnavailableDependency,
			"postgres: failed to create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, herr.Wrap(err, herr.CodeUnavailableDependency,
			"postgres: failed to connect to database")
	}

	// Database name for span attributes.
	dbName := cfg.Database
	if cfg.URI != "" {
		if u, parseErr := url.Parse(cfg.URI); parseErr == nil {
			dbName = strings.TrimPrefix(u.Path, "/")
		}
	}

	return &Client{
		pool:         pool,
		config:       &cfg,
		tracer:       otel.Tracer(tracerName),
		databaseName: dbName,
	}, nil
}

// NewFromPool creates a Client over an existing [Pool]. Intended for
// tests with pgxmock; cfg may be nil.
func NewFromPool(pool Pool, cfg *Config) *Client {
	if cfg == nil {
		cfg = &Config{}
	}
	return &Client{
		pool:         pool,
		config:       cfg,
		tracer:       otel.Tracer(tracerName),
		databaseName: cfg.Database,
	}
}

// Query executes a SQL query that returns rows. The returned [pgx.Rows]
// must be closed by the caller.
//
// Errors carry [herr.CodeTimeoutDatabase] when the context deadline was
// exceeded and [herr.CodeInternalDatabase] otherwise.
func (c *Client) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	ctx, span := c.startSpan(ctx, "Query", sql)

	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		finishSpan(span, err)
		return nil, wrapError(err, "postgres: query failed")
	}
	// Row-level errors surface during iteration, after the span ends.
	finishSpan(span, nil)
	return rows, nil
}

// QueryRow executes a SQL query that returns at most one row. pgx
// defers errors to Scan on the returned row, so the span covers only
// query execution, not scanning.
func (c *Client) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	ctx, span := c.startSpan(ctx, "QueryRow", sql)
	defer span.End()

	return c.pool.QueryRow(ctx, sql, args...)
}

// Exec executes a SQL statement that does not return rows and returns
// the command tag.
func (c *Client) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	ctx, span := c.startSpan(ctx, "Exec", sql)

	tag, err := c.pool.Exec(ctx, sql, args...)
	finishSpan(span, err)
	if err != nil {
		return tag, wrapError(err, "postgres: exec failed")
	}
	return tag, nil
}

// Begin starts a transaction. Callers must commit or roll back; the
// usual pattern is defer tx.Rollback(ctx) right after Begin, since
// Rollback after Commit is a no-op in pgx.
//
// Transactions started here carry no tenant setting. Tenant-scoped
// work goes through [Client.WithTenant] instead.
func (c *Client) Begin(ctx context.Context) (pgx.Tx, error) {
	ctx, span := c.startSpan(ctx, "Begin", "BEGIN")

	tx, err := c.pool.Begin(ctx)
	finishSpan(span, err)
	if err != nil {
		return nil, wrapError(err, "postgres: begin transaction failed")
	}
	return tx, nil
}

// Health pings the database, applying [DefaultHealthTimeout] when the
// caller's context has no deadline. Intended for readiness probes.
func (c *Client) Health(ctx context.Context) error {
	ctx, span := c.startSpan(ctx, "Health", "SELECT 1")

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultHealthTimeout)
		defer cancel()
	}

	err := c.pool.Ping(ctx)
	finishSpan(span, err)
	if err != nil {
		return herr.Wrap(err, herr.CodeUnavailableDependency,
			"postgres: health check failed")
	}
	return nil
}

// Close releases all pool resources. Safe to call multiple times.
func (c *Client) Close() {
	c.pool.Close()
}

// Pool exposes the underlying pool for operations the Client does not
// wrap (CopyFrom, SendBatch). Do not close it directly; use
// [Client.Close].
func (c *Client) Pool() Pool {
	return c.pool
}

// startSpan creates a client span with the standard database semantic
// attributes.
func (c *Client) startSpan(ctx context.Context, operationName, sql string) (context.Context, trace.Span) {
	ctx, span := c.tracer.Start(ctx, "postgres."+operationName,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	span.SetAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.name", c.databaseName),
		attribute.String("db.statement", truncateSQL(sql)),
	)
	return ctx, span
}

// finishSpan records err (if any) and ends the span.
func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// wrapError maps a database error into the platform taxonomy so callers
// can make retry decisions with [herr.IsTimeout] and [herr.IsRetryable].
func wrapError(err error, message string) *herr.Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return herr.Wrap(err, herr.CodeTimeoutDatabase, message)
	}
	return herr.Wrap(err, herr.CodeInternalDatabase, message)
}
