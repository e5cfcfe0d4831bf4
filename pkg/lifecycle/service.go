package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	herr "github.com/Haventide/haventide-core/pkg/errors"
)

// tracerName is the OpenTelemetry instrumentation scope name for this package.
const tracerName = "github.com/Haventide/haventide-core/pkg/lifecycle"

// StateChangeHandler is called synchronously on every state transition
// with the old and new state. Handlers run under the state mutex; they
// must not call lifecycle methods on the same service or block for
// extended periods.
type StateChangeHandler func(old, new State)

// Info is a point-in-time snapshot of the service's identity, state,
// and uptime. Safe to serialize to JSON for a status endpoint.
type Info struct {
	// Name is the service name.
	Name string `json:"name"`

	// Version is the service version.
	Version string `json:"version"`

	// State is the lifecycle state at snapshot time.
	State State `json:"state"`

	// Components lists the names of registered components in start
	// order.
	Components []string `json:"components,omitempty"`

	// StartedAt is the time the service entered StateRunning. Nil
	// unless the service is running.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// Uptime is the duration since StartedAt. Zero unless the service
	// is running.
	Uptime time.Duration `json:"uptime,omitempty"`
}

// Service manages the lifecycle of a Haventide service and its
// components: ordered startup, health aggregation, draining, and
// reverse-order shutdown, with a validated state machine throughout.
//
// A Service is safe for concurrent use by multiple goroutines. Create
// one using [Builder] and share it across the application.
//
// Component hooks execute outside the state mutex to prevent
// deadlocks. If a Start hook fails, components already started are
// stopped in reverse order and the service transitions to
// [StateFailed].
type Service struct {
	// Immutable fields, set at construction.
	name    string
	version string

	// Mutable fields, protected by mu.
	mu        sync.RWMutex
	state     State
	startedAt *time.Time

	// Observability, set at construction.
	tracer trace.Tracer
	logger *slog.Logger

	// components in registration order; started front to back, stopped
	// back to front. Set at construction, never modified.
	components []Component

	// State change observers, set at construction.
	stateHandlers []StateChangeHandler
}

// Name returns the service name. Immutable after construction.
func (s *Service) Name() string {
	return s.name
}

// Version returns the service version. Immutable after construction.
func (s *Service) Version() string {
	return s.version
}

// State returns the current lifecycle state. Safe for concurrent use.
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Info returns a point-in-time snapshot of the service's identity,
// state, components, and uptime. Safe for concurrent use.
func (s *Service) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := Info{
		Name:    s.name,
		Version: s.version,
		State:   s.state,
	}
	for _, c := range s.components {
		info.Components = append(info.Components, c.Name)
	}

	if s.startedAt != nil && s.state == StateRunning {
		t := *s.startedAt
		info.StartedAt = &t
		info.Uptime = time.Since(t)
	}

	return info
}

// Health reports whether the service is ready to serve requests. It
// fails with [herr.CodeUnavailable] unless the service is in
// [StateRunning]; a draining service is deliberately unhealthy so the
// load balancer routes new requests elsewhere.
//
// When running, Health runs every component's Check hook and returns
// the first failure, so a service with a dead database pool or an
// unreachable identity provider drops out of rotation.
func (s *Service) Health(ctx context.Context) error {
	state := s.State()
	if state != StateRunning {
		return herr.Newf(herr.CodeUnavailable,
			"lifecycle: service is not running, current state is %q", state)
	}

	for _, c := range s.components {
		if c.Check == nil {
			continue
		}
		if err := c.Check(ctx); err != nil {
			return herr.Wrapf(err, herr.CodeUnavailableDependency,
				"lifecycle: component %q is unhealthy", c.Name)
		}
	}
	return nil
}

// SetState transitions the service to the given state after validating
// the transition against the lifecycle state machine. Returns a
// [*herr.Error] with code [herr.CodeConflict] if the transition is not
// allowed.
//
// On a successful transition, all registered [StateChangeHandler]
// functions are called synchronously with the old and new state values.
//
// SetState is exported for callers that need to set state
// programmatically, such as transitioning to [StateFailed] when an
// internal error is detected outside a lifecycle method.
func (s *Service) SetState(new State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.state
	if !ValidTransition(old, new) {
		return herr.Newf(herr.CodeConflict,
			"lifecycle: invalid state transition from %q to %q", old, new)
	}

	s.state = new

	// Notify state change handlers under the lock to guarantee ordering.
	// Each handler is called in a deferred-recover wrapper to prevent a
	// panicking handler from corrupting service state.
	for _, h := range s.stateHandlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					s.logger.Error("lifecycle: state change handler panicked",
						"panic", r,
						"service", s.name,
						"old_state", string(old),
						"new_state", string(new),
					)
				}
			}()
			h(old, new)
		}()
	}

	return nil
}

// Start brings the service up. It transitions through [StateStarting]
// to [StateRunning], starting every component in registration order
// between the two transitions.
//
// The context controls the deadline for startup. If the context is
// already canceled, Start returns immediately without modifying state.
//
// If a component fails to start, the components started so far are
// stopped in reverse order, the service transitions to [StateFailed],
// and the error is returned wrapped with [herr.CodeInternal].
func (s *Service) Start(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "lifecycle.Start",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("service.name", s.name),
			attribute.String("service.version", s.version),
		),
	)
	defer span.End()

	// Check context before acquiring the lock.
	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return herr.Wrap(err, herr.CodeTimeout,
			"lifecycle: start canceled before execution")
	}

	if err := s.SetState(StateStarting); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	s.logger.InfoContext(ctx, "lifecycle: starting service",
		"service", s.name,
		"version", s.version,
	)

	// Start components outside the lock, in registration order.
	for i, c := range s.components {
		if c.Start == nil {
			continue
		}
		if err := c.Start(ctx); err != nil {
			s.logger.ErrorContext(ctx, "lifecycle: component failed to start",
				"service", s.name,
				"component", c.Name,
				"error", err,
			)
			// Unwind whatever already started before giving up.
			s.stopComponents(ctx, i-1)
			_ = s.SetState(StateFailed)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return herr.Wrapf(err, herr.CodeInternal,
				"lifecycle: component %q failed to start", c.Name)
		}
		s.logger.DebugContext(ctx, "lifecycle: component started",
			"service", s.name,
			"component", c.Name,
		)
	}

	if err := s.SetState(StateRunning); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	now := time.Now().UTC()
	s.mu.Lock()
	s.startedAt = &now
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "lifecycle: service started",
		"service", s.name,
		"components", len(s.components),
	)
	span.SetStatus(codes.Ok, "")

	return nil
}

// Stop gracefully shuts the service down. It transitions through
// [StateStopping] to [StateStopped], stopping every component in
// reverse registration order between the two transitions.
//
// If the service is already in a terminal state ([StateStopped] or
// [StateFailed]), Stop is a no-op and returns nil. This makes it safe
// to call Stop multiple times or in a deferred cleanup.
//
// Stop errors from individual components are collected and joined;
// one failing component does not prevent the rest from stopping. If
// any component failed, the service transitions to [StateFailed] and
// the joined error is returned wrapped with [herr.CodeInternal].
func (s *Service) Stop(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "lifecycle.Stop",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("service.name", s.name),
		),
	)
	defer span.End()

	// Terminal states: Stop is a no-op.
	if s.State().IsTerminal() {
		span.SetStatus(codes.Ok, "")
		return nil
	}

	if err := ctx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return herr.Wrap(err, herr.CodeTimeout,
			"lifecycle: stop canceled before execution")
	}

	if err := s.SetState(StateStopping); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	s.logger.InfoContext(ctx, "lifecycle: stopping service",
		"service", s.name,
	)

	if err := s.stopComponents(ctx, len(s.components)-1); err != nil {
		_ = s.SetState(StateFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return herr.Wrap(err, herr.CodeInternal,
			"lifecycle: shutdown completed with errors")
	}

	if err := s.SetState(StateStopped); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	s.mu.Lock()
	s.startedAt = nil
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "lifecycle: service stopped",
		"service", s.name,
	)
	span.SetStatus(codes.Ok, "")

	return nil
}

// stopComponents stops components[0..from] in reverse order, logging
// and collecting errors so every component gets its shutdown chance.
func (s *Service) stopComponents(ctx context.Context, from int) error {
	var errs []error
	for i := from; i >= 0; i-- {
		c := s.components[i]
		if c.Stop == nil {
			continue
		}
		if err := c.Stop(ctx); err != nil {
			s.logger.ErrorContext(ctx, "lifecycle: component failed to stop",
				"service", s.name,
				"component", c.Name,
				"error", err,
			)
			errs = append(errs, err)
			continue
		}
		s.logger.DebugContext(ctx, "lifecycle: component stopped",
			"service", s.name,
			"component", c.Name,
		)
	}
	return errors.Join(errs...)
}

// Drain transitions the service from [StateRunning] to [StateDraining].
// A draining service fails readiness checks so the load balancer stops
// sending it new requests, while in-flight work continues. Call
// [Service.Stop] once traffic has moved, or [Service.Resume] to cancel.
func (s *Service) Drain(ctx context.Context) error {
	if err := s.SetState(StateDraining); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "lifecycle: service draining",
		"service", s.name,
	)
	return nil
}

// Resume cancels a drain, returning the service from [StateDraining]
// to [StateRunning].
func (s *Service) Resume(ctx context.Context) error {
	if err := s.SetState(StateRunning); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "lifecycle: service resumed",
		"service", s.name,
	)
	return nil
}

// ===========================================================================
// Builder
// ===========================================================================

// Builder constructs a [Service] with a fluent API. Components are
// registered in start order; shutdown runs in reverse.
//
//	svc, err := lifecycle.NewBuilder("auth-edge", "1.4.0").
//	    WithComponent(lifecycle.Component{Name: "jwks-cache", Start: keys.Start, Stop: stopKeys}).
//	    WithComponent(lifecycle.Component{Name: "postgres", Check: db.Health, Stop: closeDB}).
//	    WithLogger(logger).
//	    Build()
type Builder struct {
	name    string
	version string

	components    []Component
	logger        *slog.Logger
	stateHandlers []StateChangeHandler

	// err holds the first registration error; surfaced by Build so
	// callers can chain registrations without checking each one.
	err error
}

// NewBuilder creates a Builder for a service with the given name and
// version.
func NewBuilder(name, version string) *Builder {
	return &Builder{
		name:    name,
		version: version,
	}
}

// WithComponent registers a component. Components start in registration
// order and stop in reverse order. An invalid component is recorded and
// reported by [Builder.Build].
func (b *Builder) WithComponent(c Component) *Builder {
	if b.err == nil {
		if err := c.validate(); err != nil {
			b.err = err
			return b
		}
	}
	b.components = append(b.components, c)
	return b
}

// WithLogger sets the structured logger. Defaults to [slog.Default].
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// OnStateChange registers a handler invoked synchronously on every
// state transition. Multiple handlers run in registration order.
func (b *Builder) OnStateChange(handler StateChangeHandler) *Builder {
	if handler != nil {
		b.stateHandlers = append(b.stateHandlers, handler)
	}
	return b
}

// Build validates the configuration and constructs the Service in
// [StateUnknown].
func (b *Builder) Build() (*Service, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.name == "" {
		return nil, herr.New(herr.CodeValidationRequired,
			"lifecycle: service name is required")
	}
	if b.version == "" {
		return nil, herr.New(herr.CodeValidationRequired,
			"lifecycle: service version is required")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		name:          b.name,
		version:       b.version,
		state:         StateUnknown,
		tracer:        otel.Tracer(tracerName),
		logger:        logger,
		components:    b.components,
		stateHandlers: b.stateHandlers,
	}, nil
}
