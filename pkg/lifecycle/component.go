package lifecycle

import (
	"context"

	herr "github.com/Haventide/haventide-core/pkg/errors"
)

// Component is a managed unit of the service: something with a startup
// obligation, a shutdown obligation, or both. The signing-key cache,
// the database pool, and the HTTP listener are all components.
//
// Components are started in registration order and stopped in reverse
// order, so a component may rely on everything registered before it
// during both startup and shutdown.
//
// All three hooks are optional. A nil hook is skipped; a component with
// only a Check hook is valid and contributes to health aggregation
// without participating in startup or shutdown.
type Component struct {
	// Name identifies the component in logs, spans, and health output.
	// Required.
	Name string

	// Start brings the component up. An error aborts service startup:
	// components already started are stopped in reverse order and the
	// service transitions to StateFailed.
	Start func(ctx context.Context) error

	// Stop shuts the component down. Stop errors are logged and
	// collected but do not prevent the remaining components from
	// stopping; a misbehaving dependency must not block shutdown of
	// the rest.
	Stop func(ctx context.Context) error

	// Check reports the component's health. Used by [Service.Health]
	// to aggregate readiness across all components.
	Check func(ctx context.Context) error
}

// validate checks that the component is usable. Called by the builder
// at registration time so misconfiguration fails at startup, not at
// shutdown.
func (c Component) validate() error {
	if c.Name == "" {
		return herr.New(herr.CodeValidationRequired,
			"lifecycle: component name is required")
	}
	if c.Start == nil && c.Stop == nil && c.Check == nil {
		return herr.Newf(herr.CodeValidation,
			"lifecycle: component %q has no Start, Stop, or Check hook", c.Name)
	}
	return nil
}
