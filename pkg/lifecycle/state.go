// Package lifecycle provides service lifecycle management for the
// Haventide Care Platform, including state machine transitions, health
// aggregation, and graceful shutdown.
//
// # Service Lifecycle
//
// Every Haventide service follows a defined lifecycle managed by a
// finite state machine. The [State] type represents the service's
// current position in this lifecycle, and all transitions are validated
// against the [validTransitions] matrix to prevent illegal state
// changes.
//
// The lifecycle flow for a healthy service is:
//
//	Unknown → Starting → Running → Stopping → Stopped
//
// A service may drain before stopping, rejecting new requests while
// in-flight work completes:
//
//	Running → Draining → Stopping
//
// Draining may also be canceled, returning the service to Running.
// Any non-terminal state may transition to Failed on error, and both
// terminal states (Stopped, Failed) may transition back to Starting
// for restart.
//
// # Thread Safety
//
// State management in [Service] is protected by a [sync.RWMutex]. All
// state reads and writes are safe for concurrent use by multiple
// goroutines, including lifecycle methods ([Service.Start],
// [Service.Stop], [Service.Drain]) and state queries ([Service.State],
// [Service.Info]).
//
// # OpenTelemetry Integration
//
// Lifecycle operations create OpenTelemetry spans with semantic
// attributes for observability. The tracer scope is
// "github.com/Haventide/haventide-core/pkg/lifecycle".
package lifecycle

// State represents the lifecycle state of a Haventide service. States
// form a finite state machine with validated transitions defined by
// [ValidTransition].
//
// The zero value ("") is not a valid state; services are initialized
// with [StateUnknown] at construction time.
type State string

const (
	// StateUnknown is the initial state of a newly constructed service
	// before any lifecycle method has been called.
	StateUnknown State = "unknown"

	// StateStarting indicates the service is starting its components.
	// This is a transient state set at the beginning of [Service.Start]
	// before any component starts. External observers may see this
	// state during startup.
	StateStarting State = "starting"

	// StateRunning indicates all components started successfully and
	// the service is accepting requests. This is the only state in
	// which [Service.Health] reports healthy. Services remain in this
	// state until drained, stopped, or a failure occurs.
	StateRunning State = "running"

	// StateDraining indicates the service has stopped accepting new
	// requests but is still completing in-flight work. Readiness probes
	// fail in this state so the load balancer routes traffic elsewhere
	// before shutdown proceeds. Call [Service.Resume] to return to
	// [StateRunning] if the shutdown is canceled.
	StateDraining State = "draining"

	// StateStopping indicates the service is shutting its components
	// down. This is a transient state set at the beginning of
	// [Service.Stop].
	StateStopping State = "stopping"

	// StateStopped indicates the service has completed a clean
	// shutdown. This is a terminal state. A stopped service may be
	// restarted by calling [Service.Start], which transitions it back
	// to [StateStarting].
	StateStopped State = "stopped"

	// StateFailed indicates the service encountered an unrecoverable
	// error, typically a component that failed to start or stop. This
	// is a terminal state. A failed service may be restarted by calling
	// [Service.Start]. The error that caused the failure should be
	// logged before the transition.
	StateFailed State = "failed"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// Valid reports whether the state is one of the recognized lifecycle
// states. The zero value ("") is not valid.
func (s State) Valid() bool {
	switch s {
	case StateUnknown, StateStarting, StateRunning, StateDraining,
		StateStopping, StateStopped, StateFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the state is a terminal lifecycle state.
// Terminal states are [StateStopped] and [StateFailed]. A service in a
// terminal state is not serving requests and must be restarted to
// resume operation.
func (s State) IsTerminal() bool {
	switch s {
	case StateStopped, StateFailed:
		return true
	default:
		return false
	}
}

// validTransitions defines the allowed state transitions for the
// service lifecycle state machine. Each key is a source state, and the
// value is the set of states it may transition to. Transitions not
// present in this map are rejected by [ValidTransition].
//
// Transition matrix:
//
//	Unknown  → Starting, Failed
//	Starting → Running, Failed, Stopping
//	Running  → Draining, Stopping, Failed
//	Draining → Running, Stopping, Failed
//	Stopping → Stopped, Failed
//	Stopped  → Starting              (restart)
//	Failed   → Starting              (recovery restart)
var validTransitions = map[State][]State{
	StateUnknown:  {StateStarting, StateFailed},
	StateStarting: {StateRunning, StateFailed, StateStopping},
	StateRunning:  {StateDraining, StateStopping, StateFailed},
	StateDraining: {StateRunning, StateStopping, StateFailed},
	StateStopping: {StateStopped, StateFailed},
	StateStopped:  {StateStarting},
	StateFailed:   {StateStarting},
}

// ValidTransition reports whether transitioning from state from to
// state to is allowed by the lifecycle state machine. Both from and to
// must be valid states, and the transition must be present in the
// [validTransitions] matrix. Same-state transitions (from == to) are
// always rejected.
func ValidTransition(from, to State) bool {
	if from == to {
		return false
	}
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, t := range targets {
		if t == to {
			return true
		}
	}
	return false
}
