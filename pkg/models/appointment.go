// Package models defines the core data models for the Haventide Care
// Platform.
//
// The models in this package represent the central data structures shared
// across platform services. They are designed for serialization (JSON),
// database persistence, and cross-service transport. Every record carries
// a tenant ID so the persistence layer can enforce row-level tenant
// isolation.
//
// Appointment Model:
//
// The [Appointment] type represents a scheduled encounter between a
// patient and a practitioner. It is the record the scheduling service
// creates and the clinical services reference for tracking visits.
//
// An Appointment flows through a defined lifecycle:
//
//	scheduled → checked_in → completed
//	                       → canceled
//	          → canceled
//	          → no_show
//
// Once an appointment reaches a terminal state (completed, canceled,
// no_show), it cannot transition to another state. The
// [Appointment.IsTerminal] method identifies terminal states.
package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AppointmentSchemaVersion identifies the current schema version of the
// Appointment model. Increment this when making breaking changes to the
// struct fields or serialization format to support schema migration.
const AppointmentSchemaVersion = 1

// AppointmentStatus represents the lifecycle state of an appointment.
// Appointments begin in [AppointmentStatusScheduled] and progress through
// the lifecycle until reaching a terminal state.
type AppointmentStatus string

const (
	// AppointmentStatusScheduled indicates the appointment has been booked
	// but the patient has not yet arrived. This is the initial state set
	// by [NewAppointment].
	AppointmentStatusScheduled AppointmentStatus = "scheduled"

	// AppointmentStatusCheckedIn indicates the patient has arrived and the
	// encounter is in progress or about to begin.
	AppointmentStatusCheckedIn AppointmentStatus = "checked_in"

	// AppointmentStatusCompleted indicates the encounter finished. This is
	// a terminal state.
	AppointmentStatusCompleted AppointmentStatus = "completed"

	// AppointmentStatusCanceled indicates the appointment was canceled by
	// the patient or the clinic before completion. This is a terminal
	// state. The reason is recorded in [Appointment.CancelReason].
	AppointmentStatusCanceled AppointmentStatus = "canceled"

	// AppointmentStatusNoShow indicates the patient did not arrive within
	// the clinic's grace period. This is a terminal state.
	AppointmentStatusNoShow AppointmentStatus = "no_show"
)

// String returns the string representation of the appointment status.
func (s AppointmentStatus) String() string {
	return string(s)
}

// Valid reports whether the appointment status is one of the recognized
// values.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusCheckedIn,
		AppointmentStatusCompleted, AppointmentStatusCanceled,
		AppointmentStatusNoShow:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether this status represents a final state from
// which no further transitions are possible.
func (s AppointmentStatus) IsTerminal() bool {
	switch s {
	case AppointmentStatusCompleted, AppointmentStatusCanceled,
		AppointmentStatusNoShow:
		return true
	default:
		return false
	}
}

// CanTransitionTo reports whether the status may move to the given next
// status. Terminal states allow no transitions; scheduled appointments
// may be checked in, canceled, or marked no-show; checked-in
// appointments may be completed or canceled.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	switch s {
	case AppointmentStatusScheduled:
		return next == AppointmentStatusCheckedIn ||
			next == AppointmentStatusCanceled ||
			next == AppointmentStatusNoShow
	case AppointmentStatusCheckedIn:
		return next == AppointmentStatusCompleted ||
			next == AppointmentStatusCanceled
	default:
		return false
	}
}

// Appointment represents a scheduled patient encounter in the Haventide
// Care Platform. It is the core record type the scheduling service
// creates and all clinical services reference.
//
// Every field is annotated with both JSON tags (for API serialization)
// and db tags (for database mapping). Optional fields use omitempty to
// exclude zero values from serialized output.
//
// Appointment records are created via [NewAppointment] and are immutable
// after creation except for status-related updates (Status, CheckedInAt,
// EndedAt, CancelReason, Metadata, UpdatedAt). Status transition
// validation uses [AppointmentStatus.CanTransitionTo]; enforcing it is
// the responsibility of the scheduling service, not this model.
type Appointment struct {
	// ID is the unique identifier for this appointment (UUID v4).
	ID string `json:"id" db:"id"`

	// TenantID identifies the clinic that owns this appointment. Every
	// persisted row carries a tenant ID so the database can enforce
	// row-level tenant isolation.
	TenantID string `json:"tenant_id" db:"tenant_id"`

	// PatientID is the ID of the patient attending the appointment.
	PatientID string `json:"patient_id" db:"patient_id"`

	// PractitionerID is the ID of the practitioner conducting the
	// encounter.
	PractitionerID string `json:"practitioner_id" db:"practitioner_id"`

	// Reason is the human-readable reason for the visit, as entered at
	// booking time.
	Reason string `json:"reason" db:"reason"`

	// Status is the current lifecycle state of the appointment.
	// See [AppointmentStatus] for valid values.
	Status AppointmentStatus `json:"status" db:"status"`

	// ScheduledAt is the UTC timestamp when the encounter is booked to
	// begin.
	ScheduledAt time.Time `json:"scheduled_at" db:"scheduled_at"`

	// CheckedInAt is the UTC timestamp when the patient arrived. Nil
	// while the appointment is still scheduled or if the patient never
	// arrived.
	CheckedInAt *time.Time `json:"checked_in_at,omitempty" db:"checked_in_at"`

	// EndedAt is the UTC timestamp when the appointment reached a
	// terminal state. Nil while the appointment is scheduled or checked
	// in.
	EndedAt *time.Time `json:"ended_at,omitempty" db:"ended_at"`

	// CancelReason records why a canceled appointment was canceled.
	// Empty for non-canceled appointments.
	CancelReason string `json:"cancel_reason,omitempty" db:"cancel_reason"`

	// Metadata is an extensible key-value store for service-specific
	// data. Each service can attach its own metadata without modifying
	// the Appointment schema. Nil metadata is normalized to an empty map
	// by [NewAppointment], so this field is always present in JSON output
	// for constructor-created appointments (at minimum as an empty
	// object).
	Metadata map[string]any `json:"metadata" db:"metadata"`

	// CreatedAt is the UTC timestamp when the appointment record was
	// created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the UTC timestamp when the appointment record was last
	// modified. Updated on every status change.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NewAppointment creates a new Appointment record with a generated UUID,
// scheduled status, and UTC timestamps. The metadata map is initialized
// to an empty map.
//
// Returns an error if any required field (tenantID, patientID,
// practitionerID) is empty or scheduledAt is the zero time. These fields
// are required because the record cannot be routed, isolated, or billed
// without them.
func NewAppointment(tenantID, patientID, practitionerID string, scheduledAt time.Time) (*Appointment, error) {
	if tenantID == "" {
		return nil, errors.New("models: appointment tenantID must not be empty")
	}
	if patientID == "" {
		return nil, errors.New("models: appointment patientID must not be empty")
	}
	if practitionerID == "" {
		return nil, errors.New("models: appointment practitionerID must not be empty")
	}
	if scheduledAt.IsZero() {
		return nil, errors.New("models: appointment scheduledAt must not be zero")
	}

	now := time.Now().UTC()
	return &Appointment{
		ID:             uuid.New().String(),
		TenantID:       tenantID,
		PatientID:      patientID,
		PractitionerID: practitionerID,
		Status:         AppointmentStatusScheduled,
		ScheduledAt:    scheduledAt.UTC(),
		Metadata:       make(map[string]any),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Validate checks that all required fields are present and that the
// status is a recognized value. Returns the first validation error
// encountered, or nil if the appointment is valid.
//
// Required fields: ID, TenantID, PatientID, PractitionerID, Status (must
// be valid). Timestamps (ScheduledAt, CreatedAt, UpdatedAt) must not be
// zero.
func (a *Appointment) Validate() error {
	if a.ID == "" {
		return errors.New("models: appointment ID is required")
	}
	if a.TenantID == "" {
		return errors.New("models: appointment tenant ID is required")
	}
	if a.PatientID == "" {
		return errors.New("models: appointment patient ID is required")
	}
	if a.PractitionerID == "" {
		return errors.New("models: appointment practitioner ID is required")
	}
	if !a.Status.Valid() {
		return fmt.Errorf("models: invalid appointment status %q", a.Status)
	}
	if a.ScheduledAt.IsZero() {
		return errors.New("models: appointment scheduled_at is required")
	}
	if a.CreatedAt.IsZero() {
		return errors.New("models: appointment created_at is required")
	}
	if a.UpdatedAt.IsZero() {
		return errors.New("models: appointment updated_at is required")
	}
	if a.CancelReason != "" && a.Status != AppointmentStatusCanceled {
		return fmt.Errorf("models: appointment cancel_reason set on %q status", a.Status)
	}
	return nil
}

// IsTerminal reports whether the appointment has reached a final state
// from which no further transitions are possible (completed, canceled,
// or no_show).
func (a *Appointment) IsTerminal() bool {
	return a.Status.IsTerminal()
}

// Duration returns the wall-clock duration of the encounter. If the
// appointment has an EndedAt, the duration is calculated from
// CheckedInAt to EndedAt. If the encounter is still in progress
// (EndedAt is nil), the duration is calculated from CheckedInAt to the
// current time.
//
// Returns zero if the patient never checked in.
func (a *Appointment) Duration() time.Duration {
	if a.CheckedInAt == nil {
		return 0
	}
	if a.EndedAt != nil {
		return a.EndedAt.Sub(*a.CheckedInAt)
	}
	return time.Since(*a.CheckedInAt)
}
