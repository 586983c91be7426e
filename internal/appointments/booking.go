// Package appointments owns the booking lifecycle: proposing a slot against
// authoritative state, confirming, cancelling and completing bookings, and
// computing the advisory slot grid shown to clients.
package appointments

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status is the booking lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo encodes the one-way state machine:
// pending → confirmed|cancelled, confirmed → cancelled|completed.
// Cancelled and completed are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCancelled || next == StatusCompleted
	default:
		return false
	}
}

// Booking is one appointment. Date is a calendar day and StartTime a
// tenant-local "HH:MM"; no timezone offset is carried.
type Booking struct {
	ID             uuid.UUID  `json:"id"`
	TenantID       string     `json:"tenant_id"`
	ProfessionalID uuid.UUID  `json:"professional_id"`
	ServiceID      uuid.UUID  `json:"service_id"`
	Date           time.Time  `json:"date"`
	StartTime      string     `json:"time"`
	Status         Status     `json:"status"`
	ClientName     string     `json:"client_name"`
	ClientPhone    string     `json:"client_phone"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	CompletedBy    string     `json:"completed_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Error taxonomy. ErrSlotConflict is the only one expected in normal
// operation: it means another caller won the slot between read and write,
// and the client should re-fetch the grid.
var (
	ErrSlotConflict         = errors.New("appointments: slot no longer available")
	ErrInvalidTransition    = errors.New("appointments: invalid status transition")
	ErrNotFound             = errors.New("appointments: not found")
	ErrConfigurationMissing = errors.New("appointments: configuration missing")
	ErrOutsideWorkingHours  = errors.New("appointments: outside working hours")
)
