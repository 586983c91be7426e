package events

import "time"

// Event type names stored in the outbox `type` column.
const (
	TypeBookingConfirmed = "booking.confirmed.v1"
	TypeBookingCancelled = "booking.cancelled.v1"
)

// BookingConfirmedV1 is emitted when a booking transitions to confirmed.
// Consumed by the notification dispatcher; never part of the commit path.
type BookingConfirmedV1 struct {
	EventID        string    `json:"event_id"`
	TenantID       string    `json:"tenant_id"`
	BookingID      string    `json:"booking_id"`
	ProfessionalID string    `json:"professional_id"`
	ServiceID      string    `json:"service_id"`
	Date           string    `json:"date"` // YYYY-MM-DD, tenant-local
	Time           string    `json:"time"` // HH:MM, tenant-local
	ClientName     string    `json:"client_name"`
	ClientPhone    string    `json:"client_phone"`
	ConfirmedAt    time.Time `json:"confirmed_at"`
}

// BookingCancelledV1 is emitted when a booking is cancelled, freeing its
// interval.
type BookingCancelledV1 struct {
	EventID        string    `json:"event_id"`
	TenantID       string    `json:"tenant_id"`
	BookingID      string    `json:"booking_id"`
	ProfessionalID string    `json:"professional_id"`
	Date           string    `json:"date"`
	Time           string    `json:"time"`
	ClientName     string    `json:"client_name"`
	ClientPhone    string    `json:"client_phone"`
	CancelledAt    time.Time `json:"cancelled_at"`
}
