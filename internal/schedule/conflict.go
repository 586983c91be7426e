package schedule

import "github.com/google/uuid"

// StatusCancelled marks bookings that no longer occupy their interval.
const StatusCancelled = "cancelled"

// BookingInterval is an existing booking reduced to what conflict detection
// needs. DurationMinutes is resolved from the booking's own service at read
// time; callers must never mix units here.
type BookingInterval struct {
	ID              uuid.UUID
	StartMinutes    int
	DurationMinutes int
	Status          string
}

// Candidate is a proposed booking interval. ExcludeID, when set, names a
// booking to skip during comparison so that editing a booking does not
// conflict with its own prior interval.
type Candidate struct {
	StartMinutes    int
	DurationMinutes int
	ExcludeID       uuid.UUID
}

// End returns the exclusive end of the candidate interval.
func (c Candidate) End() int { return c.StartMinutes + c.DurationMinutes }

// HasConflict reports whether the candidate overlaps any live booking.
// The existing set must already be scoped to one professional and one
// calendar date; cancelled bookings are not obstacles. Returns on the
// first overlap found.
func HasConflict(c Candidate, existing []BookingInterval) bool {
	for _, b := range existing {
		if b.Status == StatusCancelled {
			continue
		}
		if c.ExcludeID != uuid.Nil && b.ID == c.ExcludeID {
			continue
		}
		if Overlaps(c.StartMinutes, c.End(), b.StartMinutes, b.StartMinutes+b.DurationMinutes) {
			return true
		}
	}
	return false
}
