package schedule

import "time"

// GenerateSlots computes the bookable start times for one professional on
// one calendar date, as ascending duplicate-free "HH:MM" strings.
//
// A start time is offered when the whole [start, start+duration) interval
// fits inside the working-hours window, does not overlap a live booking,
// and, when date is today relative to now, has not already passed.
// An empty result is valid: fully booked day, or a day the business is
// closed. The computation is pure; calling it twice with the same inputs
// yields the same grid.
func GenerateSlots(date time.Time, durationMin, granularityMin int, hours WorkingHours, existing []BookingInterval, now time.Time) ([]string, error) {
	if durationMin < 0 || granularityMin <= 0 {
		return nil, ErrInvalidDuration
	}
	window, ok := hours.WindowFor(date)
	if !ok {
		return nil, nil
	}
	openMin, closeMin, err := window.Minutes()
	if err != nil {
		return nil, err
	}

	cutoff := -1
	if sameDay(date, now) {
		cutoff = now.Hour()*60 + now.Minute()
	}

	var slots []string
	for start := openMin; start < closeMin && start+durationMin <= closeMin; start += granularityMin {
		if start < cutoff {
			continue
		}
		if HasConflict(Candidate{StartMinutes: start, DurationMinutes: durationMin}, existing) {
			continue
		}
		slots = append(slots, FormatMinutes(start))
	}
	return slots, nil
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
