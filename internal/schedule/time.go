// Package schedule implements the availability core: clock arithmetic,
// working-hours windows, booking conflict detection and slot generation.
// Everything in this package is pure; persistence and transport live in
// the surrounding packages.
package schedule

import (
	"errors"
	"fmt"
)

// ErrInvalidTimeFormat reports a malformed HH:MM clock string.
var ErrInvalidTimeFormat = errors.New("schedule: invalid time format")

// ErrInvalidDuration reports a negative service duration or a non-positive
// slot granularity.
var ErrInvalidDuration = errors.New("schedule: invalid duration")

// ToMinutes parses a zero-padded 24-hour "HH:MM" string into minutes since
// midnight. Hours must be 00-23 and minutes 00-59.
func ToMinutes(hhmm string) (int, error) {
	if len(hhmm) != 5 || hhmm[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, hhmm)
	}
	hour, ok := twoDigits(hhmm[0], hhmm[1])
	if !ok || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, hhmm)
	}
	minute, ok := twoDigits(hhmm[3], hhmm[4])
	if !ok || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, hhmm)
	}
	return hour*60 + minute, nil
}

// FormatMinutes renders minutes since midnight as a zero-padded "HH:MM"
// string. The inverse of ToMinutes for values in [0, 1440).
func FormatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Zero-length intervals never overlap anything.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	if aStart >= aEnd || bStart >= bEnd {
		return false
	}
	return aStart < bEnd && bStart < aEnd
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}
