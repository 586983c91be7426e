package schedule

import (
	"fmt"
	"time"
)

// Window is an [open, close) range in which bookings may start and must
// fully complete.
type Window struct {
	Open  string `json:"open"`  // "08:00" in 24-hour format
	Close string `json:"close"` // "18:00" in 24-hour format
}

// WeekendWindow is a Window that can be switched off entirely.
type WeekendWindow struct {
	Open    string `json:"open"`
	Close   string `json:"close"`
	Enabled bool   `json:"enabled"`
}

// WorkingHours holds a tenant's business hours as three independent day
// groups. The same value is injected into both the write-path validator
// and the slot generator so the two can never diverge.
type WorkingHours struct {
	Weekdays Window        `json:"weekdays"`
	Saturday WeekendWindow `json:"saturday"`
	Sunday   WeekendWindow `json:"sunday"`
}

// DefaultWorkingHours returns the stock configuration for tenants that have
// not customized their hours: weekdays 08:00-18:00, closed weekends.
func DefaultWorkingHours() WorkingHours {
	return WorkingHours{
		Weekdays: Window{Open: "08:00", Close: "18:00"},
		Saturday: WeekendWindow{Open: "08:00", Close: "13:00", Enabled: false},
		Sunday:   WeekendWindow{Open: "08:00", Close: "13:00", Enabled: false},
	}
}

// WindowFor resolves the window governing the given calendar date.
// ok is false when the business is closed that day.
func (h WorkingHours) WindowFor(date time.Time) (Window, bool) {
	switch date.Weekday() {
	case time.Saturday:
		if !h.Saturday.Enabled {
			return Window{}, false
		}
		return Window{Open: h.Saturday.Open, Close: h.Saturday.Close}, true
	case time.Sunday:
		if !h.Sunday.Enabled {
			return Window{}, false
		}
		return Window{Open: h.Sunday.Open, Close: h.Sunday.Close}, true
	default:
		return h.Weekdays, true
	}
}

// Minutes parses the window bounds into minute offsets.
func (w Window) Minutes() (openMin, closeMin int, err error) {
	openMin, err = ToMinutes(w.Open)
	if err != nil {
		return 0, 0, fmt.Errorf("window open: %w", err)
	}
	closeMin, err = ToMinutes(w.Close)
	if err != nil {
		return 0, 0, fmt.Errorf("window close: %w", err)
	}
	return openMin, closeMin, nil
}

// Contains reports whether a booking starting at startMin and running for
// durationMin fits entirely inside the working hours for date. A booking
// must start within [open, close) and may not end after closing.
func (h WorkingHours) Contains(date time.Time, startMin, durationMin int) (bool, error) {
	if durationMin < 0 {
		return false, ErrInvalidDuration
	}
	window, ok := h.WindowFor(date)
	if !ok {
		return false, nil
	}
	openMin, closeMin, err := window.Minutes()
	if err != nil {
		return false, err
	}
	return startMin >= openMin && startMin < closeMin && startMin+durationMin <= closeMin, nil
}
