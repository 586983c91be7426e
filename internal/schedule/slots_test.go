package schedule

import (
	"reflect"
	"testing"
	"time"
)

// A "now" long before any test date, so today-filtering stays inert unless a
// test opts in.
var distantPast = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func TestGenerateSlotsEmptyDay(t *testing.T) {
	hours := DefaultWorkingHours()

	slots, err := GenerateSlots(monday, 30, 30, hours, nil, distantPast)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	if len(slots) != 20 {
		t.Fatalf("expected 20 slots for an empty 08:00-18:00 day, got %d: %v", len(slots), slots)
	}
	if slots[0] != "08:00" || slots[len(slots)-1] != "17:30" {
		t.Errorf("grid bounds wrong: first=%s last=%s", slots[0], slots[len(slots)-1])
	}
	for i := 1; i < len(slots); i++ {
		if slots[i] <= slots[i-1] {
			t.Fatalf("slots not strictly ascending: %v", slots)
		}
	}
}

func TestGenerateSlotsExcludesBookedInterval(t *testing.T) {
	hours := DefaultWorkingHours()
	existing := []BookingInterval{interval(600, 30, "confirmed")} // 10:00-10:30

	slots, err := GenerateSlots(monday, 30, 30, hours, existing, distantPast)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	if len(slots) != 19 {
		t.Fatalf("expected 19 slots, got %d", len(slots))
	}
	for _, s := range slots {
		if s == "10:00" {
			t.Fatal("10:00 should be excluded for a 30-minute service")
		}
	}

	// A 60-minute request additionally loses 09:30, whose interval would
	// run into the booking.
	long, err := GenerateSlots(monday, 60, 30, hours, existing, distantPast)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	for _, s := range long {
		if s == "09:30" || s == "10:00" {
			t.Fatalf("%s should be excluded for a 60-minute service", s)
		}
	}
	// The last 60-minute slot still ends exactly at close.
	if long[len(long)-1] != "17:00" {
		t.Errorf("last 60-minute slot = %s, want 17:00", long[len(long)-1])
	}
}

func TestGenerateSlotsWorkingHoursBoundary(t *testing.T) {
	hours := DefaultWorkingHours()

	slots, err := GenerateSlots(monday, 60, 30, hours, nil, distantPast)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	has := func(s string) bool {
		for _, v := range slots {
			if v == s {
				return true
			}
		}
		return false
	}
	if !has("17:00") {
		t.Error("17:00 should be offered: a 60-minute service ends exactly at close")
	}
	if has("17:30") {
		t.Error("17:30 must not be offered: it would end after close")
	}
}

func TestGenerateSlotsFiltersPastTimesToday(t *testing.T) {
	hours := DefaultWorkingHours()
	now := time.Date(monday.Year(), monday.Month(), monday.Day(), 13, 10, 0, 0, time.UTC)

	slots, err := GenerateSlots(monday, 30, 30, hours, nil, now)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	if slots[0] != "13:30" {
		t.Errorf("first offered slot = %s, want 13:30", slots[0])
	}

	// The filter only applies to today.
	tomorrow := monday.AddDate(0, 0, 1)
	slots, err = GenerateSlots(tomorrow, 30, 30, hours, nil, now)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	if slots[0] != "08:00" {
		t.Errorf("future date should offer the full grid, first = %s", slots[0])
	}
}

func TestGenerateSlotsClosedDay(t *testing.T) {
	hours := DefaultWorkingHours() // weekends disabled

	slots, err := GenerateSlots(sunday, 30, 30, hours, nil, distantPast)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	if len(slots) != 0 {
		t.Errorf("closed day should yield no slots, got %v", slots)
	}
}

func TestGenerateSlotsIsIdempotent(t *testing.T) {
	hours := DefaultWorkingHours()
	existing := []BookingInterval{
		interval(540, 60, "confirmed"),
		interval(720, 30, "pending"),
		interval(840, 45, StatusCancelled),
	}

	first, err := GenerateSlots(monday, 45, 30, hours, existing, distantPast)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	second, err := GenerateSlots(monday, 45, 30, hours, existing, distantPast)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical inputs produced different grids: %v vs %v", first, second)
	}
}

// A zero-duration service occupies no time, so even a fully booked day
// offers every grid point.
func TestGenerateSlotsZeroDurationIgnoresBookings(t *testing.T) {
	hours := DefaultWorkingHours()
	var existing []BookingInterval
	for start := 480; start < 1080; start += 30 {
		existing = append(existing, interval(start, 30, "confirmed"))
	}

	slots, err := GenerateSlots(monday, 0, 30, hours, existing, distantPast)
	if err != nil {
		t.Fatalf("GenerateSlots: %v", err)
	}
	if len(slots) != 20 {
		t.Fatalf("expected the full 20-point grid for a zero-duration service, got %d: %v", len(slots), slots)
	}
}

func TestGenerateSlotsRejectsBadGranularity(t *testing.T) {
	if _, err := GenerateSlots(monday, 30, 0, DefaultWorkingHours(), nil, distantPast); err == nil {
		t.Error("zero granularity should be rejected")
	}
	if _, err := GenerateSlots(monday, -5, 30, DefaultWorkingHours(), nil, distantPast); err == nil {
		t.Error("negative duration should be rejected")
	}
}

// Property check: no accepted pair of live bookings may overlap, and every
// generated slot must stay conflict-free against the same set.
func TestGeneratedSlotsNeverConflict(t *testing.T) {
	hours := DefaultWorkingHours()
	existing := []BookingInterval{
		interval(480, 90, "confirmed"),
		interval(630, 30, "pending"),
		interval(780, 120, "completed"),
	}

	for _, duration := range []int{15, 30, 45, 60, 90} {
		slots, err := GenerateSlots(monday, duration, 15, hours, existing, distantPast)
		if err != nil {
			t.Fatalf("GenerateSlots(%dm): %v", duration, err)
		}
		for _, s := range slots {
			start, err := ToMinutes(s)
			if err != nil {
				t.Fatalf("generated slot %q unparseable: %v", s, err)
			}
			if HasConflict(Candidate{StartMinutes: start, DurationMinutes: duration}, existing) {
				t.Errorf("offered slot %s (%dm) conflicts with existing bookings", s, duration)
			}
			ok, err := hours.Contains(monday, start, duration)
			if err != nil || !ok {
				t.Errorf("offered slot %s (%dm) escapes working hours (ok=%v err=%v)", s, duration, ok, err)
			}
		}
	}
}
