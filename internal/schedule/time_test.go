package schedule

import (
	"errors"
	"testing"
)

func TestToMinutes(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"00:00", 0},
		{"08:00", 480},
		{"09:30", 570},
		{"17:30", 1050},
		{"23:59", 1439},
	}
	for _, tc := range cases {
		got, err := ToMinutes(tc.in)
		if err != nil {
			t.Fatalf("ToMinutes(%q) returned error: %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ToMinutes(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestToMinutesRejectsMalformedInput(t *testing.T) {
	bad := []string{
		"",
		"9:00",   // not zero padded
		"09.00",  // wrong separator
		"24:00",  // hour out of range
		"12:60",  // minute out of range
		"ab:cd",  // non numeric
		"09:0a",  // trailing garbage
		"09:000", // too long
		"-1:00",
	}
	for _, in := range bad {
		if _, err := ToMinutes(in); !errors.Is(err, ErrInvalidTimeFormat) {
			t.Errorf("ToMinutes(%q) = %v, want ErrInvalidTimeFormat", in, err)
		}
	}
}

func TestFormatMinutesRoundTrip(t *testing.T) {
	for _, m := range []int{0, 480, 570, 1050, 1439} {
		got, err := ToMinutes(FormatMinutes(m))
		if err != nil {
			t.Fatalf("round trip of %d failed: %v", m, err)
		}
		if got != m {
			t.Errorf("round trip of %d yielded %d", m, got)
		}
	}
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd int
		want                       bool
	}{
		{"disjoint", 540, 570, 600, 630, false},
		{"touching boundary is not overlap", 540, 570, 570, 600, false},
		{"contained", 540, 600, 555, 565, true},
		{"partial", 540, 600, 570, 630, true},
		{"identical", 540, 600, 540, 600, true},
		{"zero duration never overlaps", 540, 540, 500, 600, false},
		{"against zero duration", 500, 600, 540, 540, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
				t.Errorf("Overlaps(%d,%d,%d,%d) = %v, want %v", tc.aStart, tc.aEnd, tc.bStart, tc.bEnd, got, tc.want)
			}
			// Overlap is symmetric.
			if got := Overlaps(tc.bStart, tc.bEnd, tc.aStart, tc.aEnd); got != tc.want {
				t.Errorf("Overlaps(%d,%d,%d,%d) = %v, want %v", tc.bStart, tc.bEnd, tc.aStart, tc.aEnd, got, tc.want)
			}
		})
	}
}
