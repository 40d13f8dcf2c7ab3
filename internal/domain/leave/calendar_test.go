package leave

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWorkingDaysSingleDay(t *testing.T) {
	monday := date(2024, time.January, 1)
	if got := WorkingDays(monday, monday); got != 1 {
		t.Fatalf("expected 1 working day for a Monday, got %d", got)
	}

	sunday := date(2024, time.January, 7)
	if got := WorkingDays(sunday, sunday); got != 0 {
		t.Fatalf("expected 0 working days for a Sunday, got %d", got)
	}
}

func TestWorkingDaysFullWeek(t *testing.T) {
	// Mon Jan 1 through Sun Jan 7 2024 spans one weekend.
	if got := WorkingDays(date(2024, time.January, 1), date(2024, time.January, 7)); got != 5 {
		t.Fatalf("expected 5 working days, got %d", got)
	}
}

func TestWorkingDaysSpanningTwoWeekends(t *testing.T) {
	// Fri Jan 5 through Mon Jan 15 2024: 5+2 weekdays.
	if got := WorkingDays(date(2024, time.January, 5), date(2024, time.January, 15)); got != 7 {
		t.Fatalf("expected 7 working days, got %d", got)
	}
}

func TestWorkingDaysReversedRange(t *testing.T) {
	if got := WorkingDays(date(2024, time.March, 10), date(2024, time.March, 1)); got != 0 {
		t.Fatalf("expected 0 for reversed range, got %d", got)
	}
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                           string
		aStart, aEnd, bStart, bEnd     time.Time
		want                           bool
	}{
		{"identical", date(2024, 1, 1), date(2024, 1, 5), date(2024, 1, 1), date(2024, 1, 5), true},
		{"touching end", date(2024, 1, 1), date(2024, 1, 5), date(2024, 1, 5), date(2024, 1, 9), true},
		{"contained", date(2024, 1, 1), date(2024, 1, 10), date(2024, 1, 3), date(2024, 1, 4), true},
		{"disjoint before", date(2024, 1, 1), date(2024, 1, 5), date(2024, 1, 6), date(2024, 1, 9), false},
		{"disjoint after", date(2024, 1, 10), date(2024, 1, 12), date(2024, 1, 1), date(2024, 1, 9), false},
	}
	for _, tc := range cases {
		if got := Overlaps(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
