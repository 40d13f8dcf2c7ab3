package leave

import "time"

// WorkingDays counts the Monday-to-Friday days in the inclusive range
// [start, end]. Public holidays are not consulted. A reversed range
// yields zero; callers validate date order before relying on the count.
func WorkingDays(start, end time.Time) int {
	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			days++
		}
	}
	return days
}

// Overlaps is the closed-interval intersection test used for conflict
// detection: aStart <= bEnd AND aEnd >= bStart.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}
