package civil

import "time"

// IsLeap reports whether year is a Gregorian leap year.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// LastDayOfMonth returns the number of days in month of year.
func LastDayOfMonth(year int, month time.Month) int {
	switch month {
	case time.February:
		if IsLeap(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

// ClampDay maps day into month of year. LastDay selects the last day of the
// month and days past the end of the month fall back to the last day.
// Days below 1 (other than LastDay) are raised to 1.
func ClampDay(year int, month time.Month, day int) int {
	last := LastDayOfMonth(year, month)
	switch {
	case day == LastDay, day > last:
		return last
	case day < 1:
		return 1
	}
	return day
}

// FloorDiv divides rounding toward negative infinity.
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FloorDiv64 is FloorDiv for int64.
func FloorDiv64(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// Mod returns a modulo b with the sign of b, so Mod(-1, 7) is 6.
func Mod(a, b int) int {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}
