package util

import "time"

// PreviousMonth returns the year and month for the previous month.
func PreviousMonth(year, month int) (int, int) {
	if month == 1 {
		return year - 1, 12
	}
	return year, month - 1
}

// MonthBounds returns the first instant of the given month and the first
// instant of the following month, for half-open range queries.
func MonthBounds(year, month int) (time.Time, time.Time) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// AddWeeks returns base shifted forward by n weeks.
func AddWeeks(base time.Time, n int) time.Time {
	return base.AddDate(0, 0, 7*n)
}

// AddMonths returns base shifted forward by n calendar months, keeping the
// day-of-month where it exists and normalizing overflow (Jan 31 + 1 month
// lands in early March, same as plain calendar arithmetic).
func AddMonths(base time.Time, n int) time.Time {
	return base.AddDate(0, n, 0)
}
