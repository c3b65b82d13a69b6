package contact

import (
	"time"
)

// NextOccurrence returns the next calendar recurrence of a birthday on or
// after today. The "already passed this year" check compares the fully
// constructed date against today; comparing month and day independently
// misfires near month boundaries.
//
// A Feb 29 birthday in a non-leap target year resolves to Mar 1.
func NextOccurrence(today time.Time, birthMonth time.Month, birthDay int) time.Time {
	occurrence := occurrenceInYear(today.Year(), birthMonth, birthDay, today.Location())
	if occurrence.Before(today) {
		occurrence = occurrenceInYear(today.Year()+1, birthMonth, birthDay, today.Location())
	}
	return occurrence
}

// InWindow reports whether the next recurrence of the birthday falls in
// the inclusive range [today, today+periodDays].
func InWindow(today time.Time, birthMonth time.Month, birthDay int, periodDays int) bool {
	today = truncateToDate(today)
	endOfPeriod := today.AddDate(0, 0, periodDays)

	next := NextOccurrence(today, birthMonth, birthDay)
	return !next.Before(today) && !next.After(endOfPeriod)
}

func occurrenceInYear(year int, month time.Month, day int, loc *time.Location) time.Time {
	if month == time.February && day == 29 && !isLeapYear(year) {
		return time.Date(year, time.March, 1, 0, 0, 0, 0, loc)
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
