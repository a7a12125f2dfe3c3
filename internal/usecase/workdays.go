package usecase

import "time"

// WorkdaysBetween counts the Monday-Friday dates from start to end, both
// inclusive. Only the calendar date of each argument is considered.
// An inverted range counts zero days.
func WorkdaysBetween(start, end time.Time) int {
	workdays := 0
	last := dateOf(end)
	for day := dateOf(start); !day.After(last); day = day.AddDate(0, 0, 1) {
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			workdays++
		}
	}
	return workdays
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
