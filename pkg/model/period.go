package model

import "time"

// PeriodKeyLayout formats period keys as zero-padded YYYY-MM.
const PeriodKeyLayout = "2006-01"

// PeriodKey returns the cooldown bucket key for the month containing t.
func PeriodKey(t time.Time) string {
	return t.UTC().Format(PeriodKeyLayout)
}

// PeriodBounds returns the first instant of the UTC month containing t and
// the first instant of the following month.
func PeriodBounds(t time.Time) (start, end time.Time) {
	t = t.UTC()
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0)
	return start, end
}

// DaysInPeriod returns the number of days in t's calendar month.
func DaysInPeriod(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// HoursIntoPeriod returns the hours elapsed since the start of t's UTC month.
func HoursIntoPeriod(t time.Time) float64 {
	start, _ := PeriodBounds(t)
	return t.UTC().Sub(start).Hours()
}
