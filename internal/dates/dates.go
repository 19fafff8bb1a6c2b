// Package dates provides calendar-month arithmetic in the application's
// reference timezone. All budget dates are normalized here so that a budget
// created on the first of a month never drifts into the previous day when
// stored or compared.
package dates

import "time"

// referenceTZ is the fixed timezone all budget dates are normalized to.
const referenceTZ = "America/Santiago"

var location *time.Location

func init() {
	loc, err := time.LoadLocation(referenceTZ)
	if err != nil {
		loc = time.UTC
	}
	location = loc
}

// Location returns the reference timezone.
func Location() *time.Location {
	return location
}

// monthNames are the Spanish month names used in generated budget names.
var monthNames = [12]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthName returns the Spanish name of the given month.
func MonthName(m time.Month) string {
	return monthNames[m-1]
}

// StartOfDay normalizes a date to midnight in the reference timezone.
func StartOfDay(t time.Time) time.Time {
	t = t.In(location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, location)
}

// EndOfDay normalizes a date to the last instant of its day in the
// reference timezone.
func EndOfDay(t time.Time) time.Time {
	t = t.In(location)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, location)
}

// MonthRange returns the first and last instant of the given calendar month.
func MonthRange(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, location)
	// Day 0 of the next month is the last day of this month.
	last := time.Date(year, month+1, 0, 23, 59, 59, 999999999, location)
	return start, last
}

// MonthWindow returns the first and last instant of the month that is
// offset months after t's month. time.Date normalizes out-of-range months,
// so December + 1 rolls into January of the next year.
func MonthWindow(t time.Time, offset int) (time.Time, time.Time) {
	t = t.In(location)
	return MonthRange(t.Year(), t.Month()+time.Month(offset))
}

// CurrentYearMonth returns the current year and month in the reference
// timezone.
func CurrentYearMonth() (int, time.Month) {
	now := time.Now().In(location)
	return now.Year(), now.Month()
}

// StartOfCurrentMonth returns the first instant of the current month.
func StartOfCurrentMonth() time.Time {
	year, month := CurrentYearMonth()
	start, _ := MonthRange(year, month)
	return start
}
