/*
Package calendar provides the date primitives the due-date rules are built on.

PURPOSE:
  Every filing and payroll rule is expressed in terms of a handful of
  month-level operations: "last day of the month", "20th of next month",
  "three months later". They live here so the rule tables read like the
  rules themselves.

CONVENTIONS:
  - All dates are civil dates: midnight UTC, no time-of-day component.
    Use Date() or Normalize() to build one.
  - AddMonths/AddYears clamp to the last day of the target month
    (Jan 31 + 1 month = Feb 28/29), unlike time.AddDate which overflows
    into the following month.

SEE ALSO:
  - filing/rules.go: tax due-date table
  - payroll/lookup.go: payroll due-date generation
*/
package calendar

import "time"

// Layout is the wire format for civil dates.
const Layout = "2006-01-02"

// =============================================================================
// CONSTRUCTION
// =============================================================================

// Date returns midnight UTC of the given civil date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Normalize drops the time-of-day and location of t, keeping its calendar date.
func Normalize(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// Parse parses a YYYY-MM-DD date.
func Parse(s string) (time.Time, error) {
	t, err := time.Parse(Layout, s)
	if err != nil {
		return time.Time{}, err
	}
	return Normalize(t), nil
}

// MustParse is Parse for literals in tests and tables. It panics on bad input.
func MustParse(s string) time.Time {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Format renders a civil date as YYYY-MM-DD.
func Format(t time.Time) string { return t.Format(Layout) }

// =============================================================================
// MONTH BOUNDARIES
// =============================================================================

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// FirstDayOfMonth returns the 1st of t's month.
func FirstDayOfMonth(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), 1)
}

// LastDayOfMonth returns the last calendar day of t's month.
func LastDayOfMonth(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), DaysInMonth(t.Year(), t.Month()))
}

// LastDayOfNextMonth returns the last day of the month following t's month.
func LastDayOfNextMonth(t time.Time) time.Time {
	return LastDayOfMonth(Date(t.Year(), t.Month()+1, 1))
}

// Day20OfNextMonth returns the 20th of the month following t's month.
func Day20OfNextMonth(t time.Time) time.Time {
	return Date(t.Year(), t.Month()+1, 20)
}

// MidMonth returns day DaysInMonth/2 (integer division) of t's month.
func MidMonth(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), DaysInMonth(t.Year(), t.Month())/2)
}

// =============================================================================
// ARITHMETIC
// =============================================================================

// AddMonths adds n months to t, clamping the day to the target month's length.
func AddMonths(t time.Time, n int) time.Time {
	first := Date(t.Year(), t.Month()+time.Month(n), 1)
	day := t.Day()
	if last := DaysInMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return Date(first.Year(), first.Month(), day)
}

// AddYears adds n years to t. Feb 29 lands on Feb 28 in a common year.
func AddYears(t time.Time, n int) time.Time {
	return AddMonths(t, 12*n)
}

// AddDays adds n days to t.
func AddDays(t time.Time, n int) time.Time {
	return Normalize(t).AddDate(0, 0, n)
}

// NextWeekdayAfter returns the first date strictly after t falling on wd.
func NextWeekdayAfter(t time.Time, wd time.Weekday) time.Time {
	d := AddDays(t, 1)
	for d.Weekday() != wd {
		d = AddDays(d, 1)
	}
	return d
}

// DaysBetween returns the whole days from `from` to `to` (negative if to is earlier).
func DaysBetween(from, to time.Time) int {
	return int(Normalize(to).Sub(Normalize(from)).Hours() / 24)
}
