/*
Package payroll generates payroll due dates per calendar month.

PURPOSE:
  A payroll period is a calendar month, keyed "yyyy-MM". For each period the
  engine computes, once, every due date any payroll account could need:
  weekly, bi-weekly, semi-monthly and monthly pay dates, the matching payout
  dates, and the PD7A remittance dates. That row (the Lookup) is cached and
  shared; each payroll account then picks the subset for its own cycle.

KEY CONCEPTS:
  - Period:    the (year, month) key, with forward/backward stepping
  - Lookup:    the shared per-period due-date row (lookup.go)
  - Generator: idempotent lookup creation and per-account expansion
               (generator.go)

SEE ALSO:
  - calendar/calendar.go: month arithmetic
  - store/sqlite/payroll.go: persistence of lookups and records
*/
package payroll

import (
	"fmt"
	"iter"
	"regexp"
	"strconv"
	"time"

	"github.com/ledgerdesk/filing-engine/calendar"
	"github.com/ledgerdesk/filing-engine/filing"
)

// =============================================================================
// PERIOD KEY
// =============================================================================

// Period identifies one calendar month of payroll.
type Period struct {
	Year  int
	Month time.Month
}

var periodPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// ParsePeriod parses a "yyyy-MM" key. Anything else, including a month
// outside 01-12, is an InvalidPeriodFormatError.
func ParsePeriod(s string) (Period, error) {
	m := periodPattern.FindStringSubmatch(s)
	if m == nil {
		return Period{}, &filing.InvalidPeriodFormatError{Input: s}
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return Period{}, &filing.InvalidPeriodFormatError{Input: s}
	}
	return Period{Year: year, Month: time.Month(month)}, nil
}

// MustParsePeriod is ParsePeriod for literals. It panics on bad input.
func MustParsePeriod(s string) Period {
	p, err := ParsePeriod(s)
	if err != nil {
		panic(err)
	}
	return p
}

// PeriodOf returns the period containing t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Start is the first day of the period.
func (p Period) Start() time.Time { return calendar.Date(p.Year, p.Month, 1) }

// End is the last day of the period.
func (p Period) End() time.Time { return calendar.LastDayOfMonth(p.Start()) }

// Contains reports whether t falls in the period.
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && t.Month() == p.Month
}

// Next returns the following month, rolling December into January.
func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

// Previous returns the preceding month, rolling January back to December.
func (p Period) Previous() Period {
	if p.Month == time.January {
		return Period{Year: p.Year - 1, Month: time.December}
	}
	return Period{Year: p.Year, Month: p.Month - 1}
}

// =============================================================================
// SEQUENCES
// =============================================================================

// NextPeriods yields the count periods after p, ascending. The sequence is
// lazy and can be ranged over any number of times.
func NextPeriods(p Period, count int) iter.Seq[Period] {
	return step(p, count, Period.Next)
}

// PreviousPeriods yields the count periods before p, most recent first.
func PreviousPeriods(p Period, count int) iter.Seq[Period] {
	return step(p, count, Period.Previous)
}

func step(p Period, count int, move func(Period) Period) iter.Seq[Period] {
	return func(yield func(Period) bool) {
		cur := p
		for i := 0; i < count; i++ {
			cur = move(cur)
			if !yield(cur) {
				return
			}
		}
	}
}

// Keys collects a period sequence into "yyyy-MM" strings.
func Keys(seq iter.Seq[Period]) []string {
	var out []string
	for p := range seq {
		out = append(out, p.String())
	}
	return out
}
