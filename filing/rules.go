/*
rules.go - Tax due-date rule table

Each (account type, cycle) pair maps to one rule computing the next ending
period and its due date from the current ending period:

  HST          Annually   +1 year                       | next + 3 months
  HST          Quarterly  last day of (end + 3 months)  | last day of month after
  HST          Monthly    last day of next month        | last day of month after
  Corporation  Annually   +1 year                       | last day of (next + 3 months)
  ONT          Annually   +1 year                       | next + 1 month
  PST / LIQ    Annually   Dec 31 of (year + 1)          | Jan 20 of (that year + 1)
  PST / LIQ    Quarterly  last day of (end + 3 months)  | 20th of month after
  PST / LIQ    Monthly    last day of next month        | 20th of month after
  WSIB         Annually   Dec 31 of (year + 1)          | Apr 30 of (that year + 1)
  WSIB         Quarterly  last day of (end + 3 months)  | last day of month after
  WSIB         Monthly    last day of next month        | last day of month after

Any other pair is an InvalidFilingCycleError.
*/
package filing

import (
	"time"

	"github.com/ledgerdesk/filing-engine/calendar"
)

// dueDateRule maps the current ending period to (next ending period, next due date).
type dueDateRule func(endingPeriod time.Time) (time.Time, time.Time)

var taxRules = map[TaxAccountType]map[FilingCycle]dueDateRule{
	AccountHST: {
		CycleAnnually:  hstAnnual,
		CycleQuarterly: quarterEnd(calendar.LastDayOfNextMonth),
		CycleMonthly:   monthEnd(calendar.LastDayOfNextMonth),
	},
	AccountCorporation: {
		CycleAnnually: corporationAnnual,
	},
	AccountONT: {
		CycleAnnually: annualReturn,
	},
	AccountPST: {
		CycleAnnually:  yearEnd(time.January, 20),
		CycleQuarterly: quarterEnd(calendar.Day20OfNextMonth),
		CycleMonthly:   monthEnd(calendar.Day20OfNextMonth),
	},
	AccountLIQ: {
		CycleAnnually:  yearEnd(time.January, 20),
		CycleQuarterly: quarterEnd(calendar.Day20OfNextMonth),
		CycleMonthly:   monthEnd(calendar.Day20OfNextMonth),
	},
	AccountWSIB: {
		CycleAnnually:  yearEnd(time.April, 30),
		CycleQuarterly: quarterEnd(calendar.LastDayOfNextMonth),
		CycleMonthly:   monthEnd(calendar.LastDayOfNextMonth),
	},
}

// NextTaxDueDates returns the ending period and due date following endingPeriod.
//
// isSoleProprietorship is part of the rule key but no row of the business
// table currently depends on it; sole proprietors differ only on their
// personal return (see NextPersonalFilingPeriod).
func NextTaxDueDates(accountType TaxAccountType, endingPeriod time.Time, cycle FilingCycle, isSoleProprietorship bool) (nextEndingPeriod, nextDueDate time.Time, err error) {
	rules, ok := taxRules[accountType]
	if !ok {
		return time.Time{}, time.Time{}, &UnsupportedAccountTypeError{AccountType: accountType}
	}
	rule, ok := rules[cycle]
	if !ok {
		return time.Time{}, time.Time{}, &InvalidFilingCycleError{AccountType: accountType, Cycle: cycle}
	}
	nextEndingPeriod, nextDueDate = rule(calendar.Normalize(endingPeriod))
	return nextEndingPeriod, nextDueDate, nil
}

// ValidCycles returns the cycles accepted for an account type.
func ValidCycles(accountType TaxAccountType) []FilingCycle {
	var out []FilingCycle
	for _, c := range allCycles {
		if _, ok := taxRules[accountType][c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// RULE SHAPES
// =============================================================================

func hstAnnual(end time.Time) (time.Time, time.Time) {
	next := calendar.AddYears(end, 1)
	return next, calendar.AddMonths(next, 3)
}

func corporationAnnual(end time.Time) (time.Time, time.Time) {
	next := calendar.AddYears(end, 1)
	return next, calendar.LastDayOfMonth(calendar.AddMonths(next, 3))
}

func annualReturn(end time.Time) (time.Time, time.Time) {
	next := calendar.AddYears(end, 1)
	return next, calendar.AddMonths(next, 1)
}

// yearEnd rolls to Dec 31 of the following year, due on month/day of the year after.
func yearEnd(dueMonth time.Month, dueDay int) dueDateRule {
	return func(end time.Time) (time.Time, time.Time) {
		year := end.Year() + 1
		return calendar.Date(year, time.December, 31), calendar.Date(year+1, dueMonth, dueDay)
	}
}

// quarterEnd rolls three months forward to a month end; due is derived from that.
func quarterEnd(due func(time.Time) time.Time) dueDateRule {
	return func(end time.Time) (time.Time, time.Time) {
		next := calendar.LastDayOfMonth(calendar.AddMonths(end, 3))
		return next, due(next)
	}
}

// monthEnd rolls to the end of the next month; due is derived from that.
func monthEnd(due func(time.Time) time.Time) dueDateRule {
	return func(end time.Time) (time.Time, time.Time) {
		next := calendar.LastDayOfNextMonth(end)
		return next, due(next)
	}
}
