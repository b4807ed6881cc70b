package filing

import (
	"time"

	"github.com/ledgerdesk/filing-engine/calendar"
)

// NextInstalmentDueDate is the business instalment rule (HST, Corporation):
// the last day of the month four months after the account's current ending
// period.
func NextInstalmentDueDate(currentEndingPeriod time.Time) time.Time {
	return calendar.LastDayOfMonth(calendar.AddMonths(calendar.Normalize(currentEndingPeriod), 4))
}

// InstalmentPeriodEnd is the month end of the period an instalment due on
// due covers, four months before it.
func InstalmentPeriodEnd(due time.Time) time.Time {
	return calendar.LastDayOfMonth(calendar.AddMonths(calendar.Normalize(due), -4))
}

// NextBusinessInstalment returns the instalment due date that follows
// currentDue. When the account's ending period already points past
// currentDue that date wins; otherwise the instalment moves to the filing
// period after the one currentDue covers. The result is always after
// currentDue.
func NextBusinessInstalment(accountType TaxAccountType, cycle FilingCycle, endingPeriod, currentDue time.Time) (time.Time, error) {
	next := NextInstalmentDueDate(endingPeriod)
	if currentDue.IsZero() || next.After(currentDue) {
		return next, nil
	}
	followingEnd, _, err := NextTaxDueDates(accountType, InstalmentPeriodEnd(currentDue), cycle, false)
	if err != nil {
		return time.Time{}, err
	}
	return NextInstalmentDueDate(followingEnd), nil
}

// PersonalInstalmentDueDate is March 15 of the year after today. The input
// only supplies "the current year".
func PersonalInstalmentDueDate(today time.Time) time.Time {
	return calendar.Date(today.Year()+1, time.March, 15)
}

// NextPersonalFilingPeriod rolls a personal return forward one tax year.
// Returns are due April 30; self-employed filers have until June 15.
func NextPersonalFilingPeriod(currentEndingPeriod time.Time, selfEmployed bool) (time.Time, time.Time) {
	year := currentEndingPeriod.Year() + 1
	return calendar.Date(year, time.December, 31), PersonalFilingDueDate(year, selfEmployed)
}

// PersonalFilingDueDate returns the due date of the return for taxYear.
func PersonalFilingDueDate(taxYear int, selfEmployed bool) time.Time {
	if selfEmployed {
		return calendar.Date(taxYear+1, time.June, 15)
	}
	return calendar.Date(taxYear+1, time.April, 30)
}
