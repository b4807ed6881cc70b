package filing

import (
	"fmt"
	"time"

	"github.com/ledgerdesk/filing-engine/calendar"
)

// NextClientPaymentDueDate steps a client payment's due date one cycle forward.
//
// Semi-monthly payments alternate between mid-month (DaysInMonth/2) and the
// last day of the month, the same two dates semi-monthly payroll uses.
// CycleNone has no next date; callers deactivate the payment instead.
func NextClientPaymentDueDate(cycle FilingCycle, dueDate time.Time) (time.Time, error) {
	due := calendar.Normalize(dueDate)
	switch cycle {
	case CycleWeekly:
		return calendar.AddDays(due, 7), nil
	case CycleBiWeekly:
		return calendar.AddDays(due, 14), nil
	case CycleSemiMonthly:
		if mid := calendar.MidMonth(due); due.Before(mid) {
			return mid, nil
		}
		if end := calendar.LastDayOfMonth(due); due.Before(end) {
			return end, nil
		}
		return calendar.MidMonth(calendar.AddMonths(calendar.FirstDayOfMonth(due), 1)), nil
	case CycleMonthly:
		return calendar.AddMonths(due, 1), nil
	case CycleBiMonthly:
		return calendar.AddMonths(due, 2), nil
	case CycleQuarterly:
		return calendar.AddMonths(due, 3), nil
	case CycleAnnually:
		return calendar.AddYears(due, 1), nil
	default:
		return time.Time{}, fmt.Errorf("client payment: %w", ErrInvalidFilingCycle)
	}
}
