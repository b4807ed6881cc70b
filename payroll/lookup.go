package payroll

import (
	"fmt"
	"time"

	"github.com/ledgerdesk/filing-engine/calendar"
	"github.com/ledgerdesk/filing-engine/filing"
)

// Epoch anchors bi-weekly and weekly pay dates: every such pay date is a
// whole number of steps away from it.
var Epoch = calendar.Date(2021, time.March, 12)

// PayoutWeekday is the day money is disbursed for weekly and bi-weekly payroll.
const PayoutWeekday = time.Friday

// accountPayroll labels payroll in cycle errors.
const accountPayroll filing.TaxAccountType = "payroll"

// Cycles lists the payroll cycles a lookup carries, shortest first.
var Cycles = []filing.FilingCycle{
	filing.CycleWeekly,
	filing.CycleBiWeekly,
	filing.CycleSemiMonthly,
	filing.CycleMonthly,
}

// =============================================================================
// LOOKUP
// =============================================================================

// Schedule is the pay dates of one cycle within a period and the matching
// payout dates, index for index.
type Schedule struct {
	DueDates    []time.Time `json:"due_dates"`
	PayoutDates []time.Time `json:"payout_dates"`
}

// Lookup is the shared due-date row for one payroll period.
type Lookup struct {
	Period         Period
	PreviousPeriod Period
	Schedules      map[filing.FilingCycle]Schedule

	// PD7A remittance. Quarterly is nil outside January, April, July and October.
	PD7AMonthlyDueDate   time.Time
	PD7AQuarterlyDueDate *time.Time

	CreatedAt time.Time
}

// GenerateLookup computes the lookup row for a period. It is pure; caching
// is the Generator's job.
func GenerateLookup(p Period) Lookup {
	l := Lookup{
		Period:             p,
		PreviousPeriod:     p.Previous(),
		Schedules:          make(map[filing.FilingCycle]Schedule, len(Cycles)),
		PD7AMonthlyDueDate: PD7AMonthlyDueDate(p),
	}
	if q, ok := PD7AQuarterlyDueDate(p); ok {
		l.PD7AQuarterlyDueDate = &q
	}
	for _, cycle := range Cycles {
		due, _ := DueDates(p, cycle)
		payouts := make([]time.Time, len(due))
		for i, dd := range due {
			payouts[i] = PayoutDate(cycle, dd)
		}
		l.Schedules[cycle] = Schedule{DueDates: due, PayoutDates: payouts}
	}
	return l
}

// ScheduleFor returns the cycle's schedule from the lookup.
func (l Lookup) ScheduleFor(cycle filing.FilingCycle) (Schedule, error) {
	s, ok := l.Schedules[cycle]
	if !ok {
		return Schedule{}, &filing.InvalidFilingCycleError{AccountType: accountPayroll, Cycle: cycle}
	}
	return s, nil
}

// PD7ADueDate returns the remittance date for a remittance cycle, or nil when
// the account does not remit this period.
func (l Lookup) PD7ADueDate(remittance filing.FilingCycle) *time.Time {
	switch remittance {
	case filing.CycleMonthly:
		d := l.PD7AMonthlyDueDate
		return &d
	case filing.CycleQuarterly:
		if l.PD7AQuarterlyDueDate == nil {
			return nil
		}
		d := *l.PD7AQuarterlyDueDate
		return &d
	default:
		return nil
	}
}

// =============================================================================
// DUE DATE RULES
// =============================================================================

// DueDates returns the pay dates of a cycle within period p.
//
//	Monthly:     last day of the month
//	SemiMonthly: day DaysInMonth/2 and the last day
//	BiWeekly:    Epoch + 14n landing in the month (2 or 3 dates)
//	Weekly:      Epoch + 7n landing in the month (4 or 5 dates)
func DueDates(p Period, cycle filing.FilingCycle) ([]time.Time, error) {
	switch cycle {
	case filing.CycleMonthly:
		return []time.Time{p.End()}, nil
	case filing.CycleSemiMonthly:
		return []time.Time{calendar.MidMonth(p.Start()), p.End()}, nil
	case filing.CycleBiWeekly:
		return anchoredDates(p, 14), nil
	case filing.CycleWeekly:
		return anchoredDates(p, 7), nil
	default:
		return nil, &filing.InvalidFilingCycleError{AccountType: accountPayroll, Cycle: cycle}
	}
}

// anchoredDates steps from Epoch in stepDays increments to the first date on
// or after the start of p, then collects every step inside the month.
func anchoredDates(p Period, stepDays int) []time.Time {
	start := p.Start()
	offset := calendar.DaysBetween(Epoch, start)
	steps := offset / stepDays
	if offset > 0 && offset%stepDays != 0 {
		steps++
	}

	var out []time.Time
	for d := calendar.AddDays(Epoch, steps*stepDays); p.Contains(d); d = calendar.AddDays(d, stepDays) {
		out = append(out, d)
	}
	return out
}

// PayoutDate is the day money goes out for a pay date: the first Friday
// strictly after it for weekly and bi-weekly payroll, the pay date itself
// otherwise.
func PayoutDate(cycle filing.FilingCycle, due time.Time) time.Time {
	switch cycle {
	case filing.CycleWeekly, filing.CycleBiWeekly:
		return calendar.NextWeekdayAfter(due, PayoutWeekday)
	default:
		return calendar.Normalize(due)
	}
}

// PD7AMonthlyDueDate is day DaysInMonth/2 of the period.
func PD7AMonthlyDueDate(p Period) time.Time {
	return calendar.MidMonth(p.Start())
}

// PD7AQuarterlyDueDate is the 15th of January, April, July and October.
// Other months have no quarterly remittance.
func PD7AQuarterlyDueDate(p Period) (time.Time, bool) {
	switch p.Month {
	case time.January, time.April, time.July, time.October:
		return calendar.Date(p.Year, p.Month, 15), true
	default:
		return time.Time{}, false
	}
}

func (l Lookup) String() string {
	return fmt.Sprintf("payroll lookup %s (%d cycles)", l.Period, len(l.Schedules))
}
