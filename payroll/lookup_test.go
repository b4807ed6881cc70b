package payroll_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerdesk/filing-engine/calendar"
	"github.com/ledgerdesk/filing-engine/filing"
	"github.com/ledgerdesk/filing-engine/payroll"
)

func d(s string) time.Time { return calendar.MustParse(s) }

func dates(ss ...string) []time.Time {
	out := make([]time.Time, len(ss))
	for i, s := range ss {
		out[i] = d(s)
	}
	return out
}

// =============================================================================
// DUE DATES PER CYCLE
// =============================================================================

func TestDueDates_Monthly(t *testing.T) {
	got, err := payroll.DueDates(payroll.MustParsePeriod("2024-02"), filing.CycleMonthly)
	require.NoError(t, err)
	assert.Equal(t, dates("2024-02-29"), got)
}

func TestDueDates_SemiMonthly(t *testing.T) {
	tests := map[string][]time.Time{
		"2024-02": dates("2024-02-14", "2024-02-29"),
		"2023-02": dates("2023-02-14", "2023-02-28"),
		"2024-03": dates("2024-03-15", "2024-03-31"),
		"2024-04": dates("2024-04-15", "2024-04-30"),
	}
	for key, want := range tests {
		got, err := payroll.DueDates(payroll.MustParsePeriod(key), filing.CycleSemiMonthly)
		require.NoError(t, err)
		assert.Equal(t, want, got, key)
	}
}

func TestDueDates_BiWeekly_AnchoredOnEpoch(t *testing.T) {
	// GIVEN: the epoch 2021-03-12
	// WHEN: generating March 2024
	// THEN: the first date is the epoch plus whole fortnights, inside March
	got, err := payroll.DueDates(payroll.MustParsePeriod("2024-03"), filing.CycleBiWeekly)
	require.NoError(t, err)
	assert.Equal(t, dates("2024-03-08", "2024-03-22"), got)

	for _, due := range got {
		assert.Zero(t, calendar.DaysBetween(payroll.Epoch, due)%14)
	}
}

func TestDueDates_BiWeekly_TwoOrThree(t *testing.T) {
	got, err := payroll.DueDates(payroll.MustParsePeriod("2024-05"), filing.CycleBiWeekly)
	require.NoError(t, err)
	assert.Equal(t, dates("2024-05-03", "2024-05-17", "2024-05-31"), got)

	// Every month across several years yields 2 or 3 fortnightly dates, each
	// exactly 14 days after the previous one, continuing across month ends.
	var prev time.Time
	for p := range payroll.NextPeriods(payroll.MustParsePeriod("2021-02"), 60) {
		got, err := payroll.DueDates(p, filing.CycleBiWeekly)
		require.NoError(t, err)
		require.True(t, len(got) == 2 || len(got) == 3, "%s has %d dates", p, len(got))
		for _, due := range got {
			assert.True(t, p.Contains(due))
			if !prev.IsZero() {
				assert.Equal(t, 14, calendar.DaysBetween(prev, due), "%s", p)
			}
			prev = due
		}
	}
}

func TestDueDates_BiWeekly_BeforeEpoch(t *testing.T) {
	got, err := payroll.DueDates(payroll.MustParsePeriod("2021-02"), filing.CycleBiWeekly)
	require.NoError(t, err)
	assert.Equal(t, dates("2021-02-12", "2021-02-26"), got)
}

func TestDueDates_Weekly(t *testing.T) {
	got, err := payroll.DueDates(payroll.MustParsePeriod("2024-03"), filing.CycleWeekly)
	require.NoError(t, err)
	assert.Equal(t, dates("2024-03-01", "2024-03-08", "2024-03-15", "2024-03-22", "2024-03-29"), got)
}

func TestDueDates_UnsupportedCycle(t *testing.T) {
	_, err := payroll.DueDates(payroll.MustParsePeriod("2024-03"), filing.CycleQuarterly)
	assert.ErrorIs(t, err, filing.ErrInvalidFilingCycle)
}

// =============================================================================
// PAYOUT AND PD7A
// =============================================================================

func TestPayoutDate(t *testing.T) {
	// A Friday pay date pays out the following Friday.
	assert.Equal(t, d("2024-03-15"), payroll.PayoutDate(filing.CycleBiWeekly, d("2024-03-08")))
	assert.Equal(t, d("2024-03-08"), payroll.PayoutDate(filing.CycleWeekly, d("2024-03-04")))
	assert.Equal(t, d("2024-02-29"), payroll.PayoutDate(filing.CycleSemiMonthly, d("2024-02-29")))
	assert.Equal(t, d("2024-03-31"), payroll.PayoutDate(filing.CycleMonthly, d("2024-03-31")))
}

func TestPD7A(t *testing.T) {
	assert.Equal(t, d("2024-09-15"), payroll.PD7AMonthlyDueDate(payroll.MustParsePeriod("2024-09")))
	assert.Equal(t, d("2023-02-14"), payroll.PD7AMonthlyDueDate(payroll.MustParsePeriod("2023-02")))

	for m := time.January; m <= time.December; m++ {
		p := payroll.Period{Year: 2024, Month: m}
		q, ok := payroll.PD7AQuarterlyDueDate(p)
		switch m {
		case time.January, time.April, time.July, time.October:
			require.True(t, ok, m.String())
			assert.Equal(t, calendar.Date(2024, m, 15), q)
		default:
			assert.False(t, ok, m.String())
		}
	}
}

// =============================================================================
// LOOKUP ROW
// =============================================================================

func TestGenerateLookup(t *testing.T) {
	l := payroll.GenerateLookup(payroll.MustParsePeriod("2024-03"))

	assert.Equal(t, payroll.MustParsePeriod("2024-02"), l.PreviousPeriod)
	assert.Len(t, l.Schedules, len(payroll.Cycles))

	bi, err := l.ScheduleFor(filing.CycleBiWeekly)
	require.NoError(t, err)
	assert.Equal(t, dates("2024-03-08", "2024-03-22"), bi.DueDates)
	assert.Equal(t, dates("2024-03-15", "2024-03-29"), bi.PayoutDates)
	for i, due := range bi.DueDates {
		payout := bi.PayoutDates[i]
		assert.Equal(t, time.Friday, payout.Weekday())
		assert.True(t, payout.After(due))
		assert.LessOrEqual(t, calendar.DaysBetween(due, payout), 7)
	}

	monthly, err := l.ScheduleFor(filing.CycleMonthly)
	require.NoError(t, err)
	assert.Equal(t, monthly.DueDates, monthly.PayoutDates)

	assert.Equal(t, d("2024-03-15"), l.PD7AMonthlyDueDate)
	assert.Nil(t, l.PD7AQuarterlyDueDate)

	_, err = l.ScheduleFor(filing.CycleAnnually)
	assert.ErrorIs(t, err, filing.ErrInvalidFilingCycle)
}

func TestLookup_PD7ADueDate(t *testing.T) {
	oct := payroll.GenerateLookup(payroll.MustParsePeriod("2024-10"))
	require.NotNil(t, oct.PD7ADueDate(filing.CycleQuarterly))
	assert.Equal(t, d("2024-10-15"), *oct.PD7ADueDate(filing.CycleQuarterly))
	assert.Equal(t, d("2024-10-15"), *oct.PD7ADueDate(filing.CycleMonthly))
	assert.Nil(t, oct.PD7ADueDate(filing.CycleNone))

	nov := payroll.GenerateLookup(payroll.MustParsePeriod("2024-11"))
	assert.Nil(t, nov.PD7ADueDate(filing.CycleQuarterly))
}

func TestRecordFor(t *testing.T) {
	l := payroll.GenerateLookup(payroll.MustParsePeriod("2024-05"))

	rec, err := payroll.RecordFor(payroll.Account{ID: "pa-1", Cycle: filing.CycleBiWeekly, Remittance: filing.CycleMonthly}, l)
	require.NoError(t, err)
	assert.Len(t, rec.DueDates, 3)
	assert.Len(t, rec.PayoutDates, 3)
	require.NotNil(t, rec.PD7ADueDate)
	assert.Equal(t, d("2024-05-15"), *rec.PD7ADueDate)

	rec, err = payroll.RecordFor(payroll.Account{ID: "pa-2", Cycle: filing.CycleMonthly, Remittance: filing.CycleQuarterly}, l)
	require.NoError(t, err)
	assert.Equal(t, dates("2024-05-31"), rec.DueDates)
	assert.Nil(t, rec.PD7ADueDate)

	_, err = payroll.RecordFor(payroll.Account{ID: "pa-3", Cycle: filing.CycleQuarterly}, l)
	assert.ErrorIs(t, err, filing.ErrInvalidFilingCycle)
}

func TestAccount_Validate(t *testing.T) {
	assert.NoError(t, payroll.Account{ID: "a", Cycle: filing.CycleWeekly, Remittance: filing.CycleNone}.Validate())
	assert.Error(t, payroll.Account{ID: "", Cycle: filing.CycleWeekly}.Validate())
	assert.Error(t, payroll.Account{ID: "a", Cycle: filing.CycleAnnually}.Validate())
	assert.Error(t, payroll.Account{ID: "a", Cycle: filing.CycleMonthly, Remittance: filing.CycleWeekly}.Validate())
}
