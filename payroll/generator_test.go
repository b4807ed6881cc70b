package payroll_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerdesk/filing-engine/filing"
	"github.com/ledgerdesk/filing-engine/payroll"
	"github.com/ledgerdesk/filing-engine/store/memory"
)

func newGenerator(store payroll.Store) *payroll.Generator {
	g := payroll.NewGenerator(store, nil)
	tick := time.Date(2024, time.August, 20, 9, 0, 0, 0, time.UTC)
	g.Now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}
	return g
}

func seedAccounts(t *testing.T, store payroll.Store, accounts ...payroll.Account) {
	t.Helper()
	for _, a := range accounts {
		require.NoError(t, store.SavePayrollAccount(context.Background(), a))
	}
}

func TestGeneratePeriodLookup_Idempotent(t *testing.T) {
	// GIVEN: an empty store
	ctx := context.Background()
	g := newGenerator(memory.New())

	// WHEN: the same period is generated twice
	first, err := g.GeneratePeriodLookup(ctx, "2024-09")
	require.NoError(t, err)
	second, err := g.GeneratePeriodLookup(ctx, "2024-09")
	require.NoError(t, err)

	// THEN: the stored row is reused unchanged
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, first.Schedules, second.Schedules)
	assert.Equal(t, d("2024-09-15"), second.PD7AMonthlyDueDate)
}

func TestGeneratePeriodLookup_BadKey(t *testing.T) {
	_, err := newGenerator(memory.New()).GeneratePeriodLookup(context.Background(), "2024-9")
	assert.ErrorIs(t, err, filing.ErrInvalidPeriodFormat)
	assert.True(t, filing.IsClientError(err))
}

func TestGenerateRecords_OverwriteFlag(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedAccounts(t, store,
		payroll.Account{ID: "a", Cycle: filing.CycleBiWeekly, Remittance: filing.CycleMonthly, IsActive: true},
		payroll.Account{ID: "b", Cycle: filing.CycleSemiMonthly, Remittance: filing.CycleQuarterly, IsActive: true},
		payroll.Account{ID: "c", Cycle: filing.CycleMonthly, IsActive: false},
	)
	g := newGenerator(store)
	p := payroll.MustParsePeriod("2024-10")

	// First run writes every active account.
	res, err := g.GenerateRecords(ctx, p, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.Generated)
	assert.Empty(t, res.Skipped)
	assert.Empty(t, res.Failed)

	first, err := store.GetPayrollRecord(ctx, "a", p)
	require.NoError(t, err)
	require.NotNil(t, first)

	// Second run without overwrite leaves them alone.
	res, err = g.GenerateRecords(ctx, p, false)
	require.NoError(t, err)
	assert.Empty(t, res.Generated)
	assert.Equal(t, []string{"a", "b"}, res.Skipped)

	again, err := store.GetPayrollRecord(ctx, "a", p)
	require.NoError(t, err)
	assert.Equal(t, first.GeneratedAt, again.GeneratedAt)

	// Overwrite regenerates.
	res, err = g.GenerateRecords(ctx, p, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.Generated)

	again, err = store.GetPayrollRecord(ctx, "a", p)
	require.NoError(t, err)
	assert.True(t, again.GeneratedAt.After(first.GeneratedAt))
	assert.Equal(t, first.DueDates, again.DueDates)

	inactive, err := store.GetPayrollRecord(ctx, "c", p)
	require.NoError(t, err)
	assert.Nil(t, inactive)

	quarterly, err := store.GetPayrollRecord(ctx, "b", p)
	require.NoError(t, err)
	require.NotNil(t, quarterly.PD7ADueDate)
	assert.Equal(t, d("2024-10-15"), *quarterly.PD7ADueDate)
}

func TestGenerateRecords_FailureIsolated(t *testing.T) {
	// An account saved with a cycle payroll does not support fails alone.
	ctx := context.Background()
	store := memory.New()
	seedAccounts(t, store,
		payroll.Account{ID: "good", Cycle: filing.CycleWeekly, IsActive: true},
		payroll.Account{ID: "bad", Cycle: filing.CycleAnnually, IsActive: true},
	)

	res, err := newGenerator(store).GenerateRecords(ctx, payroll.MustParsePeriod("2024-03"), false)
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, res.Generated)
	require.Contains(t, res.Failed, "bad")
	assert.ErrorIs(t, res.Failed["bad"], filing.ErrInvalidFilingCycle)

	rec, err := store.GetPayrollRecord(ctx, "good", payroll.MustParsePeriod("2024-03"))
	require.NoError(t, err)
	assert.Len(t, rec.DueDates, 5)
}

func TestGenerateRecord(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seedAccounts(t, store, payroll.Account{ID: "a", Cycle: filing.CycleBiWeekly, IsActive: true})
	g := newGenerator(store)
	p := payroll.MustParsePeriod("2024-03")

	rec, written, err := g.GenerateRecord(ctx, "a", p, false)
	require.NoError(t, err)
	assert.True(t, written)
	assert.Equal(t, dates("2024-03-08", "2024-03-22"), rec.DueDates)

	_, written, err = g.GenerateRecord(ctx, "a", p, false)
	require.NoError(t, err)
	assert.False(t, written)

	_, _, err = g.GenerateRecord(ctx, "missing", p, false)
	assert.True(t, filing.IsNotFound(err))
	assert.EqualError(t, err, "PayrollAccountId:missing not found")
}
