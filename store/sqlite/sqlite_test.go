package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerdesk/filing-engine/calendar"
	"github.com/ledgerdesk/filing-engine/confirm"
	"github.com/ledgerdesk/filing-engine/filing"
	"github.com/ledgerdesk/filing-engine/payroll"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func d(s string) time.Time { return calendar.MustParse(s) }

// =============================================================================
// LIVE RECORDS
// =============================================================================

func TestTaxAccount_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	due := d("2024-10-31")
	in := &filing.TaxAccount{
		ID:                 "hst-1",
		BusinessID:         "biz-1",
		Type:               filing.AccountHST,
		Period:             filing.FilingPeriod{EndingPeriod: d("2024-06-30"), DueDate: d("2024-07-31"), Cycle: filing.CycleQuarterly},
		SoleProprietorship: true,
		Instalment: filing.InstalmentSchedule{
			Required: true,
			Amount:   decimal.RequireFromString("1234.56"),
			DueDate:  &due,
		},
		PendingConfirmation: "call client",
	}
	require.NoError(t, store.SaveTaxAccount(ctx, in))

	got, err := store.GetTaxAccount(ctx, "hst-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, in.Period, got.Period)
	assert.Equal(t, filing.AccountHST, got.Type)
	assert.True(t, got.SoleProprietorship)
	assert.True(t, got.Instalment.Required)
	assert.True(t, decimal.RequireFromString("1234.56").Equal(got.Instalment.Amount))
	require.NotNil(t, got.Instalment.DueDate)
	assert.Equal(t, due, *got.Instalment.DueDate)
	assert.Equal(t, "call client", got.PendingConfirmation)
	assert.False(t, got.CreatedAt.IsZero())

	missing, err := store.GetTaxAccount(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := store.ListTaxAccounts(ctx, "biz-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestClientPaymentAndPersonal_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveClientPayment(ctx, &filing.ClientPayment{
		ID: "pay-1", BusinessID: "biz-1", Amount: decimal.NewFromInt(99),
		Cycle: filing.CycleSemiMonthly, DueDate: d("2024-02-14"), IsActive: true,
	}))
	p, err := store.GetClientPayment(ctx, "pay-1")
	require.NoError(t, err)
	assert.Equal(t, filing.CycleSemiMonthly, p.Cycle)
	assert.Equal(t, d("2024-02-14"), p.DueDate)
	assert.True(t, p.IsActive)

	require.NoError(t, store.SavePersonalTaxAccount(ctx, &filing.PersonalTaxAccount{
		ID: "t1-1", ClientID: "c-1", SelfEmployed: true, Progress: filing.ProgressSigned,
		Period: filing.FilingPeriod{EndingPeriod: d("2023-12-31"), DueDate: d("2024-06-15"), Cycle: filing.CycleAnnually},
	}))
	a, err := store.GetPersonalTaxAccount(ctx, "t1-1")
	require.NoError(t, err)
	assert.Equal(t, filing.ProgressSigned, a.Progress)
	assert.True(t, a.SelfEmployed)
	assert.Nil(t, a.Instalment.DueDate)
}

// =============================================================================
// CONFIRMATION THROUGH SQLITE
// =============================================================================

func TestConfirm_CommitsLogAndAdvance(t *testing.T) {
	// GIVEN: a WSIB annual account
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveTaxAccount(ctx, &filing.TaxAccount{
		ID: "wsib-1", BusinessID: "biz-1", Type: filing.AccountWSIB,
		Period: filing.FilingPeriod{EndingPeriod: d("2023-12-31"), DueDate: d("2024-04-30"), Cycle: filing.CycleAnnually},
	}))
	c := confirm.NewConfirmer(store, nil)

	// WHEN: the filing is confirmed
	_, entry, err := c.ConfirmTaxFiling(ctx, "wsib-1", confirm.Confirmation{
		UserID: "u-1", ConfirmedAt: time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC), Notes: "done",
	})
	require.NoError(t, err)

	// THEN: both the log and the advance are persisted
	got, err := store.GetTaxAccount(ctx, "wsib-1")
	require.NoError(t, err)
	assert.Equal(t, d("2024-12-31"), got.Period.EndingPeriod)
	assert.Equal(t, d("2025-04-30"), got.Period.DueDate)

	logs, err := store.Logs(ctx, "wsib-1", confirm.LogTaxFiling)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, entry.ID, logs[0].ID)
	assert.Equal(t, d("2023-12-31"), logs[0].EndingPeriod)
	assert.Equal(t, "done", logs[0].Notes)
	assert.Equal(t, entry.ConfirmedAt, logs[0].ConfirmedAt)
}

func TestConfirm_RuleFailureRollsBackLog(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveTaxAccount(ctx, &filing.TaxAccount{
		ID: "corp-1", BusinessID: "biz-1", Type: filing.AccountCorporation,
		Period: filing.FilingPeriod{EndingPeriod: d("2024-01-31"), DueDate: d("2024-02-29"), Cycle: filing.CycleMonthly},
	}))

	_, _, err := confirm.NewConfirmer(store, nil).ConfirmTaxFiling(ctx, "corp-1", confirm.Confirmation{UserID: "u-1"})
	assert.ErrorIs(t, err, filing.ErrInvalidFilingCycle)

	logs, err := store.Logs(ctx, "corp-1")
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestConfirmationLogs_AppendOnly(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	e := confirm.LogEntry{
		ID: "log-1", Kind: confirm.LogClientPayment, RecordID: "pay-1",
		DueDate: d("2024-03-01"), Cycle: filing.CycleWeekly, Amount: decimal.NewFromInt(50),
		ConfirmedBy: "u-1", ConfirmedAt: time.Now().UTC(),
	}
	require.NoError(t, store.AppendLog(ctx, e))

	err := store.AppendLog(ctx, e)
	assert.ErrorIs(t, err, ErrDuplicateLogEntry)

	_, err = store.db.ExecContext(ctx, "UPDATE confirmation_logs SET notes = 'edited' WHERE id = 'log-1'")
	assert.Error(t, err)
	_, err = store.db.ExecContext(ctx, "DELETE FROM confirmation_logs WHERE id = 'log-1'")
	assert.Error(t, err)

	logs, err := store.Logs(ctx, "pay-1")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.True(t, logs[0].EndingPeriod.IsZero())
	assert.Equal(t, d("2024-03-01"), logs[0].DueDate)
}

func TestLogs_KindFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, kind := range []confirm.LogKind{confirm.LogTaxFiling, confirm.LogInstalment, confirm.LogTaxFiling} {
		require.NoError(t, store.AppendLog(ctx, confirm.LogEntry{
			ID: string(rune('a' + i)), Kind: kind, RecordID: "hst-1",
			Cycle: filing.CycleQuarterly, ConfirmedBy: "u", ConfirmedAt: at,
		}))
	}

	all, err := store.Logs(ctx, "hst-1")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})

	filings, err := store.Logs(ctx, "hst-1", confirm.LogTaxFiling)
	require.NoError(t, err)
	assert.Len(t, filings, 2)

	both, err := store.Logs(ctx, "hst-1", confirm.LogTaxFiling, confirm.LogInstalment)
	require.NoError(t, err)
	assert.Len(t, both, 3)
}

// =============================================================================
// PAYROLL
// =============================================================================

func TestLookup_WriteOnceRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	p := payroll.MustParsePeriod("2024-10")

	l := payroll.GenerateLookup(p)
	l.CreatedAt = time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveLookup(ctx, l))

	// A second save for the same period is ignored.
	other := payroll.GenerateLookup(p)
	other.CreatedAt = l.CreatedAt.Add(time.Hour)
	require.NoError(t, store.SaveLookup(ctx, other))

	got, err := store.GetLookup(ctx, p)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, l.CreatedAt, got.CreatedAt)
	assert.Equal(t, l.PreviousPeriod, got.PreviousPeriod)
	assert.Equal(t, l.Schedules, got.Schedules)
	assert.Equal(t, l.PD7AMonthlyDueDate, got.PD7AMonthlyDueDate)
	require.NotNil(t, got.PD7AQuarterlyDueDate)
	assert.Equal(t, d("2024-10-15"), *got.PD7AQuarterlyDueDate)

	none, err := store.GetLookup(ctx, payroll.MustParsePeriod("2030-01"))
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestGenerator_OnSQLite(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SavePayrollAccount(ctx, payroll.Account{
		ID: "pa-1", BusinessID: "biz-1", Cycle: filing.CycleBiWeekly, Remittance: filing.CycleMonthly, IsActive: true,
	}))
	g := payroll.NewGenerator(store, nil)
	p := payroll.MustParsePeriod("2024-03")

	first, err := g.GenerateRecords(ctx, p, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"pa-1"}, first.Generated)

	second, err := g.GenerateRecords(ctx, p, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"pa-1"}, second.Skipped)

	rec, err := store.GetPayrollRecord(ctx, "pa-1", p)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, []time.Time{d("2024-03-08"), d("2024-03-22")}, rec.DueDates)
	assert.Equal(t, []time.Time{d("2024-03-15"), d("2024-03-29")}, rec.PayoutDates)
	require.NotNil(t, rec.PD7ADueDate)
	assert.Equal(t, d("2024-03-15"), *rec.PD7ADueDate)

	accounts, err := store.ListPayrollAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.True(t, accounts[0].IsActive)
}

func TestCorruptTimestampIsReported(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.SaveTaxAccount(ctx, &filing.TaxAccount{
		ID: "hst-1", BusinessID: "biz-1", Type: filing.AccountHST,
		Period: filing.FilingPeriod{EndingPeriod: d("2024-06-30"), DueDate: d("2024-07-31"), Cycle: filing.CycleQuarterly},
	}))
	require.NoError(t, store.SavePayrollAccount(ctx, payroll.Account{
		ID: "pa-1", Cycle: filing.CycleMonthly, Remittance: filing.CycleMonthly, IsActive: true,
	}))

	_, err := store.db.ExecContext(ctx, `UPDATE tax_accounts SET updated_at = 'yesterday' WHERE id = 'hst-1'`)
	require.NoError(t, err)
	_, err = store.db.ExecContext(ctx, `UPDATE payroll_accounts SET created_at = '' WHERE id = 'pa-1'`)
	require.NoError(t, err)

	_, err = store.GetTaxAccount(ctx, "hst-1")
	assert.ErrorContains(t, err, `invalid timestamp "yesterday"`)

	_, err = store.ListTaxAccounts(ctx, "biz-1")
	assert.ErrorContains(t, err, "invalid timestamp")

	_, err = store.GetPayrollAccount(ctx, "pa-1")
	assert.ErrorContains(t, err, "invalid timestamp")
}
