package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerdesk/filing-engine/confirm"
	"github.com/ledgerdesk/filing-engine/filing"
	"github.com/ledgerdesk/filing-engine/payroll"
)

func TestWithTx_RollbackRestoresEverything(t *testing.T) {
	ctx := context.Background()
	s := New()
	due := time.Date(2024, 7, 31, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveTaxAccount(ctx, &filing.TaxAccount{ID: "a", Instalment: filing.InstalmentSchedule{Required: true, DueDate: &due}}))

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx confirm.Store) error {
		require.NoError(t, tx.AppendLog(ctx, confirm.LogEntry{ID: "l1", RecordID: "a"}))
		a, err := tx.GetTaxAccount(ctx, "a")
		require.NoError(t, err)
		moved := due.AddDate(0, 3, 0)
		a.Instalment.DueDate = &moved
		require.NoError(t, tx.SaveTaxAccount(ctx, a))
		return boom
	})
	assert.Same(t, boom, err)

	logs, err := s.Logs(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, logs)

	a, err := s.GetTaxAccount(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, due, *a.Instalment.DueDate)
}

func TestWithTx_Commit(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.WithTx(ctx, func(tx confirm.Store) error {
		return tx.SaveClientPayment(ctx, &filing.ClientPayment{ID: "p", IsActive: true})
	})
	require.NoError(t, err)

	p, err := s.GetClientPayment(ctx, "p")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.True(t, p.IsActive)
}

func TestGetReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.SavePersonalTaxAccount(ctx, &filing.PersonalTaxAccount{ID: "x", Progress: filing.ProgressSigned}))

	a, err := s.GetPersonalTaxAccount(ctx, "x")
	require.NoError(t, err)
	a.Progress = filing.ProgressFiled

	again, err := s.GetPersonalTaxAccount(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, filing.ProgressSigned, again.Progress)
}

func TestSaveLookup_WriteOnce(t *testing.T) {
	ctx := context.Background()
	s := New()
	p := payroll.MustParsePeriod("2024-09")

	first := payroll.GenerateLookup(p)
	first.CreatedAt = time.Unix(100, 0).UTC()
	require.NoError(t, s.SaveLookup(ctx, first))

	second := payroll.GenerateLookup(p)
	second.CreatedAt = time.Unix(200, 0).UTC()
	require.NoError(t, s.SaveLookup(ctx, second))

	got, err := s.GetLookup(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, first.CreatedAt, got.CreatedAt)
}

func TestListTaxAccounts(t *testing.T) {
	ctx := context.Background()
	s := New()
	day := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, s.SaveTaxAccount(ctx, &filing.TaxAccount{ID: "b", BusinessID: "biz-1", Period: filing.FilingPeriod{DueDate: day(time.April, 30)}}))
	require.NoError(t, s.SaveTaxAccount(ctx, &filing.TaxAccount{ID: "a", BusinessID: "biz-1", Period: filing.FilingPeriod{DueDate: day(time.February, 29)}}))
	require.NoError(t, s.SaveTaxAccount(ctx, &filing.TaxAccount{ID: "c", BusinessID: "biz-2", Period: filing.FilingPeriod{DueDate: day(time.January, 31)}}))

	list, err := s.ListTaxAccounts(ctx, "biz-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, "b", list[1].ID)

	all, err := s.ListTaxAccounts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID)

	none, err := s.ListTaxAccounts(ctx, "biz-9")
	require.NoError(t, err)
	assert.Empty(t, none)
}
