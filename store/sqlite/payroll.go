package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ledgerdesk/filing-engine/calendar"
	"github.com/ledgerdesk/filing-engine/payroll"
)

// =============================================================================
// PAYROLL PERIOD LOOKUPS (payroll.Store interface)
// =============================================================================

// GetLookup retrieves the lookup row for a period. Returns nil if not found.
func (s *Store) GetLookup(ctx context.Context, p payroll.Period) (*payroll.Lookup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		l             payroll.Lookup
		previous      string
		schedulesJSON string
		monthlyDue    string
		quarterlyDue  sql.NullString
		createdAt     string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT previous_period, schedules_json, pd7a_monthly_due_date, pd7a_quarterly_due_date, created_at
		FROM payroll_period_lookups WHERE period = ?`,
		p.String(),
	).Scan(&previous, &schedulesJSON, &monthlyDue, &quarterlyDue, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payroll lookup %s: %w", p, err)
	}

	l.Period = p
	if l.PreviousPeriod, err = payroll.ParsePeriod(previous); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(schedulesJSON), &l.Schedules); err != nil {
		return nil, fmt.Errorf("failed to decode payroll lookup %s: %w", p, err)
	}
	if l.PD7AMonthlyDueDate, err = calendar.Parse(monthlyDue); err != nil {
		return nil, err
	}
	if l.PD7AQuarterlyDueDate, err = parseNullDate(quarterlyDue); err != nil {
		return nil, err
	}
	if l.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	return &l, nil
}

// SaveLookup stores a lookup row. A row already stored for the period wins.
func (s *Store) SaveLookup(ctx context.Context, l payroll.Lookup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedulesJSON, err := json.Marshal(l.Schedules)
	if err != nil {
		return fmt.Errorf("failed to encode payroll lookup %s: %w", l.Period, err)
	}
	createdAt := l.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO payroll_period_lookups
		(period, previous_period, schedules_json, pd7a_monthly_due_date, pd7a_quarterly_due_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		l.Period.String(), l.PreviousPeriod.String(), string(schedulesJSON),
		calendar.Format(l.PD7AMonthlyDueDate), nullDate(l.PD7AQuarterlyDueDate),
		formatTimestamp(createdAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save payroll lookup %s: %w", l.Period, err)
	}
	return nil
}

// =============================================================================
// PAYROLL ACCOUNTS
// =============================================================================

// SavePayrollAccount inserts or replaces a payroll account.
func (s *Store) SavePayrollAccount(ctx context.Context, a payroll.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payroll_accounts (id, business_id, cycle, remittance, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			business_id = excluded.business_id,
			cycle = excluded.cycle,
			remittance = excluded.remittance,
			is_active = excluded.is_active`,
		a.ID, a.BusinessID, a.Cycle, a.Remittance, boolInt(a.IsActive), formatTimestamp(createdAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save payroll account %s: %w", a.ID, err)
	}
	return nil
}

// GetPayrollAccount retrieves a payroll account by ID. Returns nil if not found.
func (s *Store) GetPayrollAccount(ctx context.Context, id string) (*payroll.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, err := scanPayrollAccount(s.db.QueryRowContext(ctx,
		"SELECT id, business_id, cycle, remittance, is_active, created_at FROM payroll_accounts WHERE id = ?",
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListPayrollAccounts returns all payroll accounts ordered by id.
func (s *Store) ListPayrollAccounts(ctx context.Context) ([]payroll.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, business_id, cycle, remittance, is_active, created_at FROM payroll_accounts ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query payroll accounts: %w", err)
	}
	defer rows.Close()

	var accounts []payroll.Account
	for rows.Next() {
		a, err := scanPayrollAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func scanPayrollAccount(row scanner) (payroll.Account, error) {
	var (
		a         payroll.Account
		isActive  int
		createdAt string
	)
	if err := row.Scan(&a.ID, &a.BusinessID, &a.Cycle, &a.Remittance, &isActive, &createdAt); err != nil {
		return a, err
	}
	a.IsActive = isActive != 0
	var err error
	if a.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return a, err
	}
	return a, nil
}

// =============================================================================
// PAYROLL RECORDS
// =============================================================================

// GetPayrollRecord retrieves an account's record for a period. Returns nil if
// not found.
func (s *Store) GetPayrollRecord(ctx context.Context, accountID string, p payroll.Period) (*payroll.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		r           payroll.Record
		dueJSON     string
		payoutJSON  string
		pd7a        sql.NullString
		generatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT cycle, due_dates_json, payout_dates_json, pd7a_due_date, generated_at
		FROM payroll_records WHERE account_id = ? AND period = ?`,
		accountID, p.String(),
	).Scan(&r.Cycle, &dueJSON, &payoutJSON, &pd7a, &generatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payroll record %s/%s: %w", accountID, p, err)
	}

	r.AccountID = accountID
	r.Period = p
	if r.DueDates, err = decodeDates(dueJSON); err != nil {
		return nil, err
	}
	if r.PayoutDates, err = decodeDates(payoutJSON); err != nil {
		return nil, err
	}
	if r.PD7ADueDate, err = parseNullDate(pd7a); err != nil {
		return nil, err
	}
	if r.GeneratedAt, err = parseTimestamp(generatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// SavePayrollRecord inserts or replaces the (account, period) record.
func (s *Store) SavePayrollRecord(ctx context.Context, r payroll.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payroll_records
		(account_id, period, cycle, due_dates_json, payout_dates_json, pd7a_due_date, generated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id, period) DO UPDATE SET
			cycle = excluded.cycle,
			due_dates_json = excluded.due_dates_json,
			payout_dates_json = excluded.payout_dates_json,
			pd7a_due_date = excluded.pd7a_due_date,
			generated_at = excluded.generated_at`,
		r.AccountID, r.Period.String(), r.Cycle,
		encodeDates(r.DueDates), encodeDates(r.PayoutDates),
		nullDate(r.PD7ADueDate), formatTimestamp(r.GeneratedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save payroll record %s/%s: %w", r.AccountID, r.Period, err)
	}
	return nil
}

// encodeDates stores a date list as a JSON array of "2006-01-02" strings.
func encodeDates(dates []time.Time) string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = calendar.Format(d)
	}
	b, _ := json.Marshal(out)
	return string(b)
}

func decodeDates(s string) ([]time.Time, error) {
	var raw []string
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode date list: %w", err)
	}
	out := make([]time.Time, len(raw))
	for i, r := range raw {
		t, err := calendar.Parse(r)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
