package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ledgerdesk/filing-engine/calendar"
	"github.com/ledgerdesk/filing-engine/confirm"
	"github.com/ledgerdesk/filing-engine/filing"
)

// =============================================================================
// TAX ACCOUNTS
// =============================================================================

// GetTaxAccount retrieves a tax account by ID. Returns nil if not found.
func (s *Store) GetTaxAccount(ctx context.Context, id string) (*filing.TaxAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getTaxAccount(ctx, s.db, id)
}

// SaveTaxAccount inserts or replaces a tax account.
func (s *Store) SaveTaxAccount(ctx context.Context, a *filing.TaxAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveTaxAccount(ctx, s.db, a)
}

// ListTaxAccounts returns a business's tax accounts ordered by due date.
// An empty businessID lists every account.
func (s *Store) ListTaxAccounts(ctx context.Context, businessID string) ([]filing.TaxAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + taxAccountColumns + ` FROM tax_accounts`
	var args []any
	if businessID != "" {
		query += ` WHERE business_id = ?`
		args = append(args, businessID)
	}
	query += ` ORDER BY due_date, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tax accounts: %w", err)
	}
	defer rows.Close()

	var out []filing.TaxAccount
	for rows.Next() {
		a, err := scanTaxAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

const taxAccountColumns = `id, business_id, account_type, ending_period, due_date, cycle,
	sole_proprietorship, instalment_required, instalment_amount, instalment_due_date,
	pending_confirmation, created_at, updated_at`

func getTaxAccount(ctx context.Context, q querier, id string) (*filing.TaxAccount, error) {
	row := q.QueryRowContext(ctx, `SELECT `+taxAccountColumns+` FROM tax_accounts WHERE id = ?`, id)
	a, err := scanTaxAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

func saveTaxAccount(ctx context.Context, q querier, a *filing.TaxAccount) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}

	query := `
		INSERT INTO tax_accounts (` + taxAccountColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			business_id = excluded.business_id,
			account_type = excluded.account_type,
			ending_period = excluded.ending_period,
			due_date = excluded.due_date,
			cycle = excluded.cycle,
			sole_proprietorship = excluded.sole_proprietorship,
			instalment_required = excluded.instalment_required,
			instalment_amount = excluded.instalment_amount,
			instalment_due_date = excluded.instalment_due_date,
			pending_confirmation = excluded.pending_confirmation,
			updated_at = excluded.updated_at
	`
	_, err := q.ExecContext(ctx, query,
		a.ID, a.BusinessID, a.Type,
		calendar.Format(a.Period.EndingPeriod), calendar.Format(a.Period.DueDate), a.Period.Cycle,
		boolInt(a.SoleProprietorship),
		boolInt(a.Instalment.Required), a.Instalment.Amount.String(), nullDate(a.Instalment.DueDate),
		nullString(a.PendingConfirmation),
		formatTimestamp(a.CreatedAt), formatTimestamp(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save tax account %s: %w", a.ID, err)
	}
	return nil
}

func scanTaxAccount(row scanner) (*filing.TaxAccount, error) {
	var (
		a                    filing.TaxAccount
		endingPeriod         string
		dueDate              string
		soleProprietorship   int
		instalmentRequired   int
		instalmentAmount     string
		instalmentDueDate    sql.NullString
		pendingConfirmation  sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(
		&a.ID, &a.BusinessID, &a.Type, &endingPeriod, &dueDate, &a.Period.Cycle,
		&soleProprietorship, &instalmentRequired, &instalmentAmount, &instalmentDueDate,
		&pendingConfirmation, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan tax account: %w", err)
	}

	if a.Period.EndingPeriod, err = calendar.Parse(endingPeriod); err != nil {
		return nil, err
	}
	if a.Period.DueDate, err = calendar.Parse(dueDate); err != nil {
		return nil, err
	}
	a.SoleProprietorship = soleProprietorship != 0
	a.Instalment.Required = instalmentRequired != 0
	if a.Instalment.Amount, err = parseDecimal(instalmentAmount); err != nil {
		return nil, err
	}
	if a.Instalment.DueDate, err = parseNullDate(instalmentDueDate); err != nil {
		return nil, err
	}
	a.PendingConfirmation = pendingConfirmation.String
	if a.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// =============================================================================
// CLIENT PAYMENTS
// =============================================================================

// GetClientPayment retrieves a client payment by ID. Returns nil if not found.
func (s *Store) GetClientPayment(ctx context.Context, id string) (*filing.ClientPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getClientPayment(ctx, s.db, id)
}

// SaveClientPayment inserts or replaces a client payment.
func (s *Store) SaveClientPayment(ctx context.Context, p *filing.ClientPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveClientPayment(ctx, s.db, p)
}

const clientPaymentColumns = `id, business_id, description, amount, cycle, due_date,
	is_active, pending_confirmation, created_at, updated_at`

func getClientPayment(ctx context.Context, q querier, id string) (*filing.ClientPayment, error) {
	var (
		p                    filing.ClientPayment
		description          sql.NullString
		amount, dueDate      string
		isActive             int
		pendingConfirmation  sql.NullString
		createdAt, updatedAt string
	)
	err := q.QueryRowContext(ctx, `SELECT `+clientPaymentColumns+` FROM client_payments WHERE id = ?`, id).Scan(
		&p.ID, &p.BusinessID, &description, &amount, &p.Cycle, &dueDate,
		&isActive, &pendingConfirmation, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan client payment: %w", err)
	}

	p.Description = description.String
	if p.Amount, err = parseDecimal(amount); err != nil {
		return nil, err
	}
	if p.DueDate, err = calendar.Parse(dueDate); err != nil {
		return nil, err
	}
	p.IsActive = isActive != 0
	p.PendingConfirmation = pendingConfirmation.String
	if p.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func saveClientPayment(ctx context.Context, q querier, p *filing.ClientPayment) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}

	query := `
		INSERT INTO client_payments (` + clientPaymentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			business_id = excluded.business_id,
			description = excluded.description,
			amount = excluded.amount,
			cycle = excluded.cycle,
			due_date = excluded.due_date,
			is_active = excluded.is_active,
			pending_confirmation = excluded.pending_confirmation,
			updated_at = excluded.updated_at
	`
	_, err := q.ExecContext(ctx, query,
		p.ID, p.BusinessID, nullString(p.Description), p.Amount.String(), p.Cycle,
		calendar.Format(p.DueDate), boolInt(p.IsActive), nullString(p.PendingConfirmation),
		formatTimestamp(p.CreatedAt), formatTimestamp(p.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save client payment %s: %w", p.ID, err)
	}
	return nil
}

// =============================================================================
// PERSONAL TAX ACCOUNTS
// =============================================================================

// GetPersonalTaxAccount retrieves a personal tax account by ID. Returns nil
// if not found.
func (s *Store) GetPersonalTaxAccount(ctx context.Context, id string) (*filing.PersonalTaxAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getPersonalTaxAccount(ctx, s.db, id)
}

// SavePersonalTaxAccount inserts or replaces a personal tax account.
func (s *Store) SavePersonalTaxAccount(ctx context.Context, a *filing.PersonalTaxAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return savePersonalTaxAccount(ctx, s.db, a)
}

const personalTaxAccountColumns = `id, client_id, ending_period, due_date, cycle, self_employed,
	progress, instalment_required, instalment_amount, instalment_due_date,
	pending_confirmation, created_at, updated_at`

func getPersonalTaxAccount(ctx context.Context, q querier, id string) (*filing.PersonalTaxAccount, error) {
	var (
		a                     filing.PersonalTaxAccount
		endingPeriod, dueDate string
		selfEmployed          int
		progress              string
		instalmentRequired    int
		instalmentAmount      string
		instalmentDueDate     sql.NullString
		pendingConfirmation   sql.NullString
		createdAt, updatedAt  string
	)
	err := q.QueryRowContext(ctx, `SELECT `+personalTaxAccountColumns+` FROM personal_tax_accounts WHERE id = ?`, id).Scan(
		&a.ID, &a.ClientID, &endingPeriod, &dueDate, &a.Period.Cycle, &selfEmployed,
		&progress, &instalmentRequired, &instalmentAmount, &instalmentDueDate,
		&pendingConfirmation, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan personal tax account: %w", err)
	}

	if a.Period.EndingPeriod, err = calendar.Parse(endingPeriod); err != nil {
		return nil, err
	}
	if a.Period.DueDate, err = calendar.Parse(dueDate); err != nil {
		return nil, err
	}
	a.SelfEmployed = selfEmployed != 0
	if a.Progress, err = filing.ParseProgress(progress); err != nil {
		return nil, err
	}
	a.Instalment.Required = instalmentRequired != 0
	if a.Instalment.Amount, err = parseDecimal(instalmentAmount); err != nil {
		return nil, err
	}
	if a.Instalment.DueDate, err = parseNullDate(instalmentDueDate); err != nil {
		return nil, err
	}
	a.PendingConfirmation = pendingConfirmation.String
	if a.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func savePersonalTaxAccount(ctx context.Context, q querier, a *filing.PersonalTaxAccount) error {
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = now
	}

	query := `
		INSERT INTO personal_tax_accounts (` + personalTaxAccountColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			client_id = excluded.client_id,
			ending_period = excluded.ending_period,
			due_date = excluded.due_date,
			cycle = excluded.cycle,
			self_employed = excluded.self_employed,
			progress = excluded.progress,
			instalment_required = excluded.instalment_required,
			instalment_amount = excluded.instalment_amount,
			instalment_due_date = excluded.instalment_due_date,
			pending_confirmation = excluded.pending_confirmation,
			updated_at = excluded.updated_at
	`
	_, err := q.ExecContext(ctx, query,
		a.ID, a.ClientID,
		calendar.Format(a.Period.EndingPeriod), calendar.Format(a.Period.DueDate), a.Period.Cycle,
		boolInt(a.SelfEmployed), a.Progress.String(),
		boolInt(a.Instalment.Required), a.Instalment.Amount.String(), nullDate(a.Instalment.DueDate),
		nullString(a.PendingConfirmation),
		formatTimestamp(a.CreatedAt), formatTimestamp(a.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save personal tax account %s: %w", a.ID, err)
	}
	return nil
}

// =============================================================================
// CONFIRMATION LOG (append-only)
// =============================================================================

// AppendLog adds a confirmation log entry. This is the only write.
func (s *Store) AppendLog(ctx context.Context, e confirm.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendLog(ctx, s.db, e)
}

// Logs returns a record's log entries of the given kinds, oldest first.
func (s *Store) Logs(ctx context.Context, recordID string, kinds ...confirm.LogKind) ([]confirm.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryLogs(ctx, s.db, recordID, kinds)
}

func appendLog(ctx context.Context, q querier, e confirm.LogEntry) error {
	query := `
		INSERT INTO confirmation_logs
		(id, kind, record_id, ending_period, due_date, cycle, amount, notes, confirmed_by, confirmed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		e.ID, e.Kind, e.RecordID,
		nullDate(&e.EndingPeriod), nullDate(&e.DueDate), e.Cycle,
		e.Amount.String(), nullString(e.Notes), e.ConfirmedBy, formatTimestamp(e.ConfirmedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateLogEntry, e.ID)
		}
		return fmt.Errorf("failed to append confirmation log: %w", err)
	}
	return nil
}

func queryLogs(ctx context.Context, q querier, recordID string, kinds []confirm.LogKind) ([]confirm.LogEntry, error) {
	query := `
		SELECT id, kind, record_id, ending_period, due_date, cycle, amount, notes, confirmed_by, confirmed_at
		FROM confirmation_logs
		WHERE record_id = ?`
	args := []any{recordID}
	if len(kinds) > 0 {
		query += ` AND kind IN (?` + strings.Repeat(", ?", len(kinds)-1) + `)`
		for _, k := range kinds {
			args = append(args, k)
		}
	}
	query += ` ORDER BY rowid ASC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query confirmation logs: %w", err)
	}
	defer rows.Close()

	var out []confirm.LogEntry
	for rows.Next() {
		var (
			e                     confirm.LogEntry
			endingPeriod, dueDate sql.NullString
			amount                string
			notes                 sql.NullString
			confirmedAt           string
		)
		if err := rows.Scan(&e.ID, &e.Kind, &e.RecordID, &endingPeriod, &dueDate, &e.Cycle,
			&amount, &notes, &e.ConfirmedBy, &confirmedAt); err != nil {
			return nil, fmt.Errorf("failed to scan confirmation log: %w", err)
		}
		if t, err := parseNullDate(endingPeriod); err != nil {
			return nil, err
		} else if t != nil {
			e.EndingPeriod = *t
		}
		if t, err := parseNullDate(dueDate); err != nil {
			return nil, err
		} else if t != nil {
			e.DueDate = *t
		}
		if e.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		e.Notes = notes.String
		if e.ConfirmedAt, err = parseTimestamp(confirmedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
