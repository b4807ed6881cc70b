/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists live filing records, the confirmation log and payroll lookups in
  one SQLite database.

INTERFACES IMPLEMENTED:
  confirm.TxStore: live records + confirmation log, transactional
  payroll.Store:   period lookups, payroll accounts, per-account records

APPEND-ONLY ENFORCEMENT:
  confirmation_logs has no UPDATE or DELETE path in this package, and
  triggers abort any attempt made through raw SQL.
  payroll_period_lookups is write-once: INSERT OR IGNORE on the period key.

KEY TABLES:
  tax_accounts, client_payments, personal_tax_accounts: live records
  confirmation_logs:       immutable confirmation history
  payroll_accounts:        who runs payroll on which cycle
  payroll_period_lookups:  shared per-month due-date rows
  payroll_records:         per-account expansion, UNIQUE(account, period)

STORAGE FORMATS:
  Calendar dates are TEXT "2006-01-02", timestamps RFC3339, money is the
  decimal string, lookup schedules are JSON.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety and a single connection. Reads made
  inside WithTx go through the open transaction.

USAGE:
  store, err := sqlite.New("./filings.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - confirm/store.go: confirm.Store contract
  - payroll/generator.go: payroll.Store contract
  - store/memory: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/ledgerdesk/filing-engine/calendar"
	"github.com/ledgerdesk/filing-engine/confirm"
	"github.com/ledgerdesk/filing-engine/filing"
)

// ErrDuplicateLogEntry is returned when a confirmation log id is reused.
var ErrDuplicateLogEntry = errors.New("duplicate confirmation log id")

// Store implements confirm.TxStore and payroll.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: ":memory:" databases are per-connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Live records
	CREATE TABLE IF NOT EXISTS tax_accounts (
		id TEXT PRIMARY KEY,
		business_id TEXT NOT NULL,
		account_type TEXT NOT NULL,
		ending_period TEXT NOT NULL,
		due_date TEXT NOT NULL,
		cycle TEXT NOT NULL,
		sole_proprietorship INTEGER NOT NULL DEFAULT 0,
		instalment_required INTEGER NOT NULL DEFAULT 0,
		instalment_amount TEXT NOT NULL DEFAULT '0',
		instalment_due_date TEXT,
		pending_confirmation TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tax_accounts_business
		ON tax_accounts(business_id);
	CREATE INDEX IF NOT EXISTS idx_tax_accounts_due
		ON tax_accounts(due_date);

	CREATE TABLE IF NOT EXISTS client_payments (
		id TEXT PRIMARY KEY,
		business_id TEXT NOT NULL,
		description TEXT,
		amount TEXT NOT NULL,
		cycle TEXT NOT NULL,
		due_date TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		pending_confirmation TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_client_payments_business
		ON client_payments(business_id);

	CREATE TABLE IF NOT EXISTS personal_tax_accounts (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL,
		ending_period TEXT NOT NULL,
		due_date TEXT NOT NULL,
		cycle TEXT NOT NULL,
		self_employed INTEGER NOT NULL DEFAULT 0,
		progress TEXT NOT NULL,
		instalment_required INTEGER NOT NULL DEFAULT 0,
		instalment_amount TEXT NOT NULL DEFAULT '0',
		instalment_due_date TEXT,
		pending_confirmation TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_personal_tax_accounts_client
		ON personal_tax_accounts(client_id);

	-- Confirmation history (append-only)
	CREATE TABLE IF NOT EXISTS confirmation_logs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		record_id TEXT NOT NULL,
		ending_period TEXT,
		due_date TEXT,
		cycle TEXT NOT NULL,
		amount TEXT NOT NULL DEFAULT '0',
		notes TEXT,
		confirmed_by TEXT NOT NULL,
		confirmed_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_confirmation_logs_record
		ON confirmation_logs(record_id, kind);

	CREATE TRIGGER IF NOT EXISTS confirmation_logs_no_update
		BEFORE UPDATE ON confirmation_logs
		BEGIN SELECT RAISE(ABORT, 'confirmation_logs is append-only'); END;
	CREATE TRIGGER IF NOT EXISTS confirmation_logs_no_delete
		BEFORE DELETE ON confirmation_logs
		BEGIN SELECT RAISE(ABORT, 'confirmation_logs is append-only'); END;

	-- Payroll
	CREATE TABLE IF NOT EXISTS payroll_accounts (
		id TEXT PRIMARY KEY,
		business_id TEXT NOT NULL,
		cycle TEXT NOT NULL,
		remittance TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS payroll_period_lookups (
		period TEXT PRIMARY KEY,
		previous_period TEXT NOT NULL,
		schedules_json TEXT NOT NULL,
		pd7a_monthly_due_date TEXT NOT NULL,
		pd7a_quarterly_due_date TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS payroll_records (
		account_id TEXT NOT NULL REFERENCES payroll_accounts(id),
		period TEXT NOT NULL,
		cycle TEXT NOT NULL,
		due_dates_json TEXT NOT NULL,
		payout_dates_json TEXT NOT NULL,
		pd7a_due_date TEXT,
		generated_at TEXT NOT NULL,
		PRIMARY KEY (account_id, period)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONAL STORE (confirm.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store confirm.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		return err
	}

	return sqlTx.Commit()
}

type txStore struct {
	tx *sql.Tx
}

func (ts *txStore) GetTaxAccount(ctx context.Context, id string) (*filing.TaxAccount, error) {
	return getTaxAccount(ctx, ts.tx, id)
}

func (ts *txStore) SaveTaxAccount(ctx context.Context, a *filing.TaxAccount) error {
	return saveTaxAccount(ctx, ts.tx, a)
}

func (ts *txStore) GetClientPayment(ctx context.Context, id string) (*filing.ClientPayment, error) {
	return getClientPayment(ctx, ts.tx, id)
}

func (ts *txStore) SaveClientPayment(ctx context.Context, p *filing.ClientPayment) error {
	return saveClientPayment(ctx, ts.tx, p)
}

func (ts *txStore) GetPersonalTaxAccount(ctx context.Context, id string) (*filing.PersonalTaxAccount, error) {
	return getPersonalTaxAccount(ctx, ts.tx, id)
}

func (ts *txStore) SavePersonalTaxAccount(ctx context.Context, a *filing.PersonalTaxAccount) error {
	return savePersonalTaxAccount(ctx, ts.tx, a)
}

func (ts *txStore) AppendLog(ctx context.Context, e confirm.LogEntry) error {
	return appendLog(ctx, ts.tx, e)
}

func (ts *txStore) Logs(ctx context.Context, recordID string, kinds ...confirm.LogKind) ([]confirm.LogEntry, error) {
	return queryLogs(ctx, ts.tx, recordID, kinds)
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullDate stores a zero or nil date as NULL.
func nullDate(t *time.Time) sql.NullString {
	if t == nil || t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: calendar.Format(*t), Valid: true}
}

func parseNullDate(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := calendar.Parse(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}
