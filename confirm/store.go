/*
store.go - Persistence contract for live records and confirmation logs

PURPOSE:
  Confirming a period touches two things that must move together: the
  append-only confirmation log and the live record being rolled forward.
  Store is the read/write surface over both; TxStore adds the transaction
  boundary the confirm operations run inside.

APPEND-ONLY CONTRACT:
  Log entries are written with AppendLog and read with Logs. There is no
  update or delete for them. Live records are the mutable side and are
  saved whole (insert or replace).

MISSING RECORDS:
  Get* methods return (nil, nil) for an unknown id. Turning that into a
  RecordNotFoundError is the caller's job, so the message can name the
  record kind.

IMPLEMENTATIONS:
  - store/sqlite: production
  - store/memory: tests and throwaway runs
*/
package confirm

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerdesk/filing-engine/filing"
)

// =============================================================================
// LOG ENTRIES
// =============================================================================

// LogKind says which confirmation produced a log entry.
type LogKind string

const (
	LogTaxFiling          LogKind = "tax_filing"
	LogInstalment         LogKind = "instalment"
	LogClientPayment      LogKind = "client_payment"
	LogPersonalTaxFiling  LogKind = "personal_tax_filing"
	LogPersonalInstalment LogKind = "personal_instalment"
)

// LogEntry is the immutable record of one confirmation. The period fields
// hold the state the record was in before it was advanced.
type LogEntry struct {
	ID       string
	Kind     LogKind
	RecordID string

	EndingPeriod time.Time // zero for client payments
	DueDate      time.Time
	Cycle        filing.FilingCycle
	Amount       decimal.Decimal

	Notes       string
	ConfirmedBy string
	ConfirmedAt time.Time
}

// =============================================================================
// STORE INTERFACES
// =============================================================================

// Store persists live records and the confirmation log.
type Store interface {
	GetTaxAccount(ctx context.Context, id string) (*filing.TaxAccount, error)
	SaveTaxAccount(ctx context.Context, a *filing.TaxAccount) error

	GetClientPayment(ctx context.Context, id string) (*filing.ClientPayment, error)
	SaveClientPayment(ctx context.Context, p *filing.ClientPayment) error

	GetPersonalTaxAccount(ctx context.Context, id string) (*filing.PersonalTaxAccount, error)
	SavePersonalTaxAccount(ctx context.Context, a *filing.PersonalTaxAccount) error

	// AppendLog is the only write for log entries.
	AppendLog(ctx context.Context, e LogEntry) error

	// Logs returns a record's entries of the given kinds, oldest first.
	// No kinds means every kind.
	Logs(ctx context.Context, recordID string, kinds ...LogKind) ([]LogEntry, error)
}

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction.
	// If fn returns error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
