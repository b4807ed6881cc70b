/*
Package confirm applies confirmations to live records.

PURPOSE:
  Every "confirm X" operation has the same shape:
    1. load the live record (missing id -> RecordNotFoundError)
    2. append one log entry with the pre-confirmation snapshot
    3. compute the next period from the record's filing.Rule
    4. advance the record and clear its pending-confirmation text
  Steps 2-4 run inside one TxStore transaction. Any failure rolls the
  whole thing back and the original error is returned unchanged.

  The steps live once, in advance(). Each record kind supplies a target
  describing how to load, snapshot, pick a rule and apply the result.

NOTIFICATION:
  A Notifier, when set, is called after commit. Its errors are logged and
  never undo the confirmation.

SEE ALSO:
  - filing/rule.go: the Rule variant
  - store.go: persistence contract
*/
package confirm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ledgerdesk/filing-engine/filing"
)

// ErrConfirmerRequired is returned when a confirmation has no user id.
var ErrConfirmerRequired = errors.New("confirming user id is required")

// Confirmation is the explicit context of a confirm call.
type Confirmation struct {
	UserID      string
	ConfirmedAt time.Time // zero means Confirmer.Now()
	Notes       string
}

// Notice describes a committed confirmation to a Notifier.
type Notice struct {
	Entry       LogEntry
	NextDueDate time.Time // zero when Deactivated
	Deactivated bool
}

// Notifier is told about confirmations after they commit.
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

// =============================================================================
// CONFIRMER
// =============================================================================

// Confirmer runs confirm operations against a TxStore.
type Confirmer struct {
	Store    TxStore
	Logger   *zap.Logger
	Notifier Notifier // optional
	Now      func() time.Time
	NewID    func() string
}

// NewConfirmer returns a Confirmer over store. A nil logger discards output.
func NewConfirmer(store TxStore, logger *zap.Logger) *Confirmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Confirmer{
		Store:  store,
		Logger: logger,
		Now:    time.Now,
		NewID:  uuid.NewString,
	}
}

// target describes one record kind to advance().
type target[T any] struct {
	logKind    LogKind
	recordKind filing.RecordKind

	load func(context.Context, Store, string) (*T, error)
	save func(context.Context, Store, *T) error

	// check rejects records that cannot be confirmed. Optional.
	check func(*T) error
	// snapshot fills the period fields of the log entry.
	snapshot func(*T) LogEntry
	rule     func(*T) filing.Rule
	current  func(*T) filing.FilingPeriod
	apply    func(*T, filing.Advance, time.Time)
}

// advance is the single confirm-and-advance operation.
func advance[T any](ctx context.Context, c *Confirmer, t target[T], id string, conf Confirmation) (*T, LogEntry, error) {
	if conf.UserID == "" {
		return nil, LogEntry{}, ErrConfirmerRequired
	}
	if conf.ConfirmedAt.IsZero() {
		conf.ConfirmedAt = c.Now()
	}

	var (
		rec   *T
		entry LogEntry
		next  filing.Advance
	)
	err := c.Store.WithTx(ctx, func(tx Store) error {
		var err error
		rec, err = t.load(ctx, tx, id)
		if err != nil {
			return err
		}
		if rec == nil {
			return &filing.RecordNotFoundError{Kind: t.recordKind, ID: id}
		}
		if t.check != nil {
			if err := t.check(rec); err != nil {
				return err
			}
		}

		entry = t.snapshot(rec)
		entry.ID = c.NewID()
		entry.Kind = t.logKind
		entry.RecordID = id
		entry.Notes = conf.Notes
		entry.ConfirmedBy = conf.UserID
		entry.ConfirmedAt = conf.ConfirmedAt
		if err := tx.AppendLog(ctx, entry); err != nil {
			return err
		}

		next, err = t.rule(rec).Next(t.current(rec), conf.ConfirmedAt)
		if err != nil {
			return err
		}
		t.apply(rec, next, conf.ConfirmedAt)
		return t.save(ctx, tx, rec)
	})
	if err != nil {
		c.Logger.Error("confirmation rolled back",
			zap.String("kind", string(t.logKind)),
			zap.String("record_id", id),
			zap.String("confirmed_by", conf.UserID),
			zap.Error(err))
		return nil, LogEntry{}, err
	}

	fields := []zap.Field{
		zap.String("kind", string(t.logKind)),
		zap.String("record_id", id),
		zap.String("confirmed_by", conf.UserID),
		zap.String("log_id", entry.ID),
	}
	if next.Deactivate {
		fields = append(fields, zap.Bool("deactivated", true))
	} else {
		fields = append(fields, zap.Time("next_due_date", next.DueDate))
	}
	c.Logger.Info("confirmation committed", fields...)

	c.notify(ctx, Notice{Entry: entry, NextDueDate: next.DueDate, Deactivated: next.Deactivate})
	return rec, entry, nil
}

func (c *Confirmer) notify(ctx context.Context, n Notice) {
	if c.Notifier == nil {
		return
	}
	if err := c.Notifier.Notify(ctx, n); err != nil {
		c.Logger.Warn("confirmation notice failed",
			zap.String("kind", string(n.Entry.Kind)),
			zap.String("record_id", n.Entry.RecordID),
			zap.Error(err))
	}
}

// =============================================================================
// CONFIRM OPERATIONS
// =============================================================================

// ConfirmTaxFiling logs the current filing period of a tax account and rolls
// it forward using the tax rule table. A required instalment follows the new
// ending period unless it is already later.
func (c *Confirmer) ConfirmTaxFiling(ctx context.Context, id string, conf Confirmation) (*filing.TaxAccount, LogEntry, error) {
	return advance(ctx, c, taxFiling, id, conf)
}

// ConfirmInstalment logs the instalment of an HST or corporation account and
// moves its due date forward to the next instalment (see
// filing.NextBusinessInstalment). The filing period is untouched.
func (c *Confirmer) ConfirmInstalment(ctx context.Context, id string, conf Confirmation) (*filing.TaxAccount, LogEntry, error) {
	return advance(ctx, c, taxInstalment, id, conf)
}

// ConfirmClientPayment logs a client payment and moves it to its next due
// date. A payment with no cycle is deactivated instead.
func (c *Confirmer) ConfirmClientPayment(ctx context.Context, id string, conf Confirmation) (*filing.ClientPayment, LogEntry, error) {
	return advance(ctx, c, clientPayment, id, conf)
}

// ConfirmPersonalTaxFiling logs a personal return, moves it to the next tax
// year and resets its progress.
func (c *Confirmer) ConfirmPersonalTaxFiling(ctx context.Context, id string, conf Confirmation) (*filing.PersonalTaxAccount, LogEntry, error) {
	return advance(ctx, c, personalFiling, id, conf)
}

// ConfirmPersonalInstalment logs a personal instalment and sets the next one
// to March 15 of the year after the confirmation.
func (c *Confirmer) ConfirmPersonalInstalment(ctx context.Context, id string, conf Confirmation) (*filing.PersonalTaxAccount, LogEntry, error) {
	return advance(ctx, c, personalInstalment, id, conf)
}

// SetProgress moves a personal tax account to another filing step. Only a
// single step forward, staying put, or a reset is allowed.
func (c *Confirmer) SetProgress(ctx context.Context, id string, to filing.Progress) (*filing.PersonalTaxAccount, error) {
	var acct *filing.PersonalTaxAccount
	err := c.Store.WithTx(ctx, func(tx Store) error {
		var err error
		acct, err = tx.GetPersonalTaxAccount(ctx, id)
		if err != nil {
			return err
		}
		if acct == nil {
			return &filing.RecordNotFoundError{Kind: filing.KindPersonalTaxAccount, ID: id}
		}
		next, err := acct.Progress.Advance(to)
		if err != nil {
			return err
		}
		acct.Progress = next
		acct.UpdatedAt = c.Now().UTC()
		return tx.SavePersonalTaxAccount(ctx, acct)
	})
	if err != nil {
		return nil, err
	}
	c.Logger.Info("personal tax progress updated",
		zap.String("record_id", id), zap.Stringer("progress", acct.Progress))
	return acct, nil
}

// =============================================================================
// TARGETS
// =============================================================================

func requireInstalment(s filing.InstalmentSchedule) error {
	if !s.Required {
		return fmt.Errorf("%w: instalments are not required", filing.ErrInstalmentAmountRequired)
	}
	if s.Amount.IsZero() {
		return fmt.Errorf("%w: amount is zero", filing.ErrInstalmentAmountRequired)
	}
	return nil
}

func instalmentDue(s filing.InstalmentSchedule) time.Time {
	if s.DueDate == nil {
		return time.Time{}
	}
	return *s.DueDate
}

var taxFiling = target[filing.TaxAccount]{
	logKind:    LogTaxFiling,
	recordKind: filing.KindTaxAccount,
	load:       func(ctx context.Context, s Store, id string) (*filing.TaxAccount, error) { return s.GetTaxAccount(ctx, id) },
	save:       func(ctx context.Context, s Store, a *filing.TaxAccount) error { return s.SaveTaxAccount(ctx, a) },
	snapshot: func(a *filing.TaxAccount) LogEntry {
		return LogEntry{EndingPeriod: a.Period.EndingPeriod, DueDate: a.Period.DueDate, Cycle: a.Period.Cycle}
	},
	rule: func(a *filing.TaxAccount) filing.Rule {
		return filing.Rule{
			Kind:               filing.RuleTaxFiling,
			AccountType:        a.Type,
			Cycle:              a.Period.Cycle,
			SoleProprietorship: a.SoleProprietorship,
		}
	},
	current: func(a *filing.TaxAccount) filing.FilingPeriod { return a.Period },
	apply: func(a *filing.TaxAccount, next filing.Advance, at time.Time) {
		a.Period.EndingPeriod = next.EndingPeriod
		a.Period.DueDate = next.DueDate
		if a.Instalment.Required {
			// Never move an instalment that was already paid ahead back.
			due := filing.NextInstalmentDueDate(next.EndingPeriod)
			if a.Instalment.DueDate == nil || due.After(*a.Instalment.DueDate) {
				a.Instalment.DueDate = &due
			}
		}
		a.PendingConfirmation = ""
		a.UpdatedAt = at.UTC()
	},
}

var taxInstalment = target[filing.TaxAccount]{
	logKind:    LogInstalment,
	recordKind: filing.KindTaxAccount,
	load:       taxFiling.load,
	save:       taxFiling.save,
	check: func(a *filing.TaxAccount) error {
		if !a.Type.SupportsInstalments() {
			return fmt.Errorf("%w: %s accounts do not take instalments", filing.ErrInstalmentAmountRequired, a.Type)
		}
		return requireInstalment(a.Instalment)
	},
	snapshot: func(a *filing.TaxAccount) LogEntry {
		return LogEntry{
			EndingPeriod: a.Period.EndingPeriod,
			DueDate:      instalmentDue(a.Instalment),
			Cycle:        a.Period.Cycle,
			Amount:       a.Instalment.Amount,
		}
	},
	rule: func(a *filing.TaxAccount) filing.Rule {
		return filing.Rule{Kind: filing.RuleBusinessInstalment, AccountType: a.Type, Cycle: a.Period.Cycle}
	},
	current: func(a *filing.TaxAccount) filing.FilingPeriod {
		return filing.FilingPeriod{EndingPeriod: a.Period.EndingPeriod, DueDate: instalmentDue(a.Instalment), Cycle: a.Period.Cycle}
	},
	apply: func(a *filing.TaxAccount, next filing.Advance, at time.Time) {
		due := next.DueDate
		a.Instalment.DueDate = &due
		a.PendingConfirmation = ""
		a.UpdatedAt = at.UTC()
	},
}

var clientPayment = target[filing.ClientPayment]{
	logKind:    LogClientPayment,
	recordKind: filing.KindClientPayment,
	load: func(ctx context.Context, s Store, id string) (*filing.ClientPayment, error) {
		return s.GetClientPayment(ctx, id)
	},
	save: func(ctx context.Context, s Store, p *filing.ClientPayment) error { return s.SaveClientPayment(ctx, p) },
	check: func(p *filing.ClientPayment) error {
		if !p.IsActive {
			return fmt.Errorf("%w: client payment %s", filing.ErrInactiveRecord, p.ID)
		}
		return nil
	},
	snapshot: func(p *filing.ClientPayment) LogEntry {
		return LogEntry{DueDate: p.DueDate, Cycle: p.Cycle, Amount: p.Amount}
	},
	rule: func(p *filing.ClientPayment) filing.Rule {
		return filing.Rule{Kind: filing.RuleClientPayment, Cycle: p.Cycle}
	},
	current: func(p *filing.ClientPayment) filing.FilingPeriod {
		return filing.FilingPeriod{DueDate: p.DueDate, Cycle: p.Cycle}
	},
	apply: func(p *filing.ClientPayment, next filing.Advance, at time.Time) {
		if next.Deactivate {
			p.IsActive = false
		} else {
			p.DueDate = next.DueDate
		}
		p.PendingConfirmation = ""
		p.UpdatedAt = at.UTC()
	},
}

var personalFiling = target[filing.PersonalTaxAccount]{
	logKind:    LogPersonalTaxFiling,
	recordKind: filing.KindPersonalTaxAccount,
	load: func(ctx context.Context, s Store, id string) (*filing.PersonalTaxAccount, error) {
		return s.GetPersonalTaxAccount(ctx, id)
	},
	save: func(ctx context.Context, s Store, a *filing.PersonalTaxAccount) error {
		return s.SavePersonalTaxAccount(ctx, a)
	},
	snapshot: func(a *filing.PersonalTaxAccount) LogEntry {
		return LogEntry{EndingPeriod: a.Period.EndingPeriod, DueDate: a.Period.DueDate, Cycle: a.Period.Cycle}
	},
	rule: func(a *filing.PersonalTaxAccount) filing.Rule {
		return filing.Rule{Kind: filing.RulePersonalFiling, SoleProprietorship: a.SelfEmployed}
	},
	current: func(a *filing.PersonalTaxAccount) filing.FilingPeriod { return a.Period },
	apply: func(a *filing.PersonalTaxAccount, next filing.Advance, at time.Time) {
		a.Period.EndingPeriod = next.EndingPeriod
		a.Period.DueDate = next.DueDate
		a.Progress = filing.ProgressNotStarted
		a.PendingConfirmation = ""
		a.UpdatedAt = at.UTC()
	},
}

var personalInstalment = target[filing.PersonalTaxAccount]{
	logKind:    LogPersonalInstalment,
	recordKind: filing.KindPersonalTaxAccount,
	load:       personalFiling.load,
	save:       personalFiling.save,
	check:      func(a *filing.PersonalTaxAccount) error { return requireInstalment(a.Instalment) },
	snapshot: func(a *filing.PersonalTaxAccount) LogEntry {
		return LogEntry{
			EndingPeriod: a.Period.EndingPeriod,
			DueDate:      instalmentDue(a.Instalment),
			Cycle:        a.Period.Cycle,
			Amount:       a.Instalment.Amount,
		}
	},
	rule:    func(*filing.PersonalTaxAccount) filing.Rule { return filing.Rule{Kind: filing.RulePersonalInstalment} },
	current: personalFiling.current,
	apply: func(a *filing.PersonalTaxAccount, next filing.Advance, at time.Time) {
		due := next.DueDate
		a.Instalment.DueDate = &due
		a.PendingConfirmation = ""
		a.UpdatedAt = at.UTC()
	},
}
