package payroll

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerdesk/filing-engine/filing"
)

// =============================================================================
// ACCOUNTS AND RECORDS
// =============================================================================

// Account is a business's payroll obligation.
type Account struct {
	ID         string
	BusinessID string
	Cycle      filing.FilingCycle // pay cycle: weekly, bi-weekly, semi-monthly, monthly
	// Remittance is the PD7A cycle: monthly, quarterly, or none.
	Remittance filing.FilingCycle
	IsActive   bool
	CreatedAt  time.Time
}

// Validate checks the account before it is persisted.
func (a Account) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("payroll account id is required")
	}
	if _, err := DueDates(Period{Year: 2000, Month: time.January}, a.Cycle); err != nil {
		return err
	}
	switch a.Remittance {
	case filing.CycleNone, filing.CycleMonthly, filing.CycleQuarterly:
		return nil
	default:
		return &filing.InvalidFilingCycleError{AccountType: "pd7a", Cycle: a.Remittance}
	}
}

// Record is one account's due dates for one period.
type Record struct {
	AccountID   string
	Period      Period
	Cycle       filing.FilingCycle
	DueDates    []time.Time
	PayoutDates []time.Time
	PD7ADueDate *time.Time
	GeneratedAt time.Time
}

// RecordFor selects the account's share of a lookup.
func RecordFor(a Account, l Lookup) (Record, error) {
	s, err := l.ScheduleFor(a.Cycle)
	if err != nil {
		return Record{}, err
	}
	return Record{
		AccountID:   a.ID,
		Period:      l.Period,
		Cycle:       a.Cycle,
		DueDates:    append([]time.Time(nil), s.DueDates...),
		PayoutDates: append([]time.Time(nil), s.PayoutDates...),
		PD7ADueDate: l.PD7ADueDate(a.Remittance),
	}, nil
}

// =============================================================================
// STORE
// =============================================================================

// Store persists lookups, payroll accounts and their per-period records.
// Lookups are write-once: SaveLookup on an existing period is a no-op.
type Store interface {
	GetLookup(ctx context.Context, p Period) (*Lookup, error)
	SaveLookup(ctx context.Context, l Lookup) error

	SavePayrollAccount(ctx context.Context, a Account) error
	GetPayrollAccount(ctx context.Context, id string) (*Account, error)
	ListPayrollAccounts(ctx context.Context) ([]Account, error)

	GetPayrollRecord(ctx context.Context, accountID string, p Period) (*Record, error)
	// SavePayrollRecord inserts or replaces the (account, period) record.
	SavePayrollRecord(ctx context.Context, r Record) error
}

// =============================================================================
// GENERATOR
// =============================================================================

// Generator creates lookups on first request and expands them per account.
type Generator struct {
	Store  Store
	Logger *zap.Logger
	Now    func() time.Time
}

// NewGenerator returns a Generator over store. A nil logger discards output.
func NewGenerator(store Store, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{Store: store, Logger: logger, Now: time.Now}
}

// GenerationResult summarises a per-account expansion run.
type GenerationResult struct {
	Period    Period
	Generated []string // account ids written
	Skipped   []string // account ids that already had a record
	Failed    map[string]error
}

// EnsureLookup returns the stored lookup for p, generating and storing it the
// first time. Repeated calls return the same row.
func (g *Generator) EnsureLookup(ctx context.Context, p Period) (*Lookup, error) {
	existing, err := g.Store.GetLookup(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("load payroll lookup %s: %w", p, err)
	}
	if existing != nil {
		return existing, nil
	}

	l := GenerateLookup(p)
	l.CreatedAt = g.Now().UTC()
	if err := g.Store.SaveLookup(ctx, l); err != nil {
		return nil, fmt.Errorf("save payroll lookup %s: %w", p, err)
	}
	g.Logger.Info("payroll lookup generated", zap.String("period", p.String()))

	// Re-read so a concurrent first request converges on the stored row.
	stored, err := g.Store.GetLookup(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("load payroll lookup %s: %w", p, err)
	}
	if stored == nil {
		return &l, nil
	}
	return stored, nil
}

// GeneratePeriodLookup parses a "yyyy-MM" key and ensures its lookup.
func (g *Generator) GeneratePeriodLookup(ctx context.Context, key string) (*Lookup, error) {
	p, err := ParsePeriod(key)
	if err != nil {
		return nil, err
	}
	return g.EnsureLookup(ctx, p)
}

// GenerateRecord expands the lookup for one account. An existing record is
// returned untouched unless overwrite is set.
func (g *Generator) GenerateRecord(ctx context.Context, accountID string, p Period, overwrite bool) (*Record, bool, error) {
	acct, err := g.Store.GetPayrollAccount(ctx, accountID)
	if err != nil {
		return nil, false, err
	}
	if acct == nil {
		return nil, false, &filing.RecordNotFoundError{Kind: filing.KindPayrollAccount, ID: accountID}
	}
	l, err := g.EnsureLookup(ctx, p)
	if err != nil {
		return nil, false, err
	}
	return g.expand(ctx, *acct, *l, overwrite)
}

// GenerateRecords expands the lookup for every active payroll account.
// A failure on one account does not stop the others.
func (g *Generator) GenerateRecords(ctx context.Context, p Period, overwrite bool) (*GenerationResult, error) {
	l, err := g.EnsureLookup(ctx, p)
	if err != nil {
		return nil, err
	}
	accounts, err := g.Store.ListPayrollAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payroll accounts: %w", err)
	}

	result := &GenerationResult{Period: p, Failed: make(map[string]error)}
	for _, a := range accounts {
		if !a.IsActive {
			continue
		}
		_, written, err := g.expand(ctx, a, *l, overwrite)
		switch {
		case err != nil:
			result.Failed[a.ID] = err
			g.Logger.Error("payroll record generation failed",
				zap.String("account_id", a.ID), zap.String("period", p.String()), zap.Error(err))
		case written:
			result.Generated = append(result.Generated, a.ID)
		default:
			result.Skipped = append(result.Skipped, a.ID)
		}
	}

	g.Logger.Info("payroll records generated",
		zap.String("period", p.String()),
		zap.Int("generated", len(result.Generated)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("failed", len(result.Failed)),
		zap.Bool("overwrite", overwrite))
	return result, nil
}

func (g *Generator) expand(ctx context.Context, a Account, l Lookup, overwrite bool) (*Record, bool, error) {
	if !overwrite {
		existing, err := g.Store.GetPayrollRecord(ctx, a.ID, l.Period)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			return existing, false, nil
		}
	}

	rec, err := RecordFor(a, l)
	if err != nil {
		return nil, false, err
	}
	rec.GeneratedAt = g.Now().UTC()
	if err := g.Store.SavePayrollRecord(ctx, rec); err != nil {
		return nil, false, fmt.Errorf("save payroll record %s/%s: %w", a.ID, l.Period, err)
	}
	return &rec, true, nil
}
