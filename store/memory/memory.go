// Package memory provides an in-memory store for tests and throwaway runs.
package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/ledgerdesk/filing-engine/confirm"
	"github.com/ledgerdesk/filing-engine/filing"
	"github.com/ledgerdesk/filing-engine/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Store implements confirm.TxStore and payroll.Store.
type Store struct {
	mu sync.RWMutex
	st *state
}

type recordKey struct {
	AccountID string
	Period    payroll.Period
}

// state is everything a transaction can roll back.
type state struct {
	taxAccounts      map[string]filing.TaxAccount
	clientPayments   map[string]filing.ClientPayment
	personalAccounts map[string]filing.PersonalTaxAccount
	logs             []confirm.LogEntry

	lookups         map[payroll.Period]payroll.Lookup
	payrollAccounts map[string]payroll.Account
	payrollRecords  map[recordKey]payroll.Record
}

// New returns an empty store.
func New() *Store {
	return &Store{st: newState()}
}

func newState() *state {
	return &state{
		taxAccounts:      make(map[string]filing.TaxAccount),
		clientPayments:   make(map[string]filing.ClientPayment),
		personalAccounts: make(map[string]filing.PersonalTaxAccount),
		lookups:          make(map[payroll.Period]payroll.Lookup),
		payrollAccounts:  make(map[string]payroll.Account),
		payrollRecords:   make(map[recordKey]payroll.Record),
	}
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (s *Store) WithTx(ctx context.Context, fn func(confirm.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(&txView{st: s.st}); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

// Map values are copied by value; pointer fields inside them are never
// mutated in place, so a shallow copy of each map is a full snapshot.
func (st *state) clone() *state {
	return &state{
		taxAccounts:      maps.Clone(st.taxAccounts),
		clientPayments:   maps.Clone(st.clientPayments),
		personalAccounts: maps.Clone(st.personalAccounts),
		logs:             slices.Clone(st.logs),
		lookups:          maps.Clone(st.lookups),
		payrollAccounts:  maps.Clone(st.payrollAccounts),
		payrollRecords:   maps.Clone(st.payrollRecords),
	}
}

// txView is the Store handed to WithTx callbacks. The parent lock is already
// held.
type txView struct {
	st *state
}

func (tv *txView) GetTaxAccount(_ context.Context, id string) (*filing.TaxAccount, error) {
	return tv.st.taxAccount(id), nil
}

func (tv *txView) SaveTaxAccount(_ context.Context, a *filing.TaxAccount) error {
	tv.st.saveTaxAccount(a)
	return nil
}

func (tv *txView) GetClientPayment(_ context.Context, id string) (*filing.ClientPayment, error) {
	return tv.st.clientPayment(id), nil
}

func (tv *txView) SaveClientPayment(_ context.Context, p *filing.ClientPayment) error {
	tv.st.clientPayments[p.ID] = *p
	return nil
}

func (tv *txView) GetPersonalTaxAccount(_ context.Context, id string) (*filing.PersonalTaxAccount, error) {
	return tv.st.personalAccount(id), nil
}

func (tv *txView) SavePersonalTaxAccount(_ context.Context, a *filing.PersonalTaxAccount) error {
	tv.st.savePersonalAccount(a)
	return nil
}

func (tv *txView) AppendLog(_ context.Context, e confirm.LogEntry) error {
	tv.st.logs = append(tv.st.logs, e)
	return nil
}

func (tv *txView) Logs(_ context.Context, recordID string, kinds ...confirm.LogKind) ([]confirm.LogEntry, error) {
	return tv.st.logsFor(recordID, kinds), nil
}

// =============================================================================
// LIVE RECORDS
// =============================================================================

func (s *Store) GetTaxAccount(_ context.Context, id string) (*filing.TaxAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.taxAccount(id), nil
}

func (s *Store) SaveTaxAccount(_ context.Context, a *filing.TaxAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.saveTaxAccount(a)
	return nil
}

// ListTaxAccounts returns a business's tax accounts ordered by due date.
// An empty businessID lists every account.
func (s *Store) ListTaxAccounts(_ context.Context, businessID string) ([]filing.TaxAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []filing.TaxAccount
	for _, id := range slices.Sorted(maps.Keys(s.st.taxAccounts)) {
		a := s.st.taxAccount(id)
		if businessID != "" && a.BusinessID != businessID {
			continue
		}
		out = append(out, *a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Period.DueDate.Before(out[j].Period.DueDate)
	})
	return out, nil
}

func (s *Store) GetClientPayment(_ context.Context, id string) (*filing.ClientPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.clientPayment(id), nil
}

func (s *Store) SaveClientPayment(_ context.Context, p *filing.ClientPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.clientPayments[p.ID] = *p
	return nil
}

func (s *Store) GetPersonalTaxAccount(_ context.Context, id string) (*filing.PersonalTaxAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.personalAccount(id), nil
}

func (s *Store) SavePersonalTaxAccount(_ context.Context, a *filing.PersonalTaxAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.savePersonalAccount(a)
	return nil
}

// AppendLog adds a log entry. Append-only.
func (s *Store) AppendLog(_ context.Context, e confirm.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.logs = append(s.st.logs, e)
	return nil
}

func (s *Store) Logs(_ context.Context, recordID string, kinds ...confirm.LogKind) ([]confirm.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.logsFor(recordID, kinds), nil
}

func (st *state) taxAccount(id string) *filing.TaxAccount {
	a, ok := st.taxAccounts[id]
	if !ok {
		return nil
	}
	a.Instalment.DueDate = copyTime(a.Instalment.DueDate)
	return &a
}

func (st *state) saveTaxAccount(a *filing.TaxAccount) {
	c := *a
	c.Instalment.DueDate = copyTime(a.Instalment.DueDate)
	st.taxAccounts[a.ID] = c
}

func (st *state) clientPayment(id string) *filing.ClientPayment {
	p, ok := st.clientPayments[id]
	if !ok {
		return nil
	}
	return &p
}

func (st *state) personalAccount(id string) *filing.PersonalTaxAccount {
	a, ok := st.personalAccounts[id]
	if !ok {
		return nil
	}
	a.Instalment.DueDate = copyTime(a.Instalment.DueDate)
	return &a
}

func (st *state) savePersonalAccount(a *filing.PersonalTaxAccount) {
	c := *a
	c.Instalment.DueDate = copyTime(a.Instalment.DueDate)
	st.personalAccounts[a.ID] = c
}

func (st *state) logsFor(recordID string, kinds []confirm.LogKind) []confirm.LogEntry {
	var out []confirm.LogEntry
	for _, e := range st.logs {
		if e.RecordID != recordID {
			continue
		}
		if len(kinds) > 0 && !slices.Contains(kinds, e.Kind) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// =============================================================================
// PAYROLL
// =============================================================================

func (s *Store) GetLookup(_ context.Context, p payroll.Period) (*payroll.Lookup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.st.lookups[p]
	if !ok {
		return nil, nil
	}
	l.Schedules = maps.Clone(l.Schedules)
	return &l, nil
}

// SaveLookup stores l unless its period already has a row.
func (s *Store) SaveLookup(_ context.Context, l payroll.Lookup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.lookups[l.Period]; ok {
		return nil
	}
	l.Schedules = maps.Clone(l.Schedules)
	s.st.lookups[l.Period] = l
	return nil
}

func (s *Store) SavePayrollAccount(_ context.Context, a payroll.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.payrollAccounts[a.ID] = a
	return nil
}

func (s *Store) GetPayrollAccount(_ context.Context, id string) (*payroll.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.st.payrollAccounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// ListPayrollAccounts returns every payroll account ordered by id.
func (s *Store) ListPayrollAccounts(_ context.Context) ([]payroll.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]payroll.Account, 0, len(s.st.payrollAccounts))
	for _, a := range s.st.payrollAccounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetPayrollRecord(_ context.Context, accountID string, p payroll.Period) (*payroll.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.st.payrollRecords[recordKey{AccountID: accountID, Period: p}]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// SavePayrollRecord inserts or replaces the (account, period) record.
func (s *Store) SavePayrollRecord(_ context.Context, r payroll.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.payrollRecords[recordKey{AccountID: r.AccountID, Period: r.Period}] = r
	return nil
}
