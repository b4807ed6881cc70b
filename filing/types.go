/*
Package filing holds the recurring-obligation model and its due-date rules.

PURPOSE:
  An accounting firm tracks, per client business, a set of recurring
  obligations: sales-tax filings (HST, PST), corporate returns, WSIB and
  LIQ remittances, annual returns, instalments and client payments. Each one
  is a live record sitting on its current period. Confirming the period
  appends a log entry and rolls the record forward; this package computes
  where "forward" is.

KEY CONCEPTS IN THIS FILE (types.go):
  - FilingCycle:   how often an obligation recurs
  - TaxAccountType: which rule table applies
  - FilingPeriod:  (EndingPeriod, DueDate, Cycle) triple
  - InstalmentSchedule: optional advance payments attached to an account
  - TaxAccount, ClientPayment, PersonalTaxAccount: the live records

DESIGN PRINCIPLES:
  1. Pure: nothing here touches storage. Rules take current state and return
     next state; confirm/ applies it transactionally.
  2. Fail fast: a cycle that makes no sense for an account type is an error,
     never a silent default.
  3. Money is decimal.Decimal.

SEE ALSO:
  - rules.go: tax due-date table
  - rule.go: the Rule variant consumed by confirm/
  - progress.go: personal tax filing steps
*/
package filing

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FILING CYCLE
// =============================================================================

// FilingCycle is the recurrence period of an obligation.
type FilingCycle string

const (
	CycleNone        FilingCycle = "none" // "Undefined": no recurrence
	CycleWeekly      FilingCycle = "weekly"
	CycleBiWeekly    FilingCycle = "bi_weekly"
	CycleSemiMonthly FilingCycle = "semi_monthly"
	CycleMonthly     FilingCycle = "monthly"
	CycleBiMonthly   FilingCycle = "bi_monthly"
	CycleQuarterly   FilingCycle = "quarterly"
	CycleAnnually    FilingCycle = "annually"
)

var allCycles = []FilingCycle{
	CycleNone, CycleWeekly, CycleBiWeekly, CycleSemiMonthly,
	CycleMonthly, CycleBiMonthly, CycleQuarterly, CycleAnnually,
}

// ParseFilingCycle accepts the canonical names, case-insensitively.
// An empty string parses as CycleNone.
func ParseFilingCycle(s string) (FilingCycle, error) {
	if s == "" {
		return CycleNone, nil
	}
	norm := FilingCycle(strings.ToLower(strings.TrimSpace(s)))
	for _, c := range allCycles {
		if c == norm {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown filing cycle %q", s)
}

// =============================================================================
// TAX ACCOUNT TYPE
// =============================================================================

// TaxAccountType selects the due-date rule table.
type TaxAccountType string

const (
	AccountHST         TaxAccountType = "hst"
	AccountCorporation TaxAccountType = "corporation"
	AccountPST         TaxAccountType = "pst"
	AccountWSIB        TaxAccountType = "wsib"
	AccountLIQ         TaxAccountType = "liq"
	AccountONT         TaxAccountType = "ont" // Ontario annual return
)

var allAccountTypes = []TaxAccountType{
	AccountHST, AccountCorporation, AccountPST, AccountWSIB, AccountLIQ, AccountONT,
}

// ParseTaxAccountType accepts the canonical names, case-insensitively.
func ParseTaxAccountType(s string) (TaxAccountType, error) {
	norm := TaxAccountType(strings.ToLower(strings.TrimSpace(s)))
	for _, t := range allAccountTypes {
		if t == norm {
			return t, nil
		}
	}
	return "", &UnsupportedAccountTypeError{AccountType: TaxAccountType(s)}
}

// SupportsInstalments reports whether accounts of this type can carry an
// instalment schedule.
func (t TaxAccountType) SupportsInstalments() bool {
	return t == AccountHST || t == AccountCorporation
}

// =============================================================================
// PERIOD AND INSTALMENTS
// =============================================================================

// FilingPeriod is the period a live record currently sits on.
// EndingPeriod <= DueDate always.
type FilingPeriod struct {
	EndingPeriod time.Time
	DueDate      time.Time
	Cycle        FilingCycle
}

// InstalmentSchedule is an optional advance-payment plan.
// DueDate is nil unless Required is true.
type InstalmentSchedule struct {
	Required bool
	Amount   decimal.Decimal
	DueDate  *time.Time
}

// Validate checks the schedule's shape. It does not require a non-zero
// amount; that is checked when an instalment is confirmed.
func (s InstalmentSchedule) Validate() error {
	if !s.Required && s.DueDate != nil {
		return fmt.Errorf("instalment due date set but instalments are not required")
	}
	if s.Amount.IsNegative() {
		return fmt.Errorf("instalment amount must not be negative")
	}
	return nil
}

// =============================================================================
// LIVE RECORDS
// =============================================================================

// TaxAccount is a business's recurring tax obligation.
type TaxAccount struct {
	ID                  string
	BusinessID          string
	Type                TaxAccountType
	Period              FilingPeriod
	SoleProprietorship  bool
	Instalment          InstalmentSchedule
	PendingConfirmation string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Validate checks the account before it is persisted.
func (a *TaxAccount) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("tax account id is required")
	}
	cycles := ValidCycles(a.Type)
	if len(cycles) == 0 {
		return &UnsupportedAccountTypeError{AccountType: a.Type}
	}
	if !slices.Contains(cycles, a.Period.Cycle) {
		return &InvalidFilingCycleError{AccountType: a.Type, Cycle: a.Period.Cycle}
	}
	if a.Period.DueDate.Before(a.Period.EndingPeriod) {
		return fmt.Errorf("due date %s is before ending period %s",
			a.Period.DueDate.Format("2006-01-02"), a.Period.EndingPeriod.Format("2006-01-02"))
	}
	if a.Instalment.Required && !a.Type.SupportsInstalments() {
		return fmt.Errorf("%s accounts do not take instalments", a.Type)
	}
	return a.Instalment.Validate()
}

// ClientPayment is a recurring payment a client owes the firm.
type ClientPayment struct {
	ID                  string
	BusinessID          string
	Description         string
	Amount              decimal.Decimal
	Cycle               FilingCycle
	DueDate             time.Time
	IsActive            bool
	PendingConfirmation string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// PersonalTaxAccount is an individual's yearly return.
// Period.EndingPeriod is December 31 of the tax year.
type PersonalTaxAccount struct {
	ID                  string
	ClientID            string
	Period              FilingPeriod
	SelfEmployed        bool
	Progress            Progress
	Instalment          InstalmentSchedule
	PendingConfirmation string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TaxYear is the year the return covers.
func (p *PersonalTaxAccount) TaxYear() int { return p.Period.EndingPeriod.Year() }
