/*
errors.go - Error taxonomy for the filing engine

ERROR CATEGORIES:
  1. Configuration errors - bad cycle for an account type, unknown account
     type, malformed payroll period, missing record. Fatal to the single
     operation, never retried, shown to the user verbatim.
  2. Workflow errors - illegal progress transition, instalment confirmed
     without an amount, confirming an inactive payment.

Transactional failures are not defined here: the store's own error is
surfaced unchanged after rollback.
*/
package filing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidFilingCycle is returned when a rule has no row for the cycle.
	ErrInvalidFilingCycle = errors.New("invalid filing cycle")

	// ErrUnsupportedAccountType is returned for an account type with no rule table.
	ErrUnsupportedAccountType = errors.New("unsupported account type")

	// ErrRecordNotFound is returned when a live record id does not exist.
	ErrRecordNotFound = errors.New("record not found")

	// ErrInvalidPeriodFormat is returned for a payroll period that is not yyyy-MM.
	ErrInvalidPeriodFormat = errors.New("invalid payroll period format")

	// ErrIllegalProgress is returned for a personal tax step that skips ahead.
	ErrIllegalProgress = errors.New("illegal progress transition")

	// ErrInstalmentAmountRequired is returned when confirming an instalment
	// that is not required or has no amount.
	ErrInstalmentAmountRequired = errors.New("instalment amount required")

	// ErrInactiveRecord is returned when confirming a deactivated record.
	ErrInactiveRecord = errors.New("record is inactive")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// InvalidFilingCycleError names the account type and the rejected cycle.
type InvalidFilingCycleError struct {
	AccountType TaxAccountType
	Cycle       FilingCycle
}

func (e *InvalidFilingCycleError) Error() string {
	return fmt.Sprintf("invalid filing cycle %q for %s account", e.Cycle, e.AccountType)
}

func (e *InvalidFilingCycleError) Unwrap() error { return ErrInvalidFilingCycle }

// UnsupportedAccountTypeError names the unknown account type.
type UnsupportedAccountTypeError struct {
	AccountType TaxAccountType
}

func (e *UnsupportedAccountTypeError) Error() string {
	return fmt.Sprintf("unsupported account type %q", e.AccountType)
}

func (e *UnsupportedAccountTypeError) Unwrap() error { return ErrUnsupportedAccountType }

// RecordKind labels a live record in not-found messages.
type RecordKind string

const (
	KindTaxAccount         RecordKind = "TaxAccountId"
	KindClientPayment      RecordKind = "ClientPaymentId"
	KindPersonalTaxAccount RecordKind = "PersonalTaxAccountId"
	KindPayrollAccount     RecordKind = "PayrollAccountId"
)

// RecordNotFoundError reports a missing live record, e.g. "TaxAccountId:42 not found".
type RecordNotFoundError struct {
	Kind RecordKind
	ID   string
}

func (e *RecordNotFoundError) Error() string {
	return fmt.Sprintf("%s:%s not found", e.Kind, e.ID)
}

func (e *RecordNotFoundError) Unwrap() error { return ErrRecordNotFound }

// InvalidPeriodFormatError carries the rejected payroll period input.
type InvalidPeriodFormatError struct {
	Input string
}

func (e *InvalidPeriodFormatError) Error() string {
	return fmt.Sprintf("invalid payroll period %q: expected yyyy-MM", e.Input)
}

func (e *InvalidPeriodFormatError) Unwrap() error { return ErrInvalidPeriodFormat }

// IllegalProgressError names the rejected transition.
type IllegalProgressError struct {
	From Progress
	To   Progress
}

func (e *IllegalProgressError) Error() string {
	return fmt.Sprintf("cannot move personal tax progress from %s to %s", e.From, e.To)
}

func (e *IllegalProgressError) Unwrap() error { return ErrIllegalProgress }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error stems from bad input data.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidFilingCycle) ||
		errors.Is(err, ErrUnsupportedAccountType) ||
		errors.Is(err, ErrInvalidPeriodFormat) ||
		errors.Is(err, ErrIllegalProgress) ||
		errors.Is(err, ErrInstalmentAmountRequired) ||
		errors.Is(err, ErrInactiveRecord)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}
