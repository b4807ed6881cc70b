package filing

import (
	"fmt"
	"time"
)

// =============================================================================
// RULE - Next-period strategy, one variant per kind of confirmation
// =============================================================================

// RuleKind tags which rule family a Rule evaluates.
type RuleKind string

const (
	RuleTaxFiling          RuleKind = "tax_filing"
	RuleBusinessInstalment RuleKind = "business_instalment"
	RulePersonalFiling     RuleKind = "personal_filing"
	RulePersonalInstalment RuleKind = "personal_instalment"
	RuleClientPayment      RuleKind = "client_payment"
)

// Rule is the next-period strategy handed to the confirm-and-advance
// operation. Only the fields relevant to Kind are read:
//
//	RuleTaxFiling          AccountType, Cycle, SoleProprietorship
//	RuleBusinessInstalment AccountType, Cycle
//	RulePersonalFiling     SoleProprietorship (self-employed filer)
//	RulePersonalInstalment (none)
//	RuleClientPayment      Cycle
type Rule struct {
	Kind               RuleKind
	AccountType        TaxAccountType
	Cycle              FilingCycle
	SoleProprietorship bool
}

// Advance is the result of evaluating a Rule.
type Advance struct {
	// EndingPeriod is zero for rules that only move a due date.
	EndingPeriod time.Time
	DueDate      time.Time
	// Deactivate ends the recurrence; EndingPeriod and DueDate are zero.
	Deactivate bool
}

// Next evaluates the rule against the current period. today is the
// confirmation date and only matters to rules anchored on "now". For
// RuleBusinessInstalment, current.DueDate is the instalment due date, not
// the filing due date.
func (r Rule) Next(current FilingPeriod, today time.Time) (Advance, error) {
	switch r.Kind {
	case RuleTaxFiling:
		end, due, err := NextTaxDueDates(r.AccountType, current.EndingPeriod, r.Cycle, r.SoleProprietorship)
		if err != nil {
			return Advance{}, err
		}
		return Advance{EndingPeriod: end, DueDate: due}, nil

	case RuleBusinessInstalment:
		due, err := NextBusinessInstalment(r.AccountType, r.Cycle, current.EndingPeriod, current.DueDate)
		if err != nil {
			return Advance{}, err
		}
		return Advance{DueDate: due}, nil

	case RulePersonalFiling:
		end, due := NextPersonalFilingPeriod(current.EndingPeriod, r.SoleProprietorship)
		return Advance{EndingPeriod: end, DueDate: due}, nil

	case RulePersonalInstalment:
		return Advance{DueDate: PersonalInstalmentDueDate(today)}, nil

	case RuleClientPayment:
		if r.Cycle == CycleNone {
			return Advance{Deactivate: true}, nil
		}
		due, err := NextClientPaymentDueDate(r.Cycle, current.DueDate)
		if err != nil {
			return Advance{}, err
		}
		return Advance{DueDate: due}, nil

	default:
		return Advance{}, fmt.Errorf("unknown rule kind %q", r.Kind)
	}
}
