/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the domain model from the wire contract: dates travel as "YYYY-MM-DD",
  payroll periods as "YYYY-MM", amounts as decimal strings.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  DTOs are pure data carriers. Parsing and validation happen in handlers
  (see the from* helpers below) and in the domain Validate methods.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgerdesk/filing-engine/calendar"
	"github.com/ledgerdesk/filing-engine/confirm"
	"github.com/ledgerdesk/filing-engine/filing"
	"github.com/ledgerdesk/filing-engine/payroll"
)

// =============================================================================
// RULE EVALUATION
// =============================================================================

// TaxDueDatesRequest asks for the period after ending_period.
type TaxDueDatesRequest struct {
	AccountType          string `json:"account_type"`
	EndingPeriod         string `json:"ending_period"`
	Cycle                string `json:"cycle"`
	IsSoleProprietorship bool   `json:"is_sole_proprietorship"`
}

// TaxDueDatesDTO is the next filing period.
type TaxDueDatesDTO struct {
	NextEndingPeriod string `json:"next_ending_period"`
	NextDueDate      string `json:"next_due_date"`
}

// InstalmentDueDateRequest evaluates an instalment rule.
// Kind is "business" (uses ending_period) or "personal" (uses today).
type InstalmentDueDateRequest struct {
	Kind         string `json:"kind"`
	EndingPeriod string `json:"ending_period,omitempty"`
	Today        string `json:"today,omitempty"`
}

// InstalmentDueDateDTO is the computed instalment due date.
type InstalmentDueDateDTO struct {
	DueDate string `json:"due_date"`
}

// =============================================================================
// PAYROLL
// =============================================================================

// ScheduleDTO is one pay cycle's dates within a period.
type ScheduleDTO struct {
	DueDates    []string `json:"due_dates"`
	PayoutDates []string `json:"payout_dates"`
}

// LookupDTO is the shared due-date row of a payroll period.
type LookupDTO struct {
	Period               string                 `json:"period"`
	PreviousPeriod       string                 `json:"previous_period"`
	Schedules            map[string]ScheduleDTO `json:"schedules"`
	PD7AMonthlyDueDate   string                 `json:"pd7a_monthly_due_date"`
	PD7AQuarterlyDueDate *string                `json:"pd7a_quarterly_due_date"`
	CreatedAt            string                 `json:"created_at,omitempty"`
}

// PeriodsDTO is a sequence of payroll period keys.
type PeriodsDTO struct {
	From    string   `json:"from"`
	Periods []string `json:"periods"`
}

// GenerationResultDTO summarises a generation run.
type GenerationResultDTO struct {
	Period    string            `json:"period"`
	Overwrite bool              `json:"overwrite"`
	Generated []string          `json:"generated"`
	Skipped   []string          `json:"skipped"`
	Failed    map[string]string `json:"failed,omitempty"`
}

// PayrollAccountDTO represents a payroll account.
type PayrollAccountDTO struct {
	ID         string `json:"id"`
	BusinessID string `json:"business_id"`
	Cycle      string `json:"cycle"`
	Remittance string `json:"remittance"`
	IsActive   bool   `json:"is_active"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// CreatePayrollAccountRequest is the request to create a payroll account.
// A missing id is generated.
type CreatePayrollAccountRequest struct {
	ID         string `json:"id"`
	BusinessID string `json:"business_id"`
	Cycle      string `json:"cycle"`
	Remittance string `json:"remittance"`
	IsActive   *bool  `json:"is_active,omitempty"`
}

// PayrollRecordDTO is one account's dates for one period.
type PayrollRecordDTO struct {
	AccountID   string   `json:"account_id"`
	Period      string   `json:"period"`
	Cycle       string   `json:"cycle"`
	DueDates    []string `json:"due_dates"`
	PayoutDates []string `json:"payout_dates"`
	PD7ADueDate *string  `json:"pd7a_due_date"`
	GeneratedAt string   `json:"generated_at"`
}

// =============================================================================
// LIVE RECORDS
// =============================================================================

// FilingPeriodDTO is the period a record currently sits on.
type FilingPeriodDTO struct {
	EndingPeriod string `json:"ending_period"`
	DueDate      string `json:"due_date"`
	Cycle        string `json:"cycle"`
}

// InstalmentDTO is an optional advance-payment plan.
type InstalmentDTO struct {
	Required bool            `json:"required"`
	Amount   decimal.Decimal `json:"amount"`
	DueDate  *string         `json:"due_date"`
}

// TaxAccountDTO represents a business tax account.
type TaxAccountDTO struct {
	ID                   string          `json:"id"`
	BusinessID           string          `json:"business_id"`
	AccountType          string          `json:"account_type"`
	Period               FilingPeriodDTO `json:"period"`
	IsSoleProprietorship bool            `json:"is_sole_proprietorship"`
	Instalment           InstalmentDTO   `json:"instalment"`
	PendingConfirmation  string          `json:"pending_confirmation,omitempty"`
	CreatedAt            string          `json:"created_at,omitempty"`
	UpdatedAt            string          `json:"updated_at,omitempty"`
}

// CreateTaxAccountRequest is the request to create a tax account. A missing
// id is generated. A required instalment without a due date gets the
// standard one for the ending period.
type CreateTaxAccountRequest struct {
	ID                   string          `json:"id"`
	BusinessID           string          `json:"business_id"`
	AccountType          string          `json:"account_type"`
	Period               FilingPeriodDTO `json:"period"`
	IsSoleProprietorship bool            `json:"is_sole_proprietorship"`
	Instalment           *InstalmentDTO  `json:"instalment,omitempty"`
}

// ClientPaymentDTO represents a recurring client payment.
type ClientPaymentDTO struct {
	ID                  string          `json:"id"`
	BusinessID          string          `json:"business_id"`
	Description         string          `json:"description,omitempty"`
	Amount              decimal.Decimal `json:"amount"`
	Cycle               string          `json:"cycle"`
	DueDate             string          `json:"due_date"`
	IsActive            bool            `json:"is_active"`
	PendingConfirmation string          `json:"pending_confirmation,omitempty"`
	CreatedAt           string          `json:"created_at,omitempty"`
	UpdatedAt           string          `json:"updated_at,omitempty"`
}

// CreateClientPaymentRequest is the request to create a client payment.
type CreateClientPaymentRequest struct {
	ID          string          `json:"id"`
	BusinessID  string          `json:"business_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Cycle       string          `json:"cycle"`
	DueDate     string          `json:"due_date"`
}

// PersonalTaxAccountDTO represents an individual's yearly return.
type PersonalTaxAccountDTO struct {
	ID                  string          `json:"id"`
	ClientID            string          `json:"client_id"`
	TaxYear             int             `json:"tax_year"`
	Period              FilingPeriodDTO `json:"period"`
	SelfEmployed        bool            `json:"self_employed"`
	Progress            string          `json:"progress"`
	Instalment          InstalmentDTO   `json:"instalment"`
	PendingConfirmation string          `json:"pending_confirmation,omitempty"`
	CreatedAt           string          `json:"created_at,omitempty"`
	UpdatedAt           string          `json:"updated_at,omitempty"`
}

// CreatePersonalTaxAccountRequest is the request to open a personal return.
// The period is derived from tax_year and self_employed.
type CreatePersonalTaxAccountRequest struct {
	ID           string         `json:"id"`
	ClientID     string         `json:"client_id"`
	TaxYear      int            `json:"tax_year"`
	SelfEmployed bool           `json:"self_employed"`
	Instalment   *InstalmentDTO `json:"instalment,omitempty"`
}

// ProgressRequest moves a personal return to another step.
type ProgressRequest struct {
	Progress string `json:"progress"`
}

// =============================================================================
// CONFIRMATION
// =============================================================================

// ConfirmRequest is the body of every confirm endpoint.
type ConfirmRequest struct {
	ConfirmedBy string `json:"confirmed_by"`
	Notes       string `json:"notes,omitempty"`
}

// LogEntryDTO is one confirmation log entry.
type LogEntryDTO struct {
	ID           string          `json:"id"`
	Kind         string          `json:"kind"`
	RecordID     string          `json:"record_id"`
	EndingPeriod string          `json:"ending_period,omitempty"`
	DueDate      string          `json:"due_date"`
	Cycle        string          `json:"cycle"`
	Amount       decimal.Decimal `json:"amount"`
	Notes        string          `json:"notes,omitempty"`
	ConfirmedBy  string          `json:"confirmed_by"`
	ConfirmedAt  string          `json:"confirmed_at"`
}

// ConfirmResponse carries the advanced record and the log entry written.
type ConfirmResponse struct {
	Record any         `json:"record"`
	Log    LogEntryDTO `json:"log"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatDates(ts []time.Time) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = calendar.Format(t)
	}
	return out
}

func formatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := calendar.Format(*t)
	return &s
}

func toLookupDTO(l *payroll.Lookup) LookupDTO {
	dto := LookupDTO{
		Period:               l.Period.String(),
		PreviousPeriod:       l.PreviousPeriod.String(),
		Schedules:            make(map[string]ScheduleDTO, len(l.Schedules)),
		PD7AMonthlyDueDate:   calendar.Format(l.PD7AMonthlyDueDate),
		PD7AQuarterlyDueDate: formatDatePtr(l.PD7AQuarterlyDueDate),
		CreatedAt:            formatTime(l.CreatedAt),
	}
	for cycle, s := range l.Schedules {
		dto.Schedules[string(cycle)] = ScheduleDTO{
			DueDates:    formatDates(s.DueDates),
			PayoutDates: formatDates(s.PayoutDates),
		}
	}
	return dto
}

func toGenerationResultDTO(r *payroll.GenerationResult, overwrite bool) GenerationResultDTO {
	dto := GenerationResultDTO{
		Period:    r.Period.String(),
		Overwrite: overwrite,
		Generated: nonNil(r.Generated),
		Skipped:   nonNil(r.Skipped),
	}
	if len(r.Failed) > 0 {
		dto.Failed = make(map[string]string, len(r.Failed))
		for id, err := range r.Failed {
			dto.Failed[id] = err.Error()
		}
	}
	return dto
}

func toPayrollAccountDTO(a payroll.Account) PayrollAccountDTO {
	return PayrollAccountDTO{
		ID:         a.ID,
		BusinessID: a.BusinessID,
		Cycle:      string(a.Cycle),
		Remittance: string(a.Remittance),
		IsActive:   a.IsActive,
		CreatedAt:  formatTime(a.CreatedAt),
	}
}

func toPayrollRecordDTO(r *payroll.Record) PayrollRecordDTO {
	return PayrollRecordDTO{
		AccountID:   r.AccountID,
		Period:      r.Period.String(),
		Cycle:       string(r.Cycle),
		DueDates:    formatDates(r.DueDates),
		PayoutDates: formatDates(r.PayoutDates),
		PD7ADueDate: formatDatePtr(r.PD7ADueDate),
		GeneratedAt: formatTime(r.GeneratedAt),
	}
}

func toFilingPeriodDTO(p filing.FilingPeriod) FilingPeriodDTO {
	return FilingPeriodDTO{
		EndingPeriod: calendar.Format(p.EndingPeriod),
		DueDate:      calendar.Format(p.DueDate),
		Cycle:        string(p.Cycle),
	}
}

func toInstalmentDTO(s filing.InstalmentSchedule) InstalmentDTO {
	return InstalmentDTO{Required: s.Required, Amount: s.Amount, DueDate: formatDatePtr(s.DueDate)}
}

func toTaxAccountDTO(a *filing.TaxAccount) TaxAccountDTO {
	return TaxAccountDTO{
		ID:                   a.ID,
		BusinessID:           a.BusinessID,
		AccountType:          string(a.Type),
		Period:               toFilingPeriodDTO(a.Period),
		IsSoleProprietorship: a.SoleProprietorship,
		Instalment:           toInstalmentDTO(a.Instalment),
		PendingConfirmation:  a.PendingConfirmation,
		CreatedAt:            formatTime(a.CreatedAt),
		UpdatedAt:            formatTime(a.UpdatedAt),
	}
}

func toClientPaymentDTO(p *filing.ClientPayment) ClientPaymentDTO {
	return ClientPaymentDTO{
		ID:                  p.ID,
		BusinessID:          p.BusinessID,
		Description:         p.Description,
		Amount:              p.Amount,
		Cycle:               string(p.Cycle),
		DueDate:             calendar.Format(p.DueDate),
		IsActive:            p.IsActive,
		PendingConfirmation: p.PendingConfirmation,
		CreatedAt:           formatTime(p.CreatedAt),
		UpdatedAt:           formatTime(p.UpdatedAt),
	}
}

func toPersonalTaxAccountDTO(a *filing.PersonalTaxAccount) PersonalTaxAccountDTO {
	return PersonalTaxAccountDTO{
		ID:                  a.ID,
		ClientID:            a.ClientID,
		TaxYear:             a.TaxYear(),
		Period:              toFilingPeriodDTO(a.Period),
		SelfEmployed:        a.SelfEmployed,
		Progress:            a.Progress.String(),
		Instalment:          toInstalmentDTO(a.Instalment),
		PendingConfirmation: a.PendingConfirmation,
		CreatedAt:           formatTime(a.CreatedAt),
		UpdatedAt:           formatTime(a.UpdatedAt),
	}
}

func toLogEntryDTO(e confirm.LogEntry) LogEntryDTO {
	dto := LogEntryDTO{
		ID:          e.ID,
		Kind:        string(e.Kind),
		RecordID:    e.RecordID,
		DueDate:     calendar.Format(e.DueDate),
		Cycle:       string(e.Cycle),
		Amount:      e.Amount,
		Notes:       e.Notes,
		ConfirmedBy: e.ConfirmedBy,
		ConfirmedAt: formatTime(e.ConfirmedAt),
	}
	if !e.EndingPeriod.IsZero() {
		dto.EndingPeriod = calendar.Format(e.EndingPeriod)
	}
	return dto
}

func toLogEntryDTOs(entries []confirm.LogEntry) []LogEntryDTO {
	dtos := make([]LogEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toLogEntryDTO(e)
	}
	return dtos
}

// fromInstalmentDTO parses an optional instalment plan.
func fromInstalmentDTO(dto *InstalmentDTO) (filing.InstalmentSchedule, error) {
	if dto == nil {
		return filing.InstalmentSchedule{}, nil
	}
	s := filing.InstalmentSchedule{Required: dto.Required, Amount: dto.Amount}
	if dto.DueDate != nil {
		due, err := calendar.Parse(*dto.DueDate)
		if err != nil {
			return s, fmt.Errorf("instalment.due_date: %w", err)
		}
		s.DueDate = &due
	}
	return s, nil
}

func fromFilingPeriodDTO(dto FilingPeriodDTO) (filing.FilingPeriod, error) {
	end, err := calendar.Parse(dto.EndingPeriod)
	if err != nil {
		return filing.FilingPeriod{}, fmt.Errorf("period.ending_period: %w", err)
	}
	due, err := calendar.Parse(dto.DueDate)
	if err != nil {
		return filing.FilingPeriod{}, fmt.Errorf("period.due_date: %w", err)
	}
	cycle, err := filing.ParseFilingCycle(dto.Cycle)
	if err != nil {
		return filing.FilingPeriod{}, err
	}
	return filing.FilingPeriod{EndingPeriod: end, DueDate: due, Cycle: cycle}, nil
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}
