/*
handlers.go - HTTP API handlers for the filing engine

PURPOSE:
  Exposes the due-date rules, the payroll lookup and the confirm operations
  via REST API. Handles HTTP request/response, JSON serialization, and
  delegates to the domain packages.

ENDPOINTS:
  Rules:
    POST   /api/rules/tax-due-dates                 Next filing period
    POST   /api/rules/instalment-due-date           Business or personal instalment date

  Payroll:
    GET    /api/payroll/periods/{period}            Lookup (generated on first request)
    GET    /api/payroll/periods/{period}/next       Following period keys (?count=n)
    GET    /api/payroll/periods/{period}/previous   Preceding period keys (?count=n)
    POST   /api/payroll/periods/{period}/generate   Expand for all accounts (?overwrite=bool)
    POST   /api/payroll/accounts                    Create payroll account
    GET    /api/payroll/accounts/{id}/records/{period}

  Tax accounts, client payments, personal tax accounts:
    GET    /api/tax-accounts?business_id=           List tax accounts by due date
    POST   /api/<records>                           Create
    GET    /api/<records>/{id}                      Get
    POST   /api/<records>/{id}/confirm*             Confirm and advance
    GET    /api/<records>/{id}/logs                 Confirmation history

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store: live records, logs and payroll rows
  - Confirmer: confirm-and-advance in one transaction
  - Generator: payroll lookup cache and per-account expansion

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, illegal transitions
  - 404: Record not found
  - 409: Create with an id that already exists
  - 500: Internal errors

SECURITY NOTE:
  No authentication. The confirming user id is taken from the request body.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ledgerdesk/filing-engine/calendar"
	"github.com/ledgerdesk/filing-engine/confirm"
	"github.com/ledgerdesk/filing-engine/filing"
	"github.com/ledgerdesk/filing-engine/payroll"
)

const (
	defaultPeriodCount = 12
	maxPeriodCount     = 120
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is everything the API persists.
type Store interface {
	confirm.TxStore
	payroll.Store
	ListTaxAccounts(ctx context.Context, businessID string) ([]filing.TaxAccount, error)
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     Store
	Confirmer *confirm.Confirmer
	Generator *payroll.Generator
	Logger    *zap.Logger

	Now   func() time.Time
	NewID func() string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:     store,
		Confirmer: confirm.NewConfirmer(store, logger),
		Generator: payroll.NewGenerator(store, logger),
		Logger:    logger,
		Now:       time.Now,
		NewID:     uuid.NewString,
	}
}

// Health reports whether the store answers.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Store.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Store unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// RULE HANDLERS
// =============================================================================

// EvaluateTaxDueDates computes the period after the given one.
// POST /api/rules/tax-due-dates
func (h *Handler) EvaluateTaxDueDates(w http.ResponseWriter, r *http.Request) {
	var req TaxDueDatesRequest
	if !decode(w, r, &req) {
		return
	}

	accountType, err := filing.ParseTaxAccountType(req.AccountType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid account_type", err)
		return
	}
	ending, err := calendar.Parse(req.EndingPeriod)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ending_period format (use YYYY-MM-DD)", err)
		return
	}
	cycle, err := filing.ParseFilingCycle(req.Cycle)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cycle", err)
		return
	}

	nextEnd, nextDue, err := filing.NextTaxDueDates(accountType, ending, cycle, req.IsSoleProprietorship)
	if err != nil {
		h.writeDomainError(w, "Failed to compute due dates", err)
		return
	}

	writeJSON(w, http.StatusOK, TaxDueDatesDTO{
		NextEndingPeriod: calendar.Format(nextEnd),
		NextDueDate:      calendar.Format(nextDue),
	})
}

// EvaluateInstalmentDueDate computes a business or personal instalment date.
// POST /api/rules/instalment-due-date
func (h *Handler) EvaluateInstalmentDueDate(w http.ResponseWriter, r *http.Request) {
	var req InstalmentDueDateRequest
	if !decode(w, r, &req) {
		return
	}

	var due time.Time
	switch req.Kind {
	case "business":
		ending, err := calendar.Parse(req.EndingPeriod)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid ending_period format (use YYYY-MM-DD)", err)
			return
		}
		due = filing.NextInstalmentDueDate(ending)
	case "personal":
		today := h.Now()
		if req.Today != "" {
			var err error
			if today, err = calendar.Parse(req.Today); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid today format (use YYYY-MM-DD)", err)
				return
			}
		}
		due = filing.PersonalInstalmentDueDate(today)
	default:
		writeError(w, http.StatusBadRequest, "kind must be business or personal", nil)
		return
	}

	writeJSON(w, http.StatusOK, InstalmentDueDateDTO{DueDate: calendar.Format(due)})
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// GetPayrollLookup returns a period's lookup row, generating it once.
// GET /api/payroll/periods/{period}
func (h *Handler) GetPayrollLookup(w http.ResponseWriter, r *http.Request) {
	l, err := h.Generator.GeneratePeriodLookup(r.Context(), chi.URLParam(r, "period"))
	if err != nil {
		h.writeDomainError(w, "Failed to load payroll lookup", err)
		return
	}
	writeJSON(w, http.StatusOK, toLookupDTO(l))
}

// ListNextPeriods returns the keys following a period.
// GET /api/payroll/periods/{period}/next?count=n
func (h *Handler) ListNextPeriods(w http.ResponseWriter, r *http.Request) {
	h.listPeriods(w, r, payroll.NextPeriods)
}

// ListPreviousPeriods returns the keys preceding a period, most recent first.
// GET /api/payroll/periods/{period}/previous?count=n
func (h *Handler) ListPreviousPeriods(w http.ResponseWriter, r *http.Request) {
	h.listPeriods(w, r, payroll.PreviousPeriods)
}

func (h *Handler) listPeriods(w http.ResponseWriter, r *http.Request, seq func(payroll.Period, int) iter.Seq[payroll.Period]) {
	p, ok := parsePeriodParam(w, r)
	if !ok {
		return
	}

	count := defaultPeriodCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPeriodCount {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("count must be between 1 and %d", maxPeriodCount), err)
			return
		}
		count = n
	}

	writeJSON(w, http.StatusOK, PeriodsDTO{From: p.String(), Periods: nonNil(payroll.Keys(seq(p, count)))})
}

// GeneratePayrollRecords expands a period for every active payroll account.
// POST /api/payroll/periods/{period}/generate?overwrite=bool
func (h *Handler) GeneratePayrollRecords(w http.ResponseWriter, r *http.Request) {
	p, ok := parsePeriodParam(w, r)
	if !ok {
		return
	}

	overwrite := false
	if raw := r.URL.Query().Get("overwrite"); raw != "" {
		var err error
		if overwrite, err = strconv.ParseBool(raw); err != nil {
			writeError(w, http.StatusBadRequest, "overwrite must be true or false", err)
			return
		}
	}

	result, err := h.Generator.GenerateRecords(r.Context(), p, overwrite)
	if err != nil {
		h.writeDomainError(w, "Failed to generate payroll records", err)
		return
	}
	writeJSON(w, http.StatusOK, toGenerationResultDTO(result, overwrite))
}

// CreatePayrollAccount creates a payroll account.
// POST /api/payroll/accounts
func (h *Handler) CreatePayrollAccount(w http.ResponseWriter, r *http.Request) {
	var req CreatePayrollAccountRequest
	if !decode(w, r, &req) {
		return
	}

	cycle, err := filing.ParseFilingCycle(req.Cycle)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cycle", err)
		return
	}
	remittance, err := filing.ParseFilingCycle(req.Remittance)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid remittance", err)
		return
	}

	a := payroll.Account{
		ID:         h.idOrNew(req.ID),
		BusinessID: req.BusinessID,
		Cycle:      cycle,
		Remittance: remittance,
		IsActive:   req.IsActive == nil || *req.IsActive,
		CreatedAt:  h.Now().UTC(),
	}
	if err := a.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payroll account", err)
		return
	}

	existing, err := h.Store.GetPayrollAccount(r.Context(), a.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check payroll account", err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "Payroll account already exists", nil)
		return
	}

	if err := h.Store.SavePayrollAccount(r.Context(), a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create payroll account", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPayrollAccountDTO(a))
}

// GetPayrollRecord returns an account's dates for a period, generating the
// record if it does not exist yet.
// GET /api/payroll/accounts/{id}/records/{period}
func (h *Handler) GetPayrollRecord(w http.ResponseWriter, r *http.Request) {
	p, ok := parsePeriodParam(w, r)
	if !ok {
		return
	}

	rec, _, err := h.Generator.GenerateRecord(r.Context(), chi.URLParam(r, "id"), p, false)
	if err != nil {
		h.writeDomainError(w, "Failed to load payroll record", err)
		return
	}
	writeJSON(w, http.StatusOK, toPayrollRecordDTO(rec))
}

// =============================================================================
// TAX ACCOUNT HANDLERS
// =============================================================================

// CreateTaxAccount creates a business tax account.
// POST /api/tax-accounts
func (h *Handler) CreateTaxAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateTaxAccountRequest
	if !decode(w, r, &req) {
		return
	}

	accountType, err := filing.ParseTaxAccountType(req.AccountType)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid account_type", err)
		return
	}
	period, err := fromFilingPeriodDTO(req.Period)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}
	instalment, err := fromInstalmentDTO(req.Instalment)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid instalment", err)
		return
	}
	if instalment.Required && instalment.DueDate == nil {
		due := filing.NextInstalmentDueDate(period.EndingPeriod)
		instalment.DueDate = &due
	}

	now := h.Now().UTC()
	a := &filing.TaxAccount{
		ID:                 h.idOrNew(req.ID),
		BusinessID:         req.BusinessID,
		Type:               accountType,
		Period:             period,
		SoleProprietorship: req.IsSoleProprietorship,
		Instalment:         instalment,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := a.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid tax account", err)
		return
	}

	existing, err := h.Store.GetTaxAccount(r.Context(), a.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check tax account", err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "Tax account already exists", nil)
		return
	}

	if err := h.Store.SaveTaxAccount(r.Context(), a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create tax account", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaxAccountDTO(a))
}

// ListTaxAccounts returns tax accounts ordered by due date.
// GET /api/tax-accounts?business_id=
func (h *Handler) ListTaxAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.Store.ListTaxAccounts(r.Context(), r.URL.Query().Get("business_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list tax accounts", err)
		return
	}

	dtos := make([]TaxAccountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = toTaxAccountDTO(&accounts[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetTaxAccount returns a single tax account.
// GET /api/tax-accounts/{id}
func (h *Handler) GetTaxAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	a, err := h.Store.GetTaxAccount(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get tax account", err)
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "Tax account not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toTaxAccountDTO(a))
}

// ConfirmTaxFiling records a filing and moves the account forward.
// POST /api/tax-accounts/{id}/confirm-filing
func (h *Handler) ConfirmTaxFiling(w http.ResponseWriter, r *http.Request) {
	confirmRecord(h, w, r, h.Confirmer.ConfirmTaxFiling, toTaxAccountDTO)
}

// ConfirmInstalment records an instalment payment and moves its due date.
// POST /api/tax-accounts/{id}/confirm-instalment
func (h *Handler) ConfirmInstalment(w http.ResponseWriter, r *http.Request) {
	confirmRecord(h, w, r, h.Confirmer.ConfirmInstalment, toTaxAccountDTO)
}

// ListTaxAccountLogs returns filing and instalment confirmations.
// GET /api/tax-accounts/{id}/logs
func (h *Handler) ListTaxAccountLogs(w http.ResponseWriter, r *http.Request) {
	h.listLogs(w, r, confirm.LogTaxFiling, confirm.LogInstalment)
}

// =============================================================================
// CLIENT PAYMENT HANDLERS
// =============================================================================

// CreateClientPayment creates a recurring client payment.
// POST /api/client-payments
func (h *Handler) CreateClientPayment(w http.ResponseWriter, r *http.Request) {
	var req CreateClientPaymentRequest
	if !decode(w, r, &req) {
		return
	}

	cycle, err := filing.ParseFilingCycle(req.Cycle)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid cycle", err)
		return
	}
	due, err := calendar.Parse(req.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid due_date format (use YYYY-MM-DD)", err)
		return
	}
	if req.Amount.IsNegative() {
		writeError(w, http.StatusBadRequest, "amount must not be negative", nil)
		return
	}

	now := h.Now().UTC()
	p := &filing.ClientPayment{
		ID:          h.idOrNew(req.ID),
		BusinessID:  req.BusinessID,
		Description: req.Description,
		Amount:      req.Amount,
		Cycle:       cycle,
		DueDate:     due,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	existing, err := h.Store.GetClientPayment(r.Context(), p.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check client payment", err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "Client payment already exists", nil)
		return
	}

	if err := h.Store.SaveClientPayment(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create client payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toClientPaymentDTO(p))
}

// GetClientPayment returns a single client payment.
// GET /api/client-payments/{id}
func (h *Handler) GetClientPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetClientPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get client payment", err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Client payment not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toClientPaymentDTO(p))
}

// ConfirmClientPayment records a payment and schedules the next one.
// POST /api/client-payments/{id}/confirm
func (h *Handler) ConfirmClientPayment(w http.ResponseWriter, r *http.Request) {
	confirmRecord(h, w, r, h.Confirmer.ConfirmClientPayment, toClientPaymentDTO)
}

// ListClientPaymentLogs returns payment confirmations.
// GET /api/client-payments/{id}/logs
func (h *Handler) ListClientPaymentLogs(w http.ResponseWriter, r *http.Request) {
	h.listLogs(w, r, confirm.LogClientPayment)
}

// =============================================================================
// PERSONAL TAX HANDLERS
// =============================================================================

// CreatePersonalTaxAccount opens a personal return for a tax year.
// POST /api/personal-tax-accounts
func (h *Handler) CreatePersonalTaxAccount(w http.ResponseWriter, r *http.Request) {
	var req CreatePersonalTaxAccountRequest
	if !decode(w, r, &req) {
		return
	}
	if req.TaxYear < 1900 || req.TaxYear > 9998 {
		writeError(w, http.StatusBadRequest, "Invalid tax_year", nil)
		return
	}
	instalment, err := fromInstalmentDTO(req.Instalment)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid instalment", err)
		return
	}
	if err := instalment.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid instalment", err)
		return
	}
	if instalment.Required && instalment.DueDate == nil {
		due := filing.PersonalInstalmentDueDate(h.Now())
		instalment.DueDate = &due
	}

	now := h.Now().UTC()
	a := &filing.PersonalTaxAccount{
		ID:       h.idOrNew(req.ID),
		ClientID: req.ClientID,
		Period: filing.FilingPeriod{
			EndingPeriod: calendar.Date(req.TaxYear, time.December, 31),
			DueDate:      filing.PersonalFilingDueDate(req.TaxYear, req.SelfEmployed),
			Cycle:        filing.CycleAnnually,
		},
		SelfEmployed: req.SelfEmployed,
		Progress:     filing.ProgressNotStarted,
		Instalment:   instalment,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	existing, err := h.Store.GetPersonalTaxAccount(r.Context(), a.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check personal tax account", err)
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "Personal tax account already exists", nil)
		return
	}

	if err := h.Store.SavePersonalTaxAccount(r.Context(), a); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create personal tax account", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPersonalTaxAccountDTO(a))
}

// GetPersonalTaxAccount returns a single personal return.
// GET /api/personal-tax-accounts/{id}
func (h *Handler) GetPersonalTaxAccount(w http.ResponseWriter, r *http.Request) {
	a, err := h.Store.GetPersonalTaxAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get personal tax account", err)
		return
	}
	if a == nil {
		writeError(w, http.StatusNotFound, "Personal tax account not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toPersonalTaxAccountDTO(a))
}

// SetPersonalTaxProgress moves a return to another step.
// POST /api/personal-tax-accounts/{id}/progress
func (h *Handler) SetPersonalTaxProgress(w http.ResponseWriter, r *http.Request) {
	var req ProgressRequest
	if !decode(w, r, &req) {
		return
	}
	to, err := filing.ParseProgress(req.Progress)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid progress", err)
		return
	}

	a, err := h.Confirmer.SetProgress(r.Context(), chi.URLParam(r, "id"), to)
	if err != nil {
		h.writeDomainError(w, "Failed to update progress", err)
		return
	}
	writeJSON(w, http.StatusOK, toPersonalTaxAccountDTO(a))
}

// ConfirmPersonalTaxFiling records a filed return and opens the next year.
// POST /api/personal-tax-accounts/{id}/confirm-filing
func (h *Handler) ConfirmPersonalTaxFiling(w http.ResponseWriter, r *http.Request) {
	confirmRecord(h, w, r, h.Confirmer.ConfirmPersonalTaxFiling, toPersonalTaxAccountDTO)
}

// ConfirmPersonalInstalment records a personal instalment payment.
// POST /api/personal-tax-accounts/{id}/confirm-instalment
func (h *Handler) ConfirmPersonalInstalment(w http.ResponseWriter, r *http.Request) {
	confirmRecord(h, w, r, h.Confirmer.ConfirmPersonalInstalment, toPersonalTaxAccountDTO)
}

// ListPersonalTaxLogs returns filing and instalment confirmations.
// GET /api/personal-tax-accounts/{id}/logs
func (h *Handler) ListPersonalTaxLogs(w http.ResponseWriter, r *http.Request) {
	h.listLogs(w, r, confirm.LogPersonalTaxFiling, confirm.LogPersonalInstalment)
}

// =============================================================================
// SHARED
// =============================================================================

// confirmRecord decodes a ConfirmRequest and runs one confirm operation.
// The confirmation time is the server clock.
func confirmRecord[T, D any](h *Handler, w http.ResponseWriter, r *http.Request, run func(context.Context, string, confirm.Confirmation) (*T, confirm.LogEntry, error), toDTO func(*T) D) {
	var req ConfirmRequest
	if !decode(w, r, &req) {
		return
	}

	rec, entry, err := run(r.Context(), chi.URLParam(r, "id"), confirm.Confirmation{
		UserID:      req.ConfirmedBy,
		ConfirmedAt: h.Now().UTC(),
		Notes:       req.Notes,
	})
	if err != nil {
		h.writeDomainError(w, "Confirmation failed", err)
		return
	}

	writeJSON(w, http.StatusOK, ConfirmResponse{Record: toDTO(rec), Log: toLogEntryDTO(entry)})
}

func (h *Handler) listLogs(w http.ResponseWriter, r *http.Request, kinds ...confirm.LogKind) {
	entries, err := h.Store.Logs(r.Context(), chi.URLParam(r, "id"), kinds...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list logs", err)
		return
	}
	writeJSON(w, http.StatusOK, toLogEntryDTOs(entries))
}

func (h *Handler) idOrNew(id string) string {
	if id != "" {
		return id
	}
	return h.NewID()
}

func parsePeriodParam(w http.ResponseWriter, r *http.Request) (payroll.Period, bool) {
	p, err := payroll.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period (use YYYY-MM)", err)
		return payroll.Period{}, false
	}
	return p, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// writeDomainError maps engine errors onto HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case filing.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case filing.IsClientError(err), errors.Is(err, confirm.ErrConfirmerRequired):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Logger.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
