/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. RequestLogger: zap access log (method, path, status, duration, request id)
  3. Recoverer:     Panic recovery (500 instead of crash)
  4. CORS:          Cross-origin requests for a browser client

ROUTE GROUPS:
  /api/health                   Liveness
  /api/rules/*                  Stateless rule evaluation
  /api/payroll/*                Payroll lookup, sequences, generation, accounts
  /api/tax-accounts/*           Business tax accounts
  /api/client-payments/*        Recurring client payments
  /api/personal-tax-accounts/*  Personal returns

SEE ALSO:
  - handlers.go: Handler implementations
  - middleware.go: Request logging
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		// Rule routes
		r.Route("/rules", func(r chi.Router) {
			r.Post("/tax-due-dates", h.EvaluateTaxDueDates)
			r.Post("/instalment-due-date", h.EvaluateInstalmentDueDate)
		})

		// Payroll routes
		r.Route("/payroll", func(r chi.Router) {
			r.Route("/periods/{period}", func(r chi.Router) {
				r.Get("/", h.GetPayrollLookup)
				r.Get("/next", h.ListNextPeriods)
				r.Get("/previous", h.ListPreviousPeriods)
				r.Post("/generate", h.GeneratePayrollRecords)
			})
			r.Post("/accounts", h.CreatePayrollAccount)
			r.Get("/accounts/{id}/records/{period}", h.GetPayrollRecord)
		})

		// Tax account routes
		r.Route("/tax-accounts", func(r chi.Router) {
			r.Get("/", h.ListTaxAccounts)
			r.Post("/", h.CreateTaxAccount)
			r.Get("/{id}", h.GetTaxAccount)
			r.Post("/{id}/confirm-filing", h.ConfirmTaxFiling)
			r.Post("/{id}/confirm-instalment", h.ConfirmInstalment)
			r.Get("/{id}/logs", h.ListTaxAccountLogs)
		})

		// Client payment routes
		r.Route("/client-payments", func(r chi.Router) {
			r.Post("/", h.CreateClientPayment)
			r.Get("/{id}", h.GetClientPayment)
			r.Post("/{id}/confirm", h.ConfirmClientPayment)
			r.Get("/{id}/logs", h.ListClientPaymentLogs)
		})

		// Personal tax routes
		r.Route("/personal-tax-accounts", func(r chi.Router) {
			r.Post("/", h.CreatePersonalTaxAccount)
			r.Get("/{id}", h.GetPersonalTaxAccount)
			r.Post("/{id}/progress", h.SetPersonalTaxProgress)
			r.Post("/{id}/confirm-filing", h.ConfirmPersonalTaxFiling)
			r.Post("/{id}/confirm-instalment", h.ConfirmPersonalInstalment)
			r.Get("/{id}/logs", h.ListPersonalTaxLogs)
		})
	})

	return r
}
