/*
scheduler.go - Payroll pre-generation scheduler

PURPOSE:
  Periodically makes sure the payroll lookup and every active account's
  record exist for the current and the next payroll period, so that the
  dates are on hand before anyone asks for them.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Never overwrites: records that already exist are skipped
  - One failing account does not stop the others (see payroll.Generator)

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewPayrollScheduler(generator, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: GeneratePayrollRecords endpoint (manual generation)
  - payroll/generator.go: Generator
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ledgerdesk/filing-engine/payroll"
)

// PayrollScheduler pre-generates payroll records.
type PayrollScheduler struct {
	Generator     *payroll.Generator
	Logger        *zap.Logger
	CheckInterval time.Duration
	Enabled       bool
	Now           func() time.Time

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewPayrollScheduler creates a new scheduler.
func NewPayrollScheduler(generator *payroll.Generator, logger *zap.Logger) *PayrollScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayrollScheduler{
		Generator:     generator,
		Logger:        logger,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		Now:           time.Now,
	}
}

// Start begins the scheduler.
func (ps *PayrollScheduler) Start() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if !ps.Enabled {
		ps.Logger.Info("payroll scheduler disabled, not starting")
		return
	}
	if ps.ticker != nil {
		return
	}

	ps.ticker = time.NewTicker(ps.CheckInterval)
	ps.stop = make(chan struct{})
	ps.wg.Add(1)

	go ps.run()

	ps.Logger.Info("payroll scheduler started", zap.Duration("interval", ps.CheckInterval))
}

// Stop stops the scheduler and waits for a running check to finish.
func (ps *PayrollScheduler) Stop() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.ticker != nil {
		ps.ticker.Stop()
		close(ps.stop)
		ps.wg.Wait()
		ps.ticker = nil
		ps.Logger.Info("payroll scheduler stopped")
	}
}

func (ps *PayrollScheduler) run() {
	defer ps.wg.Done()

	// Run immediately on start
	ps.checkAndGenerate()

	for {
		select {
		case <-ps.ticker.C:
			ps.checkAndGenerate()
		case <-ps.stop:
			return
		}
	}
}

// RunNow triggers an immediate check and returns the per-period results.
func (ps *PayrollScheduler) RunNow() []*payroll.GenerationResult {
	return ps.checkAndGenerate()
}

// Periods returns the periods a check covers: the current one and the next.
func (ps *PayrollScheduler) Periods() []payroll.Period {
	current := payroll.PeriodOf(ps.Now())
	return []payroll.Period{current, current.Next()}
}

func (ps *PayrollScheduler) checkAndGenerate() []*payroll.GenerationResult {
	ctx := context.Background()

	var results []*payroll.GenerationResult
	for _, p := range ps.Periods() {
		result, err := ps.Generator.GenerateRecords(ctx, p, false)
		if err != nil {
			ps.Logger.Error("payroll pre-generation failed", zap.String("period", p.String()), zap.Error(err))
			continue
		}
		results = append(results, result)
	}
	return results
}
