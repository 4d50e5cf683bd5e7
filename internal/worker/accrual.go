package worker

import (
	"context"
	"sync"
	"time"

	"invest-platform/config"
	"invest-platform/internal/core/ports"

	"github.com/rs/zerolog"
)

// AccrualWorker runs the daily earnings sweep on a fixed interval.
// Each sweep is idempotent, so running more often than once a day
// only costs a scan.
type AccrualWorker struct {
	investmentSvc ports.InvestmentService
	cfg           config.AccrualConfig
	log           zerolog.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewAccrualWorker creates a new AccrualWorker.
func NewAccrualWorker(investmentSvc ports.InvestmentService, cfg config.AccrualConfig, log zerolog.Logger) *AccrualWorker {
	return &AccrualWorker{
		investmentSvc: investmentSvc,
		cfg:           cfg,
		log:           log.With().Str("component", "accrual_worker").Logger(),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start launches the sweep loop in a goroutine. It returns immediately.
// A disabled worker closes done right away so Stop stays cheap.
func (w *AccrualWorker) Start(ctx context.Context) {
	if !w.cfg.Enabled {
		w.log.Info().Msg("accrual worker disabled")
		close(w.done)
		return
	}

	w.log.Info().Dur("interval", w.cfg.Interval).Msg("accrual worker started")

	go func() {
		defer close(w.done)

		ticker := time.NewTicker(w.cfg.Interval)
		defer ticker.Stop()

		// First sweep at startup catches anything missed while down.
		w.sweep(ctx)

		for {
			select {
			case <-ticker.C:
				w.sweep(ctx)
			case <-w.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop signals the loop to exit and waits for the in-flight sweep.
func (w *AccrualWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}

func (w *AccrualWorker) sweep(ctx context.Context) {
	start := time.Now()

	report, err := w.investmentSvc.AccrueDaily(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("accrual sweep failed")
		return
	}

	evt := w.log.Info()
	if report.Failed > 0 {
		evt = w.log.Warn()
	}
	evt.
		Int("due", report.Due).
		Int("credited", report.Credited).
		Int("completed", report.Completed).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Int64("total_paid", report.TotalPaid).
		Dur("took", time.Since(start)).
		Msg("accrual sweep finished")
}
