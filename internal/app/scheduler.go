/**
 * @description
 * Cron-driven reconciliation. While a session is established, the scheduler
 * refetches the account snapshot on a fixed interval; manual triggers
 * (app foreground, pull-to-refresh) go through the control API instead and
 * call Manager.Reconcile directly.
 */
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ALTER-2357/bank-app-thing/internal/domain"
)

// Scheduler runs the periodic reconciliation job.
type Scheduler struct {
	cron         *cron.Cron
	manager      *Manager
	logger       *slog.Logger
	schedule     string
	fetchTimeout time.Duration
}

// NewScheduler creates a scheduler ticking per the given cron spec
// (typically "@every 10s").
func NewScheduler(manager *Manager, logger *slog.Logger, schedule string, fetchTimeout time.Duration) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:         c,
		manager:      manager,
		logger:       logger,
		schedule:     schedule,
		fetchTimeout: fetchTimeout,
	}
}

// Start registers the reconciliation job and starts the cron scheduler.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runReconciliation); err != nil {
		return err
	}
	s.logger.Info("scheduled account reconciliation", "schedule", s.schedule)
	s.cron.Start()
	return nil
}

// Stop gracefully stops the cron scheduler. The returned context is done
// once any running job has finished.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// runReconciliation is one scheduled tick. Ticks while unauthenticated or
// while a fetch is still outstanding are silent no-ops; a dropped tick is
// never queued.
func (s *Scheduler) runReconciliation() {
	if !s.manager.CurrentSession().IsAuthenticated() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.fetchTimeout)
	defer cancel()

	if _, err := s.manager.Reconcile(ctx); err != nil {
		switch {
		case errors.Is(err, domain.ErrRefreshInFlight), errors.Is(err, domain.ErrNoSession):
			// Previous fetch still running, or logout won the race.
		case errors.Is(err, domain.ErrStaleResponse):
			s.logger.Info("discarded reconciliation result for stale session")
		default:
			s.logger.Warn("scheduled reconciliation failed; serving cached state", "error", err)
		}
	}
}
