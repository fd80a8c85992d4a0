// Package refresh re-runs the loader on a cron schedule so the serving
// path picks up changed source files without a restart.
package refresh

import (
	"context"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"schoolbook/internal/domain"
)

// Loader is the part of the ingestion service the scheduler needs.
type Loader interface {
	LoadAll(ctx context.Context, datasets []domain.Dataset) ([]domain.LoadRun, error)
}

// Scheduler re-loads a fixed set of datasets on a cron schedule. The
// offline CLI remains the primary load path; this is the opt-in in-server
// variant, safe because every reload goes through the store's
// transactional replace.
type Scheduler struct {
	cron     *cron.Cron
	loader   Loader
	datasets []domain.Dataset
	logger   *slog.Logger

	// running guards against overlapping refreshes when a reload takes
	// longer than the cron interval.
	running sync.Mutex
}

// NewScheduler creates a scheduler over the manifest's datasets.
func NewScheduler(loader Loader, datasets []domain.Dataset, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		loader:   loader,
		datasets: datasets,
		logger:   logger,
	}
}

// Start registers the refresh job under spec and starts the cron loop.
// An invalid spec fails before anything is scheduled. ctx bounds the
// refresh runs; cancel it (and call Stop) on shutdown.
func (s *Scheduler) Start(ctx context.Context, spec string) error {
	if _, err := s.cron.AddFunc(spec, func() { s.refresh(ctx) }); err != nil {
		return domain.ErrValidation("invalid refresh cron spec %q: %v", spec, err)
	}
	s.cron.Start()
	s.logger.Info("refresh scheduler started", "spec", spec, "datasets", len(s.datasets))
	return nil
}

// Stop stops the cron loop. A refresh already in flight finishes.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("refresh scheduler stopped")
}

func (s *Scheduler) refresh(ctx context.Context) {
	if !s.running.TryLock() {
		s.logger.Warn("refresh still running, skipping this tick")
		return
	}
	defer s.running.Unlock()

	if ctx.Err() != nil {
		return
	}

	runs, err := s.loader.LoadAll(ctx, s.datasets)
	if err != nil {
		s.logger.Warn("scheduled refresh failed", "error", err)
	}
	for _, run := range runs {
		if run.Succeeded() {
			s.logger.Info("dataset refreshed", "dataset", run.Dataset, "rows", run.RowCount)
		}
	}
}
