package flashdbsim

import (
	"errors"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/ryogrid/flashdbsim/errs"
)

// Scheduler is an optional, strictly single-task reclaim scheduler
// (SPEC_FULL.md §4): it invokes Facade.Reclaim on a cron schedule during
// caller-declared idle windows. It never runs concurrently with a facade
// call in practice — the cron callback is expected to fire only while the
// caller isn't itself mid-operation (documented, not enforced, per spec.md
// §5's single-task core contract).
type Scheduler struct {
	cron   *cron.Cron
	facade *Facade
	logger zerolog.Logger
}

// NewScheduler builds a scheduler for facade; call ScheduleReclaim to add
// the reclaim job, then Start.
func NewScheduler(facade *Facade, logger zerolog.Logger) *Scheduler {
	return &Scheduler{cron: cron.New(), facade: facade, logger: logger}
}

// ScheduleReclaim registers a reclaim pass on the given cron spec (standard
// 5-field cron syntax).
func (s *Scheduler) ScheduleReclaim(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		err := s.facade.Reclaim()
		if err == nil || errors.Is(err, errs.ErrNotDirty) || errors.Is(err, errs.ErrNoMemory) {
			return
		}
		s.logger.Warn().Err(err).Msg("flashdbsim: scheduled reclaim failed")
	})
	return err
}

// Start begins running scheduled jobs in the background.
func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the scheduler and waits for any running job to finish.
func (s *Scheduler) Stop() { s.cron.Stop() }
