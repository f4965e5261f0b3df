package jobs

import (
	"context"
	"fmt"

	"speakbook/internal/logger"
	"speakbook/internal/slot"

	"github.com/robfig/cron/v3"
)

// SlotRunner is satisfied by *slot.Generator.
type SlotRunner interface {
	Run(ctx context.Context) (slot.Result, error)
}

// Scheduler runs periodic background work on cron specs.
type Scheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

func NewScheduler(ctx context.Context) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		ctx:  ctx,
	}
}

// ScheduleSlotGeneration adds the generator under spec, e.g. "@every 10m".
func (s *Scheduler) ScheduleSlotGeneration(spec string, gen SlotRunner) error {
	_, err := s.cron.AddFunc(spec, func() {
		res, err := gen.Run(s.ctx)
		if err != nil {
			logger.WithError(err).Error("scheduled slot generation failed")
			return
		}
		logger.Debug("scheduled slot generation done", "providers", res.Providers, "created", res.Created)
	})
	if err != nil {
		return fmt.Errorf("invalid slot schedule %q: %w", spec, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info("Scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logger.Info("Scheduler stopped")
}
