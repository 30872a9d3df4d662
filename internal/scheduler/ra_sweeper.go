package scheduler

import (
	"context"
	"time"

	"tender_portal_backend/platform/logger"
)

const defaultRASweepInterval = time.Minute

// RASweeper periodically runs both reverse-auction sweeps. It is the catch-all
// behind the delayed asynq tasks: if a task was never enqueued or Redis lost
// it, the next tick still advances the auction.
type RASweeper struct {
	sweeper  Sweeper
	log      *logger.Logger
	interval time.Duration
}

func NewRASweeper(sweeper Sweeper, log *logger.Logger, interval time.Duration) *RASweeper {
	if interval <= 0 {
		interval = defaultRASweepInterval
	}

	return &RASweeper{
		sweeper:  sweeper,
		log:      log,
		interval: interval,
	}
}

func (s *RASweeper) Run(ctx context.Context) {
	if s == nil || s.sweeper == nil {
		return
	}

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *RASweeper) sweep(ctx context.Context) {
	if _, err := s.sweeper.AdvanceScheduledToStarted(ctx); err != nil {
		s.log.Warn("ra start sweep failed", "error", err)
	}
	if _, err := s.sweeper.AdvanceStartedToEnded(ctx); err != nil {
		s.log.Warn("ra end sweep failed", "error", err)
	}
}
