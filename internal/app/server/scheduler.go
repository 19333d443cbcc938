package server

import (
	"context"

	"github.com/chess-vn/econgames/pkg/logging"
	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// startPurgeScheduler runs the incomplete-match purge every PurgeInterval.
// It returns a nil scheduler when the interval is not positive.
func (s *server) startPurgeScheduler() (gocron.Scheduler, error) {
	if s.config.PurgeInterval <= 0 {
		return nil, nil
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(s.config.PurgeInterval),
		gocron.NewTask(s.purge),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}
	sched.Start()
	logging.Info("purge scheduler started", zap.Duration("interval", s.config.PurgeInterval))
	return sched, nil
}

func (s *server) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.PurgeInterval)
	defer cancel()
	deleted, err := s.matchUsecase.PurgeIncompleteMatches(ctx, s.config.PurgeOlderThan, s.registry.IsLive)
	if err != nil {
		logging.Error("scheduled purge failed", zap.Error(err))
		return
	}
	logging.Info("scheduled purge finished", zap.Int("deleted", deleted))
}
