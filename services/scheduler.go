// services/scheduler.go
package services

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// StartResultScheduler records results for finished games on a fixed interval.
// The caller owns the returned scheduler and must Shutdown it.
func (s *GameService) StartResultScheduler(ctx context.Context, interval time.Duration) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			updated, err := s.BackfillResults(ctx)
			if err != nil {
				s.Logger.Error("[Scheduler] result backfill failed", zap.Error(err))
				return
			}
			if updated > 0 {
				s.Logger.Info("[Scheduler] recorded game results", zap.Int("games", updated))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}

	sched.Start()
	return sched, nil
}
