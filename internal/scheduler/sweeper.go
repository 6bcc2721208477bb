// Package scheduler drives games whose voting nobody closed through
// evaluation and finalization on a fixed interval.
package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	"github.com/mroshb/matchday/pkg/errors"
	"github.com/mroshb/matchday/pkg/logger"
)

// Finalizer is implemented by services.ConsensusService.
type Finalizer interface {
	FinalizeStale(ctx context.Context) ([]uint, error)
}

type ResultSweeper struct {
	scheduler gocron.Scheduler
	finalizer Finalizer
	interval  time.Duration
}

func NewResultSweeper(finalizer Finalizer, interval time.Duration, clock clockwork.Clock) (*ResultSweeper, error) {
	sched, err := gocron.NewScheduler(
		gocron.WithClock(clock),
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to create scheduler")
	}

	rs := &ResultSweeper{
		scheduler: sched,
		finalizer: finalizer,
		interval:  interval,
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(rs.sweep),
		gocron.WithName("finalize-stale-games"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to schedule result sweep")
	}

	return rs, nil
}

func (rs *ResultSweeper) Start() {
	rs.scheduler.Start()
	logger.Info("Result sweeper started", "interval", rs.interval.String())
}

func (rs *ResultSweeper) Stop() error {
	return rs.scheduler.Shutdown()
}

func (rs *ResultSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), rs.interval)
	defer cancel()

	finalized, err := rs.finalizer.FinalizeStale(ctx)
	if err != nil {
		logger.Error("Result sweep failed", "error", err, "finalized", len(finalized))
		return
	}
	if len(finalized) > 0 {
		logger.Info("Result sweep finalized games", "game_ids", finalized)
	}
}
