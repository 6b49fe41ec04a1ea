// Package scheduler runs periodic maintenance jobs: currently the badge
// sweep, which grants badges whose criteria were met outside a request (for
// example a streak reached through a bonus in another component).
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/lingoquest/lingoquest/internal/logger"
)

// ActiveWindow is how far back the sweep looks for active users.
const ActiveWindow = 7 * 24 * time.Hour

// Sweeper grants earned badges to users active since a point in time.
type Sweeper interface {
	SweepBadges(ctx context.Context, since time.Time) (int, error)
}

// Scheduler owns the cron loop.
type Scheduler struct {
	cron     *gocron.Scheduler
	sweeper  Sweeper
	interval time.Duration
	now      func() time.Time
	log      *logger.Logger
}

// New creates a Scheduler. A zero interval disables the sweep.
func New(sw Sweeper, interval time.Duration, loc *time.Location, log *logger.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	cron := gocron.NewScheduler(loc)
	cron.SingletonModeAll()
	return &Scheduler{
		cron:     cron,
		sweeper:  sw,
		interval: interval,
		now:      time.Now,
		log:      log,
	}
}

// Start schedules the jobs and returns immediately. Jobs run under ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		s.log.Info("badge sweep disabled")
		return nil
	}
	_, err := s.cron.Every(s.interval).Do(func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.log.Error("badge sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule badge sweep: %w", err)
	}
	s.cron.StartAsync()
	s.log.Info("badge sweep scheduled", "interval", s.interval.String())
	return nil
}

// Stop halts the scheduler. Running jobs finish first.
func (s *Scheduler) Stop() {
	if s.cron.IsRunning() {
		s.cron.Stop()
	}
}

// RunOnce sweeps users active within ActiveWindow.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	start := s.now()
	n, err := s.sweeper.SweepBadges(ctx, start.Add(-ActiveWindow))
	if err != nil {
		return n, err
	}
	s.log.Debug("badge sweep done", "granted", n, "took", time.Since(start).String())
	return n, nil
}
