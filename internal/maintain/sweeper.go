// Package maintain runs the scheduled background jobs: embedding backfill,
// operational log purge, and database snapshots.
package maintain

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/trfife/BarnabeeNet-sub002/internal/config"
	"github.com/trfife/BarnabeeNet-sub002/internal/logger"
)

// cronParser is configured for standard 5-field cron expressions
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// JobFunc runs one maintenance pass.
type JobFunc func(ctx context.Context) error

type job struct {
	name     string
	schedule cron.Schedule
	next     time.Time
	fn       JobFunc
}

// Sweeper fires maintenance jobs on their cron schedules. An empty schedule
// disables that job.
type Sweeper struct {
	jobs []*job
	now  func() time.Time
}

// NewSweeper validates the configured schedules and precomputes the first
// fire time for each enabled job.
func NewSweeper(cfg config.MaintenanceConfig, backfill, purge, snapshot JobFunc) (*Sweeper, error) {
	s := &Sweeper{now: time.Now}
	if err := s.add("backfill", cfg.BackfillSchedule, backfill); err != nil {
		return nil, err
	}
	if err := s.add("purge", cfg.PurgeSchedule, purge); err != nil {
		return nil, err
	}
	if err := s.add("snapshot", cfg.SnapshotSchedule, snapshot); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sweeper) add(name, schedule string, fn JobFunc) error {
	if schedule == "" || fn == nil {
		return nil
	}
	sched, err := cronParser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("job %s: invalid schedule %q: %w", name, schedule, err)
	}
	s.jobs = append(s.jobs, &job{
		name:     name,
		schedule: sched,
		next:     sched.Next(s.now()),
		fn:       fn,
	})
	return nil
}

// Jobs returns the enabled job names, in registration order.
func (s *Sweeper) Jobs() []string {
	names := make([]string, len(s.jobs))
	for i, j := range s.jobs {
		names[i] = j.name
	}
	return names
}

// Run blocks until ctx is cancelled, firing due jobs as their schedules come
// up. Schedules are 5-field cron, so minute granularity; the ticker runs
// twice a minute to keep fire times close to the schedule.
func (s *Sweeper) Run(ctx context.Context) {
	if len(s.jobs) == 0 {
		logger.Debug("maintenance sweeper idle, no schedules configured")
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	logger.Info("maintenance sweeper running", "jobs", s.Jobs())
	for {
		select {
		case <-ctx.Done():
			logger.Debug("maintenance sweeper stopping")
			return
		case <-ticker.C:
			s.runDue(ctx)
		}
	}
}

func (s *Sweeper) runDue(ctx context.Context) {
	now := s.now()
	for _, j := range s.jobs {
		if now.Before(j.next) {
			continue
		}
		start := time.Now()
		if err := j.fn(ctx); err != nil {
			logger.Error("maintenance job failed", "job", j.name, "error", err)
		} else {
			logger.Info("maintenance job finished", "job", j.name, "took", time.Since(start))
		}
		// next fire computes from the checked time, not the finish time
		j.next = j.schedule.Next(now)
	}
}
