package maintain

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/trfife/BarnabeeNet-sub002/internal/config"
)

func TestNewSweeperRejectsBadSchedule(t *testing.T) {
	cfg := config.MaintenanceConfig{BackfillSchedule: "not a schedule"}
	fn := func(ctx context.Context) error { return nil }
	if _, err := NewSweeper(cfg, fn, nil, nil); err == nil {
		t.Fatal("expected an error for an unparseable schedule")
	}
}

func TestEmptyScheduleDisablesJob(t *testing.T) {
	cfg := config.MaintenanceConfig{
		BackfillSchedule: "0 3 * * *",
		PurgeSchedule:    "",
		SnapshotSchedule: "",
	}
	fn := func(ctx context.Context) error { return nil }
	s, err := NewSweeper(cfg, fn, fn, fn)
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}
	jobs := s.Jobs()
	if len(jobs) != 1 || jobs[0] != "backfill" {
		t.Errorf("jobs = %v, want just backfill", jobs)
	}
}

func TestNilFuncDisablesJob(t *testing.T) {
	cfg := config.MaintenanceConfig{BackfillSchedule: "0 3 * * *", PurgeSchedule: "30 3 * * *"}
	fn := func(ctx context.Context) error { return nil }
	s, err := NewSweeper(cfg, fn, nil, nil)
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}
	if jobs := s.Jobs(); len(jobs) != 1 {
		t.Errorf("jobs = %v, want the purge job dropped with its nil func", jobs)
	}
}

func TestRunDueFiresOnSchedule(t *testing.T) {
	fires := 0
	cfg := config.MaintenanceConfig{BackfillSchedule: "0 3 * * *"}
	s, err := NewSweeper(cfg, func(ctx context.Context) error {
		fires++
		return nil
	}, nil, nil)
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}

	base := time.Date(2026, 8, 21, 2, 59, 0, 0, time.UTC)
	current := base
	s.now = func() time.Time { return current }
	s.jobs[0].next = s.jobs[0].schedule.Next(base)

	ctx := context.Background()

	s.runDue(ctx)
	if fires != 0 {
		t.Fatalf("fired %d times before the schedule", fires)
	}

	current = time.Date(2026, 8, 21, 3, 0, 10, 0, time.UTC)
	s.runDue(ctx)
	if fires != 1 {
		t.Fatalf("fired %d times at the scheduled minute, want 1", fires)
	}

	s.runDue(ctx)
	if fires != 1 {
		t.Fatalf("fired %d times, want no re-fire until the next scheduled minute", fires)
	}

	current = time.Date(2026, 8, 22, 3, 0, 10, 0, time.UTC)
	s.runDue(ctx)
	if fires != 2 {
		t.Fatalf("fired %d times across two days, want 2", fires)
	}
}

func TestFailedJobStaysOnSchedule(t *testing.T) {
	fires := 0
	cfg := config.MaintenanceConfig{PurgeSchedule: "0 4 * * *"}
	s, err := NewSweeper(cfg, nil, func(ctx context.Context) error {
		fires++
		return fmt.Errorf("purge backend down")
	}, nil)
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}

	base := time.Date(2026, 8, 21, 3, 0, 0, 0, time.UTC)
	current := base
	s.now = func() time.Time { return current }
	s.jobs[0].next = s.jobs[0].schedule.Next(base)

	ctx := context.Background()
	current = time.Date(2026, 8, 21, 4, 0, 30, 0, time.UTC)
	s.runDue(ctx)
	s.runDue(ctx)
	if fires != 1 {
		t.Fatalf("fired %d times, want a failed job rescheduled, not retried hot", fires)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	fn := func(ctx context.Context) error { return nil }
	s, err := NewSweeper(config.MaintenanceConfig{BackfillSchedule: "0 3 * * *"}, fn, nil, nil)
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on context cancellation")
	}

	idle, err := NewSweeper(config.MaintenanceConfig{}, nil, nil, nil)
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}
	done2 := make(chan struct{})
	go func() {
		idle.Run(ctx)
		close(done2)
	}()
	select {
	case <-done2:
	case <-time.After(2 * time.Second):
		t.Fatal("idle Run did not stop on context cancellation")
	}
}
