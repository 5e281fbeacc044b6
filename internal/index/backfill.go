package index

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"golang.org/x/time/rate"

	"github.com/trfife/BarnabeeNet-sub002/internal/logger"
	"github.com/trfife/BarnabeeNet-sub002/internal/model"
)

// BackfillOptions paces a sweep. Zero values fall back to modest defaults.
type BackfillOptions struct {
	Workers    int
	RatePerSec float64
	PageSize   int
}

// BackfillReport summarizes one sweep. Failed counts memories whose
// embedding attempt failed; they stay text-searchable and are retried on the
// next sweep.
type BackfillReport struct {
	RunID   string `json:"run_id"`
	Scanned int64  `json:"scanned"`
	Indexed int64  `json:"indexed"`
	Failed  int64  `json:"failed"`
}

// Backfill sweeps active memories that have no vector row and embeds them,
// committing per memory. Cancellation stops the sweep between items; the
// partial report is returned alongside ctx.Err().
func (m *Manager) Backfill(ctx context.Context, opts BackfillOptions) (*BackfillReport, error) {
	if opts.Workers < 1 {
		opts.Workers = 4
	}
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = 8
	}
	if opts.PageSize < 1 {
		opts.PageSize = 64
	}

	report := &BackfillReport{RunID: uuid.New().String()[:8]}
	log := logger.With("run", report.RunID)
	log.Info("backfill sweep starting", "workers", opts.Workers, "rate", opts.RatePerSec)

	limiter := rate.NewLimiter(rate.Limit(opts.RatePerSec), opts.Workers)
	scanned := atomic.NewInt64(0)
	indexed := atomic.NewInt64(0)
	failed := atomic.NewInt64(0)

	jobs := make(chan *model.Memory)
	var wg sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for mem := range jobs {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				scanned.Inc()
				if err := m.Index(ctx, mem); err != nil {
					failed.Inc()
					log.Warn("backfill item failed", "memory", mem.ID, "error", err)
					continue
				}
				indexed.Inc()
			}
		}()
	}

	var sweepErr error
	var afterID int64
feed:
	for {
		page, err := m.store.MissingEmbeddings(ctx, afterID, opts.PageSize)
		if err != nil {
			sweepErr = err
			break
		}
		if len(page) == 0 {
			break
		}
		for _, mem := range page {
			select {
			case jobs <- mem:
			case <-ctx.Done():
				sweepErr = ctx.Err()
				break feed
			}
		}
		afterID = page[len(page)-1].ID
	}
	close(jobs)
	wg.Wait()

	report.Scanned = scanned.Load()
	report.Indexed = indexed.Load()
	report.Failed = failed.Load()
	log.Info("backfill sweep finished",
		"scanned", report.Scanned, "indexed", report.Indexed, "failed", report.Failed)

	return report, sweepErr
}
