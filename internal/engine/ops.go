package engine

import (
	"context"
	"fmt"

	"github.com/trfife/BarnabeeNet-sub002/internal/deletion"
	"github.com/trfife/BarnabeeNet-sub002/internal/index"
	"github.com/trfife/BarnabeeNet-sub002/internal/model"
	"github.com/trfife/BarnabeeNet-sub002/internal/search"
	"github.com/trfife/BarnabeeNet-sub002/internal/session"
	"github.com/trfife/BarnabeeNet-sub002/internal/store"
)

// Search runs a hybrid search over memories visible to owner.
func (s *Service) Search(ctx context.Context, query, owner string, types []model.MemoryType, limit int) (*search.Response, error) {
	return s.search.Search(ctx, query, owner, search.Options{Limit: limit, Types: types})
}

// RetrieveForContext fetches memories to prepend to an assistant turn.
// Mechanical intents return nothing; hits are logged and counted as accesses.
func (s *Service) RetrieveForContext(ctx context.Context, query, intent, owner string, limit int) (*search.Response, error) {
	resp, err := s.search.RetrieveForContext(ctx, query, intent, owner, limit)
	if err != nil {
		return nil, err
	}
	if len(resp.Results) > 0 {
		s.logEvent(ctx, store.EventRetrieve, 0, owner, owner,
			fmt.Sprintf("intent %s: %d of %d for %q", intent, len(resp.Results), resp.Total, query))
	}
	return resp, nil
}

// StartSession opens (or replaces) a narrowing session under the caller's id.
func (s *Service) StartSession(ctx context.Context, sessionID, query, owner string) (*session.Response, error) {
	return s.sessions.Start(ctx, sessionID, query, owner)
}

// ContinueSession feeds a user utterance to a live narrowing session.
func (s *Service) ContinueSession(ctx context.Context, sessionID, utterance string) (*session.Response, error) {
	return s.sessions.Continue(ctx, sessionID, utterance)
}

// CancelSession drops a narrowing session. Unknown ids are a no-op.
func (s *Service) CancelSession(ctx context.Context, sessionID string) error {
	return s.sessions.Cancel(ctx, sessionID)
}

// RequestDelete resolves a spoken deletion reference. Only the unambiguous
// back-reference path mutates; everything else comes back as a resolution
// for the caller to confirm.
func (s *Service) RequestDelete(ctx context.Context, reference, owner string, hintID int64) (*deletion.Resolution, error) {
	res, err := s.deletion.Resolve(ctx, reference, owner, hintID)
	if err != nil {
		return nil, err
	}
	if res.Outcome == deletion.OutcomeDeleted && res.Deleted != nil {
		s.logEvent(ctx, store.EventSoftDelete, res.Deleted.ID, owner, res.Deleted.Owner, "back-reference")
	}
	return res, nil
}

// ConfirmDelete soft-deletes a memory the caller previously saw as a
// deletion candidate.
func (s *Service) ConfirmDelete(ctx context.Context, id int64, actor string) (*model.Memory, error) {
	m, err := s.deletion.Confirm(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	s.logEvent(ctx, store.EventSoftDelete, id, actor, m.Owner, "confirmed")
	return m, nil
}

// Restore moves a soft-deleted memory back to active. Requires the tier
// management capability; no confirmation step applies.
func (s *Service) Restore(ctx context.Context, id int64, actor string) error {
	if err := s.store.Restore(ctx, id, s.cap); err != nil {
		return err
	}
	s.logEvent(ctx, store.EventRestore, id, actor, "", "")
	return nil
}

// HardDelete removes a soft-deleted memory permanently, vector included.
// Requires the tier management capability.
func (s *Service) HardDelete(ctx context.Context, id int64, actor string) error {
	if err := s.store.HardDelete(ctx, id, s.cap); err != nil {
		return err
	}
	s.logEvent(ctx, store.EventHardDelete, id, actor, "", "")
	return nil
}

// SearchDeleted searches the deleted tier.
func (s *Service) SearchDeleted(ctx context.Context, query string, limit int) ([]*model.Memory, error) {
	return s.store.SearchDeleted(ctx, query, s.cap, limit)
}

// SearchAllTiers searches active memories, deleted memories, and the
// operational log in one pass.
func (s *Service) SearchAllTiers(ctx context.Context, query string, limit int) (*store.TierResults, error) {
	return s.store.SearchAllTiers(ctx, query, s.cap, limit)
}

// RecentLog lists operational log entries, newest first. memoryID zero means
// all memories. Requires the tier management capability.
func (s *Service) RecentLog(ctx context.Context, memoryID int64, limit int) ([]store.LogEntry, error) {
	return s.store.RecentLog(ctx, memoryID, s.cap, limit)
}

// Backfill embeds every active memory that is missing a vector.
func (s *Service) Backfill(ctx context.Context) (*index.BackfillReport, error) {
	report, err := s.index.Backfill(ctx, index.BackfillOptions{
		Workers:    s.cfg.Backfill.Workers,
		RatePerSec: s.cfg.Backfill.RatePerSec,
	})
	if report != nil {
		s.logEvent(ctx, store.EventBackfill, 0, "sweeper", "",
			fmt.Sprintf("run %s: scanned %d indexed %d failed %d",
				report.RunID, report.Scanned, report.Indexed, report.Failed))
	}
	return report, err
}

// PurgeOpLog deletes log entries older than the configured retention.
func (s *Service) PurgeOpLog(ctx context.Context) (int64, error) {
	n, err := s.store.PurgeLog(ctx, s.cfg.OpLog.RetentionDays)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logEvent(ctx, store.EventPurge, 0, "sweeper", "", fmt.Sprintf("%d entries", n))
	}
	return n, nil
}

// Stats reports store-level counts.
func (s *Service) Stats(ctx context.Context) (*store.Stats, error) {
	return s.store.Stats(ctx)
}
