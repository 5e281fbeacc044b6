package store

import (
	"context"
	"fmt"

	"github.com/trfife/BarnabeeNet-sub002/internal/model"
)

// TierResults groups matches from a cross-tier search.
type TierResults struct {
	Active  []*model.Memory `json:"active,omitempty"`
	Deleted []*model.Memory `json:"deleted,omitempty"`
	Log     []LogEntry      `json:"log,omitempty"`
}

// SearchDeleted matches the deleted tier by substring over summary and
// content, newest deletion first. Requires the tier management capability;
// no visibility filter applies, the capability grants the full view.
func (s *Store) SearchDeleted(ctx context.Context, query string, cap model.Capability, limit int) ([]*model.Memory, error) {
	if !cap.AllowsTierAdmin() {
		return nil, model.ErrUnauthorized
	}
	pattern := likePattern(query)
	rows, err := s.db.QueryContext(ctx, searchDeletedQuery, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search deleted tier: %w", err)
	}
	defer rows.Close()

	var out []*model.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// SearchAllTiers matches active memories, deleted memories, and operational
// log entries by substring. Requires the tier management capability.
func (s *Store) SearchAllTiers(ctx context.Context, query string, cap model.Capability, limit int) (*TierResults, error) {
	if !cap.AllowsTierAdmin() {
		return nil, model.ErrUnauthorized
	}
	pattern := likePattern(query)
	results := &TierResults{}

	rows, err := s.db.QueryContext(ctx, searchActiveSubstringQuery, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search active tier: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		results.Active = append(results.Active, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	results.Deleted, err = s.SearchDeleted(ctx, query, cap, limit)
	if err != nil {
		return nil, err
	}

	logRows, err := s.db.QueryContext(ctx, searchLogQuery, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search op log: %w", err)
	}
	defer logRows.Close()
	results.Log, err = scanLogEntries(logRows)
	if err != nil {
		return nil, err
	}

	return results, nil
}

func likePattern(query string) string {
	return "%" + query + "%"
}
