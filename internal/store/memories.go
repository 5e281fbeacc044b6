package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/trfife/BarnabeeNet-sub002/internal/model"
)

type scanner interface {
	Scan(dest ...any) error
}

// scanMemory reads one memoryColumns row; extra destinations (a score,
// a distance) are scanned after the fixed columns.
func scanMemory(row scanner, extra ...any) (*model.Memory, error) {
	var m model.Memory
	var sourceID, keywords, deletedBy sql.NullString
	var deletedAt, lastAccessed sql.NullTime

	dest := []any{
		&m.ID, &m.Summary, &m.Content, &m.MemoryType, &m.SourceType, &sourceID,
		&m.Owner, &m.Visibility, &keywords, &m.Status, &m.CreatedAt,
		&deletedAt, &deletedBy, &m.AccessCount, &lastAccessed,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	m.SourceID = sourceID.String
	m.DeletedBy = deletedBy.String
	if deletedAt.Valid {
		t := deletedAt.Time
		m.DeletedAt = &t
	}
	if lastAccessed.Valid {
		t := lastAccessed.Time
		m.LastAccessedAt = &t
	}
	if keywords.Valid && keywords.String != "" {
		if err := json.Unmarshal([]byte(keywords.String), &m.Keywords); err != nil {
			return nil, fmt.Errorf("decode keywords for memory %d: %w", m.ID, err)
		}
	}
	return &m, nil
}

func encodeKeywords(keywords []string) (any, error) {
	if len(keywords) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(keywords)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Create inserts a memory into the active tier and fills in its assigned ID,
// status, and creation time.
func (s *Store) Create(ctx context.Context, m *model.Memory) error {
	if m.Owner == "" {
		return fmt.Errorf("memory owner is required")
	}
	if strings.TrimSpace(m.Content) == "" {
		return fmt.Errorf("memory content is required")
	}
	if m.MemoryType == "" {
		m.MemoryType = model.TypeFact
	}
	if !m.MemoryType.Valid() {
		return fmt.Errorf("unknown memory type %q", m.MemoryType)
	}
	if m.SourceType == "" {
		m.SourceType = model.SourceExplicit
	}
	if !m.SourceType.Valid() {
		return fmt.Errorf("unknown source type %q", m.SourceType)
	}
	if m.Visibility == "" {
		m.Visibility = model.VisibilityPrivate
	}
	if !m.Visibility.Valid() {
		return fmt.Errorf("unknown visibility %q", m.Visibility)
	}
	m.Keywords = model.NormalizeKeywords(m.Keywords)

	kw, err := encodeKeywords(m.Keywords)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, insertMemoryQuery,
		m.Summary, m.Content, string(m.MemoryType), string(m.SourceType),
		nullable(m.SourceID), m.Owner, string(m.Visibility), kw,
	)
	if err != nil {
		return fmt.Errorf("insert memory: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = id
	m.Status = model.StatusActive

	// Read back the row so defaults (created_at) are reflected.
	created, err := s.Get(ctx, id, m.Owner)
	if err != nil {
		return err
	}
	m.CreatedAt = created.CreatedAt
	return nil
}

// Get returns an active-tier memory visible to owner.
func (s *Store) Get(ctx context.Context, id int64, owner string) (*model.Memory, error) {
	m, err := scanMemory(s.db.QueryRowContext(ctx, getMemoryQuery, id, owner))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Update rewrites the mutable fields (summary, content, type, keywords) of an
// active memory. The caller reindexes the embedding afterwards.
func (s *Store) Update(ctx context.Context, m *model.Memory) error {
	if !m.MemoryType.Valid() {
		return fmt.Errorf("unknown memory type %q", m.MemoryType)
	}
	m.Keywords = model.NormalizeKeywords(m.Keywords)
	kw, err := encodeKeywords(m.Keywords)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, updateMemoryQuery,
		m.Summary, m.Content, string(m.MemoryType), kw, m.ID)
	if err != nil {
		return fmt.Errorf("update memory %d: %w", m.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// SoftDelete moves an active memory visible to owner into the deleted tier.
// Returns ErrAlreadyInState if it is already deleted, ErrNotFound if it does
// not exist or is not visible to owner. The embedding row is kept so restore
// needs no re-embedding.
func (s *Store) SoftDelete(ctx context.Context, id int64, owner, deletedBy string) error {
	res, err := s.db.ExecContext(ctx, softDeleteQuery, deletedBy, id, owner)
	if err != nil {
		return fmt.Errorf("soft delete memory %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	return s.transitionFailure(ctx, id, owner, model.StatusDeleted)
}

// Restore moves a soft-deleted memory back to the active tier. Requires the
// tier management capability; returns ErrAlreadyInState when the memory is
// already active.
func (s *Store) Restore(ctx context.Context, id int64, cap model.Capability) error {
	if !cap.AllowsTierAdmin() {
		return model.ErrUnauthorized
	}
	res, err := s.db.ExecContext(ctx, restoreQuery, id)
	if err != nil {
		return fmt.Errorf("restore memory %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	return s.transitionFailure(ctx, id, "", model.StatusActive)
}

// transitionFailure distinguishes a missing row from one already in the
// target state after a guarded transition matched nothing.
func (s *Store) transitionFailure(ctx context.Context, id int64, owner string, target model.Status) error {
	query := `SELECT status FROM memories m WHERE m.id = ?`
	args := []any{id}
	if owner != "" {
		query += ` AND ` + visibleClause
		args = append(args, owner)
	}

	var status string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	if err != nil {
		return err
	}
	if model.Status(status) == target {
		return model.ErrAlreadyInState
	}
	return model.ErrNotFound
}

// HardDelete permanently removes a memory from either tier along with its
// embedding row; the FTS entry goes with the row via trigger. Requires the
// tier management capability. The operational log is untouched.
func (s *Store) HardDelete(ctx context.Context, id int64, cap model.Capability) error {
	if !cap.AllowsTierAdmin() {
		return model.ErrUnauthorized
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vec_memories WHERE memory_id = ?`, id); err != nil {
		return fmt.Errorf("remove embedding for memory %d: %w", id, err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("hard delete memory %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return model.ErrNotFound
	}

	return tx.Commit()
}

// RecordAccess bumps access counts and timestamps for the given memories.
// Callers treat failures as advisory.
func (s *Store) RecordAccess(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(recordAccessQuery, placeholders), args...)
	return err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
