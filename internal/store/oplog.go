package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/trfife/BarnabeeNet-sub002/internal/model"
)

// Operational log events.
const (
	EventCreate     = "create"
	EventClassify   = "classify"
	EventUpdate     = "update"
	EventRetrieve   = "retrieve"
	EventSoftDelete = "soft_delete"
	EventRestore    = "restore"
	EventHardDelete = "hard_delete"
	EventPurge      = "purge"
	EventBackfill   = "backfill"
	EventSnapshot   = "snapshot"
)

// LogEntry is one operational log record. Entries are append-only and
// survive hard deletion of the memory they reference; MemoryID is zero for
// events not tied to a single memory.
type LogEntry struct {
	ID        string    `json:"id"`
	Event     string    `json:"event"`
	MemoryID  int64     `json:"memory_id,omitempty"`
	Actor     string    `json:"actor,omitempty"`
	Owner     string    `json:"owner,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AppendLog writes one operational log entry. Callers on hot paths treat a
// failure as advisory: log it, never fail the parent operation.
func (s *Store) AppendLog(ctx context.Context, e LogEntry) error {
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	var memoryID any
	if e.MemoryID != 0 {
		memoryID = e.MemoryID
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO op_log (id, event, memory_id, actor, owner, detail)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Event, memoryID, nullable(e.Actor), nullable(e.Owner), nullable(e.Detail),
	)
	if err != nil {
		return fmt.Errorf("append op log: %w", err)
	}
	return nil
}

// PurgeLog removes log entries older than the retention window and returns
// how many were removed.
func (s *Store) PurgeLog(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays < 1 {
		return 0, fmt.Errorf("retention must be at least one day, got %d", retentionDays)
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM op_log WHERE created_at < datetime('now', ?)`,
		fmt.Sprintf("-%d days", retentionDays),
	)
	if err != nil {
		return 0, fmt.Errorf("purge op log: %w", err)
	}
	return res.RowsAffected()
}

// RecentLog returns the newest entries, optionally scoped to one memory.
// The log tier is part of tier management, so the capability is checked
// here the same way SearchDeleted checks it.
func (s *Store) RecentLog(ctx context.Context, memoryID int64, cap model.Capability, limit int) ([]LogEntry, error) {
	if !cap.AllowsTierAdmin() {
		return nil, model.ErrUnauthorized
	}
	var rows *sql.Rows
	var err error
	if memoryID != 0 {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, event, memory_id, actor, owner, detail, created_at
			FROM op_log WHERE memory_id = ? ORDER BY id DESC LIMIT ?`, memoryID, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, `
			SELECT id, event, memory_id, actor, owner, detail, created_at
			FROM op_log ORDER BY id DESC LIMIT ?`, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLogEntries(rows)
}

func scanLogEntries(rows *sql.Rows) ([]LogEntry, error) {
	var out []LogEntry
	for rows.Next() {
		var e LogEntry
		var memoryID sql.NullInt64
		var actor, owner, detail sql.NullString
		if err := rows.Scan(&e.ID, &e.Event, &memoryID, &actor, &owner, &detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.MemoryID = memoryID.Int64
		e.Actor = actor.String
		e.Owner = owner.String
		e.Detail = detail.String
		out = append(out, e)
	}
	return out, rows.Err()
}
