// Package store persists memories in a single sqlite database: the active
// and soft-deleted tiers in the memories table, embeddings in a vec0 virtual
// table, full-text terms in an external-content FTS5 table, and the
// operational log in op_log.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"
)

// Store wraps the database handle. All methods are safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
	dims int
}

// Open opens (creating if needed) the database at path with vector rows of
// the given dimension width.
func Open(path string, dims int) (*Store, error) {
	if dims < 1 {
		dims = DefaultVectorDimensions
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, path: path, dims: dims}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dimensions returns the vector width this store was opened with.
func (s *Store) Dimensions() int {
	return s.dims
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	if _, err := s.db.Exec(fmt.Sprintf(vecSchemaFormat, s.dims)); err != nil {
		return err
	}

	return s.runMigrations()
}

// runMigrations handles schema changes for existing databases
func (s *Store) runMigrations() error {
	if !s.columnExists("memories", "source_id") {
		if _, err := s.db.Exec("ALTER TABLE memories ADD COLUMN source_id TEXT"); err != nil {
			return err
		}
	}

	return nil
}

func (s *Store) columnExists(table, column string) bool {
	rows, err := s.db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		return false
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pk int
		var dfltValue any
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			continue
		}
		if name == column {
			return true
		}
	}
	return false
}

// SnapshotInto writes a compacted copy of the database to destPath using
// VACUUM INTO. The destination must not already exist.
func (s *Store) SnapshotInto(ctx context.Context, destPath string) error {
	_, err := s.db.ExecContext(ctx, "VACUUM INTO ?", destPath)
	return err
}

// TypeCount is one row of the per-type histogram.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Stats summarizes the store contents.
type Stats struct {
	DBPath      string      `json:"db_path"`
	DBSizeBytes int64       `json:"db_size_bytes"`
	Active      int         `json:"active"`
	Deleted     int         `json:"deleted"`
	Embedded    int         `json:"embedded"`
	LogEntries  int         `json:"log_entries"`
	ByType      []TypeCount `json:"by_type,omitempty"`
}

// Stats returns tier counts, the embedded-row count, and the database size.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{DBPath: s.path}

	if info, err := os.Stat(s.path); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories WHERE status = 'active'`).Scan(&st.Active)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories WHERE status = 'deleted'`).Scan(&st.Deleted)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vec_memories`).Scan(&st.Embedded)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM op_log`).Scan(&st.LogEntries)

	rows, err := s.db.QueryContext(ctx, `
		SELECT memory_type, COUNT(*) as cnt
		FROM memories WHERE status = 'active'
		GROUP BY memory_type ORDER BY cnt DESC`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.Type, &tc.Count); err != nil {
			continue
		}
		st.ByType = append(st.ByType, tc)
	}

	return st, rows.Err()
}
