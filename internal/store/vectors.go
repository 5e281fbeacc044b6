package store

import (
	"context"
	"fmt"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/ncruces"

	"github.com/trfife/BarnabeeNet-sub002/internal/model"
)

// UpsertVector replaces the embedding row for a memory. Delete and insert
// run in one transaction so a failure leaves the previous vector in place
// rather than none.
func (s *Store) UpsertVector(ctx context.Context, memoryID int64, embedding []float32) error {
	if len(embedding) != s.dims {
		return fmt.Errorf("embedding has %d dimensions, store expects %d", len(embedding), s.dims)
	}
	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return fmt.Errorf("serialize embedding: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vec_memories WHERE memory_id = ?`, memoryID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO vec_memories (memory_id, embedding) VALUES (?, ?)`, memoryID, blob); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteVector removes the embedding row for a memory, if any.
func (s *Store) DeleteVector(ctx context.Context, memoryID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM vec_memories WHERE memory_id = ?`, memoryID)
	return err
}

// HasVector reports whether a memory has an embedding row.
func (s *Store) HasVector(ctx context.Context, memoryID int64) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vec_memories WHERE memory_id = ?`, memoryID).Scan(&n)
	return n > 0, err
}

// MissingEmbeddings returns active memories with ids above afterID that have
// no embedding row, in id order. The cursor lets the backfill sweep advance
// past rows that keep failing instead of rescanning them.
func (s *Store) MissingEmbeddings(ctx context.Context, afterID int64, limit int) ([]*model.Memory, error) {
	rows, err := s.db.QueryContext(ctx, missingEmbeddingsQuery, afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("missing embeddings: %w", err)
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

// EmbeddingCount returns the number of embedding rows.
func (s *Store) EmbeddingCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vec_memories`).Scan(&n)
	return n, err
}
