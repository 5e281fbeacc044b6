// Package index keeps the vector index in step with the memory store:
// embedding on create, re-embedding on update, removal on hard delete, and a
// backfill sweep for whatever slipped through.
package index

import (
	"context"
	"fmt"

	"github.com/trfife/BarnabeeNet-sub002/internal/embedder"
	"github.com/trfife/BarnabeeNet-sub002/internal/model"
	"github.com/trfife/BarnabeeNet-sub002/internal/store"
)

// Manager owns the store's vector rows.
type Manager struct {
	store    *store.Store
	embedder embedder.Embedder
}

// NewManager wires the vector index to its store and embedder.
func NewManager(s *store.Store, e embedder.Embedder) *Manager {
	return &Manager{store: s, embedder: e}
}

// Index embeds a memory and writes its vector row. An embedding failure is
// reported as ErrIndexUnavailable; callers on the write path log it and move
// on, leaving the memory text-searchable until backfill catches up.
func (m *Manager) Index(ctx context.Context, mem *model.Memory) error {
	vec, err := m.embedder.Embed(ctx, mem.EmbeddingInput())
	if err != nil {
		return fmt.Errorf("%w: embed memory %d: %v", model.ErrIndexUnavailable, mem.ID, err)
	}
	return m.store.UpsertVector(ctx, mem.ID, vec)
}

// Reindex refreshes a memory's vector after its text changed. The upsert is
// transactional, so a failure keeps the previous vector: searches go stale
// for that memory, never broken.
func (m *Manager) Reindex(ctx context.Context, mem *model.Memory) error {
	return m.Index(ctx, mem)
}

// Remove drops a memory's vector row. Only hard deletion calls this; soft
// deletion keeps the row so restore costs nothing.
func (m *Manager) Remove(ctx context.Context, memoryID int64) error {
	return m.store.DeleteVector(ctx, memoryID)
}
