package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/trfife/BarnabeeNet-sub002/internal/config"
	"github.com/trfife/BarnabeeNet-sub002/internal/model"
)

// Store holds live sessions keyed by id. Implementations must be safe for
// concurrent use; the Manager serializes calls per session id on top.
type Store interface {
	Put(ctx context.Context, sess *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// NewStoreFromConfig returns the Redis store when an address is configured,
// otherwise the in-process map store.
func NewStoreFromConfig(cfg config.SessionConfig) Store {
	if cfg.RedisAddr != "" {
		return NewRedisStore(cfg)
	}
	return NewMemoryStore(cfg.TTL)
}

type memoryEntry struct {
	sess      *Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in a process-local map. Entries expire ttl
// after their last Put; a ttl of zero disables expiry.
type MemoryStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]memoryEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[string]memoryEntry),
	}
}

func (s *MemoryStore) Put(_ context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := memoryEntry{sess: sess}
	if s.ttl > 0 {
		entry.expiresAt = time.Now().Add(s.ttl)
	}
	s.sessions[sess.ID] = entry
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrSessionNotFound, id)
	}
	if entry.expiresAt.IsZero() || time.Now().Before(entry.expiresAt) {
		return entry.sess, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok = s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrSessionNotFound, id)
	}
	if entry.expiresAt.IsZero() || time.Now().Before(entry.expiresAt) {
		// A concurrent Put refreshed the entry between the two locks.
		return entry.sess, nil
	}
	delete(s.sessions, id)
	return nil, fmt.Errorf("%w: %s expired", model.ErrSessionNotFound, id)
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// Len reports live entries without pruning expired ones.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
