// Package session implements progressive narrowing: one search with a large
// limit, revealed to the user in fixed batches, driven by free-text
// utterances until an item is selected, the session is cancelled, or the
// results run out.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/trfife/BarnabeeNet-sub002/internal/config"
	"github.com/trfife/BarnabeeNet-sub002/internal/logger"
	"github.com/trfife/BarnabeeNet-sub002/internal/model"
	"github.com/trfife/BarnabeeNet-sub002/internal/search"
)

// Searcher is the slice of the search engine the session layer needs.
type Searcher interface {
	Search(ctx context.Context, query, owner string, opts search.Options) (*search.Response, error)
}

type Manager struct {
	store  Store
	search Searcher
	cfg    config.SessionConfig

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewManager(store Store, searcher Searcher, cfg config.SessionConfig) *Manager {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 3
	}
	if cfg.SearchLimit < cfg.BatchSize {
		cfg.SearchLimit = cfg.BatchSize
	}
	return &Manager{
		store:  store,
		search: searcher,
		cfg:    cfg,
		locks:  make(map[string]*sync.Mutex),
	}
}

// Start runs the search and opens a session under the caller-supplied id,
// replacing any live session with the same id. Returns the first batch, or
// ErrNoMatch when the search came back empty (no session is created).
func (m *Manager) Start(ctx context.Context, sessionID, query, owner string) (*Response, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	resp, err := m.search.Search(ctx, query, owner, search.Options{Limit: m.cfg.SearchLimit})
	if err != nil {
		return nil, err
	}
	if len(resp.Results) == 0 {
		// Drop any stale session under this id so the old batch cannot
		// answer a new question.
		if err := m.store.Delete(ctx, sessionID); err != nil {
			logger.Warn("session cleanup failed", "session", sessionID, "error", err)
		}
		return nil, fmt.Errorf("%w: %q", model.ErrNoMatch, query)
	}

	results := make([]*model.Memory, len(resp.Results))
	for i, r := range resp.Results {
		results[i] = r.Memory
	}
	sess := &Session{
		ID:        sessionID,
		Owner:     owner,
		Query:     query,
		Results:   results,
		BatchSize: m.cfg.BatchSize,
		State:     StateAwaiting,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	return awaitingResponse(sess, ""), nil
}

// Continue feeds one utterance into the session state machine. Unknown or
// expired ids surface ErrSessionNotFound.
func (m *Manager) Continue(ctx context.Context, sessionID, utterance string) (*Response, error) {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	kind, n := classify(utterance)
	switch kind {
	case kindSelection:
		return m.resolveSelection(ctx, sess, n)
	case kindMore:
		return m.advance(ctx, sess)
	case kindCancel:
		m.terminate(ctx, sess, StateCancelled)
		return &Response{SessionID: sess.ID, State: StateCancelled, Total: sess.Total()}, nil
	default:
		return awaitingResponse(sess, clarificationPrompt(sess)), nil
	}
}

// Cancel drops a session regardless of its state. Cancelling an unknown id
// is a no-op so conversation teardown can call it unconditionally.
func (m *Manager) Cancel(ctx context.Context, sessionID string) error {
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()
	return m.store.Delete(ctx, sessionID)
}

// resolveSelection maps a 1-based pick within the shown batch to an absolute
// index. Out-of-range picks re-present the batch instead of erroring.
func (m *Manager) resolveSelection(ctx context.Context, sess *Session, n int) (*Response, error) {
	abs := sess.Cursor + n - 1
	if abs < 0 || abs >= sess.Total() {
		return awaitingResponse(sess, fmt.Sprintf("there is no option %d; %s", n, clarificationPrompt(sess))), nil
	}
	m.terminate(ctx, sess, StateSelected)
	return &Response{
		SessionID: sess.ID,
		State:     StateSelected,
		Selected:  sess.Results[abs],
		Total:     sess.Total(),
	}, nil
}

func (m *Manager) advance(ctx context.Context, sess *Session) (*Response, error) {
	sess.Cursor += sess.BatchSize
	if sess.Cursor >= sess.Total() {
		m.terminate(ctx, sess, StateExhausted)
		return &Response{SessionID: sess.ID, State: StateExhausted, Total: sess.Total()}, nil
	}
	if err := m.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	return awaitingResponse(sess, ""), nil
}

// terminate removes the session from the live set. Cleanup failures are
// logged, not surfaced: the transition already happened for the caller.
func (m *Manager) terminate(ctx context.Context, sess *Session, state State) {
	sess.State = state
	if err := m.store.Delete(ctx, sess.ID); err != nil {
		logger.Warn("session cleanup failed", "session", sess.ID, "error", err)
	}
}

// sessionLock returns the mutex serializing calls for one session id.
// Entries live for the process lifetime; conversation layers reuse a small
// set of ids (one per chat), so the map stays bounded.
func (m *Manager) sessionLock(id string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[id]
	if !ok {
		l = &sync.Mutex{}
		m.locks[id] = l
	}
	return l
}

func awaitingResponse(sess *Session, clarification string) *Response {
	return &Response{
		SessionID:     sess.ID,
		State:         StateAwaiting,
		Batch:         sess.batch(),
		BatchStart:    sess.Cursor,
		Total:         sess.Total(),
		Clarification: clarification,
	}
}

func clarificationPrompt(sess *Session) string {
	return fmt.Sprintf("say a number from 1 to %d, \"more\", or \"cancel\"", len(sess.batch()))
}
