// Package engine assembles the memory subsystem behind one facade: creation
// with LLM assist, hybrid retrieval, narrowing sessions, the deletion
// workflow, tier administration, and the operational log.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/trfife/BarnabeeNet-sub002/internal/assist"
	"github.com/trfife/BarnabeeNet-sub002/internal/config"
	"github.com/trfife/BarnabeeNet-sub002/internal/deletion"
	"github.com/trfife/BarnabeeNet-sub002/internal/embedder"
	"github.com/trfife/BarnabeeNet-sub002/internal/index"
	"github.com/trfife/BarnabeeNet-sub002/internal/llm"
	"github.com/trfife/BarnabeeNet-sub002/internal/logger"
	"github.com/trfife/BarnabeeNet-sub002/internal/model"
	"github.com/trfife/BarnabeeNet-sub002/internal/search"
	"github.com/trfife/BarnabeeNet-sub002/internal/session"
	"github.com/trfife/BarnabeeNet-sub002/internal/store"
)

const summaryMaxRunes = 120

type Service struct {
	cfg      *config.Config
	store    *store.Store
	index    *index.Manager
	search   *search.Engine
	sessions *session.Manager
	deletion *deletion.Workflow
	assist   *assist.Assist
	cap      model.Capability
}

// New wires the full engine. client may be nil (LLM assist disabled); cap is
// the zero Capability for normal callers and TierAdmin for super users.
func New(cfg *config.Config, st *store.Store, emb embedder.Embedder, client llm.Client, cap model.Capability) *Service {
	searchEngine := search.NewEngine(st, emb, cfg.Search)
	if client != nil && cfg.LLM.Rerank {
		searchEngine.SetReranker(assist.NewReranker(client))
	}
	return &Service{
		cfg:      cfg,
		store:    st,
		index:    index.NewManager(st, emb),
		search:   searchEngine,
		sessions: session.NewManager(session.NewStoreFromConfig(cfg.Session), searchEngine, cfg.Session),
		deletion: deletion.NewWorkflow(st, searchEngine),
		assist:   assist.New(client),
		cap:      cap,
	}
}

// RememberParams is one memory to create. Summary is optional; everything
// else the engine derives is best-effort LLM assist.
type RememberParams struct {
	Content    string
	Summary    string
	Owner      string
	Visibility model.Visibility
	SourceType model.SourceType
	SourceID   string
}

// Remember creates a memory: derive the summary when absent, classify the
// type, extract keywords, store, embed. An embedding failure leaves the
// memory active and text-searchable; backfill adds the vector later.
func (s *Service) Remember(ctx context.Context, p RememberParams) (*model.Memory, error) {
	content := strings.TrimSpace(p.Content)
	if content == "" {
		return nil, fmt.Errorf("memory content is required")
	}
	summary := strings.TrimSpace(p.Summary)
	if summary == "" {
		summary = deriveSummary(content)
	}

	memType := s.assist.ClassifyType(ctx, content)
	keywords := s.assist.ExtractKeywords(ctx, content)

	m := &model.Memory{
		Summary:    summary,
		Content:    content,
		MemoryType: memType,
		SourceType: p.SourceType,
		SourceID:   p.SourceID,
		Owner:      p.Owner,
		Visibility: p.Visibility,
		Keywords:   keywords,
	}
	if err := s.store.Create(ctx, m); err != nil {
		return nil, err
	}

	if err := s.index.Index(ctx, m); err != nil {
		logger.Warn("memory created without embedding", "memory", m.ID, "error", err)
	}

	s.logEvent(ctx, store.EventCreate, m.ID, p.Owner, p.Owner, summary)
	s.logEvent(ctx, store.EventClassify, m.ID, "", p.Owner, string(memType))

	return m, nil
}

// Get returns an active memory visible to owner.
func (s *Service) Get(ctx context.Context, id int64, owner string) (*model.Memory, error) {
	return s.store.Get(ctx, id, owner)
}

// UpdateParams carries a text rewrite. Empty fields keep their current
// value; type and keywords are fixed at creation, a change large enough to
// alter them is a new memory.
type UpdateParams struct {
	ID      int64
	Owner   string
	Summary string
	Content string
}

// UpdateMemory rewrites a memory's text and re-embeds it. The embedding
// swap happens after the new vector exists, so a failed embed leaves the
// previous vector serving searches.
func (s *Service) UpdateMemory(ctx context.Context, p UpdateParams) (*model.Memory, error) {
	m, err := s.store.Get(ctx, p.ID, p.Owner)
	if err != nil {
		return nil, err
	}
	if c := strings.TrimSpace(p.Content); c != "" {
		m.Content = c
	}
	if sum := strings.TrimSpace(p.Summary); sum != "" {
		m.Summary = sum
	}

	if err := s.store.Update(ctx, m); err != nil {
		return nil, err
	}
	if err := s.index.Reindex(ctx, m); err != nil {
		logger.Warn("memory updated without re-embedding", "memory", m.ID, "error", err)
	}

	s.logEvent(ctx, store.EventUpdate, m.ID, p.Owner, m.Owner, m.Summary)
	return m, nil
}

// logEvent appends to the operational log, best-effort.
func (s *Service) logEvent(ctx context.Context, event string, memoryID int64, actor, owner, detail string) {
	err := s.store.AppendLog(ctx, store.LogEntry{
		Event:    event,
		MemoryID: memoryID,
		Actor:    actor,
		Owner:    owner,
		Detail:   detail,
	})
	if err != nil {
		logger.Warn("op log write failed", "event", event, "error", err)
	}
}

// deriveSummary takes the first sentence of the content, capped at
// summaryMaxRunes. A period inside a number ("3.14") does not end the
// sentence.
func deriveSummary(content string) string {
	runes := []rune(content)
	end := len(runes)
	for i, r := range runes {
		if r == '\n' {
			end = i
			break
		}
		if r == '.' || r == '!' || r == '?' {
			if i+1 == len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' {
				end = i
				break
			}
		}
	}
	if end > summaryMaxRunes {
		end = summaryMaxRunes
	}
	return strings.TrimSpace(string(runes[:end]))
}
