package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/trfife/BarnabeeNet-sub002/internal/config"
	"github.com/trfife/BarnabeeNet-sub002/internal/embedder"
	"github.com/trfife/BarnabeeNet-sub002/internal/logger"
	"github.com/trfife/BarnabeeNet-sub002/internal/model"
	"github.com/trfife/BarnabeeNet-sub002/internal/store"
)

// DefaultLimit applies when a caller passes no limit.
const DefaultLimit = 10

// Engine runs hybrid searches over the store.
type Engine struct {
	store    *store.Store
	embedder embedder.Embedder
	cfg      config.SearchConfig
	reranker Reranker
	skip     map[string]bool
	exclude  map[string][]model.MemoryType
}

// NewEngine wires a search engine. The reranker is optional; see SetReranker.
func NewEngine(s *store.Store, e embedder.Embedder, cfg config.SearchConfig) *Engine {
	skip := make(map[string]bool, len(cfg.SkipIntents))
	for _, intent := range cfg.SkipIntents {
		skip[strings.ToLower(strings.TrimSpace(intent))] = true
	}
	exclude := make(map[string][]model.MemoryType, len(cfg.IntentExclusions))
	for intent, types := range cfg.IntentExclusions {
		key := strings.ToLower(strings.TrimSpace(intent))
		for _, t := range types {
			exclude[key] = append(exclude[key], model.MemoryType(t))
		}
	}
	return &Engine{store: s, embedder: e, cfg: cfg, skip: skip, exclude: exclude}
}

// SetReranker installs an optional order-only re-ranking collaborator.
func (e *Engine) SetReranker(r Reranker) {
	e.reranker = r
}

// Options scopes one search call. Types keeps only the named types;
// ExcludeTypes drops them. Both apply after ranking.
type Options struct {
	Limit        int
	Types        []model.MemoryType
	ExcludeTypes []model.MemoryType
}

// Response is a ranked result page. Total counts everything that survived
// the floor and type filter, before truncation to the limit. Degraded marks
// a text-only search run while the embedding side was unavailable.
type Response struct {
	Results  []Result `json:"results"`
	Total    int      `json:"total"`
	Degraded bool     `json:"degraded,omitempty"`
}

// IDs returns the result memory ids in order.
func (r *Response) IDs() []int64 {
	ids := make([]int64, len(r.Results))
	for i, res := range r.Results {
		ids[i] = res.Memory.ID
	}
	return ids
}

// Search runs the hybrid query for owner: vector and text candidates
// gathered over the active tier within visibility, fused, floored, type
// filtered after ranking, truncated, and optionally re-ranked.
func (e *Engine) Search(ctx context.Context, query, owner string, opts Options) (*Response, error) {
	if strings.TrimSpace(query) == "" {
		return &Response{}, nil
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	mult := e.cfg.CandidateMultiplier
	if mult < 1 {
		mult = 2
	}
	candLimit := mult * limit

	vw, tw := e.cfg.VectorWeight, e.cfg.TextWeight
	degraded := false

	var vecCands []store.Candidate
	if vw > 0 {
		vec, err := e.embedder.Embed(ctx, query)
		if err == nil {
			vecCands, err = e.store.VectorCandidates(ctx, vec, owner, candLimit)
		}
		if err != nil {
			degraded = true
			vecCands = nil
			vw = 0
			logger.Warn("vector signal unavailable, degrading to text-only search", "error", err)
		}
	}

	textCands, err := e.store.TextCandidates(ctx, query, owner, candLimit)
	if err != nil {
		if vw == 0 {
			return nil, fmt.Errorf("%w: no retrieval signal available: %v", model.ErrIndexUnavailable, err)
		}
		tw = 0
		textCands = nil
		logger.Warn("text signal unavailable, using vector results only", "error", err)
	}

	fused := fuse(vecCands, textCands, vw, tw, e.cfg.LexicalScale, e.cfg.MinCombined)
	fused = filterTypes(fused, opts.Types)
	fused = excludeTypes(fused, opts.ExcludeTypes)
	total := len(fused)

	results := fused
	if len(results) > limit {
		results = results[:limit]
	}
	results = e.maybeRerank(ctx, query, results, total, limit)

	return &Response{Results: results, Total: total, Degraded: degraded}, nil
}

// RetrieveForContext fetches memories for prompt injection on a
// conversational turn. Intents in the configured skip set short-circuit to
// an empty result; intents in the exclusion map drop their mapped types
// after ranking, so a journal dictation never pulls journal entries back
// into the prompt. Otherwise this is a plain search that also records an
// access on every returned memory, best-effort.
func (e *Engine) RetrieveForContext(ctx context.Context, query, intent, owner string, limit int) (*Response, error) {
	key := strings.ToLower(strings.TrimSpace(intent))
	if e.skip[key] {
		return &Response{}, nil
	}
	if limit <= 0 {
		limit = e.cfg.ContextLimit
	}

	resp, err := e.Search(ctx, query, owner, Options{Limit: limit, ExcludeTypes: e.exclude[key]})
	if err != nil {
		return nil, err
	}

	if len(resp.Results) > 0 {
		if err := e.store.RecordAccess(ctx, resp.IDs()); err != nil {
			logger.Warn("access recording failed", "error", err)
		}
	}
	return resp, nil
}

// maybeRerank delegates ordering of the final page to the reranker when
// enough candidates competed for it to matter. Any failure keeps the fused
// order.
func (e *Engine) maybeRerank(ctx context.Context, query string, results []Result, total, limit int) []Result {
	if e.reranker == nil || len(results) < 2 {
		return results
	}
	if total < limit+e.cfg.RerankMargin {
		return results
	}

	summaries := make([]string, len(results))
	for i, r := range results {
		summaries[i] = r.Memory.Summary
	}
	order, err := e.reranker.Rerank(ctx, query, summaries)
	if err != nil {
		logger.Warn("rerank failed, keeping fused order", "error", err)
		return results
	}
	reordered, ok := applyOrder(results, order)
	if !ok {
		logger.Warn("rerank returned an invalid permutation, keeping fused order")
		return results
	}
	return reordered
}
