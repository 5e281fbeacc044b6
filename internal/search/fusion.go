// Package search fuses the store's vector and full-text signals into one
// ranked result list, with a relevance floor, optional re-ranking, and
// text-only degradation when the embedder is unreachable.
package search

import (
	"sort"

	"github.com/trfife/BarnabeeNet-sub002/internal/model"
	"github.com/trfife/BarnabeeNet-sub002/internal/store"
)

// Result is one scored search hit. VectorScore and TextScore are the
// individual normalized signals; a memory found by only one signal keeps 0
// on the other side.
type Result struct {
	Memory      *model.Memory `json:"memory"`
	VectorScore float64       `json:"vector_score"`
	TextScore   float64       `json:"text_score"`
	Combined    float64       `json:"combined"`
}

// normalizeLexical maps a raw BM25-style score (more negative = better
// match) onto [0,1]: raw of -scale or beyond maps to 1, zero or positive
// maps to 0, linear in between. scale tunes what counts as a saturating
// match and must stay consistent across a deployment.
func normalizeLexical(raw, scale float64) float64 {
	if raw >= 0 || scale <= 0 {
		return 0
	}
	v := -raw / scale
	if v > 1 {
		return 1
	}
	return v
}

// fuse merges both candidate sets into combined scores, drops everything
// under floor, and sorts best-first with newest-first tie-breaking. Weights
// are normalized to sum to 1, so when a whole signal is unavailable (its
// weight passed as 0) the surviving signal carries the full score.
func fuse(vecCands, textCands []store.Candidate, vectorWeight, textWeight, scale, floor float64) []Result {
	wsum := vectorWeight + textWeight
	if wsum <= 0 {
		return nil
	}
	vw := vectorWeight / wsum
	tw := textWeight / wsum

	byID := make(map[int64]*Result, len(vecCands)+len(textCands))
	for _, c := range vecCands {
		byID[c.Memory.ID] = &Result{Memory: c.Memory, VectorScore: clamp01(c.Score)}
	}
	for _, c := range textCands {
		r, ok := byID[c.Memory.ID]
		if !ok {
			r = &Result{Memory: c.Memory}
			byID[c.Memory.ID] = r
		}
		r.TextScore = normalizeLexical(c.Score, scale)
	}

	out := make([]Result, 0, len(byID))
	for _, r := range byID {
		r.Combined = vw*r.VectorScore + tw*r.TextScore
		if r.Combined < floor {
			continue
		}
		out = append(out, *r)
	}

	sort.Slice(out, func(i, j int) bool {
		return lessResult(out[i], out[j])
	})
	return out
}

// lessResult orders by combined score descending, then creation time
// descending, then id descending, so equal scores favor newer memories.
func lessResult(a, b Result) bool {
	if a.Combined != b.Combined {
		return a.Combined > b.Combined
	}
	if !a.Memory.CreatedAt.Equal(b.Memory.CreatedAt) {
		return a.Memory.CreatedAt.After(b.Memory.CreatedAt)
	}
	return a.Memory.ID > b.Memory.ID
}

// filterTypes keeps only results whose memory type is in the filter,
// applied after ranking so the floor and weights see every candidate
// uniformly. An empty filter keeps everything.
func filterTypes(results []Result, types []model.MemoryType) []Result {
	if len(types) == 0 {
		return results
	}
	want := make(map[model.MemoryType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	out := results[:0]
	for _, r := range results {
		if want[r.Memory.MemoryType] {
			out = append(out, r)
		}
	}
	return out
}

func excludeTypes(results []Result, types []model.MemoryType) []Result {
	if len(types) == 0 {
		return results
	}
	drop := make(map[model.MemoryType]bool, len(types))
	for _, t := range types {
		drop[t] = true
	}
	out := results[:0]
	for _, r := range results {
		if !drop[r.Memory.MemoryType] {
			out = append(out, r)
		}
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
