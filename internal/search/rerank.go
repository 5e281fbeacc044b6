package search

import "context"

// Reranker reorders a result list. It receives the query and the result
// summaries in fused order (ordinal 1..n) and returns the ordinals in the
// order it prefers. Membership never changes: the engine validates the
// response is a permutation of the input and keeps the fused order on any
// malformed or failed response.
type Reranker interface {
	Rerank(ctx context.Context, query string, summaries []string) ([]int, error)
}

// applyOrder reorders results by 1-based ordinals. Reports false for
// anything that is not a permutation: wrong length, out-of-range ordinal,
// or a duplicate.
func applyOrder(results []Result, order []int) ([]Result, bool) {
	if len(order) != len(results) {
		return nil, false
	}
	seen := make([]bool, len(results))
	out := make([]Result, 0, len(results))
	for _, ord := range order {
		if ord < 1 || ord > len(results) || seen[ord-1] {
			return nil, false
		}
		seen[ord-1] = true
		out = append(out, results[ord-1])
	}
	return out, true
}
