package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/trfife/BarnabeeNet-sub002/internal/llm"
)

const rerankPrompt = `Rank these memory summaries by relevance to the query.

Query: %s

Summaries:
%s
Return a JSON array of the summary numbers, best match first, including every
number exactly once. Example: [2, 1, 3]

Ranking (JSON only):`

// Reranker asks the LLM to reorder a page of summaries. The search engine
// validates the returned permutation and keeps the fused order when it is
// malformed, so this only has to relay what the model said.
type Reranker struct {
	client llm.Client
}

func NewReranker(client llm.Client) *Reranker {
	return &Reranker{client: client}
}

func (r *Reranker) Rerank(ctx context.Context, query string, summaries []string) ([]int, error) {
	var list strings.Builder
	for i, s := range summaries {
		fmt.Fprintf(&list, "%d. %s\n", i+1, s)
	}

	response, err := r.client.Complete(ctx, "", fmt.Sprintf(rerankPrompt, query, list.String()))
	if err != nil {
		return nil, err
	}
	return parseOrdinals(response)
}

func parseOrdinals(response string) ([]int, error) {
	response = strings.TrimSpace(response)

	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array found")
	}

	var order []int
	if err := json.Unmarshal([]byte(response[start:end+1]), &order); err != nil {
		return nil, err
	}
	return order, nil
}
