// Package assist holds the LLM glue used at memory creation time: type
// classification and keyword extraction. Both degrade to safe defaults on
// any failure, so a dead LLM never blocks a write.
package assist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/trfife/BarnabeeNet-sub002/internal/llm"
	"github.com/trfife/BarnabeeNet-sub002/internal/logger"
	"github.com/trfife/BarnabeeNet-sub002/internal/model"
)

const classifyPrompt = `Classify this memory into exactly one category.

Categories: fact, preference, decision, event, person, project, meeting, journal

- fact: standalone information ("the wifi password is hunter2")
- preference: a like, dislike, or preferred way of doing things
- decision: a choice that was made
- event: something happening at a particular time
- person: information about a specific person
- project: ongoing work or a plan
- meeting: notes from a meeting
- journal: a dated personal entry

Memory:
%s

Answer with the single category word, nothing else:`

const keywordsPrompt = `Extract up to 5 search keywords from this memory.

Rules: lowercase, single words or very short phrases, most distinctive first,
no filler words. Return a JSON array of strings only, no explanation.

Example output: ["birthday", "june", "dad"]

Memory:
%s

Keywords (JSON only):`

// Assist wraps the completion client. A nil client disables both calls.
type Assist struct {
	client llm.Client
}

func New(client llm.Client) *Assist {
	return &Assist{client: client}
}

// ClassifyType labels the memory with one of the eight types. Any failure,
// from a missing client to unparsable output, falls back to "fact".
func (a *Assist) ClassifyType(ctx context.Context, text string) model.MemoryType {
	if a.client == nil {
		return model.TypeFact
	}
	response, err := a.client.Complete(ctx, "", fmt.Sprintf(classifyPrompt, text))
	if err != nil {
		logger.Warn("type classification failed", "error", err)
		return model.TypeFact
	}
	return parseMemoryType(response)
}

// ExtractKeywords returns up to five lowercase keywords, or nil when the
// client is missing or the response cannot be parsed.
func (a *Assist) ExtractKeywords(ctx context.Context, text string) []string {
	if a.client == nil {
		return nil
	}
	response, err := a.client.Complete(ctx, "", fmt.Sprintf(keywordsPrompt, text))
	if err != nil {
		logger.Warn("keyword extraction failed", "error", err)
		return nil
	}
	words, err := parseKeywords(response)
	if err != nil {
		logger.Warn("keyword parsing failed", "error", err, "response", response)
		return nil
	}
	return model.NormalizeKeywords(words)
}

// parseMemoryType scans the response for the first word that is a valid
// type, so "This is a preference." parses the same as "preference".
func parseMemoryType(response string) model.MemoryType {
	for _, word := range strings.Fields(strings.ToLower(response)) {
		word = strings.Trim(word, ".,:;!\"'`")
		if t := model.MemoryType(word); t.Valid() {
			return t
		}
	}
	return model.TypeFact
}

func parseKeywords(response string) ([]string, error) {
	response = strings.TrimSpace(response)

	start := strings.Index(response, "[")
	end := strings.LastIndex(response, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array found")
	}

	var words []string
	if err := json.Unmarshal([]byte(response[start:end+1]), &words); err != nil {
		return nil, err
	}
	return words, nil
}
