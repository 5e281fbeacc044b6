package assist

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/trfife/BarnabeeNet-sub002/internal/model"
)

type stubClient struct {
	response string
	err      error
	prompts  []string
}

func (s *stubClient) Complete(_ context.Context, _, userPrompt string) (string, error) {
	s.prompts = append(s.prompts, userPrompt)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestClassifyType(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		response string
		want     model.MemoryType
	}{
		{"preference", model.TypePreference},
		{"Meeting", model.TypeMeeting},
		{"This is clearly a journal entry.", model.TypeJournal},
		{"event.", model.TypeEvent},
		{"I have no idea", model.TypeFact},
		{"", model.TypeFact},
	}
	for _, tt := range tests {
		a := New(&stubClient{response: tt.response})
		if got := a.ClassifyType(ctx, "some memory"); got != tt.want {
			t.Errorf("response %q classified as %s, want %s", tt.response, got, tt.want)
		}
	}
}

func TestClassifyTypeFailures(t *testing.T) {
	ctx := context.Background()

	if got := New(nil).ClassifyType(ctx, "text"); got != model.TypeFact {
		t.Errorf("nil client = %s, want fact", got)
	}

	a := New(&stubClient{err: errors.New("timeout")})
	if got := a.ClassifyType(ctx, "text"); got != model.TypeFact {
		t.Errorf("llm error = %s, want fact", got)
	}
}

func TestExtractKeywords(t *testing.T) {
	ctx := context.Background()
	a := New(&stubClient{response: `["Birthday", "JUNE", "dad", "gift", "family", "extra", "overflow"]`})

	got := a.ExtractKeywords(ctx, "dad's birthday is june 3rd")
	want := []string{"birthday", "june", "dad", "gift", "family"}
	if len(got) != len(want) {
		t.Fatalf("keywords = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keywords[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestExtractKeywordsFencedResponse(t *testing.T) {
	a := New(&stubClient{response: "```json\n[\"cabin\", \"wifi\"]\n```"})
	got := a.ExtractKeywords(context.Background(), "wifi password for the cabin")
	if len(got) != 2 || got[0] != "cabin" || got[1] != "wifi" {
		t.Errorf("keywords = %v", got)
	}
}

func TestExtractKeywordsFailures(t *testing.T) {
	ctx := context.Background()

	if got := New(nil).ExtractKeywords(ctx, "text"); got != nil {
		t.Errorf("nil client = %v, want nil", got)
	}
	if got := New(&stubClient{err: errors.New("timeout")}).ExtractKeywords(ctx, "text"); got != nil {
		t.Errorf("llm error = %v, want nil", got)
	}
	if got := New(&stubClient{response: "sorry, I cannot help"}).ExtractKeywords(ctx, "text"); got != nil {
		t.Errorf("unparsable response = %v, want nil", got)
	}
}

func TestRerank(t *testing.T) {
	client := &stubClient{response: "[3, 1, 2]"}
	r := NewReranker(client)

	order, err := r.Rerank(context.Background(), "birthday", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("rerank: %v", err)
	}
	if len(order) != 3 || order[0] != 3 || order[1] != 1 || order[2] != 2 {
		t.Errorf("order = %v", order)
	}

	prompt := client.prompts[0]
	for _, want := range []string{"1. a", "2. b", "3. c", "birthday"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestRerankChattyResponse(t *testing.T) {
	r := NewReranker(&stubClient{response: "Here is the ranking: [2, 1] based on relevance."})
	order, err := r.Rerank(context.Background(), "q", []string{"a", "b"})
	if err != nil {
		t.Fatalf("rerank: %v", err)
	}
	if len(order) != 2 || order[0] != 2 {
		t.Errorf("order = %v", order)
	}
}

func TestRerankErrors(t *testing.T) {
	ctx := context.Background()

	if _, err := NewReranker(&stubClient{err: errors.New("timeout")}).Rerank(ctx, "q", []string{"a"}); err == nil {
		t.Error("expected llm error to propagate")
	}
	if _, err := NewReranker(&stubClient{response: "first, then second"}).Rerank(ctx, "q", []string{"a", "b"}); err == nil {
		t.Error("expected parse error on prose response")
	}
}
