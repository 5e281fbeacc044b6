package engine

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/trfife/BarnabeeNet-sub002/internal/config"
	"github.com/trfife/BarnabeeNet-sub002/internal/deletion"
	"github.com/trfife/BarnabeeNet-sub002/internal/llm"
	"github.com/trfife/BarnabeeNet-sub002/internal/model"
	"github.com/trfife/BarnabeeNet-sub002/internal/store"
)

// stubEmbedder returns the same unit vector for every text, so every stored
// memory is a vector candidate for every query and text relevance decides
// the order. The mutex covers concurrent backfill workers.
type stubEmbedder struct {
	mu    sync.Mutex
	dims  int
	fail  bool
	calls []string
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fail {
		return nil, fmt.Errorf("embedding provider down")
	}
	e.calls = append(e.calls, text)
	return []float32{0, 0, 0, 1}, nil
}

func (e *stubEmbedder) Dimensions() int { return e.dims }

func (e *stubEmbedder) setFail(fail bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fail = fail
}

func (e *stubEmbedder) embedded(text string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, c := range e.calls {
		if c == text {
			return true
		}
	}
	return false
}

type stubLLM struct {
	classify string
	keywords string
	err      error
}

func (c *stubLLM) Complete(ctx context.Context, system, user string) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	if strings.Contains(user, "keyword") {
		return c.keywords, nil
	}
	return c.classify, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Search: config.SearchConfig{
			VectorWeight:        0.6,
			TextWeight:          0.4,
			MinCombined:         0.05,
			LexicalScale:        25,
			CandidateMultiplier: 2,
			RerankMargin:        2,
			ContextLimit:        5,
			SkipIntents:         []string{"timer", "clock", "alarm"},
		},
		Session:  config.SessionConfig{BatchSize: 3, SearchLimit: 20, TTL: time.Minute},
		OpLog:    config.OpLogConfig{RetentionDays: 90},
		Backfill: config.BackfillConfig{Workers: 2, RatePerSec: 500},
	}
}

func newTestService(t *testing.T, client llm.Client, cap model.Capability) (*Service, *store.Store, *stubEmbedder) {
	t.Helper()
	st, err := store.Open(":memory:", 4)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	emb := &stubEmbedder{dims: 4}
	return New(testConfig(), st, emb, client, cap), st, emb
}

func logEvents(t *testing.T, st *store.Store, memoryID int64) []string {
	t.Helper()
	entries, err := st.RecentLog(context.Background(), memoryID, model.TierAdmin(), 50)
	if err != nil {
		t.Fatalf("recent log: %v", err)
	}
	events := make([]string, len(entries))
	for i, e := range entries {
		events[i] = e.Event
	}
	return events
}

func countEvent(events []string, want string) int {
	n := 0
	for _, e := range events {
		if e == want {
			n++
		}
	}
	return n
}

func TestRememberFullPath(t *testing.T) {
	client := &stubLLM{classify: "preference", keywords: `["oat", "milk", "coffee"]`}
	svc, st, _ := newTestService(t, client, model.Capability{})
	ctx := context.Background()

	m, err := svc.Remember(ctx, RememberParams{
		Content:    "Tom prefers oat milk in his coffee. He switched last winter.",
		Owner:      "tom",
		Visibility: model.VisibilityPrivate,
		SourceType: model.SourceExplicit,
	})
	if err != nil {
		t.Fatalf("remember: %v", err)
	}
	if m.ID == 0 {
		t.Fatal("expected an assigned id")
	}
	if m.Summary != "Tom prefers oat milk in his coffee" {
		t.Errorf("derived summary = %q", m.Summary)
	}
	if m.MemoryType != model.TypePreference {
		t.Errorf("type = %s, want preference", m.MemoryType)
	}
	if !reflect.DeepEqual(m.Keywords, []string{"oat", "milk", "coffee"}) {
		t.Errorf("keywords = %v", m.Keywords)
	}

	has, err := st.HasVector(ctx, m.ID)
	if err != nil || !has {
		t.Errorf("HasVector = %v, %v; want true", has, err)
	}

	events := logEvents(t, st, m.ID)
	if countEvent(events, store.EventCreate) != 1 || countEvent(events, store.EventClassify) != 1 {
		t.Errorf("log events = %v, want one create and one classify", events)
	}
}

func TestRememberExplicitSummary(t *testing.T) {
	svc, _, _ := newTestService(t, nil, model.Capability{})

	m, err := svc.Remember(context.Background(), RememberParams{
		Content: "Long rambling note about the weekend. Several sentences follow.",
		Summary: "  weekend note  ",
		Owner:   "tom",
	})
	if err != nil {
		t.Fatalf("remember: %v", err)
	}
	if m.Summary != "weekend note" {
		t.Errorf("summary = %q, want the trimmed explicit one", m.Summary)
	}
}

func TestRememberWithoutAssist(t *testing.T) {
	svc, _, _ := newTestService(t, nil, model.Capability{})

	m, err := svc.Remember(context.Background(), RememberParams{
		Content: "The garage code is 4417.",
		Owner:   "tom",
	})
	if err != nil {
		t.Fatalf("remember: %v", err)
	}
	if m.MemoryType != model.TypeFact {
		t.Errorf("type = %s, want the fact fallback", m.MemoryType)
	}
	if len(m.Keywords) != 0 {
		t.Errorf("keywords = %v, want none", m.Keywords)
	}
}

func TestRememberEmptyContent(t *testing.T) {
	svc, _, _ := newTestService(t, nil, model.Capability{})
	if _, err := svc.Remember(context.Background(), RememberParams{Content: "   ", Owner: "tom"}); err == nil {
		t.Fatal("expected an error for empty content")
	}
}

func TestDeriveSummary(t *testing.T) {
	long := strings.Repeat("x", 300)
	tests := []struct {
		content string
		want    string
	}{
		{"Dad's birthday is June 3. He always forgets it himself.", "Dad's birthday is June 3"},
		{"Pi is roughly 3.14159 for kitchen math.", "Pi is roughly 3.14159 for kitchen math"},
		{"Call the plumber!", "Call the plumber"},
		{"Where did we park?", "Where did we park"},
		{"first line\nsecond line", "first line"},
		{long, long[:summaryMaxRunes]},
		{"short", "short"},
	}
	for _, tt := range tests {
		if got := deriveSummary(tt.content); got != tt.want {
			t.Errorf("deriveSummary(%.30q) = %q, want %q", tt.content, got, tt.want)
		}
	}
}

func TestEmbedderDownThenBackfill(t *testing.T) {
	cfg := testConfig()
	cfg.Search.MinCombined = 0 // text-only scores on a tiny corpus are small
	st, err := store.Open(":memory:", 4)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	emb := &stubEmbedder{dims: 4, fail: true}
	svc := New(cfg, st, emb, nil, model.Capability{})
	ctx := context.Background()

	m, err := svc.Remember(ctx, RememberParams{
		Content: "Grandma's recipe uses cardamom instead of cinnamon.",
		Owner:   "tom",
	})
	if err != nil {
		t.Fatalf("remember with embedder down: %v", err)
	}
	if has, _ := st.HasVector(ctx, m.ID); has {
		t.Fatal("no vector should exist while the embedder is down")
	}

	resp, err := svc.Search(ctx, "cardamom", "tom", nil, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !resp.Degraded {
		t.Error("expected a degraded text-only search")
	}
	if len(resp.Results) != 1 || resp.Results[0].Memory.ID != m.ID {
		t.Fatalf("text-only search results = %+v, want the new memory", resp.Results)
	}

	emb.setFail(false)
	report, err := svc.Backfill(ctx)
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if report.Indexed != 1 || report.Failed != 0 {
		t.Errorf("report = %+v, want one indexed", report)
	}
	if has, _ := st.HasVector(ctx, m.ID); !has {
		t.Error("backfill should have added the vector")
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Active != 1 || stats.Embedded != 1 {
		t.Errorf("stats = %+v, want one active and one embedded", stats)
	}

	events := logEvents(t, st, 0)
	if countEvent(events, store.EventBackfill) != 1 {
		t.Errorf("log events = %v, want one backfill", events)
	}
}

func TestUpdateMemory(t *testing.T) {
	svc, st, emb := newTestService(t, nil, model.Capability{})
	ctx := context.Background()

	m, err := svc.Remember(ctx, RememberParams{
		Content: "Piano lesson is on Tuesday at 4pm.",
		Owner:   "tom",
	})
	if err != nil {
		t.Fatalf("remember: %v", err)
	}

	updated, err := svc.UpdateMemory(ctx, UpdateParams{
		ID:      m.ID,
		Owner:   "tom",
		Content: "Piano lesson moved to Wednesday at 5pm.",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Summary != m.Summary {
		t.Errorf("summary changed to %q without being asked", updated.Summary)
	}

	got, err := svc.Get(ctx, m.ID, "tom")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Content != "Piano lesson moved to Wednesday at 5pm." {
		t.Errorf("stored content = %q", got.Content)
	}
	if !emb.embedded(updated.EmbeddingInput()) {
		t.Error("updated text was never re-embedded")
	}
	if countEvent(logEvents(t, st, m.ID), store.EventUpdate) != 1 {
		t.Error("expected one update log event")
	}

	_, err = svc.UpdateMemory(ctx, UpdateParams{ID: m.ID, Owner: "mallory", Content: "mine now"})
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("cross-owner update error = %v, want ErrNotFound", err)
	}
}

func TestSearchThroughEngine(t *testing.T) {
	svc, _, _ := newTestService(t, nil, model.Capability{})
	ctx := context.Background()

	a, err := svc.Remember(ctx, RememberParams{Content: "Dentist appointment is next Friday morning.", Owner: "tom"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Remember(ctx, RememberParams{Content: "The thermostat schedule runs warm at night.", Owner: "tom"}); err != nil {
		t.Fatal(err)
	}

	resp, err := svc.Search(ctx, "dentist", "tom", nil, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("got %d results, want 2 (identical stub vectors match everything)", len(resp.Results))
	}
	if resp.Results[0].Memory.ID != a.ID {
		t.Errorf("top result = %d, want the text match %d", resp.Results[0].Memory.ID, a.ID)
	}
}

func TestRetrieveForContextThroughEngine(t *testing.T) {
	svc, st, _ := newTestService(t, nil, model.Capability{})
	ctx := context.Background()

	m, err := svc.Remember(ctx, RememberParams{Content: "School pickup rotates to us on Thursdays.", Owner: "tom"})
	if err != nil {
		t.Fatal(err)
	}

	resp, err := svc.RetrieveForContext(ctx, "who handles school pickup", "chat", "tom", 0)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("got %d results, want 1", len(resp.Results))
	}
	got, _ := svc.Get(ctx, m.ID, "tom")
	if got.AccessCount != 1 {
		t.Errorf("access count = %d, want 1", got.AccessCount)
	}
	if countEvent(logEvents(t, st, 0), store.EventRetrieve) != 1 {
		t.Error("expected one retrieve log event")
	}

	resp, err = svc.RetrieveForContext(ctx, "set a timer for pasta", "timer", "tom", 0)
	if err != nil {
		t.Fatalf("retrieve with mechanical intent: %v", err)
	}
	if len(resp.Results) != 0 {
		t.Errorf("mechanical intent returned %d results, want none", len(resp.Results))
	}
	if countEvent(logEvents(t, st, 0), store.EventRetrieve) != 1 {
		t.Error("mechanical intent should not add a retrieve event")
	}
}

func TestSessionThroughEngine(t *testing.T) {
	svc, _, _ := newTestService(t, nil, model.Capability{})
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := svc.Remember(ctx, RememberParams{
			Content: fmt.Sprintf("Weekend plans option %d involves the lake.", i+1),
			Owner:   "tom",
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	start, err := svc.StartSession(ctx, "sess-1", "weekend plans", "tom")
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if start.Total != 4 || len(start.Batch) != 3 {
		t.Fatalf("start = total %d batch %d, want 4 and 3", start.Total, len(start.Batch))
	}
	want := start.Batch[1].ID

	resp, err := svc.ContinueSession(ctx, "sess-1", "the second one")
	if err != nil {
		t.Fatalf("continue: %v", err)
	}
	if resp.Selected == nil || resp.Selected.ID != want {
		t.Fatalf("selected = %+v, want memory %d", resp.Selected, want)
	}

	if _, err := svc.ContinueSession(ctx, "sess-1", "more"); !errors.Is(err, model.ErrSessionNotFound) {
		t.Errorf("continue after selection = %v, want ErrSessionNotFound", err)
	}

	start2, err := svc.StartSession(ctx, "sess-2", "weekend plans", "tom")
	if err != nil {
		t.Fatal(err)
	}
	_ = start2
	if err := svc.CancelSession(ctx, "sess-2"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
}

func TestDeleteFlow(t *testing.T) {
	svc, st, _ := newTestService(t, nil, model.Capability{})
	ctx := context.Background()

	m, err := svc.Remember(ctx, RememberParams{Content: "Dentist appointment is next Friday.", Owner: "tom"})
	if err != nil {
		t.Fatal(err)
	}

	res, err := svc.RequestDelete(ctx, "that one", "tom", 0)
	if err != nil {
		t.Fatalf("request delete: %v", err)
	}
	if res.Outcome != deletion.OutcomeDisambiguationNeeded {
		t.Fatalf("back-reference without hint = %s", res.Outcome)
	}

	res, err = svc.RequestDelete(ctx, "the dentist thing", "tom", 0)
	if err != nil {
		t.Fatalf("request delete by description: %v", err)
	}
	if res.Outcome != deletion.OutcomeAwaitingConfirmation || len(res.Candidates) != 1 {
		t.Fatalf("resolution = %+v, want one candidate awaiting confirmation", res)
	}
	if _, err := svc.Get(ctx, m.ID, "tom"); err != nil {
		t.Fatal("awaiting confirmation must not mutate")
	}

	deleted, err := svc.ConfirmDelete(ctx, m.ID, "tom")
	if err != nil {
		t.Fatalf("confirm delete: %v", err)
	}
	if deleted.ID != m.ID {
		t.Errorf("confirmed id = %d, want %d", deleted.ID, m.ID)
	}
	if _, err := svc.Get(ctx, m.ID, "tom"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}
	if countEvent(logEvents(t, st, m.ID), store.EventSoftDelete) != 1 {
		t.Error("expected one soft_delete log event")
	}
}

func TestDeleteBackReferenceWithHint(t *testing.T) {
	svc, st, _ := newTestService(t, nil, model.Capability{})
	ctx := context.Background()

	m, err := svc.Remember(ctx, RememberParams{Content: "Trash pickup moved to Wednesday.", Owner: "tom"})
	if err != nil {
		t.Fatal(err)
	}

	res, err := svc.RequestDelete(ctx, "that", "tom", m.ID)
	if err != nil {
		t.Fatalf("request delete: %v", err)
	}
	if res.Outcome != deletion.OutcomeDeleted || res.Deleted == nil || res.Deleted.ID != m.ID {
		t.Fatalf("resolution = %+v, want a direct delete", res)
	}
	if countEvent(logEvents(t, st, m.ID), store.EventSoftDelete) != 1 {
		t.Error("expected one soft_delete log event")
	}
}

func TestCapabilityGating(t *testing.T) {
	cfg := testConfig()
	st, err := store.Open(":memory:", 4)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	emb := &stubEmbedder{dims: 4}
	user := New(cfg, st, emb, nil, model.Capability{})
	admin := New(cfg, st, emb, nil, model.TierAdmin())
	ctx := context.Background()

	m, err := user.Remember(ctx, RememberParams{Content: "Library books are due Monday.", Owner: "tom"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := user.ConfirmDelete(ctx, m.ID, "tom"); err != nil {
		t.Fatal(err)
	}

	if err := user.Restore(ctx, m.ID, "tom"); !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("restore without capability = %v", err)
	}
	if err := user.HardDelete(ctx, m.ID, "tom"); !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("hard delete without capability = %v", err)
	}
	if _, err := user.SearchDeleted(ctx, "library", 10); !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("deleted-tier search without capability = %v", err)
	}
	if _, err := user.RecentLog(ctx, 0, 10); !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("log read without capability = %v", err)
	}

	found, err := admin.SearchDeleted(ctx, "library", 10)
	if err != nil || len(found) != 1 {
		t.Fatalf("admin deleted-tier search = %v, %v; want the deleted memory", found, err)
	}
	if err := admin.Restore(ctx, m.ID, "admin"); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if _, err := user.Get(ctx, m.ID, "tom"); err != nil {
		t.Fatalf("restored memory should be active again: %v", err)
	}

	if _, err := user.ConfirmDelete(ctx, m.ID, "tom"); err != nil {
		t.Fatal(err)
	}
	if err := admin.HardDelete(ctx, m.ID, "admin"); err != nil {
		t.Fatalf("hard delete: %v", err)
	}
	if rest, err := admin.SearchDeleted(ctx, "library", 10); err != nil || len(rest) != 0 {
		t.Errorf("deleted tier after hard delete = %v, %v; want empty", rest, err)
	}

	events, err := admin.RecentLog(ctx, 0, 50)
	if err != nil {
		t.Fatalf("recent log: %v", err)
	}
	var names []string
	for _, e := range events {
		names = append(names, e.Event)
	}
	if countEvent(names, store.EventRestore) != 1 || countEvent(names, store.EventHardDelete) != 1 {
		t.Errorf("log events = %v, want a restore and a hard_delete", names)
	}

	tiers, err := admin.SearchAllTiers(ctx, "library", 10)
	if err != nil {
		t.Fatalf("cross-tier search: %v", err)
	}
	if len(tiers.Active) != 0 || len(tiers.Deleted) != 0 {
		t.Errorf("tiers after hard delete = %+v, want only log traces", tiers)
	}
	if len(tiers.Log) == 0 {
		t.Error("expected log entries mentioning the memory to survive")
	}
}

func TestPurgeOpLogEmpty(t *testing.T) {
	svc, st, _ := newTestService(t, nil, model.Capability{})

	n, err := svc.PurgeOpLog(context.Background())
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 0 {
		t.Errorf("purged %d entries from an empty log", n)
	}
	if countEvent(logEvents(t, st, 0), store.EventPurge) != 0 {
		t.Error("an empty purge should not log an event")
	}
}
