package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/trfife/BarnabeeNet-sub002/internal/config"
)

func TestNewDisabled(t *testing.T) {
	for _, provider := range []string{"", "none"} {
		client, err := New(config.LLMConfig{Provider: provider})
		if err != nil {
			t.Fatalf("provider %q: %v", provider, err)
		}
		if client != nil {
			t.Errorf("provider %q should yield a nil client", provider)
		}
	}
}

func TestNewUnknownProvider(t *testing.T) {
	if _, err := New(config.LLMConfig{Provider: "palm"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewKnownProviders(t *testing.T) {
	for _, provider := range []string{"claude", "openai", "ollama"} {
		client, err := New(config.LLMConfig{Provider: provider, APIKey: "test"})
		if err != nil {
			t.Fatalf("provider %q: %v", provider, err)
		}
		if client == nil {
			t.Errorf("provider %q yielded nil client", provider)
		}
	}
}

func TestOpenAICompatibleComplete(t *testing.T) {
	var gotReq openaiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("auth header = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"preference"}}]}`))
	}))
	defer srv.Close()

	client := newOpenAICompatible("test-key", srv.URL, "test-model")
	out, err := client.Complete(context.Background(), "classify this", "prefers oat milk")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "preference" {
		t.Errorf("out = %q", out)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Errorf("messages = %+v", gotReq.Messages)
	}
	if gotReq.Model != "test-model" {
		t.Errorf("model = %q", gotReq.Model)
	}
}

func TestOpenAICompatibleAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer srv.Close()

	client := newOpenAICompatible("test-key", srv.URL, "test-model")
	if _, err := client.Complete(context.Background(), "", "hello"); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}

func TestOpenAICompatibleNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := newOpenAICompatible("test-key", srv.URL, "test-model")
	if _, err := client.Complete(context.Background(), "", "hello"); err == nil {
		t.Fatal("expected error on empty choices")
	}
}
