package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseBackend(t *testing.T) {
	cases := map[string]Backend{
		"chatgpt":    BackendChatGPT,
		"ChatGPT":    BackendChatGPT,
		"deepseek":   BackendDeepSeek,
		"DeepSeek":   BackendDeepSeek,
		" DEEPSEEK ": BackendDeepSeek,
		"":           BackendChatGPT,
		"claude":     BackendChatGPT,
	}
	for in, want := range cases {
		if got := ParseBackend(in); got != want {
			t.Fatalf("ParseBackend(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewRequiresAPIKeys(t *testing.T) {
	if _, err := New(ProviderConfig{}, ProviderConfig{APIKey: "k"}); err == nil {
		t.Fatal("expected error for missing chatgpt key")
	}
	if _, err := New(ProviderConfig{APIKey: "k"}, ProviderConfig{}); err == nil {
		t.Fatal("expected error for missing deepseek key")
	}
}

func testGateway(t *testing.T, upstream string, timeout time.Duration) *Gateway {
	t.Helper()
	cfg := ProviderConfig{APIKey: "test-key", BaseURL: upstream, Model: "test-model", Timeout: timeout}
	g, err := New(cfg, cfg)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	return g
}

func TestCompleteReturnsTrimmedChoice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "  Hello there!  "}, "finish_reason": "stop"}]
		}`))
	}))
	defer srv.Close()

	g := testGateway(t, srv.URL, 5*time.Second)
	got := g.Complete(context.Background(), "hi", "chatgpt")
	if got != "Hello there!" {
		t.Fatalf("Complete = %q, want trimmed choice", got)
	}
}

func TestCompleteTimeoutYieldsApology(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	g := testGateway(t, srv.URL, 50*time.Millisecond)
	got := g.Complete(context.Background(), "hi", "deepseek")
	if !strings.Contains(got, "DeepSeek API timeout") {
		t.Fatalf("expected timeout apology naming the provider, got %q", got)
	}
}

func TestCompleteUpstreamErrorIncludesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error": {"message": "insufficient balance"}}`))
	}))
	defer srv.Close()

	g := testGateway(t, srv.URL, 5*time.Second)
	got := g.Complete(context.Background(), "hi", "chatgpt")
	if !strings.Contains(got, "ChatGPT API error") {
		t.Fatalf("expected normalized error string, got %q", got)
	}
	if !strings.Contains(got, "insufficient balance") {
		t.Fatalf("expected upstream error body in reply, got %q", got)
	}
}

func TestCompleteUnknownBackendFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "cmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "ok"}, "finish_reason": "stop"}]
		}`))
	}))
	defer srv.Close()

	g := testGateway(t, srv.URL, 5*time.Second)
	if got := g.Complete(context.Background(), "hi", "no-such-model"); got != "ok" {
		t.Fatalf("unknown backend should fall back to the default provider, got %q", got)
	}
}
