package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kirillkom/personal-ai-assistant/internal/infrastructure/resilience"
)

func newTestCompleter(t *testing.T, handler http.HandlerFunc) (*Completer, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	client := New(srv.URL, "test-model", "test-embed")
	cfg := resilience.DefaultConfig()
	cfg.RetryMaxAttempts = 1
	cfg.BreakerEnabled = false
	completer := NewCompleter(client, resilience.NewExecutor(cfg))
	return completer, srv
}

func TestCompleter_Complete_PromptReachesServer(t *testing.T) {
	var receivedPrompt string
	completer, srv := newTestCompleter(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		receivedPrompt, _ = body["prompt"].(string)
		_ = json.NewEncoder(w).Encode(map[string]string{"response": "Rim je predivan grad."})
	})
	defer srv.Close()

	out, err := completer.Complete(context.Background(), "Reci mi nešto o Rimu")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !strings.Contains(receivedPrompt, "Rimu") {
		t.Errorf("expected prompt to reach server, got %q", receivedPrompt)
	}
	if out != "Rim je predivan grad." {
		t.Errorf("unexpected response: %q", out)
	}
}

func TestCompleter_Complete_HTTPErrorIncludesBody(t *testing.T) {
	completer, srv := newTestCompleter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("model not loaded"))
	})
	defer srv.Close()

	_, err := completer.Complete(context.Background(), "pitanje")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "model not loaded") {
		t.Errorf("expected error to include response body, got %v", err)
	}
}

func TestEmbedder_EmbedQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"embeddings": [][]float32{{0.1, 0.2, 0.3}},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, "gen", "embed")
	cfg := resilience.DefaultConfig()
	cfg.BreakerEnabled = false
	embedder := NewEmbedder(client, resilience.NewExecutor(cfg))

	vec, err := embedder.EmbedQuery(context.Background(), "Rim")
	if err != nil {
		t.Fatalf("EmbedQuery: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("expected 3-dim vector, got %d", len(vec))
	}
}
