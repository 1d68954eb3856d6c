package ponder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zoobzio/zyn"
)

func TestOpenAIProviderCall(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "PEEK(\"x\")"}}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
		}`))
	}))
	defer server.Close()

	p := NewOpenAIProvider("sk-test", "gpt-test", WithBaseURL(server.URL))
	resp, err := p.Call(context.Background(), []zyn.Message{
		{Role: "system", Content: "rules"},
		{Role: "user", Content: "query"},
	}, 0.2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Content != `PEEK("x")` {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if resp.Usage.Prompt != 12 || resp.Usage.Completion != 3 || resp.Usage.Total != 15 {
		t.Errorf("unexpected usage %+v", resp.Usage)
	}
	if got.Model != "gpt-test" || got.Temperature != 0.2 || len(got.Messages) != 2 || got.Messages[1].Content != "query" {
		t.Errorf("unexpected request %+v", got)
	}
	if p.Name() != "openai:gpt-test" {
		t.Errorf("unexpected name %q", p.Name())
	}
}

func TestOpenAIProviderAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "slow down", "type": "rate_limit"}}`))
	}))
	defer server.Close()

	_, err := NewOpenAIProvider("k", "m", WithBaseURL(server.URL)).Call(context.Background(), nil, 0)
	if err == nil || !strings.Contains(err.Error(), "slow down") {
		t.Errorf("expected api error message, got %v", err)
	}
}

func TestOpenAIProviderStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewOpenAIProvider("k", "m", WithBaseURL(server.URL)).Call(context.Background(), nil, 0)
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("expected status error, got %v", err)
	}
}

func TestOpenAIProviderNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	if _, err := NewOpenAIProvider("k", "m", WithBaseURL(server.URL)).Call(context.Background(), nil, 0); err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestOpenAIProviderDrivesAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "ANSWER(\"from server\")"}}]}`))
	}))
	defer server.Close()

	agent := NewAgent(WithController(NewProviderModel(NewOpenAIProvider("k", "m", WithBaseURL(server.URL)), 0)))
	res, err := agent.Run(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Answer != "from server" {
		t.Errorf("unexpected answer %q", res.Answer)
	}
}

func TestOpenAIEmbedderEmbed(t *testing.T) {
	var got embeddingRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"data": [{"embedding": [0.1, 0.2, 0.3], "index": 0}]}`))
	}))
	defer server.Close()

	e := NewOpenAIEmbedder("k", WithBaseURL(server.URL))
	v, err := e.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v) != 3 || v[2] != 0.3 {
		t.Errorf("unexpected embedding %v", v)
	}
	if got.Input != "hello" || got.Model != ModelTextEmbedding3Small {
		t.Errorf("unexpected request %+v", got)
	}
}

func TestOpenAIEmbedderNoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	if _, err := NewOpenAIEmbedder("k", WithBaseURL(server.URL)).Embed(context.Background(), "x"); err == nil {
		t.Error("expected error for empty data")
	}
}

func TestOpenAIEmbedderConfiguration(t *testing.T) {
	e := NewOpenAIEmbedder("k")
	if e.Dimensions() != DimensionsEmbedding3S {
		t.Errorf("expected %d dimensions, got %d", DimensionsEmbedding3S, e.Dimensions())
	}
	if e.baseURL != DefaultOpenAIBaseURL {
		t.Errorf("expected default base url, got %q", e.baseURL)
	}

	e.WithModel(ModelTextEmbedding3Large, DimensionsEmbedding3L)
	if e.Dimensions() != DimensionsEmbedding3L || e.model != ModelTextEmbedding3Large {
		t.Error("expected large model configuration")
	}

	client := &http.Client{}
	if NewOpenAIProvider("k", "m", WithHTTPClient(client)).client != client {
		t.Error("expected custom http client")
	}
}
