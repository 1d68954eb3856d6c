package ponder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/zoobzio/zyn"
)

// DefaultOpenAIBaseURL is the endpoint used when no base URL is configured.
// Any OpenAI-compatible server (vLLM, Ollama, llama.cpp) can stand in.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAI embedding models and their dimensions.
const (
	ModelTextEmbedding3Small = "text-embedding-3-small"
	ModelTextEmbedding3Large = "text-embedding-3-large"
	DimensionsEmbedding3S    = 1536
	DimensionsEmbedding3L    = 3072
)

// openAIClient holds what the provider and the embedder share.
type openAIClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (c *openAIClient) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var envelope struct {
		Error *apiError `json:"error,omitempty"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Error != nil {
		return fmt.Errorf("api error (%d): %s", resp.StatusCode, envelope.Error.Message)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("api error: status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// OpenAIOption configures OpenAIProvider and OpenAIEmbedder.
type OpenAIOption func(*openAIClient)

// WithBaseURL sets a custom base URL.
func WithBaseURL(url string) OpenAIOption {
	return func(c *openAIClient) { c.baseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) OpenAIOption {
	return func(c *openAIClient) { c.client = client }
}

func newOpenAIClient(apiKey string, opts []OpenAIOption) openAIClient {
	c := openAIClient{
		apiKey:  apiKey,
		baseURL: DefaultOpenAIBaseURL,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// OpenAIProvider implements Provider against the chat completions API.
type OpenAIProvider struct {
	openAIClient
	model string
}

// NewOpenAIProvider creates a chat provider for model.
func NewOpenAIProvider(apiKey, model string, opts ...OpenAIOption) *OpenAIProvider {
	return &OpenAIProvider{openAIClient: newOpenAIClient(apiKey, opts), model: model}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Call implements Provider.
func (p *OpenAIProvider) Call(ctx context.Context, messages []zyn.Message, temperature float32) (*zyn.ProviderResponse, error) {
	req := chatRequest{
		Model:       p.model,
		Messages:    make([]chatMessage, len(messages)),
		Temperature: temperature,
	}
	for i, m := range messages {
		req.Messages[i] = chatMessage{Role: m.Role, Content: m.Content}
	}

	var resp chatResponse
	if err := p.post(ctx, "/chat/completions", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned")
	}

	return &zyn.ProviderResponse{
		Content: resp.Choices[0].Message.Content,
		Usage: zyn.TokenUsage{
			Prompt:     resp.Usage.PromptTokens,
			Completion: resp.Usage.CompletionTokens,
			Total:      resp.Usage.TotalTokens,
		},
	}, nil
}

// Name implements Provider.
func (p *OpenAIProvider) Name() string {
	return "openai:" + p.model
}

var _ Provider = (*OpenAIProvider)(nil)

// OpenAIEmbedder implements Embedder against the embeddings API.
type OpenAIEmbedder struct {
	openAIClient
	model      string
	dimensions int
}

// NewOpenAIEmbedder creates an embedder using text-embedding-3-small, whose
// dimensions match the passages table.
func NewOpenAIEmbedder(apiKey string, opts ...OpenAIOption) *OpenAIEmbedder {
	return &OpenAIEmbedder{
		openAIClient: newOpenAIClient(apiKey, opts),
		model:        ModelTextEmbedding3Small,
		dimensions:   DimensionsEmbedding3S,
	}
}

// WithModel switches the embedding model.
func (e *OpenAIEmbedder) WithModel(model string, dimensions int) *OpenAIEmbedder {
	e.model = model
	e.dimensions = dimensions
	return e
}

type embeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed implements Embedder.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp embeddingResponse
	if err := e.post(ctx, "/embeddings", embeddingRequest{Input: text, Model: e.model}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Data[0].Embedding, nil
}

// Dimensions implements Embedder.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

var _ Embedder = (*OpenAIEmbedder)(nil)
