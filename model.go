package ponder

import (
	"context"
	"fmt"

	"github.com/zoobzio/zyn"
)

// LanguageModel is a single-shot completion service: one prompt in, one
// response text out, no streaming.
type LanguageModel interface {
	Complete(ctx context.Context, prompt string) (Completion, error)
}

// Completion is the response of a LanguageModel call.
type Completion struct {
	Text  string
	Usage zyn.TokenUsage
}

// ModelFunc adapts a plain function to LanguageModel.
type ModelFunc func(ctx context.Context, prompt string) (Completion, error)

// Complete implements LanguageModel.
func (f ModelFunc) Complete(ctx context.Context, prompt string) (Completion, error) {
	return f(ctx, prompt)
}

// ProviderModel drives a Provider as a LanguageModel. Each prompt is sent as
// a single user message, optionally preceded by a system message.
type ProviderModel struct {
	provider    Provider
	temperature float32
	system      string
}

// NewProviderModel wraps p. A nil p is resolved from the context or the
// global provider on every call.
func NewProviderModel(p Provider, temperature float32) *ProviderModel {
	return &ProviderModel{provider: p, temperature: temperature}
}

// WithSystemPrompt sets a system message sent ahead of every prompt.
func (m *ProviderModel) WithSystemPrompt(system string) *ProviderModel {
	m.system = system
	return m
}

// Complete implements LanguageModel.
func (m *ProviderModel) Complete(ctx context.Context, prompt string) (Completion, error) {
	provider, err := ResolveProvider(ctx, m.provider)
	if err != nil {
		return Completion{}, err
	}

	messages := make([]zyn.Message, 0, 2)
	if m.system != "" {
		messages = append(messages, zyn.Message{Role: "system", Content: m.system})
	}
	messages = append(messages, zyn.Message{Role: "user", Content: prompt})

	resp, err := provider.Call(ctx, messages, m.temperature)
	if err != nil {
		return Completion{}, fmt.Errorf("%s: %w", provider.Name(), err)
	}
	if resp == nil {
		return Completion{}, fmt.Errorf("%s: empty response", provider.Name())
	}
	return Completion{Text: resp.Content, Usage: resp.Usage}, nil
}

var _ LanguageModel = (*ProviderModel)(nil)

// resolveModel returns explicit when set, otherwise a ProviderModel that
// resolves its provider per call.
func resolveModel(explicit LanguageModel, temperature float32) LanguageModel {
	if explicit != nil {
		return explicit
	}
	return NewProviderModel(nil, temperature)
}

// addUsage sums two token usage records.
func addUsage(a, b zyn.TokenUsage) zyn.TokenUsage {
	return zyn.TokenUsage{
		Prompt:     a.Prompt + b.Prompt,
		Completion: a.Completion + b.Completion,
		Total:      a.Total + b.Total,
	}
}
