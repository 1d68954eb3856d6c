// Package pondertest provides test utilities for ponder.
package pondertest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/zoobzio/ponder"
	"github.com/zoobzio/zyn"
)

// ScriptedProvider implements ponder.Provider by replaying fixed replies in
// order. After the script runs out the last reply repeats.
type ScriptedProvider struct {
	replies []string
	calls   [][]zyn.Message
	mu      sync.Mutex
}

// NewScriptedProvider creates a provider that answers with replies in order.
func NewScriptedProvider(replies ...string) *ScriptedProvider {
	return &ScriptedProvider{replies: replies}
}

// Call implements ponder.Provider.
func (p *ScriptedProvider) Call(_ context.Context, messages []zyn.Message, _ float32) (*zyn.ProviderResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.replies) == 0 {
		return nil, errors.New("scripted provider has no replies")
	}
	idx := len(p.calls)
	if idx >= len(p.replies) {
		idx = len(p.replies) - 1
	}
	p.calls = append(p.calls, messages)
	return &zyn.ProviderResponse{
		Content: p.replies[idx],
		Usage:   zyn.TokenUsage{Prompt: 10, Completion: 5, Total: 15},
	}, nil
}

// Name implements ponder.Provider.
func (p *ScriptedProvider) Name() string {
	return "scripted"
}

// CallCount returns the number of calls made so far.
func (p *ScriptedProvider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// Prompt returns the user message of the i-th call.
func (p *ScriptedProvider) Prompt(i int) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	msgs := p.calls[i]
	return msgs[len(msgs)-1].Content
}

var _ ponder.Provider = (*ScriptedProvider)(nil)

// StaticRetrieval implements ponder.RetrievalService with a fixed passage
// list. It honors the requested result count.
type StaticRetrieval struct {
	Passages []string
	Err      error
	queries  []string
	mu       sync.Mutex
}

// Query implements ponder.RetrievalService.
func (s *StaticRetrieval) Query(_ context.Context, text string, resultCount int) ([]ponder.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queries = append(s.queries, text)
	if s.Err != nil {
		return nil, s.Err
	}
	n := len(s.Passages)
	if resultCount < n {
		n = resultCount
	}
	records := make([]ponder.Record, n)
	for i := 0; i < n; i++ {
		records[i] = ponder.Record{ponder.TextField: s.Passages[i]}
	}
	return records, nil
}

// Queries returns the queries received so far.
func (s *StaticRetrieval) Queries() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.queries))
	copy(out, s.queries)
	return out
}

var _ ponder.RetrievalService = (*StaticRetrieval)(nil)

// MockSessionMemory implements ponder.SessionMemory in memory.
type MockSessionMemory struct {
	sessions map[string]*ponder.ContextStore
	mu       sync.RWMutex
}

// NewMockSessionMemory creates an empty session memory.
func NewMockSessionMemory() *MockSessionMemory {
	return &MockSessionMemory{sessions: make(map[string]*ponder.ContextStore)}
}

// Load implements ponder.SessionMemory.
func (m *MockSessionMemory) Load(_ context.Context, sessionID string) (*ponder.ContextStore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if store, ok := m.sessions[sessionID]; ok {
		return store.Clone(), nil
	}
	return ponder.NewContextStore(), nil
}

// Save implements ponder.SessionMemory.
func (m *MockSessionMemory) Save(_ context.Context, sessionID string, store *ponder.ContextStore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = store.Clone()
	return nil
}

// Delete implements ponder.SessionMemory.
func (m *MockSessionMemory) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
	return nil
}

var _ ponder.SessionMemory = (*MockSessionMemory)(nil)

// NewTestAgent creates an agent whose controller replays replies and whose
// PEEK is served by passages.
func NewTestAgent(t *testing.T, passages []string, replies ...string) (*ponder.Agent, *ScriptedProvider) {
	t.Helper()
	provider := NewScriptedProvider(replies...)
	agent := ponder.NewAgent(
		ponder.WithController(ponder.NewProviderModel(provider, ponder.DefaultControllerTemperature)),
		ponder.WithRetrieval(&StaticRetrieval{Passages: passages}),
	)
	return agent, provider
}

// RequireText asserts that store holds the text value expected at key.
func RequireText(t *testing.T, store *ponder.ContextStore, key, expected string) {
	t.Helper()
	v, ok := store.Get(key)
	if !ok {
		t.Fatalf("expected value at key %q", key)
	}
	if v.IsList() || v.Text() != expected {
		t.Fatalf("expected text %q at key %q, got %q", expected, key, v.String())
	}
}

// RequireList asserts that store holds the list value expected at key.
func RequireList(t *testing.T, store *ponder.ContextStore, key string, expected ...string) {
	t.Helper()
	v, ok := store.Get(key)
	if !ok {
		t.Fatalf("expected value at key %q", key)
	}
	if !v.Equal(ponder.List(expected)) {
		t.Fatalf("expected list %q at key %q, got %s", expected, key, v.String())
	}
}

// RequireAbsent asserts that key is not in store.
func RequireAbsent(t *testing.T, store *ponder.ContextStore, key string) {
	t.Helper()
	if store.Has(key) {
		t.Fatalf("expected no value at key %q", key)
	}
}
