package ponder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/zoobzio/zyn"
)

// mockMemory implements SessionMemory for testing without a database.
type mockMemory struct {
	sessions map[string][]Entry
	saves    int
	saveErr  error
	mu       sync.RWMutex
}

func newMockMemory() *mockMemory {
	return &mockMemory{sessions: make(map[string][]Entry)}
}

func (m *mockMemory) Load(_ context.Context, sessionID string) (*ContextStore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	store := NewContextStore()
	for _, e := range m.sessions[sessionID] {
		store.Set(e.Key, e.Value)
	}
	return store, nil
}

func (m *mockMemory) Save(_ context.Context, sessionID string, store *ContextStore) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.sessions[sessionID] = store.Entries()
	return nil
}

func (m *mockMemory) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, sessionID)
	return nil
}

var _ SessionMemory = (*mockMemory)(nil)

// scriptedModel replays a fixed list of replies, one per call. Once the
// script runs out it keeps returning the last reply.
type scriptedModel struct {
	replies []string
	errs    map[int]error // call index (0-based) -> error
	prompts []string
	mu      sync.Mutex
}

func newScriptedModel(replies ...string) *scriptedModel {
	return &scriptedModel{replies: replies, errs: make(map[int]error)}
}

func (m *scriptedModel) failOn(call int, err error) *scriptedModel {
	m.errs[call] = err
	return m
}

func (m *scriptedModel) Complete(_ context.Context, prompt string) (Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.prompts)
	m.prompts = append(m.prompts, prompt)
	if err, ok := m.errs[n]; ok {
		return Completion{}, err
	}
	if len(m.replies) == 0 {
		return Completion{}, errors.New("no scripted replies")
	}
	idx := n
	if idx >= len(m.replies) {
		idx = len(m.replies) - 1
	}
	return Completion{
		Text:  m.replies[idx],
		Usage: zyn.TokenUsage{Prompt: 10, Completion: 5, Total: 15},
	}, nil
}

func (m *scriptedModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

func (m *scriptedModel) prompt(i int) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prompts[i]
}

// staticRetrieval returns fixed passages for every query and records the
// requested result counts.
type staticRetrieval struct {
	passages []string
	err      error
	queries  []string
	counts   []int
	mu       sync.Mutex
}

func (s *staticRetrieval) Query(_ context.Context, text string, resultCount int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.queries = append(s.queries, text)
	s.counts = append(s.counts, resultCount)
	if s.err != nil {
		return nil, s.err
	}
	records := make([]Record, 0, len(s.passages))
	for i, p := range s.passages {
		if i >= resultCount {
			break
		}
		records = append(records, Record{TextField: p, "rank": i + 1})
	}
	return records, nil
}

// readerModel answers map prompts by echoing a summary of the passage and
// synthesis prompts with a fixed reply.
func readerModel(synthesis string) ModelFunc {
	return func(_ context.Context, prompt string) (Completion, error) {
		if strings.Contains(prompt, "--- Summary") {
			return Completion{Text: synthesis}, nil
		}
		_, passage, _ := strings.Cut(prompt, "Passage:\n")
		passage, _, _ = strings.Cut(passage, "\n\n")
		return Completion{Text: fmt.Sprintf("summary of %s", passage)}, nil
	}
}
