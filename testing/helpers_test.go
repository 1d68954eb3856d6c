package pondertest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zoobzio/ponder"
)

func TestScriptedProvider(t *testing.T) {
	p := NewScriptedProvider("one", "two")
	ctx := context.Background()

	for _, want := range []string{"one", "two", "two"} {
		resp, err := p.Call(ctx, nil, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.Content != want {
			t.Errorf("expected %q, got %q", want, resp.Content)
		}
	}
	if p.CallCount() != 3 {
		t.Errorf("expected 3 calls, got %d", p.CallCount())
	}

	if _, err := NewScriptedProvider().Call(ctx, nil, 0); err == nil {
		t.Error("expected error without replies")
	}
}

func TestStaticRetrieval(t *testing.T) {
	svc := &StaticRetrieval{Passages: []string{"a", "b", "c"}}

	records, err := svc.Query(context.Background(), "q", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if text, _ := records[1].Text(); text != "b" {
		t.Errorf("expected b, got %q", text)
	}

	svc.Err = errors.New("offline")
	if _, err := svc.Query(context.Background(), "q", 2); err == nil {
		t.Error("expected configured error")
	}
	if len(svc.Queries()) != 2 {
		t.Errorf("expected 2 recorded queries, got %d", len(svc.Queries()))
	}
}

func TestMockSessionMemory(t *testing.T) {
	mem := NewMockSessionMemory()
	ctx := context.Background()

	store, err := mem.Load(ctx, "unknown")
	if err != nil || store.Len() != 0 {
		t.Fatalf("expected empty store for unknown session, got %d entries (%v)", store.Len(), err)
	}

	store.SetText("k", "v")
	if err := mem.Save(ctx, "s", store); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store.SetText("k", "changed after save")

	loaded, _ := mem.Load(ctx, "s")
	RequireText(t, loaded, "k", "v")

	_ = mem.Delete(ctx, "s")
	loaded, _ = mem.Load(ctx, "s")
	RequireAbsent(t, loaded, "k")
}

func TestNewTestAgent(t *testing.T) {
	agent, provider := NewTestAgent(t, []string{"X is Y"}, `PEEK("what is X")`, `SET("status", "found")`, `ANSWER("It is Y")`)

	res, err := agent.Run(context.Background(), "find X")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Answer != "It is Y" {
		t.Errorf("expected It is Y, got %q", res.Answer)
	}
	RequireText(t, res.Context, "status", "found")
	RequireList(t, res.Context, "peek_step_1", "X is Y")

	if provider.CallCount() != 3 {
		t.Errorf("expected 3 calls, got %d", provider.CallCount())
	}
	if !strings.Contains(provider.Prompt(2), "status: found") {
		t.Error("expected memory in the last prompt")
	}
}

func TestNewTestAgentSession(t *testing.T) {
	provider := NewScriptedProvider(`SET("a", "1")`, `ANSWER("done")`)
	mem := NewMockSessionMemory()
	agent := ponder.NewAgent(
		ponder.WithController(ponder.NewProviderModel(provider, 0)),
		ponder.WithSessionMemory(mem),
	)

	if _, err := agent.RunSession(context.Background(), "s1", "q"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	loaded, _ := mem.Load(context.Background(), "s1")
	RequireText(t, loaded, "a", "1")
}
