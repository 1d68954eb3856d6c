package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/ponder"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestReadChunks_Stdin(t *testing.T) {
	in := "first chunk\nstill first\n\n\n second chunk \r\n\r\nthird"

	got, err := readChunks(strings.NewReader(in), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"first chunk\nstill first", "second chunk", "third"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("chunks mismatch (-want +got):\n%s", diff)
	}
}

func TestReadChunks_Files(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	empty := filepath.Join(dir, "empty.txt")
	for path, content := range map[string]string{a: "alpha\n\nstill alpha\n", b: "beta", empty: "  \n"} {
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}

	got, err := readChunks(strings.NewReader("ignored"), []string{a, empty, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"alpha\n\nstill alpha", "beta"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("chunks mismatch (-want +got):\n%s", diff)
	}

	if _, err := readChunks(nil, []string{filepath.Join(dir, "missing.txt")}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"run", "reduce", "peek"} {
		if !names[want] {
			t.Errorf("expected %s subcommand", want)
		}
	}
	if reduceCmd.Flags().Lookup("task") == nil {
		t.Error("expected --task flag on reduce")
	}
	if runCmd.Flags().Lookup("session") == nil {
		t.Error("expected --session flag on run")
	}
}

func TestAgentOptions_SessionRequiresDatabase(t *testing.T) {
	logger = zap.NewNop()
	runSession = "s1"
	defer func() { runSession = "" }()

	c := DefaultConfig()
	c.Database.URL = ""
	if _, _, err := agentOptions(c); err == nil {
		t.Error("expected error for session without database")
	}
}

func TestAgentOptions_WithoutDatabase(t *testing.T) {
	logger = zap.NewNop()

	c := DefaultConfig()
	c.Database.URL = ""
	opts, db, err := agentOptions(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db != nil {
		t.Error("expected no database")
	}
	agent := ponder.NewAgent(opts...)
	if agent.MaxSteps() != c.Agent.MaxSteps {
		t.Errorf("expected %d steps, got %d", c.Agent.MaxSteps, agent.MaxSteps())
	}
}

func TestPeekLenientWithoutDatabase(t *testing.T) {
	logger = zap.NewNop()
	cfg = DefaultConfig()
	cfg.Database.URL = ""
	defer func() {
		cfg = nil
		peekLenient = false
	}()

	var out bytes.Buffer
	peekCmd.SetOut(&out)
	defer peekCmd.SetOut(nil)

	peekLenient = false
	if err := runPeek(peekCmd, []string{"what is X"}); err == nil {
		t.Fatal("expected error without database")
	}
	if out.Len() != 0 {
		t.Errorf("expected no output on strict failure, got %q", out.String())
	}

	peekLenient = true
	if err := runPeek(peekCmd, []string{"what is X"}); err != nil {
		t.Fatalf("unexpected error in lenient mode: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != "[]" {
		t.Errorf("expected empty JSON list, got %q", got)
	}
}

func TestBridgeSignals(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	detach := bridgeSignals(zap.New(core))
	defer detach()

	capitan.Emit(context.Background(), ponder.RunStarted,
		ponder.FieldRunID.Field("bridge-run"),
		ponder.FieldQuery.Field("what is X"),
		ponder.FieldMaxSteps.Field(10),
	)

	deadline := time.Now().Add(time.Second)
	for {
		entries := logs.FilterMessage("run started").FilterField(zap.String("run_id", "bridge-run")).All()
		if len(entries) > 0 {
			if entries[0].Level != zapcore.InfoLevel {
				t.Errorf("expected info level, got %s", entries[0].Level)
			}
			fields := entries[0].ContextMap()
			if fields["query"] != "what is X" {
				t.Errorf("expected query field, got %v", fields["query"])
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("expected bridged log entry")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
