package ponder

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestContextStoreSetGet(t *testing.T) {
	store := NewContextStore()
	store.SetText("status", "found")
	store.Set("peek_step_1", List([]string{"X is Y"}))

	v, ok := store.Get("status")
	if !ok {
		t.Fatal("expected status to be present")
	}
	if v.IsList() || v.Text() != "found" {
		t.Errorf("expected text 'found', got %v", v)
	}

	v, ok = store.Get("peek_step_1")
	if !ok {
		t.Fatal("expected peek_step_1 to be present")
	}
	if !v.IsList() {
		t.Fatal("expected list value")
	}
	if diff := cmp.Diff([]string{"X is Y"}, v.Items()); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}

	if _, ok := store.Get("missing"); ok {
		t.Error("expected missing key to be absent")
	}
}

func TestContextStoreInsertionOrder(t *testing.T) {
	store := NewContextStore()
	store.SetText("c", "1")
	store.SetText("a", "2")
	store.SetText("b", "3")

	// Overwriting keeps the original position.
	store.SetText("c", "4")

	if diff := cmp.Diff([]string{"c", "a", "b"}, store.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	// Deleting then re-adding moves the key to the end.
	store.Delete("a")
	store.SetText("a", "5")
	if diff := cmp.Diff([]string{"c", "b", "a"}, store.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestContextStoreDeleteIdempotent(t *testing.T) {
	store := NewContextStore()
	store.SetText("k", "v")

	store.Delete("k")
	store.Delete("k")
	store.Delete("never-set")

	if store.Has("k") {
		t.Error("expected k to be deleted")
	}
	if store.Len() != 0 {
		t.Errorf("expected empty store, got %d entries", store.Len())
	}
}

func TestContextStoreSnapshot(t *testing.T) {
	store := NewContextStore()
	if got := store.Snapshot(); got != "" {
		t.Errorf("expected empty snapshot, got %q", got)
	}

	store.Set("peek_step_1", List([]string{"X is Y", `quote "q"`}))
	store.SetText("status", "found")

	want := "peek_step_1: [\"X is Y\",\"quote \\\"q\\\"\"]\nstatus: found"
	if got := store.Snapshot(); got != want {
		t.Errorf("snapshot mismatch\nwant: %q\ngot:  %q", want, got)
	}
}

func TestContextStoreSnapshotDeterministic(t *testing.T) {
	build := func() *ContextStore {
		s := NewContextStore()
		s.SetText("one", "1")
		s.Set("two", List([]string{"a", "b"}))
		s.SetText("three", "3")
		s.Delete("one")
		s.SetText("one", "again")
		return s
	}

	if build().Snapshot() != build().Snapshot() {
		t.Error("same mutation sequence rendered differently")
	}
}

func TestContextStoreEmptyList(t *testing.T) {
	store := NewContextStore()
	store.Set("peek_step_1", List(nil))

	if got := store.Snapshot(); got != "peek_step_1: []" {
		t.Errorf("unexpected snapshot %q", got)
	}
}

func TestContextStoreClone(t *testing.T) {
	store := NewContextStore()
	store.SetText("a", "1")
	store.SetText("b", "2")

	clone := store.Clone()
	clone.SetText("c", "3")
	clone.Delete("a")

	if !store.Has("a") || store.Has("c") {
		t.Error("mutating the clone changed the original")
	}
	if diff := cmp.Diff([]string{"b", "c"}, clone.Keys()); diff != "" {
		t.Errorf("clone keys mismatch (-want +got):\n%s", diff)
	}
}

func TestContextStoreClear(t *testing.T) {
	store := NewContextStore()
	store.SetText("a", "1")
	store.Clear()

	if store.Len() != 0 || store.Snapshot() != "" {
		t.Error("expected cleared store to be empty")
	}
	store.SetText("b", "2")
	if diff := cmp.Diff([]string{"b"}, store.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestListCopiesInput(t *testing.T) {
	items := []string{"a", "b"}
	v := List(items)
	items[0] = "changed"

	if v.Items()[0] != "a" {
		t.Error("List should copy its input")
	}

	out := v.Items()
	out[1] = "changed"
	if v.Items()[1] != "b" {
		t.Error("Items should return a copy")
	}
}

func TestValueJSON(t *testing.T) {
	for _, v := range []Value{Text("plain"), List([]string{"x", "y"}), List(nil)} {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal %v: %v", v, err)
		}
		var got Value
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if !got.Equal(v) {
			t.Errorf("expected %v, got %v", v, got)
		}
	}

	var bad Value
	if err := json.Unmarshal([]byte(`{"not": "a value"}`), &bad); err == nil {
		t.Error("expected error for object input")
	}
}

func TestValueEqual(t *testing.T) {
	if Text("a").Equal(List([]string{"a"})) {
		t.Error("text and list should differ")
	}
	if !List([]string{"a", "b"}).Equal(List([]string{"a", "b"})) {
		t.Error("equal lists should be equal")
	}
	if List([]string{"a"}).Equal(List([]string{"b"})) {
		t.Error("different lists should differ")
	}
}

func TestContextStoreConcurrentAccess(t *testing.T) {
	store := NewContextStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", n)
			store.SetText(key, "v")
			_ = store.Snapshot()
			if n%2 == 0 {
				store.Delete(key)
			}
		}(i)
	}
	wg.Wait()

	if store.Len() != 10 {
		t.Errorf("expected 10 entries, got %d", store.Len())
	}
}
