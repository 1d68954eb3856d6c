package ponder

import (
	"context"
	"fmt"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
)

// Preparation steps run over a ContextStore before the controller loop
// starts. They let a caller seed working memory (retrieved passages,
// compressed documents, fixed facts) so the controller starts warm.

// PeekStep retrieves passages for a fixed query and stores them under key.
type PeekStep struct {
	identity  pipz.Identity
	key       string
	query     string
	retriever *Retriever
}

// NewPeekStep creates a preparation step that stores the retrieved texts of
// query under key.
func NewPeekStep(key, query string, retriever *Retriever) *PeekStep {
	return &PeekStep{
		identity:  pipz.NewIdentity(key, "Seeds working memory with retrieved passages"),
		key:       key,
		query:     query,
		retriever: retriever,
	}
}

// Process implements pipz.Chainable[*ContextStore].
func (s *PeekStep) Process(ctx context.Context, store *ContextStore) (*ContextStore, error) {
	if s.retriever == nil {
		return store, fmt.Errorf("peek step %q: no retriever", s.key)
	}
	texts, err := s.retriever.Peek(ctx, s.query)
	if err != nil {
		return store, fmt.Errorf("peek step %q: %w", s.key, err)
	}
	store.Set(s.key, List(texts))
	emitPrepared(ctx, s.key, "peek", store)
	return store, nil
}

// Identity implements pipz.Chainable[*ContextStore].
func (s *PeekStep) Identity() pipz.Identity {
	return s.identity
}

// Schema implements pipz.Chainable[*ContextStore].
func (s *PeekStep) Schema() pipz.Node {
	return pipz.Node{Identity: s.identity, Type: "peek"}
}

// Close implements pipz.Chainable[*ContextStore].
func (s *PeekStep) Close() error {
	return nil
}

// CompressStep reduces a set of chunks to one summary stored under key.
// Chunks are produced lazily so large documents load only when the step runs.
type CompressStep struct {
	identity pipz.Identity
	key      string
	task     string
	chunks   func(context.Context) ([]string, error)
	reducer  *Reducer
}

// NewCompressStep creates a step that reduces the output of chunks for task.
// A nil reducer resolves the global provider when the step runs.
func NewCompressStep(key, task string, chunks func(context.Context) ([]string, error), reducer *Reducer) *CompressStep {
	return &CompressStep{
		identity: pipz.NewIdentity(key, "Compresses chunks into a single memory entry"),
		key:      key,
		task:     task,
		chunks:   chunks,
		reducer:  reducer,
	}
}

// StaticChunks adapts a fixed chunk slice for NewCompressStep.
func StaticChunks(chunks ...string) func(context.Context) ([]string, error) {
	return func(context.Context) ([]string, error) {
		return chunks, nil
	}
}

// Process implements pipz.Chainable[*ContextStore].
func (s *CompressStep) Process(ctx context.Context, store *ContextStore) (*ContextStore, error) {
	chunks, err := s.chunks(ctx)
	if err != nil {
		return store, fmt.Errorf("compress step %q: failed to load chunks: %w", s.key, err)
	}
	reducer := s.reducer
	if reducer == nil {
		reducer = NewReducer()
	}
	summary, err := reducer.Reduce(ctx, s.task, chunks)
	if err != nil {
		return store, fmt.Errorf("compress step %q: %w", s.key, err)
	}
	store.SetText(s.key, summary)
	emitPrepared(ctx, s.key, "compress", store)
	return store, nil
}

// Identity implements pipz.Chainable[*ContextStore].
func (s *CompressStep) Identity() pipz.Identity {
	return s.identity
}

// Schema implements pipz.Chainable[*ContextStore].
func (s *CompressStep) Schema() pipz.Node {
	return pipz.Node{Identity: s.identity, Type: "compress"}
}

// Close implements pipz.Chainable[*ContextStore].
func (s *CompressStep) Close() error {
	return nil
}

// SetStep stores a fixed value.
type SetStep struct {
	identity pipz.Identity
	key      string
	value    Value
}

// NewSetStep creates a step that stores value under key.
func NewSetStep(key string, value Value) *SetStep {
	return &SetStep{
		identity: pipz.NewIdentity(key, "Stores a fixed memory entry"),
		key:      key,
		value:    value,
	}
}

// Process implements pipz.Chainable[*ContextStore].
func (s *SetStep) Process(ctx context.Context, store *ContextStore) (*ContextStore, error) {
	store.Set(s.key, s.value)
	emitPrepared(ctx, s.key, "set", store)
	return store, nil
}

// Identity implements pipz.Chainable[*ContextStore].
func (s *SetStep) Identity() pipz.Identity {
	return s.identity
}

// Schema implements pipz.Chainable[*ContextStore].
func (s *SetStep) Schema() pipz.Node {
	return pipz.Node{Identity: s.identity, Type: "set"}
}

// Close implements pipz.Chainable[*ContextStore].
func (s *SetStep) Close() error {
	return nil
}

// Prepare chains preparation steps in order. The first failing step stops
// the chain.
//
// Example:
//
//	prep := ponder.Prepare("warmup",
//	    ponder.NewSetStep("user", ponder.Text("Ada")),
//	    ponder.NewPeekStep("background", "company history", retriever),
//	)
//	agent := ponder.NewAgent(ponder.WithPreparation(prep))
func Prepare(name string, steps ...pipz.Chainable[*ContextStore]) *pipz.Sequence[*ContextStore] {
	return pipz.NewSequence(pipz.NewIdentity(name, "Working memory preparation"), steps...)
}

func emitPrepared(ctx context.Context, key, op string, store *ContextStore) {
	capitan.Emit(ctx, ContextMutated,
		FieldKey.Field(key),
		FieldOperation.Field(op),
		FieldEntryCount.Field(store.Len()),
	)
}

var (
	_ pipz.Chainable[*ContextStore] = (*PeekStep)(nil)
	_ pipz.Chainable[*ContextStore] = (*CompressStep)(nil)
	_ pipz.Chainable[*ContextStore] = (*SetStep)(nil)
)
