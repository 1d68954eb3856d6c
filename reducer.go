package ponder

import (
	"context"
	"fmt"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/zyn"
	"golang.org/x/sync/errgroup"
)

// Reducer compresses a set of passages with a two-phase map-reduce: each
// chunk is summarized concurrently, then one synthesis call combines the
// summaries in their original order.
type Reducer struct {
	model       LanguageModel
	concurrency int
}

// ReduceOption configures a Reducer.
type ReduceOption func(*Reducer)

// WithReaderModel sets the model used for both phases. Without it the
// provider is resolved from the context or the global default.
func WithReaderModel(m LanguageModel) ReduceOption {
	return func(r *Reducer) { r.model = m }
}

// WithConcurrency caps the number of map-phase calls in flight. Zero or less
// means one goroutine per chunk.
func WithConcurrency(n int) ReduceOption {
	return func(r *Reducer) { r.concurrency = n }
}

// NewReducer creates a Reducer.
func NewReducer(opts ...ReduceOption) *Reducer {
	r := &Reducer{}
	for _, opt := range opts {
		opt(r)
	}
	r.model = resolveModel(r.model, DefaultReaderTemperature)
	return r
}

// Reduction is the full outcome of a Reduce call.
type Reduction struct {
	Task      string
	Summaries []string // index-aligned with the input chunks
	Synthesis string
	Failed    []int // chunk indexes whose map call failed
	Usage     zyn.TokenUsage
}

// Reduce returns the synthesized summary of chunks for task. An empty chunk
// list returns "" without calling the model.
func (r *Reducer) Reduce(ctx context.Context, task string, chunks []string) (string, error) {
	res, err := r.ReduceDetailed(ctx, task, chunks)
	if err != nil {
		return "", err
	}
	return res.Synthesis, nil
}

// ReduceDetailed is Reduce with the intermediate summaries exposed.
//
// A failed map call is reported through ChunkFailed and leaves its slot
// empty; the synthesis still runs. A failed synthesis call is returned.
func (r *Reducer) ReduceDetailed(ctx context.Context, task string, chunks []string) (*Reduction, error) {
	res := &Reduction{Task: task, Summaries: make([]string, len(chunks))}
	if len(chunks) == 0 {
		return res, nil
	}

	start := time.Now()
	capitan.Emit(ctx, ReduceStarted,
		FieldTask.Field(task),
		FieldChunkCount.Field(len(chunks)),
	)

	// Map phase. Each goroutine owns exactly one slot of each slice, so no
	// further synchronization is needed; Wait is the join barrier.
	usages := make([]zyn.TokenUsage, len(chunks))
	failed := make([]bool, len(chunks))

	var g errgroup.Group
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i, chunk := range chunks {
		g.Go(func() error {
			chunkFailed := func(err error) {
				failed[i] = true
				res.Summaries[i] = ""
				capitan.Error(ctx, ChunkFailed,
					FieldTask.Field(task),
					FieldChunkIndex.Field(i),
					FieldError.Field(err),
				)
			}
			// A model panic fails the chunk like an error does.
			defer func() {
				if rec := recover(); rec != nil {
					chunkFailed(fmt.Errorf("panic: %v", rec))
				}
			}()

			out, err := r.model.Complete(ctx, buildMapPrompt(task, chunk))
			if err != nil {
				chunkFailed(err)
				return nil
			}
			res.Summaries[i] = out.Text
			usages[i] = out.Usage
			return nil
		})
	}
	_ = g.Wait()

	for i := range chunks {
		res.Usage = addUsage(res.Usage, usages[i])
		if failed[i] {
			res.Failed = append(res.Failed, i)
		}
	}

	// Reduce phase.
	out, err := r.model.Complete(ctx, buildSynthesisPrompt(task, res.Summaries))
	if err != nil {
		capitan.Error(ctx, ReduceCompleted,
			FieldTask.Field(task),
			FieldChunkCount.Field(len(chunks)),
			FieldDuration.Field(time.Since(start)),
			FieldError.Field(err),
		)
		return nil, fmt.Errorf("reduce: synthesis failed: %w", err)
	}
	res.Synthesis = out.Text
	res.Usage = addUsage(res.Usage, out.Usage)

	capitan.Emit(ctx, ReduceCompleted,
		FieldTask.Field(task),
		FieldChunkCount.Field(len(chunks)),
		FieldContentSize.Field(len(res.Synthesis)),
		FieldDuration.Field(time.Since(start)),
	)

	return res, nil
}
