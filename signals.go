package ponder

import "github.com/zoobzio/capitan"

// Signal definitions for agent, retrieval and reduction events.
// Signals follow the pattern: ponder.<entity>.<event>.
var (
	// Run lifecycle signals.
	RunStarted = capitan.NewSignal(
		"ponder.run.started",
		"Agent run began for a user query",
	)
	RunCompleted = capitan.NewSignal(
		"ponder.run.completed",
		"Agent run ended with an answer",
	)
	RunExhausted = capitan.NewSignal(
		"ponder.run.exhausted",
		"Agent run reached its step budget without an answer",
	)
	RunFailed = capitan.NewSignal(
		"ponder.run.failed",
		"Agent run escalated after repeated step failures or cancellation",
	)

	// Step signals.
	StepStarted = capitan.NewSignal(
		"ponder.step.started",
		"Reasoning step began",
	)
	StepCompleted = capitan.NewSignal(
		"ponder.step.completed",
		"Reasoning step dispatched a command",
	)
	StepFailed = capitan.NewSignal(
		"ponder.step.failed",
		"Reasoning step was aborted",
	)
	CommandRejected = capitan.NewSignal(
		"ponder.command.rejected",
		"Controller output held no usable command; step skipped",
	)

	// Working memory signals.
	ContextMutated = capitan.NewSignal(
		"ponder.context.mutated",
		"Working memory entry set or deleted",
	)

	// Retrieval signals.
	PeekCompleted = capitan.NewSignal(
		"ponder.peek.completed",
		"Retrieval returned passages",
	)
	RecordDropped = capitan.NewSignal(
		"ponder.peek.record_dropped",
		"Retrieval record without text was dropped",
	)

	// Reduction signals.
	ReduceStarted = capitan.NewSignal(
		"ponder.reduce.started",
		"Map phase launched over chunks",
	)
	ChunkFailed = capitan.NewSignal(
		"ponder.reduce.chunk_failed",
		"Per-chunk summarization failed; slot left empty",
	)
	ReduceCompleted = capitan.NewSignal(
		"ponder.reduce.completed",
		"Synthesis produced the final summary",
	)

	// Session persistence signals.
	SessionSaved = capitan.NewSignal(
		"ponder.session.saved",
		"Working memory persisted for a session",
	)
	SessionLoaded = capitan.NewSignal(
		"ponder.session.loaded",
		"Working memory restored for a session",
	)
)

// Field keys for event data.
var (
	// Run metadata.
	FieldQuery     = capitan.NewStringKey("query")
	FieldRunID     = capitan.NewStringKey("run_id")
	FieldSessionID = capitan.NewStringKey("session_id")
	FieldState     = capitan.NewStringKey("state")
	FieldStepCount = capitan.NewIntKey("step_count")
	FieldPeekCount = capitan.NewIntKey("peek_count")
	FieldMaxSteps  = capitan.NewIntKey("max_steps")

	// Step metadata.
	FieldStep     = capitan.NewIntKey("step")
	FieldCommand  = capitan.NewStringKey("command")
	FieldOutput   = capitan.NewStringKey("output")
	FieldFailures = capitan.NewIntKey("failures")

	// Context metadata.
	FieldKey        = capitan.NewStringKey("key")
	FieldOperation  = capitan.NewStringKey("operation") // set, delete, peek, compress
	FieldEntryCount = capitan.NewIntKey("entry_count")

	// Retrieval metadata.
	FieldResultCount = capitan.NewIntKey("result_count")
	FieldRecordIndex = capitan.NewIntKey("record_index")

	// Reduction metadata.
	FieldTask       = capitan.NewStringKey("task")
	FieldChunkCount = capitan.NewIntKey("chunk_count")
	FieldChunkIndex = capitan.NewIntKey("chunk_index")

	// Sizes and timing.
	FieldContentSize = capitan.NewIntKey("content_size") // character count
	FieldDuration    = capitan.NewDurationKey("duration")

	// Error information.
	FieldError = capitan.NewErrorKey("error")
)
