// Package ponder provides a recursive reasoning agent for answering
// questions over document collections too large for one model context.
//
// A controller model works through a query by issuing one command per
// step. The agent keeps a small working memory between steps and re-renders
// it into every prompt, so the controller decides what to look up, what to
// remember and what to forget.
//
// # Commands
//
// The controller speaks a four-command grammar:
//
//	PEEK("query")          retrieve passages; stored as peek_step_<n>
//	SET("key", "value")    store a note
//	DELETE("key")          remove a note
//	ANSWER("text")         finish the run
//
// [ParseCommand] extracts the first command from free-form output, tolerating
// surrounding prose. Arguments are parsed by [ParseArgs], which understands
// double-quoted strings with \" escapes and commas or parentheses inside
// quotes.
//
// # Core Types
//
//   - [Agent] - The bounded step loop (see [Agent.Run])
//   - [ContextStore] - Insertion-ordered working memory of text and list values
//   - [Retriever] - Top-k passage lookup over a [RetrievalService]
//   - [Reducer] - Concurrent map-reduce summarization of many chunks
//
// # Running an Agent
//
//	ponder.SetProvider(ponder.NewOpenAIProvider(apiKey, "gpt-4o"))
//	agent := ponder.NewAgent(
//	    ponder.WithRetrieval(index),
//	    ponder.WithMaxSteps(12),
//	)
//	res, err := agent.Run(ctx, "Which clauses limit liability?")
//
// A run ends in [StateAnswered], [StateExhausted] when the step budget runs
// out, or [StateFailed] after repeated step failures. The [Result] is always
// populated.
//
// # Provider & Embedder
//
// Model and embedding access uses a resolution hierarchy:
//
//  1. Explicit option ([WithController], [NewSoyIndex] embedder argument)
//  2. Context value ([WithProvider], [WithEmbedder])
//  3. Global default ([SetProvider], [SetEmbedder])
//
// [Provider] matches zyn's provider interface, so zyn providers plug in
// directly. [OpenAIProvider] and [OpenAIEmbedder] talk to any
// OpenAI-compatible endpoint.
//
// # Storage
//
// [SoyIndex] is a PostgreSQL/pgvector passage index serving PEEK.
// [SoyMemory] persists working memory per session for [Agent.RunSession].
//
//	index, err := ponder.NewSoyIndex(db, ponder.NewOpenAIEmbedder(apiKey))
//	memory, err := ponder.NewSoyMemory(db)
//
// # Observability
//
// ponder emits capitan signals throughout execution. See signals.go for the
// complete list, including RunStarted, StepCompleted, CommandRejected,
// RecordDropped and ChunkFailed.
package ponder
