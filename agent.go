package ponder

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/zoobzio/capitan"
	"github.com/zoobzio/pipz"
	"github.com/zoobzio/zyn"
)

// State is the position of a run in the control loop.
type State int

const (
	// StateRunning is the initial state; the loop keeps stepping.
	StateRunning State = iota
	// StateAnswered means the controller issued ANSWER.
	StateAnswered
	// StateExhausted means the step budget ran out without an answer.
	StateExhausted
	// StateFailed means the run escalated: too many consecutive aborted
	// steps, a canceled context, or a failed preparation pipeline.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateAnswered:
		return "answered"
	case StateExhausted:
		return "exhausted"
	case StateFailed:
		return "failed"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// Terminal reports whether the state ends a run.
func (s State) Terminal() bool {
	return s != StateRunning
}

// StepRecord captures what happened in one reasoning step.
type StepRecord struct {
	Step    int
	Output  string // raw controller output
	Command string // rendered command, empty when none was parsed
	Err     error  // why the step was skipped or aborted
}

// Result is the outcome of a run. It is always populated, including on
// exhaustion and failure.
type Result struct {
	RunID     string
	SessionID string
	Query     string
	Answer    string
	State     State
	Steps     int // reasoning steps taken, SET and DELETE included
	Peeks     int // retrieval commands executed
	Context   *ContextStore
	Trace     []StepRecord
	Usage     zyn.TokenUsage
	Duration  time.Duration
}

// PeekKey returns the context key under which the n-th retrieval of a run is
// stored.
func PeekKey(n int) string {
	return PeekKeyPrefix + strconv.Itoa(n)
}

// Agent runs the bounded reasoning loop: render a step prompt, ask the
// controller for a command, dispatch it, repeat until ANSWER or the budget
// runs out.
//
// An Agent holds no per-run state and may serve concurrent runs, provided
// each run gets its own ContextStore.
type Agent struct {
	controller   LanguageModel
	call         pipz.Chainable[*exchange]
	retriever    *Retriever
	reducer      *Reducer
	sessions     SessionMemory
	prepare      pipz.Chainable[*ContextStore]
	instructions string
	maxSteps     int
	maxFailures  int
	retries      int
	backoff      time.Duration
}

// AgentOption configures an Agent.
type AgentOption func(*Agent)

// WithController sets the model that emits commands.
func WithController(m LanguageModel) AgentOption {
	return func(a *Agent) { a.controller = m }
}

// WithReader sets the model used by the agent's reducer.
func WithReader(m LanguageModel) AgentOption {
	return func(a *Agent) { a.reducer = NewReducer(WithReaderModel(m)) }
}

// WithReducer sets the reducer used by Compress.
func WithReducer(r *Reducer) AgentOption {
	return func(a *Agent) { a.reducer = r }
}

// WithRetrieval sets the retrieval service behind PEEK.
func WithRetrieval(svc RetrievalService) AgentOption {
	return func(a *Agent) { a.retriever = NewRetriever(svc) }
}

// WithRetriever sets a preconfigured retriever behind PEEK.
func WithRetriever(r *Retriever) AgentOption {
	return func(a *Agent) { a.retriever = r }
}

// WithSessionMemory enables RunSession.
func WithSessionMemory(m SessionMemory) AgentOption {
	return func(a *Agent) { a.sessions = m }
}

// WithPreparation runs p over the working memory before the first step of
// every run, e.g. to pre-seed it with PeekStep or CompressStep.
func WithPreparation(p pipz.Chainable[*ContextStore]) AgentOption {
	return func(a *Agent) { a.prepare = p }
}

// WithInstructions replaces ControllerInstructions.
func WithInstructions(s string) AgentOption {
	return func(a *Agent) { a.instructions = s }
}

// WithMaxSteps sets the step budget.
func WithMaxSteps(n int) AgentOption {
	return func(a *Agent) {
		if n > 0 {
			a.maxSteps = n
		}
	}
}

// WithMaxStepFailures sets how many consecutive aborted steps are tolerated.
func WithMaxStepFailures(n int) AgentOption {
	return func(a *Agent) {
		if n > 0 {
			a.maxFailures = n
		}
	}
}

// WithControllerRetry retries a failed controller call up to attempts times
// within the same step.
func WithControllerRetry(attempts int) AgentOption {
	return func(a *Agent) { a.retries = attempts }
}

// WithControllerBackoff retries a failed controller call with exponential
// backoff starting at delay.
func WithControllerBackoff(attempts int, delay time.Duration) AgentOption {
	return func(a *Agent) {
		a.retries = attempts
		a.backoff = delay
	}
}

// NewAgent creates an Agent. Models default to the resolved provider.
func NewAgent(opts ...AgentOption) *Agent {
	a := &Agent{
		instructions: ControllerInstructions,
		maxSteps:     DefaultMaxSteps,
		maxFailures:  DefaultMaxStepFailures,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.controller = resolveModel(a.controller, DefaultControllerTemperature)
	if a.reducer == nil {
		a.reducer = NewReducer()
	}

	var call pipz.Chainable[*exchange] = newControllerCall(a.controller)
	switch {
	case a.retries > 1 && a.backoff > 0:
		call = pipz.NewBackoff(pipz.NewIdentity("controller-backoff", "Retries controller calls with backoff"), call, a.retries, a.backoff)
	case a.retries > 1:
		call = pipz.NewRetry(pipz.NewIdentity("controller-retry", "Retries controller calls"), call, a.retries)
	}
	a.call = call
	return a
}

// MaxSteps returns the step budget.
func (a *Agent) MaxSteps() int {
	return a.maxSteps
}

// Retriever returns the retriever behind PEEK, or nil.
func (a *Agent) Retriever() *Retriever {
	return a.retriever
}

// Reducer returns the agent's reducer.
func (a *Agent) Reducer() *Reducer {
	return a.reducer
}

// Run answers query starting from empty working memory.
func (a *Agent) Run(ctx context.Context, query string) (Result, error) {
	return a.RunWithContext(ctx, query, NewContextStore())
}

// RunWithContext answers query using store as working memory. The store is
// mutated in place and returned in Result.Context, so callers can pre-seed
// it and carry it across calls.
//
// The returned error is nil only in StateAnswered. Exhaustion yields
// ErrStepBudgetExhausted; escalation wraps the last step error.
func (a *Agent) RunWithContext(ctx context.Context, query string, store *ContextStore) (res Result, err error) {
	if store == nil {
		store = NewContextStore()
	}
	start := time.Now()
	res = Result{
		RunID:   uuid.New().String(),
		Query:   query,
		State:   StateRunning,
		Context: store,
	}

	defer func() {
		if r := recover(); r != nil {
			err = a.fail(ctx, &res, fmt.Errorf("panic: %v", r))
		}
		res.Duration = time.Since(start)
	}()

	capitan.Emit(ctx, RunStarted,
		FieldRunID.Field(res.RunID),
		FieldQuery.Field(query),
		FieldMaxSteps.Field(a.maxSteps),
		FieldEntryCount.Field(store.Len()),
	)

	if a.prepare != nil {
		if _, perr := a.prepare.Process(ctx, store); perr != nil {
			return res, a.fail(ctx, &res, fmt.Errorf("preparation: %w", perr))
		}
	}

	failures := 0
	for step := 1; step <= a.maxSteps; step++ {
		if cerr := ctx.Err(); cerr != nil {
			return res, a.fail(ctx, &res, cerr)
		}
		res.Steps = step

		rec, serr := a.step(ctx, &res, step)
		res.Trace = append(res.Trace, rec)
		if res.State == StateAnswered {
			capitan.Emit(ctx, RunCompleted,
				FieldRunID.Field(res.RunID),
				FieldState.Field(res.State.String()),
				FieldStepCount.Field(res.Steps),
				FieldPeekCount.Field(res.Peeks),
				FieldContentSize.Field(len(res.Answer)),
				FieldDuration.Field(time.Since(start)),
			)
			return res, nil
		}
		if serr == nil {
			failures = 0
			continue
		}

		var unrecognized *UnrecognizedCommandError
		if errors.As(serr, &unrecognized) {
			capitan.Emit(ctx, CommandRejected,
				FieldRunID.Field(res.RunID),
				FieldStep.Field(step),
				FieldOutput.Field(rec.Output),
				FieldError.Field(serr),
			)
			continue
		}

		failures++
		capitan.Error(ctx, StepFailed,
			FieldRunID.Field(res.RunID),
			FieldStep.Field(step),
			FieldFailures.Field(failures),
			FieldError.Field(serr),
		)
		if failures >= a.maxFailures {
			return res, a.fail(ctx, &res, fmt.Errorf("step %d: %w", step, serr))
		}
	}

	res.State = StateExhausted
	capitan.Emit(ctx, RunExhausted,
		FieldRunID.Field(res.RunID),
		FieldState.Field(res.State.String()),
		FieldStepCount.Field(res.Steps),
		FieldPeekCount.Field(res.Peeks),
		FieldDuration.Field(time.Since(start)),
	)
	return res, fmt.Errorf("run %s: %w after %d steps", res.RunID, ErrStepBudgetExhausted, res.Steps)
}

// step performs one iteration: prompt, controller call, parse, dispatch.
// It sets res.State to StateAnswered when the controller answers.
func (a *Agent) step(ctx context.Context, res *Result, step int) (StepRecord, error) {
	rec := StepRecord{Step: step}
	capitan.Emit(ctx, StepStarted,
		FieldRunID.Field(res.RunID),
		FieldStep.Field(step),
		FieldEntryCount.Field(res.Context.Len()),
	)

	prompt := buildStepPrompt(a.instructions, res.Query, res.Context.Snapshot(), step, a.maxSteps)
	ex, err := a.call.Process(ctx, &exchange{prompt: prompt})
	if err != nil {
		rec.Err = fmt.Errorf("controller: %w", err)
		return rec, rec.Err
	}
	res.Usage = addUsage(res.Usage, ex.completion.Usage)
	rec.Output = ex.completion.Text

	cmd, err := ParseCommand(rec.Output)
	if err != nil {
		rec.Err = err
		return rec, err
	}
	rec.Command = fmt.Sprint(cmd)

	if err := a.dispatch(ctx, res, cmd); err != nil {
		rec.Err = err
		return rec, err
	}

	capitan.Emit(ctx, StepCompleted,
		FieldRunID.Field(res.RunID),
		FieldStep.Field(step),
		FieldCommand.Field(cmd.Name()),
	)
	return rec, nil
}

// dispatch applies a parsed command to the run.
func (a *Agent) dispatch(ctx context.Context, res *Result, cmd Command) error {
	switch c := cmd.(type) {
	case Peek:
		if a.retriever == nil {
			return fmt.Errorf("peek: no retrieval service configured")
		}
		passages, err := a.retriever.Peek(ctx, c.Query)
		if err != nil {
			return err
		}
		res.Peeks++
		key := PeekKey(res.Peeks)
		res.Context.Set(key, List(passages))
		a.emitMutation(ctx, res, key, "set")
	case Set:
		res.Context.Set(c.Key, Text(c.Value))
		a.emitMutation(ctx, res, c.Key, "set")
	case Delete:
		res.Context.Delete(c.Key)
		a.emitMutation(ctx, res, c.Key, "delete")
	case Answer:
		res.Answer = c.Text
		res.State = StateAnswered
	default:
		return &UnrecognizedCommandError{Reason: fmt.Sprintf("unhandled command %T", cmd)}
	}
	return nil
}

func (a *Agent) emitMutation(ctx context.Context, res *Result, key, op string) {
	capitan.Emit(ctx, ContextMutated,
		FieldRunID.Field(res.RunID),
		FieldKey.Field(key),
		FieldOperation.Field(op),
		FieldEntryCount.Field(res.Context.Len()),
	)
}

// fail moves the run to StateFailed and returns the wrapped error.
func (a *Agent) fail(ctx context.Context, res *Result, cause error) error {
	res.State = StateFailed
	capitan.Error(ctx, RunFailed,
		FieldRunID.Field(res.RunID),
		FieldState.Field(res.State.String()),
		FieldStepCount.Field(res.Steps),
		FieldError.Field(cause),
	)
	return fmt.Errorf("run %s: %w", res.RunID, cause)
}

// Compress reduces chunks for task and stores the synthesis under key.
func (a *Agent) Compress(ctx context.Context, store *ContextStore, key, task string, chunks []string) error {
	summary, err := a.reducer.Reduce(ctx, task, chunks)
	if err != nil {
		return fmt.Errorf("compress %q: %w", key, err)
	}
	store.SetText(key, summary)
	return nil
}

// RunSession answers query with working memory loaded from the session
// memory, and saves the memory back whatever the outcome. An empty
// sessionID starts a new session.
func (a *Agent) RunSession(ctx context.Context, sessionID, query string) (Result, error) {
	if a.sessions == nil {
		return Result{Query: query, State: StateFailed, Context: NewContextStore()},
			errors.New("run session: no session memory configured")
	}
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	store, err := a.sessions.Load(ctx, sessionID)
	if err != nil {
		return Result{SessionID: sessionID, Query: query, State: StateFailed, Context: NewContextStore()},
			fmt.Errorf("run session %s: %w", sessionID, err)
	}
	capitan.Emit(ctx, SessionLoaded,
		FieldSessionID.Field(sessionID),
		FieldEntryCount.Field(store.Len()),
	)

	res, runErr := a.RunWithContext(ctx, query, store)
	res.SessionID = sessionID

	if err := a.sessions.Save(ctx, sessionID, res.Context); err != nil {
		return res, errors.Join(runErr, fmt.Errorf("save session %s: %w", sessionID, err))
	}
	capitan.Emit(ctx, SessionSaved,
		FieldSessionID.Field(sessionID),
		FieldEntryCount.Field(res.Context.Len()),
	)
	return res, runErr
}

// exchange carries one controller call through the call pipeline.
type exchange struct {
	prompt     string
	completion Completion
}

// controllerCall adapts a LanguageModel to a pipz processor so retry and
// backoff connectors can wrap it.
type controllerCall struct {
	identity pipz.Identity
	model    LanguageModel
}

func newControllerCall(m LanguageModel) *controllerCall {
	return &controllerCall{
		identity: pipz.NewIdentity("controller", "Controller model call"),
		model:    m,
	}
}

// Process implements pipz.Chainable[*exchange].
func (c *controllerCall) Process(ctx context.Context, ex *exchange) (*exchange, error) {
	out, err := c.model.Complete(ctx, ex.prompt)
	if err != nil {
		return ex, err
	}
	ex.completion = out
	return ex, nil
}

// Identity implements pipz.Chainable[*exchange].
func (c *controllerCall) Identity() pipz.Identity {
	return c.identity
}

// Schema implements pipz.Chainable[*exchange].
func (c *controllerCall) Schema() pipz.Node {
	return pipz.Node{Identity: c.identity, Type: "controller"}
}

// Close implements pipz.Chainable[*exchange].
func (c *controllerCall) Close() error {
	return nil
}

var _ pipz.Chainable[*exchange] = (*controllerCall)(nil)
