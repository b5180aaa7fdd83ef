// Package step executes one Think-Act-Observe iteration: a single model
// call followed by the parallel execution of whatever tool calls the
// model requested.
package step

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/opsloop/agentrt/agent"
	"github.com/opsloop/agentrt/guardrail"
)

const DefaultToolTimeout = 30 * time.Second

// Executor runs one step of the loop against a model and a tool
// executor, publishing observability events as it goes.
type Executor struct {
	model       agent.Model
	tools       agent.ToolExecutor
	events      agent.EventSink
	guardrail   guardrail.Hooks
	toolTimeout time.Duration
	maxParallel int
}

// Option configures an Executor.
type Option func(*Executor)

// WithToolTimeout overrides the per-tool-call wall-clock budget.
func WithToolTimeout(d time.Duration) Option {
	return func(e *Executor) { e.toolTimeout = d }
}

// WithMaxParallelToolCalls caps concurrent tool execution within a step.
// Zero or negative means unbounded.
func WithMaxParallelToolCalls(n int) Option {
	return func(e *Executor) { e.maxParallel = n }
}

// WithGuardrail wires post-model and pre-tool veto hooks into the step.
// A veto from either aborts the step with an error, which the run
// controller maps to RunStatusError.
func WithGuardrail(hooks guardrail.Hooks) Option {
	return func(e *Executor) { e.guardrail = hooks }
}

// New constructs a step Executor. events may be nil, in which case
// published events are dropped.
func New(model agent.Model, tools agent.ToolExecutor, events agent.EventSink, opts ...Option) *Executor {
	e := &Executor{
		model:       model,
		tools:       tools,
		events:      events,
		toolTimeout: DefaultToolTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithEvents returns a copy of the executor bound to a different event
// sink, leaving the receiver and its stored sink untouched. The executor
// is typically a long-lived singleton shared across concurrent runs, so
// a single run that wants its own event sink (a streamed HTTP request
// tapping events onto its own channel, for example) takes a copy instead
// of mutating shared state.
func (e *Executor) WithEvents(events agent.EventSink) *Executor {
	copied := *e
	copied.events = events
	return &copied
}

// Run executes one Think-Act-Observe iteration: Think (model.Generate on
// the given snapshot), Act (execute every requested tool call, in
// parallel, order-preserving), Observe (append tool result messages to
// the returned transcript delta). The caller is responsible for
// appending the returned messages to its memory and deciding whether to
// loop again.
//
// A model error is returned directly (wrapped in *agent.ModelTransientError
// or *agent.ModelPermanentError, per the Model contract) so the run
// controller can decide whether the run terminates with RunStatusError.
// A tool failure never aborts the step: it is captured as an error
// ToolResult and the step completes normally, letting the model see and
// react to the failure on its next turn.
func (e *Executor) Run(ctx context.Context, runID agent.RunID, stepNumber int, snapshot []agent.Message, tools []agent.ToolDefinition, toolChoice string) (agent.StepResult, []agent.Message, error) {
	e.publish(ctx, agent.Event{RunID: runID, Step: stepNumber, Type: agent.EventTypeStepStarted})
	e.publish(ctx, agent.Event{RunID: runID, Step: stepNumber, Type: agent.EventTypeModelCallStarted})

	turn, err := e.model.Generate(ctx, agent.ModelRequest{
		Messages:   agent.CloneMessages(snapshot),
		Tools:      agent.CloneToolDefinitions(tools),
		ToolChoice: toolChoice,
	})
	if err != nil {
		return agent.StepResult{}, nil, err
	}
	return e.finishStep(ctx, runID, stepNumber, turn)
}

// RunStreaming is the same Think-Act-Observe iteration as Run, except the
// Think phase drives the model through its streaming capability,
// publishing a model_call_delta event per text fragment as it arrives
// instead of waiting for the complete turn. If the model does not
// implement agent.StreamingModel, it falls back to Run's non-streaming
// call.
func (e *Executor) RunStreaming(ctx context.Context, runID agent.RunID, stepNumber int, snapshot []agent.Message, tools []agent.ToolDefinition, toolChoice string) (agent.StepResult, []agent.Message, error) {
	streamingModel, ok := e.model.(agent.StreamingModel)
	if !ok {
		return e.Run(ctx, runID, stepNumber, snapshot, tools, toolChoice)
	}

	e.publish(ctx, agent.Event{RunID: runID, Step: stepNumber, Type: agent.EventTypeStepStarted})
	e.publish(ctx, agent.Event{RunID: runID, Step: stepNumber, Type: agent.EventTypeModelCallStarted})

	deltas, err := streamingModel.GenerateStream(ctx, agent.ModelRequest{
		Messages:   agent.CloneMessages(snapshot),
		Tools:      agent.CloneToolDefinitions(tools),
		ToolChoice: toolChoice,
	})
	if err != nil {
		return agent.StepResult{}, nil, err
	}

	var final *agent.AssistantTurn
	for delta := range deltas {
		if delta.TextDelta != "" {
			e.publish(ctx, agent.Event{RunID: runID, Step: stepNumber, Type: agent.EventTypeModelCallDelta, TextDelta: delta.TextDelta})
		}
		if delta.Done {
			final = delta.Final
		}
	}
	if final == nil {
		return agent.StepResult{}, nil, &agent.ModelPermanentError{Err: fmt.Errorf("model stream closed without a final turn")}
	}

	return e.finishStep(ctx, runID, stepNumber, *final)
}

// finishStep is the shared tail of Run and RunStreaming once a complete
// AssistantTurn is in hand: the post-LLM guardrail check, the tool-call
// fan-out, and step result assembly.
func (e *Executor) finishStep(ctx context.Context, runID agent.RunID, stepNumber int, turn agent.AssistantTurn) (agent.StepResult, []agent.Message, error) {
	assistantMessage := turn.Message
	if assistantMessage.Role == "" {
		assistantMessage.Role = agent.RoleAssistant
	}
	e.publish(ctx, agent.Event{RunID: runID, Step: stepNumber, Type: agent.EventTypeModelCallFinished, Message: &assistantMessage})

	if veto := e.guardrail.RunPostLLM(ctx, runID, stepNumber, turn); veto != nil {
		return agent.StepResult{}, nil, veto
	}

	delta := []agent.Message{assistantMessage}

	if len(assistantMessage.ToolCalls) == 0 {
		thought := assistantMessage.Text()
		result := agent.StepResult{
			Step:         stepNumber,
			Thought:      &thought,
			Usage:        turn.Usage,
			FinishReason: turn.FinishReason,
		}
		e.publish(ctx, agent.Event{RunID: runID, Step: stepNumber, Type: agent.EventTypeStepFinished})
		return result, delta, nil
	}

	records, err := e.executeToolCalls(ctx, runID, stepNumber, assistantMessage.ToolCalls)
	if err != nil {
		return agent.StepResult{}, nil, err
	}
	for _, record := range records {
		delta = append(delta, agent.ToolResultMessage(agent.TextResult(record.CallID, record.ToolName, record.Result, record.IsError)))
	}

	result := agent.StepResult{
		Step:         stepNumber,
		ToolCalls:    records,
		Usage:        turn.Usage,
		FinishReason: turn.FinishReason,
	}
	e.publish(ctx, agent.Event{RunID: runID, Step: stepNumber, Type: agent.EventTypeStepFinished})
	return result, delta, nil
}

// executeToolCalls fans the step's tool calls out in parallel via
// errgroup, then collates results back into model-emitted order —
// completion order is not preserved, collation order is. A guardrail
// veto on any call aborts the whole step.
func (e *Executor) executeToolCalls(ctx context.Context, runID agent.RunID, stepNumber int, calls []agent.ToolCall) ([]agent.ToolCallRecord, error) {
	records := make([]agent.ToolCallRecord, len(calls))

	group, groupCtx := errgroup.WithContext(ctx)
	if e.maxParallel > 0 {
		group.SetLimit(e.maxParallel)
	}

	for i, call := range calls {
		i, call := i, call
		group.Go(func() error {
			record, veto := e.executeOne(groupCtx, runID, stepNumber, call)
			if veto != nil {
				return veto
			}
			records[i] = record
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return records, nil
}

func (e *Executor) executeOne(ctx context.Context, runID agent.RunID, stepNumber int, call agent.ToolCall) (agent.ToolCallRecord, error) {
	if veto := e.guardrail.RunPreTool(ctx, runID, stepNumber, call); veto != nil {
		return agent.ToolCallRecord{}, veto
	}

	e.publish(ctx, agent.Event{RunID: runID, Step: stepNumber, Type: agent.EventTypeToolCallStarted, ToolCall: &call})
	start := time.Now()

	if call.ArgDecodeErr != nil {
		result := agent.TextResult(call.ID, call.Name, call.ArgDecodeErr.Error(), true)
		e.publish(ctx, agent.Event{RunID: runID, Step: stepNumber, Type: agent.EventTypeToolCallFinished, ToolResult: &result})
		return agent.ToolCallRecord{
			ToolName:   call.Name,
			CallID:     result.CallID,
			Arguments:  call.Arguments,
			Result:     result.Text(),
			IsError:    true,
			DurationMS: float64(time.Since(start).Microseconds()) / 1000.0,
			Timestamp:  start.UTC(),
		}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, e.toolTimeout)
	defer cancel()

	result, err := e.tools.Execute(callCtx, call)
	duration := time.Since(start)

	if err != nil {
		result = errorResultFor(call, err, callCtx)
	}
	if result.CallID == "" {
		result.CallID = call.ID
	}
	if result.Name == "" {
		result.Name = call.Name
	}

	e.publish(ctx, agent.Event{RunID: runID, Step: stepNumber, Type: agent.EventTypeToolCallFinished, ToolResult: &result})

	return agent.ToolCallRecord{
		ToolName:   call.Name,
		CallID:     result.CallID,
		Arguments:  call.Arguments,
		Result:     result.Text(),
		IsError:    result.IsError,
		DurationMS: float64(duration.Microseconds()) / 1000.0,
		Timestamp:  start.UTC(),
	}, nil
}

func errorResultFor(call agent.ToolCall, err error, ctx context.Context) agent.ToolResult {
	if ctx.Err() != nil {
		return agent.TextResult(call.ID, call.Name, fmt.Sprintf("tool %q timed out", call.Name), true)
	}
	return agent.TextResult(call.ID, call.Name, err.Error(), true)
}

func (e *Executor) publish(ctx context.Context, event agent.Event) {
	if e.events == nil {
		return
	}
	_ = e.events.Publish(ctx, event)
}
