package runner

import (
	"context"

	"github.com/opsloop/agentrt/agent"
	"github.com/opsloop/agentrt/step"
)

// StreamingStepRunner is the capability a step executor optionally
// provides: the same Think-Act-Observe iteration as StepRunner, but
// driving the model through its streaming capability and publishing
// token deltas on the run's event sink as they arrive, rather than only
// the coarse step/model/tool boundary events StepRunner.Run produces.
// *step.Executor satisfies this.
type StreamingStepRunner interface {
	RunStreaming(ctx context.Context, runID agent.RunID, stepNumber int, snapshot []agent.Message, tools []agent.ToolDefinition, toolChoice string) (agent.StepResult, []agent.Message, error)
}

// RunStream runs exactly like Run but also returns a channel of the
// normalized events published over the course of the run, for callers
// that want to forward them to an SSE or websocket client as they
// happen. If the wired step executor implements StreamingStepRunner, each
// step drives the model through its streaming capability and emits
// model_call_delta events as the model's text arrives; otherwise only the
// coarse step/model/tool boundary events are emitted. The channel is
// closed once the run reaches a terminal status and the final
// AgentRunResult has been sent on result.
func (r *Runner) RunStream(ctx context.Context, input RunInput) (events <-chan agent.Event, result <-chan agent.AgentRunResult) {
	eventsOut := make(chan agent.Event, 16)
	resultOut := make(chan agent.AgentRunResult, 1)

	tap := &tappedEventSink{next: r.events, out: eventsOut}
	streamed := &Runner{
		step:      asStreamingStep(stepWithEvents(r.step, tap)),
		memory:    r.memory,
		idGen:     r.idGen,
		events:    tap,
		guardrail: r.guardrail,
	}

	go func() {
		defer close(eventsOut)
		defer close(resultOut)
		final, _ := streamed.Run(ctx, input)
		resultOut <- final
	}()

	return eventsOut, resultOut
}

// stepWithEvents rebinds a step runner to a different event sink for the
// duration of a single streamed run, if it supports it. *step.Executor is
// a long-lived singleton shared across concurrent requests (wired once in
// cmd/agentrt-server/app.go), so its own event sink can't be mutated
// in place without racing other runs; step.Executor.WithEvents instead
// hands back a copy bound to the given sink, leaving the shared instance
// untouched. Step runners that don't support this pass through unchanged,
// meaning their step-level events keep going only to whatever sink they
// were constructed with, not to this run's stream.
func stepWithEvents(runner StepRunner, events agent.EventSink) StepRunner {
	if executor, ok := runner.(*step.Executor); ok {
		return executor.WithEvents(events)
	}
	return runner
}

// asStreamingStep adapts a StepRunner that also implements
// StreamingStepRunner so its Run calls drive the model through
// GenerateStream instead. Step runners that don't implement it are
// returned unchanged.
func asStreamingStep(step StepRunner) StepRunner {
	if streaming, ok := step.(StreamingStepRunner); ok {
		return streamingStepAdapter{streaming}
	}
	return step
}

type streamingStepAdapter struct {
	streaming StreamingStepRunner
}

func (a streamingStepAdapter) Run(ctx context.Context, runID agent.RunID, stepNumber int, snapshot []agent.Message, tools []agent.ToolDefinition, toolChoice string) (agent.StepResult, []agent.Message, error) {
	return a.streaming.RunStreaming(ctx, runID, stepNumber, snapshot, tools, toolChoice)
}

// tappedEventSink forwards every published event to both the wrapped
// sink (if any) and a streaming channel, dropping events on the channel
// if the consumer falls behind rather than blocking the run.
type tappedEventSink struct {
	next agent.EventSink
	out  chan agent.Event
}

func (t *tappedEventSink) Publish(ctx context.Context, event agent.Event) error {
	select {
	case t.out <- agent.CloneEvent(event):
	default:
	}
	if t.next != nil {
		return t.next.Publish(ctx, event)
	}
	return nil
}
