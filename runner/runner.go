// Package runner implements the run controller: the outer loop that
// drives a step executor from a fresh conversation to exactly one of the
// four terminal run statuses.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opsloop/agentrt/agent"
	"github.com/opsloop/agentrt/guardrail"
)

const DefaultMaxIterations = 8

// StepRunner is the capability the run controller drives each iteration.
// *step.Executor satisfies this.
type StepRunner interface {
	Run(ctx context.Context, runID agent.RunID, stepNumber int, snapshot []agent.Message, tools []agent.ToolDefinition, toolChoice string) (agent.StepResult, []agent.Message, error)
}

// Dependencies wires the services a Runner needs.
type Dependencies struct {
	Step      StepRunner
	Memory    agent.Memory
	IDGen     agent.IDGenerator
	Events    agent.EventSink
	Guardrail guardrail.Hooks
}

// Runner owns the run lifecycle: it appends to memory, drives the step
// executor, and assembles the single AgentRunResult source of truth.
type Runner struct {
	step      StepRunner
	memory    agent.Memory
	idGen     agent.IDGenerator
	events    agent.EventSink
	guardrail guardrail.Hooks
}

// New constructs a Runner. Step and Memory are required.
func New(deps Dependencies) (*Runner, error) {
	if deps.Step == nil {
		return nil, fmt.Errorf("new runner: step executor is required")
	}
	if deps.Memory == nil {
		return nil, fmt.Errorf("new runner: memory is required")
	}
	if deps.IDGen == nil {
		deps.IDGen = defaultIDGenerator{}
	}
	if deps.Events == nil {
		deps.Events = noopEventSink{}
	}
	return &Runner{
		step:      deps.Step,
		memory:    deps.Memory,
		idGen:     deps.IDGen,
		events:    deps.Events,
		guardrail: deps.Guardrail,
	}, nil
}

// RunInput configures one run.
type RunInput struct {
	AgentName     string
	SystemPrompt  string
	UserInput     string
	Tools         []agent.ToolDefinition
	ToolChoice    string
	MaxIterations int
	// OverallTimeout bounds the whole run if positive.
	OverallTimeout time.Duration
}

// Run drives the Think-Act-Observe loop to exactly one terminal
// RunStatus, never returning a bare error for conditions the contract
// defines as terminal statuses (max iterations, cancellation, guardrail
// veto) — those are reported on the returned AgentRunResult instead. Run
// only returns a non-nil error for caller misuse (e.g. a nil ctx) or for a
// failure before the loop starts: generating the run ID, or appending the
// system prompt or user input to memory.
func (r *Runner) Run(ctx context.Context, input RunInput) (agent.AgentRunResult, error) {
	if ctx == nil {
		return agent.AgentRunResult{}, fmt.Errorf("runner: ctx is required")
	}
	if input.OverallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, input.OverallTimeout)
		defer cancel()
	}

	runID, err := r.idGen.NewRunID(ctx)
	if err != nil {
		return agent.AgentRunResult{}, fmt.Errorf("runner: generate run id: %w", err)
	}
	maxIterations := input.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	startTime := time.Now().UTC()
	r.publish(ctx, agent.Event{RunID: runID, Type: agent.EventTypeRunStarted})

	if input.SystemPrompt != "" {
		if err := r.memory.Append(ctx, agent.NewSystemMessage(input.SystemPrompt)); err != nil {
			return agent.AgentRunResult{}, fmt.Errorf("runner: append system prompt: %w", err)
		}
	}
	if err := r.memory.Append(ctx, agent.NewUserMessage(input.UserInput)); err != nil {
		return agent.AgentRunResult{}, fmt.Errorf("runner: append user input: %w", err)
	}

	var steps []agent.StepResult

	for iteration := 1; iteration <= maxIterations; iteration++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return r.finish(ctx, runID, input.AgentName, startTime, steps, maxIterations, terminalFor(ctxErr), "", stringify(ctxErr)), nil
		}

		snapshot, err := r.memory.Snapshot(ctx)
		if err != nil {
			return r.finish(ctx, runID, input.AgentName, startTime, steps, maxIterations, agent.RunStatusError, "", err.Error()), nil
		}

		if veto := r.guardrail.RunPreLLM(ctx, runID, iteration, snapshot); veto != nil {
			return r.finish(ctx, runID, input.AgentName, startTime, steps, maxIterations, agent.RunStatusError, "", veto.Error()), nil
		}

		stepResult, delta, err := r.step.Run(ctx, runID, iteration, snapshot, input.Tools, input.ToolChoice)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return r.finish(ctx, runID, input.AgentName, startTime, steps, maxIterations, terminalFor(ctxErr), "", stringify(ctxErr)), nil
			}
			return r.finish(ctx, runID, input.AgentName, startTime, steps, maxIterations, agent.RunStatusError, "", err.Error()), nil
		}

		for _, message := range delta {
			if err := r.memory.Append(ctx, message); err != nil {
				return r.finish(ctx, runID, input.AgentName, startTime, steps, maxIterations, agent.RunStatusError, "", err.Error()), nil
			}
		}
		steps = append(steps, stepResult)

		if !stepResult.HasToolCalls() {
			output := ""
			if stepResult.Thought != nil {
				output = *stepResult.Thought
			}
			return r.finish(ctx, runID, input.AgentName, startTime, steps, maxIterations, agent.RunStatusCompleted, output, ""), nil
		}
	}

	return r.finish(ctx, runID, input.AgentName, startTime, steps, maxIterations, agent.RunStatusMaxIterationsReached, "", agent.ErrMaxIterationsExceeded.Error()), nil
}

func (r *Runner) finish(ctx context.Context, runID agent.RunID, agentName string, startTime time.Time, steps []agent.StepResult, maxIterations int, status agent.RunStatus, output string, errMessage string) agent.AgentRunResult {
	endTime := time.Now().UTC()
	usage := agent.AggregateUsage(steps)
	total, byName := agent.AggregateToolCalls(steps)

	var errPtr *string
	if errMessage != "" {
		errPtr = &errMessage
	}

	result := agent.AgentRunResult{
		RunID:           runID,
		AgentName:       agentName,
		Output:          output,
		Status:          status,
		Steps:           steps,
		Usage:           usage,
		ToolCallsTotal:  total,
		ToolCallsByName: byName,
		StartTime:       startTime,
		EndTime:         endTime,
		DurationSeconds: endTime.Sub(startTime).Seconds(),
		Error:           errPtr,
		MaxIterations:   maxIterations,
	}

	switch status {
	case agent.RunStatusCompleted:
		r.publish(ctx, agent.Event{RunID: runID, Type: agent.EventTypeRunCompleted, Description: output})
	case agent.RunStatusCancelled:
		r.publish(ctx, agent.Event{RunID: runID, Type: agent.EventTypeRunCancelled, Description: errMessage})
	default:
		r.publish(ctx, agent.Event{RunID: runID, Type: agent.EventTypeRunFailed, Description: errMessage})
	}
	return result
}

func terminalFor(ctxErr error) agent.RunStatus {
	if errors.Is(ctxErr, context.Canceled) {
		return agent.RunStatusCancelled
	}
	return agent.RunStatusError
}

func stringify(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (r *Runner) publish(ctx context.Context, event agent.Event) {
	if r.events == nil {
		return
	}
	_ = r.events.Publish(ctx, event)
}

type noopEventSink struct{}

func (noopEventSink) Publish(context.Context, agent.Event) error { return nil }
