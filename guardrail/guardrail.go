// Package guardrail exposes the vetoable hook surface called around a model
// turn and each tool call: the run controller runs PreLLM, the step
// executor runs PostLLM and PreTool. It is intentionally not a
// policy engine: hooks are plain functions the caller supplies, and a veto
// always terminates the run with RunStatusError carrying the veto's typed
// reason. Concrete guardrail checks (content filters, PII detection, and
// the like) are the caller's responsibility to implement as hook
// functions; this package only defines the contract and a couple of
// ready-made heuristics callers may compose in.
package guardrail

import (
	"context"
	"fmt"

	"github.com/opsloop/agentrt/agent"
)

// Veto is returned by a hook to stop the run. Reason is a short, stable
// machine-readable label (e.g. "prompt_injection", "content_filter")
// surfaced on AgentRunResult.Error.
type Veto struct {
	Reason string
}

func (v *Veto) Error() string {
	return fmt.Sprintf("guardrail veto: %s", v.Reason)
}

// PreLLMHook runs before a model call with the snapshot about to be sent.
// Returning a non-nil *Veto stops the run before the call is made.
type PreLLMHook func(ctx context.Context, runID agent.RunID, step int, snapshot []agent.Message) *Veto

// PostLLMHook runs after a model call with the assistant turn it
// produced, before any tool calls are executed.
type PostLLMHook func(ctx context.Context, runID agent.RunID, step int, turn agent.AssistantTurn) *Veto

// PreToolHook runs before a tool call is dispatched to its executor.
type PreToolHook func(ctx context.Context, runID agent.RunID, step int, call agent.ToolCall) *Veto

// Hooks is the optional guardrail surface wired into a run. A nil field
// means that checkpoint is unguarded. All fields default to nil.
type Hooks struct {
	PreLLM  PreLLMHook
	PostLLM PostLLMHook
	PreTool PreToolHook
}

// RunPreLLM invokes the PreLLM hook if set, otherwise reports no veto.
func (h Hooks) RunPreLLM(ctx context.Context, runID agent.RunID, step int, snapshot []agent.Message) *Veto {
	if h.PreLLM == nil {
		return nil
	}
	return h.PreLLM(ctx, runID, step, snapshot)
}

// RunPostLLM invokes the PostLLM hook if set, otherwise reports no veto.
func (h Hooks) RunPostLLM(ctx context.Context, runID agent.RunID, step int, turn agent.AssistantTurn) *Veto {
	if h.PostLLM == nil {
		return nil
	}
	return h.PostLLM(ctx, runID, step, turn)
}

// RunPreTool invokes the PreTool hook if set, otherwise reports no veto.
func (h Hooks) RunPreTool(ctx context.Context, runID agent.RunID, step int, call agent.ToolCall) *Veto {
	if h.PreTool == nil {
		return nil
	}
	return h.PreTool(ctx, runID, step, call)
}
