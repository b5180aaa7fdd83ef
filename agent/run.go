package agent

import (
	"maps"
	"time"
)

// RunID is the stable identifier for one agent run (UUID v4 on the wire).
type RunID string

// RunStatus is the terminal status of an agent run. A run ends in exactly
// one of these four states; there is no "running" or "pending" value
// exposed here because AgentRunResult only exists once a run is terminal.
type RunStatus string

const (
	RunStatusCompleted            RunStatus = "completed"
	RunStatusMaxIterationsReached RunStatus = "max_iterations_reached"
	RunStatusError                RunStatus = "error"
	RunStatusCancelled            RunStatus = "cancelled"
)

// FinishReason is the LLM's hint for why a turn ended. The engine only
// distinguishes "stop" from non-"stop"; "error" marks a step that never
// received a usable assistant turn.
type FinishReason string

const (
	FinishReasonStop      FinishReason = "stop"
	FinishReasonToolCalls FinishReason = "tool_calls"
	FinishReasonError     FinishReason = "error"
)

// UsageStats is token accounting for one model call, or the sum across a
// run. Zero value is the correct default for providers that don't report
// usage.
type UsageStats struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add returns the element-wise sum of two UsageStats.
func (u UsageStats) Add(other UsageStats) UsageStats {
	return UsageStats{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
	}
}

// ToolCallRecord is created exactly once per executed tool call and is
// immutable thereafter.
type ToolCallRecord struct {
	ToolName   string         `json:"tool_name"`
	CallID     string         `json:"call_id"`
	Arguments  map[string]any `json:"arguments"`
	Result     string         `json:"result"`
	IsError    bool           `json:"is_error"`
	DurationMS float64        `json:"duration_ms"`
	Timestamp  time.Time      `json:"timestamp"`
}

// StepResult is the record of one Think-Act-Observe iteration. Exactly one
// StepResult is produced per iteration, including the iteration that
// produces the final answer.
type StepResult struct {
	Step         int              `json:"step"`
	Thought      *string          `json:"thought"`
	ToolCalls    []ToolCallRecord `json:"tool_calls"`
	Usage        UsageStats       `json:"usage"`
	FinishReason FinishReason     `json:"finish_reason"`
}

// HasToolCalls reports whether this step requested any tool calls. It is
// derived, never stored independently, per the single-source-of-truth
// invariant.
func (s StepResult) HasToolCalls() bool {
	return len(s.ToolCalls) > 0
}

// AgentRunResult is the single serializable source of truth for one run.
// No field duplicates information derivable from Steps other than the
// pre-computed aggregates (Usage, ToolCallsTotal, ToolCallsByName).
type AgentRunResult struct {
	RunID           RunID          `json:"run_id"`
	AgentName       string         `json:"agent_name"`
	Output          string         `json:"output"`
	Status          RunStatus      `json:"status"`
	Steps           []StepResult   `json:"steps"`
	Usage           UsageStats     `json:"usage"`
	ToolCallsTotal  int            `json:"tool_calls_total"`
	ToolCallsByName map[string]int `json:"tool_calls_by_name"`
	StartTime       time.Time      `json:"start_time"`
	EndTime         time.Time      `json:"end_time"`
	DurationSeconds float64        `json:"duration_seconds"`
	Error           *string        `json:"error"`
	MaxIterations   int            `json:"max_iterations"`
}

// CloneAgentRunResult deep-copies a result so a store or cache can hand out
// snapshots no caller can mutate out from under it.
func CloneAgentRunResult(in AgentRunResult) AgentRunResult {
	out := in
	out.Steps = make([]StepResult, len(in.Steps))
	for i, step := range in.Steps {
		out.Steps[i] = cloneStepResult(step)
	}
	out.ToolCallsByName = maps.Clone(in.ToolCallsByName)
	if in.Error != nil {
		message := *in.Error
		out.Error = &message
	}
	return out
}

func cloneStepResult(in StepResult) StepResult {
	out := in
	if in.Thought != nil {
		thought := *in.Thought
		out.Thought = &thought
	}
	out.ToolCalls = make([]ToolCallRecord, len(in.ToolCalls))
	for i, record := range in.ToolCalls {
		out.ToolCalls[i] = record
		out.ToolCalls[i].Arguments = maps.Clone(record.Arguments)
	}
	return out
}

// AggregateUsage sums UsageStats across every step's usage.
func AggregateUsage(steps []StepResult) UsageStats {
	var total UsageStats
	for _, step := range steps {
		total = total.Add(step.Usage)
	}
	return total
}

// AggregateToolCalls computes the total tool call count and the exact
// per-name multiset count across every step, per invariant (4) in §3.
func AggregateToolCalls(steps []StepResult) (total int, byName map[string]int) {
	byName = make(map[string]int)
	for _, step := range steps {
		for _, call := range step.ToolCalls {
			total++
			byName[call.ToolName]++
		}
	}
	return total, byName
}
