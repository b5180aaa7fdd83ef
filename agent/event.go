package agent

import "fmt"

// EventType is emitted by the runtime and step executor for observability
// and streaming sinks (§6: "structured events, span begin/end per step,
// per LLM call, per tool call").
type EventType string

const (
	EventTypeRunStarted        EventType = "run_started"
	EventTypeStepStarted       EventType = "step_started"
	EventTypeModelCallStarted  EventType = "model_call_started"
	EventTypeModelCallDelta    EventType = "model_call_delta"
	EventTypeModelCallFinished EventType = "model_call_finished"
	EventTypeToolCallStarted   EventType = "tool_call_started"
	EventTypeToolCallFinished  EventType = "tool_call_finished"
	EventTypeStepFinished      EventType = "step_finished"
	EventTypeRunCompleted      EventType = "run_completed"
	EventTypeRunFailed         EventType = "run_failed"
	EventTypeRunCancelled      EventType = "run_cancelled"
)

// Event is intentionally compact so adapters can map it to logs, metrics,
// or trace spans without reaching back into run state.
type Event struct {
	RunID       RunID
	Step        int
	Type        EventType
	Message     *Message
	ToolCall    *ToolCall
	ToolResult  *ToolResult
	TextDelta   string
	Err         error
	Description string
}

// ErrEventInvalid is the base error for ValidateEvent failures.
var ErrEventInvalid = fmt.Errorf("invalid event")

// ValidateEvent checks event payload invariants before publish boundaries.
func ValidateEvent(event Event) error {
	if event.Type == "" {
		return fmt.Errorf("%w: field=type reason=empty", ErrEventInvalid)
	}
	if event.RunID == "" {
		return fmt.Errorf("%w: field=run_id reason=empty type=%s", ErrEventInvalid, event.Type)
	}
	if event.Step < 0 {
		return fmt.Errorf("%w: field=step reason=negative value=%d type=%s run_id=%q", ErrEventInvalid, event.Step, event.Type, event.RunID)
	}

	switch event.Type {
	case EventTypeModelCallFinished:
		if event.Message == nil {
			return fmt.Errorf("%w: field=message reason=nil type=%s run_id=%q step=%d", ErrEventInvalid, event.Type, event.RunID, event.Step)
		}
	case EventTypeToolCallStarted:
		if event.ToolCall == nil {
			return fmt.Errorf("%w: field=tool_call reason=nil type=%s run_id=%q step=%d", ErrEventInvalid, event.Type, event.RunID, event.Step)
		}
	case EventTypeToolCallFinished:
		if event.ToolResult == nil {
			return fmt.Errorf("%w: field=tool_result reason=nil type=%s run_id=%q step=%d", ErrEventInvalid, event.Type, event.RunID, event.Step)
		}
		if event.ToolResult.CallID == "" {
			return fmt.Errorf("%w: field=tool_result.call_id reason=empty type=%s run_id=%q step=%d", ErrEventInvalid, event.Type, event.RunID, event.Step)
		}
	}
	return nil
}

// cloneEvent returns a deep copy of an event, used by in-memory sinks that
// must not alias caller-owned message/result pointers.
func cloneEvent(in Event) Event {
	out := in
	if in.Message != nil {
		message := CloneMessage(*in.Message)
		out.Message = &message
	}
	if in.ToolCall != nil {
		call := CloneToolCall(*in.ToolCall)
		out.ToolCall = &call
	}
	if in.ToolResult != nil {
		result := *in.ToolResult
		result.Content = append([]ContentBlock(nil), in.ToolResult.Content...)
		out.ToolResult = &result
	}
	return out
}

// CloneEvent exposes cloneEvent to other packages (eventing adapters).
func CloneEvent(in Event) Event {
	return cloneEvent(in)
}
