package agent_test

import (
	"testing"

	"github.com/opsloop/agentrt/agent"
)

func TestParseToolCall_Canonical(t *testing.T) {
	t.Parallel()

	parsed, err := agent.ParseToolCall(agent.ToolCall{
		ID:        "call-1",
		Name:      "add",
		Arguments: map[string]any{"a": float64(2), "b": float64(3)},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.CallID != "call-1" || parsed.Name != "add" {
		t.Fatalf("unexpected parsed call: %+v", parsed)
	}
}

func TestParseToolCall_FunctionCallingShape(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"id": "call-2",
		"function": map[string]any{
			"name":      "add",
			"arguments": `{"a":2,"b":3}`,
		},
	}
	parsed, err := agent.ParseToolCall(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.CallID != "call-2" || parsed.Name != "add" {
		t.Fatalf("unexpected parsed call: %+v", parsed)
	}
	if parsed.Arguments["a"] != float64(2) {
		t.Fatalf("unexpected arguments: %+v", parsed.Arguments)
	}
}

func TestParseToolCall_MCPShape(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"name":  "lookup",
		"input": map[string]any{"query": "go"},
	}
	parsed, err := agent.ParseToolCall(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.Name != "lookup" {
		t.Fatalf("unexpected name: %q", parsed.Name)
	}
	if parsed.CallID == "" {
		t.Fatalf("expected a synthesized call id")
	}
	if parsed.Arguments["query"] != "go" {
		t.Fatalf("unexpected arguments: %+v", parsed.Arguments)
	}
}

func TestParseToolCall_MalformedArgumentsReturnsDecodeError(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"id": "call-3",
		"function": map[string]any{
			"name":      "echo",
			"arguments": "{not json",
		},
	}
	_, err := agent.ParseToolCall(raw)
	if err == nil {
		t.Fatalf("expected a decode error")
	}
	var decodeErr *agent.ToolArgumentDecodeError
	if !asToolArgumentDecodeError(err, &decodeErr) {
		t.Fatalf("expected *agent.ToolArgumentDecodeError, got %T: %v", err, err)
	}
	if decodeErr.CallID != "call-3" || decodeErr.Name != "echo" {
		t.Fatalf("unexpected decode error: %+v", decodeErr)
	}
}

func asToolArgumentDecodeError(err error, target **agent.ToolArgumentDecodeError) bool {
	decodeErr, ok := err.(*agent.ToolArgumentDecodeError)
	if !ok {
		return false
	}
	*target = decodeErr
	return true
}

func TestParseToolCall_SynthesizesStableCallIDWhenAbsent(t *testing.T) {
	t.Parallel()

	parsed, err := agent.ParseToolCall(map[string]any{"name": "noop"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed.CallID == "" {
		t.Fatalf("expected a synthesized call id")
	}
	other, err := agent.ParseToolCall(map[string]any{"name": "noop"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other.CallID == parsed.CallID {
		t.Fatalf("expected distinct synthesized call ids, got %q twice", parsed.CallID)
	}
}
