package agent_test

import (
	"testing"

	"github.com/opsloop/agentrt/agent"
)

func TestEncodeDecodeWireForm_RoundTripsContent(t *testing.T) {
	t.Parallel()

	original := agent.NewAssistantMessage("hello", []agent.ToolCall{
		{ID: "call-1", Name: "add", Arguments: map[string]any{"a": float64(1)}},
	})

	encoded, err := agent.EncodeWireForm(original)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	decoded, err := agent.DecodeWireForm(encoded, func() string { return "generated-id" })
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Role != agent.RoleAssistant || decoded.Text() != "hello" {
		t.Fatalf("unexpected decoded message: %+v", decoded)
	}
	if len(decoded.ToolCalls) != 1 || decoded.ToolCalls[0].Name != "add" {
		t.Fatalf("unexpected decoded tool calls: %+v", decoded.ToolCalls)
	}
	if decoded.ID != "generated-id" {
		t.Fatalf("expected generated id to be used, got %q", decoded.ID)
	}
}

func TestDecodeWireForm_MalformedPayloadFails(t *testing.T) {
	t.Parallel()

	_, err := agent.DecodeWireForm([]byte("{not json"), func() string { return "x" })
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if _, ok := err.(*agent.MessageDecodeError); !ok {
		t.Fatalf("expected *agent.MessageDecodeError, got %T", err)
	}
}

func TestStorageForm_RoundTripsLosslessly(t *testing.T) {
	t.Parallel()

	original := agent.NewUserMessage("what's 2+2?")
	original.ID = "msg-1"

	encoded, err := agent.EncodeStorageForm(original)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := agent.DecodeStorageForm(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ID != "msg-1" || decoded.Text() != "what's 2+2?" {
		t.Fatalf("unexpected round trip: %+v", decoded)
	}
}
