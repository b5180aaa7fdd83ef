package agent

import (
	"encoding/json"
	"fmt"
	"time"
)

// wireToolCall is the function-calling wire shape for one assistant
// tool-call request: {id, type, function:{name, arguments:<JSON string>}}.
type wireToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// wireMessage is the shape sent to a function-calling LLM provider.
// Identifiers and timestamps are not carried; decoding a wireMessage is
// lossy-but-sufficient, per §4.A.
type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content,omitempty"`
	Name       string         `json:"name,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
}

// EncodeWireForm derives the provider payload shape from a canonical
// message. Tool-call arguments are re-encoded to a JSON string, matching
// the function-calling convention.
func EncodeWireForm(m Message) ([]byte, error) {
	wire := wireMessage{
		Role:       string(m.Role),
		Content:    m.Text(),
		Name:       m.Name,
		ToolCallID: m.ToolCallID,
	}
	if len(m.ToolCalls) > 0 {
		wire.ToolCalls = make([]wireToolCall, len(m.ToolCalls))
		for i, call := range m.ToolCalls {
			arguments, err := json.Marshal(call.Arguments)
			if err != nil {
				return nil, fmt.Errorf("encode wire form: encode arguments for call %q: %w", call.ID, err)
			}
			wire.ToolCalls[i] = wireToolCall{ID: call.ID, Type: "function"}
			wire.ToolCalls[i].Function.Name = call.Name
			wire.ToolCalls[i].Function.Arguments = string(arguments)
		}
	}
	return json.Marshal(wire)
}

// DecodeWireForm ingests a provider payload message, generating an id and
// timestamp since the wire form does not carry them. Decoding a malformed
// wire-form message fails with *MessageDecodeError.
func DecodeWireForm(data []byte, idGen func() string) (Message, error) {
	var wire wireMessage
	if err := json.Unmarshal(data, &wire); err != nil {
		return Message{}, &MessageDecodeError{Reason: fmt.Sprintf("wire form: %v", err)}
	}
	if wire.Role == "" {
		return Message{}, &MessageDecodeError{Reason: "wire form: missing role"}
	}

	message := Message{
		ID:         idGen(),
		Role:       Role(wire.Role),
		CreatedAt:  time.Now().UTC(),
		Name:       wire.Name,
		ToolCallID: wire.ToolCallID,
	}
	if wire.Content != "" {
		message.Content = []ContentBlock{TextBlock(wire.Content)}
	}
	if len(wire.ToolCalls) > 0 {
		message.ToolCalls = make([]ToolCall, len(wire.ToolCalls))
		for i, call := range wire.ToolCalls {
			var arguments map[string]any
			if call.Function.Arguments != "" {
				if err := json.Unmarshal([]byte(call.Function.Arguments), &arguments); err != nil {
					return Message{}, &MessageDecodeError{
						Reason: fmt.Sprintf("wire form: tool call %q arguments: %v", call.ID, err),
					}
				}
			}
			message.ToolCalls[i] = ToolCall{ID: call.ID, Name: call.Function.Name, Arguments: arguments}
		}
	}
	return message, nil
}
