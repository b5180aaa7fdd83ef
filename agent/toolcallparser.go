package agent

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// ParsedToolCall is the normalized output of ParseToolCall: always a
// (call_id, name, arguments) triple regardless of the provider shape that
// produced it.
type ParsedToolCall struct {
	CallID    string
	Name      string
	Arguments map[string]any
}

// functionCallShape is the function-calling convention:
// {id, function:{name, arguments:<JSON string>}}.
type functionCallShape struct {
	ID       string `json:"id"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// mcpCallShape is the MCP convention: {name, input: <mapping>}.
type mcpCallShape struct {
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// ParseToolCall is the single normalizer that knows any provider tool-call
// shape. Input may be (i) a canonical ToolCall, (ii) a function-calling
// object, or (iii) an MCP object. If call_id is absent, a stable
// "tc_<uuid>" identifier is synthesized. If arguments arrive as a JSON
// string that fails to decode, ParseToolCall returns a
// *ToolArgumentDecodeError — callers must record this as an error
// ToolCallRecord and continue the loop, never abort it.
func ParseToolCall(raw any) (ParsedToolCall, error) {
	switch v := raw.(type) {
	case ToolCall:
		return parseCanonical(v)
	case *ToolCall:
		if v == nil {
			return ParsedToolCall{}, fmt.Errorf("parse tool call: nil canonical call")
		}
		return parseCanonical(*v)
	case map[string]any:
		return parseGenericMap(v)
	default:
		encoded, err := json.Marshal(raw)
		if err != nil {
			return ParsedToolCall{}, fmt.Errorf("parse tool call: unsupported shape %T", raw)
		}
		var generic map[string]any
		if err := json.Unmarshal(encoded, &generic); err != nil {
			return ParsedToolCall{}, fmt.Errorf("parse tool call: unsupported shape %T", raw)
		}
		return parseGenericMap(generic)
	}
}

func parseCanonical(call ToolCall) (ParsedToolCall, error) {
	return ParsedToolCall{
		CallID:    synthesizeCallIDIfEmpty(call.ID),
		Name:      call.Name,
		Arguments: call.Arguments,
	}, nil
}

func parseGenericMap(m map[string]any) (ParsedToolCall, error) {
	if _, hasFunction := m["function"]; hasFunction {
		return parseFunctionCallMap(m)
	}
	if _, hasInput := m["input"]; hasInput {
		return parseMCPMap(m)
	}
	// Fall back to canonical shape: {id, name, arguments}.
	id, _ := m["id"].(string)
	name, _ := m["name"].(string)
	arguments, _ := m["arguments"].(map[string]any)
	return ParsedToolCall{
		CallID:    synthesizeCallIDIfEmpty(id),
		Name:      name,
		Arguments: arguments,
	}, nil
}

func parseFunctionCallMap(m map[string]any) (ParsedToolCall, error) {
	encoded, err := json.Marshal(m)
	if err != nil {
		return ParsedToolCall{}, fmt.Errorf("parse tool call: encode function-call shape: %w", err)
	}
	var shape functionCallShape
	if err := json.Unmarshal(encoded, &shape); err != nil {
		return ParsedToolCall{}, fmt.Errorf("parse tool call: decode function-call shape: %w", err)
	}
	callID := synthesizeCallIDIfEmpty(shape.ID)
	arguments, err := DecodeToolArguments(callID, shape.Function.Name, shape.Function.Arguments)
	if err != nil {
		return ParsedToolCall{}, err
	}
	return ParsedToolCall{CallID: callID, Name: shape.Function.Name, Arguments: arguments}, nil
}

// DecodeToolArguments parses a tool call's raw JSON arguments payload
// (the function-calling convention's string-encoded object) into a map.
// An empty payload decodes to an empty map. A malformed payload returns
// a *ToolArgumentDecodeError carrying callID and name, never a bare
// error, so callers can record it as an error ToolResult and continue
// the loop instead of treating it as fatal.
func DecodeToolArguments(callID, name, raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var arguments map[string]any
	if err := json.Unmarshal([]byte(raw), &arguments); err != nil {
		return nil, &ToolArgumentDecodeError{CallID: callID, Name: name, Reason: err.Error()}
	}
	return arguments, nil
}

func parseMCPMap(m map[string]any) (ParsedToolCall, error) {
	encoded, err := json.Marshal(m)
	if err != nil {
		return ParsedToolCall{}, fmt.Errorf("parse tool call: encode mcp shape: %w", err)
	}
	var shape mcpCallShape
	if err := json.Unmarshal(encoded, &shape); err != nil {
		return ParsedToolCall{}, fmt.Errorf("parse tool call: decode mcp shape: %w", err)
	}
	id, _ := m["id"].(string)
	return ParsedToolCall{
		CallID:    synthesizeCallIDIfEmpty(id),
		Name:      shape.Name,
		Arguments: shape.Input,
	}, nil
}

func synthesizeCallIDIfEmpty(id string) string {
	if id != "" {
		return id
	}
	return "tc_" + uuid.NewString()
}
