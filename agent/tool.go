package agent

import (
	"maps"
	"strings"
)

// ToolDefinition declares a callable capability exposed to the model. The
// InputSchema is the authoritative definition of the tool's arguments;
// provider-specific wire forms are derived from it, never hand-maintained
// separately.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}

// ToolCall is requested by an assistant message and executed by a
// ToolExecutor. ID is the provider-stable call identifier.
//
// ArgDecodeErr is set instead of Arguments when a provider emitted a
// tool call whose arguments payload failed to parse as JSON. It is
// never sent to a provider and never serialized; the step executor
// checks it to record an error ToolResult without ever dispatching the
// call to its ToolExecutor.
type ToolCall struct {
	ID           string                  `json:"id"`
	Name         string                  `json:"name"`
	Arguments    map[string]any          `json:"arguments,omitempty"`
	ArgDecodeErr *ToolArgumentDecodeError `json:"-"`
}

// ToolResult is the normalized output produced by a tool execution. It
// always carries at least one content block, even on failure.
type ToolResult struct {
	CallID  string         `json:"call_id"`
	Name    string         `json:"name"`
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"is_error,omitempty"`
}

// Text flattens the result content to a single string, the form stored on
// ToolCallRecord.Result and appended to provider wire-form tool messages.
func (r ToolResult) Text() string {
	var b strings.Builder
	for _, block := range r.Content {
		if block.Type != ContentBlockText {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(block.Text)
	}
	return b.String()
}

// TextResult builds a single-block text ToolResult.
func TextResult(callID, name, text string, isError bool) ToolResult {
	return ToolResult{
		CallID:  callID,
		Name:    name,
		Content: []ContentBlock{TextBlock(text)},
		IsError: isError,
	}
}

// ToolResultMessage converts a tool result to a transcript message.
func ToolResultMessage(result ToolResult) Message {
	return Message{
		Role:       RoleTool,
		Name:       result.Name,
		ToolCallID: result.CallID,
		Content:    append([]ContentBlock(nil), result.Content...),
		IsError:    result.IsError,
	}
}

// CloneToolCall returns a deep copy of a tool call.
func CloneToolCall(in ToolCall) ToolCall {
	out := in
	if in.Arguments != nil {
		out.Arguments = make(map[string]any, len(in.Arguments))
		maps.Copy(out.Arguments, in.Arguments)
	}
	if in.ArgDecodeErr != nil {
		decodeErr := *in.ArgDecodeErr
		out.ArgDecodeErr = &decodeErr
	}
	return out
}

// CloneToolDefinition returns a deep copy of a tool definition.
func CloneToolDefinition(in ToolDefinition) ToolDefinition {
	out := in
	if in.InputSchema != nil {
		out.InputSchema = make(map[string]any, len(in.InputSchema))
		maps.Copy(out.InputSchema, in.InputSchema)
	}
	return out
}

// CloneToolDefinitions returns deep copies of all tool definitions.
func CloneToolDefinitions(in []ToolDefinition) []ToolDefinition {
	out := make([]ToolDefinition, len(in))
	for i := range in {
		out[i] = CloneToolDefinition(in[i])
	}
	return out
}

// ToolFunctionWire is the `function` object of a function-calling tool
// schema wire form.
type ToolFunctionWire struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ToolSchemaWire is the wire form handed to a function-calling LLM, per
// the canonical `{"type":"function","function":{...}}` shape.
type ToolSchemaWire struct {
	Type     string           `json:"type"`
	Function ToolFunctionWire `json:"function"`
}

// ToolDefinitionsWireForm derives provider wire-form tool schemas from the
// canonical ToolDefinition list.
func ToolDefinitionsWireForm(defs []ToolDefinition) []ToolSchemaWire {
	out := make([]ToolSchemaWire, len(defs))
	for i, def := range defs {
		out[i] = ToolSchemaWire{
			Type: "function",
			Function: ToolFunctionWire{
				Name:        def.Name,
				Description: def.Description,
				Parameters:  def.InputSchema,
			},
		}
	}
	return out
}

// IndexToolDefinitions builds a name-keyed lookup map for O(1) validation
// during tool dispatch.
func IndexToolDefinitions(defs []ToolDefinition) map[string]ToolDefinition {
	out := make(map[string]ToolDefinition, len(defs))
	for _, def := range defs {
		out[def.Name] = def
	}
	return out
}
