// Package agent defines the canonical, provider-independent message, tool,
// and run-result types shared by every other package in this module.
package agent

import (
	"strings"
	"time"
)

// Role identifies the author of a message in the conversation transcript.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ContentBlockType discriminates the shape of a ContentBlock.
type ContentBlockType string

const (
	ContentBlockText     ContentBlockType = "text"
	ContentBlockImage    ContentBlockType = "image"
	ContentBlockResource ContentBlockType = "resource"
)

// ContentBlock is one typed fragment of a multimodal message or tool result.
type ContentBlock struct {
	Type     ContentBlockType `json:"type"`
	Text     string           `json:"text,omitempty"`
	Data     string           `json:"data,omitempty"`
	MimeType string           `json:"mime_type,omitempty"`
	URI      string           `json:"uri,omitempty"`
}

// TextBlock is a convenience constructor for the common text-only case.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: ContentBlockText, Text: text}
}

// ImageBlock constructs a base64-encoded image content block.
func ImageBlock(data, mimeType string) ContentBlock {
	return ContentBlock{Type: ContentBlockImage, Data: data, MimeType: mimeType}
}

// ResourceBlock constructs a resource-reference content block.
func ResourceBlock(uri, text string) ContentBlock {
	return ContentBlock{Type: ContentBlockResource, URI: uri, Text: text}
}

// Message is the shared transport object passed between the runtime, the
// model client, and tools. Every message has a unique identifier, a UTC
// creation timestamp, and a free-form metadata map. Messages are immutable
// once appended to memory; callers that need to mutate first clone.
type Message struct {
	ID         string         `json:"id"`
	Role       Role           `json:"role"`
	CreatedAt  time.Time      `json:"created_at"`
	Content    []ContentBlock `json:"content,omitempty"`
	Name       string         `json:"name,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall     `json:"tool_calls,omitempty"`
	Usage      *UsageStats    `json:"usage,omitempty"`
	IsError    bool           `json:"is_error,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Text flattens the message content to a single string by concatenating
// every text content block. Non-text blocks are ignored; callers that need
// the full multimodal payload should read Content directly.
func (m Message) Text() string {
	if len(m.Content) == 0 {
		return ""
	}
	var b strings.Builder
	for _, block := range m.Content {
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

// NewSystemMessage builds a plain-text system instruction message.
func NewSystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: []ContentBlock{TextBlock(text)}}
}

// NewUserMessage builds a plain-text user message.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{TextBlock(text)}}
}

// NewUserMessageParts builds a multimodal user message from content blocks.
func NewUserMessageParts(blocks ...ContentBlock) Message {
	return Message{Role: RoleUser, Content: blocks}
}

// NewAssistantMessage builds an assistant message with optional tool calls.
func NewAssistantMessage(text string, toolCalls []ToolCall) Message {
	var content []ContentBlock
	if text != "" {
		content = []ContentBlock{TextBlock(text)}
	}
	return Message{Role: RoleAssistant, Content: content, ToolCalls: toolCalls}
}

// CloneMessage returns a deep copy suitable for isolation across component
// boundaries (memory snapshots, event publication, provider payloads).
func CloneMessage(in Message) Message {
	out := in
	if len(in.Content) > 0 {
		out.Content = append([]ContentBlock(nil), in.Content...)
	}
	if len(in.ToolCalls) > 0 {
		out.ToolCalls = make([]ToolCall, len(in.ToolCalls))
		for i := range in.ToolCalls {
			out.ToolCalls[i] = CloneToolCall(in.ToolCalls[i])
		}
	}
	if in.Usage != nil {
		usage := *in.Usage
		out.Usage = &usage
	}
	if in.Metadata != nil {
		out.Metadata = make(map[string]any, len(in.Metadata))
		for k, v := range in.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// CloneMessages returns deep copies of all messages, preserving order.
func CloneMessages(in []Message) []Message {
	out := make([]Message, len(in))
	for i := range in {
		out[i] = CloneMessage(in[i])
	}
	return out
}
