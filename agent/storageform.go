package agent

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// storageMessage is the full checkpoint-suitable record: id, timestamp,
// metadata, and role-specific fields all present. Decoding a storageMessage
// is lossless; it is the form used by RunStore adapters.
type storageMessage struct {
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

// EncodeStorageForm serializes a message to its full checkpoint record.
func EncodeStorageForm(m Message) ([]byte, error) {
	return json.Marshal(storageMessage(m))
}

// DecodeStorageForm parses a full checkpoint record back into a Message.
// Missing id/created_at are filled in on ingest (generation on ingest is
// permitted by the lossy-but-sufficient contract for wire form; storage
// form round-trips losslessly when both were present).
func DecodeStorageForm(data []byte) (Message, error) {
	var stored storageMessage
	if err := json.Unmarshal(data, &stored); err != nil {
		return Message{}, &MessageDecodeError{Reason: fmt.Sprintf("storage form: %v", err)}
	}
	if stored.Role == "" {
		return Message{}, &MessageDecodeError{Reason: "storage form: missing role"}
	}
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	return Message(stored), nil
}
