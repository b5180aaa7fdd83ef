// Package memory provides conversation-memory strategies satisfying
// agent.Memory: an ordered, append-only log of messages with a retrieval
// view and an optional token budget. System instructions at index 0 are
// never evicted by any strategy in this package.
package memory

import (
	"context"
	"sync"

	"github.com/opsloop/agentrt/agent"
)

// Unbounded keeps every appended message; no eviction ever happens. This
// is the simplest strategy and the default for short-lived runs.
type Unbounded struct {
	mu       sync.RWMutex
	messages []agent.Message
}

var _ agent.Memory = (*Unbounded)(nil)

// NewUnbounded constructs an empty Unbounded memory.
func NewUnbounded() *Unbounded {
	return &Unbounded{}
}

func (m *Unbounded) Append(_ context.Context, message agent.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, agent.CloneMessage(message))
	return nil
}

func (m *Unbounded) Snapshot(_ context.Context) ([]agent.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return agent.CloneMessages(m.messages), nil
}

func (m *Unbounded) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
	return nil
}

func (m *Unbounded) ApproxTokenCount(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return approxTokenCount(m.messages), nil
}

func (m *Unbounded) Len(_ context.Context) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}

// approxTokenCount is the fallback heuristic (~4 chars/token) used when no
// TokenCounter is wired in. Adapters that need the ±5% contract from §4.C
// should use a real tokenizer (see model/openai, whose CountTokens uses
// tiktoken-go) rather than this estimate.
func approxTokenCount(messages []agent.Message) int {
	chars := 0
	for _, message := range messages {
		chars += len(message.Text())
		for _, call := range message.ToolCalls {
			chars += len(call.Name)
			for k, v := range call.Arguments {
				chars += len(k)
				if s, ok := v.(string); ok {
					chars += len(s)
				}
			}
		}
	}
	return chars / 4
}
