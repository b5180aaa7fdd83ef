package memory

import (
	"context"
	"sync"

	"github.com/opsloop/agentrt/agent"
)

// TokenCountFunc approximates the token cost of a message slice. Adapters
// typically bind this to a model client's CountTokens (§4.C).
type TokenCountFunc func(messages []agent.Message) int

// TokenBudget evicts the oldest non-system messages until the remaining
// transcript's approximate token count is at or below Limit. The system
// instruction at index 0, if present, is never evicted, even if it alone
// exceeds the budget.
type TokenBudget struct {
	mu       sync.RWMutex
	limit    int
	counter  TokenCountFunc
	messages []agent.Message
}

var _ agent.Memory = (*TokenBudget)(nil)

// NewTokenBudget constructs a TokenBudget memory. If counter is nil, the
// package's character-based heuristic is used.
func NewTokenBudget(limit int, counter TokenCountFunc) *TokenBudget {
	if counter == nil {
		counter = approxTokenCount
	}
	return &TokenBudget{limit: limit, counter: counter}
}

func (m *TokenBudget) Append(_ context.Context, message agent.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, agent.CloneMessage(message))
	m.evictLocked()
	return nil
}

func (m *TokenBudget) evictLocked() {
	if m.limit <= 0 {
		return
	}
	systemOffset := 0
	if len(m.messages) > 0 && m.messages[0].Role == agent.RoleSystem {
		systemOffset = 1
	}
	for m.counter(m.messages) > m.limit {
		if len(m.messages) <= systemOffset {
			return
		}
		m.messages = append(m.messages[:systemOffset], m.messages[systemOffset+1:]...)
	}
}

func (m *TokenBudget) Snapshot(_ context.Context) ([]agent.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return agent.CloneMessages(m.messages), nil
}

func (m *TokenBudget) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
	return nil
}

func (m *TokenBudget) ApproxTokenCount(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counter(m.messages), nil
}

func (m *TokenBudget) Len(_ context.Context) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}
