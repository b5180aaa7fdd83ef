package memory

import (
	"context"
	"sync"

	"github.com/opsloop/agentrt/agent"
)

// Window retains at most Limit non-system messages, evicting the oldest
// first once the limit is exceeded. A leading system message at index 0,
// if present, is never counted against the limit and never evicted.
type Window struct {
	mu       sync.RWMutex
	limit    int
	messages []agent.Message
}

var _ agent.Memory = (*Window)(nil)

// NewWindow constructs a Window bounded to the given number of non-system
// messages. A non-positive limit is treated as 1.
func NewWindow(limit int) *Window {
	if limit < 1 {
		limit = 1
	}
	return &Window{limit: limit}
}

func (m *Window) Append(_ context.Context, message agent.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, agent.CloneMessage(message))
	m.evictLocked()
	return nil
}

func (m *Window) evictLocked() {
	systemOffset := 0
	if len(m.messages) > 0 && m.messages[0].Role == agent.RoleSystem {
		systemOffset = 1
	}
	nonSystem := len(m.messages) - systemOffset
	if nonSystem <= m.limit {
		return
	}
	drop := nonSystem - m.limit
	m.messages = append(m.messages[:systemOffset], m.messages[systemOffset+drop:]...)
}

func (m *Window) Snapshot(_ context.Context) ([]agent.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return agent.CloneMessages(m.messages), nil
}

func (m *Window) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = nil
	return nil
}

func (m *Window) ApproxTokenCount(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return approxTokenCount(m.messages), nil
}

func (m *Window) Len(_ context.Context) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages)
}
