// Package inmem provides a process-memory runstore.Store, useful for the
// demonstration server and for tests.
package inmem

import (
	"context"
	"sync"

	"github.com/opsloop/agentrt/agent"
	"github.com/opsloop/agentrt/runstore"
)

// Store persists run results in memory, keyed by RunID.
type Store struct {
	mu      sync.RWMutex
	results map[agent.RunID]agent.AgentRunResult
}

var _ runstore.Store = (*Store)(nil)

func New() *Store {
	return &Store{results: make(map[agent.RunID]agent.AgentRunResult)}
}

func (s *Store) Save(_ context.Context, result agent.AgentRunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.RunID] = agent.CloneAgentRunResult(result)
	return nil
}

func (s *Store) Load(_ context.Context, runID agent.RunID) (agent.AgentRunResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[runID]
	if !ok {
		return agent.AgentRunResult{}, agent.ErrRunNotFound
	}
	return agent.CloneAgentRunResult(result), nil
}
