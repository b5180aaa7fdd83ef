// Package inmem provides an in-memory agent.EventSink that retains every
// published event for later inspection, for tests and for a debugging
// endpoint backed by nothing more durable than process memory.
package inmem

import (
	"context"
	"sync"

	"github.com/opsloop/agentrt/agent"
)

// Sink captures runtime events in memory and exposes deterministic snapshots.
type Sink struct {
	mu     sync.RWMutex
	events []agent.Event
}

var _ agent.EventSink = (*Sink)(nil)

func New() *Sink {
	return &Sink{events: make([]agent.Event, 0)}
}

func (s *Sink) Publish(ctx context.Context, event agent.Event) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err := agent.ValidateEvent(event); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, agent.CloneEvent(event))
	return nil
}

// Events returns every event captured so far, across every run, in
// publish order.
func (s *Sink) Events() []agent.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]agent.Event, len(s.events))
	for i := range s.events {
		out[i] = agent.CloneEvent(s.events[i])
	}
	return out
}

// ForRun returns only the events captured for the given run, in order.
func (s *Sink) ForRun(runID agent.RunID) []agent.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]agent.Event, 0, len(s.events))
	for _, event := range s.events {
		if event.RunID == runID {
			out = append(out, agent.CloneEvent(event))
		}
	}
	return out
}
