// Package eventing holds composition helpers for agent.EventSink, letting
// a runner publish to more than one observability backend at once.
package eventing

import (
	"context"
	"errors"

	"github.com/opsloop/agentrt/agent"
)

// Multi fans a single event out to every sink in order, continuing past
// individual sink failures and returning their combined error.
type multiSink struct {
	sinks []agent.EventSink
}

var _ agent.EventSink = (*multiSink)(nil)

// Multi combines any number of sinks into one. Nil sinks are skipped.
func Multi(sinks ...agent.EventSink) agent.EventSink {
	nonNil := make([]agent.EventSink, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			nonNil = append(nonNil, sink)
		}
	}
	if len(nonNil) == 1 {
		return nonNil[0]
	}
	return &multiSink{sinks: nonNil}
}

func (m *multiSink) Publish(ctx context.Context, event agent.Event) error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
