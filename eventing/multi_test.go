package eventing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/opsloop/agentrt/agent"
	"github.com/opsloop/agentrt/eventing"
	"github.com/opsloop/agentrt/eventing/inmem"
)

type failingSink struct{ err error }

func (f failingSink) Publish(context.Context, agent.Event) error { return f.err }

func TestMulti_FansOutToEverySink(t *testing.T) {
	t.Parallel()
	a, b := inmem.New(), inmem.New()
	sink := eventing.Multi(a, b)

	event := agent.Event{RunID: "run-1", Type: agent.EventTypeRunStarted}
	if err := sink.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(a.Events()) != 1 || len(b.Events()) != 1 {
		t.Fatalf("expected both sinks to receive the event, got %d and %d", len(a.Events()), len(b.Events()))
	}
}

func TestMulti_ContinuesPastFailingSinkAndJoinsErrors(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	ok := inmem.New()
	sink := eventing.Multi(failingSink{err: boom}, ok)

	event := agent.Event{RunID: "run-1", Type: agent.EventTypeRunStarted}
	err := sink.Publish(context.Background(), event)
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to contain boom, got %v", err)
	}
	if len(ok.Events()) != 1 {
		t.Fatalf("expected second sink to still receive the event, got %d", len(ok.Events()))
	}
}

func TestMulti_SkipsNilSinks(t *testing.T) {
	t.Parallel()
	sink := eventing.Multi(nil, inmem.New())
	if err := sink.Publish(context.Background(), agent.Event{RunID: "run-1", Type: agent.EventTypeRunStarted}); err != nil {
		t.Fatalf("publish: %v", err)
	}
}
