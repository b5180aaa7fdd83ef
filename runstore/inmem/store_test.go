package inmem_test

import (
	"context"
	"errors"
	"testing"

	"github.com/opsloop/agentrt/agent"
	"github.com/opsloop/agentrt/runstore/inmem"
)

func TestStore_SaveThenLoadRoundTrips(t *testing.T) {
	t.Parallel()

	store := inmem.New()
	result := agent.AgentRunResult{RunID: "run-1", Status: agent.RunStatusCompleted, Output: "done"}
	if err := store.Save(context.Background(), result); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Output != "done" || loaded.Status != agent.RunStatusCompleted {
		t.Fatalf("unexpected loaded result: %+v", loaded)
	}
}

func TestStore_LoadUnknownRunFails(t *testing.T) {
	t.Parallel()

	store := inmem.New()
	_, err := store.Load(context.Background(), "missing")
	if !errors.Is(err, agent.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestStore_SaveClonesResultSoCallerMutationDoesNotLeak(t *testing.T) {
	t.Parallel()

	store := inmem.New()
	thought := "original"
	result := agent.AgentRunResult{
		RunID:  "run-1",
		Status: agent.RunStatusCompleted,
		Steps:  []agent.StepResult{{Step: 1, Thought: &thought}},
	}
	if err := store.Save(context.Background(), result); err != nil {
		t.Fatalf("save: %v", err)
	}

	*result.Steps[0].Thought = "mutated"

	loaded, err := store.Load(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *loaded.Steps[0].Thought != "original" {
		t.Fatalf("expected stored snapshot unaffected by caller mutation, got %q", *loaded.Steps[0].Thought)
	}
}
