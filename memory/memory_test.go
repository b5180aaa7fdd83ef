package memory_test

import (
	"context"
	"testing"

	"github.com/opsloop/agentrt/agent"
	"github.com/opsloop/agentrt/memory"
)

func TestUnbounded_AppendAndSnapshot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m := memory.NewUnbounded()
	if err := m.Append(ctx, agent.NewSystemMessage("be helpful")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := m.Append(ctx, agent.NewUserMessage("hi")); err != nil {
		t.Fatalf("append: %v", err)
	}

	snapshot, err := m.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snapshot) != 2 {
		t.Fatalf("unexpected snapshot length: %d", len(snapshot))
	}
	if m.Len(ctx) != 2 {
		t.Fatalf("unexpected len: %d", m.Len(ctx))
	}

	snapshot[0].Content = nil
	again, _ := m.Snapshot(ctx)
	if again[0].Text() != "be helpful" {
		t.Fatalf("snapshot mutation leaked into memory: %+v", again[0])
	}
}

func TestWindow_NeverEvictsLeadingSystemMessage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	w := memory.NewWindow(2)
	mustAppend(t, w, agent.NewSystemMessage("system"))
	mustAppend(t, w, agent.NewUserMessage("one"))
	mustAppend(t, w, agent.NewUserMessage("two"))
	mustAppend(t, w, agent.NewUserMessage("three"))

	snapshot, _ := w.Snapshot(ctx)
	if len(snapshot) != 3 {
		t.Fatalf("expected system + 2 retained messages, got %d", len(snapshot))
	}
	if snapshot[0].Role != agent.RoleSystem {
		t.Fatalf("expected system message retained at index 0, got %+v", snapshot[0])
	}
	if snapshot[1].Text() != "two" || snapshot[2].Text() != "three" {
		t.Fatalf("expected oldest non-system messages evicted, got %+v", snapshot)
	}
}

func TestTokenBudget_EvictsOldestUntilUnderLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	counter := func(messages []agent.Message) int {
		total := 0
		for _, m := range messages {
			total += len(m.Text())
		}
		return total
	}

	tb := memory.NewTokenBudget(10, counter)
	mustAppend(t, tb, agent.NewSystemMessage("0123456789012345"))
	mustAppend(t, tb, agent.NewUserMessage("abc"))
	mustAppend(t, tb, agent.NewUserMessage("defgh"))

	count, err := tb.ApproxTokenCount(ctx)
	if err != nil {
		t.Fatalf("approx token count: %v", err)
	}
	if count > 10+16 {
		t.Fatalf("expected eviction of non-system messages to bring count down, got %d", count)
	}

	snapshot, _ := tb.Snapshot(ctx)
	if snapshot[0].Role != agent.RoleSystem {
		t.Fatalf("expected system message retained, got %+v", snapshot[0])
	}
}

func mustAppend(t *testing.T, m agent.Memory, message agent.Message) {
	t.Helper()
	if err := m.Append(context.Background(), message); err != nil {
		t.Fatalf("append: %v", err)
	}
}
