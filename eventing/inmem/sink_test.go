package inmem_test

import (
	"context"
	"testing"

	"github.com/opsloop/agentrt/agent"
	eventinginmem "github.com/opsloop/agentrt/eventing/inmem"
)

func TestSink_EventsReturnsDeepClonedSnapshot(t *testing.T) {
	t.Parallel()

	sink := eventinginmem.New()
	message := agent.Message{Role: agent.RoleAssistant, Content: []agent.ContentBlock{agent.TextBlock("hello")}}
	toolResult := agent.ToolResult{CallID: "call-1", Name: "lookup", Content: []agent.ContentBlock{agent.TextBlock("result")}}

	input := agent.Event{
		RunID:      "run-1",
		Step:       1,
		Type:       agent.EventTypeModelCallFinished,
		Message:    &message,
		ToolResult: &toolResult,
	}
	if err := sink.Publish(context.Background(), input); err != nil {
		t.Fatalf("publish event: %v", err)
	}

	input.Message.Content[0].Text = "mutated"
	input.ToolResult.Content[0].Text = "mutated"

	snapshot := sink.Events()
	if len(snapshot) != 1 {
		t.Fatalf("unexpected snapshot length: %d", len(snapshot))
	}
	if snapshot[0].Message == nil || snapshot[0].Message.Text() != "hello" {
		t.Fatalf("unexpected message snapshot: %+v", snapshot[0].Message)
	}
	if snapshot[0].ToolResult == nil || snapshot[0].ToolResult.Text() != "result" {
		t.Fatalf("unexpected tool result snapshot: %+v", snapshot[0].ToolResult)
	}

	snapshot[0].Message.Content[0].Text = "changed"
	snapshot[0].ToolResult.Content[0].Text = "changed"

	next := sink.Events()
	if next[0].Message == nil || next[0].Message.Text() != "hello" {
		t.Fatalf("snapshot mutation leaked into sink message: %+v", next[0].Message)
	}
	if next[0].ToolResult == nil || next[0].ToolResult.Text() != "result" {
		t.Fatalf("snapshot mutation leaked into sink tool result: %+v", next[0].ToolResult)
	}
}

func TestSink_ForRunFiltersByRunID(t *testing.T) {
	t.Parallel()

	sink := eventinginmem.New()
	ctx := context.Background()
	_ = sink.Publish(ctx, agent.Event{RunID: "run-1", Type: agent.EventTypeRunStarted})
	_ = sink.Publish(ctx, agent.Event{RunID: "run-2", Type: agent.EventTypeRunStarted})
	_ = sink.Publish(ctx, agent.Event{RunID: "run-1", Type: agent.EventTypeRunCompleted})

	filtered := sink.ForRun("run-1")
	if len(filtered) != 2 {
		t.Fatalf("expected 2 events for run-1, got %d", len(filtered))
	}
	for _, event := range filtered {
		if event.RunID != "run-1" {
			t.Fatalf("unexpected run id in filtered result: %s", event.RunID)
		}
	}
}
