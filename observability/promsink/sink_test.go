package promsink_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/opsloop/agentrt/agent"
	"github.com/opsloop/agentrt/observability/promsink"
)

func TestSink_RecordsToolCallOutcomeLabels(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	sink := promsink.New(reg)
	ctx := context.Background()

	call := agent.ToolCall{ID: "c1", Name: "search"}
	_ = sink.Publish(ctx, agent.Event{RunID: "r1", Step: 1, Type: agent.EventTypeToolCallStarted, ToolCall: &call})
	result := agent.TextResult("c1", "search", "ok", false)
	_ = sink.Publish(ctx, agent.Event{RunID: "r1", Step: 1, Type: agent.EventTypeToolCallFinished, ToolResult: &result})

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if !hasCounterWithLabel(families, "agentrt_tool_calls_total", "outcome", "ok") {
		t.Fatalf("expected a tool_calls_total series with outcome=ok, families=%+v", families)
	}
}

func TestSink_RecordsRunOutcome(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	sink := promsink.New(reg)

	_ = sink.Publish(context.Background(), agent.Event{RunID: "r1", Type: agent.EventTypeRunCompleted})

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if !hasCounterWithLabel(families, "agentrt_runs_total", "status", "completed") {
		t.Fatalf("expected a runs_total series with status=completed, families=%+v", families)
	}
}

func hasCounterWithLabel(families []*dto.MetricFamily, name, labelName, labelValue string) bool {
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == labelName && label.GetValue() == labelValue {
					return true
				}
			}
		}
	}
	return false
}
