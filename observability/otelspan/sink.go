// Package otelspan adapts agent.EventSink to OpenTelemetry tracing,
// opening one span per step, one child span per model call, and one
// child span per tool call, closing each on its matching *_finished
// event. Callers configure the global TracerProvider themselves (the
// sink only calls otel.Tracer); wiring an exporter is the binary's
// responsibility, not this package's.
package otelspan

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/opsloop/agentrt/agent"
)

// Sink is an agent.EventSink that begins and ends spans per step, per
// model call, and per tool call.
type Sink struct {
	tracer trace.Tracer
	mu     sync.Mutex
	spans  map[string]openSpan
}

type openSpan struct {
	ctx  context.Context
	span trace.Span
}

var _ agent.EventSink = (*Sink)(nil)

// New constructs a Sink using the named tracer from the global
// TracerProvider.
func New(tracerName string) *Sink {
	return &Sink{
		tracer: otel.Tracer(tracerName),
		spans:  make(map[string]openSpan),
	}
}

func (s *Sink) Publish(ctx context.Context, event agent.Event) error {
	switch event.Type {
	case agent.EventTypeStepStarted:
		s.begin(ctx, stepKey(event), "agent.step", attribute.Int("step", event.Step))
	case agent.EventTypeStepFinished:
		s.end(stepKey(event), nil)

	case agent.EventTypeModelCallStarted:
		s.begin(ctx, modelKey(event), "agent.model_call", attribute.Int("step", event.Step))
	case agent.EventTypeModelCallFinished:
		s.end(modelKey(event), nil)

	case agent.EventTypeToolCallStarted:
		name := ""
		if event.ToolCall != nil {
			name = event.ToolCall.Name
		}
		s.begin(ctx, toolKey(event), fmt.Sprintf("agent.tool_call.%s", name), attribute.String("tool.name", name))
	case agent.EventTypeToolCallFinished:
		var err error
		if event.ToolResult != nil && event.ToolResult.IsError {
			err = fmt.Errorf("%s", event.ToolResult.Text())
		}
		s.end(toolKey(event), err)

	case agent.EventTypeRunFailed, agent.EventTypeRunCancelled:
		s.endAllForRun(event.RunID, fmt.Errorf("%s", event.Description))
	case agent.EventTypeRunCompleted:
		s.endAllForRun(event.RunID, nil)
	}
	return nil
}

func (s *Sink) begin(ctx context.Context, key string, name string, attrs ...attribute.KeyValue) {
	spanCtx, span := s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	s.mu.Lock()
	s.spans[key] = openSpan{ctx: spanCtx, span: span}
	s.mu.Unlock()
}

func (s *Sink) end(key string, err error) {
	s.mu.Lock()
	open, ok := s.spans[key]
	delete(s.spans, key)
	s.mu.Unlock()
	if !ok {
		return
	}
	if err != nil {
		open.span.RecordError(err)
		open.span.SetStatus(codes.Error, err.Error())
	}
	open.span.End()
}

func (s *Sink) endAllForRun(runID agent.RunID, err error) {
	s.mu.Lock()
	var keys []string
	for key := range s.spans {
		if keyRunID(key) == string(runID) {
			keys = append(keys, key)
		}
	}
	s.mu.Unlock()
	for _, key := range keys {
		s.end(key, err)
	}
}

func stepKey(event agent.Event) string {
	return fmt.Sprintf("%s/step/%d", event.RunID, event.Step)
}

func modelKey(event agent.Event) string {
	return fmt.Sprintf("%s/model/%d", event.RunID, event.Step)
}

func toolKey(event agent.Event) string {
	callID := ""
	if event.ToolCall != nil {
		callID = event.ToolCall.ID
	}
	if event.ToolResult != nil {
		callID = event.ToolResult.CallID
	}
	return fmt.Sprintf("%s/tool/%d/%s", event.RunID, event.Step, callID)
}

func keyRunID(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			return key[:i]
		}
	}
	return key
}
