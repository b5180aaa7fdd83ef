// Package promsink adapts agent.EventSink to Prometheus counters and
// histograms: run outcomes, step counts, tool-call latency, and model-call
// latency.
package promsink

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/opsloop/agentrt/agent"
)

// Sink is an agent.EventSink that records run and step metrics to a
// Prometheus registry.
type Sink struct {
	mu              sync.Mutex
	stepStarts      map[string]time.Time
	modelCallStarts map[string]time.Time
	toolCallStarts  map[string]time.Time

	runsTotal        *prometheus.CounterVec
	stepsTotal       prometheus.Counter
	toolCallsTotal   *prometheus.CounterVec
	toolCallDuration prometheus.Histogram
	modelCallDuration prometheus.Histogram
}

var _ agent.EventSink = (*Sink)(nil)

// New constructs a Sink and registers its metrics against reg.
func New(reg prometheus.Registerer) *Sink {
	s := &Sink{
		stepStarts:      make(map[string]time.Time),
		modelCallStarts: make(map[string]time.Time),
		toolCallStarts:  make(map[string]time.Time),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentrt",
			Name:      "runs_total",
			Help:      "Total number of agent runs by terminal status.",
		}, []string{"status"}),
		stepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "agentrt",
			Name:      "steps_total",
			Help:      "Total number of Think-Act-Observe steps executed.",
		}),
		toolCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentrt",
			Name:      "tool_calls_total",
			Help:      "Total number of tool calls executed, by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		toolCallDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agentrt",
			Name:      "tool_call_duration_seconds",
			Help:      "Tool call execution latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		modelCallDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "agentrt",
			Name:      "model_call_duration_seconds",
			Help:      "Model generate() call latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(s.runsTotal, s.stepsTotal, s.toolCallsTotal, s.toolCallDuration, s.modelCallDuration)
	return s
}

func (s *Sink) Publish(_ context.Context, event agent.Event) error {
	switch event.Type {
	case agent.EventTypeStepStarted:
		s.mu.Lock()
		s.stepStarts[stepKey(event)] = time.Now()
		s.mu.Unlock()
	case agent.EventTypeStepFinished:
		s.stepsTotal.Inc()
		s.clearStart(s.stepStarts, stepKey(event))

	case agent.EventTypeModelCallStarted:
		s.mu.Lock()
		s.modelCallStarts[modelKey(event)] = time.Now()
		s.mu.Unlock()
	case agent.EventTypeModelCallFinished:
		if start, ok := s.takeStart(s.modelCallStarts, modelKey(event)); ok {
			s.modelCallDuration.Observe(time.Since(start).Seconds())
		}

	case agent.EventTypeToolCallStarted:
		s.mu.Lock()
		s.toolCallStarts[toolKey(event)] = time.Now()
		s.mu.Unlock()
	case agent.EventTypeToolCallFinished:
		name, outcome := "", "ok"
		if event.ToolResult != nil {
			name = event.ToolResult.Name
			if event.ToolResult.IsError {
				outcome = "error"
			}
		}
		s.toolCallsTotal.WithLabelValues(name, outcome).Inc()
		if start, ok := s.takeStart(s.toolCallStarts, toolKey(event)); ok {
			s.toolCallDuration.Observe(time.Since(start).Seconds())
		}

	case agent.EventTypeRunCompleted:
		s.runsTotal.WithLabelValues(string(agent.RunStatusCompleted)).Inc()
	case agent.EventTypeRunFailed:
		s.runsTotal.WithLabelValues(string(agent.RunStatusError)).Inc()
	case agent.EventTypeRunCancelled:
		s.runsTotal.WithLabelValues(string(agent.RunStatusCancelled)).Inc()
	}
	return nil
}

func (s *Sink) takeStart(m map[string]time.Time, key string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start, ok := m[key]
	if ok {
		delete(m, key)
	}
	return start, ok
}

func (s *Sink) clearStart(m map[string]time.Time, key string) {
	s.mu.Lock()
	delete(m, key)
	s.mu.Unlock()
}

func stepKey(event agent.Event) string {
	return string(event.RunID) + "/step/" + strconv.Itoa(event.Step)
}

func modelKey(event agent.Event) string {
	return string(event.RunID) + "/model/" + strconv.Itoa(event.Step)
}

func toolKey(event agent.Event) string {
	callID := ""
	if event.ToolCall != nil {
		callID = event.ToolCall.ID
	}
	if event.ToolResult != nil {
		callID = event.ToolResult.CallID
	}
	return string(event.RunID) + "/tool/" + strconv.Itoa(event.Step) + "/" + callID
}
