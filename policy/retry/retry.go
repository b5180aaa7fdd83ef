// Package retry wraps a Model or ToolExecutor with deterministic,
// attempt-bounded retries for transient failures.
package retry

import (
	"context"
	"errors"

	"github.com/opsloop/agentrt/agent"
)

// Config controls retry behavior for wrapped model and tool execution calls.
type Config struct {
	MaxAttempts int
	ShouldRetry func(error) bool
}

// WrapModel wraps a model with deterministic, error-only retries. With no
// ShouldRetry set, only errors satisfying *agent.ModelTransientError are
// retried.
func WrapModel(model agent.Model, cfg Config) agent.Model {
	if model == nil {
		return nil
	}
	return &modelWrapper{next: model, cfg: cfg}
}

type modelWrapper struct {
	next agent.Model
	cfg  Config
}

var _ agent.Model = (*modelWrapper)(nil)

func (w *modelWrapper) Generate(ctx context.Context, request agent.ModelRequest) (agent.AssistantTurn, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return agent.AssistantTurn{}, ctxErr
	}

	attempts := normalizedAttempts(w.cfg.MaxAttempts)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		turn, err := w.next.Generate(ctx, request)
		if err == nil {
			return turn, nil
		}
		lastErr = err
		if attempt == attempts || !shouldRetry(ctx, w.cfg, err) {
			break
		}
	}
	return agent.AssistantTurn{}, lastErr
}

// WrapToolExecutor wraps a tool executor with deterministic, error-only
// retries. When the wrapped executor is the one handed to step.Executor,
// the retries run inside its Execute call, before step.Executor converts
// the last remaining error into an error ToolResult.
func WrapToolExecutor(executor agent.ToolExecutor, cfg Config) agent.ToolExecutor {
	if executor == nil {
		return nil
	}
	return &toolExecutorWrapper{next: executor, cfg: cfg}
}

type toolExecutorWrapper struct {
	next agent.ToolExecutor
	cfg  Config
}

var _ agent.ToolExecutor = (*toolExecutorWrapper)(nil)

func (w *toolExecutorWrapper) Execute(ctx context.Context, call agent.ToolCall) (agent.ToolResult, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return agent.ToolResult{}, ctxErr
	}

	attempts := normalizedAttempts(w.cfg.MaxAttempts)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := w.next.Execute(ctx, call)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if attempt == attempts || !shouldRetry(ctx, w.cfg, err) {
			break
		}
	}
	return agent.ToolResult{}, lastErr
}

func normalizedAttempts(maxAttempts int) int {
	if maxAttempts < 1 {
		return 1
	}
	return maxAttempts
}

func shouldRetry(ctx context.Context, cfg Config, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if cfg.ShouldRetry != nil {
		return cfg.ShouldRetry(err)
	}
	var transient *agent.ModelTransientError
	return errors.As(err, &transient)
}
