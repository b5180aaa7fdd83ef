package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/opsloop/agentrt/agent"
)

type modelFunc func(context.Context, agent.ModelRequest) (agent.AssistantTurn, error)

func (f modelFunc) Generate(ctx context.Context, request agent.ModelRequest) (agent.AssistantTurn, error) {
	return f(ctx, request)
}

func TestWrapModel_RetriesTransientErrorThenSucceeds(t *testing.T) {
	t.Parallel()

	attempts := 0
	model := modelFunc(func(context.Context, agent.ModelRequest) (agent.AssistantTurn, error) {
		attempts++
		if attempts < 3 {
			return agent.AssistantTurn{}, &agent.ModelTransientError{Err: fmt.Errorf("attempt %d failed", attempts)}
		}
		return agent.AssistantTurn{Message: agent.NewAssistantMessage("ok", nil), FinishReason: agent.FinishReasonStop}, nil
	})

	wrapped := WrapModel(model, Config{MaxAttempts: 3})
	turn, err := wrapped.Generate(context.Background(), agent.ModelRequest{})
	if err != nil {
		t.Fatalf("generate returned error: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("unexpected attempts: %d", attempts)
	}
	if turn.Message.Text() != "ok" {
		t.Fatalf("unexpected message: %+v", turn.Message)
	}
}

func TestWrapModel_PermanentErrorStopsAfterFirstAttempt(t *testing.T) {
	t.Parallel()

	attempts := 0
	wantErr := &agent.ModelPermanentError{Err: errors.New("bad api key")}
	model := modelFunc(func(context.Context, agent.ModelRequest) (agent.AssistantTurn, error) {
		attempts++
		return agent.AssistantTurn{}, wantErr
	})

	wrapped := WrapModel(model, Config{MaxAttempts: 5})
	_, err := wrapped.Generate(context.Background(), agent.ModelRequest{})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
	if attempts != 1 {
		t.Fatalf("unexpected attempts: %d", attempts)
	}
}

func TestWrapModel_ExhaustsAttemptsAndReturnsLastError(t *testing.T) {
	t.Parallel()

	attempts := 0
	var lastErr error
	model := modelFunc(func(context.Context, agent.ModelRequest) (agent.AssistantTurn, error) {
		attempts++
		lastErr = &agent.ModelTransientError{Err: fmt.Errorf("attempt %d failed", attempts)}
		return agent.AssistantTurn{}, lastErr
	})

	wrapped := WrapModel(model, Config{MaxAttempts: 4})
	_, err := wrapped.Generate(context.Background(), agent.ModelRequest{})
	if !errors.Is(err, lastErr) {
		t.Fatalf("expected last error %v, got %v", lastErr, err)
	}
	if attempts != 4 {
		t.Fatalf("unexpected attempts: %d", attempts)
	}
}

func TestWrapModel_CustomShouldRetryOverridesDefault(t *testing.T) {
	t.Parallel()

	attempts := 0
	model := modelFunc(func(context.Context, agent.ModelRequest) (agent.AssistantTurn, error) {
		attempts++
		return agent.AssistantTurn{}, errors.New("plain error, not classified as transient")
	})

	wrapped := WrapModel(model, Config{
		MaxAttempts: 3,
		ShouldRetry: func(error) bool { return true },
	})
	_, err := wrapped.Generate(context.Background(), agent.ModelRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 3 {
		t.Fatalf("expected custom ShouldRetry to force all attempts, got %d", attempts)
	}
}

func TestWrapModel_ContextDoneStopsWithoutAttempt(t *testing.T) {
	t.Parallel()

	attempts := 0
	model := modelFunc(func(context.Context, agent.ModelRequest) (agent.AssistantTurn, error) {
		attempts++
		return agent.AssistantTurn{}, errors.New("unexpected call")
	})
	wrapped := WrapModel(model, Config{MaxAttempts: 5})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := wrapped.Generate(ctx, agent.ModelRequest{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if attempts != 0 {
		t.Fatalf("unexpected attempts: %d", attempts)
	}
}

type toolExecutorFunc func(context.Context, agent.ToolCall) (agent.ToolResult, error)

func (f toolExecutorFunc) Execute(ctx context.Context, call agent.ToolCall) (agent.ToolResult, error) {
	return f(ctx, call)
}

func TestWrapToolExecutor_CustomShouldRetryRetriesAnyError(t *testing.T) {
	t.Parallel()

	attempts := 0
	executor := toolExecutorFunc(func(context.Context, agent.ToolCall) (agent.ToolResult, error) {
		attempts++
		if attempts < 2 {
			return agent.ToolResult{}, errors.New("transient network blip")
		}
		return agent.TextResult("call-1", "search", "ok", false), nil
	})

	wrapped := WrapToolExecutor(executor, Config{
		MaxAttempts: 3,
		ShouldRetry: func(error) bool { return true },
	})
	result, err := wrapped.Execute(context.Background(), agent.ToolCall{ID: "call-1", Name: "search"})
	if err != nil {
		t.Fatalf("execute returned error: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("unexpected attempts: %d", attempts)
	}
	if result.Text() != "ok" {
		t.Fatalf("unexpected result: %+v", result)
	}
}
