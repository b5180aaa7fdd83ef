package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/opsloop/agentrt/agent"
	"github.com/opsloop/agentrt/config"
	"github.com/opsloop/agentrt/eventing"
	"github.com/opsloop/agentrt/eventing/inmem"
	"github.com/opsloop/agentrt/guardrail"
	"github.com/opsloop/agentrt/memory"
	"github.com/opsloop/agentrt/model/openai"
	"github.com/opsloop/agentrt/model/scripted"
	"github.com/opsloop/agentrt/observability/otelspan"
	"github.com/opsloop/agentrt/observability/promsink"
	"github.com/opsloop/agentrt/policy/retry"
	"github.com/opsloop/agentrt/registry"
	"github.com/opsloop/agentrt/runner"
	"github.com/opsloop/agentrt/runstore"
	runstoreinmem "github.com/opsloop/agentrt/runstore/inmem"
	"github.com/opsloop/agentrt/step"

	"github.com/prometheus/client_golang/prometheus"
)

var errNotFound = errors.New("not found")

// application wires the agent execution runtime's dependencies into a
// single demonstration HTTP server: one fixed agent, backed by the real
// OpenAI adapter when an API key is configured, or a scripted stand-in
// otherwise.
type application struct {
	cfg        config.Config
	logger     *slog.Logger
	runner     *runner.Runner
	registry   *registry.Registry
	history    *inmem.Sink
	results    runstore.Store
	httpServer *http.Server
}

func newApplication(cfg config.Config, logger *slog.Logger) (*application, error) {
	reg := demoRegistry()

	model, err := newModel(cfg)
	if err != nil {
		return nil, fmt.Errorf("new application: %w", err)
	}

	promRegistry := prometheus.NewRegistry()
	history := inmem.New()
	events := eventing.Multi(
		otelspan.New("agentrt-server"),
		promsink.New(promRegistry),
		history,
	)

	hooks := guardrail.Hooks{
		PreLLM:  guardrail.PromptInjectionPreLLM(),
		PostLLM: guardrail.ContentFilterPostLLM(nil),
	}

	stepExecutor := step.New(model, reg, events,
		step.WithToolTimeout(cfg.PerToolTimeout),
		step.WithMaxParallelToolCalls(cfg.MaxParallelTools),
		step.WithGuardrail(hooks),
	)

	r, err := runner.New(runner.Dependencies{
		Step:      stepExecutor,
		Memory:    memory.NewUnbounded(),
		Events:    events,
		Guardrail: hooks,
	})
	if err != nil {
		return nil, fmt.Errorf("new application: %w", err)
	}

	app := &application{cfg: cfg, logger: logger, runner: r, registry: reg, history: history, results: runstoreinmem.New()}
	app.httpServer = &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: newRouter(app, logger),
	}
	return app, nil
}

func newModel(cfg config.Config) (agent.Model, error) {
	if cfg.OpenAIAPIKey == "" {
		return scripted.NewTextScript(
			"Hello from the scripted stand-in model. Set OPENAI_API_KEY to talk to a real model.",
		), nil
	}
	adapter, err := openai.New(openai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
	})
	if err != nil {
		return nil, err
	}
	return retry.WrapModel(adapter, retry.Config{MaxAttempts: 3}), nil
}

func (app *application) Start() error {
	app.logger.Info("listening", slog.String("addr", app.cfg.HTTPAddr))
	err := app.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (app *application) Shutdown(ctx context.Context) error {
	return app.httpServer.Shutdown(ctx)
}

func (app *application) runTimeout() time.Duration {
	if app.cfg.OverallRunTimeout > 0 {
		return app.cfg.OverallRunTimeout
	}
	return 2 * time.Minute
}

// maxIterations falls back to the configured AGENTRT_MAX_ITERATIONS
// default when a request omits max_iterations.
func (app *application) maxIterations(requested int) int {
	if requested > 0 {
		return requested
	}
	return app.cfg.MaxIterations
}
