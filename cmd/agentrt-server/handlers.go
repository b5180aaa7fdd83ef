package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/opsloop/agentrt/agent"
	"github.com/opsloop/agentrt/runner"
)

type createRunRequest struct {
	AgentName     string `json:"agent_name"`
	SystemPrompt  string `json:"system_prompt"`
	UserInput     string `json:"user_input"`
	MaxIterations int    `json:"max_iterations,omitempty"`
	ToolChoice    string `json:"tool_choice,omitempty"`
}

func (app *application) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (app *application) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeRuntimeError(w, err)
		return
	}
	if req.UserInput == "" {
		writeInvalidRequest(w, "user_input is required")
		return
	}

	input := runner.RunInput{
		AgentName:      req.AgentName,
		SystemPrompt:   req.SystemPrompt,
		UserInput:      req.UserInput,
		Tools:          app.registry.Definitions(),
		ToolChoice:     req.ToolChoice,
		MaxIterations:  app.maxIterations(req.MaxIterations),
		OverallTimeout: app.runTimeout(),
	}

	result, err := app.runner.Run(r.Context(), input)
	if err != nil {
		writeRuntimeError(w, err)
		return
	}
	if err := app.results.Save(r.Context(), result); err != nil {
		app.logger.Error("save run result", "error", err, "run_id", result.RunID)
	}
	writeJSON(w, http.StatusOK, result)
}

// handleGetRun looks up a previously completed run's result.
func (app *application) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID := agent.RunID(chi.URLParam(r, "runID"))
	result, err := app.results.Load(r.Context(), runID)
	if err != nil {
		writeRuntimeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleStreamRun streams normalized run events as Server-Sent Events,
// followed by a single final event carrying the terminal AgentRunResult.
func (app *application) handleStreamRun(w http.ResponseWriter, r *http.Request) {
	var req createRunRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeRuntimeError(w, err)
		return
	}
	if req.UserInput == "" {
		writeInvalidRequest(w, "user_input is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeRuntimeError(w, fmt.Errorf("runtime error: streaming unsupported"))
		return
	}

	input := runner.RunInput{
		AgentName:      req.AgentName,
		SystemPrompt:   req.SystemPrompt,
		UserInput:      req.UserInput,
		Tools:          app.registry.Definitions(),
		ToolChoice:     req.ToolChoice,
		MaxIterations:  app.maxIterations(req.MaxIterations),
		OverallTimeout: app.runTimeout(),
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	events, results := app.runner.RunStream(r.Context(), input)
	for event := range events {
		writeSSE(w, "event", event)
		flusher.Flush()
	}
	if result, ok := <-results; ok {
		if err := app.results.Save(r.Context(), result); err != nil {
			app.logger.Error("save run result", "error", err, "run_id", result.RunID)
		}
		writeSSE(w, "result", result)
		flusher.Flush()
	}
}

// handleRunEvents replays every event captured for a run, for debugging
// a run after the fact without having streamed it live.
func (app *application) handleRunEvents(w http.ResponseWriter, r *http.Request) {
	runID := agent.RunID(chi.URLParam(r, "runID"))
	events := app.history.ForRun(runID)
	if len(events) == 0 {
		writeRuntimeError(w, fmt.Errorf("%w: no events recorded for run %q", errNotFound, runID))
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func writeSSE(w http.ResponseWriter, name string, payload any) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, encoded)
}
