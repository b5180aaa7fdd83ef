package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opsloop/agentrt/config"
)

func newTestApp(t *testing.T) *application {
	t.Helper()
	cfg := config.Config{
		MaxIterations:     4,
		PerToolTimeout:    0,
		OverallRunTimeout: 0,
		MaxParallelTools:  2,
		DefaultToolChoice: "auto",
	}
	app, err := newApplication(cfg, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	return app
}

func postJSON(t *testing.T, server *httptest.Server, path string, body map[string]any, dst any) int {
	t.Helper()
	encoded, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := server.Client().Post(server.URL+path, "application/json", bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode
}

func TestHandleCreateRun_CompletesWithScriptedModel(t *testing.T) {
	app := newTestApp(t)
	server := httptest.NewServer(newRouter(app, slog.New(slog.DiscardHandler)))
	defer server.Close()

	var result map[string]any
	status := postJSON(t, server, "/v1/runs/", map[string]any{"user_input": "hi there"}, &result)
	if status != http.StatusOK {
		t.Fatalf("unexpected status: %d, body=%+v", status, result)
	}
	if result["status"] != "completed" {
		t.Fatalf("expected status=completed, got %+v", result)
	}
}

func TestHandleCreateRun_RejectsMissingUserInput(t *testing.T) {
	app := newTestApp(t)
	server := httptest.NewServer(newRouter(app, slog.New(slog.DiscardHandler)))
	defer server.Close()

	var result map[string]any
	status := postJSON(t, server, "/v1/runs/", map[string]any{}, &result)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestHandleGetRun_ReturnsSavedResult(t *testing.T) {
	app := newTestApp(t)
	server := httptest.NewServer(newRouter(app, slog.New(slog.DiscardHandler)))
	defer server.Close()

	var created map[string]any
	status := postJSON(t, server, "/v1/runs/", map[string]any{"user_input": "hi there"}, &created)
	if status != http.StatusOK {
		t.Fatalf("unexpected create status: %d, body=%+v", status, created)
	}
	runID, ok := created["run_id"].(string)
	if !ok || runID == "" {
		t.Fatalf("expected run_id in create response, got %+v", created)
	}

	resp, err := server.Client().Get(server.URL + "/v1/runs/" + runID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var fetched map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&fetched); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fetched["run_id"] != runID || fetched["status"] != "completed" {
		t.Fatalf("unexpected fetched result: %+v", fetched)
	}
}

func TestHandleGetRun_UnknownRunReturnsNotFound(t *testing.T) {
	app := newTestApp(t)
	server := httptest.NewServer(newRouter(app, slog.New(slog.DiscardHandler)))
	defer server.Close()

	resp, err := server.Client().Get(server.URL + "/v1/runs/does-not-exist")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHandleRunEvents_UnknownRunReturnsNotFound(t *testing.T) {
	app := newTestApp(t)
	server := httptest.NewServer(newRouter(app, slog.New(slog.DiscardHandler)))
	defer server.Close()

	resp, err := server.Client().Get(server.URL + "/v1/runs/does-not-exist/events")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestHandleHealth_ReportsOK(t *testing.T) {
	app := newTestApp(t)
	server := httptest.NewServer(newRouter(app, slog.New(slog.DiscardHandler)))
	defer server.Close()

	resp, err := server.Client().Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
