package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func newRouter(app *application, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestLogger(logger))

	r.Get("/health", app.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Route("/runs", func(r chi.Router) {
			r.Post("/", app.handleCreateRun)
			r.Post("/stream", app.handleStreamRun)
			r.Get("/{runID}", app.handleGetRun)
			r.Get("/{runID}/events", app.handleRunEvents)
		})
	})

	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debug("request received",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("request_id", chimw.GetReqID(r.Context())),
			)
			next.ServeHTTP(w, r)
		})
	}
}
