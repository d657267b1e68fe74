// Package api exposes the question-answering pipeline over HTTP. All
// endpoints speak JSON except CSV upload, which takes the raw file as
// the request body.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/history"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/pipeline"
	"github.com/askdb/askdb/internal/store"
)

type Dependencies struct {
	Logger   *slog.Logger
	Store    *store.Store
	Pipeline *pipeline.Pipeline
	History  *history.Log
}

// server holds the shared dependencies plus the lock that serializes
// table writes against everything else. The store itself does no
// locking; this is the single writer boundary.
type server struct {
	cfg  config.Config
	deps Dependencies
	mu   sync.RWMutex
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	s := &server{cfg: cfg, deps: deps}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "service": cfg.Service.Name})
	})
	mux.Handle("GET /v1/metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/tables", s.handleListTables)
	mux.HandleFunc("POST /v1/tables/{table}", s.handleUploadTable)
	mux.HandleFunc("GET /v1/tables/{table}/sample", s.handleSampleTable)
	mux.HandleFunc("GET /v1/schema", s.handleSchema)
	mux.HandleFunc("POST /v1/ask", s.handleAsk)
	mux.HandleFunc("POST /v1/query", s.handleQuery)
	mux.HandleFunc("GET /v1/history", s.handleListHistory)
	mux.HandleFunc("DELETE /v1/history", s.handleClearHistory)

	middlewares := []func(http.Handler) http.Handler{
		observability.TraceMiddleware,
		observability.MetricsMiddleware,
	}
	if deps.Logger != nil {
		middlewares = append(middlewares, observability.LoggingMiddleware(deps.Logger))
	}
	return chain(mux, middlewares...)
}

func chain(base http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, code, message string, extra map[string]any) {
	writeJSON(w, status, map[string]any{
		"error_code": code,
		"message":    message,
		"context":    extra,
		"trace_id":   observability.TraceIDFromContext(ctx),
	})
}
