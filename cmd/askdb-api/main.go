package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/askdb/askdb/internal/api"
	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/history"
	"github.com/askdb/askdb/internal/nlsql"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/pipeline"
	"github.com/askdb/askdb/internal/store"
)

func main() {
	cfg, err := config.LoadFromEnv("askdb-api")
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg, os.Stdout)

	st, err := store.New()
	if err != nil {
		logger.Error("failed to open table store", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() { _ = st.Close() }()

	model, err := newModel(cfg)
	if err != nil {
		logger.Error("failed to initialize language model", slog.Any("error", err))
		os.Exit(1)
	}

	log := history.NewLog()
	pipe := pipeline.New(st, nlsql.NewGenerator(model), log)
	pipe.SampleRows = cfg.Ask.SchemaSampleRows
	pipe.Logger = logger

	handler := api.NewHandler(cfg, api.Dependencies{
		Logger:   logger,
		Store:    st,
		Pipeline: pipe,
		History:  log,
	})
	server := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("starting api server",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("provider", cfg.AI.Provider),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down api server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", slog.Any("error", err))
		_ = server.Close()
		os.Exit(1)
	}
}

func newModel(cfg config.Config) (nlsql.Model, error) {
	switch cfg.AI.Provider {
	case "openai":
		return nlsql.NewOpenAIModel(nlsql.OpenAIConfig{
			BaseURL:     cfg.AI.BaseURL,
			APIKey:      cfg.AI.APIKey,
			Model:       cfg.AI.Model,
			Temperature: cfg.AI.Temperature,
			Timeout:     cfg.AI.Timeout,
		})
	case "gemini":
		return nlsql.NewGeminiModel(nlsql.GeminiConfig{
			Endpoint: cfg.AI.BaseURL,
			APIKey:   cfg.AI.APIKey,
			Model:    cfg.AI.Model,
			Timeout:  cfg.AI.Timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", cfg.AI.Provider)
	}
}
