package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/askdb/askdb/internal/demo/seeder"
)

func main() {
	baseURL := flag.String("base-url", envOr("ASKDB_API_URL", "http://localhost:8080"), "askdb API base URL")
	table := flag.String("table", "orders", "destination table name")
	rows := flag.Int("rows", 500, "number of demo rows to generate")
	seed := flag.Int64("seed", 1, "random seed for the generated dataset")
	timeout := flag.Duration("timeout", 30*time.Second, "HTTP timeout")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	svc, err := seeder.NewService(seeder.Config{
		APIBaseURL:  *baseURL,
		TableName:   *table,
		RowCount:    *rows,
		Seed:        *seed,
		HTTPTimeout: *timeout,
	}, logger, nil)
	if err != nil {
		logger.Error("invalid seeder configuration", slog.Any("error", err))
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := svc.Seed(ctx); err != nil {
		logger.Error("seeding failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
