// Package seeder loads a synthetic dataset into a running askdb
// instance so the ask endpoint can be exercised without real data.
package seeder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	APIBaseURL  string
	TableName   string
	RowCount    int
	Seed        int64
	HTTPTimeout time.Duration
}

type Service struct {
	cfg       Config
	log       *slog.Logger
	http      *http.Client
	generator *Generator
}

func NewService(cfg Config, logger *slog.Logger, client *http.Client) (*Service, error) {
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		return nil, fmt.Errorf("api base url is required")
	}
	if strings.TrimSpace(cfg.TableName) == "" {
		return nil, fmt.Errorf("table name is required")
	}
	if cfg.RowCount <= 0 {
		cfg.RowCount = 500
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if client == nil {
		client = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	return &Service{
		cfg:       cfg,
		log:       logger,
		http:      client,
		generator: NewGenerator(cfg.Seed),
	}, nil
}

// Seed uploads the generated dataset and returns the row count the
// server reports back.
func (s *Service) Seed(ctx context.Context) (int, error) {
	payload, err := s.generator.OrdersCSV(s.cfg.RowCount)
	if err != nil {
		return 0, fmt.Errorf("generate dataset: %w", err)
	}

	endpoint := strings.TrimRight(s.cfg.APIBaseURL, "/") + "/v1/tables/" + url.PathEscape(s.cfg.TableName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "text/csv")

	resp, err := s.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("upload dataset: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusCreated {
		return 0, fmt.Errorf("upload dataset: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var uploaded struct {
		Name     string `json:"name"`
		RowCount int    `json:"row_count"`
	}
	if err := json.Unmarshal(body, &uploaded); err != nil {
		return 0, fmt.Errorf("decode upload response: %w", err)
	}

	s.log.Info("demo dataset loaded",
		slog.String("table", uploaded.Name),
		slog.Int("rows", uploaded.RowCount),
	)
	return uploaded.RowCount, nil
}
