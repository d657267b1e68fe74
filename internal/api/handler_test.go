package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/history"
	"github.com/askdb/askdb/internal/nlsql"
	"github.com/askdb/askdb/internal/pipeline"
	"github.com/askdb/askdb/internal/store"
)

const salesCSV = `region,revenue
north,1200
south,800
east,950
`

func mapLookup(values map[string]string) config.LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

type scriptedModel struct {
	response string
	err      error
}

func (m *scriptedModel) Generate(ctx context.Context, prompt string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func newTestHandler(t *testing.T, model nlsql.Model) (http.Handler, *history.Log) {
	t.Helper()
	cfg, err := config.Load("askdb-api", mapLookup(map[string]string{}))
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}
	st, err := store.New()
	if err != nil {
		t.Fatalf("store.New() error: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	log := history.NewLog()
	p := pipeline.New(st, nlsql.NewGenerator(model), log)
	h := NewHandler(cfg, Dependencies{
		Store:    st,
		Pipeline: p,
		History:  log,
	})
	return h, log
}

func uploadCSV(t *testing.T, h http.Handler, table, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/tables/"+url.PathEscape(table), strings.NewReader(body))
	req.Header.Set("Content-Type", "text/csv")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v\n%s", err, rr.Body.String())
	}
	return payload
}

func TestHealthEndpoint(t *testing.T) {
	h, _ := newTestHandler(t, &scriptedModel{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	payload := decodeBody(t, rr)
	if payload["service"] != "askdb-api" {
		t.Fatalf("service = %v", payload["service"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h, _ := newTestHandler(t, &scriptedModel{})

	// A completed request first, so the labelled series exist.
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/metrics", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "askdb_http_requests_total") {
		t.Fatal("expected askdb metrics in exposition")
	}
}

func TestMetricsLabelByRoutePattern(t *testing.T) {
	h, _ := newTestHandler(t, &scriptedModel{})
	uploadCSV(t, h, "quarterly_figures", salesCSV)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/metrics", nil))

	body := rr.Body.String()
	if !strings.Contains(body, `route="/v1/tables/{table}"`) {
		t.Fatal("expected upload series labelled by route pattern")
	}
	if strings.Contains(body, "quarterly_figures") {
		t.Fatal("table name leaked into metric labels")
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	h, _ := newTestHandler(t, &scriptedModel{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
}

func TestResponsesCarryTraceID(t *testing.T) {
	h, _ := newTestHandler(t, &scriptedModel{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
	if rr.Header().Get("X-Trace-ID") == "" {
		t.Fatal("expected X-Trace-ID header")
	}
}
