package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUploadTableReturnsSanitizedSchema(t *testing.T) {
	h, _ := newTestHandler(t, &scriptedModel{})

	rr := uploadCSV(t, h, "2024 sales-Q1!", salesCSV)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	payload := decodeBody(t, rr)
	if payload["name"] != "table_2024_sales_q1" {
		t.Fatalf("name = %v", payload["name"])
	}
	if payload["row_count"] != float64(3) {
		t.Fatalf("row_count = %v", payload["row_count"])
	}
	columns, ok := payload["columns"].([]any)
	if !ok || len(columns) != 2 {
		t.Fatalf("columns = %v", payload["columns"])
	}
}

func TestUploadTableRejectsMalformedCSV(t *testing.T) {
	h, _ := newTestHandler(t, &scriptedModel{})

	rr := uploadCSV(t, h, "bad", "a,b\n1\n")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
	}
	payload := decodeBody(t, rr)
	if payload["error_code"] != "CSV_INVALID" {
		t.Fatalf("error_code = %v", payload["error_code"])
	}
}

func TestUploadTableReplacesExisting(t *testing.T) {
	h, _ := newTestHandler(t, &scriptedModel{})

	if rr := uploadCSV(t, h, "sales", salesCSV); rr.Code != http.StatusCreated {
		t.Fatalf("first upload status = %d", rr.Code)
	}
	rr := uploadCSV(t, h, "sales", "region,revenue\nwest,500\n")
	if rr.Code != http.StatusCreated {
		t.Fatalf("second upload status = %d", rr.Code)
	}
	if payload := decodeBody(t, rr); payload["row_count"] != float64(1) {
		t.Fatalf("row_count = %v", payload["row_count"])
	}
}

func TestListTablesPreservesUploadOrder(t *testing.T) {
	h, _ := newTestHandler(t, &scriptedModel{})
	uploadCSV(t, h, "zebra", "a\n1\n")
	uploadCSV(t, h, "alpha", "a\n1\n")

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/tables", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	payload := decodeBody(t, rr)
	tables := payload["tables"].([]any)
	if len(tables) != 2 {
		t.Fatalf("tables = %d", len(tables))
	}
	first := tables[0].(map[string]any)
	second := tables[1].(map[string]any)
	if first["name"] != "zebra" || second["name"] != "alpha" {
		t.Fatalf("order = %v, %v", first["name"], second["name"])
	}
}

func TestSampleTableBoundsRows(t *testing.T) {
	h, _ := newTestHandler(t, &scriptedModel{})
	uploadCSV(t, h, "sales", salesCSV)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/tables/sales/sample?rows=2", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	payload := decodeBody(t, rr)
	if rows := payload["rows"].([]any); len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
}

func TestSampleUnknownTableReturns404(t *testing.T) {
	h, _ := newTestHandler(t, &scriptedModel{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/tables/missing/sample", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	if payload := decodeBody(t, rr); payload["error_code"] != "TABLE_NOT_FOUND" {
		t.Fatalf("error_code = %v", payload["error_code"])
	}
}

func TestSchemaEndpointReturnsDescription(t *testing.T) {
	h, _ := newTestHandler(t, &scriptedModel{})
	uploadCSV(t, h, "sales", salesCSV)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/schema", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	payload := decodeBody(t, rr)
	description, _ := payload["description"].(string)
	for _, want := range []string{"Table: sales", "revenue", "Sample rows from sales:"} {
		if !strings.Contains(description, want) {
			t.Fatalf("description missing %q:\n%s", want, description)
		}
	}
}
