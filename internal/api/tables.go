package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/store"
)

type columnResponse struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

type tableResponse struct {
	Name     string           `json:"name"`
	Columns  []columnResponse `json:"columns"`
	RowCount int              `json:"row_count"`
}

func tableToResponse(t store.Table) tableResponse {
	columns := make([]columnResponse, 0, len(t.Columns))
	for _, col := range t.Columns {
		columns = append(columns, columnResponse{
			Name:     col.Name,
			Type:     string(col.Type),
			Nullable: col.Nullable,
		})
	}
	return tableResponse{Name: t.Name, Columns: columns, RowCount: t.RowCount}
}

// handleUploadTable replaces the named table with the CSV in the request
// body. The path segment is the raw name; the response carries the
// sanitized name actually used.
func (s *server) handleUploadTable(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.PathValue("table"))
	if name == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "TABLE_REQUIRED", "table path parameter is required", nil)
		return
	}

	s.mu.Lock()
	table, err := s.deps.Store.IngestCSV(r.Context(), name, r.Body)
	s.mu.Unlock()
	if err != nil {
		var ingestErr *store.IngestError
		if errors.As(err, &ingestErr) {
			writeError(r.Context(), w, http.StatusBadRequest, "CSV_INVALID", ingestErr.Error(), map[string]any{"table": name})
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "INGEST_FAILED", "failed to load table", map[string]any{"details": err.Error()})
		return
	}

	observability.IncrementTablesIngested()
	if s.deps.Logger != nil {
		s.deps.Logger.InfoContext(r.Context(), "table_ingested",
			"table", table.Name,
			"rows", table.RowCount,
			"columns", len(table.Columns),
		)
	}
	writeJSON(w, http.StatusCreated, tableToResponse(table))
}

func (s *server) handleListTables(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	tables, err := s.deps.Store.Schema(r.Context())
	s.mu.RUnlock()
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_FAILED", "failed to load schema", map[string]any{"details": err.Error()})
		return
	}
	responses := make([]tableResponse, 0, len(tables))
	for _, table := range tables {
		responses = append(responses, tableToResponse(table))
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": responses})
}

func (s *server) handleSampleTable(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.PathValue("table"))
	rows := s.cfg.Ask.SchemaSampleRows
	if rows <= 0 {
		rows = schema.DefaultSampleRows
	}
	if raw := r.URL.Query().Get("rows"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_ROWS", "rows must be a positive integer", nil)
			return
		}
		rows = parsed
	}

	s.mu.RLock()
	sample, err := s.deps.Store.Sample(r.Context(), name, rows)
	s.mu.RUnlock()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(r.Context(), w, http.StatusNotFound, "TABLE_NOT_FOUND", "table does not exist", map[string]any{"table": name})
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "SAMPLE_FAILED", "failed to sample table", map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"table":   name,
		"columns": sample.Columns,
		"rows":    sample.Rows,
	})
}

// handleSchema returns the same textual description the generator sees.
func (s *server) handleSchema(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	description, err := s.deps.Pipeline.DescribeSchema(r.Context())
	s.mu.RUnlock()
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_FAILED", "failed to describe schema", map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"description": description})
}
