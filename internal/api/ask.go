package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/askdb/askdb/internal/nlsql"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/pipeline"
	"github.com/askdb/askdb/internal/validate"
)

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Question   string   `json:"question"`
	SQL        string   `json:"sql"`
	Columns    []string `json:"columns"`
	Rows       [][]any  `json:"rows"`
	RowCount   int      `json:"row_count"`
	DurationMs int64    `json:"duration_ms"`
	Chart      string   `json:"chart"`
	HistoryID  string   `json:"history_id"`
}

func (s *server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var request askRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid ask request body", map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", nil)
		return
	}

	s.mu.RLock()
	answer, err := s.deps.Pipeline.Ask(r.Context(), request.Question)
	s.mu.RUnlock()
	if err != nil {
		writeAskError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		Question:   answer.Question,
		SQL:        answer.Query.Cleaned,
		Columns:    answer.Result.Columns,
		Rows:       answer.Result.Rows,
		RowCount:   len(answer.Result.Rows),
		DurationMs: answer.Duration.Milliseconds(),
		Chart:      string(suggestChart(answer.Result)),
		HistoryID:  answer.Entry.ID.String(),
	})
}

type queryRequest struct {
	SQL string `json:"sql"`
}

// handleQuery runs a caller-edited statement through the same validator
// and executor as generated ones. There is no trusted path around the
// read-only check.
func (s *server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var request queryRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid query request body", map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.SQL) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "SQL_REQUIRED", "sql is required", nil)
		return
	}

	cleaned := nlsql.Clean(request.SQL)
	verdict := validate.Validate(cleaned)
	if !verdict.Accepted {
		observability.IncrementValidationRejections(string(verdict.Reason))
		writeRejection(w, r, verdict)
		return
	}

	s.mu.RLock()
	result, err := s.deps.Pipeline.Execute(r.Context(), nlsql.GeneratedQuery{Raw: request.SQL, Cleaned: cleaned}, verdict)
	s.mu.RUnlock()
	if err != nil {
		writeAskError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sql":       cleaned,
		"columns":   result.Columns,
		"rows":      result.Rows,
		"row_count": len(result.Rows),
		"chart":     string(suggestChart(result)),
	})
}

func writeRejection(w http.ResponseWriter, r *http.Request, verdict validate.Verdict) {
	extra := map[string]any{"reason": string(verdict.Reason)}
	if verdict.Keyword != "" {
		extra["keyword"] = verdict.Keyword
	}
	writeError(r.Context(), w, http.StatusUnprocessableEntity, "SQL_REJECTED", "query is not a single read-only SELECT statement", extra)
}

func writeAskError(w http.ResponseWriter, r *http.Request, err error) {
	var rejected *pipeline.RejectedError
	if errors.As(err, &rejected) {
		writeRejection(w, r, rejected.Verdict)
		return
	}
	var genErr *nlsql.GenerationError
	if errors.As(err, &genErr) {
		writeError(r.Context(), w, http.StatusBadGateway, "GENERATION_FAILED", genErr.Error(), nil)
		return
	}
	var execErr *pipeline.ExecError
	if errors.As(err, &execErr) {
		if execErr.Kind == pipeline.KindSyntax {
			writeError(r.Context(), w, http.StatusBadRequest, "QUERY_EXECUTION_FAILED", execErr.Message, nil)
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "QUERY_EXECUTION_FAILED", "query execution failed", nil)
		return
	}
	writeError(r.Context(), w, http.StatusInternalServerError, "INTERNAL", err.Error(), nil)
}
