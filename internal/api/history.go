package api

import "net/http"

func (s *server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"entries": s.deps.History.All()})
}

func (s *server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.deps.History.Clear()
	w.WriteHeader(http.StatusNoContent)
}
