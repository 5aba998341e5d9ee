package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/vegasq/screener/query"
)

// maxBodyBytes bounds the request body; queries are limited far below it.
const maxBodyBytes = 1 << 20

// NoMatchesMessage accompanies an empty screening result.
const NoMatchesMessage = "No stocks found matching your criteria"

type screenResponse struct {
	Success bool           `json:"success"`
	Data    []query.Record `json:"data"`
	Message string         `json:"message,omitempty"`
}

type columnsResponse struct {
	Success bool     `json:"success"`
	Columns []string `json:"columns"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.loggerFrom(r.Context()).Error("failed to write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, r, status, errorResponse{Success: false, Error: msg})
}

// handleScreen runs the query in the body against the table.
//
// The body must be a non-empty JSON object with a non-empty "query" string.
// A query of only whitespace is screened and matches nothing.
func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	logger := s.loggerFrom(r.Context())

	var fields map[string]json.RawMessage
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err == nil && len(body) > 0 {
		err = json.Unmarshal(body, &fields)
	}
	if err != nil || len(fields) == 0 {
		s.writeError(w, r, http.StatusBadRequest, "No JSON data received")
		return
	}

	var q string
	if raw, ok := fields["query"]; ok {
		if err := json.Unmarshal(raw, &q); err != nil {
			q = ""
		}
	}
	if q == "" {
		s.writeError(w, r, http.StatusBadRequest, "No query provided")
		return
	}

	engine, err := s.Engine(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	result, err := engine.Filter(q)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, query.ErrQueryTooLong) || errors.Is(err, query.ErrTooManyConditions) {
			status = http.StatusBadRequest
		}
		logger.Error("screening failed", "query", q, "error", err)
		s.writeError(w, r, status, err.Error())
		return
	}

	for _, o := range result.Outcomes {
		s.metrics.Conditions.WithLabelValues(o.Skipped.String()).Inc()
	}
	s.metrics.Rows.Observe(float64(result.Len()))

	resp := screenResponse{Success: true, Data: result.Records}
	if resp.Data == nil {
		resp.Data = []query.Record{}
	}
	if len(resp.Data) == 0 {
		resp.Message = NoMatchesMessage
	}

	logger.Info("screened",
		"query", q,
		"rows", result.Len(),
		"skipped", len(result.Skipped()))
	s.writeJSON(w, r, http.StatusOK, resp)
}

// handleColumns lists the identifier followed by every metric of the table.
func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	engine, err := s.Engine(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, r, http.StatusOK, columnsResponse{Success: true, Columns: engine.Schema().Columns()})
}

// handleHealth reports whether the table has been loaded.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	t, ok := s.cache.Loaded()
	if !ok {
		s.writeJSON(w, r, http.StatusServiceUnavailable, map[string]interface{}{"status": "loading"})
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]interface{}{"status": "ok", "rows": t.Len()})
}
