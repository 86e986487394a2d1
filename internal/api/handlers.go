package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"epic-metrics/internal/analysis"
	"epic-metrics/internal/history"
	"epic-metrics/internal/jira"
	"epic-metrics/internal/report"
	"epic-metrics/internal/stats"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "epic-metrics",
		"version":   s.version,
	})
}

// processExport accepts a CSV export either as the raw request body or as the
// "file" field of a multipart form.
func (s *Server) processExport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	req, err := parseOverrides(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	body, source, err := uploadedFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	defer body.Close()

	req.Reader = body
	if req.Source == "" {
		req.Source = source
	}

	run, err := s.analyzer.Analyze(r.Context(), req)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, errors.New("run history is not configured"))
		return
	}

	runs := s.history.List(r.URL.Query().Get("source"))
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		if limit > 0 && len(runs) > limit {
			runs = runs[len(runs)-limit:]
		}
	}
	if runs == nil {
		runs = []history.RunRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.analyzer.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	run, err := s.analyzer.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	opts := report.Options{Source: run.Source, Mermaid: s.mermaid}
	switch format := r.URL.Query().Get("format"); format {
	case "", "html":
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := report.HTML(w, run.Result, opts); err != nil {
			log.Error().Err(err).Str("run", run.ID).Msg("Failed to render report")
		}
	case "markdown", "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = io.WriteString(w, report.Markdown(run.Result, opts))
	default:
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown format %q (expected html or markdown)", format))
	}
}

func parseOverrides(r *http.Request) (analysis.Request, error) {
	q := r.URL.Query()
	req := analysis.Request{
		Source:        q.Get("source"),
		Record:        q.Get("record") == "true",
		IncludeIssues: q.Get("includeIssues") == "true",
	}

	if raw := q.Get("teamMembers"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("invalid teamMembers %q", raw)
		}
		req.TeamMembers = n
	}
	if raw := q.Get("velocity"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return req, fmt.Errorf("invalid velocity %q", raw)
		}
		req.Velocity = v
	}
	return req, nil
}

func uploadedFile(r *http.Request) (io.ReadCloser, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, "upload.csv", nil
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("missing CSV file in form field 'file': %w", err)
	}
	return file, header.Filename, nil
}

func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, jira.ErrNoIssues),
		errors.Is(err, jira.ErrNotJiraExport),
		errors.Is(err, stats.ErrInvalidOverride):
		return http.StatusBadRequest
	case errors.Is(err, analysis.ErrRunNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
