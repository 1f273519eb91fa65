package server

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/me/linsched/pkg/model"
)

// handleMetrics returns the aggregated metrics snapshot, or 204 before any
// job has completed.
// GET /api/v1/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	snap := s.engine.Snapshot()
	if snap.Empty() {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondOK(w, reqID, snap)
}

// handleExportJobs streams the job log as CSV, or 204 when it is empty.
// GET /api/v1/logs/jobs
func (s *Server) handleExportJobs(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var buf bytes.Buffer
	n, err := s.engine.Export(r.Context(), &buf)
	if err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	if n == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="job_log.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Debug("export write", "request_id", reqID, "error", err)
	}
}

// handleClearJobs truncates the job log and resets the aggregates.
// DELETE /api/v1/logs/jobs
func (s *Server) handleClearJobs(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	if err := s.engine.Clear(r.Context()); err != nil {
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
		return
	}
	respondOK(w, reqID, map[string]any{"cleared": true})
}
