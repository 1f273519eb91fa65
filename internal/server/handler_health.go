package server

import (
	"net/http"
	"runtime"
	"time"
)

type healthResponse struct {
	Status    string   `json:"status"`
	Version   string   `json:"version"`
	GoVersion string   `json:"go_version"`
	Uptime    string   `json:"uptime"`
	Jobs      int      `json:"jobs"`
	Observers int      `json:"observers"`
	Scenarios []string `json:"scenarios"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	snap := s.engine.Snapshot()
	respondOK(w, reqID, healthResponse{
		Status:    "healthy",
		Version:   "0.1.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Jobs:      snap.TotalJobs,
		Observers: s.engine.Subscribers(),
		Scenarios: s.engine.Scenarios(),
	})
}
