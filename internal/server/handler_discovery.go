package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "linsched API",
		Version:     "v1",
		Description: "Linear-system solver benchmark under FCFS, RR and SJF dispatch",
		Endpoints: []endpointInfo{
			{"/api/v1/solve", []string{"POST"}, "Solve a predefined scenario (?sched=fcfs|rr|sjf&scenario=simple|medio|complejo) with every method"},
			{"/api/v1/solve/custom", []string{"POST"}, "Solve a caller-provided system {sched,name,a,b}"},
			{"/api/v1/solve/physical", []string{"POST"}, "Solve a series or parallel resistor circuit {sched,topology,voltage,resistances,name}"},
			{"/api/v1/metrics", []string{"GET"}, "Aggregated job metrics by method, scenario and scheduler"},
			{"/api/v1/logs/jobs", []string{"GET", "DELETE"}, "Export the job log as CSV, or clear it"},
			{"/api/v1/ws", []string{"GET"}, "WebSocket stream of status and result events"},
			{"/api/v1/health", []string{"GET"}, "Server health and version"},
			{"/metrics", []string{"GET"}, "Prometheus exposition"},
		},
	})
}
