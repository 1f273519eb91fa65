package server

import (
	"encoding/json"
	"net/http"

	"github.com/me/linsched/pkg/model"
)

// handleSolveScenario runs a predefined scenario with every method.
// POST /api/v1/solve?sched=&scenario=
func (s *Server) handleSolveScenario(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	q := r.URL.Query()

	results, err := s.engine.SubmitScenario(r.Context(), q.Get("sched"), q.Get("scenario"))
	if err != nil {
		respondEngineError(w, reqID, err)
		return
	}
	respondOK(w, reqID, model.SolveResponse{Results: results})
}

// handleSolveCustom runs a caller-provided system with every method.
// POST /api/v1/solve/custom
func (s *Server) handleSolveCustom(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req model.SolveRequest
	if !decodeBody(w, r, reqID, &req) {
		return
	}
	results, err := s.engine.SubmitCustom(r.Context(), req)
	if err != nil {
		respondEngineError(w, reqID, err)
		return
	}
	respondOK(w, reqID, model.SolveResponse{Results: results})
}

// handleSolvePhysical builds and runs the system of a resistor circuit.
// POST /api/v1/solve/physical
func (s *Server) handleSolvePhysical(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var req model.PhysicalSolveRequest
	if !decodeBody(w, r, reqID, &req) {
		return
	}
	results, err := s.engine.SubmitCircuit(r.Context(), req)
	if err != nil {
		respondEngineError(w, reqID, err)
		return
	}
	respondOK(w, reqID, model.SolveResponse{Results: results})
}

// decodeBody decodes a JSON request body into v. On failure it writes a 400
// and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, reqID string, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return false
	}
	return true
}
