package model

import "time"

// Response is the standard API response envelope.
type Response struct {
	Status    string    `json:"status"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Error     *APIError `json:"error"`
}

// SolveRequest is the body of a custom-matrix submission.
type SolveRequest struct {
	Policy string      `json:"sched" yaml:"sched"`
	Name   string      `json:"name" yaml:"name"`
	A      [][]float64 `json:"a" yaml:"a"`
	B      []float64   `json:"b" yaml:"b"`
}

// PhysicalSolveRequest is the body of a physical-circuit submission.
type PhysicalSolveRequest struct {
	Policy      string    `json:"sched"`
	Topology    string    `json:"topology"`
	Voltage     float64   `json:"voltage"`
	Resistances []float64 `json:"resistances"`
	Name        string    `json:"name,omitempty"`
}

// SolveResponse is the payload returned by every submit operation.
type SolveResponse struct {
	Results []SolveResult `json:"results"`
}
