package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/me/linsched/pkg/model"
)

// requestID generates a unique request identifier.
func requestID() string {
	return "req_" + uuid.New().String()[:8]
}

// respondOK writes a success response with the standard envelope.
func respondOK(w http.ResponseWriter, reqID string, data any) {
	respondJSON(w, http.StatusOK, reqID, data, nil)
}

// respondError writes an error response with the standard envelope.
func respondError(w http.ResponseWriter, reqID string, status int, apiErr *model.APIError) {
	respondJSON(w, status, reqID, nil, apiErr)
}

// respondEngineError maps an engine error onto an HTTP status and API error code.
func respondEngineError(w http.ResponseWriter, reqID string, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		respondError(w, reqID, http.StatusBadRequest, model.NewValidationError(err.Error()))
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		respondError(w, reqID, http.StatusServiceUnavailable, model.NewInternalError("request ended before the batch finished: "+err.Error()))
	default:
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError(err.Error()))
	}
}

func respondJSON(w http.ResponseWriter, status int, reqID string, data any, apiErr *model.APIError) {
	resp := model.Response{
		RequestID: reqID,
		Timestamp: time.Now().UTC(),
		Data:      data,
		Error:     apiErr,
	}
	if apiErr != nil {
		resp.Status = "error"
	} else {
		resp.Status = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
