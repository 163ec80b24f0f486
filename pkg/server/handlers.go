package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/coolbeans/lawlinks/pkg/citation"
	"github.com/coolbeans/lawlinks/pkg/detect"
	"github.com/coolbeans/lawlinks/pkg/logging"
)

// DetectRequest is the body of POST /detect.
type DetectRequest struct {
	Text *string `json:"text"`
}

// DetectResponse is the body of a successful POST /detect.
type DetectResponse struct {
	Links []citation.Link `json:"links"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)

	var req DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.Text == nil {
		writeError(w, http.StatusBadRequest, errors.New(`field "text" is required`))
		return
	}

	links, err := s.detector.Detect(r.Context(), *req.Text)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, detect.ErrNoIndex) {
			status = http.StatusServiceUnavailable
		}
		s.logger.Error("detect failed",
			logging.String("request_id", RequestIDFrom(r.Context())),
			logging.Err(err),
		)
		writeError(w, status, err)
		return
	}

	writeJSON(w, http.StatusOK, DetectResponse{Links: links})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.detector.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "starting"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, statusCode int, err error) {
	writeJSON(w, statusCode, ErrorResponse{
		Code:    http.StatusText(statusCode),
		Message: err.Error(),
	})
}
