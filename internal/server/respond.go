// internal/server/respond.go
package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-relay/internal/monitor"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("Failed to write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps monitor errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, monitor.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, monitor.ErrNotMonitored):
		return http.StatusNotFound
	case errors.Is(err, monitor.ErrAlreadyMonitored):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
