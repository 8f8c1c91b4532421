// internal/server/status.go
package server

import (
	"net/http"
	"time"

	"github.com/rovshanmuradov/solana-relay/internal/domain"
	"github.com/rovshanmuradov/solana-relay/internal/storage"
)

func (s *Server) handleTokens(w http.ResponseWriter, _ *http.Request) {
	tokens := s.service.Tokens.ReadAndDrain()
	if tokens == nil {
		tokens = []domain.TokenDiscovery{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"count":  len(tokens),
		"tokens": tokens,
	})
}

func (s *Server) handleEvents(store storage.EventStore) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		events := store.ReadFiltered()
		if events == nil {
			events = []domain.Event{}
		}
		s.writeJSON(w, http.StatusOK, map[string]any{
			"status": "success",
			"count":  len(events),
			"events": events,
		})
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":           "healthy",
		"monitored_pools":  s.service.Pools.Len(),
		"monitored_freeze": s.service.Freezes.Len(),
		"pending_tokens":   s.service.Tokens.Len(),
		"uptime":           s.service.Uptime().Round(time.Second).String(),
	})
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "pong",
		"method":    r.Method,
		"timestamp": s.clock.Now().UTC().Format(time.RFC3339),
	})
}
