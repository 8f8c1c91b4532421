// internal/server/monitors.go
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-relay/internal/monitor"
)

const (
	poolKeyField   = "pool_address"
	freezeKeyField = "address"
)

type monitorRequest struct {
	PoolAddress string `json:"pool_address"`
	Address     string `json:"address"`
	CallbackURL string `json:"callback_url"`
	TestMode    bool   `json:"test_mode"`
}

func (req monitorRequest) key(field string) string {
	if field == poolKeyField {
		return req.PoolAddress
	}
	return req.Address
}

func (s *Server) handleMonitor(registry *monitor.Registry, keyField string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req monitorRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		entity, err := registry.Register(r.Context(), req.key(keyField), req.CallbackURL, req.TestMode)
		if err != nil {
			status := statusFor(err)
			if status == http.StatusInternalServerError {
				s.logger.Error("❌ Monitor registration failed",
					zap.String("kind", string(registry.Kind())),
					zap.String("key", req.key(keyField)),
					zap.Error(err))
			}
			s.writeError(w, status, err.Error())
			return
		}

		s.writeJSON(w, http.StatusCreated, map[string]any{
			"callback_id": entity.CallbackID,
			keyField:      entity.Key,
			"status":      "monitoring",
			"test_mode":   entity.TestMode,
		})
	}
}

func (s *Server) handleStop(registry *monitor.Registry, keyField string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue(keyField)

		if err := registry.Unregister(r.Context(), key); err != nil {
			s.writeError(w, statusFor(err), err.Error())
			return
		}

		s.writeJSON(w, http.StatusOK, map[string]string{
			"status": "stopped",
			keyField: key,
		})
	}
}

func (s *Server) handleListPools(w http.ResponseWriter, _ *http.Request) {
	pools := entityViews(s.service.Pools.List(), poolKeyField)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"count": len(pools),
		"pools": pools,
	})
}

func (s *Server) handleListFreeze(w http.ResponseWriter, _ *http.Request) {
	addresses := entityViews(s.service.Freezes.List(), freezeKeyField)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"count":     len(addresses),
		"addresses": addresses,
	})
}

func entityViews(entities []monitor.Entity, keyField string) []map[string]any {
	out := make([]map[string]any, 0, len(entities))
	for _, e := range entities {
		var webhookID *string
		if e.WebhookID != "" {
			id := e.WebhookID
			webhookID = &id
		}
		out = append(out, map[string]any{
			keyField:       e.Key,
			"callback_url": e.CallbackURL,
			"callback_id":  e.CallbackID,
			"webhook_id":   webhookID,
			"test_mode":    e.TestMode,
			"created_at":   e.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}
