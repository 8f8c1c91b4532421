// internal/server/ingress.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"go.uber.org/zap"
)

var received = map[string]string{"status": "received"}

// Provider callbacks are always acknowledged with 200 so the provider never
// retries, whatever the payload looked like.

func (s *Server) handlePoolCallback(w http.ResponseWriter, r *http.Request) {
	s.ingest(w, r, func(ctx context.Context, data any) {
		if !s.service.IngestPoolCreation(ctx, data) {
			s.logger.Debug("Pool callback carried no pool creation")
		}
	})
}

func (s *Server) handleLiquidityCallback(w http.ResponseWriter, r *http.Request) {
	s.ingest(w, r, func(ctx context.Context, data any) {
		if !s.service.IngestLiquidity(ctx, data) {
			s.logger.Debug("Liquidity callback carried no swap or removal")
		}
	})
}

func (s *Server) handleFreezeCallback(w http.ResponseWriter, r *http.Request) {
	s.ingest(w, r, func(ctx context.Context, data any) {
		if n := s.service.IngestFreeze(ctx, data); n > 0 {
			s.logger.Info("🧊 Freeze events dispatched", zap.Int("count", n))
		}
	})
}

func (s *Server) ingest(w http.ResponseWriter, r *http.Request, handle func(context.Context, any)) {
	s.metrics.RecordCallback(r.URL.Path)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.logger.Warn("Failed to read callback body", zap.String("path", r.URL.Path), zap.Error(err))
		s.writeJSON(w, http.StatusOK, received)
		return
	}

	if ce := s.logger.Check(zap.DebugLevel, "Callback received"); ce != nil {
		ce.Write(
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Any("headers", r.Header),
			zap.ByteString("body", body))
	}

	if len(bytes.TrimSpace(body)) > 0 {
		var data any
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&data); err != nil {
			s.logger.Warn("Malformed callback payload", zap.String("path", r.URL.Path), zap.Error(err))
		} else {
			handle(r.Context(), data)
		}
	}

	s.writeJSON(w, http.StatusOK, received)
}
