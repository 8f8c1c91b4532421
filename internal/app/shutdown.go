// internal/app/shutdown.go
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"
)

const defaultShutdownTimeout = 30 * time.Second

// CloseFunc closes a service within the shutdown deadline
type CloseFunc func(ctx context.Context) error

// ShutdownHandler closes registered services in reverse registration order
type ShutdownHandler struct {
	logger   *zap.Logger
	services []namedService
	mu       sync.Mutex
	timeout  time.Duration
	once     sync.Once
	err      error
}

type namedService struct {
	name  string
	close CloseFunc
}

// NewShutdownHandler creates a new shutdown handler
func NewShutdownHandler(logger *zap.Logger, timeout time.Duration) *ShutdownHandler {
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	return &ShutdownHandler{
		logger:  logger.Named("shutdown"),
		timeout: timeout,
	}
}

// Add registers an io.Closer for shutdown
func (sh *ShutdownHandler) Add(name string, closer io.Closer) {
	sh.AddFunc(name, func(context.Context) error { return closer.Close() })
}

// AddFunc registers a shutdown function
func (sh *ShutdownHandler) AddFunc(name string, fn CloseFunc) {
	sh.mu.Lock()
	defer sh.mu.Unlock()

	sh.services = append(sh.services, namedService{name: name, close: fn})
	sh.logger.Debug("Registered service for shutdown", zap.String("service", name))
}

// Shutdown closes every service once, LIFO, bounded by the handler timeout.
// Later calls return the first result.
func (sh *ShutdownHandler) Shutdown(ctx context.Context) error {
	sh.once.Do(func() {
		sh.err = sh.shutdown(ctx)
	})
	return sh.err
}

func (sh *ShutdownHandler) shutdown(ctx context.Context) error {
	sh.mu.Lock()
	services := make([]namedService, len(sh.services))
	copy(services, sh.services)
	sh.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, sh.timeout)
	defer cancel()

	sh.logger.Info("Starting graceful shutdown", zap.Int("services", len(services)))

	var errs []error
	for i := len(services) - 1; i >= 0; i-- {
		svc := services[i]
		if err := sh.closeOne(ctx, svc); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		sh.logger.Error("Shutdown completed with errors", zap.Int("errorCount", len(errs)))
		return errors.Join(errs...)
	}

	sh.logger.Info("✅ Graceful shutdown completed successfully")
	return nil
}

func (sh *ShutdownHandler) closeOne(ctx context.Context, svc namedService) error {
	done := make(chan error, 1)
	go func() {
		sh.logger.Info("Shutting down service", zap.String("service", svc.name))
		done <- svc.close(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			sh.logger.Error("Failed to shutdown service", zap.String("service", svc.name), zap.Error(err))
			return fmt.Errorf("%s: %w", svc.name, err)
		}
		sh.logger.Info("Service shutdown complete", zap.String("service", svc.name))
		return nil
	case <-ctx.Done():
		sh.logger.Error("Shutdown timeout for service", zap.String("service", svc.name))
		return fmt.Errorf("%s: shutdown timeout", svc.name)
	}
}
