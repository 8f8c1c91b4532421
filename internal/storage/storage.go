// internal/storage/storage.go
package storage

import (
	"time"

	"github.com/rovshanmuradov/solana-relay/internal/domain"
)

// Expiry windows of the polling buffers
const (
	DefaultTokenWindow = 20 * time.Second
	DefaultEventWindow = 300 * time.Second
)

// TokenStore holds recently discovered tokens for a single poller
type TokenStore interface {
	Append(rec domain.TokenDiscovery)
	// ReadAndDrain returns records inside the window and clears the store
	ReadAndDrain() []domain.TokenDiscovery
	Len() int
}

// EventStore holds recent events for any number of pollers
type EventStore interface {
	Append(ev domain.Event)
	// ReadFiltered returns events inside the window without removing anything
	ReadFiltered() []domain.Event
	Len() int
}
