package shared

import (
	"context"
	"time"
)

// IdempotencyStore records which events a consumer has already handled.
// Outbox delivery is at-least-once, so consumers with side effects use it to
// drop redeliveries.
type IdempotencyStore interface {
	// MarkProcessed claims an event for processing for the given TTL.
	// Returns true if the claim is new, false if the event was already claimed.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if an event has already been claimed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release drops a claim so the event can be handled again
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a processed event ID is remembered. Default: 24 hours
	TTL time.Duration

	// Enabled turns idempotency checking on. Default: true
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
