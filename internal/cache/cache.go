// Package cache is a small TTL key-value abstraction for ephemeral state:
// one-time passwords (removed on use) and login-attempt counters (reset on
// success). Call sites don't care whether it is process-local or Redis.
package cache

import (
	"context"
	"time"
)

// Store is a TTL key-value store safe for concurrent use.
type Store interface {
	// Put stores value under key for ttl.
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	// GetIfValid returns the value when the key exists and has not expired.
	// Expired entries count as a miss.
	GetIfValid(ctx context.Context, key string) (string, bool, error)
	// Remove deletes the key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}
