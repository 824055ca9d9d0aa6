// ABOUTME: Store interface and errors for coven-chat local persistence
// ABOUTME: Defines the small key/value contract used for client identity

package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested key does not exist
var ErrNotFound = errors.New("not found")

// KV is a durable string key/value store.
type KV interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// SetIfAbsent stores value only when key has no value yet and returns
	// the value that ends up stored.
	SetIfAbsent(ctx context.Context, key, value string) (string, error)

	// Close releases the underlying resources.
	Close() error
}
