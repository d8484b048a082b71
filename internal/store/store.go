// Package store is the single-origin key-value store the booking core persists into.
// It offers single-key reads and writes only: there is no multi-key transaction,
// so callers that touch several keys must order their writes themselves.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key does not exist
var ErrNotFound = errors.New("key not found")

// Store defines single-key access to the key-value store
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set writes value under key. A zero ttl keeps the key forever.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Keys lists keys matching a glob pattern such as "reservations:*"
	Keys(ctx context.Context, pattern string) ([]string, error)
}
