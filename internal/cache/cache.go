// Package cache is the key-value layer used as a read-through/write-through
// cache in front of the durable store. Values are opaque serialized entities;
// lists hold one serialized entity per element in store order.
package cache

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL is the expiration applied to every entry written by the services.
const DefaultTTL = 3600 * time.Second

// ErrWrongType is returned when a list operation targets a single-value key or
// the other way round.
var ErrWrongType = errors.New("cache: operation against a key holding the wrong kind of value")

// Cache is implemented by the Redis and Badger backends.
type Cache interface {
	// Get returns the value at key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value at key, expiring after ttl (no expiry when ttl <= 0).
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Del removes keys; absent keys are ignored.
	Del(ctx context.Context, keys ...string) error
	// ListRange returns every element of the list at key; empty when absent.
	ListRange(ctx context.Context, key string) ([][]byte, error)
	// ListAppend pushes values to the tail of the list at key, keeping its expiry.
	ListAppend(ctx context.Context, key string, values ...[]byte) error
	// ListReplace atomically swaps the list at key for values, expiring after
	// ttl. No values leaves the key absent.
	ListReplace(ctx context.Context, key string, ttl time.Duration, values ...[]byte) error
	// Expire sets the expiry of an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error
	// TTL reports the remaining lifetime of key; zero when absent or persistent.
	TTL(ctx context.Context, key string) (time.Duration, error)
	Close() error
}
