// Package cache provides a small string cache over a managed Redis instance,
// with an in-memory implementation for tests and development runs.
package cache

import (
	"context"
	"time"
)

// Cache is a get/set-with-expiry/delete abstraction over string keys and
// values. Implementations must be safe for concurrent use. A zero ttl means
// no expiry.
type Cache interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
