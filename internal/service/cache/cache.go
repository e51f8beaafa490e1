// Package cache provides the byte-oriented cache used for serving
// repeated quote requests without re-running the pricing pipeline.
package cache

import "time"

// BytesCache stores opaque payloads under string keys with a TTL.
// Quote responses are cached as their serialized JSON bodies, so the
// cache never needs to understand the recommendation shape.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}
