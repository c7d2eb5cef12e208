// Package cache provides the catalog's read cache.
//
// Read-through pattern:
//   - On read:  the cache is checked first (HIT). On a miss the caller loads
//     from the document store and back-fills the cache.
//   - On write: the caller deletes every key derived from the mutated
//     collection. Concurrent fills are last-write-wins.
//
// Values are stored as JSON so every driver behaves the same.
package cache

import (
	"context"
	"errors"
	"time"
)

// DefaultTTL bounds how stale a storefront list may get.
const DefaultTTL = 5 * time.Minute

// Storefront keys.
const (
	KeyFeaturedCars       = "featuredCars"
	KeyFeaturedBrands     = "featuredBrands"
	KeyFeaturedCategories = "featuredCategories"
	KeyBrands             = "brands"
	KeyCategories         = "categories"
)

// ErrNotFound is returned when a key does not exist or has expired.
var ErrNotFound = errors.New("cache: key not found")

// Cache is implemented by Memory, Redis and Noop.
type Cache interface {
	// Get decodes the value at key into dest, or returns ErrNotFound.
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
