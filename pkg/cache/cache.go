// Package cache stores rendered images so that repeated conversions of the
// same input with the same options are served without drawing.
//
// Backends:
//
//   - [FileCache]: one file per entry under a directory, for the CLI
//   - [RedisCache]: a shared Redis instance, for the HTTP server
//   - [MongoCache]: a MongoDB collection with a TTL index
//   - [NullCache]: caching disabled
//
// [Open] picks a backend from a location string. Keys are built by a
// [Keyer] so that every component derives them the same way.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/molgrid/pkg/errors"
	"github.com/matzehuels/molgrid/pkg/observability"
)

// DefaultTTL is how long rendered images are kept.
const DefaultTTL = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the backend's resources.
	Close() error
}

// Open returns the cache at location:
//
//	""                 file cache in dir
//	"none", "off"      caching disabled
//	"redis://..."      Redis
//	"mongodb://..."    MongoDB (also mongodb+srv://)
func Open(ctx context.Context, location, dir string) (Cache, error) {
	switch {
	case location == "":
		fc, err := NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return fc, nil
	case location == "none" || location == "off":
		return NewNullCache(), nil
	case strings.HasPrefix(location, "redis://"), strings.HasPrefix(location, "rediss://"):
		rc, err := NewRedisCache(ctx, location)
		if err != nil {
			return nil, err
		}
		return rc, nil
	case strings.HasPrefix(location, "mongodb://"), strings.HasPrefix(location, "mongodb+srv://"):
		mc, err := NewMongoCache(ctx, location, "")
		if err != nil {
			return nil, err
		}
		return mc, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidOption, "unsupported cache location %q", location)
}

// Instrumented reports hits, misses and writes of an inner cache to the
// observability hooks, labelled with keyType.
type Instrumented struct {
	Cache
	keyType string
}

// Instrument wraps c so its traffic is visible to the cache hooks.
func Instrument(c Cache, keyType string) *Instrumented {
	return &Instrumented{Cache: c, keyType: keyType}
}

// Get implements Cache.
func (c *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.Cache.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, c.keyType)
		} else {
			observability.Cache().OnCacheMiss(ctx, c.keyType)
		}
	}
	return data, hit, err
}

// Set implements Cache.
func (c *Instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, c.keyType, len(data))
	return nil
}

var _ Cache = (*Instrumented)(nil)
