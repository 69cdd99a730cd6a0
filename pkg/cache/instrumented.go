package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/carepath/pkg/observability"
)

// Instrumented reports hits, misses and writes of an inner cache to the
// registered observability hooks, tagged with the key type ("artifact",
// "overview").
type Instrumented struct {
	Cache
}

// NewInstrumented wraps inner.
func NewInstrumented(inner Cache) *Instrumented { return &Instrumented{Cache: inner} }

// Get reads through and records a hit or miss.
func (c *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.Cache.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, keyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, hit, err
}

// Set writes through and records the entry size.
func (c *Instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	return nil
}

func keyType(key string) string {
	// Scoped keys carry a tenant prefix; the type sits right before the hash.
	parts := strings.Split(key, ":")
	if len(parts) < 2 {
		return key
	}
	return parts[len(parts)-2]
}
