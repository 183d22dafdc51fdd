// Package cache is a small byte-oriented cache port used on read-heavy
// question bank paths.
package cache

import (
	"context"
	"encoding/json"
	"time"
)

type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration)
}

// DefaultTTL is how long question bank reads stay cached.
const DefaultTTL = 5 * time.Minute

type NoopCache struct{}

func (NoopCache) Get(context.Context, string) ([]byte, bool) { return nil, false }

func (NoopCache) Put(context.Context, string, []byte, time.Duration) {}

// GetJSON decodes a cached value into out. A miss or a corrupt entry reports false.
func GetJSON(ctx context.Context, c Cache, key string, out any) bool {
	raw, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

// PutJSON encodes value and stores it. Encoding failures are dropped.
func PutJSON(ctx context.Context, c Cache, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.Put(ctx, key, raw, ttl)
}
