package ports

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// CacheKey builds a namespaced key from a hash of the raw text
func CacheKey(namespace, text string) string {
	h := sha256.Sum256([]byte(text))
	return namespace + ":" + hex.EncodeToString(h[:])[:16]
}

// GetJSON reads and decodes a cached value. Undecodable entries count as misses.
func GetJSON[T any](ctx context.Context, cache Cache, key string) (T, bool) {
	var value T
	if cache == nil {
		return value, false
	}
	raw, ok := cache.Get(ctx, key)
	if !ok {
		return value, false
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false
	}
	return value, true
}

// SetJSON encodes and stores a value
func SetJSON[T any](ctx context.Context, cache Cache, key string, value T, ttl time.Duration) error {
	if cache == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return cache.Set(ctx, key, raw, ttl)
}
