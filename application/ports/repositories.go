package ports

import (
	"context"
	"time"

	"papergraph/domain/core/entities"
)

// PaperSource loads the raw paper list a graph is built from
type PaperSource interface {
	// Load returns papers in source order
	Load(ctx context.Context) ([]entities.Paper, error)

	// Describe names the source for logs
	Describe() string
}

// Cache defines the interface for keyed byte storage.
// Writes are idempotent: storing the same key twice is always safe.
type Cache interface {
	// Get retrieves a value; the bool reports a hit
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value; a zero ttl means no expiry
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value
	Delete(ctx context.Context, key string) error

	// Clear removes every value owned by this cache
	Clear(ctx context.Context) error
}
