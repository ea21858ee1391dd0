package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Cache stores serialized evaluation results keyed by request identity.
// Implementations must be safe for concurrent use by in-flight
// evaluations; the TTL policy is owned by the implementation.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Key derives the cache key for a (context, password) pair. The hints
// are joined in their original order, so reordered hints address a
// different entry and duplicates are significant; an empty hint slice
// and a nil one coincide. The joined string is hashed so the raw
// password never appears in cache keys or key logs.
func Key(contextHints []string, password string) string {
	parts := make([]string, 0, len(contextHints)+1)
	parts = append(parts, contextHints...)
	parts = append(parts, password)

	sum := sha256.Sum256([]byte(strings.Join(parts, "-")))
	return hex.EncodeToString(sum[:])
}
