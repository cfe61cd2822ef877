package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores raw response bodies keyed by query hash. Implementations must
// be safe for concurrent use.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a stable cache key from a query string. The version segment
// invalidates everything at once when response handling changes shape.
func Key(query string) string {
	sum := sha256.Sum256([]byte(query))
	return "entigest:v1:" + hex.EncodeToString(sum[:])
}
