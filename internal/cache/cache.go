package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache defines the interface for caching. Instances are scoped to one
// synthesis job: the processor creates a fresh cache per job and drops
// it when the job terminates, so no similarity or assessment state
// leaks across jobs.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key generates a namespaced cache key from arbitrary text
func Key(namespace, text string) string {
	hash := sha256.Sum256([]byte(text))
	return "chanuka:v1:" + namespace + ":" + hex.EncodeToString(hash[:])
}
