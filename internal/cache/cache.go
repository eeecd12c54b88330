// Package cache memoises derived values (classifications) by content
// fingerprint across runs.
package cache

import (
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key namespaces a content fingerprint, e.g. Key("classify", fp)
func Key(kind, fingerprint string) string {
	return "vignette:v1:" + kind + ":" + fingerprint
}

// Nop is a cache that stores nothing
type Nop struct{}

func (Nop) Get(string) ([]byte, bool)               { return nil, false }
func (Nop) Set(string, []byte, time.Duration) error { return nil }
func (Nop) Delete(string) error                     { return nil }
func (Nop) Clear() error                            { return nil }
