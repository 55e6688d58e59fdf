package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// keyVersion is bumped when the encoding of cached values changes.
const keyVersion = "v1"

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Keyer derives storage keys for cached values.
type Keyer interface {
	// ObservationsKey returns the key for an upstream's raw observations.
	ObservationsKey(kind, locator string) string
}

type defaultKeyer struct{}

// NewDefaultKeyer returns the keyer used by the CLI.
func NewDefaultKeyer() Keyer { return defaultKeyer{} }

func (defaultKeyer) ObservationsKey(kind, locator string) string {
	return hashKey("obs:"+keyVersion, kind, locator)
}

// ScopedKeyer wraps a Keyer with a prefix so that several trees or users
// can share one backend without seeing each other's entries.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// ObservationsKey generates a prefixed observations key.
func (k *ScopedKeyer) ObservationsKey(kind, locator string) string {
	return k.prefix + k.inner.ObservationsKey(kind, locator)
}
