package pipeline

import (
	"encoding/json"
	"time"
)

// CacheEntry is the persisted record of one upstream query.
type CacheEntry struct {
	Kind         string    `json:"kind"`
	Locator      string    `json:"locator"`
	Observations []string  `json:"observations"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// Fresh reports whether e is younger than freshness at now.
func (e CacheEntry) Fresh(now time.Time, freshness time.Duration) bool {
	return now.Sub(e.FetchedAt) < freshness
}

// MarshalCacheEntry encodes e as JSON.
func MarshalCacheEntry(e CacheEntry) ([]byte, error) {
	return json.Marshal(e)
}

// UnmarshalCacheEntry decodes an entry written by MarshalCacheEntry.
func UnmarshalCacheEntry(data []byte) (CacheEntry, error) {
	var e CacheEntry
	err := json.Unmarshal(data, &e)
	return e, err
}
