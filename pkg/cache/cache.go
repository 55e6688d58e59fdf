// Package cache provides the persistent store behind upstream observations.
//
// All backends implement [Cache], a byte-oriented key/value store with
// per-entry TTL. The pipeline encodes what it stores; backends never look
// inside values.
//
// Backends:
//
//   - [FileCache]: one JSON file per key under a directory (default)
//   - [BadgerCache]: an embedded badger database
//   - [RedisCache]: a shared redis server
//   - [NullCache]: stores nothing
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Cache is a key/value store with expiring entries.
//
// Implementations must be safe for concurrent use. Get reports a miss with
// found=false and a nil error; expired entries are misses.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, found bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Maintainer is implemented by backends that support housekeeping from
// the CLI.
type Maintainer interface {
	// Clear removes every entry.
	Clear(ctx context.Context) error
	// Prune removes expired entries and returns how many were removed.
	Prune(ctx context.Context) (int, error)
	// Info describes the backend's current contents.
	Info(ctx context.Context) (Info, error)
}

// Info summarizes a cache's contents.
type Info struct {
	Backend  Backend `json:"backend"`
	Location string  `json:"location"`
	Entries  int     `json:"entries"`
	Bytes    int64   `json:"bytes"`
}

// Backend names a cache implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendBadger Backend = "badger"
	BackendRedis  Backend = "redis"
	BackendNone   Backend = "none"
)

// Backends lists the supported backends.
var Backends = []Backend{BackendFile, BackendBadger, BackendRedis, BackendNone}

// ErrUnknownBackend is returned by ParseBackend and Open.
var ErrUnknownBackend = errors.New("unknown cache backend")

// ParseBackend validates a backend name. The empty string selects the file
// backend.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BackendFile, nil
	case BackendFile, BackendBadger, BackendRedis, BackendNone:
		return b, nil
	case "null", "off":
		return BackendNone, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBackend, s)
}

// Options selects and configures a backend.
type Options struct {
	Backend  Backend
	Dir      string // file and badger
	RedisURL string // redis
}

// Open creates the backend described by opts.
func Open(opts Options) (Cache, error) {
	var (
		c   Cache
		err error
	)
	switch opts.Backend {
	case BackendFile, "":
		c, err = NewFileCache(opts.Dir)
	case BackendBadger:
		c, err = NewBadgerCache(opts.Dir)
	case BackendRedis:
		c, err = NewRedisCache(opts.RedisURL)
	case BackendNone:
		c = NewNullCache()
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
