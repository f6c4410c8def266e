// Package cache provides the expiring key-value cache used for cache-aside
// reads: an embedded bbolt store and a client for the shared cache daemon.
package cache

import (
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("cache: not found")
	ErrExpired  = errors.New("cache: expired")
)

// KV defines the key-value cache contract with TTL semantics.
// Implementations must be safe for concurrent use by multiple goroutines.
type KV interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte, ttl time.Duration) error
	Delete(key string) error

	// Keys lists every stored key beginning with prefix.
	Keys(prefix string) ([]string, error)
	// DeletePrefix removes every key beginning with prefix and reports how many were removed.
	DeletePrefix(prefix string) (int, error)
}

// Nop is a KV that stores nothing. Every Get misses.
type Nop struct{}

func (Nop) Get(string) ([]byte, error)              { return nil, ErrNotFound }
func (Nop) Put(string, []byte, time.Duration) error { return nil }
func (Nop) Delete(string) error                     { return nil }
func (Nop) Keys(string) ([]string, error)           { return nil, nil }
func (Nop) DeletePrefix(string) (int, error)        { return 0, nil }
