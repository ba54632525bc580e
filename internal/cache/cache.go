// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cache provides the caching layer for newsline. The in-memory
// backend is the default; a Redis backend is used when a Redis URL is
// configured.
package cache

import (
	"context"
	"time"
)

// Cache is the interface both backends implement. Values are []byte so the
// same code path serves the in-memory and the Redis cache. Implementations
// must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key, or ErrCacheMiss when absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A zero TTL means the default TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// Error is the error type for cache operations.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrCacheMiss indicates the key was not found or has expired.
	ErrCacheMiss Error = "cache miss"

	// ErrCacheClosed indicates the cache has been closed.
	ErrCacheClosed Error = "cache closed"
)

// New selects a backend: Redis when redisURL is non-empty, in-memory
// otherwise.
func New(redisURL string, defaultTTL time.Duration) (Cache, error) {
	if redisURL != "" {
		return NewRedisCache(redisURL, "newsline:", defaultTTL)
	}
	return NewMemoryCache(defaultTTL), nil
}
