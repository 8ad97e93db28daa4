// Epigraph - Personal Quote Library with AI Recommendations
// Copyright 2026 Epigraph Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/epigraphlabs/epigraph

package recommend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// PoolCache is a process-wide TTL cache of candidate pools. Writes are
// whole-pool replacements; readers get a copied slice so a cached pool
// is never observed half-written or mutated after insertion.
//
// Two concurrent callers that both miss may both regenerate the same
// pool; the last writer wins. Single-flight deduplication is not worth
// the coordination here since buckets roll hourly.
type PoolCache struct {
	mu      sync.RWMutex
	entries map[string]poolEntry
}

type poolEntry struct {
	items     []RawCandidate
	expiresAt time.Time
}

// NewPoolCache creates an empty cache. Cleanup runs only when Janitor
// is started; expired entries are also dropped lazily on read.
func NewPoolCache() *PoolCache {
	return &PoolCache{entries: make(map[string]poolEntry)}
}

// Get returns a copy of the pool stored under key, if present and
// unexpired.
func (c *PoolCache) Get(key string) ([]RawCandidate, bool) {
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		// Re-check under the write lock; another writer may have
		// refreshed the entry meanwhile.
		if cur, ok := c.entries[key]; ok && time.Now().After(cur.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	items := make([]RawCandidate, len(entry.items))
	copy(items, entry.items)
	return items, true
}

// Set replaces the pool under key with its own copy of items.
func (c *PoolCache) Set(key string, items []RawCandidate, ttl time.Duration) {
	stored := make([]RawCandidate, len(items))
	copy(stored, items)

	c.mu.Lock()
	c.entries[key] = poolEntry{
		items:     stored,
		expiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()
}

// Len reports the number of entries, expired or not.
func (c *PoolCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Janitor removes expired entries every interval until ctx is done.
// Run it in its own goroutine, typically under the supervision tree.
func (c *PoolCache) Janitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *PoolCache) evictExpired() {
	now := time.Now()
	c.mu.Lock()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
	c.mu.Unlock()
}

// poolKey derives the cache key for general recommendations: pools
// rotate hourly and are scoped to the topic and the user context
// fingerprint.
func poolKey(topic Topic, bucket, fingerprint string) string {
	return fmt.Sprintf("pool:%s:%s:%s", topic, bucket, fingerprint)
}

// dailyKey scopes the daily quote to the topic and calendar day.
func dailyKey(topic Topic, day string) string {
	return fmt.Sprintf("daily:%s:%s", topic, day)
}

// bookKey scopes the book curator pool to the hour bucket and context.
func bookKey(bucket, fingerprint string) string {
	return fmt.Sprintf("books:%s:%s", bucket, fingerprint)
}

// contextFingerprint hashes the free-text user context into a stable
// key component. Empty context shares the "default" pool.
func contextFingerprint(userContext string) string {
	if userContext == "" {
		return "default"
	}
	sum := sha256.Sum256([]byte(userContext))
	return hex.EncodeToString(sum[:])
}
