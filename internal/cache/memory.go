// Package cache provides weather.Cache implementations: an in-process
// store for single instances and a Redis store shared across processes.
package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/skycast/skycast/internal/weather"
)

// MemoryConfig holds configuration for the in-process cache.
type MemoryConfig struct {
	// CleanupInterval is how often expired entries are purged.
	// Default: 10 minutes.
	CleanupInterval time.Duration

	// MaxEntries bounds the number of cities held. Zero means unbounded.
	MaxEntries int
}

// Memory is an in-process snapshot cache. Entries are cloned on the way
// in and out so callers never share a snapshot with the cache.
type Memory struct {
	mu         sync.Mutex // serializes Set for the size bound
	store      *gocache.Cache
	maxEntries int
}

// NewMemory creates a new in-process cache.
func NewMemory(cfg MemoryConfig) *Memory {
	cleanup := cfg.CleanupInterval
	if cleanup == 0 {
		cleanup = 10 * time.Minute
	}

	return &Memory{
		store:      gocache.New(weather.DefaultCacheTTL, cleanup),
		maxEntries: cfg.MaxEntries,
	}
}

// Get returns a copy of the cached snapshot or weather.ErrCacheMiss.
func (m *Memory) Get(_ context.Context, key string) (*weather.Snapshot, error) {
	v, ok := m.store.Get(key)
	if !ok {
		return nil, weather.ErrCacheMiss
	}
	snap, ok := v.(*weather.Snapshot)
	if !ok {
		return nil, weather.ErrCacheMiss
	}
	return snap.Clone(), nil
}

// Set stores a copy of value for ttl, replacing any previous entry.
func (m *Memory) Set(_ context.Context, key string, value *weather.Snapshot, ttl time.Duration) error {
	if value == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxEntries > 0 {
		if _, exists := m.store.Get(key); !exists && m.store.ItemCount() >= m.maxEntries {
			m.evict()
		}
	}

	m.store.Set(key, value.Clone(), ttl)
	return nil
}

// Len returns the number of entries, including expired ones not yet purged.
func (m *Memory) Len() int {
	return m.store.ItemCount()
}

// Flush removes every entry.
func (m *Memory) Flush() {
	m.store.Flush()
}

// evict drops expired entries, then the entry closest to expiry if still full.
func (m *Memory) evict() {
	m.store.DeleteExpired()
	if m.store.ItemCount() < m.maxEntries {
		return
	}

	var (
		oldestKey string
		oldestExp int64
	)
	for k, item := range m.store.Items() {
		if oldestKey == "" || item.Expiration < oldestExp {
			oldestKey, oldestExp = k, item.Expiration
		}
	}
	if oldestKey != "" {
		m.store.Delete(oldestKey)
	}
}
