// Package stores provides concrete cache store implementations
package stores

import (
	"strings"
	"sync"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/caching/interfaces"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/caching/types"
)

var _ interfaces.Cache = (*TTLStore)(nil)

// TTLStore is a bounded in-memory key/value store with per-entry expiry.
// Expiry is enforced lazily on read and eagerly by SweepExpired. When the
// store is full the entry with the oldest StoredAt is evicted; the scan is
// linear, which is acceptable only because capacity stays small and bounded.
type TTLStore struct {
	entries    map[string]*types.CacheEntry
	capacity   int
	defaultTTL time.Duration
	stats      types.CacheStats
	mu         sync.RWMutex
	now        func() time.Time
}

// NewTTLStore creates a TTL store with the given capacity and default TTL.
func NewTTLStore(capacity int, defaultTTL time.Duration) *TTLStore {
	if capacity <= 0 {
		capacity = 1000
	}
	return &TTLStore{
		entries:    make(map[string]*types.CacheEntry),
		capacity:   capacity,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// WithClock overrides the store's clock for deterministic expiry in tests.
func (s *TTLStore) WithClock(now func() time.Time) *TTLStore {
	s.now = now
	return s
}

// Get returns the value for key, lazily evicting it if expired. Hit and miss
// counters are updated on every call.
func (s *TTLStore) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.entries[key]
	if !exists {
		s.stats.Misses++
		return nil, false
	}
	if entry.Expired(s.now()) {
		delete(s.entries, key)
		s.stats.Misses++
		return nil, false
	}

	s.stats.Hits++
	return entry.Data, true
}

// Set stores a value under key. A non-positive ttl falls back to the store
// default. If the store is at capacity the oldest entry is evicted first.
func (s *TTLStore) Set(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[key]; !exists && len(s.entries) >= s.capacity {
		s.evictOldestUnsafe()
	}

	s.entries[key] = &types.CacheEntry{
		Key:      key,
		Data:     value,
		StoredAt: s.now(),
		TTL:      ttl,
	}
}

// GetOrSet returns the cached value on a hit; on a miss it invokes fetch and
// stores the result. Concurrent misses for the same key may each invoke
// fetch independently; callers needing single-flight wrap this themselves.
func (s *TTLStore) GetOrSet(key string, fetch interfaces.Fetcher, ttl time.Duration) (any, error) {
	if value, ok := s.Get(key); ok {
		return value, nil
	}

	value, err := fetch()
	if err != nil {
		return nil, err
	}

	s.Set(key, value, ttl)
	return value, nil
}

// evictOldestUnsafe removes the single entry with the smallest StoredAt.
// INTERNAL USE ONLY: assumes caller already holds s.mu.Lock()
func (s *TTLStore) evictOldestUnsafe() {
	var oldestKey string
	var oldestTime time.Time
	first := true

	for key, entry := range s.entries {
		if first || entry.StoredAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.StoredAt
			first = false
		}
	}

	if oldestKey != "" {
		delete(s.entries, oldestKey)
		s.stats.Evictions++
	}
}

// Invalidate removes every key matching pattern and returns how many were
// removed. A trailing '*' matches by prefix; any other pattern matches by
// substring.
func (s *TTLStore) Invalidate(pattern string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	match := func(key string) bool { return strings.Contains(key, pattern) }
	if strings.HasSuffix(pattern, "*") {
		prefix := strings.TrimSuffix(pattern, "*")
		match = func(key string) bool { return strings.HasPrefix(key, prefix) }
	}

	var removed int
	for key := range s.entries {
		if match(key) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// InvalidateOrg removes every key scoped to an organization
func (s *TTLStore) InvalidateOrg(orgID string) int {
	return s.Invalidate("org:" + orgID + ":*")
}

// InvalidateUser removes every key scoped to a user within an organization
func (s *TTLStore) InvalidateUser(orgID, userID string) int {
	return s.Invalidate("org:" + orgID + ":user:" + userID + ":*")
}

// SweepExpired removes all expired entries regardless of access pattern and
// returns how many were removed. The cleanup worker drives this on a fixed
// interval, independent of the lazy path in Get.
func (s *TTLStore) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var removed int
	for key, entry := range s.entries {
		if entry.Expired(now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Stats returns a copy of the accumulated counters plus the current size
func (s *TTLStore) Stats() types.CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := s.stats
	stats.Size = len(s.entries)
	return stats
}

// Clear drops every entry and resets the counters
func (s *TTLStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*types.CacheEntry)
	s.stats = types.CacheStats{}
}
