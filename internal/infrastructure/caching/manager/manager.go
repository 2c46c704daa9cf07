// Package manager wires the in-memory stores and the optional persistent
// backend into a single cache facade
package manager

import (
	"encoding/json"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/domain/insights"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/caching/interfaces"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/caching/stores"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/caching/types"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/logging"
)

var _ interfaces.Cache = (*Manager)(nil)

// Manager fronts the TTL store and the insight store, consulting the
// persistent backend on misses when one is configured. Backend failures
// degrade to memory-only operation per call; they never fail the request.
type Manager struct {
	store    *stores.TTLStore
	insights *stores.InsightStore
	backend  interfaces.Backend
	logger   *logging.ChanneledLogger
}

// New creates a cache manager. backend may be nil for memory-only mode.
func New(capacity int, defaultTTL time.Duration, backend interfaces.Backend, logger *logging.ChanneledLogger) *Manager {
	return &Manager{
		store:    stores.NewTTLStore(capacity, defaultTTL),
		insights: stores.NewInsightStore(),
		backend:  backend,
		logger:   logger,
	}
}

// Store exposes the underlying TTL store for the cleanup worker
func (m *Manager) Store() *stores.TTLStore {
	return m.store
}

// InsightStore exposes the underlying insight store for the purge loop
func (m *Manager) InsightStore() *stores.InsightStore {
	return m.insights
}

// Get checks memory first, then the backend. Backend hits come back as
// json.RawMessage because the stored shape is not known at this layer;
// callers that need the typed value decode it themselves.
func (m *Manager) Get(key string) (any, bool) {
	if value, ok := m.store.Get(key); ok {
		return value, true
	}

	if m.backend == nil {
		return nil, false
	}

	raw, found, err := m.backend.Get(key)
	if err != nil {
		m.logger.Cache().Warn("Backend read failed, continuing memory-only", "key", key, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	return json.RawMessage(raw), true
}

// Set writes through to memory and, when configured, the backend. A backend
// write failure is logged and swallowed.
func (m *Manager) Set(key string, value any, ttl time.Duration) {
	m.store.Set(key, value, ttl)

	if m.backend == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		m.logger.Cache().Warn("Backend write skipped, value not serializable", "key", key, "error", err)
		return
	}
	if err := m.backend.Set(key, data, ttl); err != nil {
		m.logger.Cache().Warn("Backend write failed", "key", key, "error", err)
	}
}

// GetOrSet returns the cached value or computes and stores it via fetch
func (m *Manager) GetOrSet(key string, fetch interfaces.Fetcher, ttl time.Duration) (any, error) {
	if value, ok := m.Get(key); ok {
		return value, nil
	}

	value, err := fetch()
	if err != nil {
		return nil, err
	}

	m.Set(key, value, ttl)
	return value, nil
}

// Invalidate removes matching keys from memory and the backend
func (m *Manager) Invalidate(pattern string) int {
	removed := m.store.Invalidate(pattern)

	if m.backend != nil {
		prefix := pattern
		if n := len(prefix); n > 0 && prefix[n-1] == '*' {
			prefix = prefix[:n-1]
		}
		if _, err := m.backend.DeletePrefix(prefix); err != nil {
			m.logger.Cache().Warn("Backend invalidation failed", "pattern", pattern, "error", err)
		}
	}
	return removed
}

// InvalidateOrg removes every cached view and insight for an organization
func (m *Manager) InvalidateOrg(orgID string) int {
	m.insights.InvalidateOrg(orgID)
	return m.Invalidate("org:" + orgID + ":*")
}

// InvalidateUser removes every cached entry scoped to a single user
func (m *Manager) InvalidateUser(orgID, userID string) int {
	return m.Invalidate("org:" + orgID + ":user:" + userID + ":*")
}

// SweepExpired evicts expired entries from the in-memory store
func (m *Manager) SweepExpired() int {
	return m.store.SweepExpired()
}

// Stats returns the in-memory store counters
func (m *Manager) Stats() types.CacheStats {
	return m.store.Stats()
}

// Clear drops all in-memory state. The backend is left untouched so a
// restart can still warm from it.
func (m *Manager) Clear() {
	m.store.Clear()
}

// GetInsights returns the live insight set for an organization
func (m *Manager) GetInsights(orgID string) ([]insights.PredictiveInsight, bool) {
	return m.insights.GetInsights(orgID)
}

// ReplaceInsights swaps the organization's insight set wholesale
func (m *Manager) ReplaceInsights(orgID string, set []insights.PredictiveInsight) {
	m.insights.ReplaceInsights(orgID, set)
}

// PurgeExpired drops expired insights across all organizations
func (m *Manager) PurgeExpired(now time.Time) int {
	return m.insights.PurgeExpired(now)
}

// Close releases the backend connection when one is configured
func (m *Manager) Close() error {
	if m.backend == nil {
		return nil
	}
	return m.backend.Close()
}
