// Package interfaces defines cache operation contracts for the analytics core.
package interfaces

import (
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/domain/insights"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/caching/types"
)

// Fetcher computes a value on a cache miss
type Fetcher func() (any, error)

// Cache is the contract consumed by the materialized view manager and by
// dashboard collaborators reading aggregates.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	GetOrSet(key string, fetch Fetcher, ttl time.Duration) (any, error)
	Invalidate(pattern string) int
	InvalidateOrg(orgID string) int
	InvalidateUser(orgID, userID string) int
	SweepExpired() int
	Stats() types.CacheStats
	Clear()
}

// InsightCache stores per-organization insight lists with expiry purging
type InsightCache interface {
	GetInsights(orgID string) ([]insights.PredictiveInsight, bool)
	ReplaceInsights(orgID string, list []insights.PredictiveInsight)
	PurgeExpired(now time.Time) int
	InvalidateOrg(orgID string)
}

// Backend is an optional persistent key/value store behind the in-memory
// cache. Implementations must be safe for concurrent use. When a backend
// call fails the caller falls back to the in-memory path for that call only.
type Backend interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, data []byte, ttl time.Duration) error
	Delete(key string) error
	DeletePrefix(prefix string) (int, error)
	Close() error
}

// Common TTL buckets used across the analytics core
const (
	TTLNever    = time.Duration(0)
	TTL1Minute  = time.Minute
	TTL5Minutes = 5 * time.Minute
	TTL1Hour    = time.Hour
	TTL24Hours  = 24 * time.Hour
	TTL7Days    = 7 * 24 * time.Hour
)
