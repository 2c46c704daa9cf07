// Package types defines the cache data structures shared by the caching
// stores, manager and cleanup worker.
package types

import (
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/domain/insights"
)

// CacheEntry is one stored value with its expiry bookkeeping
type CacheEntry struct {
	Key      string
	Data     any
	StoredAt time.Time
	TTL      time.Duration
}

// Expired reports whether the entry is past its time-to-live. A zero TTL
// means the entry never expires.
func (e *CacheEntry) Expired(now time.Time) bool {
	if e.TTL == 0 {
		return false
	}
	return now.After(e.StoredAt.Add(e.TTL))
}

// CacheStats accumulates hit/miss/eviction counters. Counters are monotonic
// and reset only on an explicit clear.
type CacheStats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Size      int   `json:"size"`
}

// HitRate derives the fraction of lookups served from cache
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// OrgInsightCache holds the current insight list for one organization.
// The list is replaced wholesale by each engine run, never merged.
type OrgInsightCache struct {
	OrgID       string
	Insights    []insights.PredictiveInsight
	GeneratedAt time.Time
}
