package stores

import (
	"sync"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/domain/insights"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/caching/interfaces"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/caching/types"
)

var _ interfaces.InsightCache = (*InsightStore)(nil)

// InsightStore holds the generated insight set for each organization.
// Replacement is wholesale: a new generation run swaps the whole slice so
// readers never observe a partially updated set.
type InsightStore struct {
	orgs map[string]*types.OrgInsightCache
	mu   sync.RWMutex
	now  func() time.Time
}

// NewInsightStore creates an empty per-organization insight store
func NewInsightStore() *InsightStore {
	return &InsightStore{
		orgs: make(map[string]*types.OrgInsightCache),
		now:  time.Now,
	}
}

// GetInsights returns the current insight set for an organization. Insights
// already past their expiry are filtered out of the returned slice but left
// in place for PurgeExpired to reclaim.
func (s *InsightStore) GetInsights(orgID string) ([]insights.PredictiveInsight, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cached, exists := s.orgs[orgID]
	if !exists {
		return nil, false
	}

	now := s.now()
	live := make([]insights.PredictiveInsight, 0, len(cached.Insights))
	for _, insight := range cached.Insights {
		if !insight.Expired(now) {
			live = append(live, insight)
		}
	}
	return live, true
}

// ReplaceInsights swaps the organization's entire insight set
func (s *InsightStore) ReplaceInsights(orgID string, set []insights.PredictiveInsight) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orgs[orgID] = &types.OrgInsightCache{
		OrgID:       orgID,
		Insights:    set,
		GeneratedAt: s.now(),
	}
}

// PurgeExpired drops expired insights across all organizations and returns
// how many were removed. Organizations left with no insights keep their
// cache entry so GeneratedAt remains observable.
func (s *InsightStore) PurgeExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int
	for _, cached := range s.orgs {
		kept := cached.Insights[:0]
		for _, insight := range cached.Insights {
			if insight.Expired(now) {
				removed++
				continue
			}
			kept = append(kept, insight)
		}
		cached.Insights = kept
	}
	return removed
}

// InvalidateOrg drops the organization's insight set entirely
func (s *InsightStore) InvalidateOrg(orgID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orgs, orgID)
}
