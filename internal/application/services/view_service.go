// Package services provides the application-layer orchestration between
// the behavior data, the cache, and the realtime surfaces.
package services

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/domain/behavior"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/caching"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/caching/manager"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/logging"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/performance"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/resilience"
	"github.com/WorkfieldLabs/workpulse-go/pkg/config"
)

// BehaviorRepository is the data source the views are materialized from
type BehaviorRepository interface {
	LoadPatterns(orgID string) ([]behavior.Pattern, error)
	LoadDepartmentHealth(orgID string) ([]behavior.DepartmentHealth, error)
	LoadInterventions(orgID string) ([]behavior.InterventionRecord, error)
}

// CategoryRollup aggregates one behavior category across an organization
type CategoryRollup struct {
	Category     string  `json:"category"`
	PatternCount int     `json:"patternCount"`
	AvgSeverity  float64 `json:"avgSeverity"`
	WorstPattern string  `json:"worstPattern"`
	MaxSeverity  float64 `json:"maxSeverity"`
}

// PatternRollupView is the pattern materialized view
type PatternRollupView struct {
	OrgID      string           `json:"organizationId"`
	Categories []CategoryRollup `json:"categories"`
	ComputedAt time.Time        `json:"computedAt"`
}

// HealthSummaryView is the department health materialized view
type HealthSummaryView struct {
	OrgID            string                      `json:"organizationId"`
	OrgAvgSeverity   float64                     `json:"orgAvgSeverity"`
	AvgParticipation float64                     `json:"avgParticipation"`
	Departments      []behavior.DepartmentHealth `json:"departments"`
	ComputedAt       time.Time                   `json:"computedAt"`
}

// KindROI aggregates realized return for one intervention kind
type KindROI struct {
	Kind             string  `json:"kind"`
	Completed        int     `json:"completed"`
	TotalCost        float64 `json:"totalCost"`
	AvgEffectiveness float64 `json:"avgEffectiveness"`
	RealizedROI      float64 `json:"realizedRoi"`
}

// InterventionROIView is the intervention return materialized view
type InterventionROIView struct {
	OrgID      string    `json:"organizationId"`
	Kinds      []KindROI `json:"kinds"`
	ComputedAt time.Time `json:"computedAt"`
}

// ViewService materializes the dashboard aggregate views through the cache.
// Source reads run under the circuit breaker and the performance tracker;
// on an open circuit the caller sees the error and can fall back to stale
// data upstream.
type ViewService struct {
	repo    BehaviorRepository
	cache   *manager.Manager
	breaker *resilience.CircuitBreaker
	tracker *performance.Tracker
	warming *caching.WarmingLock
	logger  *logging.ChanneledLogger
	now     func() time.Time
}

// NewViewService creates the materialized view service
func NewViewService(
	repo BehaviorRepository,
	cache *manager.Manager,
	breaker *resilience.CircuitBreaker,
	tracker *performance.Tracker,
	logger *logging.ChanneledLogger,
) *ViewService {
	return &ViewService{
		repo:    repo,
		cache:   cache,
		breaker: breaker,
		tracker: tracker,
		warming: caching.NewWarmingLock(),
		logger:  logger,
		now:     time.Now,
	}
}

func patternRollupKey(orgID string) string { return "org:" + orgID + ":patterns:rollup" }
func healthSummaryKey(orgID string) string { return "org:" + orgID + ":health:summary" }
func roiSummaryKey(orgID string) string    { return "org:" + orgID + ":roi:summary" }

// PatternRollup returns the cached category rollup, computing it on a miss
func (s *ViewService) PatternRollup(ctx context.Context, orgID string) (*PatternRollupView, error) {
	value, err := s.cache.GetOrSet(patternRollupKey(orgID), func() (any, error) {
		patterns, err := s.loadPatterns(ctx, orgID)
		if err != nil {
			return nil, err
		}
		return ComputePatternRollup(orgID, patterns, s.now()), nil
	}, config.PatternRollupTTL)
	if err != nil {
		return nil, err
	}
	return decodeView[PatternRollupView](value)
}

// HealthSummary returns the cached department health view, computing it on
// a miss
func (s *ViewService) HealthSummary(ctx context.Context, orgID string) (*HealthSummaryView, error) {
	value, err := s.cache.GetOrSet(healthSummaryKey(orgID), func() (any, error) {
		health, err := s.loadHealth(ctx, orgID)
		if err != nil {
			return nil, err
		}
		return ComputeHealthSummary(orgID, health, s.now()), nil
	}, config.DepartmentHealthTTL)
	if err != nil {
		return nil, err
	}
	return decodeView[HealthSummaryView](value)
}

// InterventionROI returns the cached intervention return view, computing it
// on a miss
func (s *ViewService) InterventionROI(ctx context.Context, orgID string) (*InterventionROIView, error) {
	value, err := s.cache.GetOrSet(roiSummaryKey(orgID), func() (any, error) {
		records, err := s.loadInterventions(ctx, orgID)
		if err != nil {
			return nil, err
		}
		return ComputeInterventionROI(orgID, records, s.now()), nil
	}, config.InterventionROITTL)
	if err != nil {
		return nil, err
	}
	return decodeView[InterventionROIView](value)
}

// WarmCache precomputes all three views for an organization concurrently.
// The warming lock makes the call a no-op when a warm for the same
// organization is already running.
func (s *ViewService) WarmCache(ctx context.Context, orgID string) error {
	lockKey := "warm:" + orgID
	if !s.warming.TryLock(lockKey) {
		s.logger.Cache().Debug("Cache warm already in progress", "orgId", orgID)
		return nil
	}
	defer s.warming.Unlock(lockKey)

	start := s.now()
	var wg sync.WaitGroup
	errCh := make(chan error, 3)

	warm := func(fn func() error) {
		defer wg.Done()
		if err := fn(); err != nil {
			errCh <- err
		}
	}

	wg.Add(3)
	go warm(func() error { _, err := s.PatternRollup(ctx, orgID); return err })
	go warm(func() error { _, err := s.HealthSummary(ctx, orgID); return err })
	go warm(func() error { _, err := s.InterventionROI(ctx, orgID); return err })
	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		s.logger.Cache().Warn("Cache warm incomplete", "orgId", orgID, "error", err.Error())
		return err
	}

	s.logger.Cache().Info("Cache warmed", "orgId", orgID, "duration", s.now().Sub(start))
	return nil
}

func (s *ViewService) loadPatterns(ctx context.Context, orgID string) ([]behavior.Pattern, error) {
	var patterns []behavior.Pattern
	err := s.tracker.TrackOperation("db_query", map[string]string{"orgId": orgID}, func() error {
		return s.breaker.Execute(ctx, func() error {
			var err error
			patterns, err = s.repo.LoadPatterns(orgID)
			return err
		})
	})
	return patterns, err
}

func (s *ViewService) loadHealth(ctx context.Context, orgID string) ([]behavior.DepartmentHealth, error) {
	var health []behavior.DepartmentHealth
	err := s.tracker.TrackOperation("db_query", map[string]string{"orgId": orgID}, func() error {
		return s.breaker.Execute(ctx, func() error {
			var err error
			health, err = s.repo.LoadDepartmentHealth(orgID)
			return err
		})
	})
	return health, err
}

func (s *ViewService) loadInterventions(ctx context.Context, orgID string) ([]behavior.InterventionRecord, error) {
	var records []behavior.InterventionRecord
	err := s.tracker.TrackOperation("db_query", map[string]string{"orgId": orgID}, func() error {
		return s.breaker.Execute(ctx, func() error {
			var err error
			records, err = s.repo.LoadInterventions(orgID)
			return err
		})
	})
	return records, err
}

// decodeView normalizes a cache hit into the typed view. Values read back
// from the persistent backend arrive as raw JSON and are decoded here;
// in-memory hits are already the typed struct.
func decodeView[T any](value any) (*T, error) {
	switch v := value.(type) {
	case *T:
		return v, nil
	case T:
		return &v, nil
	case json.RawMessage:
		var out T
		if err := json.Unmarshal(v, &out); err != nil {
			return nil, err
		}
		return &out, nil
	default:
		var out T
		data, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, err
		}
		return &out, nil
	}
}

// ComputePatternRollup aggregates patterns per category. Exported as a pure
// function so the computation is testable without cache or database.
func ComputePatternRollup(orgID string, patterns []behavior.Pattern, at time.Time) *PatternRollupView {
	byCategory := make(map[string][]behavior.Pattern)
	for _, p := range patterns {
		byCategory[p.Category] = append(byCategory[p.Category], p)
	}

	view := &PatternRollupView{OrgID: orgID, ComputedAt: at}
	for category, group := range byCategory {
		rollup := CategoryRollup{Category: category, PatternCount: len(group)}
		var total float64
		for _, p := range group {
			total += p.Severity
			if p.Severity > rollup.MaxSeverity {
				rollup.MaxSeverity = p.Severity
				rollup.WorstPattern = p.Name
			}
		}
		rollup.AvgSeverity = total / float64(len(group))
		view.Categories = append(view.Categories, rollup)
	}

	sort.Slice(view.Categories, func(i, j int) bool {
		return view.Categories[i].AvgSeverity > view.Categories[j].AvgSeverity
	})
	return view
}

// ComputeHealthSummary aggregates department health for an organization
func ComputeHealthSummary(orgID string, health []behavior.DepartmentHealth, at time.Time) *HealthSummaryView {
	view := &HealthSummaryView{OrgID: orgID, Departments: health, ComputedAt: at}
	if len(health) == 0 {
		return view
	}

	var severity, participation float64
	for _, h := range health {
		severity += h.AvgSeverity
		participation += h.Participation
	}
	view.OrgAvgSeverity = severity / float64(len(health))
	view.AvgParticipation = participation / float64(len(health))

	sort.Slice(view.Departments, func(i, j int) bool {
		return view.Departments[i].AvgSeverity > view.Departments[j].AvgSeverity
	})
	return view
}

// ComputeInterventionROI aggregates realized return per intervention kind.
// Only completed interventions contribute; active ones have no measured
// effectiveness yet.
func ComputeInterventionROI(orgID string, records []behavior.InterventionRecord, at time.Time) *InterventionROIView {
	byKind := make(map[string][]behavior.InterventionRecord)
	for _, rec := range records {
		if rec.CompletedAt == nil {
			continue
		}
		byKind[rec.Kind] = append(byKind[rec.Kind], rec)
	}

	view := &InterventionROIView{OrgID: orgID, ComputedAt: at}
	for kind, group := range byKind {
		roi := KindROI{Kind: kind, Completed: len(group)}
		var effectiveness float64
		for _, rec := range group {
			effectiveness += rec.Effectiveness
			roi.TotalCost += rec.Cost
		}
		roi.AvgEffectiveness = effectiveness / float64(len(group))
		if roi.TotalCost > 0 {
			roi.RealizedROI = roi.AvgEffectiveness * 50000 / (roi.TotalCost / float64(len(group)))
		}
		view.Kinds = append(view.Kinds, roi)
	}

	sort.Slice(view.Kinds, func(i, j int) bool {
		return view.Kinds[i].RealizedROI > view.Kinds[j].RealizedROI
	})
	return view
}
