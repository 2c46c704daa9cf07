package services

import (
	"context"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/domain/behavior"
	"github.com/WorkfieldLabs/workpulse-go/internal/domain/errs"
	"github.com/WorkfieldLabs/workpulse-go/internal/domain/insights"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/caching/manager"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/logging"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/performance"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/resilience"
)

// InsightService orchestrates insight generation: it loads the source data
// under breaker protection, runs the engine, and replaces the cached set.
type InsightService struct {
	repo    BehaviorRepository
	engine  *insights.Engine
	cache   *manager.Manager
	breaker *resilience.CircuitBreaker
	tracker *performance.Tracker
	logger  *logging.ChanneledLogger
}

// NewInsightService creates the insight orchestration service
func NewInsightService(
	repo BehaviorRepository,
	engine *insights.Engine,
	cache *manager.Manager,
	breaker *resilience.CircuitBreaker,
	tracker *performance.Tracker,
	logger *logging.ChanneledLogger,
) *InsightService {
	return &InsightService{
		repo:    repo,
		engine:  engine,
		cache:   cache,
		breaker: breaker,
		tracker: tracker,
		logger:  logger,
	}
}

// Generate runs all insight passes for an organization and replaces its
// cached insight set wholesale
func (s *InsightService) Generate(ctx context.Context, orgID string) ([]insights.PredictiveInsight, error) {
	var generated []insights.PredictiveInsight

	err := s.tracker.TrackOperation("insight_generation", map[string]string{"orgId": orgID}, func() error {
		var patterns []behavior.Pattern
		var health []behavior.DepartmentHealth
		var history []behavior.InterventionRecord

		err := s.breaker.Execute(ctx, func() error {
			var err error
			if patterns, err = s.repo.LoadPatterns(orgID); err != nil {
				return err
			}
			if health, err = s.repo.LoadDepartmentHealth(orgID); err != nil {
				return err
			}
			history, err = s.repo.LoadInterventions(orgID)
			return err
		})
		if err != nil {
			return err
		}

		generated = s.engine.GenerateInsights(orgID, patterns, health, history)
		s.cache.ReplaceInsights(orgID, generated)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Insight().Info("Insights generated",
		"orgId", orgID,
		"count", len(generated))
	return generated, nil
}

// GetForRole returns the cached insight set for a role-checked caller.
// Roles without sensitive access are refused entirely; insights expose
// evidence drawn from individual-level patterns.
func (s *InsightService) GetForRole(orgID string, role behavior.Role) ([]insights.PredictiveInsight, error) {
	if !role.CanSeeSensitive() {
		return nil, errs.New(errs.CodeAccessDenied, "role may not read predictive insights")
	}

	set, exists := s.cache.GetInsights(orgID)
	if !exists {
		return nil, nil
	}
	return set, nil
}

// PurgeExpired drops expired insights across all organizations
func (s *InsightService) PurgeExpired() int {
	return s.cache.PurgeExpired(time.Now())
}
