package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/domain/behavior"
	"github.com/WorkfieldLabs/workpulse-go/internal/domain/errs"
	"github.com/WorkfieldLabs/workpulse-go/internal/domain/insights"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/caching/manager"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/logging"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/performance"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInsightHarness(repo *fakeRepo) *InsightService {
	logger := logging.NewTestLogger()
	cache := manager.New(100, time.Minute, nil, logger)
	breaker := resilience.NewCircuitBreaker("test")
	tracker := performance.NewTracker(nil, nil, logger)
	return NewInsightService(repo, insights.NewEngine(), cache, breaker, tracker, logger)
}

func severeWorkloadPattern() behavior.Pattern {
	start := time.Now().Add(-4 * 7 * 24 * time.Hour)
	history := make([]behavior.SeverityPoint, 4)
	for i, s := range []float64{3.4, 3.6, 3.8, 4.0} {
		history[i] = behavior.SeverityPoint{WeekStart: start.Add(time.Duration(i) * 7 * 24 * time.Hour), Severity: s}
	}
	return behavior.Pattern{
		ID: "pat-1", Name: "Crunch cycles", Category: "workload", Severity: 4.0,
		History: history,
	}
}

func TestGenerateReplacesCachedInsights(t *testing.T) {
	repo := &fakeRepo{patterns: []behavior.Pattern{severeWorkloadPattern()}}
	svc := newInsightHarness(repo)

	generated, err := svc.Generate(context.Background(), "org-1")
	require.NoError(t, err)
	require.NotEmpty(t, generated)

	cached, err := svc.GetForRole("org-1", behavior.RoleHRLead)
	require.NoError(t, err)
	assert.Equal(t, generated, cached)

	// a second run replaces the set instead of appending
	again, err := svc.Generate(context.Background(), "org-1")
	require.NoError(t, err)
	cached, err = svc.GetForRole("org-1", behavior.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, cached, len(again))
}

func TestGenerateLoadFailure(t *testing.T) {
	repo := &fakeRepo{err: errors.New("db down")}
	svc := newInsightHarness(repo)

	_, err := svc.Generate(context.Background(), "org-1")
	require.Error(t, err)

	set, err := svc.GetForRole("org-1", behavior.RoleAdmin)
	require.NoError(t, err)
	assert.Nil(t, set, "failed run must not populate the cache")
}

func TestGetForRoleRefusesNonSensitiveRoles(t *testing.T) {
	svc := newInsightHarness(&fakeRepo{})

	for _, role := range []behavior.Role{behavior.RoleManager, behavior.RoleViewer} {
		_, err := svc.GetForRole("org-1", role)
		require.Error(t, err)
		assert.True(t, errs.IsAccessDenied(err))
	}
}

func TestGetForRoleEmptyOrg(t *testing.T) {
	svc := newInsightHarness(&fakeRepo{})

	set, err := svc.GetForRole("nobody", behavior.RoleAdmin)
	require.NoError(t, err)
	assert.Nil(t, set)
}
