package insights

import (
	"testing"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/domain/behavior"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weeklyHistory(start time.Time, severities ...float64) []behavior.SeverityPoint {
	points := make([]behavior.SeverityPoint, len(severities))
	for i, s := range severities {
		points[i] = behavior.SeverityPoint{WeekStart: start.Add(time.Duration(i) * 7 * 24 * time.Hour), Severity: s}
	}
	return points
}

func TestAnalyzeTrendRisingSeries(t *testing.T) {
	start := time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC)
	p := behavior.Pattern{
		ID:       "pat-1",
		Severity: 2.6,
		History:  weeklyHistory(start, 2.0, 2.2, 2.4, 2.6),
	}

	trend := AnalyzeTrend(p)

	assert.Equal(t, TrendDeclining, trend.Direction)
	assert.InDelta(t, 0.2, trend.Velocity, 1e-9)
	// last point is 2.6 at week 3; four weeks out the line reaches 3.4
	assert.InDelta(t, 3.4, trend.PredictedSeverity30d, 1e-9)
	assert.InDelta(t, 5.0, trend.PredictedSeverity90d, 1e-9)
	assert.InDelta(t, 0.9, trend.Confidence, 1e-9)
	assert.Equal(t, "pat-1", trend.PatternID)
}

func TestAnalyzeTrendImprovingSeries(t *testing.T) {
	start := time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC)
	p := behavior.Pattern{
		ID:       "pat-2",
		Severity: 2.8,
		History:  weeklyHistory(start, 4.0, 3.7, 3.4, 3.1, 2.8),
	}

	trend := AnalyzeTrend(p)

	assert.Equal(t, TrendImproving, trend.Direction)
	assert.InDelta(t, -0.3, trend.Velocity, 1e-9)
}

func TestAnalyzeTrendFlatSeriesIsStable(t *testing.T) {
	start := time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC)
	p := behavior.Pattern{
		ID:       "pat-3",
		Severity: 3.0,
		History:  weeklyHistory(start, 3.0, 3.05, 2.95, 3.0),
	}

	trend := AnalyzeTrend(p)

	assert.Equal(t, TrendStable, trend.Direction)
}

func TestAnalyzeTrendShortSeriesDefaultsStable(t *testing.T) {
	start := time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC)
	p := behavior.Pattern{
		ID:       "pat-4",
		Severity: 4.2,
		History:  weeklyHistory(start, 4.0, 4.2),
	}

	trend := AnalyzeTrend(p)

	assert.Equal(t, TrendStable, trend.Direction)
	assert.Zero(t, trend.Velocity)
	assert.InDelta(t, 0.3, trend.Confidence, 1e-9)
	assert.InDelta(t, 4.2, trend.PredictedSeverity30d, 1e-9)
	assert.InDelta(t, 4.2, trend.PredictedSeverity90d, 1e-9)
}

func TestAnalyzeTrendClampsProjections(t *testing.T) {
	start := time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC)
	p := behavior.Pattern{
		ID:       "pat-5",
		Severity: 5.0,
		History:  weeklyHistory(start, 3.0, 4.0, 5.0),
	}

	trend := AnalyzeTrend(p)

	assert.Equal(t, 5.0, trend.PredictedSeverity30d)
	assert.Equal(t, 5.0, trend.PredictedSeverity90d)
}

func TestAnalyzeTrendConfidenceGrowsWithHistory(t *testing.T) {
	start := time.Date(2026, 7, 6, 0, 0, 0, 0, time.UTC)
	short := behavior.Pattern{History: weeklyHistory(start, 2.0, 2.5, 3.0)}
	long := behavior.Pattern{History: weeklyHistory(start, 2.0, 2.5, 3.0, 3.5, 4.0, 4.5, 5.0, 5.0)}

	assert.InDelta(t, 0.8, AnalyzeTrend(short).Confidence, 1e-9)
	// eight points would push past the ceiling; confidence caps at 0.9
	assert.InDelta(t, 0.9, AnalyzeTrend(long).Confidence, 1e-9)
}

func TestTrendPassAlertsOnWorseningPattern(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	engine := NewEngine().WithClock(func() time.Time { return now })

	start := now.Add(-4 * 7 * 24 * time.Hour)
	patterns := []behavior.Pattern{{
		ID:       "pat-1",
		Name:     "Meeting overload",
		Severity: 4.0,
		History:  weeklyHistory(start, 3.4, 3.6, 3.8, 4.0),
	}}

	out := engine.trendPass("org-1", patterns, now)

	require.Len(t, out, 1)
	assert.Equal(t, TypeAlert, out[0].Type)
	// projection reaches 4.8 in 30 days, past the critical bar
	assert.Equal(t, PriorityCritical, out[0].Priority)
	assert.Equal(t, "org-1", out[0].OrgID)
	assert.Equal(t, now.Add(3*24*time.Hour), out[0].ExpiresAt)
}

func TestTrendPassSurfacesStrongImprovement(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	engine := NewEngine().WithClock(func() time.Time { return now })

	start := now.Add(-5 * 7 * 24 * time.Hour)
	patterns := []behavior.Pattern{{
		ID:       "pat-2",
		Name:     "After-hours messaging",
		Severity: 2.8,
		History:  weeklyHistory(start, 4.0, 3.7, 3.4, 3.1, 2.8),
	}}

	out := engine.trendPass("org-1", patterns, now)

	require.Len(t, out, 1)
	assert.Equal(t, TypeOpportunity, out[0].Type)
	assert.Equal(t, PriorityMedium, out[0].Priority)
}

func TestTrendPassIgnoresLowSeverityDecline(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	engine := NewEngine().WithClock(func() time.Time { return now })

	start := now.Add(-4 * 7 * 24 * time.Hour)
	patterns := []behavior.Pattern{{
		ID:       "pat-3",
		Name:     "Recognition gaps",
		Severity: 2.6, // rising but still below the alert bar
		History:  weeklyHistory(start, 2.0, 2.2, 2.4, 2.6),
	}}

	assert.Empty(t, engine.trendPass("org-1", patterns, now))
}

func TestPriorityForSeverity(t *testing.T) {
	assert.Equal(t, PriorityCritical, priorityForSeverity(4.7))
	assert.Equal(t, PriorityCritical, priorityForSeverity(4.5))
	assert.Equal(t, PriorityHigh, priorityForSeverity(4.2))
	assert.Equal(t, PriorityMedium, priorityForSeverity(3.9))
}
