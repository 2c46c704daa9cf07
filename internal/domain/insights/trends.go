package insights

import (
	"fmt"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/domain/behavior"
)

const (
	trendSlopeThreshold   = 0.1 // severity per week before a trend counts as moving
	trendAlertSeverity    = 3.0 // declining patterns above this become alerts
	trendMinPoints        = 3
	improvingVelocityBar  = -0.15
	weeksIn30Days         = 4
	weeksIn90Days         = 12
)

// AnalyzeTrend fits an ordinary least squares line to the pattern's weekly
// severity history and projects 30 and 90 days out. With fewer than three
// points there is nothing to fit, so it returns a low-confidence stable
// default.
func AnalyzeTrend(p behavior.Pattern) TrendAnalysis {
	n := len(p.History)
	if n < trendMinPoints {
		return TrendAnalysis{
			PatternID:            p.ID,
			CurrentSeverity:      p.Severity,
			Direction:            TrendStable,
			Velocity:             0,
			PredictedSeverity30d: clampSeverity(p.Severity),
			PredictedSeverity90d: clampSeverity(p.Severity),
			Confidence:           0.3,
		}
	}

	// x is the week index, y the observed severity.
	var sumX, sumY, sumXY, sumXX float64
	for i, pt := range p.History {
		x := float64(i)
		sumX += x
		sumY += pt.Severity
		sumXY += x * pt.Severity
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	var slope float64
	if denom != 0 {
		slope = (fn*sumXY - sumX*sumY) / denom
	}
	intercept := (sumY - slope*sumX) / fn

	direction := TrendStable
	if slope > trendSlopeThreshold {
		direction = TrendDeclining
	} else if slope < -trendSlopeThreshold {
		direction = TrendImproving
	}

	lastX := float64(n - 1)
	predict := func(weeksAhead float64) float64 {
		return clampSeverity(intercept + slope*(lastX+weeksAhead))
	}

	confidence := 0.5 + 0.1*fn
	if confidence > 0.9 {
		confidence = 0.9
	}

	return TrendAnalysis{
		PatternID:            p.ID,
		CurrentSeverity:      p.Severity,
		Direction:            direction,
		Velocity:             slope,
		PredictedSeverity30d: predict(weeksIn30Days),
		PredictedSeverity90d: predict(weeksIn90Days),
		Confidence:           confidence,
	}
}

// trendPass turns per-pattern trend analyses into alert and opportunity
// insights. Declining patterns above the severity bar warn; strongly
// improving patterns surface as opportunities worth reinforcing.
func (e *Engine) trendPass(orgID string, patterns []behavior.Pattern, now time.Time) []PredictiveInsight {
	var out []PredictiveInsight

	for _, p := range patterns {
		trend := AnalyzeTrend(p)

		switch {
		case trend.Direction == TrendDeclining && p.Severity > trendAlertSeverity:
			out = append(out, PredictiveInsight{
				ID:       e.newID(),
				OrgID:    orgID,
				Type:     TypeAlert,
				Priority: priorityForSeverity(trend.PredictedSeverity30d),
				Title:    fmt.Sprintf("%s pattern worsening", p.Name),
				Description: fmt.Sprintf("%s severity is rising %.2f/week and is projected to reach %.1f within 30 days",
					p.Name, trend.Velocity, trend.PredictedSeverity30d),
				Confidence: trend.Confidence,
				Evidence: []string{
					fmt.Sprintf("current severity %.1f", p.Severity),
					fmt.Sprintf("%d weeks of history", len(p.History)),
					fmt.Sprintf("velocity %.2f severity/week", trend.Velocity),
				},
				SuggestedActions: []string{
					"Review recent workload and communication changes in the affected teams",
					"Schedule a targeted intervention before the projected severity is reached",
				},
				PredictedImpact: fmt.Sprintf("severity %.1f in 30 days, %.1f in 90 days without intervention",
					trend.PredictedSeverity30d, trend.PredictedSeverity90d),
				CreatedAt: now,
				ExpiresAt: expiryFor(TypeAlert, now),
			})

		case trend.Direction == TrendImproving && trend.Velocity < improvingVelocityBar:
			out = append(out, PredictiveInsight{
				ID:       e.newID(),
				OrgID:    orgID,
				Type:     TypeOpportunity,
				Priority: PriorityMedium,
				Title:    fmt.Sprintf("%s pattern improving", p.Name),
				Description: fmt.Sprintf("%s severity is dropping %.2f/week; whatever changed is working",
					p.Name, -trend.Velocity),
				Confidence: trend.Confidence,
				Evidence: []string{
					fmt.Sprintf("current severity %.1f", p.Severity),
					fmt.Sprintf("velocity %.2f severity/week", trend.Velocity),
				},
				SuggestedActions: []string{
					"Identify the recent change driving the improvement",
					"Document and extend the practice to adjacent teams",
				},
				PredictedImpact: fmt.Sprintf("severity %.1f in 30 days if the trend holds", trend.PredictedSeverity30d),
				CreatedAt:       now,
				ExpiresAt:       expiryFor(TypeOpportunity, now),
			})
		}
	}

	return out
}

func priorityForSeverity(projected float64) Priority {
	switch {
	case projected >= 4.5:
		return PriorityCritical
	case projected >= 4.0:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}
