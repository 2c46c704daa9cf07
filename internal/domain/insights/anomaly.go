package insights

import (
	"fmt"
	"math"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/domain/behavior"
)

const (
	anomalyMinPoints  = 5
	anomalyZThreshold = 2.0
	anomalyRecentDays = 7
)

// DetectAnomalies computes population z-scores over a pattern's severity
// history and flags points deviating more than two standard deviations.
// Series shorter than five points have no meaningful baseline.
func DetectAnomalies(p behavior.Pattern) []AnomalyPoint {
	n := len(p.History)
	if n < anomalyMinPoints {
		return nil
	}

	var sum float64
	for _, pt := range p.History {
		sum += pt.Severity
	}
	mean := sum / float64(n)

	var variance float64
	for _, pt := range p.History {
		d := pt.Severity - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(n))
	if stddev == 0 {
		return nil
	}

	var out []AnomalyPoint
	for _, pt := range p.History {
		z := (pt.Severity - mean) / stddev
		if math.Abs(z) > anomalyZThreshold {
			out = append(out, AnomalyPoint{WeekStart: pt.WeekStart, Severity: pt.Severity, ZScore: z})
		}
	}
	return out
}

// anomalyPass raises alerts for anomalous observations inside the recency
// window. Old anomalies are history, not news.
func (e *Engine) anomalyPass(orgID string, patterns []behavior.Pattern, now time.Time) []PredictiveInsight {
	cutoff := now.Add(-anomalyRecentDays * 24 * time.Hour)
	var out []PredictiveInsight

	for _, p := range patterns {
		for _, a := range DetectAnomalies(p) {
			if a.WeekStart.Before(cutoff) {
				continue
			}

			priority := PriorityMedium
			if a.ZScore > 0 {
				priority = PriorityHigh
			}
			out = append(out, PredictiveInsight{
				ID:       e.newID(),
				OrgID:    orgID,
				Type:     TypeAlert,
				Priority: priority,
				Title:    fmt.Sprintf("Unusual %s reading", p.Name),
				Description: fmt.Sprintf("%s registered severity %.1f this week, %.1f standard deviations from its baseline",
					p.Name, a.Severity, math.Abs(a.ZScore)),
				Confidence: 0.8,
				Evidence: []string{
					fmt.Sprintf("z-score %.2f", a.ZScore),
					fmt.Sprintf("observed severity %.1f", a.Severity),
				},
				SuggestedActions: []string{
					"Check for one-off events (reorg, deadline crunch, leadership change) in the affected area",
					"Confirm the reading with a follow-up pulse check",
				},
				PredictedImpact: "may indicate an emerging issue if the deviation repeats next week",
				CreatedAt:       now,
				ExpiresAt:       expiryFor(TypeAlert, now),
			})
		}
	}

	return out
}
