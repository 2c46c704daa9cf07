package insights

import (
	"fmt"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/domain/behavior"
)

const (
	opportunitySeverityCeiling  = 2.5
	opportunityParticipationBar = 0.75
)

// opportunityPass surfaces departments that are both healthy and engaged as
// sources of practices worth sharing with the rest of the organization.
func (e *Engine) opportunityPass(orgID string, health []behavior.DepartmentHealth, now time.Time) []PredictiveInsight {
	var out []PredictiveInsight

	for _, d := range health {
		if d.AvgSeverity >= opportunitySeverityCeiling || d.Participation <= opportunityParticipationBar {
			continue
		}

		out = append(out, PredictiveInsight{
			ID:       e.newID(),
			OrgID:    orgID,
			Type:     TypeOpportunity,
			Priority: PriorityLow,
			Title:    fmt.Sprintf("%s is a bright spot", d.Name),
			Description: fmt.Sprintf("%s combines low severity (%.1f) with %.0f%% participation; its practices are candidates for sharing",
				d.Name, d.AvgSeverity, d.Participation*100),
			Confidence: 0.7,
			Evidence: []string{
				fmt.Sprintf("avg severity %.1f below %.1f", d.AvgSeverity, opportunitySeverityCeiling),
				fmt.Sprintf("participation %.2f above %.2f", d.Participation, opportunityParticipationBar),
			},
			SuggestedActions: []string{
				fmt.Sprintf("Interview %s leads about their team rituals", d.Name),
				"Pilot the strongest practice in one struggling department",
			},
			PredictedImpact: "practice transfer from healthy departments lifts adjacent teams",
			CreatedAt:       now,
			ExpiresAt:       expiryFor(TypeOpportunity, now),
		})
	}

	return out
}
