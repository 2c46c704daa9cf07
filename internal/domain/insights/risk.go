package insights

import (
	"fmt"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/domain/behavior"
)

const (
	riskPatternSeverityBar = 3.5
	riskDeptSeverityBar    = 3.0
	riskPatternWeight      = 0.6
	riskDeptWeight         = 0.4
	riskCriticalThreshold  = 0.7

	// Fixed model confidence. The risk blend has no per-run error estimate,
	// so this is a constant rather than a value derived from the data.
	riskConfidence = 0.75
)

// RiskScore blends the fraction of high-severity patterns with the fraction
// of struggling departments into a single organization-wide score in [0,1].
func RiskScore(patterns []behavior.Pattern, health []behavior.DepartmentHealth) float64 {
	var patternFrac float64
	if len(patterns) > 0 {
		var hot int
		for _, p := range patterns {
			if p.Severity > riskPatternSeverityBar {
				hot++
			}
		}
		patternFrac = float64(hot) / float64(len(patterns))
	}

	var deptFrac float64
	if len(health) > 0 {
		var struggling int
		for _, d := range health {
			if d.AvgSeverity > riskDeptSeverityBar {
				struggling++
			}
		}
		deptFrac = float64(struggling) / float64(len(health))
	}

	score := riskPatternWeight*patternFrac + riskDeptWeight*deptFrac
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// riskPass emits a single organization-wide critical alert when the composite
// risk score crosses the threshold.
func (e *Engine) riskPass(orgID string, patterns []behavior.Pattern, health []behavior.DepartmentHealth, now time.Time) []PredictiveInsight {
	score := RiskScore(patterns, health)
	if score <= riskCriticalThreshold {
		return nil
	}

	return []PredictiveInsight{{
		ID:       e.newID(),
		OrgID:    orgID,
		Type:     TypeAlert,
		Priority: PriorityCritical,
		Title:    "Organization-wide risk elevated",
		Description: fmt.Sprintf("Composite behavior risk score is %.2f; a broad share of patterns and departments are past their severity bars",
			score),
		Confidence: riskConfidence,
		Evidence: []string{
			fmt.Sprintf("risk score %.2f (threshold %.2f)", score, riskCriticalThreshold),
			fmt.Sprintf("%d patterns, %d departments evaluated", len(patterns), len(health)),
		},
		SuggestedActions: []string{
			"Brief leadership on the aggregate risk picture",
			"Prioritize interventions in the highest-severity departments",
		},
		PredictedImpact: "sustained elevated risk correlates with attrition and disengagement",
		CreatedAt:       now,
		ExpiresAt:       expiryFor(TypeAlert, now),
	}}
}
