package insights

import (
	"fmt"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/domain/behavior"
)

const interventionSeverityBar = 3.5

// valueOfSeverityPoint is the heuristic dollar value of one full point of
// severity reduction across a pattern. ROI below is effectiveness scaled by
// this constant over cost, a placeholder until outcome data trains a model.
const valueOfSeverityPoint = 50000.0

// Archetype is a canned intervention with fixed effectiveness, cost and
// duration constants, keyed by pattern category.
type Archetype struct {
	Kind          string
	Effectiveness float64 // 0.0-1.0 expected severity reduction fraction
	Cost          float64 // USD
	DurationWeeks int
}

// archetypes maps pattern categories to their best-fit intervention.
var archetypes = map[string]Archetype{
	"communication": {Kind: "workshop", Effectiveness: 0.65, Cost: 8000, DurationWeeks: 4},
	"workload":      {Kind: "structural", Effectiveness: 0.75, Cost: 25000, DurationWeeks: 12},
	"collaboration": {Kind: "coaching", Effectiveness: 0.60, Cost: 12000, DurationWeeks: 8},
	"recognition":   {Kind: "training", Effectiveness: 0.55, Cost: 6000, DurationWeeks: 3},
}

var defaultArchetype = Archetype{Kind: "coaching", Effectiveness: 0.50, Cost: 10000, DurationWeeks: 6}

// ArchetypeFor returns the intervention archetype for a pattern category.
func ArchetypeFor(category string) Archetype {
	if a, ok := archetypes[category]; ok {
		return a
	}
	return defaultArchetype
}

// ROI computes the heuristic return on investment for an archetype.
func (a Archetype) ROI() float64 {
	if a.Cost <= 0 {
		return 0
	}
	return a.Effectiveness * valueOfSeverityPoint / a.Cost
}

// interventionPass recommends an archetype for every pattern past the
// severity bar. History is consulted to avoid re-recommending a kind that
// is already running against the same category.
func (e *Engine) interventionPass(orgID string, patterns []behavior.Pattern, history []behavior.InterventionRecord, now time.Time) []PredictiveInsight {
	active := make(map[string]string) // category -> running intervention kind
	for _, rec := range history {
		if rec.CompletedAt == nil {
			active[rec.PatternCategory] = rec.Kind
		}
	}

	var out []PredictiveInsight
	for _, p := range patterns {
		if p.Severity <= interventionSeverityBar {
			continue
		}
		arch := ArchetypeFor(p.Category)
		if active[p.Category] == arch.Kind {
			continue
		}

		out = append(out, PredictiveInsight{
			ID:       e.newID(),
			OrgID:    orgID,
			Type:     TypeRecommendation,
			Priority: PriorityHigh,
			Title:    fmt.Sprintf("Recommend %s for %s", arch.Kind, p.Name),
			Description: fmt.Sprintf("A %s targeting %s patterns typically reduces severity by %.0f%% over %d weeks",
				arch.Kind, p.Category, arch.Effectiveness*100, arch.DurationWeeks),
			Confidence: arch.Effectiveness,
			Evidence: []string{
				fmt.Sprintf("current severity %.1f exceeds %.1f", p.Severity, interventionSeverityBar),
				fmt.Sprintf("archetype effectiveness %.2f at $%.0f", arch.Effectiveness, arch.Cost),
			},
			SuggestedActions: []string{
				fmt.Sprintf("Scope a %d-week %s for the affected teams", arch.DurationWeeks, arch.Kind),
				"Set a severity target and re-measure at the midpoint",
			},
			PredictedImpact: fmt.Sprintf("estimated ROI %.1fx on $%.0f invested", arch.ROI(), arch.Cost),
			CreatedAt:       now,
			ExpiresAt:       expiryFor(TypeRecommendation, now),
		})
	}

	return out
}
