// Package insights provides the rule and statistics based insight generation
// engine: trend prediction, anomaly detection, composite risk scoring,
// intervention recommendation, and practice-sharing opportunities.
package insights

import (
	"sort"
	"time"
)

// InsightType categorizes a generated insight
type InsightType string

const (
	TypeAlert          InsightType = "alert"
	TypeOpportunity    InsightType = "opportunity"
	TypeRecommendation InsightType = "recommendation"
	TypeForecast       InsightType = "forecast"
)

// Priority orders insights for display
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Weight returns the numeric sort weight for a priority
func (p Priority) Weight() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// PredictiveInsight is one actionable finding produced by an engine run
type PredictiveInsight struct {
	ID               string      `json:"id"`
	OrgID            string      `json:"orgId"`
	Type             InsightType `json:"type"`
	Priority         Priority    `json:"priority"`
	Title            string      `json:"title"`
	Description      string      `json:"description"`
	Confidence       float64     `json:"confidence"` // 0.0-1.0
	Evidence         []string    `json:"evidence"`
	SuggestedActions []string    `json:"suggestedActions"`
	PredictedImpact  string      `json:"predictedImpact"`
	CreatedAt        time.Time   `json:"createdAt"`
	ExpiresAt        time.Time   `json:"expiresAt"`
}

// Expired reports whether the insight should be purged
func (i *PredictiveInsight) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// TrendDirection classifies the slope of a severity series. Severity grows
// when things get worse, so a positive slope means the pattern is declining.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendStable    TrendDirection = "stable"
	TrendDeclining TrendDirection = "declining"
)

// TrendAnalysis is the regression output for one pattern's history
type TrendAnalysis struct {
	PatternID            string         `json:"patternId"`
	CurrentSeverity      float64        `json:"currentSeverity"`
	Direction            TrendDirection `json:"trendDirection"`
	Velocity             float64        `json:"velocity"` // severity change per week
	PredictedSeverity30d float64        `json:"predictedSeverity30d"`
	PredictedSeverity90d float64        `json:"predictedSeverity90d"`
	Confidence           float64        `json:"confidence"`
	Anomalies            []AnomalyPoint `json:"anomalies,omitempty"`
}

// AnomalyPoint flags one observation that deviated from the series
type AnomalyPoint struct {
	WeekStart time.Time `json:"weekStart"`
	Severity  float64   `json:"severity"`
	ZScore    float64   `json:"zScore"`
}

// SortInsights orders a list by priority weight descending, then confidence
// descending. Every list handed to a caller goes through this.
func SortInsights(list []PredictiveInsight) {
	sort.SliceStable(list, func(i, j int) bool {
		wi, wj := list[i].Priority.Weight(), list[j].Priority.Weight()
		if wi != wj {
			return wi > wj
		}
		return list[i].Confidence > list[j].Confidence
	})
}

// Expiry windows per insight type. Alerts stay short so stale warnings do not
// linger; forecasts and recommendations hold longer.
func expiryFor(t InsightType, now time.Time) time.Time {
	switch t {
	case TypeAlert:
		return now.Add(3 * 24 * time.Hour)
	case TypeOpportunity:
		return now.Add(14 * 24 * time.Hour)
	case TypeRecommendation:
		return now.Add(30 * 24 * time.Hour)
	case TypeForecast:
		return now.Add(60 * 24 * time.Hour)
	default:
		return now.Add(7 * 24 * time.Hour)
	}
}

func clampSeverity(v float64) float64 {
	if v < 1 {
		return 1
	}
	if v > 5 {
		return 5
	}
	return v
}
