// Package behavior provides domain entities for workplace behavior analytics.
// It defines the raw inputs consumed by the insight engine (behavior patterns,
// department health records, intervention history) and the update events
// delivered to live dashboard clients.
package behavior

import "time"

// SeverityPoint is one weekly observation in a pattern's history.
// Severity is on a 1-5 scale where 5 is worst.
type SeverityPoint struct {
	WeekStart time.Time `json:"weekStart"`
	Severity  float64   `json:"severity"`
}

// Pattern represents a detected workplace behavior pattern for an organization
type Pattern struct {
	ID           string          `json:"id"`
	OrgID        string          `json:"orgId"`
	Category     string          `json:"category"` // "communication", "workload", "collaboration", "recognition"
	Name         string          `json:"name"`
	Severity     float64         `json:"severity"` // current severity, 1-5
	DepartmentID string          `json:"departmentId,omitempty"`
	History      []SeverityPoint `json:"history"` // trailing weekly severity series, oldest first
	LastUpdated  time.Time       `json:"lastUpdated"`
}

// DepartmentHealth is a per-department health record
type DepartmentHealth struct {
	DepartmentID  string    `json:"departmentId"`
	Name          string    `json:"name"`
	AvgSeverity   float64   `json:"avgSeverity"`   // mean severity across the department's patterns
	Participation float64   `json:"participation"` // 0.0-1.0 survey/check-in participation
	Headcount     int       `json:"headcount"`
	RecordedAt    time.Time `json:"recordedAt"`
}

// InterventionRecord is one historical intervention and its measured outcome
type InterventionRecord struct {
	ID              string     `json:"id"`
	OrgID           string     `json:"orgId"`
	PatternCategory string     `json:"patternCategory"`
	Kind            string     `json:"kind"` // "workshop", "coaching", "training", "structural"
	StartedAt       time.Time  `json:"startedAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	Effectiveness   float64    `json:"effectiveness"` // 0.0-1.0 measured severity reduction
	Cost            float64    `json:"cost"`          // USD
}

// Role is the permission level of a dashboard user
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleHRLead  Role = "hr_lead"
	RoleManager Role = "manager"
	RoleViewer  Role = "viewer"
)

// CanSeeSensitive reports whether the role may receive affected-user lists and
// update metadata. Manager and viewer roles always get the redacted form.
func (r Role) CanSeeSensitive() bool {
	return r == RoleAdmin || r == RoleHRLead
}

// UpdateType identifies the kind of change carried by an AnalyticsUpdate
type UpdateType string

const (
	UpdatePatternChange      UpdateType = "behavior_pattern_change"
	UpdateIntervention       UpdateType = "intervention_update"
	UpdateNewInteraction     UpdateType = "new_interaction"
	UpdateHealthScoreChange  UpdateType = "health_score_change"
	UpdateInitialSnapshot    UpdateType = "initial_snapshot"
)

// UpdateData is the closed set of per-type update payloads. Exactly one
// implementation exists per UpdateType so consumers can switch on the
// concrete type instead of digging through an untyped bag.
type UpdateData interface {
	UpdateType() UpdateType
}

// PatternChangeData carries a behavior pattern severity change
type PatternChangeData struct {
	PatternID   string  `json:"patternId"`
	Category    string  `json:"category"`
	OldSeverity float64 `json:"oldSeverity"`
	NewSeverity float64 `json:"newSeverity"`
}

func (PatternChangeData) UpdateType() UpdateType { return UpdatePatternChange }

// InterventionUpdateData carries an intervention lifecycle change
type InterventionUpdateData struct {
	InterventionID string `json:"interventionId"`
	Kind           string `json:"kind"`
	Status         string `json:"status"` // "started", "completed", "cancelled"
}

func (InterventionUpdateData) UpdateType() UpdateType { return UpdateIntervention }

// InteractionData carries a newly recorded workplace interaction
type InteractionData struct {
	InteractionID string `json:"interactionId"`
	Channel       string `json:"channel"`
	DepartmentID  string `json:"departmentId,omitempty"`
}

func (InteractionData) UpdateType() UpdateType { return UpdateNewInteraction }

// HealthScoreData carries an organization or department health score change
type HealthScoreData struct {
	DepartmentID string  `json:"departmentId,omitempty"`
	OldScore     float64 `json:"oldScore"`
	NewScore     float64 `json:"newScore"`
}

func (HealthScoreData) UpdateType() UpdateType { return UpdateHealthScoreChange }

// SnapshotData is the synthetic payload delivered once on subscribe
type SnapshotData struct {
	SubscriptionID string    `json:"subscriptionId"`
	ServerTime     time.Time `json:"serverTime"`
}

func (SnapshotData) UpdateType() UpdateType { return UpdateInitialSnapshot }

// AnalyticsUpdate is a discrete change event pushed to live dashboard clients.
// It is transient: it exists only in the broadcast queue and on the wire.
type AnalyticsUpdate struct {
	Type          UpdateType     `json:"type"`
	OrgID         string         `json:"organizationId"`
	Data          UpdateData     `json:"data"`
	Timestamp     time.Time      `json:"timestamp"`
	AffectedUsers []string       `json:"affectedUsers,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// Redacted returns a copy safe for roles without sensitive-field access:
// affected users and metadata are stripped, everything else is preserved.
func (u AnalyticsUpdate) Redacted() AnalyticsUpdate {
	out := u
	out.AffectedUsers = nil
	out.Metadata = nil
	return out
}

// Subscription registers one live dashboard client for update delivery.
// The ID is derived from the organization, user, and creation time.
type Subscription struct {
	ID       string       `json:"id"`
	OrgID    string       `json:"organizationId"`
	UserID   string       `json:"userId"`
	Role     Role         `json:"role"`
	Filters  []UpdateType `json:"filters,omitempty"` // empty means all permitted types
	Channel  chan AnalyticsUpdate
	LastPing time.Time `json:"lastPing"`
}

// WantsType reports whether the subscription's filters admit the update type.
// The initial snapshot bypasses filters so every new subscriber sees it.
func (s *Subscription) WantsType(t UpdateType) bool {
	if t == UpdateInitialSnapshot || len(s.Filters) == 0 {
		return true
	}
	for _, f := range s.Filters {
		if f == t {
			return true
		}
	}
	return false
}
