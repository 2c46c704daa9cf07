// Package behavior provides the SQL-based implementation of the behavior
// data repository
package behavior

import (
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/domain/behavior"
	"github.com/WorkfieldLabs/workpulse-go/internal/domain/errs"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/logging"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/persistence/database"
)

// SQLRepository is the SQL-based implementation of the behavior repository.
type SQLRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

// NewSQLRepository creates a new instance of the repository.
func NewSQLRepository(db *database.DB, logger *logging.ChanneledLogger) *SQLRepository {
	return &SQLRepository{
		db:     db,
		logger: logger,
	}
}

// LoadPatterns retrieves every behavior pattern for an organization,
// including its severity history ordered oldest first.
func (r *SQLRepository) LoadPatterns(orgID string) ([]behavior.Pattern, error) {
	const query = `
		SELECT id, org_id, category, name, severity, department_id, last_updated
		FROM behavior_patterns
		WHERE org_id = ?`

	start := time.Now()
	rows, err := r.db.Query(query, orgID)
	if err != nil {
		r.logger.Database().Error("Failed to load behavior patterns", "error", err.Error(), "orgId", orgID)
		return nil, errs.Wrap(errs.CodeDatabase, "load behavior patterns", err)
	}
	defer rows.Close()

	var patterns []behavior.Pattern
	for rows.Next() {
		var p behavior.Pattern
		if err := rows.Scan(&p.ID, &p.OrgID, &p.Category, &p.Name, &p.Severity, &p.DepartmentID, &p.LastUpdated); err != nil {
			return nil, errs.Wrap(errs.CodeDatabase, "scan behavior pattern", err)
		}
		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.CodeDatabase, "iterate behavior patterns", err)
	}

	for i := range patterns {
		history, err := r.loadHistory(patterns[i].ID)
		if err != nil {
			return nil, err
		}
		patterns[i].History = history
	}

	duration := time.Since(start)
	r.logger.Database().Debug("Loaded behavior patterns", "orgId", orgID, "count", len(patterns), "duration", duration)
	database.CheckAndLogSlowQuery(r.logger, "LOAD_BEHAVIOR_PATTERNS", duration)
	return patterns, nil
}

func (r *SQLRepository) loadHistory(patternID string) ([]behavior.SeverityPoint, error) {
	const query = `
		SELECT week_start, severity
		FROM pattern_history
		WHERE pattern_id = ?
		ORDER BY week_start ASC`

	rows, err := r.db.Query(query, patternID)
	if err != nil {
		return nil, errs.Wrap(errs.CodeDatabase, "load pattern history", err)
	}
	defer rows.Close()

	var history []behavior.SeverityPoint
	for rows.Next() {
		var point behavior.SeverityPoint
		if err := rows.Scan(&point.WeekStart, &point.Severity); err != nil {
			return nil, errs.Wrap(errs.CodeDatabase, "scan pattern history", err)
		}
		history = append(history, point)
	}
	return history, rows.Err()
}

// LoadDepartmentHealth retrieves the current health snapshot for every
// department in an organization.
func (r *SQLRepository) LoadDepartmentHealth(orgID string) ([]behavior.DepartmentHealth, error) {
	const query = `
		SELECT department_id, name, avg_severity, participation, headcount, recorded_at
		FROM department_health
		WHERE org_id = ?`

	start := time.Now()
	rows, err := r.db.Query(query, orgID)
	if err != nil {
		r.logger.Database().Error("Failed to load department health", "error", err.Error(), "orgId", orgID)
		return nil, errs.Wrap(errs.CodeDatabase, "load department health", err)
	}
	defer rows.Close()

	var health []behavior.DepartmentHealth
	for rows.Next() {
		var h behavior.DepartmentHealth
		if err := rows.Scan(&h.DepartmentID, &h.Name, &h.AvgSeverity, &h.Participation, &h.Headcount, &h.RecordedAt); err != nil {
			return nil, errs.Wrap(errs.CodeDatabase, "scan department health", err)
		}
		health = append(health, h)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.CodeDatabase, "iterate department health", err)
	}

	database.CheckAndLogSlowQuery(r.logger, "LOAD_DEPARTMENT_HEALTH", time.Since(start))
	return health, nil
}

// LoadInterventions retrieves the intervention history for an organization,
// completed and active alike.
func (r *SQLRepository) LoadInterventions(orgID string) ([]behavior.InterventionRecord, error) {
	const query = `
		SELECT id, org_id, pattern_category, kind, started_at, completed_at, effectiveness, cost
		FROM interventions
		WHERE org_id = ?
		ORDER BY started_at DESC`

	start := time.Now()
	rows, err := r.db.Query(query, orgID)
	if err != nil {
		r.logger.Database().Error("Failed to load interventions", "error", err.Error(), "orgId", orgID)
		return nil, errs.Wrap(errs.CodeDatabase, "load interventions", err)
	}
	defer rows.Close()

	var records []behavior.InterventionRecord
	for rows.Next() {
		var rec behavior.InterventionRecord
		if err := rows.Scan(&rec.ID, &rec.OrgID, &rec.PatternCategory, &rec.Kind, &rec.StartedAt, &rec.CompletedAt, &rec.Effectiveness, &rec.Cost); err != nil {
			return nil, errs.Wrap(errs.CodeDatabase, "scan intervention", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(errs.CodeDatabase, "iterate interventions", err)
	}

	database.CheckAndLogSlowQuery(r.logger, "LOAD_INTERVENTIONS", time.Since(start))
	return records, nil
}

// SavePattern upserts a behavior pattern row. History points are stored
// separately via AppendHistory.
func (r *SQLRepository) SavePattern(p behavior.Pattern) error {
	const query = `
		INSERT INTO behavior_patterns (id, org_id, category, name, severity, department_id, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category = excluded.category,
			name = excluded.name,
			severity = excluded.severity,
			department_id = excluded.department_id,
			last_updated = excluded.last_updated`

	if _, err := r.db.Exec(query, p.ID, p.OrgID, p.Category, p.Name, p.Severity, p.DepartmentID, p.LastUpdated); err != nil {
		return errs.Wrap(errs.CodeDatabase, "save behavior pattern", err)
	}
	return nil
}

// AppendHistory records one weekly severity point for a pattern
func (r *SQLRepository) AppendHistory(patternID string, point behavior.SeverityPoint) error {
	const query = `
		INSERT INTO pattern_history (pattern_id, week_start, severity)
		VALUES (?, ?, ?)
		ON CONFLICT(pattern_id, week_start) DO UPDATE SET severity = excluded.severity`

	if _, err := r.db.Exec(query, patternID, point.WeekStart, point.Severity); err != nil {
		return errs.Wrap(errs.CodeDatabase, "append pattern history", err)
	}
	return nil
}

// SaveDepartmentHealth upserts a department health snapshot
func (r *SQLRepository) SaveDepartmentHealth(orgID string, h behavior.DepartmentHealth) error {
	const query = `
		INSERT INTO department_health (org_id, department_id, name, avg_severity, participation, headcount, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(org_id, department_id) DO UPDATE SET
			name = excluded.name,
			avg_severity = excluded.avg_severity,
			participation = excluded.participation,
			headcount = excluded.headcount,
			recorded_at = excluded.recorded_at`

	if _, err := r.db.Exec(query, orgID, h.DepartmentID, h.Name, h.AvgSeverity, h.Participation, h.Headcount, h.RecordedAt); err != nil {
		return errs.Wrap(errs.CodeDatabase, "save department health", err)
	}
	return nil
}

// SaveIntervention upserts an intervention record
func (r *SQLRepository) SaveIntervention(rec behavior.InterventionRecord) error {
	const query = `
		INSERT INTO interventions (id, org_id, pattern_category, kind, started_at, completed_at, effectiveness, cost)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			pattern_category = excluded.pattern_category,
			kind = excluded.kind,
			started_at = excluded.started_at,
			completed_at = excluded.completed_at,
			effectiveness = excluded.effectiveness,
			cost = excluded.cost`

	if _, err := r.db.Exec(query, rec.ID, rec.OrgID, rec.PatternCategory, rec.Kind, rec.StartedAt, rec.CompletedAt, rec.Effectiveness, rec.Cost); err != nil {
		return errs.Wrap(errs.CodeDatabase, "save intervention", err)
	}
	return nil
}

// UpdatePatternSeverity sets a pattern's current severity and bump time
func (r *SQLRepository) UpdatePatternSeverity(patternID string, severity float64, at time.Time) error {
	const query = `UPDATE behavior_patterns SET severity = ?, last_updated = ? WHERE id = ?`

	if _, err := r.db.Exec(query, severity, at, patternID); err != nil {
		return errs.Wrap(errs.CodeDatabase, "update pattern severity", err)
	}
	return nil
}
