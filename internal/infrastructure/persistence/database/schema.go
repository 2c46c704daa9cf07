package database

import (
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/logging"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS behavior_patterns (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		category TEXT NOT NULL,
		name TEXT NOT NULL,
		severity REAL NOT NULL,
		department_id TEXT NOT NULL,
		last_updated TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_behavior_patterns_org ON behavior_patterns(org_id)`,
	`CREATE TABLE IF NOT EXISTS pattern_history (
		pattern_id TEXT NOT NULL,
		week_start TIMESTAMP NOT NULL,
		severity REAL NOT NULL,
		PRIMARY KEY (pattern_id, week_start)
	)`,
	`CREATE TABLE IF NOT EXISTS department_health (
		org_id TEXT NOT NULL,
		department_id TEXT NOT NULL,
		name TEXT NOT NULL,
		avg_severity REAL NOT NULL,
		participation REAL NOT NULL,
		headcount INTEGER NOT NULL,
		recorded_at TIMESTAMP NOT NULL,
		PRIMARY KEY (org_id, department_id)
	)`,
	`CREATE TABLE IF NOT EXISTS interventions (
		id TEXT PRIMARY KEY,
		org_id TEXT NOT NULL,
		pattern_category TEXT NOT NULL,
		kind TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL,
		completed_at TIMESTAMP,
		effectiveness REAL NOT NULL,
		cost REAL NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_interventions_org ON interventions(org_id)`,
}

// EnsureSchema creates any missing tables and indexes
func (db *DB) EnsureSchema(logger *logging.ChanneledLogger) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			logger.Database().Error("Schema statement failed", "error", err.Error())
			return err
		}
	}
	logger.Database().Info("Database schema verified")
	return nil
}
