package services

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/domain/behavior"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/logging"
)

// DemoOrgID is the organization seeded when demo mode is enabled
const DemoOrgID = "demo-org"

// BehaviorWriter is the write side of the behavior repository, needed only
// for demo seeding
type BehaviorWriter interface {
	SavePattern(p behavior.Pattern) error
	AppendHistory(patternID string, point behavior.SeverityPoint) error
	SaveDepartmentHealth(orgID string, h behavior.DepartmentHealth) error
	SaveIntervention(rec behavior.InterventionRecord) error
}

// DemoService seeds a demo organization with plausible behavior data so a
// fresh deployment has something to show
type DemoService struct {
	writer BehaviorWriter
	logger *logging.ChanneledLogger
}

// NewDemoService creates the demo data seeder
func NewDemoService(writer BehaviorWriter, logger *logging.ChanneledLogger) *DemoService {
	return &DemoService{writer: writer, logger: logger}
}

type demoPattern struct {
	name         string
	category     string
	departmentID string
	baseSeverity float64
	weeklyDrift  float64
}

// Seed writes the demo organization's patterns, histories, department
// health, and intervention history. It is idempotent: rows are upserted.
func (s *DemoService) Seed() error {
	start := time.Now()
	// Fixed seed keeps demo data stable across restarts
	rng := rand.New(rand.NewSource(42))

	patterns := []demoPattern{
		{"After-hours email volume", "communication", "eng", 2.1, 0.18},
		{"Meeting overload", "communication", "sales", 3.4, 0.05},
		{"Sprint overcommitment", "workload", "eng", 3.8, 0.12},
		{"Support queue pressure", "workload", "support", 4.1, -0.08},
		{"Cross-team silo formation", "collaboration", "product", 2.9, 0.10},
		{"Peer review participation drop", "collaboration", "eng", 2.3, -0.12},
		{"Recognition gap for ICs", "recognition", "support", 3.2, 0.02},
	}

	weekStart := time.Now().AddDate(0, 0, -7*8).Truncate(24 * time.Hour)
	for i, dp := range patterns {
		pattern := behavior.Pattern{
			ID:           fmt.Sprintf("demo-pattern-%d", i+1),
			OrgID:        DemoOrgID,
			Category:     dp.category,
			Name:         dp.name,
			DepartmentID: dp.departmentID,
			LastUpdated:  time.Now(),
		}

		severity := dp.baseSeverity
		for week := 0; week < 8; week++ {
			severity += dp.weeklyDrift + (rng.Float64()-0.5)*0.1
			if severity < 1 {
				severity = 1
			}
			if severity > 5 {
				severity = 5
			}
			point := behavior.SeverityPoint{
				WeekStart: weekStart.AddDate(0, 0, 7*week),
				Severity:  severity,
			}
			if err := s.writer.AppendHistory(pattern.ID, point); err != nil {
				return err
			}
		}

		pattern.Severity = severity
		if err := s.writer.SavePattern(pattern); err != nil {
			return err
		}
	}

	departments := []behavior.DepartmentHealth{
		{DepartmentID: "eng", Name: "Engineering", AvgSeverity: 2.8, Participation: 0.82, Headcount: 34},
		{DepartmentID: "sales", Name: "Sales", AvgSeverity: 3.3, Participation: 0.64, Headcount: 18},
		{DepartmentID: "support", Name: "Customer Support", AvgSeverity: 3.7, Participation: 0.91, Headcount: 12},
		{DepartmentID: "product", Name: "Product", AvgSeverity: 2.2, Participation: 0.88, Headcount: 9},
	}
	for _, dept := range departments {
		dept.RecordedAt = time.Now()
		if err := s.writer.SaveDepartmentHealth(DemoOrgID, dept); err != nil {
			return err
		}
	}

	completed := time.Now().AddDate(0, -1, 0)
	interventions := []behavior.InterventionRecord{
		{
			ID:              "demo-intervention-1",
			OrgID:           DemoOrgID,
			PatternCategory: "workload",
			Kind:            "structural",
			StartedAt:       time.Now().AddDate(0, -4, 0),
			CompletedAt:     &completed,
			Effectiveness:   0.68,
			Cost:            22000,
		},
		{
			ID:              "demo-intervention-2",
			OrgID:           DemoOrgID,
			PatternCategory: "communication",
			Kind:            "workshop",
			StartedAt:       time.Now().AddDate(0, 0, -10),
			Effectiveness:   0,
			Cost:            8000,
		},
	}
	for _, rec := range interventions {
		if err := s.writer.SaveIntervention(rec); err != nil {
			return err
		}
	}

	s.logger.Startup().Info("Demo data seeded",
		"orgId", DemoOrgID,
		"patterns", len(patterns),
		"departments", len(departments),
		"duration", time.Since(start))
	return nil
}
