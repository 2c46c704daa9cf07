package insights

import (
	"math/rand"
	"sync"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/domain/behavior"
	"github.com/oklog/ulid/v2"
)

// Engine runs the five analytical passes over an organization's raw data.
// It is stateless between runs; callers own caching of the output.
type Engine struct {
	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy
	now       func() time.Time
}

// NewEngine creates an insight engine. The clock is injectable so tests can
// pin expiry and recency windows.
func NewEngine() *Engine {
	return &Engine{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
		now:     time.Now,
	}
}

// WithClock overrides the engine's clock, returning the engine for chaining.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// newID mints a ULID. The monotonic entropy source is not safe for
// concurrent reads, and one engine serves every request.
func (e *Engine) newID() string {
	e.entropyMu.Lock()
	defer e.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(e.now()), e.entropy).String()
}

// GenerateInsights runs every pass over the supplied raw arrays and returns
// the combined list sorted by priority weight then confidence. The caller
// replaces any previously cached list for the organization wholesale.
func (e *Engine) GenerateInsights(orgID string, patterns []behavior.Pattern, health []behavior.DepartmentHealth, history []behavior.InterventionRecord) []PredictiveInsight {
	now := e.now()

	var all []PredictiveInsight
	all = append(all, e.trendPass(orgID, patterns, now)...)
	all = append(all, e.anomalyPass(orgID, patterns, now)...)
	all = append(all, e.riskPass(orgID, patterns, health, now)...)
	all = append(all, e.interventionPass(orgID, patterns, history, now)...)
	all = append(all, e.opportunityPass(orgID, health, now)...)

	SortInsights(all)
	return all
}
