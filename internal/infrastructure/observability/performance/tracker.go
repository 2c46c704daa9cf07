// Package performance provides operation timing and aggregation for the
// analytics core, feeding threshold alerts to the notifier.
package performance

import (
	"sort"
	"sync"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/logging"
)

// Metric is one recorded operation execution
type Metric struct {
	Operation string            `json:"operation"`
	Duration  time.Duration     `json:"duration"`
	Success   bool              `json:"success"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// Stats aggregates the recorded metrics for one operation
type Stats struct {
	Operation   string  `json:"operation"`
	Count       int     `json:"count"`
	MeanMs      float64 `json:"meanMs"`
	P95Ms       float64 `json:"p95Ms"`
	SuccessRate float64 `json:"successRate"`
	ErrorCount  int     `json:"errorCount"`
}

// AlertSink receives threshold breaches and operation failures. The alerts
// notifier implements this; tests supply fakes.
type AlertSink interface {
	ThresholdExceeded(operation string, duration, threshold time.Duration)
	OperationFailed(operation string, err error)
}

// TrackerConfig contains configuration options for the performance tracker
type TrackerConfig struct {
	BufferSize       int                      `json:"bufferSize"`       // Metrics retained before oldest are dropped
	DefaultThreshold time.Duration            `json:"defaultThreshold"` // Applied when no per-operation threshold exists
	Thresholds       map[string]time.Duration `json:"thresholds"`       // Per-operation duration thresholds
}

// DefaultTrackerConfig returns a sensible default configuration
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		BufferSize:       1000,
		DefaultThreshold: 500 * time.Millisecond,
		Thresholds: map[string]time.Duration{
			"insight_generation": 2 * time.Second,
			"view_computation":   time.Second,
			"db_query":           200 * time.Millisecond,
		},
	}
}

// Tracker records operation timings into a bounded FIFO buffer. When the
// buffer is full the oldest metric is dropped. Failures and over-threshold
// successes are forwarded to the alert sink.
type Tracker struct {
	metrics []Metric
	config  *TrackerConfig
	sink    AlertSink
	logger  *logging.ChanneledLogger
	mu      sync.RWMutex
	now     func() time.Time
}

// NewTracker creates a performance tracker. sink may be nil when alerting
// is not wired (tests, tooling).
func NewTracker(config *TrackerConfig, sink AlertSink, logger *logging.ChanneledLogger) *Tracker {
	if config == nil {
		config = DefaultTrackerConfig()
	}
	if config.BufferSize <= 0 {
		config.BufferSize = 1000
	}
	return &Tracker{
		metrics: make([]Metric, 0, config.BufferSize),
		config:  config,
		sink:    sink,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock overrides the tracker's clock for deterministic tests
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// TrackOperation times fn, records the result, and returns fn's error
// unchanged so callers keep their normal error handling. metadata may be
// nil; it is carried on the recorded metric, not interpreted.
func (t *Tracker) TrackOperation(operation string, metadata map[string]string, fn func() error) error {
	start := t.now()
	err := fn()
	duration := t.now().Sub(start)

	metric := Metric{
		Operation: operation,
		Duration:  duration,
		Success:   err == nil,
		Timestamp: start,
		Metadata:  metadata,
	}
	if err != nil {
		metric.Error = err.Error()
	}
	t.record(metric)

	threshold := t.thresholdFor(operation)
	switch {
	case err != nil:
		t.logger.Perf().Warn("Operation failed", "operation", operation, "duration", duration, "error", err.Error())
		if t.sink != nil {
			t.sink.OperationFailed(operation, err)
		}
	case duration > threshold:
		t.logger.Perf().Warn("Operation exceeded threshold", "operation", operation, "duration", duration, "threshold", threshold)
		if t.sink != nil {
			t.sink.ThresholdExceeded(operation, duration, threshold)
		}
	}

	return err
}

func (t *Tracker) thresholdFor(operation string) time.Duration {
	if threshold, exists := t.config.Thresholds[operation]; exists {
		return threshold
	}
	return t.config.DefaultThreshold
}

func (t *Tracker) record(metric Metric) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.metrics) >= t.config.BufferSize {
		t.metrics = t.metrics[1:]
	}
	t.metrics = append(t.metrics, metric)
}

// GetStats aggregates the buffered metrics for one operation
func (t *Tracker) GetStats(operation string) Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var durations []time.Duration
	stats := Stats{Operation: operation}
	var totalMs float64
	var successes int

	for _, metric := range t.metrics {
		if metric.Operation != operation {
			continue
		}
		stats.Count++
		totalMs += float64(metric.Duration.Microseconds()) / 1000.0
		durations = append(durations, metric.Duration)
		if metric.Success {
			successes++
		} else {
			stats.ErrorCount++
		}
	}

	if stats.Count == 0 {
		return stats
	}

	stats.MeanMs = totalMs / float64(stats.Count)
	stats.SuccessRate = float64(successes) / float64(stats.Count)
	stats.P95Ms = percentileMs(durations, 0.95)
	return stats
}

// GetAllStats aggregates the buffered metrics for every observed operation
func (t *Tracker) GetAllStats() map[string]Stats {
	t.mu.RLock()
	operations := make(map[string]struct{})
	for _, metric := range t.metrics {
		operations[metric.Operation] = struct{}{}
	}
	t.mu.RUnlock()

	all := make(map[string]Stats, len(operations))
	for operation := range operations {
		all[operation] = t.GetStats(operation)
	}
	return all
}

// BufferedCount returns how many metrics are currently retained
func (t *Tracker) BufferedCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.metrics)
}

// percentileMs computes the given percentile over a copy of the durations
func percentileMs(durations []time.Duration, pct float64) float64 {
	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := int(float64(len(sorted))*pct) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return float64(sorted[idx].Microseconds()) / 1000.0
}
