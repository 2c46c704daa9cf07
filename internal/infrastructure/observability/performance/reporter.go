package performance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/logging"
)

// statsReport is the payload pushed to the external metrics endpoint
type statsReport struct {
	Timestamp   time.Time        `json:"timestamp"`
	Environment string           `json:"environment"`
	Buffered    int              `json:"buffered"`
	Operations  map[string]Stats `json:"operations"`
}

// Reporter periodically pushes aggregated tracker stats to an external
// metrics endpoint. An empty endpoint disables reporting entirely; push
// failures are logged and never interrupt the cycle.
type Reporter struct {
	endpoint    string
	environment string
	tracker     *Tracker
	httpClient  *http.Client
	logger      *logging.ChanneledLogger
}

// NewReporter creates a metrics reporter bound to the given tracker
func NewReporter(endpoint, environment string, tracker *Tracker, logger *logging.ChanneledLogger) *Reporter {
	return &Reporter{
		endpoint:    endpoint,
		environment: environment,
		tracker:     tracker,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
	}
}

// Enabled reports whether an endpoint is configured
func (r *Reporter) Enabled() bool {
	return r.endpoint != ""
}

// Report pushes one stats snapshot. Nothing is sent when the tracker has
// no buffered metrics yet.
func (r *Reporter) Report() error {
	if !r.Enabled() {
		return nil
	}

	buffered := r.tracker.BufferedCount()
	if buffered == 0 {
		return nil
	}

	payload, err := json.Marshal(statsReport{
		Timestamp:   time.Now(),
		Environment: r.environment,
		Buffered:    buffered,
		Operations:  r.tracker.GetAllStats(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode stats report: %w", err)
	}

	resp, err := r.httpClient.Post(r.endpoint, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to push stats report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("metrics endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Start runs the reporting loop until ctx is cancelled
func (r *Reporter) Start(ctx context.Context, interval time.Duration) {
	if !r.Enabled() {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Report(); err != nil {
				r.logger.Perf().Warn("Metrics push failed", "endpoint", r.endpoint, "error", err.Error())
			}
		}
	}
}
