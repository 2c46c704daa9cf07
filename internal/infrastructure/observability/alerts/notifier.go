// Package alerts delivers monitoring notifications to the configured
// webhook and email targets
package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/logging"
	"github.com/resendlabs/resend-go"
)

// recentCapacity bounds the in-memory alert history served to operators
const recentCapacity = 100

// Severity classifies an alert for routing. Critical alerts additionally
// go out by email when an address is configured.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is one monitoring notification
type Alert struct {
	Type        string         `json:"type"`
	Severity    Severity       `json:"severity"`
	Timestamp   time.Time      `json:"timestamp"`
	Details     map[string]any `json:"details"`
	Environment string         `json:"environment"`
}

// Notifier fans alerts out to the webhook and, for critical severity, to
// email. Delivery is fire and forget; a failed delivery is logged and
// never propagates to the operation that raised the alert.
type Notifier struct {
	webhookURL  string
	email       string
	fromEmail   string
	environment string
	resend      *resend.Client
	httpClient  *http.Client
	logger      *logging.ChanneledLogger

	mu     sync.Mutex
	recent []Alert
}

// NewNotifier creates a notifier. Empty webhookURL or email disables that
// delivery path; an empty resendAPIKey disables email regardless.
func NewNotifier(webhookURL, email, resendAPIKey, environment string, logger *logging.ChanneledLogger) *Notifier {
	n := &Notifier{
		webhookURL:  webhookURL,
		email:       email,
		fromEmail:   "alerts@workpulse.app",
		environment: environment,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		logger:      logger,
	}
	if resendAPIKey != "" {
		n.resend = resend.NewClient(resendAPIKey)
	}
	return n
}

// Notify dispatches an alert asynchronously
func (n *Notifier) Notify(alert Alert) {
	alert.Environment = n.environment
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now()
	}

	n.logger.Alert().Warn("Alert raised",
		"type", alert.Type,
		"severity", string(alert.Severity),
		"details", alert.Details)

	n.mu.Lock()
	n.recent = append(n.recent, alert)
	if len(n.recent) > recentCapacity {
		n.recent = n.recent[len(n.recent)-recentCapacity:]
	}
	n.mu.Unlock()

	go n.deliver(alert)
}

// Recent returns the retained alert history, newest first
func (n *Notifier) Recent() []Alert {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Alert, len(n.recent))
	for i, alert := range n.recent {
		out[len(n.recent)-1-i] = alert
	}
	return out
}

func (n *Notifier) deliver(alert Alert) {
	if n.webhookURL != "" {
		if err := n.postWebhook(alert); err != nil {
			n.logger.Alert().Error("Webhook delivery failed", "type", alert.Type, "error", err.Error())
		}
	}
	if alert.Severity == SeverityCritical && n.email != "" && n.resend != nil {
		if err := n.sendEmail(alert); err != nil {
			n.logger.Alert().Error("Email delivery failed", "type", alert.Type, "error", err.Error())
		}
	}
}

func (n *Notifier) postWebhook(alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to encode alert: %w", err)
	}

	resp, err := n.httpClient.Post(n.webhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to post alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func (n *Notifier) sendEmail(alert Alert) error {
	details, _ := json.MarshalIndent(alert.Details, "", "  ")
	body := fmt.Sprintf(
		"<h2>WorkPulse %s alert: %s</h2><p>Environment: %s<br>Time: %s</p><pre>%s</pre>",
		alert.Severity, alert.Type, alert.Environment,
		alert.Timestamp.Format(time.RFC3339), string(details))

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("WorkPulse Alerts <%s>", n.fromEmail),
		To:      []string{n.email},
		Subject: fmt.Sprintf("[%s] %s", alert.Severity, alert.Type),
		Html:    body,
	}

	if _, err := n.resend.Emails.Send(params); err != nil {
		return fmt.Errorf("failed to send alert email via Resend: %w", err)
	}
	return nil
}

// ThresholdExceeded implements the performance alert sink for slow operations
func (n *Notifier) ThresholdExceeded(operation string, duration, threshold time.Duration) {
	n.Notify(Alert{
		Type:     "performance_threshold",
		Severity: SeverityWarning,
		Details: map[string]any{
			"operation": operation,
			"duration":  duration.String(),
			"threshold": threshold.String(),
		},
	})
}

// OperationFailed implements the performance alert sink for failed operations
func (n *Notifier) OperationFailed(operation string, err error) {
	n.Notify(Alert{
		Type:     "operation_failure",
		Severity: SeverityCritical,
		Details: map[string]any{
			"operation": operation,
			"error":     err.Error(),
		},
	})
}

// CircuitOpened reports that a circuit breaker tripped
func (n *Notifier) CircuitOpened(breaker string, failures int) {
	n.Notify(Alert{
		Type:     "circuit_open",
		Severity: SeverityCritical,
		Details: map[string]any{
			"breaker":  breaker,
			"failures": failures,
		},
	})
}
