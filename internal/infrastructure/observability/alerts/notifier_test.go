package alerts

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifyRetainsRecentAlertsNewestFirst(t *testing.T) {
	n := NewNotifier("", "", "", "test", logging.NewTestLogger())

	n.Notify(Alert{Type: "first", Severity: SeverityWarning})
	n.Notify(Alert{Type: "second", Severity: SeverityCritical})

	recent := n.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "second", recent[0].Type)
	assert.Equal(t, "first", recent[1].Type)
	assert.Equal(t, "test", recent[0].Environment)
	assert.False(t, recent[0].Timestamp.IsZero())
}

func TestRecentHistoryIsBounded(t *testing.T) {
	n := NewNotifier("", "", "", "test", logging.NewTestLogger())

	for i := 0; i < recentCapacity+10; i++ {
		n.Notify(Alert{Type: fmt.Sprintf("alert-%d", i), Severity: SeverityWarning})
	}

	recent := n.Recent()
	require.Len(t, recent, recentCapacity)
	assert.Equal(t, fmt.Sprintf("alert-%d", recentCapacity+9), recent[0].Type)
	assert.Equal(t, "alert-10", recent[len(recent)-1].Type)
}

func TestNotifyPostsWebhook(t *testing.T) {
	var mu sync.Mutex
	var received []Alert
	done := make(chan struct{}, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var alert Alert
		require.NoError(t, json.NewDecoder(r.Body).Decode(&alert))
		mu.Lock()
		received = append(received, alert)
		mu.Unlock()
		done <- struct{}{}
	}))
	defer server.Close()

	n := NewNotifier(server.URL, "", "", "production", logging.NewTestLogger())
	n.ThresholdExceeded("db_query", 700*time.Millisecond, 500*time.Millisecond)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was never called")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, "performance_threshold", received[0].Type)
	assert.Equal(t, SeverityWarning, received[0].Severity)
	assert.Equal(t, "production", received[0].Environment)
	assert.Equal(t, "db_query", received[0].Details["operation"])
	assert.Equal(t, "700ms", received[0].Details["duration"])
}

func TestWebhookFailureStaysContained(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	n := NewNotifier(server.URL, "", "", "test", logging.NewTestLogger())

	// delivery runs async and must never panic or surface the failure
	n.OperationFailed("insight_generation", fmt.Errorf("boom"))
	time.Sleep(50 * time.Millisecond)

	require.Len(t, n.Recent(), 1)
	assert.Equal(t, SeverityCritical, n.Recent()[0].Severity)
}

func TestCircuitOpenedDetails(t *testing.T) {
	n := NewNotifier("", "", "", "test", logging.NewTestLogger())

	n.CircuitOpened("behavior-db", 5)

	recent := n.Recent()
	require.Len(t, recent, 1)
	assert.Equal(t, "circuit_open", recent[0].Type)
	assert.Equal(t, "behavior-db", recent[0].Details["breaker"])
	assert.Equal(t, 5, recent[0].Details["failures"])
}
