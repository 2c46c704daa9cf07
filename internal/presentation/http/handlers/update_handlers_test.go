package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/WorkfieldLabs/workpulse-go/internal/application/services"
	"github.com/WorkfieldLabs/workpulse-go/internal/domain/behavior"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/messaging"
	"github.com/WorkfieldLabs/workpulse-go/internal/infrastructure/observability/logging"
	"github.com/WorkfieldLabs/workpulse-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedWrite struct {
	patternID string
	severity  float64
}

type fakePatternWriter struct {
	writes []recordedWrite
	err    error
}

func (f *fakePatternWriter) UpdatePatternSeverity(patternID string, severity float64, _ time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.writes = append(f.writes, recordedWrite{patternID: patternID, severity: severity})
	return nil
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(string) int    { return 0 }
func (noopInvalidator) InvalidateOrg(string) int { return 0 }

func newPublishRouter(t *testing.T, writer *fakePatternWriter) (*gin.Engine, *messaging.Broadcaster) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logging.NewTestLogger()
	broadcaster := messaging.NewBroadcaster(noopInvalidator{}, 5*time.Minute, logger)
	handlers := NewUpdateHandlers(broadcaster, writer, logger)

	r := gin.New()
	r.POST("/api/v1/orgs/:orgId/updates", func(c *gin.Context) {
		c.Set(middleware.ContextClaims, &services.Claims{
			OrgID:  "org-1",
			UserID: "user-1",
			Role:   behavior.RoleHRLead,
		})
	}, handlers.PublishUpdate)
	return r, broadcaster
}

func postUpdate(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orgs/org-1/updates", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestPublishPatternChangePersistsSeverity(t *testing.T) {
	writer := &fakePatternWriter{}
	r, broadcaster := newPublishRouter(t, writer)

	rec := postUpdate(r, `{
		"type": "behavior_pattern_change",
		"data": {"patternId": "pat-1", "category": "workload", "oldSeverity": 3.1, "newSeverity": 4.2}
	}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, writer.writes, 1)
	assert.Equal(t, "pat-1", writer.writes[0].patternID)
	assert.Equal(t, 4.2, writer.writes[0].severity)
	assert.Equal(t, 1, broadcaster.DrainQueue())
}

func TestPublishPatternChangePersistFailureNotQueued(t *testing.T) {
	writer := &fakePatternWriter{err: errors.New("disk full")}
	r, broadcaster := newPublishRouter(t, writer)

	rec := postUpdate(r, `{
		"type": "behavior_pattern_change",
		"data": {"patternId": "pat-1", "newSeverity": 4.2}
	}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 0, broadcaster.DrainQueue())
}

func TestPublishNonPatternUpdateSkipsWriter(t *testing.T) {
	writer := &fakePatternWriter{}
	r, broadcaster := newPublishRouter(t, writer)

	rec := postUpdate(r, `{
		"type": "health_score_change",
		"data": {"departmentId": "dept-1", "oldScore": 6.0, "newScore": 6.5}
	}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, writer.writes)
	assert.Equal(t, 1, broadcaster.DrainQueue())
}

func TestPublishUpdateRejectsMissingFields(t *testing.T) {
	writer := &fakePatternWriter{}
	r, _ := newPublishRouter(t, writer)

	rec := postUpdate(r, `{"type": "behavior_pattern_change"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, writer.writes)
}

func TestPublishUpdateRejectsUnknownType(t *testing.T) {
	writer := &fakePatternWriter{}
	r, _ := newPublishRouter(t, writer)

	rec := postUpdate(r, `{"type": "mystery_event", "data": {"x": 1}}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown update type")
	assert.Empty(t, writer.writes)
}
